package browser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSelector_String(t *testing.T) {
	tests := []struct {
		name string
		sel  Selector
		want string
	}{
		{"role only", Selector{Role: "dialog"}, "role=dialog"},
		{"role with name", Selector{Role: "button", Name: "Masuk"}, `role=button[name="Masuk"]`},
		{"role exact", Selector{Role: "link", Name: "Daftar", Exact: true}, `role=link[name="Daftar" exact]`},
		{"label", Selector{Label: "Email"}, "label=Email"},
		{"placeholder", Selector{Placeholder: "Contoh: 50000"}, "placeholder=Contoh: 50000"},
		{"test id", Selector{TestID: "car-card"}, "test_id=car-card"},
		{"text", Selector{Text: "Rp 5.024.627"}, "text=Rp 5.024.627"},
		{"css", Selector{CSS: "#fullName"}, "css=#fullName"},
		{"xpath", Selector{XPath: "//main"}, "xpath=//main"},
		{"empty", Selector{}, "<empty>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.sel.String())
		})
	}
}

func TestSelector_Validate(t *testing.T) {
	assert.NoError(t, Selector{Role: "button", Name: "Masuk"}.Validate())
	assert.NoError(t, Selector{XPath: "//div"}.Validate())

	err := Selector{}.Validate()
	assert.ErrorContains(t, err, "no strategy")

	err = Selector{CSS: "#a", Text: "b"}.Validate()
	assert.ErrorContains(t, err, "multiple strategies: text, css")

	err = Selector{Label: "Email", Name: "x"}.Validate()
	assert.ErrorContains(t, err, "require role")
}

func TestOpError_UnwrapsTimeout(t *testing.T) {
	err := &OpError{Op: "click", Selector: "css=#x", Err: ErrTimeout}
	assert.True(t, IsTimeout(err))
	assert.Equal(t, "click css=#x: browser operation timed out", err.Error())

	pageErr := &OpError{Op: "goto", Err: ErrNoPage}
	assert.Equal(t, "goto: no open page in browser context", pageErr.Error())
}
