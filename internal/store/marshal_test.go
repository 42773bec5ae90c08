package store

import (
	"testing"
	"time"
)

func TestMarshalErrors(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want string
	}{
		{"nil", nil, "[]"},
		{"empty", []string{}, "[]"},
		{"no html escaping", []string{`expected <a> & "b"`}, `["expected <a> & \"b\""]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := marshalErrors(tt.in)
			if err != nil {
				t.Fatalf("marshalErrors() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("marshalErrors() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestUnmarshalErrors_Invalid(t *testing.T) {
	if _, err := unmarshalErrors("{not json"); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestFormatTime_SortsLexically(t *testing.T) {
	a := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	b := a.Add(time.Nanosecond * 500)
	if !(formatTime(a) < formatTime(b)) {
		t.Errorf("%s should sort before %s", formatTime(a), formatTime(b))
	}

	back, err := parseTime(formatTime(b))
	if err != nil {
		t.Fatalf("parseTime() error = %v", err)
	}
	if !back.Equal(b) {
		t.Errorf("parseTime(formatTime(b)) = %v, want %v", back, b)
	}
}
