package harness

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/mobilindo-e2e/internal/browser"
	"github.com/roach88/mobilindo-e2e/internal/testutil"
)

const baseURL = "http://mobilindo.test"

var (
	selMasuk        = browser.Selector{Role: "button", Name: "Masuk"}
	selSubmitLogin  = browser.Selector{Role: "button", Name: "Masuk", Exact: true}
	selEmail        = browser.Selector{Label: "Email"}
	selPassword     = browser.Selector{Label: "Password"}
	selMain         = browser.Selector{CSS: "main"}
	selUserRole     = browser.Selector{TestID: "user-role"}
	selSimulasi     = browser.Selector{Role: "button", Name: "Simulasi Kredit"}
	selInputManual  = browser.Selector{Role: "button", Name: "Input Manual"}
	selHarga        = browser.Selector{Label: "Harga Mobil"}
	selUangMuka     = browser.Selector{Label: "Uang Muka"}
	selBunga        = browser.Selector{Label: "Suku Bunga (%)"}
	selTenor        = browser.Selector{Label: "Tenor"}
	selHitung       = browser.Selector{Role: "button", Name: "Hitung Simulasi"}
	selCreditResult = browser.Selector{TestID: "credit-result"}
	selAngsuran     = browser.Selector{TestID: "monthly-installment"}
	selCarCard      = browser.Selector{TestID: "car-card"}
	selCardBrand    = browser.Selector{TestID: "car-brand"}
	selCardPrice    = browser.Selector{TestID: "car-price"}
	selCardYear     = browser.Selector{TestID: "car-year"}
	selCardTrans    = browser.Selector{TestID: "car-transmission"}
)

// newMarketplace builds an in-memory Mobilindo with a home page, login,
// dashboard, credit simulation and catalog.
func newMarketplace() *testutil.App {
	app := testutil.NewApp()

	app.Page(baseURL+"/").
		Add(selMasuk, &testutil.Element{Text: "Masuk", OnClick: func(p *testutil.FakePage) {
			p.Navigate(baseURL + "/login")
		}}).
		Add(selSimulasi, &testutil.Element{Text: "Simulasi Kredit", OnClick: func(p *testutil.FakePage) {
			p.Navigate(baseURL + "/simulasi-kredit")
		}})

	email := &testutil.Element{Attrs: map[string]string{"placeholder": "harisfalih@gmail.com"}}
	password := &testutil.Element{Attrs: map[string]string{"type": "password"}}
	app.Page(baseURL+"/login").
		Add(selEmail, email).
		Add(selPassword, password).
		Add(selSubmitLogin, &testutil.Element{Text: "Masuk", OnClick: func(p *testutil.FakePage) {
			if email.Value == "mobilindoandre" && password.Value == "1234567" {
				p.Navigate(baseURL + "/dashboard")
			}
		}}).
		Add(selMain, &testutil.Element{Text: "Masuk ke akun Anda"})

	app.Page(baseURL+"/dashboard").
		Add(selMain, &testutil.Element{Text: "Selamat datang kembali,\n  John Doe!\nTotal Pembelian 0"}).
		Add(selUserRole, &testutil.Element{Text: " Pembeli "})

	result := &testutil.Element{
		Hidden: true,
		Text:   "Angsuran per Bulan Rp 5.024.627 Total Bunga Rp 41.182.112 Total Pembayaran Rp 298.832.112 Tenor 48 Bulan",
	}
	app.Page(baseURL+"/simulasi-kredit").
		Add(selInputManual, &testutil.Element{Text: "Input Manual"}).
		Add(selHarga, &testutil.Element{}).
		Add(selUangMuka, &testutil.Element{}).
		Add(selBunga, &testutil.Element{}).
		Add(selTenor, &testutil.Element{}).
		Add(selHitung, &testutil.Element{Text: "Hitung Simulasi", OnClick: func(p *testutil.FakePage) {
			result.Hidden = false
		}}).
		Add(selCreditResult, result).
		Add(selAngsuran, &testutil.Element{Text: "Rp 5.024.627"})

	app.Page(baseURL+"/katalog?merk=toyota").
		Add(selCarCard,
			carCard("Toyota", "Rp 235.000.000", "2023", "Manual"),
			carCard("Toyota", "Rp 289.500.000", "2023", "manual"),
		)

	return app
}

func carCard(brand, price, year, transmission string) *testutil.Element {
	return (&testutil.Element{}).
		Child(selCardBrand, &testutil.Element{Text: brand}).
		Child(selCardPrice, &testutil.Element{Text: price}).
		Child(selCardYear, &testutil.Element{Text: year}).
		Child(selCardTrans, &testutil.Element{Text: transmission})
}

// testOptions runs against fake with no settle delay and a deterministic
// clock.
func testOptions(fake *testutil.Fake) Options {
	return Options{
		NewDriver: fake.Factory(),
		BaseURL:   baseURL,
		Launch:    browser.LaunchOptions{Headless: true},
		Now:       testutil.NewDeterministicClock(0).Now,
	}
}

// openPage acquires a session on app and navigates to url.
func openPage(t *testing.T, app *testutil.App, url string) browser.Page {
	t.Helper()
	fake := testutil.NewFake(app)
	s, err := browser.Acquire(fake.Factory(), browser.SessionOptions{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	p, err := s.Page()
	require.NoError(t, err)
	require.NoError(t, p.Goto(url, browser.GotoOptions{}))
	return p
}

func sel(s browser.Selector) *browser.Selector {
	return &s
}

func int64p(v int64) *int64 {
	return &v
}

func intp(v int) *int {
	return &v
}

func loginScenario(password string) *Scenario {
	return &Scenario{
		Name:        "login",
		Description: "Buyer logs in",
		Steps: []Step{
			{Action: ActionGoto, URL: "/"},
			{Action: ActionClick, Target: sel(selMasuk)},
			{Action: ActionFill, Target: sel(selEmail), Value: "mobilindoandre"},
			{Action: ActionFill, Target: sel(selPassword), Value: password},
			{Action: ActionClick, Target: sel(selSubmitLogin)},
		},
		Assertions: []Assertion{
			{Type: AssertTextContains, Target: sel(selMain), Values: []string{"Selamat datang kembali", "John Doe"}},
			{Type: AssertTextEquals, Target: sel(selUserRole), Value: "Pembeli"},
		},
	}
}
