// Package browser is the driver adapter between scenarios and a real browser.
//
// The harness never talks to an automation library directly. It consumes the
// small set of interfaces declared here:
//
//	Driver  -> Launch(LaunchOptions) Browser
//	Browser -> NewContext(ContextOptions) Context
//	Context -> NewPage() Page, Pages()
//	Page    -> Goto, WaitForLoadState, Frames, Locate, Wait, Scroll, URL
//	Locator -> Nth, Click, Fill, Check, SelectOption, InnerText, InputValue,
//	           Attribute, Count, All, IsVisible, Locate
//
// The production implementation (playwright.go) is a pass-through to
// playwright-go. Tests use the in-memory fake in internal/testutil.
//
// # Sessions
//
// A Session owns one driver, one browser, one isolated context and the pages
// opened in it. Acquire builds it in that order and Close releases it in the
// reverse order (page, context, browser, driver) exactly once, even when
// acquisition stopped half way.
//
// # Selectors
//
// Selectors are plain data. Semantic strategies (role, label, placeholder,
// test id) are preferred over positional XPath because they survive DOM
// restructuring; XPath and CSS remain available for elements that expose
// nothing better.
//
// # Errors
//
// Any lookup or action that exceeds its timeout returns an error matching
// ErrTimeout with errors.Is.
package browser
