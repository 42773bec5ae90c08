package browser

import (
	"time"
)

// LoadState is a page lifecycle milestone a caller can wait for.
type LoadState string

// Load states understood by WaitForLoadState and Goto.
const (
	LoadStateCommit           LoadState = "commit"
	LoadStateDOMContentLoaded LoadState = "domcontentloaded"
	LoadStateLoad             LoadState = "load"
	LoadStateNetworkIdle      LoadState = "networkidle"
)

// ValidLoadStates lists the accepted load states.
var ValidLoadStates = []LoadState{
	LoadStateCommit,
	LoadStateDOMContentLoaded,
	LoadStateLoad,
	LoadStateNetworkIdle,
}

// IsValidLoadState reports whether s names a known load state.
func IsValidLoadState(s LoadState) bool {
	for _, v := range ValidLoadStates {
		if v == s {
			return true
		}
	}
	return false
}

// DefaultBrowserArgs are the Chromium flags used for container-friendly
// headless runs.
var DefaultBrowserArgs = []string{
	"--window-size=1280,720",
	"--disable-dev-shm-usage",
	"--ipc=host",
	"--single-process",
}

// LaunchOptions configures the browser process.
type LaunchOptions struct {
	Headless bool
	Args     []string
	SlowMo   time.Duration
}

// ContextOptions configures an isolated browsing context.
type ContextOptions struct {
	// DefaultTimeout applies to every locator action that does not set its own.
	DefaultTimeout time.Duration
}

// GotoOptions configures a navigation.
type GotoOptions struct {
	WaitUntil LoadState
	Timeout   time.Duration
}

// Driver starts browsers. Stop shuts the automation driver down.
type Driver interface {
	Launch(opts LaunchOptions) (Browser, error)
	Stop() error
}

// DriverFactory starts a fresh driver. One driver is started per session.
type DriverFactory func() (Driver, error)

// Browser is a running browser instance.
type Browser interface {
	NewContext(opts ContextOptions) (Context, error)
	Close() error
}

// Context is an isolated browsing context (cookies, storage).
type Context interface {
	NewPage() (Page, error)
	// Pages returns the open pages in the order they were opened.
	Pages() []Page
	Close() error
}

// Scope resolves selectors. Pages resolve against the whole document,
// locators resolve inside the matched element.
type Scope interface {
	Locate(sel Selector) Locator
}

// Page is one tab.
type Page interface {
	Scope
	Goto(url string, opts GotoOptions) error
	WaitForLoadState(state LoadState, timeout time.Duration) error
	Frames() []Frame
	// Wait blocks for a fixed delay.
	Wait(d time.Duration)
	Scroll(dx, dy float64) error
	URL() string
	Close() error
}

// Frame is a document inside a page, including the main frame.
type Frame interface {
	WaitForLoadState(state LoadState, timeout time.Duration) error
}

// Locator finds elements lazily; nothing is resolved until an action runs.
type Locator interface {
	Scope
	Nth(index int) Locator
	Click(timeout time.Duration) error
	Fill(value string, timeout time.Duration) error
	Check(timeout time.Duration) error
	SelectOption(value string, timeout time.Duration) error
	InnerText(timeout time.Duration) (string, error)
	InputValue(timeout time.Duration) (string, error)
	Attribute(name string, timeout time.Duration) (string, error)
	IsVisible() (bool, error)
	Count() (int, error)
	All() ([]Locator, error)
}
