package testutil

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/roach88/mobilindo-e2e/internal/browser"
)

// App is the in-memory stand-in for the web application under test.
// Pages are keyed by absolute URL. Navigating to an unknown URL yields an
// empty page.
type App struct {
	Pages map[string]*PageSpec
}

// PageSpec describes the elements rendered at one URL. Elements are keyed by
// the rendered selector (browser.Selector.String()).
type PageSpec struct {
	Elements map[string][]*Element
	// Frames is the number of child frames besides the main frame.
	Frames int
}

// Element is one DOM node as seen through a selector.
type Element struct {
	Text     string
	Value    string
	Attrs    map[string]string
	Hidden   bool
	Checked  bool
	Children map[string][]*Element

	// OnClick runs after a successful click on this element.
	OnClick func(p *FakePage)
}

// NewApp returns an empty App.
func NewApp() *App {
	return &App{Pages: make(map[string]*PageSpec)}
}

// Page returns the spec for url, creating it when missing.
func (a *App) Page(url string) *PageSpec {
	spec, ok := a.Pages[url]
	if !ok {
		spec = &PageSpec{Elements: make(map[string][]*Element)}
		a.Pages[url] = spec
	}
	return spec
}

// Add registers elements under sel and returns the spec for chaining.
func (s *PageSpec) Add(sel browser.Selector, els ...*Element) *PageSpec {
	key := sel.String()
	s.Elements[key] = append(s.Elements[key], els...)
	return s
}

// Child registers nested elements under sel and returns e for chaining.
func (e *Element) Child(sel browser.Selector, els ...*Element) *Element {
	if e.Children == nil {
		e.Children = make(map[string][]*Element)
	}
	key := sel.String()
	e.Children[key] = append(e.Children[key], els...)
	return e
}

// Fake records every adapter call so tests can assert on ordering and
// counts. It is safe for concurrent sessions.
type Fake struct {
	App *App

	// NewApp, when set, gives every driver its own App so concurrent
	// sessions never share element state.
	NewApp func() *App

	// Injected failures.
	LaunchErr    error
	ContextErr   error
	PageErr      error
	StopErr      error
	LoadStateErr error

	mu    sync.Mutex
	calls []string
}

// NewFake builds a Fake over app.
func NewFake(app *App) *Fake {
	if app == nil {
		app = NewApp()
	}
	return &Fake{App: app}
}

// Factory returns a DriverFactory that starts fake drivers.
func (f *Fake) Factory() browser.DriverFactory {
	return func() (browser.Driver, error) {
		f.record("start driver")
		app := f.App
		if f.NewApp != nil {
			app = f.NewApp()
		}
		return &fakeDriver{f: f, app: app}, nil
	}
}

// Calls returns a copy of the recorded calls, in order.
func (f *Fake) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}

// Count returns how many recorded calls equal call.
func (f *Fake) Count(call string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == call {
			n++
		}
	}
	return n
}

// CallsWithPrefix returns the recorded calls starting with prefix.
func (f *Fake) CallsWithPrefix(prefix string) []string {
	var out []string
	for _, c := range f.Calls() {
		if strings.HasPrefix(c, prefix) {
			out = append(out, c)
		}
	}
	return out
}

func (f *Fake) record(format string, args ...any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
}

type fakeDriver struct {
	f   *Fake
	app *App
}

func (d *fakeDriver) Launch(opts browser.LaunchOptions) (browser.Browser, error) {
	d.f.record("launch headless=%t", opts.Headless)
	if d.f.LaunchErr != nil {
		return nil, d.f.LaunchErr
	}
	return &fakeBrowser{f: d.f, app: d.app}, nil
}

func (d *fakeDriver) Stop() error {
	d.f.record("stop driver")
	return d.f.StopErr
}

type fakeBrowser struct {
	f   *Fake
	app *App
}

func (b *fakeBrowser) NewContext(opts browser.ContextOptions) (browser.Context, error) {
	b.f.record("new context timeout=%s", opts.DefaultTimeout)
	if b.f.ContextErr != nil {
		return nil, b.f.ContextErr
	}
	return &fakeContext{f: b.f, app: b.app}, nil
}

func (b *fakeBrowser) Close() error {
	b.f.record("close browser")
	return nil
}

type fakeContext struct {
	f     *Fake
	app   *App
	mu    sync.Mutex
	pages []*FakePage
}

func (c *fakeContext) NewPage() (browser.Page, error) {
	c.f.record("new page")
	if c.f.PageErr != nil {
		return nil, c.f.PageErr
	}
	return c.open("about:blank"), nil
}

func (c *fakeContext) open(url string) *FakePage {
	p := &FakePage{f: c.f, ctx: c, url: url}
	c.mu.Lock()
	c.pages = append(c.pages, p)
	c.mu.Unlock()
	return p
}

func (c *fakeContext) Pages() []browser.Page {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]browser.Page, 0, len(c.pages))
	for _, p := range c.pages {
		if !p.closed {
			out = append(out, p)
		}
	}
	return out
}

func (c *fakeContext) Close() error {
	c.f.record("close context")
	return nil
}

// FakePage is the fake tab. Element callbacks receive it so they can
// navigate or open new pages.
type FakePage struct {
	f      *Fake
	ctx    *fakeContext
	url    string
	closed bool
}

// Navigate changes the page URL without recording a goto.
func (p *FakePage) Navigate(url string) {
	p.url = url
}

// OpenPage opens url in a new page of the same context, like target=_blank.
func (p *FakePage) OpenPage(url string) {
	p.f.record("open page %s", url)
	p.ctx.open(url)
}

func (p *FakePage) spec() *PageSpec {
	if spec, ok := p.ctx.app.Pages[p.url]; ok {
		return spec
	}
	return &PageSpec{}
}

func (p *FakePage) Goto(url string, opts browser.GotoOptions) error {
	p.f.record("goto %s wait_until=%s", url, opts.WaitUntil)
	p.url = url
	return nil
}

func (p *FakePage) WaitForLoadState(state browser.LoadState, timeout time.Duration) error {
	p.f.record("page load state %s", state)
	return p.f.LoadStateErr
}

func (p *FakePage) Frames() []browser.Frame {
	frames := []browser.Frame{&fakeFrame{f: p.f, name: "main"}}
	for i := 0; i < p.spec().Frames; i++ {
		frames = append(frames, &fakeFrame{f: p.f, name: fmt.Sprintf("frame-%d", i+1)})
	}
	return frames
}

func (p *FakePage) Locate(sel browser.Selector) browser.Locator {
	key := sel.String()
	return &fakeLocator{
		f:    p.f,
		page: p,
		desc: key,
		resolve: func() []*Element {
			return p.spec().Elements[key]
		},
	}
}

func (p *FakePage) Wait(d time.Duration) {
	p.f.record("wait %s", d)
}

func (p *FakePage) Scroll(dx, dy float64) error {
	p.f.record("scroll %g,%g", dx, dy)
	return nil
}

func (p *FakePage) URL() string {
	return p.url
}

func (p *FakePage) Close() error {
	p.f.record("close page")
	p.closed = true
	return nil
}

type fakeFrame struct {
	f    *Fake
	name string
}

func (fr *fakeFrame) WaitForLoadState(state browser.LoadState, timeout time.Duration) error {
	fr.f.record("frame %s load state %s", fr.name, state)
	return fr.f.LoadStateErr
}

type fakeLocator struct {
	f       *Fake
	desc    string
	page    *FakePage
	resolve func() []*Element
	// picked is set once Nth narrowed the locator to a single element.
	picked bool
}

func (l *fakeLocator) Locate(sel browser.Selector) browser.Locator {
	key := sel.String()
	parent := l.resolve
	return &fakeLocator{
		f:    l.f,
		page: l.page,
		desc: l.desc + " >> " + key,
		resolve: func() []*Element {
			var out []*Element
			for _, e := range parent() {
				out = append(out, e.Children[key]...)
			}
			return out
		},
	}
}

func (l *fakeLocator) Nth(index int) browser.Locator {
	parent := l.resolve
	return &fakeLocator{
		f:      l.f,
		page:   l.page,
		desc:   fmt.Sprintf("%s >> nth=%d", l.desc, index),
		picked: true,
		resolve: func() []*Element {
			els := parent()
			if index < 0 || index >= len(els) {
				return nil
			}
			return els[index : index+1]
		},
	}
}

// first resolves the locator or returns a timeout, which is how a real
// browser reports an element that never appeared. Like playwright's strict
// mode, a locator matching several elements is an error unless Nth picked
// one of them.
func (l *fakeLocator) first(op string) (*Element, error) {
	els := l.resolve()
	if len(els) == 0 {
		return nil, &browser.OpError{
			Op:       op,
			Selector: l.desc,
			Err:      fmt.Errorf("%w: waiting for element", browser.ErrTimeout),
		}
	}
	if err := l.strict(op, els); err != nil {
		return nil, err
	}
	return els[0], nil
}

func (l *fakeLocator) strict(op string, els []*Element) error {
	if l.picked || len(els) < 2 {
		return nil
	}
	return &browser.OpError{
		Op:       op,
		Selector: l.desc,
		Err:      fmt.Errorf("strict mode violation: resolved to %d elements", len(els)),
	}
}

func (l *fakeLocator) Click(timeout time.Duration) error {
	l.f.record("click %s", l.desc)
	e, err := l.first("click")
	if err != nil {
		return err
	}
	if e.OnClick != nil {
		e.OnClick(l.page)
	}
	return nil
}

func (l *fakeLocator) Fill(value string, timeout time.Duration) error {
	l.f.record("fill %s=%q", l.desc, value)
	e, err := l.first("fill")
	if err != nil {
		return err
	}
	e.Value = value
	return nil
}

func (l *fakeLocator) Check(timeout time.Duration) error {
	l.f.record("check %s", l.desc)
	e, err := l.first("check")
	if err != nil {
		return err
	}
	e.Checked = true
	return nil
}

func (l *fakeLocator) SelectOption(value string, timeout time.Duration) error {
	l.f.record("select %s=%q", l.desc, value)
	e, err := l.first("select")
	if err != nil {
		return err
	}
	e.Value = value
	return nil
}

func (l *fakeLocator) InnerText(timeout time.Duration) (string, error) {
	e, err := l.first("inner text")
	if err != nil {
		return "", err
	}
	return e.Text, nil
}

func (l *fakeLocator) InputValue(timeout time.Duration) (string, error) {
	e, err := l.first("input value")
	if err != nil {
		return "", err
	}
	return e.Value, nil
}

func (l *fakeLocator) Attribute(name string, timeout time.Duration) (string, error) {
	e, err := l.first("attribute " + name)
	if err != nil {
		return "", err
	}
	return e.Attrs[name], nil
}

func (l *fakeLocator) IsVisible() (bool, error) {
	els := l.resolve()
	if len(els) == 0 {
		return false, nil
	}
	if err := l.strict("is visible", els); err != nil {
		return false, err
	}
	return !els[0].Hidden, nil
}

func (l *fakeLocator) Count() (int, error) {
	return len(l.resolve()), nil
}

func (l *fakeLocator) All() ([]browser.Locator, error) {
	n := len(l.resolve())
	out := make([]browser.Locator, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, l.Nth(i))
	}
	return out, nil
}
