package browser

import (
	"errors"
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"
)

// NewPlaywrightDriver starts a playwright driver process. It satisfies
// DriverFactory.
func NewPlaywrightDriver() (Driver, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("could not start playwright: %w", err)
	}
	return &pwDriver{pw: pw}, nil
}

// InstallChromium downloads the playwright driver and the Chromium build it
// expects.
func InstallChromium(verbose bool) error {
	return playwright.Install(&playwright.RunOptions{
		Browsers: []string{"chromium"},
		Verbose:  verbose,
	})
}

type pwDriver struct {
	pw *playwright.Playwright
}

func (d *pwDriver) Launch(opts LaunchOptions) (Browser, error) {
	launch := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
		Args:     opts.Args,
	}
	if opts.SlowMo > 0 {
		launch.SlowMo = playwright.Float(float64(opts.SlowMo.Milliseconds()))
	}
	b, err := d.pw.Chromium.Launch(launch)
	if err != nil {
		return nil, wrapErr("launch", "", err)
	}
	return &pwBrowser{browser: b}, nil
}

func (d *pwDriver) Stop() error {
	return d.pw.Stop()
}

type pwBrowser struct {
	browser playwright.Browser
}

func (b *pwBrowser) NewContext(opts ContextOptions) (Context, error) {
	c, err := b.browser.NewContext()
	if err != nil {
		return nil, wrapErr("new context", "", err)
	}
	if opts.DefaultTimeout > 0 {
		c.SetDefaultTimeout(float64(opts.DefaultTimeout.Milliseconds()))
	}
	return &pwContext{context: c}, nil
}

func (b *pwBrowser) Close() error {
	return b.browser.Close()
}

type pwContext struct {
	context playwright.BrowserContext
}

func (c *pwContext) NewPage() (Page, error) {
	p, err := c.context.NewPage()
	if err != nil {
		return nil, wrapErr("new page", "", err)
	}
	return &pwPage{page: p}, nil
}

func (c *pwContext) Pages() []Page {
	raw := c.context.Pages()
	pages := make([]Page, 0, len(raw))
	for _, p := range raw {
		pages = append(pages, &pwPage{page: p})
	}
	return pages
}

func (c *pwContext) Close() error {
	return c.context.Close()
}

type pwPage struct {
	page playwright.Page
}

func (p *pwPage) Goto(url string, opts GotoOptions) error {
	gotoOpts := playwright.PageGotoOptions{Timeout: millis(opts.Timeout)}
	if opts.WaitUntil != "" {
		gotoOpts.WaitUntil = waitUntilState(opts.WaitUntil)
	}
	if _, err := p.page.Goto(url, gotoOpts); err != nil {
		return wrapErr("goto", url, err)
	}
	return nil
}

func (p *pwPage) WaitForLoadState(state LoadState, timeout time.Duration) error {
	ls, err := loadState(state)
	if err != nil {
		return err
	}
	err = p.page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State:   ls,
		Timeout: millis(timeout),
	})
	if err != nil {
		return wrapErr("wait for load state", string(state), err)
	}
	return nil
}

func (p *pwPage) Frames() []Frame {
	raw := p.page.Frames()
	frames := make([]Frame, 0, len(raw))
	for _, f := range raw {
		frames = append(frames, &pwFrame{frame: f})
	}
	return frames
}

func (p *pwPage) Locate(sel Selector) Locator {
	var loc playwright.Locator
	switch sel.Strategy() {
	case StrategyRole:
		opts := playwright.PageGetByRoleOptions{}
		if sel.Name != "" {
			opts.Name = sel.Name
			opts.Exact = playwright.Bool(sel.Exact)
		}
		loc = p.page.GetByRole(playwright.AriaRole(sel.Role), opts)
	case StrategyLabel:
		loc = p.page.GetByLabel(sel.Label)
	case StrategyPlaceholder:
		loc = p.page.GetByPlaceholder(sel.Placeholder)
	case StrategyTestID:
		loc = p.page.GetByTestId(sel.TestID)
	case StrategyText:
		loc = p.page.GetByText(sel.Text)
	case StrategyXPath:
		loc = p.page.Locator("xpath=" + sel.XPath)
	default:
		loc = p.page.Locator("css=" + sel.CSS)
	}
	return &pwLocator{loc: loc, desc: sel.String()}
}

func (p *pwPage) Wait(d time.Duration) {
	if d <= 0 {
		return
	}
	p.page.WaitForTimeout(float64(d.Milliseconds()))
}

func (p *pwPage) Scroll(dx, dy float64) error {
	if err := p.page.Mouse().Wheel(dx, dy); err != nil {
		return wrapErr("scroll", "", err)
	}
	return nil
}

func (p *pwPage) URL() string {
	return p.page.URL()
}

func (p *pwPage) Close() error {
	if p.page.IsClosed() {
		return nil
	}
	return p.page.Close()
}

type pwFrame struct {
	frame playwright.Frame
}

func (f *pwFrame) WaitForLoadState(state LoadState, timeout time.Duration) error {
	ls, err := loadState(state)
	if err != nil {
		return err
	}
	err = f.frame.WaitForLoadState(playwright.FrameWaitForLoadStateOptions{
		State:   ls,
		Timeout: millis(timeout),
	})
	if err != nil {
		return wrapErr("frame wait for load state", string(state), err)
	}
	return nil
}

type pwLocator struct {
	loc  playwright.Locator
	desc string
}

func (l *pwLocator) Locate(sel Selector) Locator {
	var loc playwright.Locator
	switch sel.Strategy() {
	case StrategyRole:
		opts := playwright.LocatorGetByRoleOptions{}
		if sel.Name != "" {
			opts.Name = sel.Name
			opts.Exact = playwright.Bool(sel.Exact)
		}
		loc = l.loc.GetByRole(playwright.AriaRole(sel.Role), opts)
	case StrategyLabel:
		loc = l.loc.GetByLabel(sel.Label)
	case StrategyPlaceholder:
		loc = l.loc.GetByPlaceholder(sel.Placeholder)
	case StrategyTestID:
		loc = l.loc.GetByTestId(sel.TestID)
	case StrategyText:
		loc = l.loc.GetByText(sel.Text)
	case StrategyXPath:
		loc = l.loc.Locator("xpath=" + sel.XPath)
	default:
		loc = l.loc.Locator("css=" + sel.CSS)
	}
	return &pwLocator{loc: loc, desc: l.desc + " >> " + sel.String()}
}

func (l *pwLocator) Nth(index int) Locator {
	return &pwLocator{loc: l.loc.Nth(index), desc: fmt.Sprintf("%s >> nth=%d", l.desc, index)}
}

func (l *pwLocator) Click(timeout time.Duration) error {
	return wrapErr("click", l.desc, l.loc.Click(playwright.LocatorClickOptions{Timeout: millis(timeout)}))
}

func (l *pwLocator) Fill(value string, timeout time.Duration) error {
	return wrapErr("fill", l.desc, l.loc.Fill(value, playwright.LocatorFillOptions{Timeout: millis(timeout)}))
}

func (l *pwLocator) Check(timeout time.Duration) error {
	return wrapErr("check", l.desc, l.loc.Check(playwright.LocatorCheckOptions{Timeout: millis(timeout)}))
}

func (l *pwLocator) SelectOption(value string, timeout time.Duration) error {
	_, err := l.loc.SelectOption(
		playwright.SelectOptionValues{Values: &[]string{value}},
		playwright.LocatorSelectOptionOptions{Timeout: millis(timeout)},
	)
	return wrapErr("select", l.desc, err)
}

func (l *pwLocator) InnerText(timeout time.Duration) (string, error) {
	text, err := l.loc.InnerText(playwright.LocatorInnerTextOptions{Timeout: millis(timeout)})
	return text, wrapErr("inner text", l.desc, err)
}

func (l *pwLocator) InputValue(timeout time.Duration) (string, error) {
	v, err := l.loc.InputValue(playwright.LocatorInputValueOptions{Timeout: millis(timeout)})
	return v, wrapErr("input value", l.desc, err)
}

func (l *pwLocator) Attribute(name string, timeout time.Duration) (string, error) {
	v, err := l.loc.GetAttribute(name, playwright.LocatorGetAttributeOptions{Timeout: millis(timeout)})
	return v, wrapErr("attribute "+name, l.desc, err)
}

func (l *pwLocator) IsVisible() (bool, error) {
	v, err := l.loc.IsVisible()
	return v, wrapErr("is visible", l.desc, err)
}

func (l *pwLocator) Count() (int, error) {
	n, err := l.loc.Count()
	return n, wrapErr("count", l.desc, err)
}

func (l *pwLocator) All() ([]Locator, error) {
	raw, err := l.loc.All()
	if err != nil {
		return nil, wrapErr("all", l.desc, err)
	}
	out := make([]Locator, 0, len(raw))
	for i, r := range raw {
		out = append(out, &pwLocator{loc: r, desc: fmt.Sprintf("%s >> nth=%d", l.desc, i)})
	}
	return out, nil
}

// millis converts a duration to playwright's millisecond float. Zero means
// "use the context default" and maps to nil.
func millis(d time.Duration) *float64 {
	if d <= 0 {
		return nil
	}
	return playwright.Float(float64(d.Milliseconds()))
}

func waitUntilState(s LoadState) *playwright.WaitUntilState {
	switch s {
	case LoadStateCommit:
		return playwright.WaitUntilStateCommit
	case LoadStateLoad:
		return playwright.WaitUntilStateLoad
	case LoadStateNetworkIdle:
		return playwright.WaitUntilStateNetworkidle
	default:
		return playwright.WaitUntilStateDomcontentloaded
	}
}

func loadState(s LoadState) (*playwright.LoadState, error) {
	switch s {
	case LoadStateDOMContentLoaded:
		return playwright.LoadStateDomcontentloaded, nil
	case LoadStateLoad:
		return playwright.LoadStateLoad, nil
	case LoadStateNetworkIdle:
		return playwright.LoadStateNetworkidle, nil
	}
	return nil, fmt.Errorf("load state %q cannot be awaited on a loaded page", s)
}

// wrapErr converts playwright errors into OpErrors, tagging timeouts with
// ErrTimeout so callers never import playwright.
func wrapErr(op, selector string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, playwright.ErrTimeout) {
		err = fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return &OpError{Op: op, Selector: selector, Err: err}
}
