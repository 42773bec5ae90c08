package harness

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/roach88/mobilindo-e2e/internal/browser"
	"github.com/roach88/mobilindo-e2e/internal/logging"
	"github.com/roach88/mobilindo-e2e/internal/metrics"
)

// Default timeouts, matching what the marketplace needs on a cold dev server.
const (
	DefaultContextTimeout    = 5 * time.Second
	DefaultActionTimeout     = 5 * time.Second
	DefaultNavigationTimeout = 10 * time.Second
	DefaultLoadStateTimeout  = 3 * time.Second
	DefaultSettleDelay       = 3 * time.Second
)

// Options configures a scenario run.
type Options struct {
	// NewDriver starts the browser driver. Required.
	NewDriver browser.DriverFactory

	// BaseURL resolves relative goto URLs.
	BaseURL string

	Launch browser.LaunchOptions

	ContextTimeout    time.Duration // context-wide default for locator actions
	ActionTimeout     time.Duration // click, fill, check, select and assertion reads
	NavigationTimeout time.Duration // goto
	LoadStateTimeout  time.Duration // auxiliary load-state waits

	// SettleDelay is waited before every locator action. Zero disables it.
	SettleDelay time.Duration

	Logger  *slog.Logger
	Metrics *metrics.Recorder

	// Now is the time source for durations. Defaults to time.Now.
	Now func() time.Time
}

// DefaultOptions returns options for a headless Chromium run against baseURL.
func DefaultOptions(baseURL string) Options {
	return Options{
		NewDriver: browser.NewPlaywrightDriver,
		BaseURL:   baseURL,
		Launch: browser.LaunchOptions{
			Headless: true,
			Args:     browser.DefaultBrowserArgs,
		},
		ContextTimeout:    DefaultContextTimeout,
		ActionTimeout:     DefaultActionTimeout,
		NavigationTimeout: DefaultNavigationTimeout,
		LoadStateTimeout:  DefaultLoadStateTimeout,
		SettleDelay:       DefaultSettleDelay,
	}
}

func (o Options) withDefaults() Options {
	if o.ContextTimeout <= 0 {
		o.ContextTimeout = DefaultContextTimeout
	}
	if o.ActionTimeout <= 0 {
		o.ActionTimeout = DefaultActionTimeout
	}
	if o.NavigationTimeout <= 0 {
		o.NavigationTimeout = DefaultNavigationTimeout
	}
	if o.LoadStateTimeout <= 0 {
		o.LoadStateTimeout = DefaultLoadStateTimeout
	}
	if o.Logger == nil {
		o.Logger = logging.NewNop()
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Harness executes one scenario against one browser session.
type Harness struct {
	scenario *Scenario
	opts     Options
	session  *browser.Session
	clock    *Clock
	result   *Result
	logger   *slog.Logger
}

// Run executes a scenario in a fresh browser session and returns its result.
//
// Execution flow:
//  1. Acquire a session (driver, browser, isolated context, page)
//  2. Execute steps in order; the first failing step aborts the scenario
//  3. Evaluate every assertion against the active page
//  4. Release the session, whatever happened above
//
// Scenario failures are reported in the Result. The error return is reserved
// for misuse (nil scenario, missing driver factory).
func Run(ctx context.Context, scenario *Scenario, opts Options) (*Result, error) {
	if scenario == nil {
		return nil, fmt.Errorf("scenario is nil")
	}
	if opts.NewDriver == nil {
		return nil, fmt.Errorf("no browser driver factory configured")
	}
	opts = opts.withDefaults()

	h := &Harness{
		scenario: scenario,
		opts:     opts,
		clock:    NewClock(),
		result:   NewResult(scenario.Name),
		logger:   opts.Logger.With("scenario", scenario.Name),
	}
	start := opts.Now()
	h.logger.Info("scenario started", "steps", len(scenario.Steps), "assertions", len(scenario.Assertions))

	h.execute(ctx)

	h.result.SetDuration(opts.Now().Sub(start))
	opts.Metrics.ScenarioFinished(scenario.Name, h.result.Status)
	h.logger.Info("scenario finished", "status", h.result.Status, "duration", h.result.Duration)
	return h.result, nil
}

func (h *Harness) execute(ctx context.Context) {
	session, err := browser.Acquire(h.opts.NewDriver, browser.SessionOptions{
		Launch:  h.opts.Launch,
		Context: browser.ContextOptions{DefaultTimeout: h.opts.ContextTimeout},
	})
	if err != nil {
		h.result.AddError(fmt.Sprintf("acquire browser session: %v", err))
		h.logger.Error("session acquisition failed", "error", err)
		return
	}
	h.session = session
	defer h.release()

	if err := h.executeSteps(ctx); err != nil {
		h.result.AddError(err.Error())
		return
	}
	if err := ctx.Err(); err != nil {
		h.result.AddError(fmt.Sprintf("scenario cancelled before assertions: %v", err))
		return
	}
	h.evaluateAssertions()
}

// release closes the session. Cleanup errors are logged and never change the
// outcome.
func (h *Harness) release() {
	if err := h.session.Close(); err != nil {
		h.logger.Warn("session cleanup failed", "error", err)
	}
	h.opts.Metrics.SessionReleased()
}

func (h *Harness) executeSteps(ctx context.Context) error {
	for i, step := range h.scenario.Steps {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("scenario cancelled before step %d: %w", i+1, err)
		}
		if err := h.executeStep(i, step); err != nil {
			return err
		}
	}
	return nil
}

func (h *Harness) executeStep(index int, step Step) error {
	event := TraceEvent{
		Seq:    h.clock.Next(),
		Action: step.Action,
		Status: EventOK,
		Note:   step.Note,
	}
	if step.Target != nil {
		event.Target = describeTarget(step.Target, step.Nth)
	}
	if step.Action == ActionFill || step.Action == ActionSelect {
		event.Value = step.Value
	}

	h.logger.Debug("executing step", "step", index+1, "action", step.Action, "target", event.Target)
	begin := h.opts.Now()
	err := h.perform(step, &event)
	if err != nil {
		event.Status = EventFailed
		event.Error = err.Error()
	}
	h.result.AddEvent(event)
	h.opts.Metrics.ObserveStep(step.Action, event.Status, h.opts.Now().Sub(begin))

	if err != nil {
		h.logger.Warn("step failed", "step", index+1, "action", step.Action, "target", event.Target, "error", err)
		return &StepError{Index: index, Action: step.Action, Target: event.Target, Err: err}
	}
	return nil
}

// perform runs one step against the active page, resolving the page at the
// moment of use.
func (h *Harness) perform(step Step, event *TraceEvent) error {
	page, err := h.session.Page()
	if err != nil {
		return err
	}

	switch step.Action {
	case ActionGoto:
		dest, err := resolveURL(h.opts.BaseURL, step.URL)
		if err != nil {
			return err
		}
		event.Value = dest
		waitUntil := step.WaitUntil
		if waitUntil == "" {
			waitUntil = browser.LoadStateCommit
		}
		err = page.Goto(dest, browser.GotoOptions{
			WaitUntil: waitUntil,
			Timeout:   orDefault(step.Timeout, h.opts.NavigationTimeout),
		})
		if err != nil {
			return err
		}
		event.Suppressed = h.auxiliaryWait(page, browser.LoadStateDOMContentLoaded, h.opts.LoadStateTimeout)
		return nil

	case ActionWaitForLoad:
		state := step.State
		if state == "" {
			state = browser.LoadStateDOMContentLoaded
		}
		if n := h.auxiliaryWait(page, state, orDefault(step.Timeout, h.opts.LoadStateTimeout)); n > 0 {
			event.Status = EventSuppressed
			event.Suppressed = n
		}
		return nil

	case ActionWait:
		page.Wait(step.Duration)
		return nil

	case ActionScroll:
		return page.Scroll(step.DX, step.DY)
	}

	if h.opts.SettleDelay > 0 {
		page.Wait(h.opts.SettleDelay)
		// The settle delay is when popups and redirects land.
		if page, err = h.session.Page(); err != nil {
			return err
		}
	}

	loc := locate(page, step.Target, step.Nth)
	timeout := orDefault(step.Timeout, h.opts.ActionTimeout)
	switch step.Action {
	case ActionClick:
		return loc.Click(timeout)
	case ActionFill:
		return loc.Fill(step.Value, timeout)
	case ActionCheck:
		return loc.Check(timeout)
	case ActionSelect:
		return loc.SelectOption(step.Value, timeout)
	}
	return fmt.Errorf("unknown action %q", step.Action)
}

// auxiliaryWait waits for state on the page and on each of its frames.
// Failures are logged and counted, never returned.
func (h *Harness) auxiliaryWait(page browser.Page, state browser.LoadState, timeout time.Duration) int {
	suppressed := 0
	if err := page.WaitForLoadState(state, timeout); err != nil {
		suppressed++
		h.logger.Debug("suppressed load-state wait", "state", state, "error", err)
	}
	for _, frame := range page.Frames() {
		if err := frame.WaitForLoadState(state, timeout); err != nil {
			suppressed++
			h.logger.Debug("suppressed frame load-state wait", "state", state, "error", err)
		}
	}
	return suppressed
}

func (h *Harness) evaluateAssertions() {
	page, err := h.session.Page()
	if err != nil {
		h.result.AddError(fmt.Sprintf("evaluate assertions: %v", err))
		return
	}
	for _, err := range EvaluateAssertions(page, h.scenario.Assertions, h.opts.ActionTimeout, h.result.Trace) {
		h.logger.Debug("assertion failed", "error", err)
		h.result.AddError(err.Error())
	}
}

// resolveURL resolves ref against base. Absolute refs are returned as-is.
func resolveURL(base, ref string) (string, error) {
	r, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("invalid url %q: %w", ref, err)
	}
	if base == "" || r.IsAbs() {
		return r.String(), nil
	}
	b, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid base url %q: %w", base, err)
	}
	return b.ResolveReference(r).String(), nil
}

func describeTarget(sel *browser.Selector, nth int) string {
	if nth > 0 {
		return fmt.Sprintf("%s >> nth=%d", sel.String(), nth)
	}
	return sel.String()
}

func orDefault(d, def time.Duration) time.Duration {
	if d > 0 {
		return d
	}
	return def
}
