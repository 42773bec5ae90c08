package harness

import (
	"fmt"
	"time"
)

// Scenario outcomes.
const (
	StatusPass = "PASS"
	StatusFail = "FAIL"
)

// Trace event statuses.
const (
	EventOK         = "ok"
	EventFailed     = "failed"
	EventSuppressed = "suppressed"
)

// TraceEvent records one executed step.
type TraceEvent struct {
	Seq    int64  `json:"seq"`
	Action string `json:"action"`
	Target string `json:"target,omitempty"`
	Value  string `json:"value,omitempty"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
	Note   string `json:"note,omitempty"`

	// Suppressed counts auxiliary load-state waits that failed and were
	// ignored while executing this step.
	Suppressed int `json:"suppressed,omitempty"`
}

// Result is the outcome of one scenario execution.
type Result struct {
	Name string `json:"name"`

	// Pass indicates overall scenario success.
	Pass bool `json:"pass"`

	// Status is PASS or FAIL, mirroring Pass.
	Status string `json:"status"`

	// Trace contains one event per executed step, in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Duration is the wall time from session acquisition to release.
	Duration   time.Duration `json:"-"`
	DurationMS int64         `json:"duration_ms"`
}

// NewResult creates a new passing result.
func NewResult(name string) *Result {
	return &Result{
		Name:   name,
		Pass:   true,
		Status: StatusPass,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a failure message and marks the result as failed. Empty
// messages are replaced so a failing result always explains itself.
func (r *Result) AddError(msg string) {
	if msg == "" {
		msg = "scenario failed without a message"
	}
	r.Errors = append(r.Errors, msg)
	r.Pass = false
	r.Status = StatusFail
}

// AddEvent appends a trace event.
func (r *Result) AddEvent(e TraceEvent) {
	r.Trace = append(r.Trace, e)
}

// SetDuration records the elapsed time.
func (r *Result) SetDuration(d time.Duration) {
	r.Duration = d
	r.DurationMS = d.Milliseconds()
}

// StepError reports the step that aborted a scenario.
type StepError struct {
	Index  int // zero-based step index
	Action string
	Target string
	Err    error
}

func (e *StepError) Error() string {
	if e.Target != "" {
		return fmt.Sprintf("step %d (%s %s): %v", e.Index+1, e.Action, e.Target, e.Err)
	}
	return fmt.Sprintf("step %d (%s): %v", e.Index+1, e.Action, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}
