package browser

import (
	"errors"
	"fmt"
)

var (
	// ErrTimeout is matched by every lookup or action that ran out of time.
	ErrTimeout = errors.New("browser operation timed out")

	// ErrSessionClosed is returned when a released session is used.
	ErrSessionClosed = errors.New("browser session closed")

	// ErrNoPage is returned when the context has no open page.
	ErrNoPage = errors.New("no open page in browser context")
)

// OpError describes a failed adapter operation.
type OpError struct {
	Op       string // "click", "fill", "goto", ...
	Selector string // rendered selector, empty for page-level operations
	Err      error
}

func (e *OpError) Error() string {
	if e.Selector != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Selector, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *OpError) Unwrap() error {
	return e.Err
}

// IsTimeout reports whether err was caused by an exhausted timeout.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}
