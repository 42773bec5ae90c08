package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/roach88/mobilindo-e2e/internal/harness"
	"github.com/roach88/mobilindo-e2e/internal/testutil"
)

// createTestStore creates a new in-memory store with sequential run IDs and
// a clock that advances one second per reading.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:",
		WithIDGenerator(testutil.NewSequentialIDs("run")),
		WithClock(testutil.NewDeterministicClock(time.Second).Now),
	)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createFileStore opens a store backed by a file in a temp dir.
func createFileStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "history.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s, path
}

// passingResult builds a PASS result with a two-step trace.
func passingResult(name string) *harness.Result {
	r := harness.NewResult(name)
	r.AddEvent(harness.TraceEvent{Seq: 1, Action: "goto", Value: "http://localhost:3000/", Status: harness.EventOK, Suppressed: 1})
	r.AddEvent(harness.TraceEvent{Seq: 2, Action: "click", Target: "role=button[name=\"Masuk\"]", Status: harness.EventOK, Note: "open login"})
	r.SetDuration(1500 * time.Millisecond)
	return r
}

// failingResult builds a FAIL result whose last step failed.
func failingResult(name, msg string) *harness.Result {
	r := harness.NewResult(name)
	r.AddEvent(harness.TraceEvent{Seq: 1, Action: "goto", Value: "http://localhost:3000/", Status: harness.EventOK})
	r.AddEvent(harness.TraceEvent{Seq: 2, Action: "fill", Target: "label=Email", Value: "x", Status: harness.EventFailed, Error: msg})
	r.AddError(msg)
	r.SetDuration(5 * time.Second)
	return r
}
