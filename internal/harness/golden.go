package harness

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// TraceSnapshot is the deterministic part of a Result: everything except
// timing.
type TraceSnapshot struct {
	ScenarioName string       `json:"scenario_name"`
	Status       string       `json:"status"`
	Trace        []TraceEvent `json:"trace"`
	Errors       []string     `json:"errors"`
}

// Snapshot extracts the deterministic part of a result.
func Snapshot(result *Result) TraceSnapshot {
	errs := result.Errors
	if errs == nil {
		errs = []string{}
	}
	return TraceSnapshot{
		ScenarioName: result.Name,
		Status:       result.Status,
		Trace:        result.Trace,
		Errors:       errs,
	}
}

// MarshalSnapshot renders a snapshot as indented JSON without HTML escaping,
// with a trailing newline.
func MarshalSnapshot(s TraceSnapshot) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// RunWithGolden executes a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario, opts Options) (*Result, error) {
	t.Helper()

	result, err := Run(context.Background(), scenario, opts)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	data, err := MarshalSnapshot(Snapshot(result))
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
	return nil
}
