package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/mobilindo-e2e/internal/harness"
)

// Run is one recorded invocation of the suite.
type Run struct {
	ID         string     `json:"id"`
	BaseURL    string     `json:"base_url"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Passed     int        `json:"passed"`
	Failed     int        `json:"failed"`
	Total      int        `json:"total"`
}

// Finished reports whether FinishRun was called for the run.
func (r Run) Finished() bool {
	return r.FinishedAt != nil
}

// ScenarioRecord is a stored scenario result without its trace.
type ScenarioRecord struct {
	RunID      string   `json:"run_id"`
	Position   int      `json:"position"`
	Scenario   string   `json:"scenario"`
	Status     string   `json:"status"`
	DurationMS int64    `json:"duration_ms"`
	Errors     []string `json:"errors"`
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

const runColumns = `id, base_url, started_at, finished_at, passed, failed, total`

func scanRun(row rowScanner) (Run, error) {
	var (
		run      Run
		started  string
		finished sql.NullString
	)
	if err := row.Scan(&run.ID, &run.BaseURL, &started, &finished, &run.Passed, &run.Failed, &run.Total); err != nil {
		return Run{}, err
	}
	t, err := parseTime(started)
	if err != nil {
		return Run{}, err
	}
	run.StartedAt = t
	if finished.Valid {
		t, err := parseTime(finished.String)
		if err != nil {
			return Run{}, err
		}
		run.FinishedAt = &t
	}
	return run, nil
}

// GetRun retrieves a run by ID.
// Returns an error matching ErrNotFound if it does not exist.
func (s *Store) GetRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("run %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Run{}, fmt.Errorf("get run: %w", err)
	}
	return run, nil
}

// ListRuns returns up to limit runs, newest first. A limit <= 0 returns all.
//
// Returns an empty slice (not nil) if there are no runs.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+runColumns+`
		FROM runs
		ORDER BY id COLLATE BINARY DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// ScenarioResults returns the scenario results of a run in report order.
//
// Returns an empty slice (not nil) if the run has no results.
func (s *Store) ScenarioResults(ctx context.Context, runID string) ([]ScenarioRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, position, scenario, status, duration_ms, errors
		FROM scenario_results
		WHERE run_id = ?
		ORDER BY position ASC, scenario COLLATE BINARY ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query scenario results: %w", err)
	}
	defer rows.Close()

	records := []ScenarioRecord{}
	for rows.Next() {
		var (
			rec        ScenarioRecord
			errorsJSON string
		)
		if err := rows.Scan(&rec.RunID, &rec.Position, &rec.Scenario, &rec.Status, &rec.DurationMS, &errorsJSON); err != nil {
			return nil, fmt.Errorf("scan scenario result: %w", err)
		}
		if rec.Errors, err = unmarshalErrors(errorsJSON); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scenario results: %w", err)
	}
	return records, nil
}

// StepEvents returns the recorded trace of one scenario in a run, ordered
// by seq.
//
// Returns an empty slice (not nil) if nothing was recorded.
func (s *Store) StepEvents(ctx context.Context, runID, scenario string) ([]harness.TraceEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, action, target, value, status, error, note, suppressed
		FROM step_events
		WHERE run_id = ? AND scenario = ?
		ORDER BY seq ASC
	`, runID, scenario)
	if err != nil {
		return nil, fmt.Errorf("query step events: %w", err)
	}
	defer rows.Close()

	events := []harness.TraceEvent{}
	for rows.Next() {
		var e harness.TraceEvent
		if err := rows.Scan(&e.Seq, &e.Action, &e.Target, &e.Value, &e.Status, &e.Error, &e.Note, &e.Suppressed); err != nil {
			return nil, fmt.Errorf("scan step event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate step events: %w", err)
	}
	return events, nil
}
