package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/mobilindo-e2e/internal/harness"
)

// CreateRun inserts a new run and returns it.
func (s *Store) CreateRun(ctx context.Context, baseURL string) (Run, error) {
	run := Run{
		ID:        s.ids.NewID(),
		BaseURL:   baseURL,
		StartedAt: s.now().UTC(),
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, base_url, started_at)
		VALUES (?, ?, ?)
	`, run.ID, run.BaseURL, formatTime(run.StartedAt))
	if err != nil {
		return Run{}, fmt.Errorf("create run: %w", err)
	}
	return run, nil
}

// WriteScenarioResult records a scenario result and its trace under runID.
// position is the scenario's index in the report. The result and its step
// events are written atomically.
//
// Note: The run referenced by runID must exist (foreign key constraint).
func (s *Store) WriteScenarioResult(ctx context.Context, runID string, position int, r *harness.Result) error {
	if r == nil {
		return fmt.Errorf("write scenario result: result is nil")
	}
	errorsJSON, err := marshalErrors(r.Errors)
	if err != nil {
		return fmt.Errorf("write scenario result: %w", err)
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO scenario_results
			(run_id, position, scenario, status, duration_ms, errors)
			VALUES (?, ?, ?, ?, ?, ?)
		`, runID, position, r.Name, r.Status, r.DurationMS, errorsJSON)
		if err != nil {
			return fmt.Errorf("write scenario result %s: %w", r.Name, err)
		}

		for _, e := range r.Trace {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO step_events
				(run_id, scenario, seq, action, target, value, status, error, note, suppressed)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			`, runID, r.Name, e.Seq, e.Action, e.Target, e.Value, e.Status, e.Error, e.Note, e.Suppressed)
			if err != nil {
				return fmt.Errorf("write step event %s[%d]: %w", r.Name, e.Seq, err)
			}
		}
		return nil
	})
}

// FinishRun stamps the run's finish time and totals it from the recorded
// scenario results.
func (s *Store) FinishRun(ctx context.Context, runID string) (Run, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE runs SET
			finished_at = ?,
			passed = (SELECT COUNT(*) FROM scenario_results WHERE run_id = runs.id AND status = 'PASS'),
			failed = (SELECT COUNT(*) FROM scenario_results WHERE run_id = runs.id AND status = 'FAIL'),
			total  = (SELECT COUNT(*) FROM scenario_results WHERE run_id = runs.id)
		WHERE id = ?
	`, formatTime(s.now()), runID)
	if err != nil {
		return Run{}, fmt.Errorf("finish run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return Run{}, fmt.Errorf("finish run: %w", err)
	}
	if n == 0 {
		return Run{}, fmt.Errorf("finish run %s: %w", runID, ErrNotFound)
	}
	return s.GetRun(ctx, runID)
}
