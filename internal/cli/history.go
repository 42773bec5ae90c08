package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/mobilindo-e2e/internal/harness"
	"github.com/roach88/mobilindo-e2e/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database string
	RunID    string
	Limit    int
}

// RunDetail is a stored run with its scenario results and traces.
type RunDetail struct {
	Run       store.Run        `json:"run"`
	Scenarios []ScenarioDetail `json:"scenarios"`
}

// ScenarioDetail is one stored scenario result with its trace.
type ScenarioDetail struct {
	store.ScenarioRecord
	Trace []harness.TraceEvent `json:"trace"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded runs",
		Long: `Show runs recorded with 'run --db'.

Without --run, lists the most recent runs. With --run, shows every
scenario result of that run and the trace of each scenario.

Examples:
  mobilindo-e2e history --db ./history.db
  mobilindo-e2e history --db ./history.db --limit 5
  mobilindo-e2e history --db ./history.db --run 0192f1c4-... --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "show the details of one run")
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "maximum number of runs to list (0 for all)")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	// Opening would create an empty database; a typo should not.
	if _, err := os.Stat(opts.Database); err != nil {
		_ = formatter.Error(ErrCodeNotFound, fmt.Sprintf("database not found: %s", opts.Database), nil)
		return WrapExitError(ExitCommandError, "database not found", err)
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		_ = formatter.Error(ErrCodeDatabase, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	if opts.RunID != "" {
		return showRun(ctx, st, opts.RunID, formatter)
	}
	return listRuns(ctx, st, opts.Limit, formatter)
}

func listRuns(ctx context.Context, st *store.Store, limit int, formatter *OutputFormatter) error {
	runs, err := st.ListRuns(ctx, limit)
	if err != nil {
		_ = formatter.Error(ErrCodeDatabase, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to list runs", err)
	}

	if formatter.Format == "json" {
		return formatter.Success(runs)
	}

	w := formatter.Writer
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return nil
	}
	for _, run := range runs {
		fmt.Fprintf(w, "%s %s  %s  %d passed, %d failed, %d total\n",
			runStatus(run), run.ID, run.StartedAt.Format(time.RFC3339), run.Passed, run.Failed, run.Total)
	}
	return nil
}

func showRun(ctx context.Context, st *store.Store, runID string, formatter *OutputFormatter) error {
	run, err := st.GetRun(ctx, runID)
	if errors.Is(err, store.ErrNotFound) {
		_ = formatter.Error(ErrCodeNotFound, fmt.Sprintf("run not found: %s", runID), nil)
		return WrapExitError(ExitCommandError, "run not found", err)
	}
	if err != nil {
		_ = formatter.Error(ErrCodeDatabase, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to read run", err)
	}

	records, err := st.ScenarioResults(ctx, runID)
	if err != nil {
		_ = formatter.Error(ErrCodeDatabase, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to read scenario results", err)
	}

	detail := RunDetail{Run: run, Scenarios: make([]ScenarioDetail, len(records))}
	for i, rec := range records {
		trace, err := st.StepEvents(ctx, runID, rec.Scenario)
		if err != nil {
			_ = formatter.Error(ErrCodeDatabase, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to read trace", err)
		}
		detail.Scenarios[i] = ScenarioDetail{ScenarioRecord: rec, Trace: trace}
	}

	if formatter.Format == "json" {
		return formatter.Success(detail)
	}
	outputRunDetailText(formatter.Writer, detail)
	return nil
}

// outputRunDetailText prints a run the way a trace is read: one block per
// scenario with its timeline.
func outputRunDetailText(w io.Writer, detail RunDetail) {
	run := detail.Run
	fmt.Fprintf(w, "Run: %s\n", run.ID)
	fmt.Fprintf(w, "Base URL: %s\n", run.BaseURL)
	fmt.Fprintf(w, "Started: %s\n", run.StartedAt.Format(time.RFC3339))
	if run.Finished() {
		fmt.Fprintf(w, "Finished: %s\n", run.FinishedAt.Format(time.RFC3339))
	} else {
		fmt.Fprintln(w, "Finished: (incomplete)")
	}
	fmt.Fprintf(w, "Summary: %d passed, %d failed, %d total\n", run.Passed, run.Failed, run.Total)

	for _, s := range detail.Scenarios {
		fmt.Fprintln(w)
		mark := "✓"
		if s.Status != harness.StatusPass {
			mark = "✗"
		}
		fmt.Fprintf(w, "=== %s %s (%dms) ===\n", mark, s.Scenario, s.DurationMS)
		if len(s.Trace) == 0 {
			fmt.Fprintln(w, "  (no steps)")
		}
		for _, e := range s.Trace {
			fmt.Fprintf(w, "  [%d] %s", e.Seq, e.Action)
			if e.Target != "" {
				fmt.Fprintf(w, " %s", e.Target)
			}
			if e.Value != "" {
				fmt.Fprintf(w, " %q", e.Value)
			}
			fmt.Fprintf(w, " (%s)\n", e.Status)
			if e.Error != "" {
				fmt.Fprintf(w, "       Error: %s\n", e.Error)
			}
		}
		for _, msg := range s.Errors {
			writeIndented(w, msg, "  ! ")
		}
	}
}

func runStatus(run store.Run) string {
	switch {
	case !run.Finished():
		return "…"
	case run.Failed > 0:
		return "✗"
	default:
		return "✓"
	}
}
