package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/mobilindo-e2e/internal/config"
	"github.com/roach88/mobilindo-e2e/internal/harness"
	"github.com/roach88/mobilindo-e2e/internal/logging"
	"github.com/roach88/mobilindo-e2e/internal/metrics"
	"github.com/roach88/mobilindo-e2e/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	ConfigPath  string
	BaseURL     string
	Filter      string // scenario file filter (glob pattern)
	Tag         string
	Parallel    int
	Headed      bool
	Settle      time.Duration
	Database    string // record history here when set
	MetricsFile string // Prometheus textfile output
}

// RunReport is the JSON payload of the run command.
type RunReport struct {
	RunID     string            `json:"run_id,omitempty"`
	BaseURL   string            `json:"base_url"`
	Scenarios []*harness.Result `json:"scenarios"`
	Passed    int               `json:"passed"`
	Failed    int               `json:"failed"`
	Total     int               `json:"total"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <scenarios-dir>",
		Short: "Run browser scenarios against the marketplace",
		Long: `Run every scenario file in a directory against the marketplace.

Each scenario gets its own browser session. Steps run in order and the
first failing step aborts the scenario; assertions are then checked
against the live page.

Settings come from mobilindo-e2e.yaml (or --config), then MOBILINDO_*
environment variables, then flags.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, config, etc.)

Examples:
  mobilindo-e2e run ./scenarios
  mobilindo-e2e run ./scenarios --filter "TC00*" --parallel 3
  mobilindo-e2e run ./scenarios --tag smoke --base-url http://localhost:3000
  mobilindo-e2e run ./scenarios --db history.db --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarios(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.ConfigPath, "config", "", "config file (default ./"+config.DefaultFile+" if present)")
	cmd.Flags().StringVar(&opts.BaseURL, "base-url", "", "marketplace base URL")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenario files by glob pattern")
	cmd.Flags().StringVar(&opts.Tag, "tag", "", "only run scenarios with this tag")
	cmd.Flags().IntVar(&opts.Parallel, "parallel", 1, "number of scenarios to run concurrently")
	cmd.Flags().BoolVar(&opts.Headed, "headed", false, "show the browser window")
	cmd.Flags().DurationVar(&opts.Settle, "settle", harness.DefaultSettleDelay, "delay before each locator action")
	cmd.Flags().StringVar(&opts.Database, "db", "", "record results in this SQLite database")
	cmd.Flags().StringVar(&opts.MetricsFile, "metrics-file", "", "write Prometheus metrics to this textfile")

	return cmd
}

// resolveConfig layers explicitly set flags over the file and environment.
func resolveConfig(opts *RunOptions, cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return config.Config{}, err
	}

	flags := cmd.Flags()
	if flags.Changed("base-url") {
		cfg.BaseURL = opts.BaseURL
	}
	if flags.Changed("parallel") {
		cfg.Parallel = opts.Parallel
	}
	if flags.Changed("settle") {
		cfg.SettleDelay = opts.Settle
	}
	if opts.Headed {
		cfg.Headless = false
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func runScenarios(opts *RunOptions, scenariosDir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	cfg, err := resolveConfig(opts, cmd)
	if err != nil {
		_ = formatter.Error(ErrCodeConfig, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}

	scenarios, lerr := loadScenarioDir(scenariosDir, opts.Filter, opts.Tag)
	if lerr != nil {
		_ = formatter.Error(lerr.Code, lerr.Message, nil)
		return NewExitError(ExitCommandError, lerr.Message)
	}

	if len(scenarios) == 0 {
		if opts.Format == "json" {
			return outputRunJSON(cmd, RunReport{BaseURL: cfg.BaseURL, Scenarios: []*harness.Result{}})
		}
		fmt.Fprintln(cmd.OutOrStdout(), "No scenarios found.")
		return nil
	}
	formatter.VerboseLog("Loaded %d scenario(s) from %s", len(scenarios), scenariosDir)

	hopts := cfg.HarnessOptions()
	if opts.DriverFactory != nil {
		hopts.NewDriver = opts.DriverFactory
	}
	hopts.Logger = logging.New(formatter.GetErrWriter(), logging.LevelFor(opts.Verbose))
	hopts.Metrics = metrics.New()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var hist *runRecorder
	if opts.Database != "" {
		hist, err = openHistory(ctx, opts.Database, cfg.BaseURL)
		if err != nil {
			_ = formatter.Error(ErrCodeDatabase, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to open history database", err)
		}
		defer hist.Close()
	}

	suite, err := harness.RunSuite(ctx, scenarios, hopts, cfg.Parallel, nil)
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to run scenarios", err)
	}

	report := RunReport{
		BaseURL:   cfg.BaseURL,
		Scenarios: suite.Results,
		Passed:    suite.Passed,
		Failed:    suite.Failed,
		Total:     suite.Total,
	}

	if hist != nil {
		if err := hist.record(context.WithoutCancel(ctx), suite); err != nil {
			_ = formatter.Error(ErrCodeDatabase, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to record run history", err)
		}
		report.RunID = hist.run.ID
	}

	if opts.MetricsFile != "" {
		if err := hopts.Metrics.WriteTextfile(opts.MetricsFile); err != nil {
			_ = formatter.Error(ErrCodeWriteFailed, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to write metrics", err)
		}
		formatter.VerboseLog("Wrote metrics to %s", opts.MetricsFile)
	}

	if opts.Format == "json" {
		return outputRunJSON(cmd, report)
	}
	return outputRunText(cmd, report)
}

// runRecorder records one run into the store.
type runRecorder struct {
	st  *store.Store
	run store.Run
}

func openHistory(ctx context.Context, path, baseURL string) (*runRecorder, error) {
	st, err := store.Open(path)
	if err != nil {
		return nil, err
	}
	run, err := st.CreateRun(ctx, baseURL)
	if err != nil {
		st.Close()
		return nil, err
	}
	return &runRecorder{st: st, run: run}, nil
}

func (h *runRecorder) record(ctx context.Context, suite *harness.SuiteResult) error {
	for i, r := range suite.Results {
		if err := h.st.WriteScenarioResult(ctx, h.run.ID, i, r); err != nil {
			return err
		}
	}
	run, err := h.st.FinishRun(ctx, h.run.ID)
	if err != nil {
		return err
	}
	h.run = run
	return nil
}

func (h *runRecorder) Close() error {
	return h.st.Close()
}

// outputRunJSON outputs the run report as JSON.
func outputRunJSON(cmd *cobra.Command, report RunReport) error {
	response := CLIResponse{
		Status: "ok",
		Data:   report,
		RunID:  report.RunID,
	}
	if report.Failed > 0 {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    "E_TEST_FAILED",
			Message: fmt.Sprintf("%d scenario(s) failed", report.Failed),
		}
	}

	if err := writeJSON(cmd.OutOrStdout(), response); err != nil {
		return err
	}

	if report.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", report.Failed))
	}
	return nil
}

// outputRunText prints one line per scenario, the errors of failed ones,
// and a summary.
func outputRunText(cmd *cobra.Command, report RunReport) error {
	w := cmd.OutOrStdout()

	for _, r := range report.Scenarios {
		if r.Pass {
			fmt.Fprintf(w, "✓ %s (%s)\n", r.Name, r.Duration.Round(time.Millisecond))
			continue
		}
		fmt.Fprintf(w, "✗ %s\n", r.Name)
		for _, e := range r.Errors {
			writeIndented(w, e, "  ")
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Test Summary: %d passed, %d failed, %d total\n", report.Passed, report.Failed, report.Total)
	if report.RunID != "" {
		fmt.Fprintf(w, "Run ID: %s\n", report.RunID)
	}

	if report.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", report.Failed))
	}

	fmt.Fprintln(w, "✓ All scenarios passed")
	return nil
}

// writeIndented writes msg with every line prefixed by indent.
func writeIndented(w io.Writer, msg, indent string) {
	for _, line := range strings.Split(strings.TrimRight(msg, "\n"), "\n") {
		fmt.Fprintf(w, "%s%s\n", indent, line)
	}
}
