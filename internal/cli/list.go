package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// ScenarioSummary describes a scenario without running it.
type ScenarioSummary struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Tags        []string `json:"tags,omitempty"`
	Steps       int      `json:"steps"`
	Assertions  int      `json:"assertions"`
	Path        string   `json:"path"`
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	var filter, tag string

	cmd := &cobra.Command{
		Use:   "list <scenarios-dir>",
		Short: "List scenarios",
		Long: `List the scenarios in a directory with their step and assertion counts.

Examples:
  mobilindo-e2e list ./scenarios
  mobilindo-e2e list ./scenarios --tag credit --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(rootOpts, args[0], filter, tag, cmd)
		},
	}

	cmd.Flags().StringVar(&filter, "filter", "", "filter scenario files by glob pattern")
	cmd.Flags().StringVar(&tag, "tag", "", "only list scenarios with this tag")

	return cmd
}

func runList(opts *RootOptions, scenariosDir, filter, tag string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	scenarios, lerr := loadScenarioDir(scenariosDir, filter, tag)
	if lerr != nil {
		_ = formatter.Error(lerr.Code, lerr.Message, nil)
		return NewExitError(ExitCommandError, lerr.Message)
	}

	summaries := make([]ScenarioSummary, len(scenarios))
	for i, s := range scenarios {
		summaries[i] = ScenarioSummary{
			Name:        s.Name,
			Description: s.Description,
			Tags:        s.Tags,
			Steps:       len(s.Steps),
			Assertions:  len(s.Assertions),
			Path:        s.Path,
		}
	}

	if opts.Format == "json" {
		return formatter.Success(summaries)
	}

	w := cmd.OutOrStdout()
	if len(summaries) == 0 {
		fmt.Fprintln(w, "No scenarios found.")
		return nil
	}
	for _, s := range summaries {
		fmt.Fprintf(w, "%s\n", s.Name)
		fmt.Fprintf(w, "  %s\n", s.Description)
		fmt.Fprintf(w, "  Steps: %d  Assertions: %d", s.Steps, s.Assertions)
		if len(s.Tags) > 0 {
			fmt.Fprintf(w, "  Tags: %s", strings.Join(s.Tags, ", "))
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%d scenario(s)\n", len(summaries))
	return nil
}
