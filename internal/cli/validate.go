package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/mobilindo-e2e/internal/harness"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool        `json:"valid"`
	Files  int         `json:"files"`
	Errors []FileIssue `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	var filter string

	cmd := &cobra.Command{
		Use:   "validate <scenarios-dir>",
		Short: "Validate scenario files without a browser",
		Long: `Validate scenario files without launching a browser.

Every file is checked against the CUE scenario schema, decoded strictly
(unknown fields fail) and validated semantically. All problems in all
files are reported, not just the first.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], filter, cmd)
		},
	}

	cmd.Flags().StringVar(&filter, "filter", "", "filter scenario files by glob pattern")

	return cmd
}

func runValidate(opts *RootOptions, scenariosDir, filter string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	if lerr := checkScenarioDir(scenariosDir); lerr != nil {
		return outputValidateError(formatter, lerr.Code, lerr.Message, nil)
	}
	files, err := harness.FindScenarioFiles(scenariosDir, filter)
	if err != nil {
		return outputValidateError(formatter, ErrCodeScanError, err.Error(), nil)
	}
	if len(files) == 0 {
		return outputValidateError(formatter, ErrCodeNoFiles, fmt.Sprintf("no scenario files found in %s", scenariosDir), nil)
	}

	formatter.VerboseLog("Found %d scenario file(s) in %s", len(files), scenariosDir)

	_, issues := checkScenarioFiles(files)
	if len(issues) > 0 {
		return outputValidationErrors(formatter, len(files), issues)
	}
	return outputValidateSuccess(formatter, len(files))
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, files int) error {
	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{Valid: true, Files: files})
	}

	fmt.Fprintf(formatter.Writer, "✓ All scenarios valid (%d file(s))\n", files)
	return nil
}

// outputValidateError outputs a single command-level error.
func outputValidateError(formatter *OutputFormatter, code, message string, details interface{}) error {
	_ = formatter.Error(code, message, details)
	// Missing directories and the like are command errors (exit code 2)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

// outputValidationErrors outputs every problem found.
func outputValidationErrors(formatter *OutputFormatter, files int, issues []FileIssue) error {
	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data:   ValidationResult{Valid: false, Files: files, Errors: issues},
			Error: &CLIError{
				Code:    issues[0].Code,
				Message: issues[0].Message,
			},
		}
		if err := writeJSON(formatter.Writer, response); err != nil {
			return err
		}
	} else {
		w := formatter.Writer
		lastPath := ""
		for _, issue := range issues {
			if issue.Path != lastPath {
				fmt.Fprintf(w, "✗ %s\n", issue.Path)
				lastPath = issue.Path
			}
			msg := issue.Message
			if issue.Field != "" {
				msg = issue.Field + ": " + msg
			}
			writeIndented(w, fmt.Sprintf("[%s] %s", issue.Code, msg), "  ")
		}
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Validation failed: %d error(s) in %d file(s)\n", len(issues), files)
	}

	// Validation failures = exit code 1
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(issues)))
}
