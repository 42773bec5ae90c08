package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/mobilindo-e2e/internal/browser"
)

// installFunc installs the browser driver. Replaced in tests.
var installFunc = browser.InstallChromium

// NewInstallCommand creates the install command.
func NewInstallCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "install",
		Short: "Install the Playwright driver and Chromium",
		Long: `Download the Playwright driver and the Chromium build it drives.

Run once per machine (or container image) before 'run'.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(rootOpts, cmd)
			formatter.VerboseLog("Installing Playwright driver and Chromium")

			if err := installFunc(rootOpts.Verbose); err != nil {
				_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
				return WrapExitError(ExitCommandError, "failed to install browser", err)
			}

			if rootOpts.Format == "json" {
				return formatter.Success(map[string]string{"browser": "chromium"})
			}
			fmt.Fprintln(cmd.OutOrStdout(), "✓ Chromium installed")
			return nil
		},
	}

	return cmd
}
