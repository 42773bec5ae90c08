package cli

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubInstall(t *testing.T, fn func(verbose bool) error) {
	t.Helper()
	orig := installFunc
	installFunc = fn
	t.Cleanup(func() { installFunc = orig })
}

func TestInstallCommand(t *testing.T) {
	var gotVerbose bool
	stubInstall(t, func(verbose bool) error {
		gotVerbose = verbose
		return nil
	})

	out, _, err := execute(NewInstallCommand(&RootOptions{Format: "text", Verbose: true}))
	require.NoError(t, err)
	assert.True(t, gotVerbose)
	assert.Contains(t, out, "✓ Chromium installed")
}

func TestInstallCommand_Failure(t *testing.T) {
	stubInstall(t, func(bool) error { return errors.New("download failed") })

	out, _, err := execute(NewInstallCommand(&RootOptions{Format: "text"}))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "download failed")
}
