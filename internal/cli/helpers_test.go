package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/roach88/mobilindo-e2e/internal/browser"
	"github.com/roach88/mobilindo-e2e/internal/testutil"
)

const testBaseURL = "http://mobilindo.test"

const homeScenario = `name: TC001_home
description: Home page greets visitors
tags: [smoke]
steps:
  - action: goto
    url: /
assertions:
  - type: text_contains
    target: { css: main }
    values: ["Selamat datang"]
`

const placeholderScenario = `name: TC006_car_detail
description: Car detail page
steps:
  - action: goto
    url: /
    note: detail page not reachable yet
assertions:
  - type: fail
    message: car detail checks are not written yet
`

// newHomeApp renders a marketplace home page.
func newHomeApp() *testutil.App {
	app := testutil.NewApp()
	app.Page(testBaseURL+"/").
		Add(browser.Selector{CSS: "main"}, &testutil.Element{Text: "Selamat datang di Mobilindo"})
	return app
}

// newFakeBrowser returns a fake where every session gets its own home app.
func newFakeBrowser() *testutil.Fake {
	fake := testutil.NewFake(nil)
	fake.NewApp = newHomeApp
	return fake
}

// writeScenarios creates a scenarios dir holding the given files.
func writeScenarios(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "scenarios")
	require.NoError(t, os.MkdirAll(dir, 0755))
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}
	return dir
}

// execute runs cmd with args and returns stdout, stderr and the error.
func execute(cmd *cobra.Command, args ...string) (string, string, error) {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

// runArgs are the flags every run test needs against the fake.
func runArgs(dir string, extra ...string) []string {
	return append([]string{dir, "--base-url", testBaseURL, "--settle", "0s"}, extra...)
}
