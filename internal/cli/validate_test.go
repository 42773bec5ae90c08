package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/mobilindo-e2e/internal/harness"
)

func TestValidateCommand_AllValid(t *testing.T) {
	dir := writeScenarios(t, map[string]string{
		"TC001_home.yaml":       homeScenario,
		"TC006_car_detail.yaml": placeholderScenario,
	})

	out, _, err := execute(NewValidateCommand(&RootOptions{Format: "text"}), dir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ All scenarios valid (2 file(s))")
}

func TestValidateCommand_ReportsEveryFile(t *testing.T) {
	dir := writeScenarios(t, map[string]string{
		"a_schema.yaml": "name: a\ndescription: d\nsteps: []\nassertions: [{type: fail, message: m}]\n",
		"b_semantic.yaml": `name: b
description: d
steps: [{action: click}]
assertions: [{type: fail, message: m}]
`,
		"c_ok.yaml": homeScenario,
		"d_dup.yaml": homeScenario,
	})

	out, _, err := execute(NewValidateCommand(&RootOptions{Format: "text"}), dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	assert.Contains(t, out, "✗ "+filepath.Join(dir, "a_schema.yaml"))
	assert.Contains(t, out, "[E010] schema check failed")
	assert.Contains(t, out, "✗ "+filepath.Join(dir, "b_semantic.yaml"))
	assert.Contains(t, out, "[E211] steps[0].target: target is required for click")
	assert.Contains(t, out, "[E204] name: duplicate scenario name \"TC001_home\"")
	assert.NotContains(t, out, "✗ "+filepath.Join(dir, "c_ok.yaml"))
	assert.Contains(t, out, "Validation failed: 3 error(s) in 4 file(s)")
}

func TestValidateCommand_JSON(t *testing.T) {
	dir := writeScenarios(t, map[string]string{
		"b_semantic.yaml": `name: b
description: d
steps: [{action: click}]
assertions: [{type: fail, message: m}]
`,
	})

	out, _, err := execute(NewValidateCommand(&RootOptions{Format: "json"}), dir)
	require.Error(t, err)

	var response struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
		Error  *CLIError        `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &response))
	assert.Equal(t, "error", response.Status)
	assert.False(t, response.Data.Valid)
	require.Len(t, response.Data.Errors, 1)
	assert.Equal(t, harness.ErrStepField, response.Data.Errors[0].Code)
	assert.Equal(t, "steps[0].target", response.Data.Errors[0].Field)
	assert.Equal(t, harness.ErrStepField, response.Error.Code)
}

func TestValidateCommand_CommandErrors(t *testing.T) {
	tests := []struct {
		name    string
		dir     func(t *testing.T) string
		wantErr string
	}{
		{
			name:    "missing directory",
			dir:     func(t *testing.T) string { return "/nonexistent/scenarios" },
			wantErr: "E005: scenarios directory not found",
		},
		{
			name:    "no files",
			dir:     func(t *testing.T) string { return writeScenarios(t, map[string]string{"README.md": "# notes"}) },
			wantErr: "E003: no scenario files found",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(NewValidateCommand(&RootOptions{Format: "text"}), tt.dir(t))
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateCommand_ShippedScenarios(t *testing.T) {
	out, _, err := execute(NewValidateCommand(&RootOptions{Format: "text"}), filepath.Join("..", "..", "scenarios"))
	require.NoError(t, err, out)
	assert.Contains(t, out, "All scenarios valid (7 file(s))")
}
