package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListCommand_Text(t *testing.T) {
	dir := writeScenarios(t, map[string]string{
		"TC001_home.yaml":       homeScenario,
		"TC006_car_detail.yaml": placeholderScenario,
	})

	out, _, err := execute(NewListCommand(&RootOptions{Format: "text"}), dir)
	require.NoError(t, err)
	assert.Contains(t, out, "TC001_home\n  Home page greets visitors\n  Steps: 1  Assertions: 1  Tags: smoke\n")
	assert.Contains(t, out, "TC006_car_detail\n  Car detail page\n  Steps: 1  Assertions: 1\n")
	assert.Contains(t, out, "2 scenario(s)")
}

func TestListCommand_JSONWithTag(t *testing.T) {
	dir := writeScenarios(t, map[string]string{
		"TC001_home.yaml":       homeScenario,
		"TC006_car_detail.yaml": placeholderScenario,
	})

	out, _, err := execute(NewListCommand(&RootOptions{Format: "json"}), dir, "--tag", "smoke")
	require.NoError(t, err)

	var response struct {
		Status string            `json:"status"`
		Data   []ScenarioSummary `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &response))
	assert.Equal(t, "ok", response.Status)
	require.Len(t, response.Data, 1)
	assert.Equal(t, "TC001_home", response.Data[0].Name)
	assert.Equal(t, []string{"smoke"}, response.Data[0].Tags)
}

func TestListCommand_Empty(t *testing.T) {
	out, _, err := execute(NewListCommand(&RootOptions{Format: "text"}), writeScenarios(t, nil))
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found.")
}

func TestListCommand_MissingDir(t *testing.T) {
	_, _, err := execute(NewListCommand(&RootOptions{Format: "text"}), "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
