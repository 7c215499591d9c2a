package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ballotfix/internal/testutil"
)

func scenarioDir(t *testing.T, scenarios map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range scenarios {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func ex1ScenarioYAML(name string, valid bool) string {
	expect := "true"
	if !valid {
		expect = "false"
	}
	return `name: ` + name + `
description: ex1 validity
fixture: ` + testutil.Ex1Path() + `
assertions:
  - type: valid
    expect: ` + expect + `
`
}

func TestTestCommand_RepositoryScenarios(t *testing.T) {
	testEnv(t)

	out, _, err := execute(t, "test", testutil.RepoPath("testdata", "scenarios"))
	require.NoError(t, err)
	assert.Contains(t, out, "✓ ex1_reported")
	assert.Contains(t, out, "✓ synth_wrong")
	assert.Contains(t, out, "5 passed, 0 failed")
}

func TestTestCommand_Failure(t *testing.T) {
	testEnv(t)
	dir := scenarioDir(t, map[string]string{
		"good.yaml": ex1ScenarioYAML("good", true),
		"bad.yaml":  ex1ScenarioYAML("bad", false),
	})

	out, _, err := execute(t, "test", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ bad")
	assert.Contains(t, out, "assertion 0 (valid)")
	assert.Contains(t, out, "✓ good")
	assert.Contains(t, out, "1 passed, 1 failed")
}

func TestTestCommand_JSON(t *testing.T) {
	testEnv(t)
	dir := scenarioDir(t, map[string]string{
		"good.yaml": ex1ScenarioYAML("good", true),
		"bad.yaml":  ex1ScenarioYAML("bad", false),
	})

	out, _, err := execute(t, "--format", "json", "test", dir)
	require.Error(t, err)

	var result TestResult
	resp := decodeResponse(t, out, &result)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeTestFailed, resp.Error.Code)
	assert.Equal(t, 2, result.Total)
	assert.Equal(t, 1, result.Passed)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Scenarios, 2)
	assert.Equal(t, "bad", result.Scenarios[0].Name)
	assert.False(t, result.Scenarios[0].Pass)
}

func TestTestCommand_Filter(t *testing.T) {
	testEnv(t)
	dir := scenarioDir(t, map[string]string{
		"good.yaml": ex1ScenarioYAML("good", true),
		"bad.yaml":  ex1ScenarioYAML("bad", false),
	})

	out, _, err := execute(t, "test", dir, "--filter", "go*")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ good")
	assert.NotContains(t, out, "bad")

	_, _, err = execute(t, "test", dir, "--filter", "[")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTestCommand_GoldenUpdateAndCompare(t *testing.T) {
	testEnv(t)
	dir := scenarioDir(t, map[string]string{"good.yaml": ex1ScenarioYAML("good", true)})

	out, _, err := execute(t, "test", dir, "--update")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ good (golden updated)")

	golden := filepath.Join(dir, "golden", "good.golden")
	data, err := os.ReadFile(golden)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"scenario_name":"good"`)

	_, _, err = execute(t, "test", dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(golden, []byte(`{"scenario_name":"stale"}`), 0o644))
	out, _, err = execute(t, "test", dir)
	require.Error(t, err)
	assert.Contains(t, out, "snapshot does not match golden file")
}

func TestTestCommand_LoadErrorIsAFailure(t *testing.T) {
	testEnv(t)
	dir := scenarioDir(t, map[string]string{"broken.yaml": "name: broken\n"})

	out, _, err := execute(t, "test", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ broken.yaml")
	assert.Contains(t, out, "load error")
}

func TestTestCommand_Empty(t *testing.T) {
	testEnv(t)

	out, _, err := execute(t, "test", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found.")
}

func TestTestCommand_MissingPath(t *testing.T) {
	testEnv(t)

	_, _, err := execute(t, "test", filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
