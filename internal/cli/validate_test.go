package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ballotfix/internal/testutil"
)

func TestValidateEx1(t *testing.T) {
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewValidateCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{testutil.Ex1Path()})

	err := cmd.Execute()
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "✓")
	assert.Contains(t, buf.String(), "is valid")
}

func TestValidateEx1JSON(t *testing.T) {
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "json"}
	cmd := NewValidateCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{testutil.Ex1Path()})

	err := cmd.Execute()
	require.NoError(t, err)

	var result ValidationResult
	resp := decodeResponse(t, buf.String(), &result)
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, result.Valid)
	assert.Equal(t, testutil.Ex1Path(), result.Source.Path)
	assert.Len(t, result.Source.ContentHash, 64)
}

func TestValidateNonExistentFile(t *testing.T) {
	testEnv(t)

	out, _, err := execute(t, "validate", "/nonexistent/fixture.json")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "E005")
	assert.Contains(t, out, "not found")
}

func TestValidateMalformedJSON(t *testing.T) {
	testEnv(t)
	path := writeFile(t, "bad.json", `{"n": {"P": 1.5}}`)

	out, _, err := execute(t, "--format", "json", "validate", path)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "E302", resp.Error.Code)
}

func TestValidateInvalidFixture(t *testing.T) {
	testEnv(t)
	e := testutil.Ex1()
	e.SetTally("I", "PBC9", "1", 5)
	path := writeFixtureFile(t, "bad.json", e)

	out, _, err := execute(t, "validate", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ Validation failed")
	assert.Contains(t, out, "E201 t.I.PBC9")
}

func TestValidateInvalidFixtureJSON(t *testing.T) {
	testEnv(t)
	e := testutil.Ex1()
	delete(e.Reported, "C1")
	path := writeFixtureFile(t, "bad.json", e)

	out, _, err := execute(t, "--format", "json", "validate", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var result ValidationResult
	resp := decodeResponse(t, out, &result)
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, "E204", resp.Error.Code)
	assert.False(t, result.Valid)
	require.Len(t, result.Errors, 1)
}

func TestValidateExplicitInputFormat(t *testing.T) {
	testEnv(t)
	path := writeFile(t, "fixture.txt", "n:\n  P: 3\nt:\n  C:\n    P:\n      a: 2\n      b: 1\nro:\n  C: a\n")

	out, _, err := execute(t, "validate", "--from", "yaml", path)
	require.NoError(t, err)
	assert.Contains(t, out, "is valid")

	_, _, err = execute(t, "validate", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "E306")
}

func TestValidateWarnings(t *testing.T) {
	testEnv(t)
	e := testutil.Ex1()
	e.Ballots["PBC4"] = 10
	path := writeFixtureFile(t, "warn.json", e)

	out, _, err := execute(t, "validate", path)
	require.NoError(t, err)
	assert.Contains(t, out, "warning E211 n.PBC4")
}
