package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/ballotfix/internal/election"
	"github.com/roach88/ballotfix/internal/fixture"
)

// testEnv clears BALLOTFIX_* variables for the test and returns the path
// of a fresh fixture store.
func testEnv(t *testing.T) string {
	t.Helper()
	for _, key := range []string{"BALLOTFIX_DB", "BALLOTFIX_FORMAT", "BALLOTFIX_LOG_LEVEL"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	return filepath.Join(t.TempDir(), "fixtures.db")
}

// execute runs the root command with args and returns stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCommand()
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

// decodeResponse parses a JSON envelope and decodes its data into data.
func decodeResponse(t *testing.T, out string, data interface{}) CLIResponse {
	t.Helper()
	var raw struct {
		CLIResponse
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &raw), out)
	if data != nil {
		require.NoError(t, json.Unmarshal(raw.Data, data), out)
	}
	return raw.CLIResponse
}

// writeFixtureFile writes e as JSON into a temp dir and returns its path.
func writeFixtureFile(t *testing.T, name string, e *election.Election) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, fixture.WriteFile(path, e, ""))
	return path
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}
