package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ballotfix/internal/testutil"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "ballotfix", cmd.Use)
	assert.Contains(t, cmd.Long, "BALLOTFIX_DB")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"validate", "show", "check", "fmt", "import", "export", "list", "rm", "synth", "assemble", "test"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	dbFlag := cmd.PersistentFlags().Lookup("db")
	require.NotNil(t, dbFlag)
	assert.Equal(t, "ballotfix.db", dbFlag.DefValue)

	levelFlag := cmd.PersistentFlags().Lookup("log-level")
	require.NotNil(t, levelFlag)
	assert.Equal(t, "warn", levelFlag.DefValue)
}

func TestFmtCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	fmtCmd, _, err := cmd.Find([]string{"fmt"})
	require.NoError(t, err)

	outputFlag := fmtCmd.Flags().Lookup("output")
	require.NotNil(t, outputFlag)
	assert.Equal(t, "o", outputFlag.Shorthand)

	writeFlag := fmtCmd.Flags().Lookup("write")
	require.NotNil(t, writeFlag)
	assert.Equal(t, "w", writeFlag.Shorthand)
}

func TestInvalidFormatFlag(t *testing.T) {
	testEnv(t)

	_, stderr, err := execute(t, "--format", "xml", "list")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, stderr, `invalid format "xml"`)
}

func TestEnvironmentConfig(t *testing.T) {
	db := testEnv(t)
	t.Setenv("BALLOTFIX_FORMAT", "json")
	t.Setenv("BALLOTFIX_DB", db)

	_, _, err := execute(t, "import", testutil.Ex1Path())
	require.NoError(t, err)

	out, _, err := execute(t, "list")
	require.NoError(t, err)
	var list ListResult
	resp := decodeResponse(t, out, &list)
	assert.Equal(t, "ok", resp.Status)
	require.Len(t, list.Fixtures, 1)

	// Flags override the environment.
	out, _, err = execute(t, "--format", "text", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "SEQ")
}

func TestInvalidEnvironment(t *testing.T) {
	testEnv(t)
	t.Setenv("BALLOTFIX_LOG_LEVEL", "loud")

	_, stderr, err := execute(t, "list")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, stderr, "invalid log level")
}

func TestFlagsReplaceInvalidEnvironment(t *testing.T) {
	db := testEnv(t)
	t.Setenv("BALLOTFIX_FORMAT", "bogus")
	t.Setenv("BALLOTFIX_LOG_LEVEL", "loud")

	out, _, err := execute(t, "--db", db, "--format", "json", "--log-level", "debug", "list")
	require.NoError(t, err)
	resp := decodeResponse(t, out, nil)
	assert.Equal(t, "ok", resp.Status)
}

func TestUsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"missing argument", []string{"validate"}},
		{"unknown flag", []string{"show", "--bogus", "x"}},
		{"extra argument", []string{"list", "extra"}},
		{"unknown command", []string{"bogus"}},
		{"bad flag value", []string{"synth", "--seed", "many"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testEnv(t)

			_, stderr, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.Contains(t, err.Error(), ErrCodeInvalidArgs)
			assert.Contains(t, stderr, "Error ["+ErrCodeInvalidArgs+"]")
		})
	}
}

func TestVerboseLogsToStderr(t *testing.T) {
	db := testEnv(t)

	out, stderr, err := execute(t, "--db", db, "--format", "json", "-v", "import", testutil.Ex1Path())
	require.NoError(t, err)

	var result ImportResult
	decodeResponse(t, out, &result)
	assert.True(t, result.Inserted)
	assert.Contains(t, stderr, `"msg":"stored fixture"`)
}
