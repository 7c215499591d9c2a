package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ballotfix/internal/fixture"
	"github.com/roach88/ballotfix/internal/store"
	"github.com/roach88/ballotfix/internal/structure"
	"github.com/roach88/ballotfix/internal/validate"
)

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	data := map[string]string{"result": "success"}
	err := formatter.Success(data)
	require.NoError(t, err)

	var resp CLIResponse
	err = json.Unmarshal(buf.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Status)
	assert.NotNil(t, resp.Data)
}

func TestOutputFormatter_JSONError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	err := formatter.Error("E005", "fixture file not found", nil)
	require.NoError(t, err)

	var resp CLIResponse
	err = json.Unmarshal(buf.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E005", resp.Error.Code)
	assert.Equal(t, "fixture file not found", resp.Error.Message)
}

func TestOutputFormatter_TextError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format:  "text",
		Writer:  buf,
		Verbose: false,
	}

	err := formatter.Error("E301", "malformed fixture", map[string]int{"line": 3})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Error [E301]: malformed fixture")
	assert.NotContains(t, buf.String(), "Details:")
}

func TestOutputFormatter_TextErrorVerbose(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format:  "text",
		Writer:  buf,
		Verbose: true,
	}

	details := map[string]string{"file": "data.js"}
	err := formatter.Error("E301", "malformed fixture", details)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Error [E301]")
	assert.Contains(t, buf.String(), "Details:")
}

func TestOutputFormatter_Render(t *testing.T) {
	text := func(w io.Writer) { fmt.Fprintln(w, "human readable") }

	buf := &bytes.Buffer{}
	f := &OutputFormatter{Format: "text", Writer: buf}
	require.NoError(t, f.Render(map[string]int{"n": 1}, text))
	assert.Equal(t, "human readable\n", buf.String())

	buf.Reset()
	f.Format = "json"
	require.NoError(t, f.Render(map[string]int{"n": 1}, text))
	assert.JSONEq(t, `{"status":"ok","data":{"n":1}}`, buf.String())
}

func TestOutputFormatter_Failure(t *testing.T) {
	buf := &bytes.Buffer{}
	f := &OutputFormatter{Format: "json", Writer: buf}

	require.NoError(t, f.Failure(map[string]bool{"valid": false}, "E201", "unknown collection", nil))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, map[string]interface{}{"valid": false}, resp.Data)
	assert.Equal(t, "E201", resp.Error.Code)
}

func TestOutputFormatter_VerboseLog(t *testing.T) {
	tests := []struct {
		name    string
		verbose bool
		wantLog bool
	}{
		{"verbose_enabled", true, true},
		{"verbose_disabled", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
			formatter := &OutputFormatter{
				Format:    "json",
				Writer:    out,
				ErrWriter: errOut,
				Verbose:   tt.verbose,
			}

			formatter.VerboseLog("Loaded %s", "data.js")

			assert.Empty(t, out.String())
			if tt.wantLog {
				assert.Contains(t, errOut.String(), "Loaded data.js")
			} else {
				assert.Empty(t, errOut.String())
			}
		})
	}
}

func TestOutputFormatter_Fail(t *testing.T) {
	buf := &bytes.Buffer{}
	f := &OutputFormatter{Format: "json", Writer: buf}

	loadErr := &fixture.LoadError{Code: fixture.ErrCodeNotInteger, Message: "count must be an integer", Path: "x.json", Line: 4, Column: 9}
	err := f.Fail(ExitCommandError, "failed to load fixture", loadErr)

	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.ErrorIs(t, err, loadErr)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "E302", resp.Error.Code)
	assert.Equal(t, map[string]interface{}{"path": "x.json", "line": float64(4), "column": float64(9)}, resp.Error.Details)
}

func TestErrorCode(t *testing.T) {
	checkErr := &structure.CheckError{Dir: "d", Issues: []validate.Issue{
		{Code: "E409", Severity: validate.SeverityWarning},
		{Code: "E401", Severity: validate.SeverityError},
	}}

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"load error", &fixture.LoadError{Code: "E304"}, "E304"},
		{"check error uses first error", fmt.Errorf("wrapped: %w", checkErr), "E401"},
		{"not found", fmt.Errorf("resolve: %w", store.ErrNotFound), "E005"},
		{"corrupt", store.ErrCorrupt, ErrCodeStore},
		{"other", errors.New("boom"), ErrCodeGeneric},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _ := errorCode(tt.err)
			assert.Equal(t, tt.want, code)
		})
	}
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitCommandError, GetExitCode(errors.New("plain")))
	assert.Equal(t, ExitCommandError, GetExitCode(fmt.Errorf("wrapped: %w", NewExitError(ExitCommandError, "bad"))))

	err := WrapExitError(ExitFailure, "validation failed", errors.New("E201"))
	assert.Equal(t, "validation failed: E201", err.Error())
}
