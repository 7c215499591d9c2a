package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/roach88/ballotfix/internal/fixture"
	"github.com/roach88/ballotfix/internal/store"
	"github.com/roach88/ballotfix/internal/structure"
	"github.com/roach88/ballotfix/internal/validate"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Invalid fixture or reported outcome disagrees with tallies
	ExitCommandError = 2 // Command error (unreadable file, store unavailable, etc.)
)

// CLI error codes. Fixture load errors keep their E005/E3xx codes and
// validation failures report the code of their first issue.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeInvalidArgs = "E002" // Flag or argument out of range
	ErrCodeWriteFailed = "E007" // Output could not be written
	ErrCodeStore       = "E008" // Fixture store could not be opened or queried
	ErrCodeMismatch    = "E009" // Reported outcome is not the unique leader
	ErrCodeTestFailed  = "E010" // One or more harness scenarios failed
)

// ExitError represents an error with a specific exit code.
// Use this to return errors with meaningful exit codes from CLI commands.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitCommandError (2) if the error is not an ExitError: every
// failure verdict is reported as an ExitError, so anything else is a
// command error.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitCommandError
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Separate writer for verbose/diagnostic output (defaults to Writer)
	Verbose   bool
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string      `json:"status"`          // "ok" or "error"
	Data   interface{} `json:"data,omitempty"`  // success payload
	Error  *CLIError   `json:"error,omitempty"` // error details
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string      `json:"code"`              // "E001", "E201", etc.
	Message string      `json:"message"`           // human-readable message
	Details interface{} `json:"details,omitempty"` // additional context
}

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(data interface{}) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "ok",
			Data:   data,
		})
	}

	// Human-readable text output
	fmt.Fprintln(f.Writer, data)
	return nil
}

// Render outputs data as a JSON envelope, or calls text for human-readable
// output.
func (f *OutputFormatter) Render(data interface{}, text func(w io.Writer)) error {
	if f.Format == "json" {
		return f.Success(data)
	}
	text(f.Writer)
	return nil
}

// Failure outputs data together with error details. Used when a command ran
// to completion but its result is a failure (invalid fixture, mismatch).
func (f *OutputFormatter) Failure(data interface{}, code, message string, text func(w io.Writer)) error {
	if f.Format == "json" {
		encoder := json.NewEncoder(f.Writer)
		encoder.SetIndent("", "  ")
		return encoder.Encode(CLIResponse{
			Status: "error",
			Data:   data,
			Error:  &CLIError{Code: code, Message: message},
		})
	}
	text(f.Writer)
	return nil
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details interface{}) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: message,
				Details: details,
			},
		})
	}

	// Human-readable error
	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// VerboseLog outputs a message only if verbose mode is enabled.
// Uses ErrWriter if set, otherwise falls back to Writer.
// When format is JSON, verbose logs go to ErrWriter to avoid corrupting JSON output.
func (f *OutputFormatter) VerboseLog(format string, args ...interface{}) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
}

// GetErrWriter returns the appropriate writer for diagnostic output.
// Returns ErrWriter if set, otherwise Writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}

// Fail reports err and returns it as an ExitError. The error code comes from
// the error itself where it carries one.
func (f *OutputFormatter) Fail(exitCode int, message string, err error) error {
	code, details := errorCode(err)
	_ = f.Error(code, fmt.Sprintf("%s: %v", message, err), details)
	return WrapExitError(exitCode, fmt.Sprintf("%s: %s", code, message), err)
}

// errorCode maps an error to its CLI error code and optional details.
func errorCode(err error) (string, interface{}) {
	var loadErr *fixture.LoadError
	if errors.As(err, &loadErr) {
		details := map[string]interface{}{"path": loadErr.Path}
		if loadErr.Field != "" {
			details["field"] = loadErr.Field
		}
		if loadErr.Line > 0 {
			details["line"] = loadErr.Line
			details["column"] = loadErr.Column
		}
		return loadErr.Code, details
	}
	var checkErr *structure.CheckError
	if errors.As(err, &checkErr) {
		if errs, _ := validate.Split(checkErr.Issues); len(errs) > 0 {
			return errs[0].Code, errs
		}
	}
	if errors.Is(err, store.ErrNotFound) {
		return fixture.ErrCodeNotFound, nil
	}
	if errors.Is(err, store.ErrCorrupt) {
		return ErrCodeStore, nil
	}
	return ErrCodeGeneric, nil
}
