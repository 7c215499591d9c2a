package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/ballotfix/internal/validate"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	InputFormat string
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool             `json:"valid"`
	Source   Source           `json:"source"`
	Errors   []validate.Issue `json:"errors,omitempty"`
	Warnings []validate.Issue `json:"warnings,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <fixture>",
		Short: "Check a fixture for internal consistency",
		Long: `Load a fixture and report every consistency issue.

The fixture may be a JSON, YAML or CUE file, or a reference to a stored
fixture (id, id or hash prefix, or name).

Exit codes:
  0 - Fixture is valid (warnings allowed)
  1 - Fixture has error issues
  2 - Fixture could not be loaded`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.InputFormat, "from", "", "input format (json|yaml|cue), inferred from extension by default")

	return cmd
}

func runValidate(opts *ValidateOptions, ref string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	format, err := parseFormatFlag(formatter, opts.InputFormat)
	if err != nil {
		return err
	}
	e, source, err := loadElection(cmd.Context(), opts.RootOptions, ref, format)
	if err != nil {
		return formatter.Fail(ExitCommandError, "failed to load fixture", err)
	}
	formatter.VerboseLog("Loaded %s: %d collection(s), %d contest(s)", source, len(e.Ballots), len(e.Tallies))

	errs, warnings := validate.Split(validate.Validate(e))
	opts.logger().Debug("validated fixture")

	result := ValidationResult{
		Valid:    len(errs) == 0,
		Source:   source,
		Errors:   errs,
		Warnings: warnings,
	}
	if len(errs) > 0 {
		return outputValidationErrors(formatter, result)
	}
	return outputValidateSuccess(formatter, result)
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, result ValidationResult) error {
	return formatter.Render(result, func(w io.Writer) {
		fmt.Fprintf(w, "✓ %s is valid\n", result.Source)
		printIssues(w, result.Warnings)
	})
}

// outputValidationErrors outputs the issues of an invalid fixture.
func outputValidationErrors(formatter *OutputFormatter, result ValidationResult) error {
	first := result.Errors[0]
	_ = formatter.Failure(result, first.Code, first.Message, func(w io.Writer) {
		fmt.Fprintf(w, "✗ Validation failed: %s\n", result.Source)
		fmt.Fprintln(w)
		printIssues(w, result.Errors)
		printIssues(w, result.Warnings)
	})

	// Validation failures = exit code 1 (test/validation failure)
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(result.Errors)))
}

func printIssues(w io.Writer, issues []validate.Issue) {
	for _, issue := range issues {
		if issue.Severity == validate.SeverityWarning {
			fmt.Fprintf(w, "  warning %s %s: %s\n", issue.Code, issue.Field, issue.Message)
			continue
		}
		fmt.Fprintf(w, "  %s %s: %s\n", issue.Code, issue.Field, issue.Message)
	}
}
