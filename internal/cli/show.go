package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/ballotfix/internal/election"
	"github.com/roach88/ballotfix/internal/tally"
	"github.com/roach88/ballotfix/internal/validate"
)

// ShowOptions holds flags for the show and check commands.
type ShowOptions struct {
	*RootOptions
	InputFormat string
	Contest     string
}

// ShowResult is the output of the show command.
type ShowResult struct {
	Source  Source         `json:"source"`
	Summary *tally.Summary `json:"summary"`
}

// CheckResult is the output of the check command.
type CheckResult struct {
	Source     Source                 `json:"source"`
	Valid      bool                   `json:"valid"`
	Issues     []validate.Issue       `json:"issues,omitempty"`
	Mismatches []tally.ContestSummary `json:"mismatches"`
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ShowOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "show <fixture>",
		Short: "Summarize the tallies and reported outcomes of a fixture",
		Long: `Print per-contest totals, plurality leaders and how each reported
outcome relates to them, plus per-collection ballot counts.

Examples:
  ballotfix show testdata/ex1/data.js
  ballotfix show ex1 --contest F23
  ballotfix show ex1 --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.InputFormat, "from", "", "input format (json|yaml|cue)")
	cmd.Flags().StringVar(&opts.Contest, "contest", "", "show per-vote totals of one contest")

	return cmd
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ShowOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "check <fixture>",
		Short: "Validate a fixture and compare reported outcomes with tallies",
		Long: `Validate a fixture, then report every contest whose reported outcome
is not the plurality leader of its tallies.

Exit codes:
  0 - Fixture is valid and every reported outcome leads
  1 - Validation errors or at least one mismatched outcome
  2 - Fixture could not be loaded`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.InputFormat, "from", "", "input format (json|yaml|cue)")

	return cmd
}

func runShow(opts *ShowOptions, ref string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	format, err := parseFormatFlag(formatter, opts.InputFormat)
	if err != nil {
		return err
	}
	e, source, err := loadElection(cmd.Context(), opts.RootOptions, ref, format)
	if err != nil {
		return formatter.Fail(ExitCommandError, "failed to load fixture", err)
	}

	if opts.Contest != "" {
		if _, ok := e.Tallies[opts.Contest]; !ok {
			_ = formatter.Error(ErrCodeInvalidArgs, fmt.Sprintf("contest %q not found", opts.Contest), nil)
			return NewExitError(ExitCommandError, fmt.Sprintf("%s: contest %q not found", ErrCodeInvalidArgs, opts.Contest))
		}
		contest := tally.SummarizeContest(e, opts.Contest)
		return formatter.Render(contest, func(w io.Writer) {
			printContest(w, contest)
		})
	}

	summary := tally.Summarize(e)
	return formatter.Render(ShowResult{Source: source, Summary: summary}, func(w io.Writer) {
		fmt.Fprintf(w, "Fixture %s\n", source)
		fmt.Fprintf(w, "Content hash %s\n", source.ContentHash)
		fmt.Fprintf(w, "Ballots %d in %d collection(s)\n\n", summary.TotalBallots, len(summary.Collections))
		printSummary(w, summary)
	})
}

func runCheck(opts *ShowOptions, ref string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	format, err := parseFormatFlag(formatter, opts.InputFormat)
	if err != nil {
		return err
	}
	e, source, err := loadElection(cmd.Context(), opts.RootOptions, ref, format)
	if err != nil {
		return formatter.Fail(ExitCommandError, "failed to load fixture", err)
	}

	issues := validate.Validate(e)
	result := CheckResult{
		Source:     source,
		Valid:      !validate.HasErrors(issues),
		Issues:     issues,
		Mismatches: []tally.ContestSummary{},
	}
	summary := tally.Summarize(e)
	for _, cid := range summary.Mismatches {
		result.Mismatches = append(result.Mismatches, tally.SummarizeContest(e, cid))
	}
	opts.logger().Debug("checked fixture")

	if result.Valid && len(result.Mismatches) == 0 {
		return formatter.Render(result, func(w io.Writer) {
			fmt.Fprintf(w, "✓ %s: every reported outcome leads its tallies\n", source)
			printIssues(w, issues)
		})
	}

	code, message := ErrCodeMismatch, fmt.Sprintf("%d reported outcome(s) disagree with tallies", len(result.Mismatches))
	if errs, _ := validate.Split(issues); len(errs) > 0 {
		code, message = errs[0].Code, fmt.Sprintf("validation failed with %d error(s)", len(errs))
	}
	_ = formatter.Failure(result, code, message, func(w io.Writer) {
		fmt.Fprintf(w, "✗ %s: %s\n", source, message)
		printIssues(w, issues)
		for _, c := range result.Mismatches {
			fmt.Fprintf(w, "  %s %s: reported %s, tallies lead with %s (%d votes)\n",
				ErrCodeMismatch, c.ContestID, c.Reported, strings.Join(c.Leaders, ","), c.LeaderVotes)
		}
	})
	return NewExitError(ExitFailure, fmt.Sprintf("%s: %s", code, message))
}

func printSummary(w io.Writer, s *tally.Summary) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CONTEST\tCOLLECTIONS\tCAST\tLEADER\tVOTES\tREPORTED\tSTATUS")
	for _, c := range s.Contests {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%d\t%s\t%s\n",
			c.ContestID, strings.Join(c.Collections, ","), c.Cast,
			strings.Join(c.Leaders, ","), c.LeaderVotes, orDash(c.Reported), c.Status)
	}
	tw.Flush()

	fmt.Fprintln(w)
	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "COLLECTION\tBALLOTS\tMAX CAST\tCONTESTS")
	for _, c := range s.Collections {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\n", c.CollectionID, c.Ballots, c.MaxCast, strings.Join(c.Contests, ","))
	}
	tw.Flush()
}

func printContest(w io.Writer, c tally.ContestSummary) {
	fmt.Fprintf(w, "Contest %s: %s\n", c.ContestID, c.Status)
	fmt.Fprintf(w, "Collections %s, cast %d, reported %s\n\n", strings.Join(c.Collections, ","), c.Cast, orDash(c.Reported))

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "VOTE\tTOTAL")
	for _, vid := range election.SortedKeys(c.Totals) {
		marker := ""
		if vid == c.Reported {
			marker = "  (reported)"
		}
		fmt.Fprintf(tw, "%s\t%d%s\n", vid, c.Totals[vid], marker)
	}
	tw.Flush()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
