package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/ballotfix/internal/structure"
	"github.com/roach88/ballotfix/internal/validate"
)

// AssembleOptions holds flags for the assemble command.
type AssembleOptions struct {
	*RootOptions
	OutputFormat string
	Output       string
	Import       bool
	Name         string
}

// AssembleResult reports a fixture built from an election directory.
type AssembleResult struct {
	Dir         string           `json:"dir"`
	Name        string           `json:"name,omitempty"`
	ContentHash string           `json:"content_hash"`
	Path        string           `json:"path,omitempty"`
	StoreID     string           `json:"store_id,omitempty"`
	Warnings    []validate.Issue `json:"warnings,omitempty"`
}

// NewAssembleCommand creates the assemble command.
func NewAssembleCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AssembleOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "assemble <election-dir>",
		Short: "Build a fixture from an election directory of CSV files",
		Long: `Read 1-structure (election, contests, collections) and 2-election
(reported votes, ballot manifests, reported outcomes) CSV files and build
the fixture they describe. When several files share a prefix the greatest
name wins.

Without -o or --import the fixture is written to stdout.

Exit codes:
  0 - Fixture assembled (warnings allowed)
  1 - The directory has structure or validation errors
  2 - Required files are missing or unreadable`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAssemble(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.OutputFormat, "to", "", "output format (json|yaml|cue|canonical)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file")
	cmd.Flags().BoolVar(&opts.Import, "import", false, "save the fixture in the fixture store")
	cmd.Flags().StringVar(&opts.Name, "name", "", "fixture name for --import (default: the election dirname)")

	return cmd
}

func runAssemble(opts *AssembleOptions, dir string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	format, err := parseFormatFlag(formatter, opts.OutputFormat)
	if err != nil {
		return err
	}

	res, err := structure.Assemble(dir, structure.WithLogger(opts.logger()))
	var checkErr *structure.CheckError
	if errors.As(err, &checkErr) {
		errs, warnings := validate.Split(checkErr.Issues)
		return outputValidationErrors(formatter, ValidationResult{
			Source:   Source{Path: dir},
			Errors:   errs,
			Warnings: warnings,
		})
	}
	if err != nil {
		return formatter.Fail(ExitCommandError, "failed to assemble election", err)
	}

	e := res.Election
	_, warnings := validate.Split(res.Issues)
	for _, w := range warnings {
		formatter.VerboseLog("warning %s %s: %s", w.Code, w.Field, w.Message)
	}

	hash, err := e.ContentHash()
	if err != nil {
		return formatter.Fail(ExitCommandError, "failed to hash fixture", err)
	}
	result := AssembleResult{Dir: dir, Name: res.Structure.Info.Name, ContentHash: hash, Path: opts.Output, Warnings: warnings}

	if opts.Import {
		name := opts.Name
		if name == "" {
			name = res.Structure.Info.Dirname
		}
		if name == "" {
			name = defaultName(dir)
		}
		saved, err := saveFixture(cmd.Context(), opts.RootOptions, name, e)
		if err != nil {
			return formatter.Fail(ExitCommandError, "failed to store fixture", err)
		}
		result.StoreID = saved.ID
	}

	if opts.Output == "" && !opts.Import {
		if _, err := writeFixture(formatter, "", e, format); err != nil {
			return formatter.Fail(ExitCommandError, "failed to write fixture", err)
		}
		return nil
	}
	if opts.Output != "" {
		if _, err := writeFixture(formatter, opts.Output, e, format); err != nil {
			return formatter.Fail(ExitCommandError, "failed to write fixture", err)
		}
	}

	return formatter.Render(result, func(w io.Writer) {
		fmt.Fprintf(w, "✓ Assembled %s: %d contest(s), %d collection(s), %d ballot(s)\n",
			dir, len(e.Tallies), len(e.Ballots), e.TotalBallots())
		if result.Path != "" {
			fmt.Fprintf(w, "  fixture %s\n", result.Path)
		}
		if result.StoreID != "" {
			fmt.Fprintf(w, "  stored as %s\n", result.StoreID)
		}
		printIssues(w, warnings)
	})
}
