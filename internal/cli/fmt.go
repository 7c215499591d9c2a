package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/ballotfix/internal/fixture"
)

// FmtOptions holds flags for the fmt command.
type FmtOptions struct {
	*RootOptions
	InputFormat  string
	OutputFormat string
	Output       string
	Write        bool
}

// FmtResult reports a fixture written to a file.
type FmtResult struct {
	Path        string         `json:"path"`
	Format      fixture.Format `json:"format"`
	ContentHash string         `json:"content_hash"`
}

// NewFmtCommand creates the fmt command.
func NewFmtCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &FmtOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "fmt <fixture>",
		Short: "Re-serialize a fixture in a normalized layout or another format",
		Long: `Read a fixture and write it back in the layout of a hand-maintained
fixture: comments before the key they describe, keys n, t, ro, inner keys
in canonical order. --to converts between json, yaml, cue and canonical.

Without -o or -w the fixture is written to stdout.

Examples:
  ballotfix fmt testdata/ex1/data.js
  ballotfix fmt testdata/ex1/data.js --to yaml -o ex1.yaml
  ballotfix fmt ex1.yaml -w`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFmt(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.InputFormat, "from", "", "input format (json|yaml|cue)")
	cmd.Flags().StringVar(&opts.OutputFormat, "to", "", "output format (json|yaml|cue|canonical)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file")
	cmd.Flags().BoolVarP(&opts.Write, "write", "w", false, "rewrite the input file in place")

	return cmd
}

func runFmt(opts *FmtOptions, ref string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	inFormat, err := parseFormatFlag(formatter, opts.InputFormat)
	if err != nil {
		return err
	}
	outFormat, err := parseFormatFlag(formatter, opts.OutputFormat)
	if err != nil {
		return err
	}
	if opts.Write && opts.Output != "" {
		_ = formatter.Error(ErrCodeInvalidArgs, "-w and -o are mutually exclusive", nil)
		return NewExitError(ExitCommandError, ErrCodeInvalidArgs+": -w and -o are mutually exclusive")
	}

	e, source, err := loadElection(cmd.Context(), opts.RootOptions, ref, inFormat)
	if err != nil {
		return formatter.Fail(ExitCommandError, "failed to load fixture", err)
	}

	path := opts.Output
	if opts.Write {
		if source.Path == "" {
			_ = formatter.Error(ErrCodeInvalidArgs, "-w needs a fixture file, not a stored fixture", nil)
			return NewExitError(ExitCommandError, ErrCodeInvalidArgs+": -w needs a fixture file")
		}
		path = source.Path
		if outFormat == "" {
			outFormat = inFormat
		}
	}

	outFormat, err = writeFixture(formatter, path, e, outFormat)
	if err != nil {
		return formatter.Fail(ExitCommandError, "failed to write fixture", err)
	}
	if path == "" {
		return nil
	}
	formatter.VerboseLog("Wrote %s", path)
	opts.logger().Info("formatted fixture")

	result := FmtResult{Path: path, Format: outFormat, ContentHash: source.ContentHash}
	if opts.Format == "json" {
		return formatter.Success(result)
	}
	fmt.Fprintf(formatter.Writer, "✓ Wrote %s\n", path)
	return nil
}
