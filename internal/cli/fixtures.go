package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/ballotfix/internal/election"
	"github.com/roach88/ballotfix/internal/fixture"
	"github.com/roach88/ballotfix/internal/store"
	"github.com/roach88/ballotfix/internal/validate"
)

// ImportOptions holds flags for the import command.
type ImportOptions struct {
	*RootOptions
	InputFormat string
	Name        string
	Force       bool
}

// ImportResult reports a stored fixture.
type ImportResult struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	ContentHash string           `json:"content_hash"`
	Inserted    bool             `json:"inserted"`
	Warnings    []validate.Issue `json:"warnings,omitempty"`
}

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	*RootOptions
	OutputFormat string
	Output       string
}

// ListResult is the output of the list command.
type ListResult struct {
	Fixtures []store.FixtureRecord `json:"fixtures"`
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ImportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Store a fixture file",
		Long: `Validate a fixture file and save it in the fixture store.

Saving is idempotent: a fixture whose n, t and ro match a stored fixture
resolves to the existing record. Invalid fixtures are refused unless
--force is given.

Examples:
  ballotfix import testdata/ex1/data.js
  ballotfix import wrong.yaml --name wrong-f23 --force`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.InputFormat, "from", "", "input format (json|yaml|cue)")
	cmd.Flags().StringVar(&opts.Name, "name", "", "fixture name (default: derived from the file name)")
	cmd.Flags().BoolVar(&opts.Force, "force", false, "store the fixture even if it has validation errors")

	return cmd
}

func runImport(opts *ImportOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	format, err := parseFormatFlag(formatter, opts.InputFormat)
	if err != nil {
		return err
	}
	e, err := fixture.Load(path, format)
	if err != nil {
		return formatter.Fail(ExitCommandError, "failed to load fixture", err)
	}

	errs, warnings := validate.Split(validate.Validate(e))
	if len(errs) > 0 && !opts.Force {
		hash, _ := e.ContentHash()
		return outputValidationErrors(formatter, ValidationResult{
			Source:   Source{Path: path, ContentHash: hash},
			Errors:   errs,
			Warnings: warnings,
		})
	}

	name := opts.Name
	if name == "" {
		name = defaultName(path)
	}
	result, err := saveFixture(cmd.Context(), opts.RootOptions, name, e)
	if err != nil {
		return formatter.Fail(ExitCommandError, "failed to store fixture", err)
	}
	result.Warnings = warnings

	return formatter.Render(result, func(w io.Writer) {
		if result.Inserted {
			fmt.Fprintf(w, "✓ Stored %s as %s\n", name, result.ID)
		} else {
			fmt.Fprintf(w, "✓ Already stored as %s\n", result.ID)
		}
		printIssues(w, warnings)
	})
}

// saveFixture stores e under name, opening and closing the store.
func saveFixture(ctx context.Context, opts *RootOptions, name string, e *election.Election) (ImportResult, error) {
	st, err := openStore(opts)
	if err != nil {
		return ImportResult{}, err
	}
	defer st.Close()

	id, inserted, err := st.SaveFixture(ctx, name, e)
	if err != nil {
		return ImportResult{}, err
	}
	record, err := st.GetRecord(ctx, id)
	if err != nil {
		return ImportResult{}, err
	}
	return ImportResult{ID: id, Name: record.Name, ContentHash: record.ContentHash, Inserted: inserted}, nil
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export <ref>",
		Short: "Write a stored fixture",
		Long: `Write a stored fixture, with its comments, to stdout or a file.

<ref> is a fixture id, a unique id or content hash prefix of at least four
characters, or a fixture name (the most recent save wins).`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.OutputFormat, "to", "", "output format (json|yaml|cue|canonical)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file")

	return cmd
}

func runExport(opts *ExportOptions, ref string, cmd *cobra.Command) error {
	ctx := cmd.Context()
	formatter := opts.formatter(cmd)

	format, err := parseFormatFlag(formatter, opts.OutputFormat)
	if err != nil {
		return err
	}

	st, err := openExistingStore(opts.RootOptions)
	if err != nil {
		return formatter.Fail(ExitCommandError, "failed to open fixture store", err)
	}
	defer st.Close()

	id, err := st.Resolve(ctx, ref)
	if err != nil {
		return formatter.Fail(ExitCommandError, "failed to resolve fixture", err)
	}
	e, record, err := st.LoadFixture(ctx, id)
	if err != nil {
		return formatter.Fail(ExitCommandError, "failed to load stored fixture", err)
	}

	format, err = writeFixture(formatter, opts.Output, e, format)
	if err != nil {
		return formatter.Fail(ExitCommandError, "failed to write fixture", err)
	}
	if opts.Output == "" {
		return nil
	}
	formatter.VerboseLog("Exported %s to %s", record.ID, opts.Output)

	result := FmtResult{Path: opts.Output, Format: format, ContentHash: record.ContentHash}
	return formatter.Render(result, func(w io.Writer) {
		fmt.Fprintf(w, "✓ Exported %s to %s\n", record.Name, opts.Output)
	})
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "list",
		Short:         "List stored fixtures in save order",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(rootOpts, cmd)
		},
	}

	return cmd
}

func runList(opts *RootOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	records := []store.FixtureRecord{}
	if storeExists(opts) {
		st, err := openStore(opts)
		if err != nil {
			return formatter.Fail(ExitCommandError, "failed to open fixture store", err)
		}
		defer st.Close()

		records, err = st.ListFixtures(cmd.Context())
		if err != nil {
			return formatter.Fail(ExitCommandError, "failed to list fixtures", err)
		}
	}

	return formatter.Render(ListResult{Fixtures: records}, func(w io.Writer) {
		if len(records) == 0 {
			fmt.Fprintln(w, "No fixtures stored")
			return
		}
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "SEQ\tID\tNAME\tHASH\tCOLLECTIONS\tCONTESTS")
		for _, r := range records {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%d\n", r.Seq, shortID(r.ID), r.Name, shortID(r.ContentHash), r.Collections, r.Contests)
		}
		tw.Flush()
	})
}

// NewRmCommand creates the rm command.
func NewRmCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "rm <ref>",
		Short:         "Delete a stored fixture",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRm(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runRm(opts *RootOptions, ref string, cmd *cobra.Command) error {
	ctx := cmd.Context()
	formatter := opts.formatter(cmd)

	st, err := openExistingStore(opts)
	if err != nil {
		return formatter.Fail(ExitCommandError, "failed to open fixture store", err)
	}
	defer st.Close()

	id, err := st.Resolve(ctx, ref)
	if err != nil {
		return formatter.Fail(ExitCommandError, "failed to resolve fixture", err)
	}
	if err := st.DeleteFixture(ctx, id); err != nil {
		return formatter.Fail(ExitCommandError, "failed to delete fixture", err)
	}

	return formatter.Render(map[string]string{"id": id}, func(w io.Writer) {
		fmt.Fprintf(w, "✓ Removed %s\n", id)
	})
}
