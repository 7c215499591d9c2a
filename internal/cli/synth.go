package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/roach88/ballotfix/internal/election"
	"github.com/roach88/ballotfix/internal/structure"
	"github.com/roach88/ballotfix/internal/synth"
)

// SynthOptions holds flags for the synth command.
type SynthOptions struct {
	*RootOptions
	Params       synth.Params
	OutputFormat string
	Output       string
	Dir          string
	Import       bool
	Name         string
}

// SynthResult reports a generated fixture.
type SynthResult struct {
	Params      synth.Params `json:"params"`
	ContentHash string       `json:"content_hash"`
	Wrong       []string     `json:"wrong"`
	Path        string       `json:"path,omitempty"`
	Dir         string       `json:"dir,omitempty"`
	StoreID     string       `json:"store_id,omitempty"`
}

// NewSynthCommand creates the synth command.
func NewSynthCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SynthOptions{RootOptions: rootOpts, Params: synth.DefaultParams()}
	p := &opts.Params

	cmd := &cobra.Command{
		Use:   "synth",
		Short: "Generate a seeded synthetic fixture",
		Long: `Generate a synthetic election: contests with geometrically spread
selection counts, collections with geometrically spread ballot counts,
and votes for every ballot drawn with a geometric preference (--dropoff).
--wrong contests report an outcome other than their plurality leader.

The same flags and --seed always produce the same fixture. Without -o,
--dir or --import the fixture is written to stdout.

Examples:
  ballotfix synth --contests 5 --wrong 1 --seed 7
  ballotfix synth --collections 4 --nocvr 2 --dir ./elections/syn1`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSynth(opts, cmd)
		},
	}

	f := cmd.Flags()
	f.IntVar(&p.Contests, "contests", p.Contests, "number of contests")
	f.IntVar(&p.WrongContests, "wrong", p.WrongContests, "number of contests with a wrong reported outcome")
	f.IntVar(&p.MinSelections, "min-selections", p.MinSelections, "minimum selections per contest")
	f.IntVar(&p.MaxSelections, "max-selections", p.MaxSelections, "maximum selections per contest")
	f.IntVar(&p.Collections, "collections", p.Collections, "number of collections")
	f.IntVar(&p.NoCVRCollections, "nocvr", p.NoCVRCollections, "number of collections written as tallies with --dir")
	f.Int64Var(&p.MinBallots, "min-ballots", p.MinBallots, "minimum ballots per collection")
	f.Int64Var(&p.MaxBallots, "max-ballots", p.MaxBallots, "maximum ballots per collection")
	f.IntVar(&p.MinCollectionsPerContest, "min-collections-per-contest", p.MinCollectionsPerContest, "minimum collections per contest")
	f.IntVar(&p.MaxCollectionsPerContest, "max-collections-per-contest", p.MaxCollectionsPerContest, "maximum collections per contest")
	f.Float64Var(&p.Dropoff, "dropoff", p.Dropoff, "preference ratio between consecutive selections")
	f.Uint64Var(&p.Seed, "seed", p.Seed, "random seed")

	f.StringVar(&opts.OutputFormat, "to", "", "output format (json|yaml|cue|canonical)")
	f.StringVarP(&opts.Output, "output", "o", "", "output file")
	f.StringVar(&opts.Dir, "dir", "", "also write an election directory")
	f.BoolVar(&opts.Import, "import", false, "save the fixture in the fixture store")
	f.StringVar(&opts.Name, "name", "", "fixture name for --import (default: synth-<seed>)")

	return cmd
}

func runSynth(opts *SynthOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	log := opts.logger()

	format, err := parseFormatFlag(formatter, opts.OutputFormat)
	if err != nil {
		return err
	}

	syn, err := synth.Generate(opts.Params)
	if err != nil {
		_ = formatter.Error(ErrCodeInvalidArgs, err.Error(), nil)
		return WrapExitError(ExitCommandError, ErrCodeInvalidArgs+": invalid synth parameters", err)
	}
	e := syn.Election
	if len(syn.Wrong) > 0 {
		e.AddComment(election.KeyReported, "Wrong reported outcomes: "+strings.Join(syn.Wrong, ", "))
	}
	log.Info("generated synthetic election",
		zap.Uint64("seed", opts.Params.Seed),
		zap.Int("contests", len(e.Tallies)),
		zap.Strings("wrong", syn.Wrong))

	hash, err := e.ContentHash()
	if err != nil {
		return formatter.Fail(ExitCommandError, "failed to hash fixture", err)
	}
	result := SynthResult{Params: opts.Params, ContentHash: hash, Wrong: syn.Wrong, Path: opts.Output, Dir: opts.Dir}

	if opts.Dir != "" {
		info := structure.Info{Name: fmt.Sprintf("Synthetic election %d", opts.Params.Seed), Dirname: opts.Dir}
		if err := structure.WriteDir(opts.Dir, e, structure.WriteOptions{Info: info, NoCVR: syn.NoCVR}); err != nil {
			return formatter.Fail(ExitCommandError, "failed to write election directory", err)
		}
		formatter.VerboseLog("Wrote election directory %s", opts.Dir)
	}
	if opts.Import {
		name := opts.Name
		if name == "" {
			name = fmt.Sprintf("synth-%d", opts.Params.Seed)
		}
		saved, err := saveFixture(cmd.Context(), opts.RootOptions, name, e)
		if err != nil {
			return formatter.Fail(ExitCommandError, "failed to store fixture", err)
		}
		result.StoreID = saved.ID
	}

	if opts.Output == "" && opts.Dir == "" && !opts.Import {
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
		fmt.Fprintf(w, "✓ Generated %d contest(s), %d collection(s), seed %d\n", len(e.Tallies), len(e.Ballots), opts.Params.Seed)
		if len(syn.Wrong) > 0 {
			fmt.Fprintf(w, "  wrong reported outcomes: %s\n", strings.Join(syn.Wrong, ", "))
		}
		for _, line := range []struct{ label, value string }{
			{"fixture", result.Path}, {"directory", result.Dir}, {"stored as", result.StoreID},
		} {
			if line.value != "" {
				fmt.Fprintf(w, "  %s %s\n", line.label, line.value)
			}
		}
	})
}
