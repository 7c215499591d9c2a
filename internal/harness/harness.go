package harness

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/roach88/ballotfix/internal/election"
	"github.com/roach88/ballotfix/internal/fixture"
	"github.com/roach88/ballotfix/internal/store"
	"github.com/roach88/ballotfix/internal/synth"
	"github.com/roach88/ballotfix/internal/tally"
	"github.com/roach88/ballotfix/internal/testutil"
	"github.com/roach88/ballotfix/internal/validate"
)

// Harness is the scenario execution engine.
type Harness struct {
	store  *store.Store
	logger *zap.Logger
}

// Option configures a Harness.
type Option func(*Harness)

// WithLogger sets the logger used by the harness and its store.
func WithLogger(logger *zap.Logger) Option {
	return func(h *Harness) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// Run executes a scenario and returns the result.
//
// Each scenario runs against a fresh in-memory store with sequential
// fixture ids, so results are reproducible.
//
// Execution flow:
// 1. Load the fixture file or generate the synthetic election
// 2. Apply setup edits
// 3. Validate and summarize
// 4. Store the fixture
// 5. Evaluate assertions
//
// An error is returned only when the scenario cannot be executed;
// failed assertions are reported in the result.
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	return RunContext(context.Background(), scenario, opts...)
}

// RunContext is Run with a caller-supplied context.
func RunContext(ctx context.Context, scenario *Scenario, opts ...Option) (*Result, error) {
	h := &Harness{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(h)
	}
	h.logger = h.logger.With(zap.String("scenario", scenario.Name))

	st, err := store.Open(":memory:",
		store.WithLogger(h.logger),
		store.WithIDGenerator(testutil.NewSequentialIDGenerator("fixture")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()
	h.store = st

	result := NewResult()

	e, err := h.fixture(scenario, result)
	if err != nil {
		return nil, err
	}

	if err := applySetup(e, scenario.Setup, result); err != nil {
		return nil, fmt.Errorf("failed to execute setup: %w", err)
	}

	result.Issues = validate.Validate(e)
	if result.Issues == nil {
		result.Issues = []validate.Issue{}
	}
	errs, warnings := validate.Split(result.Issues)
	result.AddTrace("validate", fmt.Sprintf("%d errors, %d warnings", len(errs), len(warnings)))
	result.Summary = tally.Summarize(e)

	result.ContentHash, err = e.ContentHash()
	if err != nil {
		return nil, fmt.Errorf("failed to hash fixture: %w", err)
	}

	result.StoreID, _, err = st.SaveFixture(ctx, scenario.Name, e)
	if err != nil {
		return nil, fmt.Errorf("failed to store fixture: %w", err)
	}
	result.AddTrace("store", result.StoreID)

	actx := &AssertionContext{
		Store: st,
		Ctx:   ctx,
	}
	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(errMsg)
	}

	h.logger.Debug("scenario finished",
		zap.Bool("pass", result.Pass),
		zap.Int("errors", len(result.Errors)))

	return result, nil
}

// fixture loads or generates the scenario's election.
func (h *Harness) fixture(scenario *Scenario, result *Result) (*election.Election, error) {
	if scenario.Synth != nil {
		syn, err := synth.Generate(scenario.Synth.Params)
		if err != nil {
			return nil, fmt.Errorf("failed to generate fixture: %w", err)
		}
		detail := fmt.Sprintf("seed %d", scenario.Synth.Seed)
		if len(syn.Wrong) > 0 {
			detail += ", wrong " + strings.Join(syn.Wrong, ",")
		}
		result.AddTrace("synth", detail)
		return syn.Election, nil
	}

	e, err := fixture.Load(scenario.Fixture, "")
	if err != nil {
		return nil, fmt.Errorf("failed to load fixture: %w", err)
	}
	result.AddTrace("load", scenario.Fixture)
	return e, nil
}

// applySetup runs all setup edits in order.
func applySetup(e *election.Election, setup []SetupStep, result *Result) error {
	for i, step := range setup {
		var detail string
		switch step.Action {
		case SetupSetBallots:
			e.Ballots[step.Collection] = *step.Count
			detail = fmt.Sprintf("n.%s = %d", step.Collection, *step.Count)
		case SetupSetTally:
			e.SetTally(step.Contest, step.Collection, step.Vote, *step.Count)
			detail = fmt.Sprintf("t.%s.%s.%s = %d", step.Contest, step.Collection, step.Vote, *step.Count)
		case SetupSetReported:
			e.Reported[step.Contest] = step.Vote
			detail = fmt.Sprintf("ro.%s = %q", step.Contest, step.Vote)
		case SetupRemoveReported:
			if _, ok := e.Reported[step.Contest]; !ok {
				return fmt.Errorf("setup step %d: contest %q has no reported outcome", i, step.Contest)
			}
			delete(e.Reported, step.Contest)
			detail = "delete ro." + step.Contest
		case SetupRemoveContest:
			if _, ok := e.Tallies[step.Contest]; !ok {
				return fmt.Errorf("setup step %d: contest %q has no tallies", i, step.Contest)
			}
			delete(e.Tallies, step.Contest)
			delete(e.Reported, step.Contest)
			detail = "delete t." + step.Contest
		default:
			return fmt.Errorf("setup step %d: unknown action %q", i, step.Action)
		}
		result.AddTrace("setup", detail)
	}
	return nil
}
