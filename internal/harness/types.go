package harness

import (
	"github.com/roach88/ballotfix/internal/tally"
	"github.com/roach88/ballotfix/internal/validate"
)

// TraceEvent records one step of a scenario run.
type TraceEvent struct {
	Step   string `json:"step"` // "load", "synth", "setup", "validate", "store"
	Detail string `json:"detail"`
	Seq    int64  `json:"seq"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall scenario success.
	// True if all assertions hold.
	Pass bool `json:"pass"`

	// Trace lists the steps taken, in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains assertion failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Issues are the validation findings for the edited fixture.
	Issues []validate.Issue `json:"issues"`

	// Summary is the outcome summary of the edited fixture.
	Summary *tally.Summary `json:"summary,omitempty"`

	// ContentHash identifies the edited fixture.
	ContentHash string `json:"content_hash"`

	// StoreID is the fixture's id in the scenario's store.
	StoreID string `json:"store_id,omitempty"`
}

// NewResult creates a new passing result.
// Used as the starting point for scenario execution.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
		Issues: []validate.Issue{},
	}
}

// AddError adds an assertion failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends a step to the trace, numbering it from 1.
func (r *Result) AddTrace(step, detail string) {
	r.Trace = append(r.Trace, TraceEvent{
		Step:   step,
		Detail: detail,
		Seq:    int64(len(r.Trace) + 1),
	})
}
