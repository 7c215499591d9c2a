package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/ballotfix/internal/election"
	"github.com/roach88/ballotfix/internal/validate"
)

// Snapshot captures the observable outcome of a scenario execution.
// It is serialized as canonical JSON for deterministic comparison.
type Snapshot struct {
	ScenarioName string
	ContentHash  string
	StoreID      string
	Valid        bool
	Issues       []validate.Issue
	Statuses     map[string]string
	Mismatches   []string
	Steps        []string
}

// NewSnapshot builds the snapshot of a result.
func NewSnapshot(scenarioName string, result *Result) Snapshot {
	s := Snapshot{
		ScenarioName: scenarioName,
		ContentHash:  result.ContentHash,
		StoreID:      result.StoreID,
		Valid:        !validate.HasErrors(result.Issues),
		Issues:       result.Issues,
		Statuses:     map[string]string{},
		Mismatches:   []string{},
		Steps:        make([]string, 0, len(result.Trace)),
	}
	if result.Summary != nil {
		for _, c := range result.Summary.Contests {
			s.Statuses[c.ContestID] = string(c.Status)
		}
		if result.Summary.Mismatches != nil {
			s.Mismatches = result.Summary.Mismatches
		}
	}
	for _, event := range result.Trace {
		s.Steps = append(s.Steps, event.Step)
	}
	return s
}

// toCanonicalMap converts a Snapshot to a map[string]any for canonical JSON serialization.
// Issue messages are left out so wording changes don't churn golden files.
func (s *Snapshot) toCanonicalMap() map[string]any {
	issues := make([]any, len(s.Issues))
	for i, issue := range s.Issues {
		issues[i] = map[string]any{
			"code":     issue.Code,
			"field":    issue.Field,
			"severity": string(issue.Severity),
		}
	}

	return map[string]any{
		"scenario_name": s.ScenarioName,
		"content_hash":  s.ContentHash,
		"store_id":      s.StoreID,
		"valid":         s.Valid,
		"issues":        issues,
		"statuses":      s.Statuses,
		"mismatches":    s.Mismatches,
		"steps":         s.Steps,
	}
}

// MarshalCanonical returns the canonical JSON form of the snapshot.
func (s *Snapshot) MarshalCanonical() ([]byte, error) {
	return election.MarshalCanonical(s.toCanonicalMap())
}

// RunWithGolden executes a scenario and compares its snapshot against a golden file.
// The golden file is stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the snapshot doesn't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}

	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares the given result's snapshot against a golden file
// without re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	snapshot := NewSnapshot(scenarioName, result)
	data, err := snapshot.MarshalCanonical()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)

	return nil
}
