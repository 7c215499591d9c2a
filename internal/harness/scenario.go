package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/ballotfix/internal/synth"
	"github.com/roach88/ballotfix/internal/tally"
)

// Scenario defines a fixture conformance scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario checks.
	Description string `yaml:"description"`

	// Fixture is the path of the fixture file. Relative paths are resolved
	// against the scenario file's directory by LoadScenario.
	Fixture string `yaml:"fixture,omitempty"`

	// Synth generates the fixture instead of loading one.
	Synth *SynthSpec `yaml:"synth,omitempty"`

	// Setup contains edits applied to the fixture before any check.
	Setup []SetupStep `yaml:"setup,omitempty"`

	// Assertions check the validated, summarized and stored fixture.
	Assertions []Assertion `yaml:"assertions"`
}

// SynthSpec is synth.Params with unspecified fields taken from
// synth.DefaultParams.
type SynthSpec struct {
	synth.Params
}

// UnmarshalYAML decodes the given parameters over the defaults.
func (s *SynthSpec) UnmarshalYAML(node *yaml.Node) error {
	p := synth.DefaultParams()
	if err := node.Decode(&p); err != nil {
		return err
	}
	s.Params = p
	return nil
}

// SetupStep is a single edit of the fixture.
type SetupStep struct {
	// Action is one of the Setup* constants.
	Action     string `yaml:"action"`
	Contest    string `yaml:"contest,omitempty"`
	Collection string `yaml:"collection,omitempty"`
	Vote       string `yaml:"vote,omitempty"`
	Count      *int64 `yaml:"count,omitempty"`
}

// Setup action constants.
const (
	SetupSetBallots     = "set_ballots"
	SetupSetTally       = "set_tally"
	SetupSetReported    = "set_reported"
	SetupRemoveReported = "remove_reported"
	SetupRemoveContest  = "remove_contest"
)

// Assertion validates the scenario result.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Expect is the expected validity (used by valid).
	Expect *bool `yaml:"expect,omitempty"`

	// Code and Field select issues (used by issue, no_issue).
	// Field is matched exactly when given.
	Code  string `yaml:"code,omitempty"`
	Field string `yaml:"field,omitempty"`

	// Count is the expected number of matching issues (used by issue) or
	// mismatched contests (used by mismatches). Nil means "at least one"
	// for issue and is ignored by mismatches.
	Count *int `yaml:"count,omitempty"`

	// Contest names the contest (used by status, leaders, totals,
	// stored_totals).
	Contest string `yaml:"contest,omitempty"`

	// Status is the expected outcome status (used by status).
	Status tally.Status `yaml:"status,omitempty"`

	// Leaders is the expected leader list (used by leaders).
	Leaders []string `yaml:"leaders,omitempty"`

	// Totals are expected per-vote totals (used by totals, stored_totals).
	// This is a subset match - only the given votes are checked.
	Totals map[string]int64 `yaml:"totals,omitempty"`

	// Contests is the expected mismatch list (used by mismatches).
	Contests []string `yaml:"contests,omitempty"`

	// Hash is the expected content hash (used by content_hash).
	Hash string `yaml:"hash,omitempty"`
}

// Assertion type constants.
const (
	AssertValid        = "valid"
	AssertIssue        = "issue"
	AssertNoIssue      = "no_issue"
	AssertStatus       = "status"
	AssertLeaders      = "leaders"
	AssertTotals       = "totals"
	AssertStoredTotals = "stored_totals"
	AssertMismatches   = "mismatches"
	AssertContentHash  = "content_hash"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
// A relative fixture path is resolved against the scenario's directory.
func LoadScenario(path string) (*Scenario, error) {
	// Read file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Parse YAML with strict field validation (catches typos like "assertion:" vs "assertions:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	// Resolve the fixture path BEFORE validation
	if scenario.Fixture != "" && !filepath.IsAbs(scenario.Fixture) {
		scenario.Fixture = filepath.Join(filepath.Dir(path), scenario.Fixture)
	}

	// Validate required fields (now with resolved paths)
	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	switch {
	case s.Fixture == "" && s.Synth == nil:
		return fmt.Errorf("one of fixture or synth is required")
	case s.Fixture != "" && s.Synth != nil:
		return fmt.Errorf("fixture and synth are mutually exclusive")
	case s.Synth != nil:
		if err := s.Synth.Validate(); err != nil {
			return fmt.Errorf("synth: %w", err)
		}
	default:
		if _, err := os.Stat(s.Fixture); os.IsNotExist(err) {
			return fmt.Errorf("fixture file not found: %s", s.Fixture)
		}
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	// Validate setup steps
	for i, step := range s.Setup {
		if err := validateSetupStep(i, step); err != nil {
			return err
		}
	}

	// Validate assertions
	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateSetupStep checks that a step names the fields its action needs.
func validateSetupStep(index int, step SetupStep) error {
	missing := func(field string) error {
		return fmt.Errorf("setup[%d]: %s is required for %s", index, field, step.Action)
	}

	switch step.Action {
	case SetupSetBallots:
		if step.Collection == "" {
			return missing("collection")
		}
		if step.Count == nil {
			return missing("count")
		}
	case SetupSetTally:
		if step.Contest == "" {
			return missing("contest")
		}
		if step.Collection == "" {
			return missing("collection")
		}
		if step.Count == nil {
			return missing("count")
		}
	case SetupSetReported:
		if step.Contest == "" {
			return missing("contest")
		}
	case SetupRemoveReported, SetupRemoveContest:
		if step.Contest == "" {
			return missing("contest")
		}
	case "":
		return fmt.Errorf("setup[%d]: action is required", index)
	default:
		return fmt.Errorf("setup[%d]: unknown setup action %q", index, step.Action)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertValid:
		if a.Expect == nil {
			return fmt.Errorf("assertions[%d]: expect is required for valid", index)
		}
	case AssertIssue, AssertNoIssue:
		if a.Code == "" {
			return fmt.Errorf("assertions[%d]: code is required for %s", index, a.Type)
		}
		if a.Count != nil && *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for %s", index, a.Type)
		}
	case AssertStatus:
		if a.Contest == "" || a.Status == "" {
			return fmt.Errorf("assertions[%d]: contest and status are required for status", index)
		}
	case AssertLeaders:
		if a.Contest == "" {
			return fmt.Errorf("assertions[%d]: contest is required for leaders", index)
		}
	case AssertTotals, AssertStoredTotals:
		if a.Contest == "" {
			return fmt.Errorf("assertions[%d]: contest is required for %s", index, a.Type)
		}
		if len(a.Totals) == 0 {
			return fmt.Errorf("assertions[%d]: totals is required for %s", index, a.Type)
		}
	case AssertMismatches:
		if a.Contests == nil && a.Count == nil {
			return fmt.Errorf("assertions[%d]: contests or count is required for mismatches", index)
		}
	case AssertContentHash:
		if a.Hash == "" {
			return fmt.Errorf("assertions[%d]: hash is required for content_hash", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
