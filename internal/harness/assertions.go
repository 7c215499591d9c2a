package harness

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/roach88/ballotfix/internal/election"
	"github.com/roach88/ballotfix/internal/store"
	"github.com/roach88/ballotfix/internal/tally"
	"github.com/roach88/ballotfix/internal/validate"
)

// AssertionContext provides access to the scenario's store for assertions
// that query it.
type AssertionContext struct {
	Store *store.Store
	Ctx   context.Context
}

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string           // Assertion type for categorization
	Expected string           // Human-readable expected outcome
	Actual   string           // Human-readable actual outcome
	Issues   []validate.Issue // All validation issues for context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Issues) > 0 {
		fmt.Fprintf(&buf, "\nIssues:\n")
		for i, issue := range e.Issues {
			fmt.Fprintf(&buf, "  [%d] %s\n", i+1, issue.Error())
		}
	}

	return buf.String()
}

// EvaluateAssertions checks every assertion against the result and returns
// the failure messages. All assertions are evaluated; none short-circuits.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errors []string
	for i, a := range assertions {
		if err := evaluateAssertion(result, a, actx); err != nil {
			errors = append(errors, fmt.Sprintf("assertion %d (%s): %v", i, a.Type, err))
		}
	}
	return errors
}

func evaluateAssertion(result *Result, a Assertion, actx *AssertionContext) error {
	switch a.Type {
	case AssertValid:
		return assertValid(result, a)
	case AssertIssue:
		return assertIssue(result, a)
	case AssertNoIssue:
		return assertNoIssue(result, a)
	case AssertStatus:
		return assertStatus(result, a)
	case AssertLeaders:
		return assertLeaders(result, a)
	case AssertTotals:
		return assertTotals(result, a)
	case AssertStoredTotals:
		return assertStoredTotals(result, a, actx)
	case AssertMismatches:
		return assertMismatches(result, a)
	case AssertContentHash:
		return assertContentHash(result, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

func assertValid(result *Result, a Assertion) error {
	valid := !validate.HasErrors(result.Issues)
	if valid == *a.Expect {
		return nil
	}
	return &AssertionError{
		Type:     AssertValid,
		Expected: fmt.Sprintf("valid=%t", *a.Expect),
		Actual:   fmt.Sprintf("valid=%t", valid),
		Issues:   result.Issues,
	}
}

// matchingIssues returns the issues with the assertion's code and, when
// given, field.
func matchingIssues(issues []validate.Issue, a Assertion) []validate.Issue {
	var matched []validate.Issue
	for _, issue := range issues {
		if issue.Code != a.Code {
			continue
		}
		if a.Field != "" && issue.Field != a.Field {
			continue
		}
		matched = append(matched, issue)
	}
	return matched
}

func describeIssue(a Assertion) string {
	if a.Field != "" {
		return fmt.Sprintf("%s at %s", a.Code, a.Field)
	}
	return a.Code
}

func assertIssue(result *Result, a Assertion) error {
	matched := matchingIssues(result.Issues, a)
	if a.Count == nil {
		if len(matched) > 0 {
			return nil
		}
		return &AssertionError{
			Type:     AssertIssue,
			Expected: "issue " + describeIssue(a),
			Actual:   "not found",
			Issues:   result.Issues,
		}
	}
	if len(matched) == *a.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertIssue,
		Expected: fmt.Sprintf("%d issues %s", *a.Count, describeIssue(a)),
		Actual:   fmt.Sprintf("%d issues", len(matched)),
		Issues:   result.Issues,
	}
}

func assertNoIssue(result *Result, a Assertion) error {
	matched := matchingIssues(result.Issues, a)
	if len(matched) == 0 {
		return nil
	}
	return &AssertionError{
		Type:     AssertNoIssue,
		Expected: "no issue " + describeIssue(a),
		Actual:   fmt.Sprintf("%d issues", len(matched)),
		Issues:   result.Issues,
	}
}

// contest finds a contest summary by id.
func contest(result *Result, cid string) (tally.ContestSummary, error) {
	if result.Summary != nil {
		for _, c := range result.Summary.Contests {
			if c.ContestID == cid {
				return c, nil
			}
		}
	}
	return tally.ContestSummary{}, fmt.Errorf("contest %q not found in summary", cid)
}

func assertStatus(result *Result, a Assertion) error {
	c, err := contest(result, a.Contest)
	if err != nil {
		return err
	}
	if c.Status == a.Status {
		return nil
	}
	return &AssertionError{
		Type:     AssertStatus,
		Expected: fmt.Sprintf("contest %s status %s", a.Contest, a.Status),
		Actual:   fmt.Sprintf("status %s (reported %q, leaders %v)", c.Status, c.Reported, c.Leaders),
	}
}

func assertLeaders(result *Result, a Assertion) error {
	c, err := contest(result, a.Contest)
	if err != nil {
		return err
	}
	want := a.Leaders
	if want == nil {
		want = []string{}
	}
	got := c.Leaders
	if got == nil {
		got = []string{}
	}
	if reflect.DeepEqual(want, got) {
		return nil
	}
	return &AssertionError{
		Type:     AssertLeaders,
		Expected: fmt.Sprintf("contest %s leaders %v", a.Contest, want),
		Actual:   fmt.Sprintf("leaders %v", got),
	}
}

// compareTotals checks the expected totals against actual as a subset.
func compareTotals(kind, cid string, want, got map[string]int64) error {
	var diffs []string
	for _, vid := range election.SortedKeys(want) {
		actual, ok := got[vid]
		switch {
		case !ok:
			diffs = append(diffs, fmt.Sprintf("%s: missing", vid))
		case actual != want[vid]:
			diffs = append(diffs, fmt.Sprintf("%s: %d", vid, actual))
		}
	}
	if len(diffs) == 0 {
		return nil
	}
	return &AssertionError{
		Type:     kind,
		Expected: fmt.Sprintf("contest %s totals %v", cid, want),
		Actual:   strings.Join(diffs, ", "),
	}
}

func assertTotals(result *Result, a Assertion) error {
	c, err := contest(result, a.Contest)
	if err != nil {
		return err
	}
	return compareTotals(AssertTotals, a.Contest, a.Totals, c.Totals)
}

func assertStoredTotals(result *Result, a Assertion, actx *AssertionContext) error {
	if actx == nil || actx.Store == nil {
		return fmt.Errorf("stored_totals requires a store")
	}
	if result.StoreID == "" {
		return fmt.Errorf("fixture was not stored")
	}
	ctx := actx.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	totals, err := actx.Store.ContestTotals(ctx, result.StoreID, a.Contest)
	if err != nil {
		return err
	}
	return compareTotals(AssertStoredTotals, a.Contest, a.Totals, totals)
}

func assertMismatches(result *Result, a Assertion) error {
	got := []string{}
	if result.Summary != nil && result.Summary.Mismatches != nil {
		got = result.Summary.Mismatches
	}
	if a.Count != nil && len(got) != *a.Count {
		return &AssertionError{
			Type:     AssertMismatches,
			Expected: fmt.Sprintf("%d mismatched contests", *a.Count),
			Actual:   fmt.Sprintf("%d %v", len(got), got),
		}
	}
	if a.Contests != nil && !reflect.DeepEqual(a.Contests, got) {
		return &AssertionError{
			Type:     AssertMismatches,
			Expected: fmt.Sprintf("mismatched contests %v", a.Contests),
			Actual:   fmt.Sprintf("%v", got),
		}
	}
	return nil
}

func assertContentHash(result *Result, a Assertion) error {
	if strings.EqualFold(result.ContentHash, a.Hash) {
		return nil
	}
	return &AssertionError{
		Type:     AssertContentHash,
		Expected: a.Hash,
		Actual:   result.ContentHash,
	}
}
