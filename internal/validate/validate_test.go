package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ballotfix/internal/election"
	"github.com/roach88/ballotfix/internal/testutil"
)

func codes(issues []Issue) []string {
	out := make([]string, len(issues))
	for i, issue := range issues {
		out[i] = issue.Code
	}
	return out
}

func findIssue(issues []Issue, code string) (Issue, bool) {
	for _, issue := range issues {
		if issue.Code == code {
			return issue, true
		}
	}
	return Issue{}, false
}

func TestValidate_Ex1IsClean(t *testing.T) {
	issues := Validate(testutil.Ex1())
	assert.Empty(t, issues)
	assert.False(t, HasErrors(issues))
}

func TestValidate_ReportedMismatchIsNotAnIssue(t *testing.T) {
	// F23 reports "0" against a tally lead for "1". That is legal input.
	e := testutil.Ex1()
	require.Equal(t, "0", e.Reported["F23"])
	assert.Empty(t, Validate(e))
}

func TestValidate_EmptyElection(t *testing.T) {
	issues := Validate(election.New())
	assert.Equal(t, []string{ErrEmptyElection, ErrEmptyElection}, codes(issues))
	assert.Equal(t, "n", issues[0].Field)
	assert.Equal(t, "t", issues[1].Field)
	assert.True(t, HasErrors(issues))
}

func TestValidate_Codes(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(e *election.Election)
		code     string
		field    string
		severity Severity
	}{
		{
			name:     "unknown collection",
			mutate:   func(e *election.Election) { e.SetTally("C1", "PBC9", "1", 10) },
			code:     ErrUnknownCollection,
			field:    "t.C1.PBC9",
			severity: SeverityError,
		},
		{
			name:     "tally exceeds ballots",
			mutate:   func(e *election.Election) { e.SetTally("C1", "PBC1", "1", 9000) },
			code:     ErrTallyExceedsBallots,
			field:    "t.C1.PBC1",
			severity: SeverityError,
		},
		{
			name:     "negative ballot count",
			mutate:   func(e *election.Election) { e.Ballots["PBC1"] = -1 },
			code:     ErrNegativeCount,
			field:    "n.PBC1",
			severity: SeverityError,
		},
		{
			name:     "negative tally",
			mutate:   func(e *election.Election) { e.SetTally("C2", "PBC2", "0", -4) },
			code:     ErrNegativeCount,
			field:    "t.C2.PBC2.0",
			severity: SeverityError,
		},
		{
			name:     "missing outcome",
			mutate:   func(e *election.Election) { delete(e.Reported, "C3") },
			code:     ErrMissingOutcome,
			field:    "ro.C3",
			severity: SeverityError,
		},
		{
			name:     "outcome not tallied",
			mutate:   func(e *election.Election) { e.Reported["C1"] = "Alice" },
			code:     ErrOutcomeNotTallied,
			field:    "ro.C1",
			severity: SeverityError,
		},
		{
			name:     "outcome for unknown contest",
			mutate:   func(e *election.Election) { e.Reported["X9"] = "1" },
			code:     ErrOutcomeUnknownContest,
			field:    "ro.X9",
			severity: SeverityError,
		},
		{
			name:     "invalid vote id",
			mutate:   func(e *election.Election) { e.SetTally("C1", "PBC1", "bad\tid", 0) },
			code:     ErrInvalidID,
			field:    "t.C1.PBC1.bad\tid",
			severity: SeverityError,
		},
		{
			name:     "whitespace in id",
			mutate:   func(e *election.Election) { e.SetTally("C1", "PBC1", "Jane Doe", 0) },
			code:     WarnIDWhitespace,
			field:    "t.C1.PBC1.Jane Doe",
			severity: SeverityWarning,
		},
		{
			name:     "decomposed vote id",
			mutate:   func(e *election.Election) { e.SetTally("C1", "PBC1", "Jose\u0301", 0) },
			code:     WarnIDNotNFC,
			field:    "t.C1.PBC1.Jose\u0301",
			severity: SeverityWarning,
		},
		{
			name: "contest without collections",
			mutate: func(e *election.Election) {
				e.Tallies["Z"] = map[string]map[string]int64{}
				e.Reported["Z"] = "1"
			},
			code:     WarnContestNoCollections,
			field:    "t.Z",
			severity: SeverityWarning,
		},
		{
			name:     "unused collection",
			mutate:   func(e *election.Election) { e.Ballots["PBC4"] = 50 },
			code:     WarnUnusedCollection,
			field:    "n.PBC4",
			severity: SeverityWarning,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := testutil.Ex1()
			tt.mutate(e)

			issues := Validate(e)
			issue, ok := findIssue(issues, tt.code)
			require.True(t, ok, "expected %s in %v", tt.code, issues)
			assert.Equal(t, tt.field, issue.Field)
			assert.Equal(t, tt.severity, issue.Severity)
			assert.NotEmpty(t, issue.Message)
		})
	}
}

func TestValidate_WarningsOnlyIsValid(t *testing.T) {
	e := testutil.Ex1()
	e.Ballots["PBC4"] = 50

	issues := Validate(e)
	require.Len(t, issues, 1)
	assert.False(t, HasErrors(issues))

	errs, warnings := Split(issues)
	assert.Empty(t, errs)
	assert.Len(t, warnings, 1)
}

func TestValidate_ReportsEverythingInOrder(t *testing.T) {
	e := testutil.Ex1()
	e.Ballots["PBC4"] = 50
	e.SetTally("C2", "PBC2", "0", -4)
	e.SetTally("C1", "PBC9", "1", 10)
	e.Reported["X9"] = "1"

	issues := Validate(e)
	assert.Equal(t, []string{
		WarnUnusedCollection,
		ErrUnknownCollection,
		ErrNegativeCount,
		ErrOutcomeUnknownContest,
	}, codes(issues))
}

func TestValidate_DeterministicAcrossRuns(t *testing.T) {
	e := testutil.Ex1()
	e.SetTally("C1", "PBC9", "1", 10)
	e.SetTally("C2", "PBC8", "1", 10)
	e.Ballots["PBC4"] = 1

	first := Validate(e)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, Validate(e))
	}
}

func TestValidate_VoteIDCheckedOncePerContest(t *testing.T) {
	e := testutil.Ex1()
	e.SetTally("I", "PBC1", "Jane Doe", 0)
	e.SetTally("I", "PBC2", "Jane Doe", 0)

	issues := Validate(e)
	assert.Equal(t, []string{WarnIDWhitespace}, codes(issues))
}

func TestValidate_ErrorVotesAllowed(t *testing.T) {
	e := testutil.Ex1()
	e.SetTally("C1", "PBC1", election.VoteUndervote, 0)
	e.SetTally("C1", "PBC1", "+Write In", 0)

	issues := Validate(e)
	assert.Equal(t, []string{WarnIDWhitespace}, codes(issues))
}

func TestIssue_Error(t *testing.T) {
	issue := Issue{Field: "n.PBC1", Message: "ballot count -1 is negative", Code: ErrNegativeCount}
	assert.Equal(t, "[E203] n.PBC1: ballot count -1 is negative", issue.Error())
}
