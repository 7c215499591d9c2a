package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ballotfix/internal/testutil"
	"github.com/roach88/ballotfix/internal/validate"
)

func TestRunWithGolden_Ex1Reported(t *testing.T) {
	scenario, err := LoadScenario(testutil.RepoPath("testdata", "scenarios", "ex1_reported.yaml"))
	require.NoError(t, err)

	result, err := RunWithGolden(t, scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, result.Errors)
}

func TestRunWithGolden_Ex1Overcount(t *testing.T) {
	scenario, err := LoadScenario(testutil.RepoPath("testdata", "scenarios", "ex1_overcount.yaml"))
	require.NoError(t, err)

	result, err := RunWithGolden(t, scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, result.Errors)
}

func TestSnapshot_Deterministic(t *testing.T) {
	scenario := ex1Scenario("det", Assertion{Type: AssertValid, Expect: boolPtr(true)})

	first, err := Run(scenario)
	require.NoError(t, err)
	second, err := Run(scenario)
	require.NoError(t, err)

	s1 := NewSnapshot("det", first)
	s2 := NewSnapshot("det", second)
	b1, err := s1.MarshalCanonical()
	require.NoError(t, err)
	b2, err := s2.MarshalCanonical()
	require.NoError(t, err)
	assert.Equal(t, string(b1), string(b2))
}

func TestSnapshot_OmitsIssueMessages(t *testing.T) {
	result := NewResult()
	result.Issues = []validate.Issue{{
		Code:     "E202",
		Field:    "t.I.PBC1",
		Message:  "too many votes",
		Severity: validate.SeverityError,
	}}

	s := NewSnapshot("msgs", result)
	data, err := s.MarshalCanonical()
	require.NoError(t, err)

	assert.NotContains(t, string(data), "too many votes")
	assert.Contains(t, string(data), `{"code":"E202","field":"t.I.PBC1","severity":"error"}`)
	assert.Contains(t, string(data), `"valid":false`)
	assert.Contains(t, string(data), `"mismatches":[]`)
}
