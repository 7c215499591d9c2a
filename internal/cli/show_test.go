package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ballotfix/internal/tally"
	"github.com/roach88/ballotfix/internal/testutil"
)

func TestShowEx1(t *testing.T) {
	testEnv(t)

	out, _, err := execute(t, "show", testutil.Ex1Path())
	require.NoError(t, err)
	assert.Contains(t, out, "Ballots 30000 in 3 collection(s)")
	assert.Contains(t, out, "CONTEST")
	assert.Regexp(t, `F23\s+PBC2,PBC3\s+20000\s+1\s+10500\s+0\s+mismatch`, out)
	assert.Regexp(t, `I\s+PBC1,PBC2,PBC3\s+30000\s+1\s+15150\s+1\s+confirmed`, out)
	assert.Regexp(t, `PBC1\s+10000\s+10000\s+C1,I`, out)
}

func TestShowEx1JSON(t *testing.T) {
	testEnv(t)

	out, _, err := execute(t, "--format", "json", "show", testutil.Ex1Path())
	require.NoError(t, err)

	var result ShowResult
	resp := decodeResponse(t, out, &result)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, int64(30000), result.Summary.TotalBallots)
	assert.Equal(t, []string{"F23"}, result.Summary.Mismatches)
	assert.Len(t, result.Summary.Contests, 5)
}

func TestShowContest(t *testing.T) {
	testEnv(t)

	out, _, err := execute(t, "--format", "json", "show", "--contest", "I", testutil.Ex1Path())
	require.NoError(t, err)

	var contest tally.ContestSummary
	decodeResponse(t, out, &contest)
	assert.Equal(t, map[string]int64{"0": 14850, "1": 15150}, contest.Totals)
	assert.Equal(t, tally.StatusConfirmed, contest.Status)

	out, _, err = execute(t, "show", "--contest", "F23", testutil.Ex1Path())
	require.NoError(t, err)
	assert.Contains(t, out, "Contest F23: mismatch")
	assert.Regexp(t, `0\s+9500  \(reported\)`, out)
}

func TestShowUnknownContest(t *testing.T) {
	testEnv(t)

	out, _, err := execute(t, "show", "--contest", "Z9", testutil.Ex1Path())
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E002]")
}

func TestCheckReportsMismatch(t *testing.T) {
	testEnv(t)

	out, _, err := execute(t, "check", testutil.Ex1Path())
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "1 reported outcome(s) disagree with tallies")
	assert.Contains(t, out, "E009 F23: reported 0, tallies lead with 1 (10500 votes)")
}

func TestCheckJSON(t *testing.T) {
	testEnv(t)

	out, _, err := execute(t, "--format", "json", "check", testutil.Ex1Path())
	require.Error(t, err)

	var result CheckResult
	resp := decodeResponse(t, out, &result)
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, ErrCodeMismatch, resp.Error.Code)
	assert.True(t, result.Valid)
	require.Len(t, result.Mismatches, 1)
	assert.Equal(t, "F23", result.Mismatches[0].ContestID)
}

func TestCheckCorrectOutcomes(t *testing.T) {
	testEnv(t)
	e := testutil.Ex1()
	e.Reported["F23"] = "1"
	path := writeFixtureFile(t, "fixed.json", e)

	out, _, err := execute(t, "check", path)
	require.NoError(t, err)
	assert.Contains(t, out, "every reported outcome leads its tallies")
}

func TestCheckInvalidFixture(t *testing.T) {
	testEnv(t)
	e := testutil.Ex1()
	e.Ballots["PBC1"] = 10
	path := writeFixtureFile(t, "over.json", e)

	out, _, err := execute(t, "check", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "E202")
	assert.Contains(t, out, "validation failed")
}
