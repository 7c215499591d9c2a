package election

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ex1 mirrors testdata/ex1/data.js.
func ex1() *Election {
	e := New()
	for _, pbcid := range []string{"PBC1", "PBC2", "PBC3"} {
		e.Ballots[pbcid] = 10000
		e.SetTally("I", pbcid, "1", 5050)
		e.SetTally("I", pbcid, "0", 4950)
	}
	e.SetTally("C1", "PBC1", "1", 6500)
	e.SetTally("C1", "PBC1", "0", 3500)
	e.SetTally("C2", "PBC2", "1", 6000)
	e.SetTally("C2", "PBC2", "0", 4000)
	e.SetTally("C3", "PBC3", "1", 5500)
	e.SetTally("C3", "PBC3", "0", 4500)
	e.SetTally("F23", "PBC2", "1", 5250)
	e.SetTally("F23", "PBC2", "0", 4750)
	e.SetTally("F23", "PBC3", "1", 5250)
	e.SetTally("F23", "PBC3", "0", 4750)
	e.Reported = map[string]string{"I": "1", "C1": "1", "C2": "1", "C3": "1", "F23": "0"}
	return e
}

func TestContestIDs_CanonicalOrder(t *testing.T) {
	e := ex1()
	assert.Equal(t, []string{"C1", "C2", "C3", "F23", "I"}, e.ContestIDs())
}

func TestContestIDs_IncludesReportedOnly(t *testing.T) {
	e := ex1()
	e.Reported["Z9"] = "1"
	assert.Contains(t, e.ContestIDs(), "Z9")
}

func TestCollectionIDs_IncludesTallyOnly(t *testing.T) {
	e := ex1()
	e.SetTally("C1", "PBC9", "1", 1)
	assert.Equal(t, []string{"PBC1", "PBC2", "PBC3", "PBC9"}, e.CollectionIDs())
}

func TestCollectionsAndContestsFor(t *testing.T) {
	e := ex1()
	assert.Equal(t, []string{"PBC2", "PBC3"}, e.CollectionsFor("F23"))
	assert.Equal(t, []string{"C2", "F23", "I"}, e.ContestsFor("PBC2"))
	assert.Empty(t, e.CollectionsFor("nope"))
}

func TestTotals_ContestI(t *testing.T) {
	e := ex1()
	totals := e.Totals("I")
	assert.Equal(t, int64(15150), totals["1"])
	assert.Equal(t, int64(14850), totals["0"])
	assert.Equal(t, int64(30000), totals["1"]+totals["0"])
	assert.Equal(t, e.TotalBallots(), totals["1"]+totals["0"])
}

func TestTotals_ContestF23(t *testing.T) {
	e := ex1()
	totals := e.Totals("F23")
	assert.Equal(t, int64(10500), totals["1"])
	assert.Equal(t, int64(9500), totals["0"])
	assert.Equal(t, "0", e.Reported["F23"])
}

func TestCast(t *testing.T) {
	e := ex1()
	assert.Equal(t, int64(10000), e.Cast("C1", "PBC1"))
	assert.Equal(t, int64(0), e.Cast("C1", "PBC2"))
}

func TestVotesFor(t *testing.T) {
	e := ex1()
	e.SetTally("I", "PBC1", "+Write In", 3)
	assert.Equal(t, []string{"+Write In", "0", "1"}, e.VotesFor("I"))
}

func TestAddTally(t *testing.T) {
	e := New()
	e.AddTally("c", "p", "v", 2)
	e.AddTally("c", "p", "v", 3)
	assert.Equal(t, int64(5), e.Tallies["c"]["p"]["v"])
}

func TestClone_IsDeep(t *testing.T) {
	e := ex1()
	e.AddComment(KeyBallots, "ballots")
	c := e.Clone()
	require.Equal(t, e, c)

	c.Tallies["I"]["PBC1"]["1"] = 1
	c.Ballots["PBC1"] = 1
	c.Reported["I"] = "0"
	c.Comments[0].Text = "changed"

	assert.Equal(t, int64(5050), e.Tallies["I"]["PBC1"]["1"])
	assert.Equal(t, int64(10000), e.Ballots["PBC1"])
	assert.Equal(t, "1", e.Reported["I"])
	assert.Equal(t, "ballots", e.Comments[0].Text)
}

func TestCommentsBefore(t *testing.T) {
	e := New()
	e.AddComment("", "header")
	e.AddComment(KeyBallots, "first")
	e.AddComment(KeyBallots, "second")
	e.AddComment(KeyReported, "outcomes")

	assert.Equal(t, []string{"first", "second"}, e.CommentsBefore(KeyBallots))
	assert.Equal(t, []string{"header"}, e.CommentsBefore(""))
	assert.Nil(t, e.CommentsBefore(KeyTallies))
}

func TestIDs(t *testing.T) {
	assert.True(t, IsWriteIn("+Tom Cruz"))
	assert.False(t, IsWriteIn("Tom"))
	assert.True(t, IsErrorVote(VoteInvalid))
	assert.True(t, IsErrorVote(VoteOvervote))
	assert.False(t, IsErrorVote("0"))

	assert.True(t, ValidID("DEN-A01"))
	assert.True(t, ValidID("Deb O'Crat"))
	assert.False(t, ValidID(""))
	assert.False(t, ValidID("bad\x00id"))
	assert.False(t, ValidID("tab\tid"))

	assert.True(t, HasSpace("John Smith"))
	assert.False(t, HasSpace("PBC1"))
}
