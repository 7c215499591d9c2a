package structure

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ballotfix/internal/election"
	"github.com/roach88/ballotfix/internal/synth"
	"github.com/roach88/ballotfix/internal/testutil"
)

func TestWriteDir_RoundTripEx1(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "ex1")
	want := testutil.Ex1()
	info := Info{Name: "Example 1", Date: "2017-07-01"}

	require.NoError(t, WriteDir(dir, want, WriteOptions{Info: info, NoCVR: []string{"PBC2"}}))

	result, err := Assemble(dir)
	require.NoError(t, err)
	assert.Equal(t, election.MustContentHash(want), election.MustContentHash(result.Election))
	assert.Equal(t, info.Name, result.Structure.Info.Name)

	got, ok := result.Structure.Collection("PBC2")
	require.True(t, ok)
	assert.Equal(t, CVRTypeNoCVR, got.CVRType)
	assert.Equal(t, []string{"C2", "F23", "I"}, got.Contests)
}

func TestWriteDir_RoundTripSynthetic(t *testing.T) {
	for seed := uint64(1); seed <= 5; seed++ {
		p := synth.DefaultParams()
		p.Contests = 4
		p.WrongContests = 1
		p.Collections = 3
		p.NoCVRCollections = 1
		p.MaxCollectionsPerContest = 3
		p.Seed = seed

		syn, err := synth.Generate(p)
		require.NoError(t, err)

		dir := filepath.Join(t.TempDir(), "syn")
		require.NoError(t, WriteDir(dir, syn.Election, WriteOptions{NoCVR: syn.NoCVR}))

		result, err := Assemble(dir)
		require.NoError(t, err, "seed %d", seed)
		assert.Equal(t, election.MustContentHash(syn.Election), election.MustContentHash(result.Election), "seed %d", seed)
	}
}

func TestWriteDir_WriteInsAndErrorValues(t *testing.T) {
	e := election.New()
	e.Ballots["P"] = 10
	e.SetTally("C", "P", "Ann", 4)
	e.SetTally("C", "P", "+Zed", 2)
	e.SetTally("C", "P", election.VoteUndervote, 1)
	e.SetTally("C", "P", election.VoteOvervote, 1)
	e.Reported["C"] = "Ann"

	dir := filepath.Join(t.TempDir(), "wi")
	require.NoError(t, WriteDir(dir, e, WriteOptions{}))

	result, err := Assemble(dir)
	require.NoError(t, err)
	assert.Equal(t, e.Tallies, result.Election.Tallies)

	contest, ok := result.Structure.Contest("C")
	require.True(t, ok)
	assert.Equal(t, []string{"Ann"}, contest.Selections)
	assert.Equal(t, "Qualified", contest.WriteIns)
}
