// Package testutil provides fixtures and deterministic generators shared by
// package tests.
package testutil

import (
	"path/filepath"
	"runtime"

	"github.com/roach88/ballotfix/internal/election"
)

// Ex1 returns the election described by testdata/ex1/data.js, without its
// comments. Contest F23 reports "0" although "1" leads its tallies.
func Ex1() *election.Election {
	e := election.New()
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
	for _, pbcid := range []string{"PBC2", "PBC3"} {
		e.SetTally("F23", pbcid, "1", 5250)
		e.SetTally("F23", pbcid, "0", 4750)
	}
	e.Reported["I"] = "1"
	e.Reported["C1"] = "1"
	e.Reported["C2"] = "1"
	e.Reported["C3"] = "1"
	e.Reported["F23"] = "0"
	return e
}

// RepoPath returns the absolute path of a file relative to the repository root.
func RepoPath(elem ...string) string {
	_, file, _, _ := runtime.Caller(0)
	root := filepath.Join(filepath.Dir(file), "..", "..")
	return filepath.Join(append([]string{root}, elem...)...)
}

// Ex1Path returns the path of testdata/ex1/data.js.
func Ex1Path() string {
	return RepoPath("testdata", "ex1", "data.js")
}
