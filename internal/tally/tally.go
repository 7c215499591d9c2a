// Package tally summarizes the reported tallies of an election fixture.
//
// Summaries are arithmetic over the counts already in the fixture: per-vote
// totals, the plurality leaders, and whether the reported outcome agrees
// with them. Error vote values ("-Invalid", "-noCVR", ...) are counted in
// totals but never lead a contest.
package tally

import (
	"github.com/roach88/ballotfix/internal/election"
)

// Status describes how a reported outcome relates to the tallies.
type Status string

const (
	// StatusConfirmed means the reported vote is the unique leader.
	StatusConfirmed Status = "confirmed"
	// StatusMismatch means the reported vote does not lead.
	StatusMismatch Status = "mismatch"
	// StatusTie means the reported vote is one of several tied leaders.
	StatusTie Status = "tie"
	// StatusUnreported means the contest has no reported outcome.
	StatusUnreported Status = "unreported"
)

// ContestSummary is the outcome summary of one contest.
type ContestSummary struct {
	ContestID   string           `json:"cid"`
	Collections []string         `json:"collections"`
	Totals      map[string]int64 `json:"totals"`
	Cast        int64            `json:"cast"`
	Leaders     []string         `json:"leaders"`
	LeaderVotes int64            `json:"leader_votes"`
	Reported    string           `json:"reported,omitempty"`
	Status      Status           `json:"status"`
}

// CollectionSummary is the summary of one paper ballot collection.
type CollectionSummary struct {
	CollectionID string   `json:"pbcid"`
	Ballots      int64    `json:"ballots"`
	Contests     []string `json:"contests"`
	// MaxCast is the largest tally sum of any contest in the collection.
	MaxCast int64 `json:"max_cast"`
}

// Summary is the election-wide summary.
type Summary struct {
	TotalBallots int64               `json:"total_ballots"`
	Contests     []ContestSummary    `json:"contests"`
	Collections  []CollectionSummary `json:"collections"`
	// Mismatches lists, in canonical order, contests whose status is mismatch.
	Mismatches []string `json:"mismatches"`
}

// Summarize computes the summary of every contest and collection in e.
func Summarize(e *election.Election) *Summary {
	s := &Summary{
		TotalBallots: e.TotalBallots(),
		Contests:     []ContestSummary{},
		Collections:  []CollectionSummary{},
		Mismatches:   []string{},
	}
	for _, cid := range e.ContestIDs() {
		cs := SummarizeContest(e, cid)
		s.Contests = append(s.Contests, cs)
		if cs.Status == StatusMismatch {
			s.Mismatches = append(s.Mismatches, cid)
		}
	}
	for _, pbcid := range e.CollectionIDs() {
		s.Collections = append(s.Collections, SummarizeCollection(e, pbcid))
	}
	return s
}

// SummarizeContest computes the summary of contest cid.
func SummarizeContest(e *election.Election, cid string) ContestSummary {
	totals := e.Totals(cid)
	cs := ContestSummary{
		ContestID:   cid,
		Collections: e.CollectionsFor(cid),
		Totals:      totals,
	}
	if cs.Collections == nil {
		cs.Collections = []string{}
	}
	for _, count := range totals {
		cs.Cast += count
	}
	cs.Leaders, cs.LeaderVotes = Leaders(totals)

	reported, ok := e.Reported[cid]
	cs.Reported = reported
	cs.Status = status(cs.Leaders, reported, ok)
	return cs
}

// SummarizeCollection computes the summary of collection pbcid.
func SummarizeCollection(e *election.Election, pbcid string) CollectionSummary {
	cs := CollectionSummary{
		CollectionID: pbcid,
		Ballots:      e.Ballots[pbcid],
		Contests:     e.ContestsFor(pbcid),
	}
	if cs.Contests == nil {
		cs.Contests = []string{}
	}
	for _, cid := range cs.Contests {
		if cast := e.Cast(cid, pbcid); cast > cs.MaxCast {
			cs.MaxCast = cast
		}
	}
	return cs
}

// Leaders returns the non-error vote values with the largest total, in
// canonical order, and that total. Write-ins are eligible.
func Leaders(totals map[string]int64) ([]string, int64) {
	leaders := []string{}
	var best int64
	for _, vid := range election.SortedKeys(totals) {
		if election.IsErrorVote(vid) {
			continue
		}
		count := totals[vid]
		switch {
		case len(leaders) == 0 || count > best:
			leaders = append(leaders[:0], vid)
			best = count
		case count == best:
			leaders = append(leaders, vid)
		}
	}
	return leaders, best
}

func status(leaders []string, reported string, ok bool) Status {
	if !ok {
		return StatusUnreported
	}
	for _, vid := range leaders {
		if vid != reported {
			continue
		}
		if len(leaders) == 1 {
			return StatusConfirmed
		}
		return StatusTie
	}
	return StatusMismatch
}
