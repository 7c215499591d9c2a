package structure

import (
	"fmt"
	"strconv"

	"github.com/roach88/ballotfix/internal/election"
	"github.com/roach88/ballotfix/internal/validate"
)

// Manifest is what a ballot manifest says about one collection.
type Manifest struct {
	Ballots int64
	// BallotIDs holds every listed ballot id, or nil when the manifest does
	// not enumerate them.
	BallotIDs map[string]bool
}

// ReadManifest reads the ballot manifest of collection pbcid.
//
// Each row is one ballot unless the file has a "Number of ballots" column,
// in which case rows are summed and a blank cell counts as one. A row with
// Ballot id "C-1" and 3 ballots stands for C-1, C-2 and C-3.
func ReadManifest(path, pbcid string, s *Structure) (Manifest, []validate.Issue, error) {
	table, issues, err := ReadCSV(path, false)
	if err != nil {
		return Manifest{}, nil, err
	}
	issues = append(issues, checkCollectionColumn(table, pbcid, s)...)

	counted := hasColumn(table, "Number of ballots")
	var m Manifest
	if hasColumn(table, "Ballot id") {
		m.BallotIDs = make(map[string]bool, len(table.Rows))
	}
	for _, row := range table.Rows {
		count := int64(1)
		if value := row.Get("Number of ballots"); counted && value != "" {
			count, err = parseCount(value)
			if err != nil {
				issues = append(issues, failure(ErrBadNumber, location(path, row.Line), "Number of ballots: %v", err))
				continue
			}
		}
		m.Ballots += count
		if m.BallotIDs == nil {
			continue
		}
		ids, ok := expandBallotIDs(row.Get("Ballot id"), count)
		if !ok {
			m.BallotIDs = nil
			continue
		}
		for _, id := range ids {
			m.BallotIDs[id] = true
		}
	}
	return m, issues, nil
}

// expandBallotIDs lists the count ballot ids that start at first by
// incrementing its trailing number, keeping any zero padding. ok is false
// when first is empty or has no trailing number to increment.
func expandBallotIDs(first string, count int64) ([]string, bool) {
	if count == 0 {
		return nil, true
	}
	if first == "" {
		return nil, false
	}
	if count == 1 {
		return []string{first}, true
	}
	i := len(first)
	for i > 0 && first[i-1] >= '0' && first[i-1] <= '9' {
		i--
	}
	if i == len(first) {
		return nil, false
	}
	start, err := strconv.ParseInt(first[i:], 10, 64)
	if err != nil {
		return nil, false
	}
	width := len(first) - i
	ids := make([]string, 0, count)
	for k := int64(0); k < count; k++ {
		ids = append(ids, fmt.Sprintf("%s%0*d", first[:i], width, start+k))
	}
	return ids, true
}

// ReadVotes adds the reported votes of collection c, read from path, to the
// tallies of e.
//
// A CVR file has one row per ballot and contest. A noCVR file has one row
// per vote value with its count in the Tally column. In both, the
// Selections cells map to a single vote value: none is "-Undervote", one is
// the selection itself, several is "-Overvote". CVR ballot ids missing from
// the manifest m are reported when m lists its ballot ids.
func ReadVotes(e *election.Election, s *Structure, c Collection, path string, m Manifest) ([]validate.Issue, error) {
	table, issues, err := ReadCSV(path, true)
	if err != nil {
		return nil, err
	}
	issues = append(issues, checkCollectionColumn(table, c.ID, s)...)

	required := []string{"Contest", "Ballot id"}
	if c.CVRType == CVRTypeNoCVR {
		required = []string{"Contest", "Tally"}
	}
	for _, name := range required {
		if !hasColumn(table, name) {
			return nil, fmt.Errorf("%s: missing column %q", path, name)
		}
	}

	relevant := make(map[string]bool, len(c.Contests))
	for _, cid := range c.Contests {
		relevant[cid] = true
	}
	seenBallot := make(map[[2]string]bool)
	unknown := make(map[string]bool)

	for _, row := range table.Rows {
		at := location(path, row.Line)
		cid := row.Get("Contest")
		contest, ok := s.Contest(cid)
		if !ok {
			issues = append(issues, failure(ErrUndeclaredContest, at, "contest %q is not declared", cid))
			continue
		}
		if !relevant[cid] {
			issues = append(issues, failure(ErrIrrelevantContest, at,
				"collection %q does not list contest %q", c.ID, cid))
			continue
		}
		for _, selid := range row.List {
			if !declaredSelection(contest, selid) {
				issues = append(issues, warning(WarnUndeclaredSelection, at,
					"selection %q is not declared for contest %q", selid, cid))
			}
		}

		count := int64(1)
		if c.CVRType == CVRTypeNoCVR {
			count, err = parseCount(row.Get("Tally"))
			if err != nil {
				issues = append(issues, failure(ErrBadNumber, at, "Tally: %v", err))
				continue
			}
		} else {
			key := [2]string{row.Get("Ballot id"), cid}
			if seenBallot[key] {
				issues = append(issues, failure(ErrDuplicateBallot, at,
					"ballot %q already has a vote for contest %q", key[0], cid))
				continue
			}
			seenBallot[key] = true
			if id := key[0]; m.BallotIDs != nil && !m.BallotIDs[id] && !unknown[id] {
				unknown[id] = true
				issues = append(issues, warning(WarnUnknownBallot, at,
					"ballot %q is not in the manifest of collection %q", id, c.ID))
			}
		}

		e.AddTally(cid, c.ID, VoteFor(row.List), count)
	}
	return issues, nil
}

// VoteFor maps the selections marked on one ballot to a vote value.
func VoteFor(selections []string) string {
	distinct := make(map[string]bool, len(selections))
	for _, selid := range selections {
		if selid != "" {
			distinct[selid] = true
		}
	}
	switch len(distinct) {
	case 0:
		return election.VoteUndervote
	case 1:
		for selid := range distinct {
			return selid
		}
	}
	return election.VoteOvervote
}

// ReadOutcomes reads a reported outcomes file. Every contest must name
// exactly one winner.
func ReadOutcomes(path string, s *Structure) (map[string]string, []validate.Issue, error) {
	table, issues, err := ReadCSV(path, true)
	if err != nil {
		return nil, nil, err
	}
	outcomes := make(map[string]string, len(table.Rows))
	for _, row := range table.Rows {
		at := location(path, row.Line)
		cid := row.Get("Contest id")
		contest, ok := s.Contest(cid)
		if !ok {
			issues = append(issues, failure(ErrUndeclaredContest, at, "contest %q is not declared", cid))
			continue
		}
		if len(row.List) != 1 {
			issues = append(issues, failure(ErrOutcomeWinners, at,
				"contest %q lists %d winners, expected 1", cid, len(row.List)))
			continue
		}
		winner := row.List[0]
		if !declaredSelection(contest, winner) {
			issues = append(issues, warning(WarnUndeclaredSelection, at,
				"winner %q is not declared for contest %q", winner, cid))
		}
		outcomes[cid] = winner
	}
	return outcomes, issues, nil
}

// declaredSelection reports whether selid is listed for the contest or is
// a write-in or error value.
func declaredSelection(c Contest, selid string) bool {
	if election.IsWriteIn(selid) || election.IsErrorVote(selid) {
		return true
	}
	for _, declared := range c.Selections {
		if declared == selid {
			return true
		}
	}
	return false
}

func hasColumn(table *Table, name string) bool {
	for _, h := range table.Header {
		if h == name {
			return true
		}
	}
	return false
}

// checkCollectionColumn compares each row's Collection id with the
// collection the file belongs to.
func checkCollectionColumn(table *Table, pbcid string, s *Structure) []validate.Issue {
	if !hasColumn(table, "Collection id") {
		return nil
	}
	var issues []validate.Issue
	for _, row := range table.Rows {
		got := row.Get("Collection id")
		if got == pbcid {
			continue
		}
		at := location(table.Path, row.Line)
		if _, declared := s.Collection(got); got != "" && !declared {
			issues = append(issues, failure(ErrUndeclaredCollection, at,
				"row names collection %q, which is not declared", got))
			continue
		}
		issues = append(issues, warning(WarnCollectionMismatch, at,
			"row names collection %q in the file for %q", got, pbcid))
	}
	return issues
}
