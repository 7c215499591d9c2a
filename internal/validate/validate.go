// Package validate checks an election fixture for internal consistency.
//
// Validation never fails fast: every issue is reported, ordered by contest
// and collection id so output is stable.
package validate

import (
	"fmt"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/ballotfix/internal/election"
)

// Validation issue codes (E200-E299).
const (
	ErrUnknownCollection     = "E201" // tally names a collection absent from n
	ErrTallyExceedsBallots   = "E202" // contest tally in a collection exceeds its ballot count
	ErrNegativeCount         = "E203" // negative ballot count or tally
	ErrMissingOutcome        = "E204" // contest has tallies but no reported outcome
	ErrOutcomeNotTallied     = "E205" // reported outcome is not a tallied vote value
	ErrOutcomeUnknownContest = "E206" // reported outcome for a contest with no tallies
	ErrInvalidID             = "E207" // empty or non-printable identifier
	ErrEmptyElection         = "E208" // no collections or no contests
	WarnIDWhitespace         = "E209" // identifier contains whitespace
	WarnContestNoCollections = "E210" // contest lists no collections
	WarnUnusedCollection     = "E211" // collection appears in no contest
	WarnIDNotNFC             = "E212" // identifier is not in Unicode normalization form C
)

// Severity distinguishes issues that make a fixture invalid from advisories.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is a single validation finding.
type Issue struct {
	Field    string   `json:"field"`
	Message  string   `json:"message"`
	Code     string   `json:"code"`
	Severity Severity `json:"severity"`
}

// Error implements the error interface.
func (i Issue) Error() string {
	return fmt.Sprintf("[%s] %s: %s", i.Code, i.Field, i.Message)
}

// HasErrors reports whether any issue has error severity.
func HasErrors(issues []Issue) bool {
	for _, issue := range issues {
		if issue.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Split separates issues into errors and warnings, preserving order.
func Split(issues []Issue) (errs, warnings []Issue) {
	for _, issue := range issues {
		if issue.Severity == SeverityError {
			errs = append(errs, issue)
		} else {
			warnings = append(warnings, issue)
		}
	}
	return errs, warnings
}

// validator accumulates issues.
type validator struct {
	issues []Issue
}

func (v *validator) errorf(code, field, format string, args ...any) {
	v.issues = append(v.issues, Issue{Field: field, Code: code, Severity: SeverityError, Message: fmt.Sprintf(format, args...)})
}

func (v *validator) warnf(code, field, format string, args ...any) {
	v.issues = append(v.issues, Issue{Field: field, Code: code, Severity: SeverityWarning, Message: fmt.Sprintf(format, args...)})
}

// checkID reports E207 for unusable ids, E209 for ids with whitespace and
// E212 for ids that are not NFC. Ids are compared byte for byte, so "e"
// plus a combining accent and a precomposed "é" name different things.
func (v *validator) checkID(kind, id, field string) {
	if !election.ValidID(id) {
		v.errorf(ErrInvalidID, field, "%s id %q is empty or not printable", kind, id)
		return
	}
	if election.HasSpace(id) {
		v.warnf(WarnIDWhitespace, field, "%s id %q contains whitespace", kind, id)
	}
	if !norm.NFC.IsNormalString(id) {
		v.warnf(WarnIDNotNFC, field, "%s id %q is not NFC normalized", kind, id)
	}
}

// Validate checks e and returns every issue found.
// A fixture is valid when HasErrors returns false.
func Validate(e *election.Election) []Issue {
	v := &validator{}

	if len(e.Ballots) == 0 {
		v.errorf(ErrEmptyElection, election.KeyBallots, "no paper ballot collections defined")
	}
	if len(e.Tallies) == 0 {
		v.errorf(ErrEmptyElection, election.KeyTallies, "no contests defined")
	}

	v.checkCollections(e)
	for _, cid := range election.SortedKeys(e.Tallies) {
		v.checkContest(e, cid)
	}
	v.checkReported(e)

	return v.issues
}

func (v *validator) checkCollections(e *election.Election) {
	for _, pbcid := range election.SortedKeys(e.Ballots) {
		field := election.KeyBallots + "." + pbcid
		v.checkID("collection", pbcid, field)

		if n := e.Ballots[pbcid]; n < 0 {
			v.errorf(ErrNegativeCount, field, "ballot count %d is negative", n)
		}
		if len(e.Tallies) > 0 && len(e.ContestsFor(pbcid)) == 0 {
			v.warnf(WarnUnusedCollection, field, "collection %q is not used by any contest", pbcid)
		}
	}
}

func (v *validator) checkContest(e *election.Election, cid string) {
	contestField := election.KeyTallies + "." + cid
	v.checkID("contest", cid, contestField)

	collections := e.CollectionsFor(cid)
	if len(collections) == 0 {
		v.warnf(WarnContestNoCollections, contestField, "contest %q has no collections", cid)
	}

	checkedVotes := make(map[string]bool)
	for _, pbcid := range collections {
		field := contestField + "." + pbcid

		n, known := e.Ballots[pbcid]
		if !known {
			v.checkID("collection", pbcid, field)
			v.errorf(ErrUnknownCollection, field, "collection %q is not listed in %s", pbcid, election.KeyBallots)
		}

		byVote := e.Tallies[cid][pbcid]
		for _, vid := range election.SortedKeys(byVote) {
			voteField := field + "." + vid
			if !checkedVotes[vid] {
				checkedVotes[vid] = true
				v.checkID("vote", vid, voteField)
			}
			if count := byVote[vid]; count < 0 {
				v.errorf(ErrNegativeCount, voteField, "tally %d is negative", count)
			}
		}

		if cast := e.Cast(cid, pbcid); known && cast > n {
			v.errorf(ErrTallyExceedsBallots, field,
				"tallies for contest %q sum to %d, more than the %d ballots in collection %q", cid, cast, n, pbcid)
		}
	}

	reportedField := election.KeyReported + "." + cid
	vid, ok := e.Reported[cid]
	if !ok {
		v.errorf(ErrMissingOutcome, reportedField, "contest %q has no reported outcome", cid)
		return
	}
	if !containsVote(e.VotesFor(cid), vid) {
		v.errorf(ErrOutcomeNotTallied, reportedField,
			"reported outcome %q is not among the tallied vote values %v", vid, e.VotesFor(cid))
	}
}

func (v *validator) checkReported(e *election.Election) {
	for _, cid := range election.SortedKeys(e.Reported) {
		field := election.KeyReported + "." + cid
		if _, ok := e.Tallies[cid]; !ok {
			v.checkID("contest", cid, field)
			v.errorf(ErrOutcomeUnknownContest, field, "reported outcome for contest %q, which has no tallies", cid)
		}
		if vid := e.Reported[cid]; !election.ValidID(vid) {
			v.errorf(ErrInvalidID, field, "reported vote id %q is empty or not printable", vid)
		}
	}
}

func containsVote(vids []string, vid string) bool {
	for _, v := range vids {
		if v == vid {
			return true
		}
	}
	return false
}
