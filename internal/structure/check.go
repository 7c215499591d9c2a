package structure

import (
	"github.com/roach88/ballotfix/internal/election"
	"github.com/roach88/ballotfix/internal/validate"
)

// CheckStructure checks the declarations of s for consistency.
func CheckStructure(s *Structure) []validate.Issue {
	var issues []validate.Issue
	listed := make(map[string]bool)
	for _, c := range s.Collections {
		for _, cid := range c.Contests {
			listed[cid] = true
		}
	}

	seenContest := make(map[string]bool, len(s.Contests))
	for _, c := range s.Contests {
		at := location(s.ContestsPath, c.Line)
		if !election.ValidID(c.ID) {
			issues = append(issues, failure(validate.ErrInvalidID, at, "contest id %q is empty or not printable", c.ID))
			continue
		}
		if seenContest[c.ID] {
			issues = append(issues, warning(WarnMalformedRow, at, "contest %q declared twice; first declaration used", c.ID))
			continue
		}
		seenContest[c.ID] = true

		if c.Type != ContestTypePlurality {
			issues = append(issues, failure(ErrContestType, at,
				"contest %q has type %q; only %q is supported", c.ID, c.Type, ContestTypePlurality))
		}
		if c.Winners != 1 {
			issues = append(issues, failure(ErrMultiWinner, at,
				"contest %q elects %d winners; a fixture records a single reported winner", c.ID, c.Winners))
		}
		for _, selid := range c.Selections {
			if !election.ValidID(selid) {
				issues = append(issues, failure(validate.ErrInvalidID, at, "selection id %q is empty or not printable", selid))
			}
		}
		if !listed[c.ID] {
			issues = append(issues, warning(validate.WarnContestNoCollections, at, "contest %q is listed by no collection", c.ID))
		}
	}

	seenCollection := make(map[string]bool, len(s.Collections))
	for _, c := range s.Collections {
		at := location(s.CollectionsPath, c.Line)
		if !election.ValidID(c.ID) {
			issues = append(issues, failure(validate.ErrInvalidID, at, "collection id %q is empty or not printable", c.ID))
			continue
		}
		if seenCollection[c.ID] {
			issues = append(issues, warning(WarnMalformedRow, at, "collection %q declared twice; first declaration used", c.ID))
			continue
		}
		seenCollection[c.ID] = true

		if c.CVRType != CVRTypeCVR && c.CVRType != CVRTypeNoCVR {
			issues = append(issues, failure(ErrCVRType, at,
				"collection %q has CVR type %q; expected %q or %q", c.ID, c.CVRType, CVRTypeCVR, CVRTypeNoCVR))
		}
		for _, cid := range c.Contests {
			if _, ok := s.Contest(cid); !ok {
				issues = append(issues, failure(ErrUndeclaredContest, at,
					"collection %q lists undeclared contest %q", c.ID, cid))
			}
		}
	}
	return issues
}
