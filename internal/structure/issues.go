package structure

import (
	"fmt"

	"github.com/roach88/ballotfix/internal/validate"
)

// Structure issue codes (E400-E499).
const (
	ErrUndeclaredContest    = "E401" // contest id not in 12-contests
	ErrUndeclaredCollection = "E402" // file or row names a collection not in 13-collections
	WarnUndeclaredSelection = "E403" // selection not declared for its contest
	ErrCVRType              = "E404" // CVR type is neither CVR nor noCVR
	ErrContestType          = "E405" // contest type other than plurality
	ErrIrrelevantContest    = "E406" // collection reports a contest it does not list
	ErrMultiWinner          = "E407" // contest elects more than one winner
	ErrBadNumber            = "E408" // Winners, Tally or Number of ballots is not a count
	WarnMissingAttribute    = "E409" // 11-election lacks a standard attribute
	WarnMalformedRow        = "E410" // extra values or repeated column names
	ErrOutcomeWinners       = "E411" // reported outcome names zero or several winners
	ErrDuplicateBallot      = "E412" // CVR lists a ballot twice for one contest
	WarnCollectionMismatch  = "E413" // row names a declared collection other than its file's
	WarnUnknownBallot       = "E414" // CVR ballot id is not in the collection's manifest
)

// CheckError is returned by Assemble when the directory has error issues.
type CheckError struct {
	Dir    string
	Issues []validate.Issue
}

func (e *CheckError) Error() string {
	errs, _ := validate.Split(e.Issues)
	if len(errs) == 0 {
		return fmt.Sprintf("%s: election directory is invalid", e.Dir)
	}
	return fmt.Sprintf("%s: %d structure errors, first: %s", e.Dir, len(errs), errs[0].Error())
}

func issue(severity validate.Severity, code, field, format string, args ...any) validate.Issue {
	return validate.Issue{Field: field, Code: code, Severity: severity, Message: fmt.Sprintf(format, args...)}
}

func warning(code, field, format string, args ...any) validate.Issue {
	return issue(validate.SeverityWarning, code, field, format, args...)
}

func failure(code, field, format string, args ...any) validate.Issue {
	return issue(validate.SeverityError, code, field, format, args...)
}

// location formats a file position for Issue.Field.
func location(path string, line int) string {
	if line <= 0 {
		return path
	}
	return fmt.Sprintf("%s:%d", path, line)
}
