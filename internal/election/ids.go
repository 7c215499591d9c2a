package election

import (
	"strings"
	"unicode"
)

// Diagnostic vote values. A vid beginning with "-" never names a real
// selection and never wins a contest.
const (
	VoteInvalid   = "-Invalid"
	VoteNoCVR     = "-noCVR"
	VoteUndervote = "-Undervote"
	VoteOvervote  = "-Overvote"
)

// IsWriteIn reports whether vid denotes a write-in selection ("+Name").
func IsWriteIn(vid string) bool {
	return strings.HasPrefix(vid, "+")
}

// IsErrorVote reports whether vid denotes an error or diagnostic value ("-Invalid").
func IsErrorVote(vid string) bool {
	return strings.HasPrefix(vid, "-")
}

// ValidID reports whether id is non-empty and entirely printable.
func ValidID(id string) bool {
	if id == "" {
		return false
	}
	for _, r := range id {
		if !unicode.IsPrint(r) {
			return false
		}
	}
	return true
}

// HasSpace reports whether id contains any whitespace.
// Whitespace is permitted in ids but usually indicates a CSV or typing slip.
func HasSpace(id string) bool {
	return strings.IndexFunc(id, unicode.IsSpace) >= 0
}
