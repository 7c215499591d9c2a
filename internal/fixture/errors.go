package fixture

import (
	"bytes"
	"fmt"
)

// Load error codes (E300-E399).
const (
	ErrCodeNotFound          = "E005" // file not found or unreadable
	ErrCodeParse             = "E301" // malformed JSON/YAML/CUE
	ErrCodeNotInteger        = "E302" // count is not an integer
	ErrCodeUnknownKey        = "E303" // unexpected top-level key
	ErrCodeDuplicateKey      = "E304" // key given twice in one object
	ErrCodeSchema            = "E305" // CUE schema violation
	ErrCodeUnsupportedFormat = "E306" // unknown format or extension
	ErrCodeWriteFailed       = "E307" // output could not be written
)

// LoadError describes a fixture that could not be read.
// Line and Column are 1-based and zero when unknown.
type LoadError struct {
	Code    string
	Message string
	Path    string
	Field   string
	Line    int
	Column  int
}

func (e *LoadError) Error() string {
	loc := e.Path
	if loc == "" {
		loc = "<input>"
	}
	if e.Line > 0 {
		loc = fmt.Sprintf("%s:%d:%d", loc, e.Line, e.Column)
	}
	if e.Field != "" {
		return fmt.Sprintf("%s: %s: %s: %s", loc, e.Code, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", loc, e.Code, e.Message)
}

// lineCol converts a byte offset into 1-based line and column numbers.
func lineCol(data []byte, offset int64) (int, int) {
	if offset < 0 {
		return 0, 0
	}
	if offset > int64(len(data)) {
		offset = int64(len(data))
	}
	prefix := data[:offset]
	line := bytes.Count(prefix, []byte{'\n'}) + 1
	col := int(offset) - (bytes.LastIndexByte(prefix, '\n') + 1) + 1
	return line, col
}
