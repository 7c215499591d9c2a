package fixture

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/roach88/ballotfix/internal/election"
)

// Load reads the fixture at path. When format is empty it is inferred from
// the file extension.
func Load(path string, format Format) (*election.Election, error) {
	if format == "" {
		detected, err := DetectFormat(path)
		if err != nil {
			return nil, err
		}
		format = detected
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: "fixture file not found", Path: path}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("reading fixture: %v", err), Path: path}
	}

	return Decode(data, format, path)
}

// Decode parses fixture bytes in the given format. name is used in error
// messages and CUE positions.
func Decode(data []byte, format Format, name string) (*election.Election, error) {
	switch format {
	case FormatJSON, FormatCanonical:
		return decodeJSON(data, name)
	case FormatYAML:
		return decodeYAML(data, name)
	case FormatCUE:
		return decodeCUE(data, name)
	}
	return nil, &LoadError{
		Code:    ErrCodeUnsupportedFormat,
		Message: fmt.Sprintf("unsupported fixture format %q", format),
		Path:    name,
	}
}
