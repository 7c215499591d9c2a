package fixture

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Format identifies a fixture file encoding.
type Format string

const (
	FormatJSON      Format = "json"
	FormatYAML      Format = "yaml"
	FormatCUE       Format = "cue"
	FormatCanonical Format = "canonical"
)

// ValidFormats lists the accepted format names.
var ValidFormats = []Format{FormatJSON, FormatYAML, FormatCUE, FormatCanonical}

// ParseFormat converts a user-supplied name to a Format.
// The empty string yields "" so callers can fall back to DetectFormat.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "":
		return "", nil
	case "json", "js":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "cue":
		return FormatCUE, nil
	case "canonical":
		return FormatCanonical, nil
	}
	return "", fmt.Errorf("unknown fixture format %q: must be one of %v", name, ValidFormats)
}

// DetectFormat infers the format from a file extension.
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".js":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".cue":
		return FormatCUE, nil
	}
	return "", &LoadError{
		Code:    ErrCodeUnsupportedFormat,
		Message: fmt.Sprintf("cannot infer fixture format from extension %q", filepath.Ext(path)),
		Path:    path,
	}
}
