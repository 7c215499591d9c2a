package election

// Version constants for the fixture format and tool.
const (
	// FormatVersion is the fixture format version recorded in the store.
	FormatVersion = "1"

	// ToolVersion is the ballotfix version.
	ToolVersion = "0.1.0"
)
