package election

import (
	"slices"
	"unicode/utf16"
)

// SortIDs sorts ids in place in canonical order (UTF-16 code units).
// Go's default string ordering compares UTF-8 bytes and disagrees with
// canonical JSON for characters outside the BMP.
func SortIDs(ids []string) {
	slices.SortFunc(ids, CompareIDs)
}

// SortedKeys returns the keys of m in canonical order.
func SortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	SortIDs(keys)
	return keys
}

// CompareIDs compares a and b by UTF-16 code units as RFC 8785 requires.
func CompareIDs(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))

	for i := 0; i < len(a16) && i < len(b16); i++ {
		if a16[i] != b16[i] {
			if a16[i] < b16[i] {
				return -1
			}
			return 1
		}
	}

	switch {
	case len(a16) < len(b16):
		return -1
	case len(a16) > len(b16):
		return 1
	}
	return 0
}
