package structure

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/roach88/ballotfix/internal/validate"
)

// Directory and file name prefixes of an election directory.
const (
	StructureDir   = "1-structure"
	ElectionDir    = "2-election"
	ReportedDir    = "21-reported-votes"
	ManifestsDir   = "22-ballot-manifests"
	electionPrefix = "11-election"
	contestsPrefix = "12-contests"
	collectPrefix  = "13-collections"
	cvrsPrefix     = "reported-cvrs-"
	manifestPrefix = "manifest-"
	outcomesPrefix = "23-reported-outcomes"
	csvSuffix      = ".csv"
)

// ErrNoMatch is returned when no file in a directory matches a prefix.
var ErrNoMatch = errors.New("no matching file")

// GreatestName returns the lexicographically greatest file name in dir that
// starts with prefix and ends with suffix. Between the two there must be
// nothing, or a "-" followed by a digit that starts a version such as a
// date. So "manifest-A1" matches neither "manifest-A10.csv" nor
// "manifest-A1-B2.csv".
func GreatestName(dir, prefix, suffix string) (string, error) {
	return greatestName(dir, prefix, suffix, nil)
}

// greatestName is GreatestName ignoring names that also match one of the
// longer prefixes in shadowed.
func greatestName(dir, prefix, suffix string, shadowed []string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", dir, err)
	}
	var names []string
next:
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !matchesVersioned(name, prefix, suffix) {
			continue
		}
		for _, longer := range shadowed {
			if len(longer) > len(prefix) && matchesVersioned(name, longer, suffix) {
				continue next
			}
		}
		names = append(names, name)
	}
	if len(names) == 0 {
		return "", fmt.Errorf("%w: %s*%s in %s", ErrNoMatch, prefix, suffix, dir)
	}
	sort.Strings(names)
	return names[len(names)-1], nil
}

// matchesVersioned reports whether name is prefix, an optional
// "-<digit>..." version, then suffix.
func matchesVersioned(name, prefix, suffix string) bool {
	if !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, suffix) {
		return false
	}
	if len(name) < len(prefix)+len(suffix) {
		return false
	}
	version := name[len(prefix) : len(name)-len(suffix)]
	if version == "" {
		return true
	}
	return len(version) >= 2 && version[0] == '-' && version[1] >= '0' && version[1] <= '9'
}

// greatestPath is GreatestName joined with dir.
func greatestPath(dir, prefix string) (string, error) {
	return greatestShadowedPath(dir, prefix, nil)
}

func greatestShadowedPath(dir, prefix string, shadowed []string) (string, error) {
	name, err := greatestName(dir, prefix, csvSuffix, shadowed)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

// collectionPath returns the greatest file in dir for collection pbcid.
// Files that belong to another declared collection whose id extends pbcid,
// such as "DEN-2" for "DEN", are skipped.
func collectionPath(dir, prefix, pbcid string, s *Structure) (string, error) {
	var shadowed []string
	for _, c := range s.Collections {
		if len(c.ID) > len(pbcid) && strings.HasPrefix(c.ID, pbcid) {
			shadowed = append(shadowed, prefix+c.ID)
		}
	}
	return greatestShadowedPath(dir, prefix+pbcid, shadowed)
}

// undeclaredFiles reports an error for each csv file in dir that starts
// with prefix but belongs to no declared collection.
func undeclaredFiles(dir, prefix string, s *Structure) ([]validate.Issue, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", dir, err)
	}
	var issues []validate.Issue
next:
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, csvSuffix) {
			continue
		}
		for _, c := range s.Collections {
			if matchesVersioned(name, prefix+c.ID, csvSuffix) {
				continue next
			}
		}
		issues = append(issues, failure(ErrUndeclaredCollection, filepath.Join(dir, name),
			"file names no declared collection"))
	}
	return issues, nil
}
