package structure

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/roach88/ballotfix/internal/validate"
)

// CVR types of a collection.
const (
	CVRTypeCVR   = "CVR"
	CVRTypeNoCVR = "noCVR"
)

// ContestTypePlurality is the only supported contest type.
const ContestTypePlurality = "plurality"

// Info holds the attributes of 11-election.
type Info struct {
	Name    string `json:"name,omitempty"`
	Dirname string `json:"dirname,omitempty"`
	Date    string `json:"date,omitempty"`
	URL     string `json:"url,omitempty"`
}

// Contest is a row of 12-contests.
type Contest struct {
	ID         string   `json:"cid"`
	Type       string   `json:"type"`
	Winners    int      `json:"winners"`
	WriteIns   string   `json:"write_ins"`
	Selections []string `json:"selections"`
	Line       int      `json:"-"`
}

// Collection is a row of 13-collections.
type Collection struct {
	ID       string   `json:"pbcid"`
	Manager  string   `json:"manager"`
	CVRType  string   `json:"cvr_type"`
	Contests []string `json:"contests"`
	Line     int      `json:"-"`
}

// Structure is the declared shape of an election.
type Structure struct {
	Info        Info         `json:"info"`
	Contests    []Contest    `json:"contests"`
	Collections []Collection `json:"collections"`

	// Source files, for issue locations.
	ContestsPath    string `json:"-"`
	CollectionsPath string `json:"-"`
}

// Contest returns the declared contest with id cid.
func (s *Structure) Contest(cid string) (Contest, bool) {
	for _, c := range s.Contests {
		if c.ID == cid {
			return c, true
		}
	}
	return Contest{}, false
}

// Collection returns the declared collection with id pbcid.
func (s *Structure) Collection(pbcid string) (Collection, bool) {
	for _, c := range s.Collections {
		if c.ID == pbcid {
			return c, true
		}
	}
	return Collection{}, false
}

// ReadStructure reads the three 1-structure files of dir.
func ReadStructure(dir string) (*Structure, []validate.Issue, error) {
	structureDir := filepath.Join(dir, StructureDir)
	s := &Structure{}
	var issues []validate.Issue

	info, found, err := ReadInfo(structureDir)
	if err != nil {
		return nil, nil, err
	}
	s.Info = info
	issues = append(issues, found...)

	path, err := greatestPath(structureDir, contestsPrefix)
	if err != nil {
		return nil, nil, err
	}
	s.ContestsPath = path
	contests, found, err := readContests(path)
	if err != nil {
		return nil, nil, err
	}
	s.Contests = contests
	issues = append(issues, found...)

	path, err = greatestPath(structureDir, collectPrefix)
	if err != nil {
		return nil, nil, err
	}
	s.CollectionsPath = path
	collections, found, err := readCollections(path)
	if err != nil {
		return nil, nil, err
	}
	s.Collections = collections
	issues = append(issues, found...)

	return s, issues, nil
}

// ReadInfo reads the greatest 11-election file in structureDir.
func ReadInfo(structureDir string) (Info, []validate.Issue, error) {
	path, err := greatestPath(structureDir, electionPrefix)
	if err != nil {
		return Info{}, nil, err
	}
	table, issues, err := ReadCSV(path, false)
	if err != nil {
		return Info{}, nil, err
	}

	var info Info
	present := make(map[string]bool)
	for _, row := range table.Rows {
		attribute, value := row.Get("Attribute"), row.Get("Value")
		switch attribute {
		case "Election name":
			info.Name = value
		case "Election dirname":
			info.Dirname = value
		case "Election date":
			info.Date = value
		case "Election URL":
			info.URL = value
		default:
			continue
		}
		present[attribute] = true
	}
	for _, attribute := range []string{"Election name", "Election dirname", "Election date", "Election URL"} {
		if !present[attribute] {
			issues = append(issues, warning(WarnMissingAttribute, path, "attribute %q not present", attribute))
		}
	}
	return info, issues, nil
}

func readContests(path string) ([]Contest, []validate.Issue, error) {
	table, issues, err := ReadCSV(path, true)
	if err != nil {
		return nil, nil, err
	}
	contests := make([]Contest, 0, len(table.Rows))
	for _, row := range table.Rows {
		c := Contest{
			ID:         row.Get("Contest id"),
			Type:       strings.ToLower(row.Get("Contest type")),
			WriteIns:   row.Get("Write-ins"),
			Selections: row.List,
			Line:       row.Line,
		}
		winners, err := parseCount(row.Get("Winners"))
		if err != nil {
			issues = append(issues, failure(ErrBadNumber, location(path, row.Line), "Winners: %v", err))
		}
		c.Winners = int(winners)
		contests = append(contests, c)
	}
	return contests, issues, nil
}

func readCollections(path string) ([]Collection, []validate.Issue, error) {
	table, issues, err := ReadCSV(path, true)
	if err != nil {
		return nil, nil, err
	}
	collections := make([]Collection, 0, len(table.Rows))
	for _, row := range table.Rows {
		collections = append(collections, Collection{
			ID:       row.Get("Collection id"),
			Manager:  row.Get("Manager"),
			CVRType:  row.Get("CVR type"),
			Contests: row.List,
			Line:     row.Line,
		})
	}
	return collections, issues, nil
}

// parseCount parses a non-negative integer cell.
func parseCount(value string) (int64, error) {
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%q is not a non-negative integer", value)
	}
	return n, nil
}
