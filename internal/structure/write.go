package structure

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/roach88/ballotfix/internal/election"
)

// WriteOptions controls WriteDir.
type WriteOptions struct {
	Info Info
	// NoCVR names collections written as tallies instead of per-ballot rows.
	NoCVR []string
}

// WriteDir writes e as an election directory under dir, so that Assemble
// reads back the same tallies and outcomes.
//
// Vote values that are neither write-ins nor error values become the
// declared selections of their contest. Zero counts for undeclared values
// survive only in noCVR collections.
func WriteDir(dir string, e *election.Election, opts WriteOptions) error {
	structureDir := filepath.Join(dir, StructureDir)
	electionDir := filepath.Join(dir, ElectionDir)
	reportedDir := filepath.Join(electionDir, ReportedDir)
	manifestsDir := filepath.Join(electionDir, ManifestsDir)
	for _, d := range []string{structureDir, reportedDir, manifestsDir} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", d, err)
		}
	}

	noCVR := make(map[string]bool, len(opts.NoCVR))
	for _, pbcid := range opts.NoCVR {
		noCVR[pbcid] = true
	}

	info := [][]string{{"Attribute", "Value"}}
	for _, attr := range [][2]string{
		{"Election name", opts.Info.Name},
		{"Election dirname", opts.Info.Dirname},
		{"Election date", opts.Info.Date},
		{"Election URL", opts.Info.URL},
	} {
		if attr[1] != "" {
			info = append(info, []string{attr[0], attr[1]})
		}
	}
	if err := writeCSV(filepath.Join(structureDir, electionPrefix+csvSuffix), info); err != nil {
		return err
	}

	contests := [][]string{{"Contest id", "Contest type", "Winners", "Write-ins", "Selections"}}
	for _, cid := range election.SortedKeys(e.Tallies) {
		writeIns := "No"
		var selections []string
		for _, vid := range e.VotesFor(cid) {
			switch {
			case election.IsWriteIn(vid):
				writeIns = "Qualified"
			case !election.IsErrorVote(vid):
				selections = append(selections, vid)
			}
		}
		contests = append(contests, append([]string{cid, "Plurality", "1", writeIns}, selections...))
	}
	if err := writeCSV(filepath.Join(structureDir, contestsPrefix+csvSuffix), contests); err != nil {
		return err
	}

	collections := [][]string{{"Collection id", "Manager", "CVR type", "Contests"}}
	for _, pbcid := range e.CollectionIDs() {
		cvrType := CVRTypeCVR
		if noCVR[pbcid] {
			cvrType = CVRTypeNoCVR
		}
		collections = append(collections, append([]string{pbcid, "", cvrType}, e.ContestsFor(pbcid)...))

		manifest := [][]string{
			{"Collection id", "Ballot id", "Number of ballots"},
			{pbcid, "B-1", strconv.FormatInt(e.Ballots[pbcid], 10)},
		}
		if err := writeCSV(filepath.Join(manifestsDir, manifestPrefix+pbcid+csvSuffix), manifest); err != nil {
			return err
		}
		if err := writeCSV(filepath.Join(reportedDir, cvrsPrefix+pbcid+csvSuffix), voteRows(e, pbcid, noCVR[pbcid])); err != nil {
			return err
		}
	}
	if err := writeCSV(filepath.Join(structureDir, collectPrefix+csvSuffix), collections); err != nil {
		return err
	}

	outcomes := [][]string{{"Contest id", "Winner(s)"}}
	for _, cid := range election.SortedKeys(e.Reported) {
		outcomes = append(outcomes, []string{cid, e.Reported[cid]})
	}
	return writeCSV(filepath.Join(electionDir, outcomesPrefix+csvSuffix), outcomes)
}

// voteRows renders the tallies of one collection as CVR or noCVR rows.
func voteRows(e *election.Election, pbcid string, tallies bool) [][]string {
	if tallies {
		rows := [][]string{{"Collection id", "Source", "Tally", "Contest", "Selections"}}
		for _, cid := range e.ContestsFor(pbcid) {
			byVote := e.Tallies[cid][pbcid]
			for _, vid := range election.SortedKeys(byVote) {
				rows = append(rows, []string{pbcid, "L", strconv.FormatInt(byVote[vid], 10), cid, vid})
			}
		}
		return rows
	}

	rows := [][]string{{"Collection id", "Source", "Ballot id", "Contest", "Selections"}}
	for _, cid := range e.ContestsFor(pbcid) {
		byVote := e.Tallies[cid][pbcid]
		ballot := 0
		for _, vid := range election.SortedKeys(byVote) {
			for i := int64(0); i < byVote[vid]; i++ {
				ballot++
				rows = append(rows, []string{pbcid, "L", "B-" + strconv.Itoa(ballot), cid, vid})
			}
		}
	}
	return rows
}

func writeCSV(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}
