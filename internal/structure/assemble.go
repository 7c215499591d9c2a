package structure

import (
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/roach88/ballotfix/internal/election"
	"github.com/roach88/ballotfix/internal/validate"
)

// Result is the output of Assemble.
type Result struct {
	Election  *election.Election
	Structure *Structure
	// Issues holds structure issues followed by fixture validation issues.
	Issues []validate.Issue
}

type options struct {
	logger *zap.Logger
}

// Option configures Assemble.
type Option func(*options)

// WithLogger sets the logger used for progress and warnings.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// Assemble builds a fixture from the election directory dir.
//
// Every issue found is collected. When any has error severity the partial
// result is returned together with a *CheckError.
func Assemble(dir string, opts ...Option) (*Result, error) {
	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	log := o.logger.With(zap.String("dir", dir))

	s, issues, err := ReadStructure(dir)
	if err != nil {
		return nil, fmt.Errorf("read election structure: %w", err)
	}
	issues = append(issues, CheckStructure(s)...)
	log.Debug("read election structure",
		zap.Int("contests", len(s.Contests)),
		zap.Int("collections", len(s.Collections)))

	e := election.New()
	addInfoComments(e, s.Info)

	electionDir := filepath.Join(dir, ElectionDir)
	manifestsDir := filepath.Join(electionDir, ManifestsDir)
	reportedDir := filepath.Join(electionDir, ReportedDir)

	done := make(map[string]bool, len(s.Collections))
	for _, c := range s.Collections {
		if done[c.ID] || !election.ValidID(c.ID) {
			continue
		}
		done[c.ID] = true

		path, err := collectionPath(manifestsDir, manifestPrefix, c.ID, s)
		if err != nil {
			return nil, fmt.Errorf("ballot manifest for %s: %w", c.ID, err)
		}
		log.Debug("reading ballot manifest", zap.String("path", path))
		manifest, found, err := ReadManifest(path, c.ID, s)
		if err != nil {
			return nil, err
		}
		issues = append(issues, found...)
		e.Ballots[c.ID] = manifest.Ballots

		if c.CVRType != CVRTypeCVR && c.CVRType != CVRTypeNoCVR {
			continue
		}

		// Declared selections appear with zero counts in every relevant
		// collection.
		for _, cid := range c.Contests {
			if contest, ok := s.Contest(cid); ok {
				for _, selid := range contest.Selections {
					e.SetTally(cid, c.ID, selid, 0)
				}
			}
		}

		path, err = collectionPath(reportedDir, cvrsPrefix, c.ID, s)
		if err != nil {
			return nil, fmt.Errorf("reported votes for %s: %w", c.ID, err)
		}
		log.Debug("reading reported votes", zap.String("path", path), zap.String("cvr_type", c.CVRType))
		found, err = ReadVotes(e, s, c, path, manifest)
		if err != nil {
			return nil, err
		}
		issues = append(issues, found...)
	}

	for _, dir := range []struct{ path, prefix string }{
		{manifestsDir, manifestPrefix},
		{reportedDir, cvrsPrefix},
	} {
		found, err := undeclaredFiles(dir.path, dir.prefix, s)
		if err != nil {
			return nil, err
		}
		issues = append(issues, found...)
	}

	path, err := greatestPath(electionDir, outcomesPrefix)
	if err != nil {
		return nil, fmt.Errorf("reported outcomes: %w", err)
	}
	log.Debug("reading reported outcomes", zap.String("path", path))
	outcomes, found, err := ReadOutcomes(path, s)
	if err != nil {
		return nil, err
	}
	issues = append(issues, found...)
	for cid, vid := range outcomes {
		e.Reported[cid] = vid
	}

	issues = append(issues, validate.Validate(e)...)

	for _, issue := range issues {
		if issue.Severity == validate.SeverityWarning {
			log.Warn(issue.Message, zap.String("code", issue.Code), zap.String("at", issue.Field))
		}
	}

	result := &Result{Election: e, Structure: s, Issues: issues}
	if validate.HasErrors(issues) {
		return result, &CheckError{Dir: dir, Issues: issues}
	}
	log.Info("assembled election",
		zap.Int("contests", len(e.Tallies)),
		zap.Int("collections", len(e.Ballots)),
		zap.Int64("ballots", e.TotalBallots()))
	return result, nil
}

func addInfoComments(e *election.Election, info Info) {
	for _, attr := range []struct{ label, value string }{
		{"Election name", info.Name},
		{"Election date", info.Date},
		{"Election URL", info.URL},
	} {
		if attr.value != "" {
			e.AddComment(election.KeyBallots, attr.label+": "+attr.value)
		}
	}
}
