package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/ballotfix/internal/election"
)

// ErrCorrupt is returned when stored rows no longer match the stored
// content hash.
var ErrCorrupt = errors.New("stored fixture does not match its content hash")

// FixtureRecord describes a stored fixture.
type FixtureRecord struct {
	ID            string `json:"id"`
	Seq           int64  `json:"seq"`
	Name          string `json:"name"`
	ContentHash   string `json:"content_hash"`
	FormatVersion string `json:"format_version"`
	ToolVersion   string `json:"tool_version"`
	Collections   int    `json:"collections"`
	Contests      int    `json:"contests"`
}

const recordColumns = `
	f.id, f.seq, f.name, f.content_hash, f.format_version, f.tool_version,
	(SELECT COUNT(*) FROM collections c WHERE c.fixture_id = f.id),
	(SELECT COUNT(DISTINCT t.cid) FROM tallies t WHERE t.fixture_id = f.id)`

func scanRecord(row interface{ Scan(...any) error }) (FixtureRecord, error) {
	var r FixtureRecord
	err := row.Scan(&r.ID, &r.Seq, &r.Name, &r.ContentHash, &r.FormatVersion, &r.ToolVersion, &r.Collections, &r.Contests)
	return r, err
}

// ListFixtures returns every stored fixture.
// Results are ordered deterministically: ORDER BY seq ASC, id ASC COLLATE BINARY.
//
// Returns an empty slice (not nil) if the store is empty.
func (s *Store) ListFixtures(ctx context.Context) ([]FixtureRecord, error) {
	rows, err := s.Query(ctx, `SELECT `+recordColumns+`
		FROM fixtures f
		ORDER BY f.seq ASC, f.id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query fixtures: %w", err)
	}
	defer rows.Close()

	records := []FixtureRecord{}
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan fixture: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate fixtures: %w", err)
	}
	return records, nil
}

// GetRecord returns the record of fixture id.
func (s *Store) GetRecord(ctx context.Context, id string) (FixtureRecord, error) {
	r, err := scanRecord(s.db.QueryRowContext(ctx, `SELECT `+recordColumns+`
		FROM fixtures f WHERE f.id = ?
	`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return FixtureRecord{}, fmt.Errorf("fixture %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return FixtureRecord{}, fmt.Errorf("get fixture %s: %w", id, err)
	}
	return r, nil
}

// Resolve maps a user-supplied reference to a fixture id. The reference may
// be a full id, a unique prefix (at least 4 characters) of an id or content
// hash, or a fixture name; the most recently saved fixture wins for names.
func (s *Store) Resolve(ctx context.Context, ref string) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx, `SELECT id FROM fixtures WHERE id = ?`, ref).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("resolve %q: %w", ref, err)
	}

	if len(ref) >= 4 {
		ids, err := s.prefixMatches(ctx, ref)
		if err != nil {
			return "", err
		}
		switch len(ids) {
		case 1:
			return ids[0], nil
		case 0:
		default:
			return "", fmt.Errorf("resolve %q: ambiguous prefix matches %d fixtures", ref, len(ids))
		}
	}

	err = s.db.QueryRowContext(ctx, `
		SELECT id FROM fixtures WHERE name = ?
		ORDER BY seq DESC, id COLLATE BINARY ASC
		LIMIT 1
	`, ref).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("resolve %q: %w", ref, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("resolve %q: %w", ref, err)
	}
	return id, nil
}

func (s *Store) prefixMatches(ctx context.Context, prefix string) ([]string, error) {
	// substr avoids LIKE wildcards in user input
	rows, err := s.Query(ctx, `
		SELECT id FROM fixtures
		WHERE substr(id, 1, ?) = ? OR substr(content_hash, 1, ?) = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, len(prefix), prefix, len(prefix), prefix)
	if err != nil {
		return nil, fmt.Errorf("resolve %q: %w", prefix, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("resolve %q: %w", prefix, err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// LoadFixture rebuilds fixture id from its rows and verifies the result
// against the stored content hash.
func (s *Store) LoadFixture(ctx context.Context, id string) (*election.Election, FixtureRecord, error) {
	record, err := s.GetRecord(ctx, id)
	if err != nil {
		return nil, FixtureRecord{}, err
	}

	var commentsJSON string
	if err := s.db.QueryRowContext(ctx, `SELECT comments FROM fixtures WHERE id = ?`, id).Scan(&commentsJSON); err != nil {
		return nil, FixtureRecord{}, fmt.Errorf("load fixture %s: %w", id, err)
	}

	e := election.New()
	if e.Comments, err = unmarshalComments(commentsJSON); err != nil {
		return nil, FixtureRecord{}, fmt.Errorf("load fixture %s: %w", id, err)
	}

	if err := s.loadCollections(ctx, id, e); err != nil {
		return nil, FixtureRecord{}, err
	}
	if err := s.loadTallies(ctx, id, e); err != nil {
		return nil, FixtureRecord{}, err
	}
	if err := s.loadOutcomes(ctx, id, e); err != nil {
		return nil, FixtureRecord{}, err
	}

	hash, err := e.ContentHash()
	if err != nil {
		return nil, FixtureRecord{}, fmt.Errorf("load fixture %s: %w", id, err)
	}
	if hash != record.ContentHash {
		return nil, FixtureRecord{}, fmt.Errorf("load fixture %s: %w", id, ErrCorrupt)
	}
	return e, record, nil
}

func (s *Store) loadCollections(ctx context.Context, id string, e *election.Election) error {
	rows, err := s.Query(ctx, `
		SELECT pbcid, ballots FROM collections
		WHERE fixture_id = ?
		ORDER BY pbcid COLLATE BINARY ASC
	`, id)
	if err != nil {
		return fmt.Errorf("query collections: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var pbcid string
		var ballots int64
		if err := rows.Scan(&pbcid, &ballots); err != nil {
			return fmt.Errorf("scan collection: %w", err)
		}
		e.Ballots[pbcid] = ballots
	}
	return rows.Err()
}

// loadTallies also restores contests and collections that have no vote rows,
// which the canonical form records as empty objects.
func (s *Store) loadTallies(ctx context.Context, id string, e *election.Election) error {
	rows, err := s.Query(ctx, `
		SELECT cid, pbcid, vid, count FROM tallies
		WHERE fixture_id = ?
		ORDER BY cid COLLATE BINARY ASC, pbcid COLLATE BINARY ASC, vid COLLATE BINARY ASC
	`, id)
	if err != nil {
		return fmt.Errorf("query tallies: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var cid, pbcid, vid string
		var count int64
		if err := rows.Scan(&cid, &pbcid, &vid, &count); err != nil {
			return fmt.Errorf("scan tally: %w", err)
		}
		e.SetTally(cid, pbcid, vid, count)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate tallies: %w", err)
	}
	return s.restoreEmptyTallies(ctx, id, e)
}

// restoreEmptyTallies re-adds the empty maps recorded in the canonical JSON.
func (s *Store) restoreEmptyTallies(ctx context.Context, id string, e *election.Election) error {
	var canonical string
	if err := s.db.QueryRowContext(ctx, `SELECT canonical FROM fixtures WHERE id = ?`, id).Scan(&canonical); err != nil {
		return fmt.Errorf("query canonical: %w", err)
	}
	stored, err := decodeShape(canonical)
	if err != nil {
		return err
	}

	for cid, pbcids := range stored {
		if _, ok := e.Tallies[cid]; !ok {
			e.Tallies[cid] = make(map[string]map[string]int64)
		}
		for _, pbcid := range pbcids {
			if _, ok := e.Tallies[cid][pbcid]; !ok {
				e.Tallies[cid][pbcid] = make(map[string]int64)
			}
		}
	}
	return nil
}

func (s *Store) loadOutcomes(ctx context.Context, id string, e *election.Election) error {
	rows, err := s.Query(ctx, `
		SELECT cid, vid FROM outcomes
		WHERE fixture_id = ?
		ORDER BY cid COLLATE BINARY ASC
	`, id)
	if err != nil {
		return fmt.Errorf("query outcomes: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var cid, vid string
		if err := rows.Scan(&cid, &vid); err != nil {
			return fmt.Errorf("scan outcome: %w", err)
		}
		e.Reported[cid] = vid
	}
	return rows.Err()
}

// ContestTotals returns the per-vote totals of contest cid in fixture id,
// summed over collections by SQLite.
func (s *Store) ContestTotals(ctx context.Context, id, cid string) (map[string]int64, error) {
	rows, err := s.Query(ctx, `
		SELECT vid, SUM(count) FROM tallies
		WHERE fixture_id = ? AND cid = ?
		GROUP BY vid
		ORDER BY vid COLLATE BINARY ASC
	`, id, cid)
	if err != nil {
		return nil, fmt.Errorf("contest totals: %w", err)
	}
	defer rows.Close()

	totals := make(map[string]int64)
	for rows.Next() {
		var vid string
		var sum int64
		if err := rows.Scan(&vid, &sum); err != nil {
			return nil, fmt.Errorf("contest totals: scan: %w", err)
		}
		totals[vid] = sum
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("contest totals: %w", err)
	}
	return totals, nil
}

// FindByHash returns the id of the fixture with the given content hash.
func (s *Store) FindByHash(ctx context.Context, hash string) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx, `SELECT id FROM fixtures WHERE content_hash = ?`, strings.TrimSpace(hash)).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("find by hash: %w", err)
	}
	return id, nil
}
