package store

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/roach88/ballotfix/internal/election"
)

// SaveFixture stores e under name. Returns the fixture id and whether a new
// record was inserted.
//
// Uses ON CONFLICT(content_hash) DO NOTHING for idempotency: saving a
// fixture whose canonical form is already stored returns the existing id
// and inserted=false, leaving the stored name and comments unchanged.
func (s *Store) SaveFixture(ctx context.Context, name string, e *election.Election) (id string, inserted bool, err error) {
	canonical, err := e.Canonical()
	if err != nil {
		return "", false, fmt.Errorf("save fixture: %w", err)
	}
	hash, err := e.ContentHash()
	if err != nil {
		return "", false, fmt.Errorf("save fixture: %w", err)
	}
	comments, err := marshalComments(e.Comments)
	if err != nil {
		return "", false, fmt.Errorf("save fixture: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", false, fmt.Errorf("save fixture: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	id = s.ids.Generate()
	result, err := tx.ExecContext(ctx, `
		INSERT INTO fixtures
		(id, seq, name, content_hash, canonical, comments, format_version, tool_version)
		VALUES (?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM fixtures), ?, ?, ?, ?, ?, ?)
		ON CONFLICT(content_hash) DO NOTHING
	`,
		id,
		name,
		hash,
		string(canonical),
		comments,
		election.FormatVersion,
		election.ToolVersion,
	)
	if err != nil {
		return "", false, fmt.Errorf("save fixture: insert: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return "", false, fmt.Errorf("save fixture: rows affected: %w", err)
	}

	if rowsAffected == 0 {
		// Conflict - fixture already stored, fetch the existing ID
		err = tx.QueryRowContext(ctx, `SELECT id FROM fixtures WHERE content_hash = ?`, hash).Scan(&id)
		if err != nil {
			return "", false, fmt.Errorf("save fixture: select existing: %w", err)
		}
		s.log.Debug("fixture already stored", zap.String("id", id), zap.String("content_hash", hash))
		return id, false, nil
	}

	if err := insertRows(ctx, tx, id, e); err != nil {
		return "", false, fmt.Errorf("save fixture: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", false, fmt.Errorf("save fixture: commit: %w", err)
	}

	s.log.Info("stored fixture",
		zap.String("id", id),
		zap.String("name", name),
		zap.String("content_hash", hash))
	return id, true, nil
}

// insertRows writes the n, t and ro maps of e for fixture id.
func insertRows(ctx context.Context, tx *sql.Tx, id string, e *election.Election) error {
	collections, err := tx.PrepareContext(ctx, `INSERT INTO collections (fixture_id, pbcid, ballots) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare collections: %w", err)
	}
	defer collections.Close()
	for _, pbcid := range election.SortedKeys(e.Ballots) {
		if _, err := collections.ExecContext(ctx, id, pbcid, e.Ballots[pbcid]); err != nil {
			return fmt.Errorf("insert collection %s: %w", pbcid, err)
		}
	}

	tallies, err := tx.PrepareContext(ctx, `INSERT INTO tallies (fixture_id, cid, pbcid, vid, count) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare tallies: %w", err)
	}
	defer tallies.Close()
	for _, cid := range election.SortedKeys(e.Tallies) {
		for _, pbcid := range election.SortedKeys(e.Tallies[cid]) {
			byVote := e.Tallies[cid][pbcid]
			for _, vid := range election.SortedKeys(byVote) {
				if _, err := tallies.ExecContext(ctx, id, cid, pbcid, vid, byVote[vid]); err != nil {
					return fmt.Errorf("insert tally %s/%s/%s: %w", cid, pbcid, vid, err)
				}
			}
		}
	}

	outcomes, err := tx.PrepareContext(ctx, `INSERT INTO outcomes (fixture_id, cid, vid) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare outcomes: %w", err)
	}
	defer outcomes.Close()
	for _, cid := range election.SortedKeys(e.Reported) {
		if _, err := outcomes.ExecContext(ctx, id, cid, e.Reported[cid]); err != nil {
			return fmt.Errorf("insert outcome %s: %w", cid, err)
		}
	}
	return nil
}

// DeleteFixture removes fixture id and its rows. Returns ErrNotFound when
// no such fixture exists.
func (s *Store) DeleteFixture(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM fixtures WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete fixture: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete fixture: rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("delete fixture %s: %w", id, ErrNotFound)
	}
	s.log.Info("deleted fixture", zap.String("id", id))
	return nil
}
