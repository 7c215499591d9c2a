// Package store provides SQLite-backed storage for election fixtures.
//
// Fixtures are content-addressed: saving a fixture whose canonical form is
// already stored returns the existing record.
//
// # Tables
//
//   - fixtures: one row per fixture, with its canonical JSON and comments
//   - collections: ballot counts (the "n" map)
//   - tallies: per contest, collection and vote counts (the "t" map)
//   - outcomes: reported winners (the "ro" map)
//
// # Ordering
//
// Fixture ordering uses the seq INTEGER (logical clock), never timestamps.
// All queries end in ORDER BY ... COLLATE BINARY so results are identical
// across runs.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity (cascading deletes)
package store
