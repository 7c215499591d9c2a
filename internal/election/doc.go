// Package election provides the in-memory model of an election fixture:
// ballot counts per paper ballot collection, vote tallies per contest and
// collection, and the reported outcome of each contest.
//
// This package imports nothing internal. Every other internal package builds
// on it, so it stays a leaf with no circular dependencies.
//
// Key constraints:
//   - Counts are int64, never float
//   - An Election is loaded once and treated as read-only; use Clone before
//     deriving a modified copy
//   - Iteration helpers return ids in canonical (UTF-16 code unit) order so
//     output and hashes are deterministic
//   - __comment annotations carry no semantic weight and are excluded from
//     the canonical form and the content hash
package election
