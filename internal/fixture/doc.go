// Package fixture reads and writes election fixture files.
//
// Three source formats share one shape (top-level n, t and ro):
//   - JSON (.json, .js): repeated "__comment" keys are allowed and kept
//   - YAML (.yaml, .yml): comments are head comments on the top-level keys
//   - CUE (.cue): unified with an embedded #Fixture schema before decoding;
//     doc comments on the top-level fields are kept
//
// A fourth output-only variant, canonical, is the compact RFC 8785 JSON
// produced by election.MarshalCanonical. It reads back as JSON.
//
// Any format loaded and written again in any other format yields the same
// n, t and ro mappings.
package fixture
