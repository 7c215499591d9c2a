// Package harness runs fixture conformance scenarios.
//
// A scenario names a fixture (a file, or synthetic parameters), optional
// setup edits applied to it, and assertions about the result of validating,
// summarizing and storing it. Each scenario runs against a fresh in-memory
// fixture store, so stored_totals assertions check the SQL aggregation path
// against the same fixture.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario checks"
//	fixture: ../ex1/data.js        # relative to the scenario file
//	setup:
//	  - action: set_ballots
//	    collection: PBC1
//	    count: 5
//	assertions:
//	  - type: valid
//	    expect: false
//	  - type: issue
//	    code: E202
//	    count: 2
//	  - type: status
//	    contest: F23
//	    status: mismatch
//	  - type: totals
//	    contest: I
//	    totals: {"1": 15150, "0": 14850}
//
// Instead of fixture, a scenario may give synth parameters; unspecified
// parameters take their defaults:
//
//	synth:
//	  contests: 3
//	  wrong_contests: 1
//	  seed: 4
//
// # Setup Actions
//
//   - set_ballots: collection, count
//   - set_tally: contest, collection, vote, count
//   - set_reported: contest, vote
//   - remove_reported: contest
//   - remove_contest: contest
//
// # Assertion Types
//
//   - valid: the fixture has (expect: true) or lacks error issues
//   - issue: an issue with code (and field, when given) is present,
//     count times when count is given
//   - no_issue: no issue with code is present
//   - status: a contest's outcome status
//   - leaders: a contest's plurality leaders
//   - totals: a contest's per-vote totals (subset match)
//   - stored_totals: like totals, computed by the fixture store in SQL
//   - mismatches: the mismatched contests, or their count
//   - content_hash: the fixture's content hash
package harness
