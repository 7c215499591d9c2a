package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/ballotfix/internal/election"
)

// marshalComments converts fixture comments to canonical JSON TEXT.
func marshalComments(comments []election.Comment) (string, error) {
	list := make([]any, len(comments))
	for i, c := range comments {
		list[i] = map[string]any{"anchor": c.Anchor, "text": c.Text}
	}
	data, err := election.MarshalCanonical(list)
	if err != nil {
		return "", fmt.Errorf("marshal comments: %w", err)
	}
	return string(data), nil
}

// unmarshalComments parses comments JSON TEXT. An empty list yields nil,
// matching a freshly loaded fixture without comments.
func unmarshalComments(text string) ([]election.Comment, error) {
	var comments []election.Comment
	if err := json.Unmarshal([]byte(text), &comments); err != nil {
		return nil, fmt.Errorf("unmarshal comments: %w", err)
	}
	if len(comments) == 0 {
		return nil, nil
	}
	return comments, nil
}

// decodeShape extracts the contest and collection keys of the "t" map from
// canonical JSON. Empty maps have no tally rows, so this is the only record
// of them.
func decodeShape(canonical string) (map[string][]string, error) {
	var doc struct {
		Tallies map[string]map[string]json.RawMessage `json:"t"`
	}
	if err := json.Unmarshal([]byte(canonical), &doc); err != nil {
		return nil, fmt.Errorf("decode canonical: %w", err)
	}
	shape := make(map[string][]string, len(doc.Tallies))
	for cid, byCollection := range doc.Tallies {
		shape[cid] = election.SortedKeys(byCollection)
	}
	return shape, nil
}
