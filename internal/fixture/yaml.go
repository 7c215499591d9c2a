package fixture

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/ballotfix/internal/election"
)

func decodeYAML(data []byte, name string) (*election.Election, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &LoadError{Code: ErrCodeParse, Message: err.Error(), Path: name}
	}

	e := election.New()
	if doc.Kind == 0 {
		// Empty document.
		return e, nil
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return nil, &LoadError{Code: ErrCodeParse, Message: "fixture must be a YAML mapping", Path: name, Line: doc.Line, Column: doc.Column}
	}
	root := doc.Content[0]

	// Comments above the first key may be attached to the document or the
	// mapping instead of the key, depending on blank lines.
	leading := append(splitYAMLComment(doc.HeadComment), splitYAMLComment(root.HeadComment)...)

	seen := make(map[string]bool, len(election.TopLevelKeys))
	var pending []string
	pending = append(pending, leading...)

	for i := 0; i+1 < len(root.Content); i += 2 {
		keyNode, valueNode := root.Content[i], root.Content[i+1]
		key := keyNode.Value
		pending = append(pending, splitYAMLComment(keyNode.HeadComment)...)

		if key == election.KeyComment {
			var text string
			if err := valueNode.Decode(&text); err != nil {
				return nil, yamlError(name, ErrCodeParse, key, "comment must be a string", keyNode)
			}
			pending = append(pending, text)
			continue
		}

		switch key {
		case election.KeyBallots, election.KeyTallies, election.KeyReported:
		default:
			return nil, yamlError(name, ErrCodeUnknownKey, key,
				fmt.Sprintf("unknown top-level key %q: expected one of %v", key, election.TopLevelKeys), keyNode)
		}
		if seen[key] {
			return nil, yamlError(name, ErrCodeDuplicateKey, key, fmt.Sprintf("top-level key %q given twice", key), keyNode)
		}
		seen[key] = true

		for _, text := range pending {
			e.AddComment(key, text)
		}
		pending = nil

		if err := decodeYAMLSection(e, key, valueNode); err != nil {
			code := ErrCodeParse
			if strings.Contains(err.Error(), "cannot unmarshal") {
				code = ErrCodeNotInteger
			}
			return nil, yamlError(name, code, key, err.Error(), valueNode)
		}

		pending = append(pending, splitYAMLComment(valueNode.FootComment)...)
	}

	pending = append(pending, splitYAMLComment(root.FootComment)...)
	pending = append(pending, splitYAMLComment(doc.FootComment)...)
	for _, text := range pending {
		e.AddComment("", text)
	}

	return e, nil
}

func decodeYAMLSection(e *election.Election, key string, node *yaml.Node) error {
	switch key {
	case election.KeyBallots:
		counts := make(map[string]int64)
		if err := node.Decode(&counts); err != nil {
			return err
		}
		e.Ballots = counts

	case election.KeyTallies:
		tallies := make(map[string]map[string]map[string]int64)
		if err := node.Decode(&tallies); err != nil {
			return err
		}
		for cid, byCollection := range tallies {
			if byCollection == nil {
				byCollection = make(map[string]map[string]int64)
			}
			for pbcid, byVote := range byCollection {
				if byVote == nil {
					byCollection[pbcid] = make(map[string]int64)
				}
			}
			e.Tallies[cid] = byCollection
		}

	case election.KeyReported:
		reported := make(map[string]string)
		if err := node.Decode(&reported); err != nil {
			return err
		}
		e.Reported = reported
	}
	return nil
}

// splitYAMLComment turns "# a\n# b" into ["a", "b"].
func splitYAMLComment(comment string) []string {
	if comment == "" {
		return nil
	}
	var texts []string
	for _, line := range strings.Split(comment, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		line = strings.TrimPrefix(line, "#")
		line = strings.TrimPrefix(line, " ")
		texts = append(texts, line)
	}
	return texts
}

func yamlError(name, code, field, message string, node *yaml.Node) error {
	return &LoadError{Code: code, Message: message, Path: name, Field: field, Line: node.Line, Column: node.Column}
}

func encodeYAML(e *election.Election) ([]byte, error) {
	root := &yaml.Node{Kind: yaml.MappingNode}

	sections := map[string]any{
		election.KeyBallots:  e.Ballots,
		election.KeyTallies:  e.Tallies,
		election.KeyReported: e.Reported,
	}
	for _, key := range election.TopLevelKeys {
		keyNode := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}
		if texts := e.CommentsBefore(key); len(texts) > 0 {
			keyNode.HeadComment = joinYAMLComment(texts)
		}
		valueNode := &yaml.Node{}
		if err := valueNode.Encode(sections[key]); err != nil {
			return nil, fmt.Errorf("encode %s: %w", key, err)
		}
		root.Content = append(root.Content, keyNode, valueNode)
	}
	if texts := e.CommentsBefore(""); len(texts) > 0 {
		root.FootComment = joinYAMLComment(texts)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{root}}); err != nil {
		return nil, fmt.Errorf("encode yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode yaml: %w", err)
	}
	return buf.Bytes(), nil
}

func joinYAMLComment(texts []string) string {
	lines := make([]string, len(texts))
	for i, text := range texts {
		lines[i] = "# " + strings.ReplaceAll(text, "\n", " ")
	}
	return strings.Join(lines, "\n")
}
