package fixture

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/roach88/ballotfix/internal/election"
)

// jsonDecoder walks a fixture document token by token. encoding/json's
// Unmarshal keeps only the last of repeated keys, which would lose all but
// one "__comment".
type jsonDecoder struct {
	data []byte
	name string
	dec  *json.Decoder
}

func decodeJSON(data []byte, name string) (*election.Election, error) {
	d := &jsonDecoder{data: data, name: name, dec: json.NewDecoder(bytes.NewReader(data))}
	return d.decode()
}

func (d *jsonDecoder) decode() (*election.Election, error) {
	tok, err := d.dec.Token()
	if err != nil {
		return nil, d.syntaxError(err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, d.errorAt(ErrCodeParse, "", "fixture must be a JSON object", 0)
	}

	e := election.New()
	seen := make(map[string]bool, len(election.TopLevelKeys))
	var pending []string

	for d.dec.More() {
		tok, err := d.dec.Token()
		if err != nil {
			return nil, d.syntaxError(err)
		}
		key, _ := tok.(string)
		keyOffset := d.dec.InputOffset()

		if key == election.KeyComment {
			var text string
			if err := d.dec.Decode(&text); err != nil {
				return nil, d.errorAt(ErrCodeParse, key, "comment must be a string", keyOffset)
			}
			pending = append(pending, text)
			continue
		}

		switch key {
		case election.KeyBallots, election.KeyTallies, election.KeyReported:
		default:
			return nil, d.errorAt(ErrCodeUnknownKey, key,
				fmt.Sprintf("unknown top-level key %q: expected one of %v", key, election.TopLevelKeys), keyOffset)
		}
		if seen[key] {
			return nil, d.errorAt(ErrCodeDuplicateKey, key, fmt.Sprintf("top-level key %q given twice", key), keyOffset)
		}
		seen[key] = true

		for _, text := range pending {
			e.AddComment(key, text)
		}
		pending = nil

		var raw json.RawMessage
		if err := d.dec.Decode(&raw); err != nil {
			return nil, d.syntaxError(err)
		}
		if err := d.decodeSection(e, key, raw, keyOffset); err != nil {
			return nil, err
		}
	}

	if _, err := d.dec.Token(); err != nil {
		return nil, d.syntaxError(err)
	}
	for _, text := range pending {
		e.AddComment("", text)
	}

	if tok, err := d.dec.Token(); err != io.EOF {
		if err != nil {
			return nil, d.syntaxError(err)
		}
		return nil, d.errorAt(ErrCodeParse, "", fmt.Sprintf("unexpected data after fixture object: %v", tok), d.dec.InputOffset())
	}

	return e, nil
}

func (d *jsonDecoder) decodeSection(e *election.Election, key string, raw json.RawMessage, offset int64) error {
	switch key {
	case election.KeyBallots:
		counts, err := d.decodeCounts(raw, key, offset)
		if err != nil {
			return err
		}
		e.Ballots = counts

	case election.KeyTallies:
		contests, err := d.decodeObject(raw, key, offset)
		if err != nil {
			return err
		}
		for cid, contestRaw := range contests {
			collections, err := d.decodeObject(contestRaw, key+"."+cid, offset)
			if err != nil {
				return err
			}
			e.Tallies[cid] = make(map[string]map[string]int64, len(collections))
			for pbcid, collectionRaw := range collections {
				field := key + "." + cid + "." + pbcid
				counts, err := d.decodeCounts(collectionRaw, field, offset)
				if err != nil {
					return err
				}
				e.Tallies[cid][pbcid] = counts
			}
		}

	case election.KeyReported:
		outcomes, err := d.decodeObject(raw, key, offset)
		if err != nil {
			return err
		}
		for cid, vidRaw := range outcomes {
			var vid string
			if err := json.Unmarshal(vidRaw, &vid); err != nil {
				return d.errorAt(ErrCodeParse, key+"."+cid, "reported outcome must be a string", offset)
			}
			e.Reported[cid] = vid
		}
	}
	return nil
}

// decodeObject decodes raw as a JSON object, dropping nested "__comment"
// keys. A key given twice is an error rather than last-one-wins.
func (d *jsonDecoder) decodeObject(raw json.RawMessage, field string, offset int64) (map[string]json.RawMessage, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return nil, d.errorAt(ErrCodeParse, field, "expected a JSON object", offset)
	}
	obj := make(map[string]json.RawMessage)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, d.errorAt(ErrCodeParse, field, "expected a JSON object", offset)
		}
		key, _ := tok.(string)
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, d.errorAt(ErrCodeParse, field+"."+key, "expected a JSON value", offset)
		}
		if key == election.KeyComment {
			continue
		}
		if _, dup := obj[key]; dup {
			return nil, d.errorAt(ErrCodeDuplicateKey, field+"."+key,
				fmt.Sprintf("key %q given twice in %s", key, field), offset)
		}
		obj[key] = value
	}
	return obj, nil
}

func (d *jsonDecoder) decodeCounts(raw json.RawMessage, field string, offset int64) (map[string]int64, error) {
	obj, err := d.decodeObject(raw, field, offset)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(obj))
	for id, valueRaw := range obj {
		n, err := parseCount(valueRaw)
		if err != nil {
			return nil, d.errorAt(ErrCodeNotInteger, field+"."+id, err.Error(), offset)
		}
		counts[id] = n
	}
	return counts, nil
}

// parseCount accepts only JSON integer literals.
func parseCount(raw json.RawMessage) (int64, error) {
	text := strings.TrimSpace(string(raw))
	n, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("count must be an integer, got %s", text)
	}
	return n, nil
}

func (d *jsonDecoder) syntaxError(err error) error {
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return d.errorAt(ErrCodeParse, "", syntaxErr.Error(), syntaxErr.Offset)
	}
	if err == io.EOF || errors.Is(err, io.ErrUnexpectedEOF) {
		return d.errorAt(ErrCodeParse, "", "unexpected end of fixture", int64(len(d.data)))
	}
	return d.errorAt(ErrCodeParse, "", err.Error(), d.dec.InputOffset())
}

func (d *jsonDecoder) errorAt(code, field, message string, offset int64) error {
	line, col := lineCol(d.data, offset)
	return &LoadError{Code: code, Message: message, Path: d.name, Field: field, Line: line, Column: col}
}
