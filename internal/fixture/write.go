package fixture

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/roach88/ballotfix/internal/election"
)

// Encode serializes e in the given format.
func Encode(e *election.Election, format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		return encodeJSON(e)
	case FormatCanonical:
		return e.Canonical()
	case FormatYAML:
		return encodeYAML(e)
	case FormatCUE:
		return encodeCUE(e)
	}
	return nil, fmt.Errorf("unsupported output format %q", format)
}

// Write serializes e to w.
func Write(w io.Writer, e *election.Election, format Format) error {
	data, err := Encode(e, format)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write fixture: %w", err)
	}
	return nil
}

// WriteFile serializes e to path. When format is empty it is inferred from
// the extension.
func WriteFile(path string, e *election.Election, format Format) error {
	if format == "" {
		detected, err := DetectFormat(path)
		if err != nil {
			return err
		}
		format = detected
	}
	data, err := Encode(e, format)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return &LoadError{Code: ErrCodeWriteFailed, Message: err.Error(), Path: path}
	}
	return nil
}

// encodeJSON writes the layout of a hand-maintained fixture: comments before
// the key they describe, n then t then ro, inner keys in canonical order.
func encodeJSON(e *election.Election) ([]byte, error) {
	w := &jsonWriter{}
	w.buf.WriteString("{")

	sections := map[string]func(){
		election.KeyBallots:  func() { w.counts(e.Ballots, 1) },
		election.KeyTallies:  func() { w.tallies(e.Tallies) },
		election.KeyReported: func() { w.outcomes(e.Reported) },
	}
	for _, key := range election.TopLevelKeys {
		for _, text := range e.CommentsBefore(key) {
			w.member(1, election.KeyComment)
			w.str(text)
		}
		w.member(1, key)
		sections[key]()
	}
	for _, text := range e.CommentsBefore("") {
		w.member(1, election.KeyComment)
		w.str(text)
	}

	w.buf.WriteString("\n}\n")
	return w.buf.Bytes(), w.err
}

type jsonWriter struct {
	buf   bytes.Buffer
	first []bool
	err   error
}

// member starts a "key": entry at the given depth, handling commas.
func (w *jsonWriter) member(depth int, key string) {
	for len(w.first) <= depth {
		w.first = append(w.first, true)
	}
	if !w.first[depth] {
		w.buf.WriteByte(',')
	}
	w.first[depth] = false
	w.buf.WriteByte('\n')
	w.indent(depth)
	w.str(key)
	w.buf.WriteString(": ")
}

func (w *jsonWriter) open(depth int) {
	w.buf.WriteByte('{')
	for len(w.first) <= depth {
		w.first = append(w.first, true)
	}
	w.first[depth] = true
}

func (w *jsonWriter) close(depth int, empty bool) {
	if !empty {
		w.buf.WriteByte('\n')
		w.indent(depth - 1)
	}
	w.buf.WriteByte('}')
}

func (w *jsonWriter) indent(depth int) {
	for i := 0; i < depth; i++ {
		w.buf.WriteString("  ")
	}
}

func (w *jsonWriter) counts(m map[string]int64, depth int) {
	w.open(depth + 1)
	for _, k := range election.SortedKeys(m) {
		w.member(depth+1, k)
		w.buf.WriteString(strconv.FormatInt(m[k], 10))
	}
	w.close(depth+1, len(m) == 0)
}

func (w *jsonWriter) tallies(t map[string]map[string]map[string]int64) {
	w.open(2)
	for _, cid := range election.SortedKeys(t) {
		w.member(2, cid)
		w.open(3)
		for _, pbcid := range election.SortedKeys(t[cid]) {
			w.member(3, pbcid)
			w.counts(t[cid][pbcid], 3)
		}
		w.close(3, len(t[cid]) == 0)
	}
	w.close(2, len(t) == 0)
}

func (w *jsonWriter) outcomes(ro map[string]string) {
	w.open(2)
	for _, cid := range election.SortedKeys(ro) {
		w.member(2, cid)
		w.str(ro[cid])
	}
	w.close(2, len(ro) == 0)
}

// str writes a JSON string without HTML escaping, so ids survive a round
// trip byte for byte.
func (w *jsonWriter) str(s string) {
	var b bytes.Buffer
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil && w.err == nil {
		w.err = err
	}
	w.buf.Write(bytes.TrimSuffix(b.Bytes(), []byte("\n")))
}
