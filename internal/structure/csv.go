package structure

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/roach88/ballotfix/internal/validate"
)

// Table is a parsed CSV file with a single header row.
type Table struct {
	Path   string
	Header []string
	Rows   []Row
}

// Row is one data row.
//
// In a varlen table the last header column collects zero or more values
// into List, and Fields has no entry for it.
type Row struct {
	Line   int
	Fields map[string]string
	List   []string
}

// Get returns the trimmed value of column name, or "" when absent.
func (r Row) Get(name string) string {
	return r.Fields[name]
}

// ReadCSV reads a CSV file whose first row names the columns. Values are
// trimmed of surrounding whitespace.
//
// In a regular table, short rows are padded with "" and extra non-empty
// values produce a warning. In a varlen table, the last column and any
// overflow cells are collected into Row.List with trailing empty cells
// dropped.
func ReadCSV(path string, varlen bool) (*Table, []validate.Issue, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return parseCSV(f, path, varlen)
}

func parseCSV(r io.Reader, path string, varlen bool) (*Table, []validate.Issue, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, fmt.Errorf("%s: missing header row", path)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}

	var issues []validate.Issue
	header = trimAll(header)
	// A header ending in "," yields empty trailing names.
	for len(header) > 0 && header[len(header)-1] == "" {
		header = header[:len(header)-1]
	}
	if len(header) == 0 {
		return nil, nil, fmt.Errorf("%s: empty header row", path)
	}
	seen := make(map[string]bool, len(header))
	for _, name := range header {
		if seen[name] {
			issues = append(issues, warning(WarnMalformedRow, location(path, 1), "column %q given twice", name))
		}
		seen[name] = true
	}

	table := &Table{Path: path, Header: header}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", path, err)
		}
		line, _ := reader.FieldPos(0)
		record = trimAll(record)
		if allEmpty(record) {
			continue
		}

		row := Row{Line: line, Fields: make(map[string]string, len(header))}
		fixed := header
		if varlen {
			fixed = header[:len(header)-1]
		}
		for i, name := range fixed {
			if i < len(record) {
				row.Fields[name] = record[i]
			} else {
				row.Fields[name] = ""
			}
		}

		if varlen {
			if len(record) > len(fixed) {
				row.List = dropTrailingEmpty(record[len(fixed):])
			}
			if row.List == nil {
				row.List = []string{}
			}
		} else if len(record) > len(header) && !allEmpty(record[len(header):]) {
			issues = append(issues, warning(WarnMalformedRow, location(path, line),
				"row has %d values but the header names %d columns; extra values ignored", len(record), len(header)))
		}

		table.Rows = append(table.Rows, row)
	}
	return table, issues, nil
}

func trimAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.TrimSpace(v)
	}
	return out
}

func allEmpty(values []string) bool {
	for _, v := range values {
		if v != "" {
			return false
		}
	}
	return true
}

func dropTrailingEmpty(values []string) []string {
	end := len(values)
	for end > 0 && values[end-1] == "" {
		end--
	}
	if end == 0 {
		return nil
	}
	return append([]string(nil), values[:end]...)
}
