package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/roach88/ballotfix/internal/election"
	"github.com/roach88/ballotfix/internal/fixture"
	"github.com/roach88/ballotfix/internal/store"
)

// Source describes where a loaded fixture came from.
type Source struct {
	Path        string `json:"path,omitempty"`
	StoreID     string `json:"store_id,omitempty"`
	Name        string `json:"name,omitempty"`
	ContentHash string `json:"content_hash"`
}

func (s Source) String() string {
	if s.StoreID != "" {
		return fmt.Sprintf("%s (%s)", s.Name, shortID(s.StoreID))
	}
	return s.Path
}

// loadElection reads the fixture named by ref. A ref naming an existing file
// is loaded from disk in the given format (inferred when empty); any other
// ref is resolved in the fixture store.
func loadElection(ctx context.Context, opts *RootOptions, ref string, format fixture.Format) (*election.Election, Source, error) {
	if _, err := os.Stat(ref); err == nil || !errors.Is(err, fs.ErrNotExist) || !storeExists(opts) {
		e, err := fixture.Load(ref, format)
		if err != nil {
			return nil, Source{}, err
		}
		hash, err := e.ContentHash()
		if err != nil {
			return nil, Source{}, err
		}
		return e, Source{Path: ref, ContentHash: hash}, nil
	}

	st, err := openStore(opts)
	if err != nil {
		return nil, Source{}, err
	}
	defer st.Close()

	id, err := st.Resolve(ctx, ref)
	if err != nil {
		return nil, Source{}, err
	}
	e, record, err := st.LoadFixture(ctx, id)
	if err != nil {
		return nil, Source{}, err
	}
	return e, Source{StoreID: record.ID, Name: record.Name, ContentHash: record.ContentHash}, nil
}

// openStore opens the fixture store named by --db, creating it if needed.
func openStore(opts *RootOptions) (*store.Store, error) {
	st, err := store.Open(opts.database(), store.WithLogger(opts.logger()))
	if err != nil {
		return nil, fmt.Errorf("open fixture store: %w", err)
	}
	return st, nil
}

// openExistingStore is like openStore but fails when the store file does
// not exist, so read-only commands never create one.
func openExistingStore(opts *RootOptions) (*store.Store, error) {
	if !storeExists(opts) {
		return nil, fmt.Errorf("fixture store %s: %w", opts.database(), store.ErrNotFound)
	}
	return openStore(opts)
}

func storeExists(opts *RootOptions) bool {
	info, err := os.Stat(opts.database())
	return err == nil && !info.IsDir()
}

func (o *RootOptions) database() string {
	if o.Database == "" {
		return "ballotfix.db"
	}
	return o.Database
}

// parseFormatFlag parses a fixture format flag value.
func parseFormatFlag(f *OutputFormatter, name string) (fixture.Format, error) {
	format, err := fixture.ParseFormat(name)
	if err != nil {
		_ = f.Error(ErrCodeInvalidArgs, err.Error(), nil)
		return "", WrapExitError(ExitCommandError, "invalid fixture format", err)
	}
	return format, nil
}

// writeFixture encodes e to path, or to the command output when path is
// empty, and returns the format used. The format defaults to the path's
// extension, then JSON.
func writeFixture(f *OutputFormatter, path string, e *election.Election, format fixture.Format) (fixture.Format, error) {
	if format == "" {
		format = fixture.FormatJSON
		if path != "" {
			if detected, err := fixture.DetectFormat(path); err == nil {
				format = detected
			}
		}
	}
	if path == "" {
		return format, fixture.Write(f.Writer, e, format)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return format, fmt.Errorf("create output directory: %w", err)
		}
	}
	return format, fixture.WriteFile(path, e, format)
}

// defaultName derives a fixture name from a file path: the base name without
// extension, or the parent directory for generic names like data.js.
func defaultName(path string) string {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if base == "data" || base == "fixture" {
		if parent := filepath.Base(filepath.Dir(path)); parent != "." && parent != string(filepath.Separator) {
			return parent
		}
	}
	return base
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
