// Package cursor resolves row numbers of an indexed source to decoded
// field values.
package cursor

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync/atomic"

	"github.com/ssargent/tabula/pkg/arraycache"
	"github.com/ssargent/tabula/pkg/arraystore"
	"github.com/ssargent/tabula/pkg/rangeindex"
	"github.com/ssargent/tabula/pkg/schema"
	"github.com/ssargent/tabula/pkg/tokenizer"
)

// Config describes a finished index and the source it was built from.
type Config struct {
	IndexPath  string
	SourcePath string
	Tokenizer  tokenizer.Config
	Fields     []schema.FieldAttr
	MaxColumns int // 0 uses len(Fields)

	Factory tokenizer.Factory // nil uses tokenizer.DefaultFactory
}

// shared is owned by the primary cursor and borrowed by search cursors.
type shared struct {
	cfg    Config
	index  *rangeindex.Reader
	source *os.File
	closed atomic.Bool
}

// Cursor reads rows from an indexed source. A Cursor keeps the last decoded
// row and is not safe for concurrent use; use OpenSearchCursor for a second
// position on another goroutine.
type Cursor struct {
	shared *shared
	owner  bool
	closed bool

	cachedRow    int64
	cachedValues []schema.Value
}

// Open opens the index through svc together with its source file.
func Open(cfg Config, svc *arraycache.Service) (*Cursor, error) {
	if cfg.IndexPath == "" || cfg.SourcePath == "" {
		return nil, fmt.Errorf("cursor: index and source paths are required")
	}
	if cfg.Factory == nil {
		cfg.Factory = tokenizer.DefaultFactory
	}
	if cfg.MaxColumns < len(cfg.Fields) {
		cfg.MaxColumns = len(cfg.Fields)
	}

	index, err := rangeindex.Open(svc, cfg.IndexPath)
	if err != nil {
		return nil, err
	}
	source, err := os.Open(cfg.SourcePath)
	if err != nil {
		index.Close()
		return nil, fmt.Errorf("cursor: failed to open source: %w", err)
	}

	return newCursor(&shared{cfg: cfg, index: index, source: source}, true), nil
}

func newCursor(s *shared, owner bool) *Cursor {
	return &Cursor{shared: s, owner: owner, cachedRow: -1}
}

// RecordSize returns the number of rows.
func (c *Cursor) RecordSize() int64 {
	return c.shared.index.Len()
}

// Fields returns the column table.
func (c *Cursor) Fields() []schema.FieldAttr {
	return append([]schema.FieldAttr(nil), c.shared.cfg.Fields...)
}

// MaxColumns returns the width every decoded row is padded to.
func (c *Cursor) MaxColumns() int {
	return c.shared.cfg.MaxColumns
}

// Record returns the decoded values of row, padded with nil to MaxColumns.
// The returned slice is reused while row stays cached and must not be modified.
func (c *Cursor) Record(row int64) ([]schema.Value, error) {
	if c.closed || c.shared.closed.Load() {
		return nil, arraystore.ErrClosed
	}
	if n := c.RecordSize(); row < 0 || row >= n {
		return nil, &arraystore.IndexBoundsError{Index: row, Count: n}
	}
	if row == c.cachedRow {
		return c.cachedValues, nil
	}

	rng, err := c.shared.index.Range(row)
	if err != nil {
		return nil, err
	}

	cfg := c.shared.cfg
	section := io.NewSectionReader(c.shared.source, rng.Begin, rng.Len())
	tok, err := cfg.Factory(section, cfg.Tokenizer, rng.Begin)
	if err != nil {
		return nil, err
	}
	fields, err := tok.Next()
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("cursor: failed to read row %d: %w", row, err)
	}

	c.cachedValues = schema.DecodeRecord(cfg.Fields, fields, cfg.MaxColumns)
	c.cachedRow = row
	return c.cachedValues, nil
}

// OpenSearchCursor returns a cursor with its own cache and source position
// that shares this cursor's index and source handle.
func (c *Cursor) OpenSearchCursor() (*Cursor, error) {
	if c.closed || c.shared.closed.Load() {
		return nil, arraystore.ErrClosed
	}
	return newCursor(c.shared, false), nil
}

// IndexStats returns the window counters of the shared index reader.
func (c *Cursor) IndexStats() arraycache.ReaderStats {
	return c.shared.index.Stats()
}

// Close releases the cursor. Closing the cursor returned by Open also closes
// the shared index and source, after which search cursors fail with
// arraystore.ErrClosed. Later calls are no-ops.
func (c *Cursor) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	c.cachedValues = nil
	c.cachedRow = -1
	if !c.owner {
		return nil
	}

	c.shared.closed.Store(true)
	return errors.Join(c.shared.index.Close(), c.shared.source.Close())
}
