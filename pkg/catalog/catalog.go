// Package catalog persists the metadata of indexed tables in pebble.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/segmentio/ksuid"
	"github.com/ssargent/tabula/pkg/schema"
	"github.com/ssargent/tabula/pkg/tokenizer"
)

// ErrNotFound is returned for an unknown table.
var ErrNotFound = errors.New("catalog: table not found")

var (
	tablePrefix = []byte("table/")
	tableEnd    = []byte("table0") // '0' follows '/'
)

// Entry describes one indexed table.
type Entry struct {
	ID            ksuid.KSUID        `json:"id"`
	Name          string             `json:"name"`
	SourcePath    string             `json:"source_path"`
	SourceSize    int64              `json:"source_size"`
	SourceModTime time.Time          `json:"source_mod_time"`
	SourceDigest  uint64             `json:"source_digest,omitempty"`
	IndexPath     string             `json:"index_path"`
	Tokenizer     tokenizer.Config   `json:"tokenizer"`
	HasHeader     bool               `json:"has_header"`
	DetectTypes   bool               `json:"detect_types"`
	Fields        []schema.FieldAttr `json:"fields"`
	Records       int64              `json:"records"`
	MaxColumns    int                `json:"max_columns"`
	Stats         tokenizer.Stats    `json:"stats"`
	CreatedAt     time.Time          `json:"created_at"`
}

// Catalog is a pebble-backed table registry.
type Catalog struct {
	db *pebble.DB
}

// Open opens or creates the catalog database in dir.
func Open(dir string) (*Catalog, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("catalog: failed to open %s: %w", dir, err)
	}
	return &Catalog{db: db}, nil
}

// ParseID parses a table ID.
func ParseID(s string) (ksuid.KSUID, error) {
	id, err := ksuid.Parse(s)
	if err != nil {
		return ksuid.Nil, fmt.Errorf("catalog: invalid table id %q: %w", s, err)
	}
	return id, nil
}

// NewID returns a new time-ordered table ID.
func NewID() ksuid.KSUID {
	return ksuid.New()
}

func tableKey(id ksuid.KSUID) []byte {
	return append(append([]byte(nil), tablePrefix...), id.String()...)
}

// Put stores e, assigning an ID and creation time when they are unset.
func (c *Catalog) Put(e *Entry) error {
	if e.ID == ksuid.Nil {
		e.ID = NewID()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = e.ID.Time()
	}

	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("catalog: failed to encode entry: %w", err)
	}
	return c.db.Set(tableKey(e.ID), data, pebble.Sync)
}

// Get returns the entry for id.
func (c *Catalog) Get(id ksuid.KSUID) (*Entry, error) {
	data, closer, err := c.db.Get(tableKey(id))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	return decodeEntry(data)
}

// Lookup resolves a table by ID or, failing that, by the name of the most
// recently created table with that name.
func (c *Catalog) Lookup(ref string) (*Entry, error) {
	if id, err := ksuid.Parse(ref); err == nil {
		return c.Get(id)
	}

	entries, err := c.List()
	if err != nil {
		return nil, err
	}
	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i].Name == ref {
			return entries[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, ref)
}

// List returns all entries ordered by ID, which is creation order.
func (c *Catalog) List() ([]*Entry, error) {
	iter, err := c.db.NewIter(&pebble.IterOptions{
		LowerBound: tablePrefix,
		UpperBound: tableEnd,
	})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var entries []*Entry
	for valid := iter.First(); valid; valid = iter.Next() {
		e, err := decodeEntry(iter.Value())
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := iter.Error(); err != nil {
		return nil, err
	}

	sort.Slice(entries, func(i, j int) bool {
		return ksuid.Compare(entries[i].ID, entries[j].ID) < 0
	})
	return entries, nil
}

// Delete removes the entry for id.
func (c *Catalog) Delete(id ksuid.KSUID) error {
	if _, err := c.Get(id); err != nil {
		return err
	}
	return c.db.Delete(tableKey(id), pebble.Sync)
}

// Close closes the database.
func (c *Catalog) Close() error {
	return c.db.Close()
}

func decodeEntry(data []byte) (*Entry, error) {
	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("catalog: corrupted entry: %w", err)
	}
	return &e, nil
}
