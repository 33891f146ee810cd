package table

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/ssargent/tabula/pkg/catalog"
	"github.com/ssargent/tabula/pkg/cursor"
	"github.com/ssargent/tabula/pkg/schema"
)

// checkEvery is how many rows a search reads between context checks.
const checkEvery = 1024

// Table is an open, indexed table. Table is safe for concurrent use.
type Table struct {
	mu     sync.Mutex
	entry  *catalog.Entry
	cursor *cursor.Cursor
}

// Entry returns the catalog entry.
func (t *Table) Entry() *catalog.Entry {
	return t.entry
}

// RecordSize returns the number of rows.
func (t *Table) RecordSize() int64 {
	return t.cursor.RecordSize()
}

// Record returns a copy of one decoded row.
func (t *Table) Record(row int64) ([]schema.Value, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	values, err := t.cursor.Record(row)
	if err != nil {
		return nil, err
	}
	return append([]schema.Value(nil), values...), nil
}

// Rows returns up to limit rows starting at offset. An offset at or past the
// end yields no rows.
func (t *Table) Rows(offset, limit int64) ([][]schema.Value, error) {
	if offset < 0 || limit < 0 {
		return nil, fmt.Errorf("table: negative offset or limit")
	}
	end := offset + limit
	if n := t.RecordSize(); end > n {
		end = n
	}

	rows := make([][]schema.Value, 0, max(end-offset, 0))
	for row := offset; row < end; row++ {
		values, err := t.Record(row)
		if err != nil {
			return nil, err
		}
		rows = append(rows, values)
	}
	return rows, nil
}

// Search returns the rows for which match is true. It reads through its own
// search cursor, so it does not disturb the table's cached row.
func (t *Table) Search(ctx context.Context, match func([]schema.Value) bool) (*roaring.Bitmap, error) {
	n := t.RecordSize()
	if n > math.MaxUint32 {
		return nil, fmt.Errorf("table: %d rows exceed the search limit", n)
	}

	t.mu.Lock()
	search, err := t.cursor.OpenSearchCursor()
	t.mu.Unlock()
	if err != nil {
		return nil, err
	}
	defer search.Close()

	hits := roaring.New()
	for row := int64(0); row < n; row++ {
		if row%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		values, err := search.Record(row)
		if err != nil {
			return nil, err
		}
		if match(values) {
			hits.Add(uint32(row))
		}
	}
	return hits, nil
}

// Find returns the rows whose column contains needle, ignoring case.
func (t *Table) Find(ctx context.Context, column, needle string) (*roaring.Bitmap, error) {
	col, err := ColumnIndex(t.entry, column)
	if err != nil {
		return nil, err
	}
	needle = strings.ToLower(needle)

	return t.Search(ctx, func(values []schema.Value) bool {
		if col >= len(values) || values[col] == nil {
			return false
		}
		return strings.Contains(strings.ToLower(fmt.Sprint(values[col])), needle)
	})
}

// Close closes the table.
func (t *Table) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cursor.Close()
}
