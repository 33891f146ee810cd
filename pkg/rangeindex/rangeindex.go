// Package rangeindex stores one (begin, end) byte range per logical record in
// a single int64 array store. Record r occupies elements 2r and 2r+1; callers
// only ever see record numbers and Range values.
package rangeindex

import (
	"fmt"
	"sync"

	"github.com/ssargent/tabula/pkg/arraycache"
	"github.com/ssargent/tabula/pkg/arraystore"
)

// Range is the half-open byte range [Begin, End) of one record in its source.
type Range struct {
	Begin int64
	End   int64
}

// Len returns the byte length of the range.
func (r Range) Len() int64 {
	return r.End - r.Begin
}

// Writer appends ranges in record order.
type Writer struct {
	w    *arraycache.LongWriter
	last int64
}

// Create creates a new range index at path through the cache service.
func Create(svc *arraycache.Service, path string) (*Writer, error) {
	w, err := svc.CreateLongWriter(path)
	if err != nil {
		return nil, err
	}
	return &Writer{w: w}, nil
}

// Add appends the next record's range. Ranges must be well formed and must
// not start before the previous range ended.
func (w *Writer) Add(r Range) error {
	if r.Begin < w.last || r.End < r.Begin {
		return fmt.Errorf("rangeindex: range [%d, %d) out of order after offset %d", r.Begin, r.End, w.last)
	}
	if err := w.w.Add(r.Begin); err != nil {
		return err
	}
	if err := w.w.Add(r.End); err != nil {
		return err
	}
	w.last = r.End
	return nil
}

// Len returns the number of ranges added.
func (w *Writer) Len() int64 {
	return w.w.Len() / 2
}

// Close commits the index.
func (w *Writer) Close() error {
	return w.w.Close()
}

// Abort removes the index without committing it.
func (w *Writer) Abort() error {
	return w.w.Abort()
}

// Path returns the index file path.
func (w *Writer) Path() string {
	return w.w.Path()
}

// Reader resolves record numbers to ranges. Unlike the cache reader beneath
// it, Reader is safe for concurrent use, so several cursors can share one.
type Reader struct {
	mu sync.Mutex
	r  *arraycache.LongReader
}

// Open opens the range index at path through the cache service.
func Open(svc *arraycache.Service, path string) (*Reader, error) {
	r, err := svc.OpenLongReader(path)
	if err != nil {
		return nil, err
	}
	if r.Len()%2 != 0 {
		r.Close()
		return nil, arraystore.NewFormatError(path, fmt.Sprintf("odd element count %d for a range index", r.Len()))
	}
	return &Reader{r: r}, nil
}

// Len returns the number of records in the index.
func (x *Reader) Len() int64 {
	return x.r.Len() / 2
}

// Range returns the byte range of record.
func (x *Reader) Range(record int64) (Range, error) {
	if n := x.Len(); record < 0 || record >= n {
		return Range{}, &arraystore.IndexBoundsError{Index: record, Count: n}
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	begin, err := x.r.Get(2 * record)
	if err != nil {
		return Range{}, err
	}
	end, err := x.r.Get(2*record + 1)
	if err != nil {
		return Range{}, err
	}
	return Range{Begin: begin, End: end}, nil
}

// Stats returns the underlying window counters.
func (x *Reader) Stats() arraycache.ReaderStats {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.r.Stats()
}

// Path returns the index file path.
func (x *Reader) Path() string {
	return x.r.Path()
}

// Close closes the index. Later calls are no-ops.
func (x *Reader) Close() error {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.r.Close()
}
