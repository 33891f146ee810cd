package arraycache

import (
	"github.com/ssargent/tabula/pkg/arraystore"
)

// LongReader is the windowed reader for int64 stores.
type LongReader = Reader[int64]

// DoubleReader is the windowed reader for float64 stores.
type DoubleReader = Reader[float64]

// ReaderStats reports how a reader's lookups were served.
type ReaderStats struct {
	Hits       int64 // Lookups answered from the window
	BulkReads  int64 // Window refills from the store
	WindowSize int   // Window capacity in elements
}

// Reader serves element lookups from a sliding window
// [cachedIndex, cachedIndex+cachedSize) over an array store.
// It is not safe for concurrent use.
type Reader[T arraystore.Element] struct {
	store       *arraystore.Reader[T]
	svc         *Service
	window      []T
	cachedIndex int64
	cachedSize  int
	reserved    int64
	stats       ReaderStats
}

// NewReader opens the store at path with a window sized by the service budget.
func NewReader[T arraystore.Element](s *Service, path string) (*Reader[T], error) {
	store, err := arraystore.Open[T](path)
	if err != nil {
		return nil, err
	}

	size, reserved := s.reserveWindow(path)
	s.logger.Debug("reader opened", "path", path, "count", store.Len(), "window", size)

	return &Reader[T]{
		store:    store,
		svc:      s,
		window:   make([]T, size),
		reserved: reserved,
		stats:    ReaderStats{WindowSize: size},
	}, nil
}

// Len returns the committed element count of the store.
func (r *Reader[T]) Len() int64 {
	return r.store.Len()
}

// Get returns element i, refilling the window from i on a miss.
func (r *Reader[T]) Get(i int64) (T, error) {
	if i >= r.cachedIndex && i < r.cachedIndex+int64(r.cachedSize) {
		r.stats.Hits++
		r.svc.metrics.windowHits.Inc()
		return r.window[i-r.cachedIndex], nil
	}

	var zero T
	if r.window == nil {
		return zero, arraystore.ErrClosed
	}
	count := r.store.Len()
	if i < 0 || i >= count {
		return zero, &arraystore.IndexBoundsError{Index: i, Count: count}
	}

	n := int(min(int64(len(r.window)), count-i))
	if err := r.store.Read(r.window, 0, n, i); err != nil {
		r.cachedSize = 0
		return zero, err
	}
	r.cachedIndex = i
	r.cachedSize = n
	r.stats.BulkReads++
	r.svc.metrics.bulkReads.Inc()

	return r.window[0], nil
}

// Stats returns lookup counters for this reader.
func (r *Reader[T]) Stats() ReaderStats {
	return r.stats
}

// Path returns the store path.
func (r *Reader[T]) Path() string {
	return r.store.Path()
}

// Close closes the store and returns the window to the budget. Later calls are no-ops.
func (r *Reader[T]) Close() error {
	if r.window == nil {
		return nil
	}
	r.svc.releaseWindow(r.reserved)
	r.reserved = 0
	r.window = nil
	r.cachedSize = 0
	return r.store.Close()
}
