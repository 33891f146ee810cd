package arraycache

import (
	"github.com/ssargent/tabula/pkg/arraystore"
)

// LongWriter is the staged writer for int64 stores.
type LongWriter = Writer[int64]

// DoubleWriter is the staged writer for float64 stores.
type DoubleWriter = Writer[float64]

// elementSink is the part of arraystore.Writer the stage drains into.
type elementSink[T arraystore.Element] interface {
	AddAll(values []T, begin, end int) error
	Flush() error
	Close() error
	Abort() error
	Len() int64
	Path() string
}

// Writer stages appends in front of an array store writer.
// It is not safe for concurrent use.
type Writer[T arraystore.Element] struct {
	store   elementSink[T]
	stage   []T
	metrics *Metrics
}

// NewWriter creates the store at path and a stage sized by the service.
func NewWriter[T arraystore.Element](s *Service, path string) (*Writer[T], error) {
	store, err := arraystore.NewWriter[T](arraystore.WriterConfig{
		Path:        path,
		BufferSize:  s.opts.BufferSize,
		SyncOnClose: s.opts.SyncOnClose,
	})
	if err != nil {
		return nil, err
	}
	return &Writer[T]{
		store:   store,
		stage:   make([]T, 0, s.opts.StageSize),
		metrics: s.metrics,
	}, nil
}

// Add stages one value and drains the stage exactly when it becomes full.
func (w *Writer[T]) Add(value T) error {
	// A failed drain can leave the stage full
	if len(w.stage) == cap(w.stage) {
		if err := w.drain(); err != nil {
			return err
		}
	}
	w.stage = append(w.stage, value)
	if len(w.stage) == cap(w.stage) {
		return w.drain()
	}
	return nil
}

// AddAll stages values[begin:end] in stage-sized chunks.
func (w *Writer[T]) AddAll(values []T, begin, end int) error {
	if begin < 0 || end > len(values) || begin > end {
		return &arraystore.IndexBoundsError{Index: int64(end), Count: int64(len(values))}
	}
	for begin < end {
		n := min(end-begin, cap(w.stage)-len(w.stage))
		w.stage = append(w.stage, values[begin:begin+n]...)
		begin += n
		if len(w.stage) == cap(w.stage) {
			if err := w.drain(); err != nil {
				return err
			}
		}
	}
	return nil
}

// drain pushes the whole stage through the store writer without committing.
// On failure only the values the store did not accept stay staged.
func (w *Writer[T]) drain() error {
	if len(w.stage) == 0 {
		return nil
	}
	before := w.store.Len()
	if err := w.store.AddAll(w.stage, 0, len(w.stage)); err != nil {
		accepted := int(w.store.Len() - before)
		w.stage = w.stage[:copy(w.stage, w.stage[accepted:])]
		return err
	}
	w.stage = w.stage[:0]
	w.metrics.stageDrains.Inc()
	return nil
}

// Flush drains the stage and commits the store's header count.
func (w *Writer[T]) Flush() error {
	if err := w.drain(); err != nil {
		return err
	}
	if err := w.store.Flush(); err != nil {
		return err
	}
	w.metrics.commits.Inc()
	return nil
}

// Close drains the stage and closes the store, committing the final count.
// A failed drain leaves the writer open.
func (w *Writer[T]) Close() error {
	if err := w.drain(); err != nil {
		return err
	}
	return w.store.Close()
}

// Abort discards staged values and removes the store without committing.
func (w *Writer[T]) Abort() error {
	w.stage = w.stage[:0]
	return w.store.Abort()
}

// Len returns the number of values added, staged or not.
func (w *Writer[T]) Len() int64 {
	return w.store.Len() + int64(len(w.stage))
}

// Path returns the store path.
func (w *Writer[T]) Path() string {
	return w.store.Path()
}
