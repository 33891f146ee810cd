package arraystore

import (
	"fmt"
	"io"
	"os"
)

// Reader provides random access to the elements of a finished store
type Reader[T Element] struct {
	file   *os.File
	path   string
	count  int64
	buf    *scratch
	closed bool
}

// Open opens the store at path with the default read buffer
func Open[T Element](path string) (*Reader[T], error) {
	return NewReader[T](ReaderConfig{Path: path})
}

// NewReader opens a store and validates its header and length
func NewReader[T Element](config ReaderConfig) (*Reader[T], error) {
	if config.ReadBuffer <= 0 {
		config.ReadBuffer = DefaultReadBuffer
	}

	file, err := os.Open(config.Path)
	if err != nil {
		return nil, &IOError{Op: "open", Path: config.Path, Err: err}
	}

	header, err := DecodeHeader(file, config.Path)
	if err != nil {
		file.Close()
		return nil, err
	}
	if want := kindOf[T](); header.Kind != want {
		file.Close()
		return nil, &FormatError{
			Path:   config.Path,
			Reason: fmt.Sprintf("element kind %s, want %s", header.Kind, want),
		}
	}

	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, &IOError{Op: "stat", Path: config.Path, Err: err}
	}
	// A longer file only carries an uncommitted tail, a shorter one lost committed data
	if need := DataOffset(int64(header.ValueCount)); stat.Size() < need {
		file.Close()
		return nil, &FormatError{
			Path:   config.Path,
			Reason: fmt.Sprintf("file truncated: %d bytes, header declares %d elements (%d bytes)", stat.Size(), header.ValueCount, need),
			cause:  io.ErrUnexpectedEOF,
		}
	}

	return &Reader[T]{
		file:  file,
		path:  config.Path,
		count: int64(header.ValueCount),
		buf:   newScratch(config.ReadBuffer * ElementSize),
	}, nil
}

// Len returns the committed element count
func (r *Reader[T]) Len() int64 {
	return r.count
}

// Get returns element i
func (r *Reader[T]) Get(i int64) (T, error) {
	var one [1]T
	if i < 0 || i >= r.count {
		return one[0], &IndexBoundsError{Index: i, Count: r.count}
	}
	if err := r.Read(one[:], 0, 1, i); err != nil {
		return one[0], err
	}
	return one[0], nil
}

// Read fills dst[destBegin:destEnd] with contiguous elements starting at storeIndex
func (r *Reader[T]) Read(dst []T, destBegin, destEnd int, storeIndex int64) error {
	if r.closed {
		return ErrClosed
	}
	if destBegin < 0 || destEnd > len(dst) || destBegin > destEnd {
		return fmt.Errorf("arraystore: invalid destination range [%d, %d) for length %d", destBegin, destEnd, len(dst))
	}

	n := destEnd - destBegin
	if n == 0 {
		return nil
	}
	if storeIndex < 0 {
		return &IndexBoundsError{Index: storeIndex, Count: r.count}
	}
	if last := storeIndex + int64(n) - 1; last >= r.count {
		return &IndexBoundsError{Index: last, Count: r.count}
	}

	want := n * ElementSize
	data := r.buf.ensureCapacity(want)
	got, err := r.file.ReadAt(data, DataOffset(storeIndex))
	if got != want {
		if err != nil && err != io.EOF {
			return &IOError{Op: "read", Path: r.path, Err: err}
		}
		return &FormatError{
			Path:   r.path,
			Reason: fmt.Sprintf("short read at element %d: %d of %d bytes", storeIndex, got, want),
			cause:  io.ErrUnexpectedEOF,
		}
	}

	for i := 0; i < n; i++ {
		dst[destBegin+i] = getElement[T](data[i*ElementSize:])
	}
	return nil
}

// Path returns the file path
func (r *Reader[T]) Path() string {
	return r.path
}

// Close closes the reader. Later calls are no-ops.
func (r *Reader[T]) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	if err := r.file.Close(); err != nil {
		return &IOError{Op: "close", Path: r.path, Err: err}
	}
	return nil
}
