package arraystore

import (
	"os"
	"path/filepath"
	"sync"
)

// Writer handles sequential, buffered appends to a new array store
type Writer[T Element] struct {
	file      *os.File
	config    WriterConfig
	buf       []byte // BufferSize elements, encoded
	pending   int    // Elements buffered but not yet written
	committed uint64 // Elements written and reflected in the header
	closed    bool
	closeErr  error // Returned by Close once the handle is gone
	mutex     sync.Mutex
}

// NewWriter creates (truncating) the target file and writes a provisional header
func NewWriter[T Element](config WriterConfig) (*Writer[T], error) {
	if config.BufferSize <= 0 {
		config.BufferSize = DefaultBufferSize
	}

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(config.Path), 0750); err != nil {
		return nil, &IOError{Op: "create dir", Path: config.Path, Err: err}
	}

	// Truncation waits until the lock is held so a live writer is never clobbered
	file, err := os.OpenFile(config.Path, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return nil, &IOError{Op: "open", Path: config.Path, Err: err}
	}
	if err := tryLockExclusive(file); err != nil {
		_ = file.Close()
		if err == ErrLocked {
			return nil, err
		}
		return nil, &IOError{Op: "lock", Path: config.Path, Err: err}
	}
	if err := file.Truncate(0); err != nil {
		_ = unlockFile(file)
		_ = file.Close()
		return nil, &IOError{Op: "truncate", Path: config.Path, Err: err}
	}

	header := Header{Kind: kindOf[T](), ValueCount: 0}
	if _, err := file.WriteAt(header.Encode(), 0); err != nil {
		_ = unlockFile(file)
		_ = file.Close()
		return nil, &IOError{Op: "write header", Path: config.Path, Err: err}
	}

	return &Writer[T]{
		file:   file,
		config: config,
		buf:    make([]byte, config.BufferSize*ElementSize),
	}, nil
}

// Add appends one value, flushing when the buffer becomes full. If that flush
// fails the value stays buffered and the next call retries the flush.
func (w *Writer[T]) Add(value T) error {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	if w.closed {
		return ErrClosed
	}

	// A failed flush leaves the buffer full
	if w.pending == w.config.BufferSize {
		if err := w.flush(); err != nil {
			return err
		}
	}

	putElement(w.buf[w.pending*ElementSize:], value)
	w.pending++
	if w.pending == w.config.BufferSize {
		return w.flush()
	}
	return nil
}

// AddAll appends values[begin:end], cycling the buffer as often as needed
func (w *Writer[T]) AddAll(values []T, begin, end int) error {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	if w.closed {
		return ErrClosed
	}
	if begin < 0 || end > len(values) || begin > end {
		return &IndexBoundsError{Index: int64(end), Count: int64(len(values))}
	}

	for begin < end {
		if w.pending == w.config.BufferSize {
			if err := w.flush(); err != nil {
				return err
			}
		}

		n := min(end-begin, w.config.BufferSize-w.pending)
		for i := 0; i < n; i++ {
			putElement(w.buf[(w.pending+i)*ElementSize:], values[begin+i])
		}
		w.pending += n
		begin += n

		if w.pending == w.config.BufferSize {
			if err := w.flush(); err != nil {
				return err
			}
		}
	}
	return nil
}

// Flush writes buffered values and commits the new count to the header
func (w *Writer[T]) Flush() error {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	if w.closed {
		return ErrClosed
	}
	return w.flush()
}

// flush performs the actual write and commit (internal method)
func (w *Writer[T]) flush() error {
	if w.pending > 0 {
		data := w.buf[:w.pending*ElementSize]
		if _, err := w.file.WriteAt(data, DataOffset(int64(w.committed))); err != nil {
			return &IOError{Op: "write", Path: w.config.Path, Err: err}
		}
		w.committed += uint64(w.pending)
		w.pending = 0
	}

	// Only the count field is rewritten; the marker and reserved bytes stay as created
	if _, err := w.file.WriteAt(encodeCount(w.committed), int64(countOffset)); err != nil {
		return &IOError{Op: "commit", Path: w.config.Path, Err: err}
	}
	return nil
}

// Close flushes, optionally syncs and releases the file. If the flush or sync
// fails the writer stays open, so Close can be retried or the store aborted.
// Once the handle is released later calls return the same result.
func (w *Writer[T]) Close() error {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	if w.closed {
		return w.closeErr
	}

	if err := w.flush(); err != nil {
		return err
	}
	if w.config.SyncOnClose {
		if err := w.file.Sync(); err != nil {
			return &IOError{Op: "sync", Path: w.config.Path, Err: err}
		}
	}

	w.closed = true
	_ = unlockFile(w.file)
	if err := w.file.Close(); err != nil {
		w.closeErr = &IOError{Op: "close", Path: w.config.Path, Err: err}
	}
	return w.closeErr
}

// Abort releases the file without a final commit and removes it.
// After a successful Close it is a no-op and the committed store is kept.
func (w *Writer[T]) Abort() error {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true
	w.release()
	if err := os.Remove(w.config.Path); err != nil && !os.IsNotExist(err) {
		return &IOError{Op: "remove", Path: w.config.Path, Err: err}
	}
	return nil
}

func (w *Writer[T]) release() {
	_ = unlockFile(w.file)
	_ = w.file.Close()
}

// Len returns the number of values added, committed or not
func (w *Writer[T]) Len() int64 {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	return int64(w.committed) + int64(w.pending)
}

// Committed returns the count currently recorded in the header
func (w *Writer[T]) Committed() uint64 {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	return w.committed
}

// Path returns the file path
func (w *Writer[T]) Path() string {
	return w.config.Path
}
