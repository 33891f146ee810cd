package arraystore

import (
	"errors"
	"fmt"
	"io/fs"
)

var (
	// ErrFormat matches every *FormatError.
	ErrFormat = errors.New("arraystore: invalid format")
	// ErrIndexOutOfBounds matches every *IndexBoundsError.
	ErrIndexOutOfBounds = errors.New("arraystore: index out of bounds")
	// ErrClosed is returned by operations on a closed writer or reader.
	ErrClosed = errors.New("arraystore: closed")
	// ErrLocked is returned when another writer holds the store.
	ErrLocked = errors.New("arraystore: store is locked by another writer")
)

// FormatError reports a header mismatch, a truncated file or a short element read.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type FormatError struct {
	Path   string
	Reason string
	cause  error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("arraystore: %s: %s", e.Path, e.Reason)
}

func (e *FormatError) Is(target error) bool { return target == ErrFormat }

func (e *FormatError) Unwrap() error { return e.cause }

// NewFormatError builds a FormatError for layers that interpret store contents.
func NewFormatError(path, reason string) *FormatError {
	return &FormatError{Path: path, Reason: reason}
}

// IndexBoundsError reports a logical position outside [0, Count).
type IndexBoundsError struct {
	Index int64
	Count int64
}

func (e *IndexBoundsError) Error() string {
	return fmt.Sprintf("arraystore: index %d out of bounds [0, %d)", e.Index, e.Count)
}

func (e *IndexBoundsError) Is(target error) bool { return target == ErrIndexOutOfBounds }

// IOError wraps a filesystem failure with the operation that hit it.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	// A PathError already names the file
	var pathErr *fs.PathError
	if errors.As(e.Err, &pathErr) {
		return fmt.Sprintf("arraystore: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("arraystore: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }
