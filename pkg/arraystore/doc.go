// Package arraystore implements the on-disk array store used by Tabula.
//
// An array store is a fixed header followed by a dense run of fixed-width
// 8-byte elements. It is the foundation for Tabula's record indexes: the
// indexing pipeline appends byte offsets into a store once, and any number of
// readers resolve them by position afterwards.
//
// # File Format
//
//	[Header(1024)][Element 0(8)][Element 1(8)]...[Element N-1(8)]
//
// Header layout (little-endian):
//   - Bytes 0-15: ASCII version marker "TABULA-ARRAY-v01"
//   - Bytes 16-23: committed element count (uint64)
//   - Byte 24: element kind ('L' for int64, 'D' for float64)
//   - Bytes 25-1023: reserved, zero
//
// Element i lives at byte offset 1024 + 8*i. A well-formed file is exactly
// 1024 + 8*count bytes long. There is no footer.
//
// # Writing
//
// Writer is append-only and single-writer. Values are buffered in memory and
// written in one call per flush; each flush then rewrites only the count field
// of the header. The committed count therefore never exceeds the data that has
// reached the file, and a crash loses at most the unflushed tail.
//
//	w, err := arraystore.NewWriter[int64](arraystore.DefaultWriterConfig(path))
//	if err != nil {
//	    return err
//	}
//	w.Add(1)
//	w.Add(2)
//	if err := w.Close(); err != nil {
//	    return err
//	}
//
// An exclusive advisory lock is held on the file while a Writer is open, so a
// second writer on the same path fails with ErrLocked.
//
// # Reading
//
// Reader validates the header on open and serves bounds-checked reads through
// a scratch buffer that grows geometrically and never shrinks.
//
//	r, err := arraystore.Open[int64](path)
//	if err != nil {
//	    return err
//	}
//	defer r.Close()
//	v, err := r.Get(0)
//
// # Error Handling
//
// Malformed files produce *FormatError (errors.Is(err, ErrFormat)), positions
// outside [0, Len()) produce *IndexBoundsError (errors.Is(err,
// ErrIndexOutOfBounds)) and filesystem failures are wrapped in *IOError.
// Nothing is retried internally.
//
// # Thread Safety
//
// Writer serializes its own methods. Reader is not safe for concurrent use;
// open one Reader per goroutine instead, they share nothing.
package arraystore
