package arraystore

// DefaultBufferSize is the writer's default buffer capacity in elements.
const DefaultBufferSize = 4096

// DefaultReadBuffer is the reader's initial scratch capacity in elements.
const DefaultReadBuffer = 256

// WriterConfig holds configuration for an array store writer
type WriterConfig struct {
	Path        string // Target file, created or truncated
	BufferSize  int    // Write buffer capacity in elements
	SyncOnClose bool   // fsync after the final commit in Close
}

// DefaultWriterConfig returns a writer configuration for path with default sizing.
func DefaultWriterConfig(path string) WriterConfig {
	return WriterConfig{
		Path:        path,
		BufferSize:  DefaultBufferSize,
		SyncOnClose: true,
	}
}

// ReaderConfig holds configuration for an array store reader
type ReaderConfig struct {
	Path       string // Store file to open
	ReadBuffer int    // Initial scratch capacity in elements; grows on demand
}
