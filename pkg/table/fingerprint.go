package table

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/minio/highwayhash"
)

// fingerprintSpan is how many bytes are hashed at each end of a source.
const fingerprintSpan = 64 << 10

var fingerprintKey = []byte("tabula-source-fingerprint-key-01")

// Fingerprint hashes a file's size and the bytes at its head and tail. It
// catches in-place edits that keep the size and modification time.
func Fingerprint(path string) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("table: failed to open source: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return 0, fmt.Errorf("table: failed to stat source: %w", err)
	}

	h, err := highwayhash.New64(fingerprintKey)
	if err != nil {
		return 0, err
	}

	var size [8]byte
	binary.LittleEndian.PutUint64(size[:], uint64(info.Size()))
	h.Write(size[:])

	if _, err := io.Copy(h, io.NewSectionReader(f, 0, min(info.Size(), fingerprintSpan))); err != nil {
		return 0, fmt.Errorf("table: failed to read source: %w", err)
	}
	if tail := info.Size() - fingerprintSpan; tail > fingerprintSpan {
		if _, err := io.Copy(h, io.NewSectionReader(f, tail, fingerprintSpan)); err != nil {
			return 0, fmt.Errorf("table: failed to read source: %w", err)
		}
	} else if tail > 0 {
		if _, err := io.Copy(h, io.NewSectionReader(f, fingerprintSpan, tail)); err != nil {
			return 0, fmt.Errorf("table: failed to read source: %w", err)
		}
	}
	return h.Sum64(), nil
}
