package arraystore

import (
	"encoding/binary"
	"fmt"
	"io"
)

const (
	// HeaderSize is the fixed size of the header region in bytes.
	HeaderSize = 1024

	// VersionMarker identifies array store files of the current format version.
	VersionMarker = "TABULA-ARRAY-v01"

	// ElementSize is the width of every stored element in bytes.
	ElementSize = 8

	countOffset = len(VersionMarker)
	kindOffset  = countOffset + 8
)

// Kind identifies the element type held by a store.
type Kind byte

const (
	KindLong   Kind = 'L'
	KindDouble Kind = 'D'
)

func (k Kind) String() string {
	switch k {
	case KindLong:
		return "long"
	case KindDouble:
		return "double"
	default:
		return fmt.Sprintf("unknown(0x%02x)", byte(k))
	}
}

// Header is the decoded form of the fixed header region.
type Header struct {
	Kind       Kind
	ValueCount uint64
}

// Encode serializes the header into a zero-filled HeaderSize buffer.
// Format: [Marker(16)][ValueCount(8)][Kind(1)][Reserved]
func (h Header) Encode() []byte {
	buf := make([]byte, HeaderSize)
	copy(buf, VersionMarker)
	binary.LittleEndian.PutUint64(buf[countOffset:], h.ValueCount)
	buf[kindOffset] = byte(h.Kind)
	return buf
}

// encodeCount returns the bytes written at countOffset when only the count changes.
func encodeCount(count uint64) []byte {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, count)
	return buf
}

// DecodeHeader reads exactly HeaderSize bytes from the start of r.
func DecodeHeader(r io.ReaderAt, path string) (Header, error) {
	buf := make([]byte, HeaderSize)
	n, err := r.ReadAt(buf, 0)
	if n < HeaderSize {
		if err != nil && err != io.EOF {
			return Header{}, &IOError{Op: "read header", Path: path, Err: err}
		}
		return Header{}, &FormatError{
			Path:   path,
			Reason: fmt.Sprintf("header truncated: %d < %d bytes", n, HeaderSize),
			cause:  io.ErrUnexpectedEOF,
		}
	}
	return DecodeHeaderBytes(buf, path)
}

// DecodeHeaderBytes decodes a header from an in-memory prefix of a store.
func DecodeHeaderBytes(data []byte, path string) (Header, error) {
	if len(data) < HeaderSize {
		return Header{}, &FormatError{
			Path:   path,
			Reason: fmt.Sprintf("header truncated: %d < %d bytes", len(data), HeaderSize),
			cause:  io.ErrUnexpectedEOF,
		}
	}
	if string(data[:len(VersionMarker)]) != VersionMarker {
		return Header{}, &FormatError{
			Path:   path,
			Reason: fmt.Sprintf("version marker mismatch: %q", data[:len(VersionMarker)]),
		}
	}

	h := Header{
		ValueCount: binary.LittleEndian.Uint64(data[countOffset:]),
		Kind:       Kind(data[kindOffset]),
	}
	if h.Kind != KindLong && h.Kind != KindDouble {
		return Header{}, &FormatError{Path: path, Reason: "unknown element kind " + h.Kind.String()}
	}
	return h, nil
}

// DataOffset returns the byte offset of element i.
func DataOffset(i int64) int64 {
	return HeaderSize + ElementSize*i
}
