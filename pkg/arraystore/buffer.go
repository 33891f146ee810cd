package arraystore

// scratch is a reusable byte buffer owned by a single reader. It grows by
// doubling until a request fits and never shrinks afterwards.
type scratch struct {
	buf []byte
}

func newScratch(initial int) *scratch {
	if initial < ElementSize {
		initial = ElementSize
	}
	return &scratch{buf: make([]byte, initial)}
}

// ensureCapacity returns a slice of exactly minSize bytes backed by the buffer.
func (s *scratch) ensureCapacity(minSize int) []byte {
	if minSize > len(s.buf) {
		size := len(s.buf)
		for size < minSize {
			size *= 2
		}
		s.buf = make([]byte, size)
	}
	return s.buf[:minSize]
}

func (s *scratch) capacity() int {
	return len(s.buf)
}
