package tokenizer

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
)

// stateful encodings switch modes with escape sequences, so 7-bit bytes
// inside a double-byte run are not ASCII characters.
var stateful = map[string]bool{
	"iso-2022-jp": true,
}

// lowTrail encodings use trail bytes from 0x40 upward, so only delimiters
// and quotes below 0x40 are safe.
var lowTrail = map[string]bool{
	"shift_jis": true,
	"gbk":       true,
	"gb18030":   true,
	"big5":      true,
	"euc-kr":    true,
}

// asciiSample holds every byte the tokenizer may split on.
var asciiSample = func() []byte {
	b := []byte{'\t', '\n', '\r'}
	for c := byte(0x20); c < 0x7f; c++ {
		b = append(b, c)
	}
	return b
}()

// lookupEncoding resolves a WHATWG encoding label. UTF-8 returns nil so
// fields are converted without a decoding pass.
func lookupEncoding(name string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		return nil, nil
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("tokenizer: unsupported encoding %q: %w", name, err)
	}

	canonical, _ := htmlindex.Name(enc)
	if stateful[canonical] || !asciiRoundTrip(enc) {
		return nil, fmt.Errorf("tokenizer: %w: %q", ErrIncompatibleEncoding, name)
	}
	return enc, nil
}

// asciiRoundTrip reports whether enc maps ASCII bytes to themselves.
func asciiRoundTrip(enc encoding.Encoding) bool {
	encoded, err := enc.NewEncoder().Bytes(asciiSample)
	if err != nil || !bytes.Equal(encoded, asciiSample) {
		return false
	}
	decoded, err := enc.NewDecoder().Bytes(asciiSample)
	return err == nil && bytes.Equal(decoded, asciiSample)
}

// checkSeparators rejects a delimiter or quote that can appear as a trail
// byte of a double-byte character in enc.
func checkSeparators(enc encoding.Encoding, name string, delimiter, quote byte) error {
	if enc == nil {
		return nil
	}
	canonical, _ := htmlindex.Name(enc)
	if lowTrail[canonical] && (delimiter >= 0x40 || quote >= 0x40) {
		return fmt.Errorf("tokenizer: %w: %q needs a delimiter and quote below 0x40", ErrIncompatibleEncoding, name)
	}
	return nil
}
