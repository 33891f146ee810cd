package tokenizer

import (
	"bufio"
	"bytes"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Reader tokenizes delimited text from an io.Reader
type Reader struct {
	r      *bufio.Reader
	cfg    Config
	dec    *encoding.Decoder // nil for UTF-8
	offset int64             // Source bytes consumed
	line   int64
	begin  int64
	end    int64
	stats  Stats
	field  []byte
}

// NewReader creates a tokenizer over a whole source, skipping a UTF-8 BOM.
func NewReader(r io.Reader, cfg Config) (*Reader, error) {
	return NewReaderOffset(r, cfg, 0)
}

// NewReaderOffset creates a tokenizer whose spans start at offset, for
// reading a section of a source. A BOM is only recognized at offset 0.
func NewReaderOffset(r io.Reader, cfg Config, offset int64) (*Reader, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	enc, err := lookupEncoding(cfg.Encoding)
	if err != nil {
		return nil, err
	}

	t := &Reader{
		r:      bufio.NewReaderSize(r, 64*1024),
		cfg:    cfg,
		offset: offset,
		line:   1,
	}
	if enc != nil {
		t.dec = enc.NewDecoder()
	}

	if offset == 0 {
		if head, _ := t.r.Peek(len(utf8BOM)); bytes.Equal(head, utf8BOM) {
			if _, err := t.r.Discard(len(utf8BOM)); err != nil {
				return nil, err
			}
			t.offset = int64(len(utf8BOM))
		}
	}
	return t, nil
}

// Next returns the fields of the next record, or io.EOF after the last one
func (t *Reader) Next() ([]string, error) {
	if err := t.skipBlankLines(); err != nil {
		return nil, err
	}

	t.begin = t.offset
	var fields []string
	for {
		value, last, err := t.readField()
		if err != nil {
			return nil, err
		}
		s, err := t.decode(value)
		if err != nil {
			return nil, err
		}
		fields = append(fields, s)
		if last {
			break
		}
	}

	t.recordStats(fields)
	return fields, nil
}

// Span returns the source byte range of the last record
func (t *Reader) Span() (begin, end int64) {
	return t.begin, t.end
}

// Stats returns running statistics
func (t *Reader) Stats() Stats {
	return t.stats
}

// Offset returns the number of source bytes consumed so far
func (t *Reader) Offset() int64 {
	return t.offset
}

func (t *Reader) skipBlankLines() error {
	for {
		b, err := t.r.Peek(1)
		if err != nil {
			return err // io.EOF at end of input
		}
		if b[0] != '\n' && b[0] != '\r' {
			return nil
		}
		if _, err := t.readByte(); err != nil {
			return err
		}
	}
}

// readField reads one field. last reports whether the field ended its record.
func (t *Reader) readField() (value []byte, last bool, err error) {
	t.field = t.field[:0]

	b, err := t.readByte()
	if err == io.EOF {
		t.end = t.offset
		return t.field, true, nil
	}
	if err != nil {
		return nil, false, err
	}

	if t.cfg.Quote != 0 && b == t.cfg.Quote {
		return t.readQuoted()
	}

	for {
		switch b {
		case t.cfg.Delimiter:
			return t.field, false, nil
		case '\n':
			t.end = t.offset - 1
			return t.field, true, nil
		case '\r':
			t.end = t.offset - 1
			return t.field, true, t.consumeLF()
		default:
			t.field = append(t.field, b)
		}

		b, err = t.readByte()
		if err == io.EOF {
			t.end = t.offset
			return t.field, true, nil
		}
		if err != nil {
			return nil, false, err
		}
	}
}

func (t *Reader) readQuoted() ([]byte, bool, error) {
	start := t.offset - 1
	for {
		b, err := t.readByte()
		if err == io.EOF {
			return nil, false, t.parseError(start, ErrUnterminatedQuote)
		}
		if err != nil {
			return nil, false, err
		}

		if b == t.cfg.Quote {
			next, err := t.r.Peek(1)
			if err == nil && t.cfg.QuoteEscaping && next[0] == t.cfg.Quote {
				t.field = append(t.field, b)
				if _, err := t.readByte(); err != nil {
					return nil, false, err
				}
				continue
			}
			return t.afterClosingQuote()
		}

		if (b == '\n' || b == '\r') && !t.cfg.MultiLine {
			return nil, false, t.parseError(t.offset-1, ErrQuotedNewline)
		}
		t.field = append(t.field, b)
	}
}

func (t *Reader) afterClosingQuote() ([]byte, bool, error) {
	b, err := t.readByte()
	if err == io.EOF {
		t.end = t.offset
		return t.field, true, nil
	}
	if err != nil {
		return nil, false, err
	}

	switch b {
	case t.cfg.Delimiter:
		return t.field, false, nil
	case '\n':
		t.end = t.offset - 1
		return t.field, true, nil
	case '\r':
		t.end = t.offset - 1
		return t.field, true, t.consumeLF()
	default:
		return nil, false, t.parseError(t.offset-1, ErrBareQuote)
	}
}

func (t *Reader) consumeLF() error {
	next, err := t.r.Peek(1)
	if err != nil || next[0] != '\n' {
		return nil
	}
	_, err = t.readByte()
	return err
}

func (t *Reader) readByte() (byte, error) {
	b, err := t.r.ReadByte()
	if err != nil {
		return 0, err
	}
	t.offset++
	if b == '\n' {
		t.line++
	}
	return b, nil
}

func (t *Reader) decode(value []byte) (string, error) {
	var s string
	if t.dec == nil {
		s = string(value)
	} else {
		out, err := t.dec.Bytes(value)
		if err != nil {
			return "", t.parseError(t.begin, err)
		}
		s = string(out)
	}
	if t.cfg.TrimSpace {
		s = strings.TrimSpace(s)
	}
	return s, nil
}

func (t *Reader) recordStats(fields []string) {
	t.stats.Records++
	if n := t.end - t.begin; n > t.stats.MaxRecordBytes {
		t.stats.MaxRecordBytes = n
	}
	chars := int64(len(fields) - 1)
	for _, f := range fields {
		chars += int64(utf8.RuneCountInString(f))
	}
	if chars > t.stats.MaxRecordChars {
		t.stats.MaxRecordChars = chars
	}
}

func (t *Reader) parseError(offset int64, err error) *ParseError {
	return &ParseError{Offset: offset, Line: t.line, Err: err}
}
