package tokenizer

import (
	"errors"
	"fmt"
	"io"
)

// Config describes the delimited format of a source.
type Config struct {
	Delimiter     byte   `json:"delimiter"`
	Quote         byte   `json:"quote"` // 0 disables quoting
	QuoteEscaping bool   `json:"quote_escaping"`
	MultiLine     bool   `json:"multi_line"`
	Encoding      string `json:"encoding"`
	TrimSpace     bool   `json:"trim_space"`
}

// DefaultConfig returns RFC 4180 style settings.
func DefaultConfig() Config {
	return Config{
		Delimiter:     ',',
		Quote:         '"',
		QuoteEscaping: true,
		MultiLine:     true,
		Encoding:      "utf-8",
	}
}

// Validate checks that the configuration can be tokenized unambiguously.
func (c Config) Validate() error {
	if c.Delimiter == 0 {
		return fmt.Errorf("tokenizer: delimiter must be set")
	}
	if c.Delimiter >= 0x80 || c.Quote >= 0x80 {
		return fmt.Errorf("tokenizer: delimiter and quote must be ASCII")
	}
	if c.Delimiter == '\r' || c.Delimiter == '\n' || c.Quote == '\r' || c.Quote == '\n' {
		return fmt.Errorf("tokenizer: delimiter and quote cannot be line terminators")
	}
	if c.Quote != 0 && c.Quote == c.Delimiter {
		return fmt.Errorf("tokenizer: delimiter and quote must differ")
	}
	enc, err := lookupEncoding(c.Encoding)
	if err != nil {
		return err
	}
	return checkSeparators(enc, c.Encoding, c.Delimiter, c.Quote)
}

// Stats are running statistics over the records yielded so far.
type Stats struct {
	Records        int64 `json:"records"`
	MaxRecordBytes int64 `json:"max_record_bytes"`
	MaxRecordChars int64 `json:"max_record_chars"`
}

// Tokenizer yields successive records from a source.
type Tokenizer interface {
	// Next returns the fields of the next record, or io.EOF after the last one.
	Next() ([]string, error)
	// Span returns the source byte range [begin, end) of the last record,
	// excluding its line terminator.
	Span() (begin, end int64)
	// Stats returns running statistics.
	Stats() Stats
}

// Factory creates a Tokenizer over r whose spans start counting at offset.
type Factory func(r io.Reader, cfg Config, offset int64) (Tokenizer, error)

// DefaultFactory builds delimited-text Readers.
func DefaultFactory(r io.Reader, cfg Config, offset int64) (Tokenizer, error) {
	return NewReaderOffset(r, cfg, offset)
}

var (
	ErrUnterminatedQuote = errors.New("unterminated quoted field")
	ErrBareQuote         = errors.New("unexpected byte after closing quote")
	ErrQuotedNewline     = errors.New("line break in quoted field")

	// ErrIncompatibleEncoding is returned for encodings whose bytes can
	// collide with the delimiter, quote or line terminators.
	ErrIncompatibleEncoding = errors.New("encoding is not ASCII-compatible")
)

// ParseError reports malformed source data at a byte offset.
type ParseError struct {
	Offset int64 // Byte offset where the problem was detected
	Line   int64 // 1-based line, counted from where tokenizing started
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("tokenizer: line %d, offset %d: %v", e.Line, e.Offset, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
