package tokenizer

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type record struct {
	fields     []string
	begin, end int64
}

func readAll(t *testing.T, input string, cfg Config) []record {
	t.Helper()
	tok, err := NewReader(strings.NewReader(input), cfg)
	require.NoError(t, err)

	var out []record
	for {
		fields, err := tok.Next()
		if err == io.EOF {
			return out
		}
		require.NoError(t, err)
		begin, end := tok.Span()
		out = append(out, record{fields: fields, begin: begin, end: end})
	}
}

func TestReader_SpansExcludeTerminator(t *testing.T) {
	records := readAll(t, "id,name\n1,alice\n2,bob\n", DefaultConfig())
	require.Len(t, records, 3)

	assert.Equal(t, record{[]string{"id", "name"}, 0, 7}, records[0])
	assert.Equal(t, record{[]string{"1", "alice"}, 8, 15}, records[1])
	assert.Equal(t, record{[]string{"2", "bob"}, 16, 21}, records[2])
}

func TestReader_CRLF(t *testing.T) {
	records := readAll(t, "a,b\r\nc,d\r\n", DefaultConfig())
	require.Len(t, records, 2)
	assert.Equal(t, record{[]string{"a", "b"}, 0, 3}, records[0])
	assert.Equal(t, record{[]string{"c", "d"}, 5, 8}, records[1])
}

func TestReader_SkipsBlankLines(t *testing.T) {
	records := readAll(t, "a\n\n\r\nb\n\n", DefaultConfig())
	require.Len(t, records, 2)
	assert.Equal(t, record{[]string{"a"}, 0, 1}, records[0])
	assert.Equal(t, record{[]string{"b"}, 5, 6}, records[1])
}

func TestReader_SkipsBOM(t *testing.T) {
	records := readAll(t, "\xEF\xBB\xBFa,b\n", DefaultConfig())
	require.Len(t, records, 1)
	assert.Equal(t, record{[]string{"a", "b"}, 3, 6}, records[0])
}

func TestReader_NoTrailingNewline(t *testing.T) {
	records := readAll(t, "a,b\nc,d", DefaultConfig())
	require.Len(t, records, 2)
	assert.Equal(t, record{[]string{"c", "d"}, 4, 7}, records[1])
}

func TestReader_TrailingEmptyField(t *testing.T) {
	records := readAll(t, "a,b,\n,\n", DefaultConfig())
	require.Len(t, records, 2)
	assert.Equal(t, []string{"a", "b", ""}, records[0].fields)
	assert.Equal(t, []string{"", ""}, records[1].fields)
}

func TestReader_QuotedFields(t *testing.T) {
	input := `"x,y","he said ""hi""",plain` + "\n"
	records := readAll(t, input, DefaultConfig())
	require.Len(t, records, 1)
	assert.Equal(t, []string{"x,y", `he said "hi"`, "plain"}, records[0].fields)
	assert.Equal(t, int64(len(input)-1), records[0].end)
}

func TestReader_MultiLineQuotedField(t *testing.T) {
	records := readAll(t, "\"a\nb\",c\nd,e\n", DefaultConfig())
	require.Len(t, records, 2)
	assert.Equal(t, record{[]string{"a\nb", "c"}, 0, 7}, records[0])
	assert.Equal(t, record{[]string{"d", "e"}, 8, 11}, records[1])
}

func TestReader_MultiLineDisabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MultiLine = false

	tok, err := NewReader(strings.NewReader("\"a\nb\",c\n"), cfg)
	require.NoError(t, err)

	_, err = tok.Next()
	assert.ErrorIs(t, err, ErrQuotedNewline)
}

func TestReader_UnterminatedQuote(t *testing.T) {
	tok, err := NewReader(strings.NewReader("a,b\n\"abc"), DefaultConfig())
	require.NoError(t, err)

	_, err = tok.Next()
	require.NoError(t, err)

	_, err = tok.Next()
	var parseErr *ParseError
	require.True(t, errors.As(err, &parseErr))
	assert.ErrorIs(t, err, ErrUnterminatedQuote)
	assert.Equal(t, int64(4), parseErr.Offset)
	assert.Equal(t, int64(2), parseErr.Line)
}

func TestReader_BareQuote(t *testing.T) {
	tok, err := NewReader(strings.NewReader("\"ab\"c,d\n"), DefaultConfig())
	require.NoError(t, err)

	_, err = tok.Next()
	var parseErr *ParseError
	require.True(t, errors.As(err, &parseErr))
	assert.ErrorIs(t, err, ErrBareQuote)
	assert.Equal(t, int64(4), parseErr.Offset)
}

func TestReader_QuotingDisabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Quote = 0

	records := readAll(t, "\"a\",b\n", cfg)
	require.Len(t, records, 1)
	assert.Equal(t, []string{`"a"`, "b"}, records[0].fields)
}

func TestReader_TabDelimitedTrimmed(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Delimiter = '\t'
	cfg.TrimSpace = true

	records := readAll(t, " a \t b,c \n", cfg)
	require.Len(t, records, 1)
	assert.Equal(t, []string{"a", "b,c"}, records[0].fields)
}

func TestReader_Offset(t *testing.T) {
	tok, err := NewReaderOffset(strings.NewReader("1,alice"), DefaultConfig(), 8)
	require.NoError(t, err)

	fields, err := tok.Next()
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "alice"}, fields)

	begin, end := tok.Span()
	assert.Equal(t, int64(8), begin)
	assert.Equal(t, int64(15), end)

	_, err = tok.Next()
	assert.Equal(t, io.EOF, err)
}

func TestReader_Windows1252(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Encoding = "windows-1252"

	tok, err := NewReader(strings.NewReader("caf\xe9,1\n"), cfg)
	require.NoError(t, err)

	fields, err := tok.Next()
	require.NoError(t, err)
	assert.Equal(t, []string{"café", "1"}, fields)

	begin, end := tok.Span()
	assert.Equal(t, int64(0), begin)
	assert.Equal(t, int64(6), end)

	stats := tok.Stats()
	assert.Equal(t, int64(1), stats.Records)
	assert.Equal(t, int64(6), stats.MaxRecordBytes)
	assert.Equal(t, int64(6), stats.MaxRecordChars)
}

func TestConfig_RejectsIncompatibleEncodings(t *testing.T) {
	for _, name := range []string{"utf-16le", "utf-16be", "UTF-16", "iso-2022-jp", "iso-2022-kr"} {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Encoding = name
			assert.ErrorIs(t, cfg.Validate(), ErrIncompatibleEncoding)
		})
	}

	t.Run("reader refuses utf-16 input", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Encoding = "utf-16le"
		src := "a\x00,\x00b\x00\n\x001\x00,\x002\x00\n\x00"

		_, err := NewReader(strings.NewReader(src), cfg)
		assert.ErrorIs(t, err, ErrIncompatibleEncoding)
	})

	t.Run("double-byte encodings need low separators", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Encoding = "shift_jis"
		assert.NoError(t, cfg.Validate())

		cfg.Delimiter = '|'
		assert.ErrorIs(t, cfg.Validate(), ErrIncompatibleEncoding)
	})

	for _, name := range []string{"windows-1252", "iso-8859-1", "koi8-r", "gbk"} {
		t.Run(name+" accepted", func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Encoding = name
			assert.NoError(t, cfg.Validate())
		})
	}
}

func TestReader_Stats(t *testing.T) {
	tok, err := NewReader(strings.NewReader("a,b\nlonger,row\n"), DefaultConfig())
	require.NoError(t, err)

	for {
		if _, err := tok.Next(); err == io.EOF {
			break
		}
	}

	stats := tok.Stats()
	assert.Equal(t, int64(2), stats.Records)
	assert.Equal(t, int64(10), stats.MaxRecordBytes)
	assert.Equal(t, int64(10), stats.MaxRecordChars)
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	cfg := DefaultConfig()
	cfg.Quote = ','
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Delimiter = '\n'
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Encoding = "no-such-encoding"
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Encoding = "UTF-8"
	assert.NoError(t, cfg.Validate())
}
