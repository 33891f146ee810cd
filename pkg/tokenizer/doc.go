// Package tokenizer splits delimited text into records of field strings.
//
// Tokenizer is the contract the indexing pipeline and record cursors depend
// on; Reader is the delimited-text implementation used by default. Reader
// works on raw source bytes, so the spans it reports are exact byte offsets
// into the source regardless of text encoding: delimiter and quote must be
// ASCII, and field bytes are decoded only after they have been split.
//
// Quoting follows the common CSV rules: a field that starts with the quote
// byte runs to the matching closing quote, may contain delimiters, and, when
// MultiLine is set, line breaks. With QuoteEscaping a doubled quote inside a
// quoted field is a literal quote. Records end at "\n" or "\r\n". Blank lines
// produce no record.
package tokenizer
