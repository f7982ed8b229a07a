package stream

import (
	"fmt"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// charsets maps the names ReadMultibyte/WriteMultibyte accept to their
// golang.org/x/text codec. spec.md §4.1 requires at minimum "utf-8" and
// "iso-8859-1"; additional charsets are added here rather than via a
// hand-rolled decode table, matching
// _examples/other_examples/dc0645e4_leo-cydar-_opendcm__reader.go.go's use
// of golang.org/x/text/encoding/* for DICOM's multi-charset string fields.
var charsets = map[string]encoding.Encoding{
	"utf-8":        unicode.UTF8,
	"iso-8859-1":   charmap.ISO8859_1,
	"windows-1252": charmap.Windows1252,
}

func lookupCharset(name string) (encoding.Encoding, error) {
	enc, ok := charsets[name]
	if !ok {
		return nil, fmt.Errorf("unknown charset %q", name)
	}
	return enc, nil
}

func decodeCharset(name string, raw []byte) (string, error) {
	enc, err := lookupCharset(name)
	if err != nil {
		return "", err
	}
	out, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func encodeCharset(name, text string) ([]byte, error) {
	enc, err := lookupCharset(name)
	if err != nil {
		return nil, err
	}
	return enc.NewEncoder().Bytes([]byte(text))
}
