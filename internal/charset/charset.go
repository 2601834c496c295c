// Package charset resolves IANA charset names to encodings and converts
// request/response bodies between them and UTF-8 strings.
package charset

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
)

// isUTF8 reports whether name is an alias for UTF-8.
func isUTF8(name string) bool {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "utf-8", "utf8", "":
		return true
	}
	return false
}

func lookup(name string) (encoding.Encoding, error) {
	enc, err := ianaindex.IANA.Encoding(strings.TrimSpace(name))
	if err != nil {
		return nil, fmt.Errorf("unknown charset %q: %w", name, err)
	}
	if enc == nil {
		// ianaindex returns a nil encoding for names it knows but cannot map.
		return nil, fmt.Errorf("unsupported charset %q", name)
	}
	return enc, nil
}

// Decode interprets b in the given charset and returns it as a UTF-8 string.
// An invalid byte sequence is an error, not a replacement character.
func Decode(b []byte, name string) (string, error) {
	if isUTF8(name) {
		if !utf8.Valid(b) {
			return "", fmt.Errorf("body is not valid UTF-8")
		}
		return string(b), nil
	}
	enc, err := lookup(name)
	if err != nil {
		return "", err
	}
	out, err := enc.NewDecoder().Bytes(b)
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", name, err)
	}
	return string(out), nil
}

// Encode converts a UTF-8 string into the given charset.
func Encode(s string, name string) ([]byte, error) {
	if isUTF8(name) {
		return []byte(s), nil
	}
	enc, err := lookup(name)
	if err != nil {
		return nil, err
	}
	out, err := enc.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", name, err)
	}
	return out, nil
}
