package scanner

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
)

// DefaultEncoding is used when no encoding is configured
const DefaultEncoding = "utf-8"

// ErrDecode is returned when file content is not valid in the configured encoding
var ErrDecode = errors.New("content cannot be decoded")

// LookupEncoding resolves an encoding label such as "utf-8", "windows-1251"
// or "koi8-r" using the WHATWG encoding index
func LookupEncoding(name string) (encoding.Encoding, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultEncoding
	}

	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("unsupported encoding %q: %w", name, err)
	}
	return enc, nil
}

// decode converts raw file bytes to a string. UTF-8 input is validated
// strictly; the x/text UTF-8 decoder would silently substitute U+FFFD.
func decode(data []byte, enc encoding.Encoding) (string, error) {
	if name, err := htmlindex.Name(enc); err == nil && name == DefaultEncoding {
		if !utf8.Valid(data) {
			return "", ErrDecode
		}
		return string(data), nil
	}

	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return string(out), nil
}
