package parser

import (
	"bytes"
	"errors"
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// errInvalidUTF8 is wrapped into a ParseError by Decode.
var errInvalidUTF8 = errors.New("input is not valid UTF-8")

// Decode returns content as BOM-free UTF-8. A UTF-8 byte order mark is
// stripped; UTF-16 input is accepted when it starts with a BOM. Anything
// else must already be valid UTF-8, otherwise a *ParseError is returned.
func Decode(f Format, content []byte) ([]byte, error) {
	if !hasBOM(content) {
		if err := checkUTF8(content, 0); err != nil {
			return nil, &ParseError{Format: f, Line: lineOfInvalid(content), Err: err}
		}
		return content, nil
	}

	if bytes.HasPrefix(content, bomUTF8) {
		// The UTF-8 decoder substitutes U+FFFD for bad bytes, so check first.
		if err := checkUTF8(content[len(bomUTF8):], len(bomUTF8)); err != nil {
			return nil, &ParseError{Format: f, Line: lineOfInvalid(content[len(bomUTF8):]), Err: err}
		}
	}

	out, _, err := transform.Bytes(unicode.BOMOverride(unicode.UTF8.NewDecoder()), content)
	if err != nil {
		return nil, &ParseError{Format: f, Err: fmt.Errorf("decode: %w", err)}
	}
	return out, nil
}

func hasBOM(b []byte) bool {
	return bytes.HasPrefix(b, bomUTF8) || bytes.HasPrefix(b, bomUTF16LE) || bytes.HasPrefix(b, bomUTF16BE)
}

func checkUTF8(b []byte, base int) error {
	if utf8.Valid(b) {
		return nil
	}
	for i := 0; i < len(b); {
		r, size := utf8.DecodeRune(b[i:])
		if r == utf8.RuneError && size <= 1 {
			return fmt.Errorf("%w (byte offset %d)", errInvalidUTF8, base+i)
		}
		i += size
	}
	return errInvalidUTF8
}

func lineOfInvalid(b []byte) int {
	for i := 0; i < len(b); {
		r, size := utf8.DecodeRune(b[i:])
		if r == utf8.RuneError && size <= 1 {
			return LineOf(b, int64(i))
		}
		i += size
	}
	return 0
}
