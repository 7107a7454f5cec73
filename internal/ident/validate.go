package ident

import (
	"fmt"
	"unicode/utf8"
)

// InvalidError reports why a string is not a valid Identifier.
type InvalidError struct {
	Value  string
	Reason string
}

func (e *InvalidError) Error() string {
	return fmt.Sprintf("invalid identifier %q: %s", e.Value, e.Reason)
}

// Validate reports whether s satisfies the identifier grammar. It returns a
// *InvalidError describing the first violation, or nil.
func Validate(s string) error {
	if s == "" {
		return &InvalidError{Value: s, Reason: "empty"}
	}
	if len(s) > MaxLen {
		return &InvalidError{Value: s, Reason: fmt.Sprintf("longer than %d bytes", MaxLen)}
	}
	for i, r := range s {
		if r == utf8.RuneError {
			return &InvalidError{Value: s, Reason: fmt.Sprintf("invalid UTF-8 at byte %d", i)}
		}
		if i == 0 && !isIdentStart(r) {
			return &InvalidError{Value: s, Reason: fmt.Sprintf("must start with a letter or underscore, got %q", r)}
		}
		if !isIdentRune(r) {
			return &InvalidError{Value: s, Reason: fmt.Sprintf("illegal character %q at byte %d", r, i)}
		}
	}
	return nil
}
