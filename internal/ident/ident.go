// Package ident turns arbitrary strings (file names, JSON keys, CSV headers)
// into SQL identifiers that are safe to splice into statement text.
//
// Two entry points exist:
//
//   - Sanitize derives a table name from a caller-supplied name. It is total:
//     every input, including the empty string, yields a valid Identifier.
//   - Column derives a column name from a content-derived key. It applies the
//     narrower column normalization (lowercase, spaces and hyphens to
//     underscores) and repairs the result only when it falls outside the
//     identifier grammar.
//
// Validate is the strict grammar check. The storage executor calls it again on
// every identifier it renders, so an Identifier value is never trusted just
// because of its type.
package ident

import (
	"fmt"
	"strings"

	"github.com/zeebo/xxh3"
)

// Identifier is a name that satisfies the identifier grammar:
// one letter or underscore followed by letters, digits or underscores, at
// most MaxLen bytes long.
type Identifier string

// String returns the identifier text.
func (id Identifier) String() string { return string(id) }

const (
	// MaxLen is the longest identifier accepted. 63 is the PostgreSQL limit
	// and the smallest among the supported backends.
	MaxLen = 63

	// TablePlaceholder replaces table names that sanitize to nothing.
	TablePlaceholder = "table"

	// ColumnPlaceholder replaces column names that sanitize to nothing.
	ColumnPlaceholder = "column"

	// maxExtLen bounds what counts as a file extension in Sanitize.
	maxExtLen = 16
)

// Sanitize converts raw into a table Identifier.
//
// Steps, in order:
//  1. strip a trailing extension-like suffix (".csv", ".jsonl", ...);
//  2. replace every rune outside [A-Za-z0-9_] with '_';
//  3. prefix '_' when the first character is not a letter or underscore;
//  4. substitute TablePlaceholder when nothing is left;
//  5. if the result still fails Validate (in practice: too long), fall back
//     to TablePlaceholder plus a hash suffix of raw.
//
// Sanitize is idempotent and deterministic across processes.
func Sanitize(raw string) Identifier {
	return repair(stripExtension(raw), raw, TablePlaceholder)
}

// NormalizeColumn lowercases s and replaces spaces and hyphens with
// underscores. It does not enforce the identifier grammar.
func NormalizeColumn(s string) string {
	s = strings.ToLower(s)
	return strings.NewReplacer(" ", "_", "-", "_").Replace(s)
}

// Column converts a content-derived field name into a column Identifier.
// Names that are valid after NormalizeColumn are returned as is; others go
// through the same repair as Sanitize, minus extension stripping, with
// ColumnPlaceholder as the placeholder.
func Column(raw string) Identifier {
	norm := NormalizeColumn(raw)
	if Validate(norm) == nil {
		return Identifier(norm)
	}
	return repair(norm, raw, ColumnPlaceholder)
}

// Parse validates s and returns it as an Identifier.
func Parse(s string) (Identifier, error) {
	if err := Validate(s); err != nil {
		return "", err
	}
	return Identifier(s), nil
}

// Unique returns ids with duplicates renamed by appending _2, _3, ... in
// first-seen order. Renamed values that would exceed MaxLen are shortened
// before the suffix is added, and a suffix is skipped if it collides with a
// name that appears later in ids.
func Unique(ids []Identifier) []Identifier {
	taken := make(map[Identifier]bool, len(ids))
	for _, id := range ids {
		taken[id] = true
	}
	seen := make(map[Identifier]bool, len(ids))
	out := make([]Identifier, len(ids))
	for i, id := range ids {
		if !seen[id] {
			seen[id] = true
			out[i] = id
			continue
		}
		for n := 2; ; n++ {
			suffix := fmt.Sprintf("_%d", n)
			base := string(id)
			if len(base)+len(suffix) > MaxLen {
				base = base[:MaxLen-len(suffix)]
			}
			cand := Identifier(base + suffix)
			if !seen[cand] && !taken[cand] {
				seen[cand] = true
				out[i] = cand
				break
			}
		}
	}
	return out
}

// repair applies steps 2 to 5 of Sanitize to s. raw feeds the fallback hash.
func repair(s, raw, placeholder string) Identifier {
	var b strings.Builder
	b.Grow(len(s) + 1)
	for _, r := range s {
		if isIdentRune(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	out := b.String()
	if out != "" && !isIdentStart(rune(out[0])) {
		out = "_" + out
	}
	if out == "" {
		out = placeholder
	}
	if Validate(out) != nil {
		out = fallback(raw, placeholder)
	}
	return Identifier(out)
}

// fallback returns placeholder + "_" + a 64-bit XXH3 digest of raw in hex.
func fallback(raw, placeholder string) string {
	return fmt.Sprintf("%s_%016x", placeholder, xxh3.HashString(raw))
}

// stripExtension removes ".ext" when ext is 1 to maxExtLen ASCII letters or
// digits. Names like "v1.2 beta" keep their dot (and later get it replaced).
func stripExtension(s string) string {
	i := strings.LastIndexByte(s, '.')
	if i < 0 {
		return s
	}
	ext := s[i+1:]
	if ext == "" || len(ext) > maxExtLen {
		return s
	}
	for j := 0; j < len(ext); j++ {
		c := ext[j]
		if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9') {
			return s
		}
	}
	return s[:i]
}

func isIdentStart(r rune) bool {
	return r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z'
}

func isIdentRune(r rune) bool {
	return isIdentStart(r) || r >= '0' && r <= '9'
}
