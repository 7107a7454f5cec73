package flatten

import (
	"strconv"
	"strings"
)

// PathElem is one step of a decoded flat key: either an object field name or
// a list index.
type PathElem struct {
	Key     string
	Index   int
	IsIndex bool
}

func (p PathElem) String() string {
	if p.IsIndex {
		return "[" + strconv.Itoa(p.Index) + "]"
	}
	return p.Key
}

// SplitKey decodes a flat key back into its path: first on NestedDelimiter,
// then by peeling trailing ListIndexDelimiter+digits runs off each segment.
//
// The encoding is only reversible for source field names that neither
// contain NestedDelimiter nor end in ListIndexDelimiter followed by digits.
func SplitKey(key string) []PathElem {
	segs := strings.Split(key, NestedDelimiter)
	out := make([]PathElem, 0, len(segs))
	for _, seg := range segs {
		name, idx := peelIndices(seg)
		out = append(out, PathElem{Key: name})
		for _, i := range idx {
			out = append(out, PathElem{Index: i, IsIndex: true})
		}
	}
	// A root-level list ("_0") decodes to an empty leading name; drop it.
	if len(out) > 1 && !out[0].IsIndex && out[0].Key == "" && out[1].IsIndex {
		out = out[1:]
	}
	return out
}

// JoinPath encodes path with the same rules Flatten uses.
func JoinPath(path []PathElem) string {
	var b strings.Builder
	for i, p := range path {
		switch {
		case p.IsIndex:
			b.WriteString(ListIndexDelimiter)
			b.WriteString(strconv.Itoa(p.Index))
		case i == 0:
			b.WriteString(p.Key)
		default:
			b.WriteString(NestedDelimiter)
			b.WriteString(p.Key)
		}
	}
	return b.String()
}

// peelIndices splits "name_1_2" into "name" and [1 2].
func peelIndices(seg string) (string, []int) {
	var rev []int
	for {
		i := strings.LastIndex(seg, ListIndexDelimiter)
		if i < 0 {
			break
		}
		digits := seg[i+len(ListIndexDelimiter):]
		if !allDigits(digits) {
			break
		}
		n, err := strconv.Atoi(digits)
		if err != nil {
			break
		}
		rev = append(rev, n)
		seg = seg[:i]
	}
	idx := make([]int, len(rev))
	for i, n := range rev {
		idx[len(rev)-1-i] = n
	}
	return seg, idx
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
