// Package flatten converts nested records into one-level key/value records
// using a reversible key-path encoding:
//
//	{"user":{"address":{"city":"NYC"}},"tags":["a","b"]}
//
// becomes
//
//	user__address__city = "NYC"
//	tags_0              = "a"
//	tags_1              = "b"
//
// Descending into an object appends NestedDelimiter + key, descending into a
// list appends ListIndexDelimiter + index. Empty objects and empty lists
// produce no keys, so after flattening they cannot be told apart from an
// absent field.
package flatten

import (
	"strconv"

	"tableingest/internal/record"
)

const (
	// NestedDelimiter joins a parent key and an object field name.
	NestedDelimiter = "__"
	// ListIndexDelimiter joins a parent key and a list index.
	ListIndexDelimiter = "_"
)

// Flatten returns the flat form of n. Object fields keep their source order.
// A non-object root is emitted under the empty key; callers are expected to
// reject such records before flattening.
func Flatten(n record.Node) record.FlatRecord {
	out := record.NewFlatRecord(estimate(n))
	walk(&out, "", n)
	return out
}

func walk(out *record.FlatRecord, parent string, n record.Node) {
	switch n.Kind() {
	case record.NodeObject:
		for _, f := range n.Fields() {
			key := f.Key
			if parent != "" {
				key = parent + NestedDelimiter + f.Key
			}
			walk(out, key, f.Value)
		}
	case record.NodeList:
		for i, item := range n.Items() {
			walk(out, parent+ListIndexDelimiter+strconv.Itoa(i), item)
		}
	default:
		out.Set(parent, n.Value())
	}
}

// estimate counts the leaves of n, used to size the output.
func estimate(n record.Node) int {
	switch n.Kind() {
	case record.NodeObject:
		c := 0
		for _, f := range n.Fields() {
			c += estimate(f.Value)
		}
		return c
	case record.NodeList:
		c := 0
		for _, it := range n.Items() {
			c += estimate(it)
		}
		return c
	default:
		return 1
	}
}
