// Package schema computes the column set of an ingestion: the ordered union
// of flat keys across all records (FieldSet), the null-filled rows that match
// it, and a logical type per column.
package schema

// FieldSet is an insertion-ordered set of column names.
type FieldSet struct {
	names []string
	index map[string]int
}

// NewFieldSet returns an empty FieldSet.
func NewFieldSet() *FieldSet {
	return &FieldSet{index: make(map[string]int)}
}

// Add appends name if it is not already present and reports whether it was
// added.
func (fs *FieldSet) Add(name string) bool {
	if _, ok := fs.index[name]; ok {
		return false
	}
	fs.index[name] = len(fs.names)
	fs.names = append(fs.names, name)
	return true
}

// Names returns the names in first-seen order. The slice must not be
// modified.
func (fs *FieldSet) Names() []string { return fs.names }

// Len returns the number of names.
func (fs *FieldSet) Len() int { return len(fs.names) }
