package record

// FlatRecord is a one-level mapping from flat keys to scalar Values that
// remembers insertion order. The zero FlatRecord is empty and ready to use.
type FlatRecord struct {
	keys   []string
	values map[string]Value
}

// NewFlatRecord returns an empty FlatRecord with room for n keys.
func NewFlatRecord(n int) FlatRecord {
	return FlatRecord{keys: make([]string, 0, n), values: make(map[string]Value, n)}
}

// Set stores v under key. An existing key keeps its position.
func (r *FlatRecord) Set(key string, v Value) {
	if r.values == nil {
		r.values = make(map[string]Value)
	}
	if _, ok := r.values[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.values[key] = v
}

// Get returns the value for key and whether the key is present. A present
// key may still hold a null Value.
func (r FlatRecord) Get(key string) (Value, bool) {
	v, ok := r.values[key]
	return v, ok
}

// Has reports whether key is present.
func (r FlatRecord) Has(key string) bool {
	_, ok := r.values[key]
	return ok
}

// Keys returns the keys in insertion order. The slice must not be modified.
func (r FlatRecord) Keys() []string { return r.keys }

// Len returns the number of keys.
func (r FlatRecord) Len() int { return len(r.keys) }
