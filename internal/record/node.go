package record

// NodeKind tags the variant held by a Node.
type NodeKind uint8

const (
	NodeScalar NodeKind = iota
	NodeObject
	NodeList
)

func (k NodeKind) String() string {
	switch k {
	case NodeObject:
		return "object"
	case NodeList:
		return "array"
	default:
		return "scalar"
	}
}

// Field is one key/value pair of an object Node.
type Field struct {
	Key   string
	Value Node
}

// Node is a tree-shaped record: an object with ordered fields, a list, or a
// scalar leaf. The zero Node is a null scalar.
type Node struct {
	kind   NodeKind
	scalar Value
	fields []Field
	items  []Node
}

// Scalar wraps v as a leaf Node.
func Scalar(v Value) Node { return Node{kind: NodeScalar, scalar: v} }

// Object returns an object Node. When a key repeats, the later value wins
// and keeps the position of the first occurrence, matching how encoding/json
// resolves duplicate keys.
func Object(fields ...Field) Node {
	n := Node{kind: NodeObject, fields: make([]Field, 0, len(fields))}
	for _, f := range fields {
		n.set(f.Key, f.Value)
	}
	return n
}

// List returns a list Node.
func List(items ...Node) Node {
	return Node{kind: NodeList, items: append([]Node(nil), items...)}
}

// Kind reports the variant.
func (n Node) Kind() NodeKind { return n.kind }

// Value returns the scalar payload. It is null for objects and lists.
func (n Node) Value() Value { return n.scalar }

// Fields returns the object's fields in source order.
func (n Node) Fields() []Field { return n.fields }

// Items returns the list elements.
func (n Node) Items() []Node { return n.items }

// Get returns the value stored under key in an object Node.
func (n Node) Get(key string) (Node, bool) {
	for _, f := range n.fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return Node{}, false
}

func (n *Node) set(key string, v Node) {
	for i := range n.fields {
		if n.fields[i].Key == key {
			n.fields[i].Value = v
			return
		}
	}
	n.fields = append(n.fields, Field{Key: key, Value: v})
}
