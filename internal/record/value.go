// Package record holds the in-memory data model shared by the parsers, the
// flattener and the storage layer:
//
//   - Value, a tagged scalar (null, string, number, bool);
//   - Node, a recursive tree of objects, lists and scalars as decoded from
//     JSON, with object key order preserved;
//   - FlatRecord, an ordered one-level mapping from flat keys to Values.
package record

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"
)

// Kind tags the variant held by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Value is a scalar leaf. The zero Value is null.
//
// Numbers are kept as their decimal text so that integers survive without a
// float64 round trip; Arg decides the driver type at bind time.
type Value struct {
	kind Kind
	s    string
	b    bool
}

// Null returns the null Value.
func Null() Value { return Value{} }

// String returns a string Value.
func String(s string) Value { return Value{kind: KindString, s: s} }

// Bool returns a boolean Value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Number returns a numeric Value from JSON number text.
func Number(n json.Number) Value { return Value{kind: KindNumber, s: string(n)} }

// Int returns a numeric Value holding n.
func Int(n int64) Value { return Value{kind: KindNumber, s: strconv.FormatInt(n, 10)} }

// Float returns a numeric Value holding f. NaN and infinities have no JSON
// representation and become null.
func Float(f float64) Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Null()
	}
	return Value{kind: KindNumber, s: strconv.FormatFloat(f, 'g', -1, 64)}
}

// Kind reports the variant.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Str returns the string payload and whether v is a string.
func (v Value) Str() (string, bool) { return v.s, v.kind == KindString }

// Num returns the number payload and whether v is a number.
func (v Value) Num() (json.Number, bool) { return json.Number(v.s), v.kind == KindNumber }

// Boolean returns the bool payload and whether v is a bool.
func (v Value) Boolean() (bool, bool) { return v.b, v.kind == KindBool }

// IsInteger reports whether v is a number that parses as an int64.
func (v Value) IsInteger() bool {
	if v.kind != KindNumber {
		return false
	}
	_, err := strconv.ParseInt(v.s, 10, 64)
	return err == nil
}

// Arg converts v into a database/sql argument: nil, string, int64, float64
// or bool.
func (v Value) Arg() any {
	switch v.kind {
	case KindString:
		return v.s
	case KindBool:
		return v.b
	case KindNumber:
		if i, err := strconv.ParseInt(v.s, 10, 64); err == nil {
			return i
		}
		if f, err := strconv.ParseFloat(v.s, 64); err == nil {
			return f
		}
		// Out-of-range numbers are kept verbatim rather than rounded to ±Inf.
		return v.s
	default:
		return nil
	}
}

// String renders v for logs and plain-text output. Null renders as "null".
func (v Value) String() string {
	switch v.kind {
	case KindString, KindNumber:
		return v.s
	case KindBool:
		return strconv.FormatBool(v.b)
	default:
		return "null"
	}
}

// Equal reports whether v and o hold the same variant and payload.
func (v Value) Equal(o Value) bool {
	return v.kind == o.kind && v.s == o.s && v.b == o.b
}

// MarshalJSON encodes v as the matching JSON scalar.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindString:
		return json.Marshal(v.s)
	case KindNumber:
		return []byte(v.s), nil
	case KindBool:
		return json.Marshal(v.b)
	default:
		return []byte("null"), nil
	}
}

// FromDriver converts a value scanned from database/sql into a Value.
// []byte is treated as text; time.Time is rendered as RFC 3339.
func FromDriver(x any) Value {
	switch t := x.(type) {
	case nil:
		return Null()
	case string:
		return String(t)
	case []byte:
		return String(string(t))
	case bool:
		return Bool(t)
	case int64:
		return Int(t)
	case int32:
		return Int(int64(t))
	case int:
		return Int(int64(t))
	case int16:
		return Int(int64(t))
	case int8:
		return Int(int64(t))
	case uint8:
		return Int(int64(t))
	case float64:
		return Float(t)
	case float32:
		return Float(float64(t))
	case time.Time:
		return String(t.Format(time.RFC3339Nano))
	default:
		return String(fmt.Sprint(t))
	}
}
