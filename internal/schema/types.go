package schema

import (
	"math"
	"strconv"
	"strings"

	"tableingest/internal/record"
)

// ColumnType is a backend-neutral column type. Storage dialects map it to a
// concrete SQL type.
type ColumnType string

const (
	TypeInteger ColumnType = "integer"
	TypeReal    ColumnType = "real"
	TypeBoolean ColumnType = "boolean"
	TypeText    ColumnType = "text"
)

// InferTypes returns one ColumnType per column of rows (ncols wide).
//
// Nulls are ignored. A column of only integers is TypeInteger, a mix of
// integers and other numbers is TypeReal, all booleans is TypeBoolean, and
// anything else, including an all-null column, is TypeText. A number that
// neither int64 nor a finite float64 can hold makes its column TypeText.
func InferTypes(rows [][]record.Value, ncols int) []ColumnType {
	types := make([]ColumnType, ncols)
	for c := 0; c < ncols; c++ {
		types[c] = inferColumn(rows, c)
	}
	return types
}

func inferColumn(rows [][]record.Value, c int) ColumnType {
	var sawInt, sawFloat, sawBool, sawString bool
	for _, row := range rows {
		if c >= len(row) {
			continue
		}
		v := row[c]
		switch v.Kind() {
		case record.KindNull:
		case record.KindNumber:
			switch numberClass(v) {
			case TypeInteger:
				sawInt = true
			case TypeReal:
				sawFloat = true
			default:
				sawString = true
			}
		case record.KindBool:
			sawBool = true
		default:
			sawString = true
		}
		if sawString || (sawBool && (sawInt || sawFloat)) {
			return TypeText
		}
	}
	switch {
	case sawFloat:
		return TypeReal
	case sawInt:
		return TypeInteger
	case sawBool:
		return TypeBoolean
	default:
		return TypeText
	}
}

// numberClass reports how a number is stored without changing its value:
// TypeInteger when it fits int64, TypeReal when it is a finite float64, and
// TypeText otherwise (out-of-range floats and integer literals wider than
// int64), so the literal survives in a text column.
func numberClass(v record.Value) ColumnType {
	if v.IsInteger() {
		return TypeInteger
	}
	n, _ := v.Num()
	if !strings.ContainsAny(string(n), ".eE") {
		return TypeText
	}
	f, err := strconv.ParseFloat(string(n), 64)
	if err != nil || math.IsInf(f, 0) {
		return TypeText
	}
	return TypeReal
}

// Arg converts v into the database/sql argument for a column of type t, so
// that every driver receives the Go type matching the declared SQL type.
// Null is always nil. A text column receives the value's textual form, which
// keeps numbers and booleans exactly as they appeared in the input.
func Arg(v record.Value, t ColumnType) any {
	if v.IsNull() {
		return nil
	}
	switch t {
	case TypeInteger:
		if n, ok := v.Num(); ok {
			if i, err := strconv.ParseInt(string(n), 10, 64); err == nil {
				return i
			}
		}
	case TypeReal:
		if n, ok := v.Num(); ok {
			if f, err := strconv.ParseFloat(string(n), 64); err == nil {
				return f
			}
		}
	case TypeBoolean:
		if b, ok := v.Boolean(); ok {
			return b
		}
	case TypeText:
		return v.String()
	}
	return v.Arg()
}

// Args converts a positional row with ColumnTypes types.
func Args(row []record.Value, types []ColumnType) []any {
	out := make([]any, len(row))
	for i, v := range row {
		t := TypeText
		if i < len(types) {
			t = types[i]
		}
		out[i] = Arg(v, t)
	}
	return out
}
