package record

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// MaxDepth bounds object/array nesting accepted by Decode. encoding/json
// applies the same limit to Unmarshal.
const MaxDepth = 10000

// ErrTrailingData is returned by Unmarshal when more JSON follows the first
// value.
var ErrTrailingData = errors.New("record: trailing data after JSON value")

// Decode reads the next JSON value from dec as a Node. Object key order is
// preserved. Callers should enable dec.UseNumber so numbers keep their text.
func Decode(dec *json.Decoder) (Node, error) {
	tok, err := dec.Token()
	if err != nil {
		return Node{}, err
	}
	return decodeToken(dec, tok, 0)
}

// Unmarshal decodes exactly one JSON value from data.
func Unmarshal(data []byte) (Node, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	n, err := Decode(dec)
	if err != nil {
		if err == io.EOF {
			return Node{}, io.ErrUnexpectedEOF
		}
		return Node{}, err
	}
	if _, err := dec.Token(); err != io.EOF {
		if err != nil {
			return Node{}, err
		}
		return Node{}, ErrTrailingData
	}
	return n, nil
}

func decodeToken(dec *json.Decoder, tok json.Token, depth int) (Node, error) {
	if depth > MaxDepth {
		return Node{}, fmt.Errorf("record: nesting exceeds %d levels", MaxDepth)
	}

	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return decodeObject(dec, depth)
		case '[':
			return decodeList(dec, depth)
		default:
			return Node{}, fmt.Errorf("record: unexpected delimiter %q", rune(t))
		}
	case json.Number:
		return Scalar(Number(t)), nil
	case float64:
		return Scalar(Float(t)), nil
	case string:
		return Scalar(String(t)), nil
	case bool:
		return Scalar(Bool(t)), nil
	case nil:
		return Scalar(Null()), nil
	default:
		return Node{}, fmt.Errorf("record: unexpected token %T", tok)
	}
}

func decodeObject(dec *json.Decoder, depth int) (Node, error) {
	n := Node{kind: NodeObject}
	index := make(map[string]int)
	for dec.More() {
		kt, err := dec.Token()
		if err != nil {
			return Node{}, unexpectedEOF(err)
		}
		key, ok := kt.(string)
		if !ok {
			return Node{}, fmt.Errorf("record: object key is %T, not string", kt)
		}
		vt, err := dec.Token()
		if err != nil {
			return Node{}, unexpectedEOF(err)
		}
		child, err := decodeToken(dec, vt, depth+1)
		if err != nil {
			return Node{}, err
		}
		if i, dup := index[key]; dup {
			n.fields[i].Value = child
			continue
		}
		index[key] = len(n.fields)
		n.fields = append(n.fields, Field{Key: key, Value: child})
	}
	if _, err := dec.Token(); err != nil { // closing '}'
		return Node{}, unexpectedEOF(err)
	}
	return n, nil
}

func decodeList(dec *json.Decoder, depth int) (Node, error) {
	n := Node{kind: NodeList}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return Node{}, unexpectedEOF(err)
		}
		child, err := decodeToken(dec, tok, depth+1)
		if err != nil {
			return Node{}, err
		}
		n.items = append(n.items, child)
	}
	if _, err := dec.Token(); err != nil { // closing ']'
		return Node{}, unexpectedEOF(err)
	}
	return n, nil
}

func unexpectedEOF(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}
