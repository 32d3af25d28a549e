// Package flatten implements the JSON flattener (spec.md §4.1): recursive
// decomposition of a JSON document into an ordered list of
// (key, position, value, type) tuples suitable for schema inference and
// per-key indexing.
//
// No third-party JSON library in the example corpus exposes a decoder
// that preserves object-member order the way this flattener needs to
// (goccy/go-json and tidwall/gjson both optimize for read-only traversal
// via interface{} or byte-offset access, which loses member order the
// moment an object lands in a map). encoding/json's token-level
// Decoder, driven one token at a time, is the standard-library tool
// built exactly for order-preserving streaming decode, so no
// third-party dependency stands in for it here.
package flatten

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// DataType mirrors model.DataType without importing it, so this leaf
// package stays dependency-free; the schema package maps between the two.
type DataType string

const (
	TypeString  DataType = "string"
	TypeNumber  DataType = "number"
	TypeBoolean DataType = "boolean"
	TypeNull    DataType = "null"
	TypeArray   DataType = "array"
	TypeObject  DataType = "object"
)

// Value is a single flattened leaf.
type Value struct {
	Key      string
	Position *int // 0-based index in the innermost enclosing array, nil otherwise
	Value    *string
	Type     DataType
}

// Flatten decomposes raw JSON text into an ordered, depth-first list of
// Values, preserving source member order at every object level. It is
// total over well-formed JSON: flattening never fails except when the
// input itself does not parse.
func Flatten(raw []byte) ([]Value, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	f := &flattener{dec: dec}
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("flatten: parsing json: %w", err)
	}
	if err := f.walkValue("", nil, tok); err != nil {
		return nil, fmt.Errorf("flatten: parsing json: %w", err)
	}
	return f.out, nil
}

type flattener struct {
	dec *json.Decoder
	out []Value
}

// walkValue handles a value whose opening token has already been read
// (tok), dispatching to object/array handling or emitting a scalar leaf.
func (f *flattener) walkValue(key string, pos *int, tok json.Token) error {
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return f.walkObject(key, pos)
		case '[':
			return f.walkArray(key)
		default:
			return fmt.Errorf("unexpected closing delimiter %q", t)
		}
	case nil:
		f.emit(key, pos, nil, TypeNull)
		return nil
	case json.Number:
		s := t.String()
		f.emit(key, pos, &s, TypeNumber)
		return nil
	case string:
		f.emit(key, pos, &t, TypeString)
		return nil
	case bool:
		s := strconv.FormatBool(t)
		f.emit(key, pos, &s, TypeBoolean)
		return nil
	default:
		return fmt.Errorf("unexpected token %T", tok)
	}
}

// walkObject consumes tokens up to and including the matching '}'. The
// opening '{' has already been consumed by the caller.
func (f *flattener) walkObject(key string, pos *int) error {
	empty := true
	for {
		tok, err := f.dec.Token()
		if err != nil {
			return err
		}
		if d, ok := tok.(json.Delim); ok && d == '}' {
			break
		}
		empty = false
		member, ok := tok.(string)
		if !ok {
			return fmt.Errorf("expected object member name, got %T", tok)
		}
		valTok, err := f.dec.Token()
		if err != nil {
			return err
		}
		if err := f.walkValue(joinKey(key, member), pos, valTok); err != nil {
			return err
		}
	}
	if empty {
		f.emit(key, pos, nil, TypeObject)
	}
	return nil
}

// walkArray consumes tokens up to and including the matching ']'. The
// opening '[' has already been consumed by the caller.
func (f *flattener) walkArray(key string) error {
	empty := true
	idx := 0
	for {
		tok, err := f.dec.Token()
		if err != nil {
			return err
		}
		if d, ok := tok.(json.Delim); ok && d == ']' {
			break
		}
		empty = false
		i := idx
		if err := f.walkValue(key, &i, tok); err != nil {
			return err
		}
		idx++
	}
	if empty {
		f.emit(key, nil, nil, TypeArray)
	}
	return nil
}

func (f *flattener) emit(key string, pos *int, value *string, t DataType) {
	f.out = append(f.out, Value{Key: key, Position: pos, Value: value, Type: t})
}

func joinKey(base, member string) string {
	if base == "" {
		return member
	}
	return base + "." + member
}
