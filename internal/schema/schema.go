// Package schema implements the Schema Inferencer (C4, spec.md §4.2):
// reducing a flattened document's tuples to an ordered list of distinct
// (key, type, nullable) elements and a stable, deduplicating hash.
package schema

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/lattice-db/lattice/internal/flatten"
	"github.com/lattice-db/lattice/internal/model"
)

// Element is one inferred field, before it is persisted as a
// model.SchemaElement (which additionally carries an ID and schema ID).
type Element struct {
	Position int
	Key      string
	DataType model.DataType
	Nullable bool
}

// Infer groups flattened values by key, preserving first-seen order, and
// resolves each group's data type and nullability (spec.md §4.2):
//   - if every tuple in the group agrees on type, use that type;
//   - if the group is entirely numeric and every value is integer-valued,
//     emit "integer", else "number";
//   - if any tuple in the group is null, the element is nullable;
//   - a heterogeneous non-null group collapses to "string".
func Infer(values []flatten.Value) []Element {
	order := make([]string, 0, len(values))
	groups := make(map[string][]flatten.Value, len(values))
	for _, v := range values {
		if _, seen := groups[v.Key]; !seen {
			order = append(order, v.Key)
		}
		groups[v.Key] = append(groups[v.Key], v)
	}

	elements := make([]Element, 0, len(order))
	for pos, key := range order {
		elements = append(elements, Element{
			Position: pos,
			Key:      key,
			DataType: resolveType(groups[key]),
			Nullable: anyNull(groups[key]),
		})
	}
	return elements
}

func anyNull(vs []flatten.Value) bool {
	for _, v := range vs {
		if v.Type == flatten.TypeNull {
			return true
		}
	}
	return false
}

func resolveType(vs []flatten.Value) model.DataType {
	var nonNullType flatten.DataType
	sawType := false
	mixed := false
	allInteger := true
	sawNumber := false

	for _, v := range vs {
		if v.Type == flatten.TypeNull {
			continue
		}
		if v.Type == flatten.TypeNumber {
			sawNumber = true
			if v.Value == nil || !isIntegerLiteral(*v.Value) {
				allInteger = false
			}
		}
		if !sawType {
			nonNullType = v.Type
			sawType = true
		} else if v.Type != nonNullType {
			mixed = true
		}
	}

	switch {
	case !sawType:
		// every tuple for this key was null
		return model.TypeNull
	case mixed:
		return model.TypeString
	case nonNullType == flatten.TypeNumber && sawNumber:
		if allInteger {
			return model.TypeInteger
		}
		return model.TypeNumber
	default:
		return toModelType(nonNullType)
	}
}

func toModelType(t flatten.DataType) model.DataType {
	switch t {
	case flatten.TypeString:
		return model.TypeString
	case flatten.TypeNumber:
		return model.TypeNumber
	case flatten.TypeBoolean:
		return model.TypeBoolean
	case flatten.TypeArray:
		return model.TypeArray
	case flatten.TypeObject:
		return model.TypeObject
	default:
		return model.TypeString
	}
}

// isIntegerLiteral reports whether a json.Number's lexical form encodes
// an integer value (no fractional part, no exponent that introduces one).
func isIntegerLiteral(s string) bool {
	if strings.ContainsAny(s, ".eE") {
		// still integer-valued if it parses to a whole number, e.g. "1e2"
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return false
		}
		return f == float64(int64(f))
	}
	_, err := strconv.ParseInt(s, 10, 64)
	return err == nil
}

// ComputeHash is the deterministic dedup key for a schema (spec.md §4.2):
// concatenate "key|type|nullable" triples in emitted order separated by
// "\n", SHA-256 the UTF-8 bytes, return lowercase hex.
func ComputeHash(elements []Element) string {
	var b strings.Builder
	for i, e := range elements {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(e.Key)
		b.WriteByte('|')
		b.WriteString(string(e.DataType))
		b.WriteByte('|')
		b.WriteString(strconv.FormatBool(e.Nullable))
	}
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}
