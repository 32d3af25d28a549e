// Package validate implements the Schema Validator (C5, spec.md §4.3):
// checking a JSON document against a collection's field constraints
// under one of the four enforcement modes.
//
// FieldConstraint.RegexPattern is checked with dlclark/regexp2 rather
// than the standard library's regexp: RE2 (stdlib) rejects lookaround
// and backreferences outright, and operator-authored field patterns
// (e.g. "reject trailing whitespace unless escaped", "no two identical
// adjacent words") routinely need them. regexp2 implements .NET-flavor
// regex semantics, matching what a constraint author coming from any
// mainstream non-Go regex dialect already expects.
package validate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/dlclark/regexp2"

	"github.com/lattice-db/lattice/internal/errs"
	"github.com/lattice-db/lattice/internal/model"
)

// leaf is one JSON scalar discovered while walking the document, tagged
// with its array-index-annotated path (e.g. "items[0].name").
type leaf struct {
	path  string
	value any
	typ   string // string, integer, number, boolean, array, object, null
}

// Validate checks raw against constraints under mode, returning a
// KindSchemaValidation *errs.Error carrying every failure found, or nil
// if raw satisfies mode's rules. mode == model.EnforcementNone or an
// empty constraints list both short-circuit to success without parsing.
func Validate(raw []byte, mode model.EnforcementMode, constraints []model.FieldConstraint) error {
	if mode == model.EnforcementNone || len(constraints) == 0 {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var root any
	if err := dec.Decode(&root); err != nil {
		return errs.SchemaValidation([]errs.ValidationError{{
			FieldPath: "",
			Code:      errs.CodeTypeMismatch,
			Message:   fmt.Sprintf("document is not valid JSON: %v", err),
		}})
	}

	leaves := collectLeaves(root)
	byConstraintPath := make(map[string]*model.FieldConstraint, len(constraints))
	for i := range constraints {
		byConstraintPath[normalize(constraints[i].FieldPath)] = &constraints[i]
	}

	var failures []errs.ValidationError

	if mode != model.EnforcementPartial {
		for i := range constraints {
			c := &constraints[i]
			if !c.Required {
				continue
			}
			if !anyLeafSatisfiesRequired(leaves, c.FieldPath) {
				failures = append(failures, errs.ValidationError{
					FieldPath: c.FieldPath,
					Code:      errs.CodeMissingRequiredField,
					Message:   "required field is missing",
				})
			}
		}
	}

	for _, l := range leaves {
		c, found := byConstraintPath[normalize(l.path)]
		if !found {
			if mode == model.EnforcementStrict {
				failures = append(failures, errs.ValidationError{
					FieldPath: l.path,
					Code:      errs.CodeUnexpectedField,
					Message:   "field is not declared by any constraint",
				})
			}
			continue
		}
		failures = append(failures, checkLeaf(l, c)...)
	}

	if len(failures) > 0 {
		return errs.SchemaValidation(failures)
	}
	return nil
}

// collectLeaves walks the decoded JSON tree depth-first, emitting one
// leaf per scalar (and one presence leaf per empty array/object), with
// fully bracket-annotated paths — distinct from internal/flatten, which
// only tracks the innermost array index for per-key indexing purposes.
func collectLeaves(v any) []leaf {
	var out []leaf
	var walk func(path string, v any)
	walk = func(path string, v any) {
		switch tv := v.(type) {
		case map[string]any:
			if len(tv) == 0 {
				out = append(out, leaf{path: path, value: tv, typ: "object"})
				return
			}
			for k, mv := range tv {
				child := k
				if path != "" {
					child = path + "." + k
				}
				walk(child, mv)
			}
		case []any:
			if len(tv) == 0 {
				out = append(out, leaf{path: path, value: tv, typ: "array"})
				return
			}
			for i, ev := range tv {
				walk(fmt.Sprintf("%s[%d]", path, i), ev)
			}
		case nil:
			out = append(out, leaf{path: path, value: nil, typ: "null"})
		case json.Number:
			typ := "number"
			if isIntegerValued(tv) {
				typ = "integer"
			}
			out = append(out, leaf{path: path, value: tv, typ: typ})
		case string:
			out = append(out, leaf{path: path, value: tv, typ: "string"})
		case bool:
			out = append(out, leaf{path: path, value: tv, typ: "boolean"})
		}
	}
	walk("", v)
	return out
}

func isIntegerValued(n json.Number) bool {
	if i, err := n.Int64(); err == nil {
		_ = i
		return true
	}
	f, err := n.Float64()
	if err != nil {
		return false
	}
	return f == float64(int64(f))
}

var bracketIndex = regexp.MustCompile(`\[\d+\]|\[\*\]`)

// normalize strips every bracketed index (concrete or wildcard) from a
// path, so "items[0].name", "items[*].name" and "items.name" all map to
// the same constraint lookup key (spec.md §4.3 step 4).
func normalize(path string) string {
	return bracketIndex.ReplaceAllString(path, "")
}

// anyLeafSatisfiesRequired reports whether some present leaf path
// matches pattern exactly, or matches it as a concrete array expansion
// (pattern may contain literal "[*]" segments, spec.md §4.3 step 3).
func anyLeafSatisfiesRequired(leaves []leaf, pattern string) bool {
	if !strings.Contains(pattern, "[*]") {
		for _, l := range leaves {
			if l.path == pattern {
				return true
			}
		}
		// Also accept the case where the constraint is written without
		// any index annotation at all but the document only has it
		// inside an array (e.g. constraint "items.name" satisfied by
		// "items[0].name").
		for _, l := range leaves {
			if normalize(l.path) == pattern {
				return true
			}
		}
		return false
	}
	var b strings.Builder
	b.WriteByte('^')
	for _, part := range strings.Split(pattern, "[*]") {
		b.WriteString(regexp.QuoteMeta(part))
		b.WriteString(`(\[\d+\])?`)
	}
	b.WriteByte('$')
	re := regexp.MustCompile(b.String())
	for _, l := range leaves {
		if re.MatchString(l.path) {
			return true
		}
	}
	return false
}

func checkLeaf(l leaf, c *model.FieldConstraint) []errs.ValidationError {
	var out []errs.ValidationError

	// collectLeaves emits no leaf for a non-empty array, only one per
	// element (path ending in "[n]"), so element types are checked here.
	if c.ArrayElementType != nil && strings.HasSuffix(l.path, "]") && !elementMatchesType(l.value, *c.ArrayElementType) {
		out = append(out, errs.ValidationError{
			FieldPath: l.path,
			Code:      errs.CodeInvalidArrayElement,
			Message:   fmt.Sprintf("array element is not of type %s", *c.ArrayElementType),
		})
	}

	if l.typ == "null" {
		if !c.Nullable {
			out = append(out, errs.ValidationError{
				FieldPath: l.path, Code: errs.CodeNullNotAllowed,
				Message: "null is not allowed for this field",
			})
		}
		return out
	}

	if c.DataType != nil && string(*c.DataType) != l.typ {
		// integer satisfies a "number" constraint without complaint
		if !(*c.DataType == model.TypeNumber && l.typ == "integer") {
			out = append(out, errs.ValidationError{
				FieldPath: l.path, Code: errs.CodeTypeMismatch,
				Message:  fmt.Sprintf("expected %s, got %s", *c.DataType, l.typ),
				Actual:   l.typ,
				Expected: *c.DataType,
			})
			return out
		}
	}

	switch l.typ {
	case "string":
		s := l.value.(string)
		if c.MinLength != nil && len(s) < *c.MinLength {
			out = append(out, errs.ValidationError{FieldPath: l.path, Code: errs.CodeStringTooShort,
				Message: fmt.Sprintf("length %d is below minimum %d", len(s), *c.MinLength)})
		}
		if c.MaxLength != nil && len(s) > *c.MaxLength {
			out = append(out, errs.ValidationError{FieldPath: l.path, Code: errs.CodeStringTooLong,
				Message: fmt.Sprintf("length %d exceeds maximum %d", len(s), *c.MaxLength)})
		}
		if c.RegexPattern != nil {
			if ok, err := matchesPattern(*c.RegexPattern, s); err != nil || !ok {
				out = append(out, errs.ValidationError{FieldPath: l.path, Code: errs.CodePatternMismatch,
					Message: fmt.Sprintf("value does not match pattern %q", *c.RegexPattern)})
			}
		}
		if len(c.AllowedValues) > 0 && !contains(c.AllowedValues, s) {
			out = append(out, errs.ValidationError{FieldPath: l.path, Code: errs.CodeValueNotAllowed,
				Message: fmt.Sprintf("value %q is not in the allowed set", s)})
		}
	case "number", "integer":
		f := numberValue(l.value.(json.Number))
		if c.MinValue != nil && f < *c.MinValue {
			out = append(out, errs.ValidationError{FieldPath: l.path, Code: errs.CodeValueTooSmall,
				Message: fmt.Sprintf("value %v is below minimum %v", f, *c.MinValue)})
		}
		if c.MaxValue != nil && f > *c.MaxValue {
			out = append(out, errs.ValidationError{FieldPath: l.path, Code: errs.CodeValueTooLarge,
				Message: fmt.Sprintf("value %v exceeds maximum %v", f, *c.MaxValue)})
		}
		if len(c.AllowedValues) > 0 && !contains(c.AllowedValues, l.value.(json.Number).String()) {
			out = append(out, errs.ValidationError{FieldPath: l.path, Code: errs.CodeValueNotAllowed,
				Message: "value is not in the allowed set"})
		}
	case "array":
		arr := l.value.([]any)
		if c.MinLength != nil && len(arr) < *c.MinLength {
			out = append(out, errs.ValidationError{FieldPath: l.path, Code: errs.CodeArrayTooShort,
				Message: fmt.Sprintf("array length %d is below minimum %d", len(arr), *c.MinLength)})
		}
		if c.MaxLength != nil && len(arr) > *c.MaxLength {
			out = append(out, errs.ValidationError{FieldPath: l.path, Code: errs.CodeArrayTooLong,
				Message: fmt.Sprintf("array length %d exceeds maximum %d", len(arr), *c.MaxLength)})
		}
		if c.ArrayElementType != nil {
			for i, el := range arr {
				if !elementMatchesType(el, *c.ArrayElementType) {
					out = append(out, errs.ValidationError{
						FieldPath: fmt.Sprintf("%s[%d]", l.path, i),
						Code:      errs.CodeInvalidArrayElement,
						Message:   fmt.Sprintf("array element is not of type %s", *c.ArrayElementType),
					})
				}
			}
		}
	}

	return out
}

func elementMatchesType(v any, t model.DataType) bool {
	switch t {
	case model.TypeString:
		_, ok := v.(string)
		return ok
	case model.TypeBoolean:
		_, ok := v.(bool)
		return ok
	case model.TypeNumber:
		_, ok := v.(json.Number)
		return ok
	case model.TypeInteger:
		n, ok := v.(json.Number)
		return ok && isIntegerValued(n)
	case model.TypeNull:
		return v == nil
	case model.TypeArray:
		_, ok := v.([]any)
		return ok
	case model.TypeObject:
		_, ok := v.(map[string]any)
		return ok
	default:
		return false
	}
}

func numberValue(n json.Number) float64 {
	f, err := strconv.ParseFloat(n.String(), 64)
	if err != nil {
		return 0
	}
	return f
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

func matchesPattern(pattern, s string) (bool, error) {
	re, err := regexp2.Compile(pattern, regexp2.None)
	if err != nil {
		return false, err
	}
	return re.MatchString(s)
}
