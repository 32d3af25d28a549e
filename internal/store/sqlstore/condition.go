package sqlstore

import (
	"strconv"

	"github.com/lattice-db/lattice/internal/query"
)

// ConditionSQL renders one query.Condition against the value column into
// a WHERE fragment plus its bind arguments, in the order the fragment's
// placeholders appear. Backends call this to build MatchingDocumentIDs'
// query text; it is dialect-neutral because every supported driver
// accepts "?" placeholders and standard LIKE syntax.
func ConditionSQL(cond query.Condition, value string) (fragment string, args []any) {
	switch cond {
	case query.Equals:
		return "value = ?", []any{value}
	case query.NotEquals:
		return "value <> ?", []any{value}
	case query.GreaterThan:
		return relational("value > ?", "CAST(value AS REAL) > ?", value)
	case query.GreaterThanOrEqual:
		return relational("value >= ?", "CAST(value AS REAL) >= ?", value)
	case query.LessThan:
		return relational("value < ?", "CAST(value AS REAL) < ?", value)
	case query.LessThanOrEqual:
		return relational("value <= ?", "CAST(value AS REAL) <= ?", value)
	case query.IsNull:
		return "value IS NULL", nil
	case query.IsNotNull:
		return "value IS NOT NULL", nil
	case query.Contains:
		return "value LIKE ?", []any{"%" + escapeLike(value) + "%"}
	case query.StartsWith:
		return "value LIKE ?", []any{escapeLike(value) + "%"}
	case query.EndsWith:
		return "value LIKE ?", []any{"%" + escapeLike(value)}
	case query.Like:
		// value is already a SQL LIKE pattern (with % / _ wildcards) as
		// authored by the caller; passed through unescaped.
		return "value LIKE ?", []any{value}
	default:
		return "1 = 0", nil // unknown condition matches nothing rather than everything
	}
}

// relational renders a GreaterThan/LessThan-family predicate. When
// value parses as a number it casts the TEXT column to REAL and binds
// a numeric argument, so "100" > "50" compares correctly instead of
// lexicographically (spec.md §4.6). Non-numeric operands (dates,
// version strings) fall back to the plain text comparison.
func relational(textFragment, numericFragment, value string) (string, []any) {
	if f, err := strconv.ParseFloat(value, 64); err == nil {
		return numericFragment, []any{f}
	}
	return textFragment, []any{value}
}

// escapeLike escapes LIKE metacharacters in a literal substring so
// Contains/StartsWith/EndsWith treat the operand as literal text, not a
// pattern. The backslash is the standard LIKE ESCAPE default SQLite and
// MySQL both already assume.
func escapeLike(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '%', '_', '\\':
			out = append(out, '\\')
		}
		out = append(out, s[i])
	}
	return string(out)
}
