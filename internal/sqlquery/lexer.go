// Package sqlquery implements the SQL-like Parser (C9, spec.md §4.7):
// a restricted SELECT * FROM ... WHERE ... ORDER BY ... LIMIT ... OFFSET
// grammar, AND-only, translated into a query.Search the planner (C8)
// can execute.
package sqlquery

import (
	"fmt"
	"strings"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokString
	tokNumber
	tokOp
	tokComma
	tokStar
)

type token struct {
	kind tokenKind
	text string
}

// lex tokenizes input, unescaping quoted strings (doubled quote ->
// literal quote, spec.md §4.7) as it goes.
func lex(input string) ([]token, error) {
	var toks []token
	i, n := 0, len(input)
	for i < n {
		c := input[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == ',':
			toks = append(toks, token{tokComma, ","})
			i++
		case c == '*':
			toks = append(toks, token{tokStar, "*"})
			i++
		case c == '\'' || c == '"':
			s, next, err := lexQuoted(input, i, c)
			if err != nil {
				return nil, err
			}
			toks = append(toks, token{tokString, s})
			i = next
		case c == '=' || c == '<' || c == '>' || c == '!':
			op, next := lexOp(input, i)
			toks = append(toks, token{tokOp, op})
			i = next
		case isIdentStart(c):
			j := i + 1
			for j < n && isIdentPart(input[j]) {
				j++
			}
			toks = append(toks, token{tokIdent, input[i:j]})
			i = j
		case c >= '0' && c <= '9' || c == '-':
			j := i + 1
			for j < n && (input[j] >= '0' && input[j] <= '9' || input[j] == '.') {
				j++
			}
			toks = append(toks, token{tokNumber, input[i:j]})
			i = j
		default:
			return nil, fmt.Errorf("sqlquery: unexpected character %q at position %d", c, i)
		}
	}
	toks = append(toks, token{tokEOF, ""})
	return toks, nil
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9') || c == '.'
}

func lexOp(s string, i int) (string, int) {
	two := ""
	if i+1 < len(s) {
		two = s[i : i+2]
	}
	switch two {
	case "!=", "<>", ">=", "<=":
		return two, i + 2
	}
	return s[i : i+1], i + 1
}

// lexQuoted consumes a quoted string starting at i (input[i] == quote),
// returning the unescaped contents and the index just past the closing
// quote. A doubled quote character inside the string is an escaped
// literal quote (spec.md §4.7).
func lexQuoted(s string, i int, quote byte) (string, int, error) {
	var b strings.Builder
	j := i + 1
	for j < len(s) {
		if s[j] == quote {
			if j+1 < len(s) && s[j+1] == quote {
				b.WriteByte(quote)
				j += 2
				continue
			}
			return b.String(), j + 1, nil
		}
		b.WriteByte(s[j])
		j++
	}
	return "", 0, fmt.Errorf("sqlquery: unterminated quoted string starting at position %d", i)
}
