package sqlquery

import (
	"fmt"
	"strings"

	"github.com/lattice-db/lattice/internal/errs"
	"github.com/lattice-db/lattice/internal/query"
)

// Parse translates a restricted SELECT * FROM coll [WHERE ...]
// [ORDER BY ...] [LIMIT n] [OFFSET n] string into a query.Search
// scoped to the named collection. OR and parentheses are rejected with
// InvalidArgument (spec.md §4.7, §9 Open Question #1).
func Parse(text string) (collection string, s query.Search, err error) {
	toks, lexErr := lex(text)
	if lexErr != nil {
		return "", query.Search{}, errs.InvalidArgument("%v", lexErr)
	}
	p := &parser{toks: toks}

	if err := p.expectKeyword("SELECT"); err != nil {
		return "", query.Search{}, err
	}
	if err := p.expect(tokStar, "*"); err != nil {
		return "", query.Search{}, err
	}
	if err := p.expectKeyword("FROM"); err != nil {
		return "", query.Search{}, err
	}
	collection, err = p.expectIdent()
	if err != nil {
		return "", query.Search{}, err
	}

	search := query.Search{Ordering: query.CreatedAscending, MaxResults: query.MaxResultsCap}

	if p.peekKeyword("WHERE") {
		p.next()
		filters, err := p.parseCondList()
		if err != nil {
			return "", query.Search{}, err
		}
		search.Filters = filters
	}

	if p.peekKeyword("ORDER") {
		p.next()
		if err := p.expectKeyword("BY"); err != nil {
			return "", query.Search{}, err
		}
		ord, err := p.parseOrderSpec()
		if err != nil {
			return "", query.Search{}, err
		}
		search.Ordering = ord
	}

	if p.peekKeyword("LIMIT") {
		p.next()
		n, err := p.expectNumber()
		if err != nil {
			return "", query.Search{}, err
		}
		search.MaxResults = n
	}

	if p.peekKeyword("OFFSET") {
		p.next()
		n, err := p.expectNumber()
		if err != nil {
			return "", query.Search{}, err
		}
		search.Skip = n
	}

	if p.cur().kind != tokEOF {
		return "", query.Search{}, errs.InvalidArgument("sqlquery: unexpected trailing input near %q", p.cur().text)
	}

	search.Clamp()
	return collection, search, nil
}

type parser struct {
	toks []token
	pos  int
}

func (p *parser) cur() token { return p.toks[p.pos] }

func (p *parser) next() token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *parser) peekKeyword(kw string) bool {
	t := p.cur()
	return t.kind == tokIdent && strings.EqualFold(t.text, kw)
}

func (p *parser) expectKeyword(kw string) error {
	if !p.peekKeyword(kw) {
		return errs.InvalidArgument("sqlquery: expected %q, got %q", kw, p.cur().text)
	}
	p.next()
	return nil
}

func (p *parser) expect(kind tokenKind, human string) error {
	if p.cur().kind != kind {
		return errs.InvalidArgument("sqlquery: expected %s, got %q", human, p.cur().text)
	}
	p.next()
	return nil
}

func (p *parser) expectIdent() (string, error) {
	if p.cur().kind != tokIdent {
		return "", errs.InvalidArgument("sqlquery: expected identifier, got %q", p.cur().text)
	}
	return p.next().text, nil
}

func (p *parser) expectNumber() (int, error) {
	if p.cur().kind != tokNumber {
		return 0, errs.InvalidArgument("sqlquery: expected integer, got %q", p.cur().text)
	}
	t := p.next().text
	var n int
	if _, err := fmt.Sscanf(t, "%d", &n); err != nil {
		return 0, errs.InvalidArgument("sqlquery: invalid integer %q", t)
	}
	return n, nil
}

// parseCondList parses cond ("AND" cond)*, rejecting "OR" outright: a
// bare OR keyword where AND or a terminator is expected means the query
// needed disjunction, which this grammar does not support (spec.md §9).
func (p *parser) parseCondList() ([]query.Filter, error) {
	var filters []query.Filter
	for {
		f, err := p.parseCond()
		if err != nil {
			return nil, err
		}
		filters = append(filters, f)

		if p.peekKeyword("OR") {
			return nil, errs.InvalidArgument("sqlquery: OR is not supported")
		}
		if !p.peekKeyword("AND") {
			return filters, nil
		}
		p.next()
	}
}

func (p *parser) parseCond() (query.Filter, error) {
	field, err := p.expectIdent()
	if err != nil {
		return query.Filter{}, err
	}

	if p.peekKeyword("IS") {
		p.next()
		cond := query.IsNotNull
		if p.peekKeyword("NOT") {
			p.next()
		} else {
			cond = query.IsNull
		}
		if err := p.expectKeyword("NULL"); err != nil {
			return query.Filter{}, err
		}
		return query.Filter{Field: field, Condition: cond}, nil
	}

	if p.peekKeyword("LIKE") {
		p.next()
		pattern, err := p.expectValue()
		if err != nil {
			return query.Filter{}, err
		}
		return query.Filter{Field: field, Condition: likeToCondition(pattern), Value: likePayload(pattern)}, nil
	}

	if p.cur().kind != tokOp {
		return query.Filter{}, errs.InvalidArgument("sqlquery: expected operator after %q, got %q", field, p.cur().text)
	}
	opText := p.next().text
	cond, ok := operatorCondition(opText)
	if !ok {
		return query.Filter{}, errs.InvalidArgument("sqlquery: unsupported operator %q", opText)
	}

	value, err := p.expectValue()
	if err != nil {
		return query.Filter{}, err
	}
	return query.Filter{Field: field, Condition: cond, Value: value}, nil
}

func (p *parser) expectValue() (string, error) {
	t := p.cur()
	switch t.kind {
	case tokString, tokIdent, tokNumber:
		p.next()
		return t.text, nil
	default:
		return "", errs.InvalidArgument("sqlquery: expected a value, got %q", t.text)
	}
}

func operatorCondition(op string) (query.Condition, bool) {
	switch op {
	case "=":
		return query.Equals, true
	case "!=", "<>":
		return query.NotEquals, true
	case ">":
		return query.GreaterThan, true
	case ">=":
		return query.GreaterThanOrEqual, true
	case "<":
		return query.LessThan, true
	case "<=":
		return query.LessThanOrEqual, true
	default:
		return "", false
	}
}

// likeToCondition classifies a LIKE pattern per spec.md §4.7:
// "%x%" -> Contains, "%x" -> EndsWith, "x%" -> StartsWith, anything
// else passes through as a literal Like condition.
func likeToCondition(pattern string) query.Condition {
	hasPrefix := strings.HasPrefix(pattern, "%")
	hasSuffix := strings.HasSuffix(pattern, "%")
	switch {
	case hasPrefix && hasSuffix && len(pattern) >= 2:
		return query.Contains
	case hasSuffix && !hasPrefix:
		return query.StartsWith
	case hasPrefix && !hasSuffix:
		return query.EndsWith
	default:
		return query.Like
	}
}

// likePayload strips the wildcard markers Contains/StartsWith/EndsWith
// already imply, leaving the literal substring; a pass-through Like
// condition keeps the pattern verbatim.
func likePayload(pattern string) string {
	switch likeToCondition(pattern) {
	case query.Contains:
		return strings.TrimSuffix(strings.TrimPrefix(pattern, "%"), "%")
	case query.StartsWith:
		return strings.TrimSuffix(pattern, "%")
	case query.EndsWith:
		return strings.TrimPrefix(pattern, "%")
	default:
		return pattern
	}
}

// parseOrderSpec parses ident ["ASC"|"DESC"]; only createdutc,
// lastupdateutc, and name (case-insensitive) are recognized, anything
// else defaults to creation order (spec.md §4.7).
func (p *parser) parseOrderSpec() (query.Ordering, error) {
	field, err := p.expectIdent()
	if err != nil {
		return "", err
	}
	desc := false
	if p.peekKeyword("DESC") {
		p.next()
		desc = true
	} else if p.peekKeyword("ASC") {
		p.next()
	}

	switch strings.ToLower(field) {
	case "createdutc":
		if desc {
			return query.CreatedDescending, nil
		}
		return query.CreatedAscending, nil
	case "lastupdateutc":
		if desc {
			return query.LastUpdateDescending, nil
		}
		return query.LastUpdateAscending, nil
	case "name":
		if desc {
			return query.NameDescending, nil
		}
		return query.NameAscending, nil
	default:
		return query.CreatedAscending, nil
	}
}
