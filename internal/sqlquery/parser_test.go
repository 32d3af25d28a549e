package sqlquery

import (
	"testing"

	"github.com/lattice-db/lattice/internal/errs"
	"github.com/lattice-db/lattice/internal/query"
)

func TestParseBasicSelect(t *testing.T) {
	coll, s, err := Parse("SELECT * FROM widgets")
	if err != nil {
		t.Fatal(err)
	}
	if coll != "widgets" {
		t.Errorf("collection = %q, want widgets", coll)
	}
	if len(s.Filters) != 0 {
		t.Errorf("expected no filters, got %+v", s.Filters)
	}
	if s.Ordering != query.CreatedAscending {
		t.Errorf("default ordering = %v, want CreatedAscending", s.Ordering)
	}
}

func TestParseWhereAndOperators(t *testing.T) {
	_, s, err := Parse("SELECT * FROM widgets WHERE age > 30 AND name = 'ana'")
	if err != nil {
		t.Fatal(err)
	}
	if len(s.Filters) != 2 {
		t.Fatalf("expected 2 filters, got %+v", s.Filters)
	}
	if s.Filters[0].Field != "age" || s.Filters[0].Condition != query.GreaterThan || s.Filters[0].Value != "30" {
		t.Errorf("filter[0] = %+v", s.Filters[0])
	}
	if s.Filters[1].Field != "name" || s.Filters[1].Condition != query.Equals || s.Filters[1].Value != "ana" {
		t.Errorf("filter[1] = %+v", s.Filters[1])
	}
}

func TestParseRejectsOR(t *testing.T) {
	_, _, err := Parse("SELECT * FROM widgets WHERE age > 30 OR age < 10")
	if !errs.Is(err, errs.KindInvalidArgument) {
		t.Fatalf("expected InvalidArgument for OR, got %v", err)
	}
}

func TestParseIsNull(t *testing.T) {
	_, s, err := Parse("SELECT * FROM widgets WHERE deleted_at IS NULL")
	if err != nil {
		t.Fatal(err)
	}
	if s.Filters[0].Condition != query.IsNull {
		t.Errorf("condition = %v, want IsNull", s.Filters[0].Condition)
	}

	_, s2, err := Parse("SELECT * FROM widgets WHERE deleted_at IS NOT NULL")
	if err != nil {
		t.Fatal(err)
	}
	if s2.Filters[0].Condition != query.IsNotNull {
		t.Errorf("condition = %v, want IsNotNull", s2.Filters[0].Condition)
	}
}

func TestParseLikeVariants(t *testing.T) {
	cases := []struct {
		query     string
		condition query.Condition
		value     string
	}{
		{"SELECT * FROM widgets WHERE name LIKE '%gear%'", query.Contains, "gear"},
		{"SELECT * FROM widgets WHERE name LIKE 'gear%'", query.StartsWith, "gear"},
		{"SELECT * FROM widgets WHERE name LIKE '%gear'", query.EndsWith, "gear"},
		{"SELECT * FROM widgets WHERE name LIKE 'gear'", query.Like, "gear"},
	}
	for _, c := range cases {
		_, s, err := Parse(c.query)
		if err != nil {
			t.Fatalf("%q: %v", c.query, err)
		}
		if s.Filters[0].Condition != c.condition || s.Filters[0].Value != c.value {
			t.Errorf("%q: filter = %+v, want {%v %v}", c.query, s.Filters[0], c.condition, c.value)
		}
	}
}

func TestParseOrderByLimitOffset(t *testing.T) {
	_, s, err := Parse("SELECT * FROM widgets ORDER BY name DESC LIMIT 10 OFFSET 5")
	if err != nil {
		t.Fatal(err)
	}
	if s.Ordering != query.NameDescending {
		t.Errorf("ordering = %v, want NameDescending", s.Ordering)
	}
	if s.MaxResults != 10 {
		t.Errorf("MaxResults = %d, want 10", s.MaxResults)
	}
	if s.Skip != 5 {
		t.Errorf("Skip = %d, want 5", s.Skip)
	}
}

func TestParseMaxResultsClamped(t *testing.T) {
	_, s, err := Parse("SELECT * FROM widgets LIMIT 5000")
	if err != nil {
		t.Fatal(err)
	}
	if s.MaxResults != query.MaxResultsCap {
		t.Errorf("MaxResults = %d, want clamped to %d", s.MaxResults, query.MaxResultsCap)
	}
}

func TestParseRejectsTrailingGarbage(t *testing.T) {
	_, _, err := Parse("SELECT * FROM widgets LIMIT 10 garbage")
	if !errs.Is(err, errs.KindInvalidArgument) {
		t.Fatalf("expected InvalidArgument for trailing input, got %v", err)
	}
}

func TestParseMissingFromIsInvalidArgument(t *testing.T) {
	_, _, err := Parse("SELECT *")
	if !errs.Is(err, errs.KindInvalidArgument) {
		t.Fatalf("expected InvalidArgument, got %v", err)
	}
}
