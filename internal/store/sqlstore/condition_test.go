package sqlstore

import (
	"testing"

	"github.com/lattice-db/lattice/internal/query"
)

func TestConditionSQLEquals(t *testing.T) {
	frag, args := ConditionSQL(query.Equals, "gear")
	if frag != "value = ?" || len(args) != 1 || args[0] != "gear" {
		t.Errorf("frag=%q args=%v", frag, args)
	}
}

func TestConditionSQLIsNullHasNoArgs(t *testing.T) {
	frag, args := ConditionSQL(query.IsNull, "")
	if frag != "value IS NULL" || args != nil {
		t.Errorf("frag=%q args=%v", frag, args)
	}
}

func TestConditionSQLContainsEscapesPercent(t *testing.T) {
	_, args := ConditionSQL(query.Contains, "50%off")
	if args[0] != `%50\%off%` {
		t.Errorf("args[0] = %q, want an escaped wildcard surrounded by %%", args[0])
	}
}

func TestConditionSQLStartsAndEndsWith(t *testing.T) {
	_, args := ConditionSQL(query.StartsWith, "gear")
	if args[0] != "gear%" {
		t.Errorf("StartsWith args[0] = %q", args[0])
	}
	_, args = ConditionSQL(query.EndsWith, "gear")
	if args[0] != "%gear" {
		t.Errorf("EndsWith args[0] = %q", args[0])
	}
}

func TestConditionSQLGreaterThanCastsNumericOperand(t *testing.T) {
	frag, args := ConditionSQL(query.GreaterThan, "50")
	if frag != "CAST(value AS REAL) > ?" || len(args) != 1 || args[0] != 50.0 {
		t.Errorf("frag=%q args=%v", frag, args)
	}
}

func TestConditionSQLLessThanOrEqualFallsBackToTextForNonNumeric(t *testing.T) {
	frag, args := ConditionSQL(query.LessThanOrEqual, "2024-01-01")
	if frag != "value <= ?" || len(args) != 1 || args[0] != "2024-01-01" {
		t.Errorf("frag=%q args=%v", frag, args)
	}
}

func TestConditionSQLGreaterThanOrEqualOrdersNumericallyNotLexicographically(t *testing.T) {
	_, hundred := ConditionSQL(query.GreaterThanOrEqual, "100")
	_, fifty := ConditionSQL(query.GreaterThanOrEqual, "50")
	if hundred[0].(float64) <= fifty[0].(float64) {
		t.Errorf("expected 100 to bind numerically greater than 50, got %v and %v", hundred[0], fifty[0])
	}
}

func TestConditionSQLUnknownConditionMatchesNothing(t *testing.T) {
	frag, args := ConditionSQL(query.Condition("Bogus"), "x")
	if frag != "1 = 0" || args != nil {
		t.Errorf("frag=%q args=%v", frag, args)
	}
}
