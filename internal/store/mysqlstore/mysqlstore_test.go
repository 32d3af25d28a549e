package mysqlstore

import (
	"errors"
	"testing"
)

func TestSplitStatementsDropsEmptyFragments(t *testing.T) {
	stmts := splitStatements("CREATE TABLE a (id TEXT);\n\nCREATE TABLE b (id TEXT);\n")
	if len(stmts) != 2 {
		t.Fatalf("stmts = %+v, want 2", stmts)
	}
}

func TestIsUniqueViolationMatchesError1062(t *testing.T) {
	if !isUniqueViolation(errors.New("Error 1062: Duplicate entry 'x' for key 'name'")) {
		t.Error("expected Error 1062 to be classified as a unique violation")
	}
	if isUniqueViolation(errors.New("Error 1146: Table doesn't exist")) {
		t.Error("Error 1146 should not be classified as a unique violation")
	}
}

func TestIsMissingTableMatchesError1146(t *testing.T) {
	if !isMissingTable(errors.New("Error 1146: Table 'lattice.widgets' doesn't exist")) {
		t.Error("expected Error 1146 to be classified as a missing table")
	}
}

func TestIsDuplicateIndexMatchesError1061(t *testing.T) {
	if !isDuplicateIndex(errors.New("Error 1061: Duplicate key name 'idx_index_abc123_value'")) {
		t.Error("expected Error 1061 to be classified as a duplicate index")
	}
	if isDuplicateIndex(errors.New("Error 1062: Duplicate entry 'x' for key 'name'")) {
		t.Error("Error 1062 should not be classified as a duplicate index")
	}
}
