package doltstore

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

func TestIsUniqueViolationMatchesDuplicateText(t *testing.T) {
	if !isUniqueViolation(errors.New("duplicate unique key given")) {
		t.Error("expected a duplicate-key error to be classified as a unique violation")
	}
	if isUniqueViolation(errors.New("table not found")) {
		t.Error("table not found should not be classified as a unique violation")
	}
}

func TestIsMissingTableMatchesEitherPhrasing(t *testing.T) {
	if !isMissingTable(errors.New("table not found: widgets")) {
		t.Error("expected 'table not found' to be classified as a missing table")
	}
	if !isMissingTable(errors.New("table \"widgets\" doesn't exist")) {
		t.Error("expected \"doesn't exist\" to be classified as a missing table")
	}
}

func TestIsDuplicateIndexMatchesAlreadyExistsText(t *testing.T) {
	if !isDuplicateIndex(errors.New("index 'idx_index_abc123_value' already exists")) {
		t.Error("expected an 'already exists' error to be classified as a duplicate index")
	}
	if isDuplicateIndex(errors.New("table not found")) {
		t.Error("table not found should not be classified as a duplicate index")
	}
}
