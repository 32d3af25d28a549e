package sqlitestore

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/lattice-db/lattice/internal/ids"
	"github.com/lattice-db/lattice/internal/model"
	"github.com/lattice-db/lattice/internal/store"
)

func TestOpenReportsFreshOnFirstOpenOnly(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "lattice.db")

	s1, err := Open(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	if !s1.IsFresh() {
		t.Error("expected the first Open of a nonexistent path to report fresh")
	}
	s1.Close()

	s2, err := Open(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	defer s2.Close()
	if s2.IsFresh() {
		t.Error("expected a second Open of an existing path to not report fresh")
	}
}

func TestCollectionCRUDRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, filepath.Join(t.TempDir(), "lattice.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	now := time.Now().UTC()
	coll := &model.Collection{
		ID: ids.New(ids.Collection), Name: "widgets", DocumentsDirectory: t.TempDir(),
		SchemaEnforcementMode: model.EnforcementNone, IndexingMode: model.IndexingAll,
		CreatedUTC: now, LastUpdateUTC: now,
	}
	if err := s.CreateCollection(ctx, coll); err != nil {
		t.Fatal(err)
	}

	if err := s.CreateCollection(ctx, &model.Collection{
		ID: ids.New(ids.Collection), Name: "widgets", DocumentsDirectory: t.TempDir(),
		SchemaEnforcementMode: model.EnforcementNone, IndexingMode: model.IndexingAll,
		CreatedUTC: now, LastUpdateUTC: now,
	}); !errors.Is(err, store.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists for a duplicate name, got %v", err)
	}

	got, err := s.FindCollectionByName(ctx, "widgets")
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != coll.ID {
		t.Errorf("FindCollectionByName returned %q, want %q", got.ID, coll.ID)
	}

	desc := "updated description"
	coll.Description = &desc
	if err := s.UpdateCollection(ctx, coll); err != nil {
		t.Fatal(err)
	}
	got, err = s.GetCollection(ctx, coll.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Description == nil || *got.Description != desc {
		t.Errorf("Description = %v, want %q", got.Description, desc)
	}

	if err := s.DeleteCollection(ctx, coll.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetCollection(ctx, coll.ID); err != store.ErrNotFound {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestIsUniqueViolationMatchesSQLiteMessage(t *testing.T) {
	if !isUniqueViolation(errors.New("UNIQUE constraint failed: collections.name")) {
		t.Error("expected the SQLite unique-constraint message to be classified as a unique violation")
	}
	if isUniqueViolation(errors.New("no such table: widgets")) {
		t.Error("a missing-table error should not be classified as a unique violation")
	}
}

func TestIsMissingTableMatchesSQLiteMessage(t *testing.T) {
	if !isMissingTable(errors.New("no such table: index_deadbeef")) {
		t.Error("expected the SQLite missing-table message to be classified as such")
	}
}
