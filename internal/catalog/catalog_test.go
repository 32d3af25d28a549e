package catalog

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/lattice-db/lattice/internal/model"
	"github.com/lattice-db/lattice/internal/store"
	"github.com/lattice-db/lattice/internal/store/sqlitestore"
)

func openTestStore(t *testing.T) *sqlitestore.Store {
	t.Helper()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "lattice.db")
	s, err := sqlitestore.Open(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func seedDocument(t *testing.T, port store.Port, collectionID, documentID string) {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC()
	if err := port.CreateCollection(ctx, &model.Collection{
		ID: collectionID, Name: collectionID, DocumentsDirectory: t.TempDir(),
		SchemaEnforcementMode: model.EnforcementNone, IndexingMode: model.IndexingAll,
		CreatedUTC: now, LastUpdateUTC: now,
	}); err != nil {
		t.Fatal(err)
	}
	if err := port.CreateDocument(ctx, &model.Document{
		ID: documentID, CollectionID: collectionID, SchemaID: "sch_1",
		SHA256Hash: "deadbeef", CreatedUTC: now, LastUpdateUTC: now,
	}); err != nil {
		t.Fatal(err)
	}
}

func TestResolveCreatesTableOnce(t *testing.T) {
	ctx := context.Background()
	port := openTestStore(t)
	c := New(port)

	table1, err := c.Resolve(ctx, "owner.name")
	if err != nil {
		t.Fatal(err)
	}
	table2, err := c.Resolve(ctx, "owner.name")
	if err != nil {
		t.Fatal(err)
	}
	if table1 != table2 {
		t.Errorf("Resolve should return the same table name for the same key: %q != %q", table1, table2)
	}
}

func TestResolveDistinctKeysDistinctTables(t *testing.T) {
	ctx := context.Background()
	port := openTestStore(t)
	c := New(port)

	a, err := c.Resolve(ctx, "name")
	if err != nil {
		t.Fatal(err)
	}
	b, err := c.Resolve(ctx, "age")
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Error("distinct keys should resolve to distinct tables")
	}
}

func TestInsertMultiTableAndDeleteDocument(t *testing.T) {
	ctx := context.Background()
	port := openTestStore(t)
	c := New(port)
	seedDocument(t, port, "col_1", "doc_test1")

	val := "gear"
	byKey := map[string][]*model.DocumentValue{
		"name": {{ID: "val_1", DocumentID: "doc_test1", SchemaID: "sch_1", Value: &val}},
	}
	if err := c.InsertMultiTable(ctx, byKey); err != nil {
		t.Fatal(err)
	}

	if err := c.DeleteDocument(ctx, "doc_test1", []string{"name"}); err != nil {
		t.Fatal(err)
	}
}

func TestPopulatedTablesForCollection(t *testing.T) {
	ctx := context.Background()
	port := openTestStore(t)
	c := New(port)
	seedDocument(t, port, "col_1", "doc_1")

	val := "42"
	if err := c.InsertMultiTable(ctx, map[string][]*model.DocumentValue{
		"age": {{ID: "val_1", DocumentID: "doc_1", SchemaID: "sch_1", Value: &val}},
	}); err != nil {
		t.Fatal(err)
	}

	populated, err := c.PopulatedTablesForCollection(ctx, "col_1")
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, key := range populated {
		if key == "age" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected the age index table to be reported populated, got %+v", populated)
	}
}

func TestDropCollectionFromTable(t *testing.T) {
	ctx := context.Background()
	port := openTestStore(t)
	c := New(port)
	seedDocument(t, port, "col_1", "doc_1")

	val := "42"
	if err := c.InsertMultiTable(ctx, map[string][]*model.DocumentValue{
		"age": {{ID: "val_1", DocumentID: "doc_1", SchemaID: "sch_1", Value: &val}},
	}); err != nil {
		t.Fatal(err)
	}
	table, err := c.Resolve(ctx, "age")
	if err != nil {
		t.Fatal(err)
	}
	if err := c.DropCollectionFromTable(ctx, table, "col_1"); err != nil {
		t.Fatal(err)
	}

	populated, err := c.PopulatedTablesForCollection(ctx, "col_1")
	if err != nil {
		t.Fatal(err)
	}
	for _, key := range populated {
		if key == "age" {
			t.Error("age table should no longer be populated for col_1 after dropping")
		}
	}
}
