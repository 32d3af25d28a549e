package search

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/lattice-db/lattice/internal/catalog"
	"github.com/lattice-db/lattice/internal/model"
	"github.com/lattice-db/lattice/internal/query"
	"github.com/lattice-db/lattice/internal/store"
	"github.com/lattice-db/lattice/internal/store/sqlitestore"
)

type fixture struct {
	port store.Port
	cat  *catalog.Catalog
	coll *model.Collection
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "lattice.db")
	port, err := sqlitestore.Open(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { port.Close() })

	now := time.Now().UTC()
	coll := &model.Collection{
		ID: "col_1", Name: "widgets", DocumentsDirectory: t.TempDir(),
		SchemaEnforcementMode: model.EnforcementNone, IndexingMode: model.IndexingAll,
		CreatedUTC: now, LastUpdateUTC: now,
	}
	if err := port.CreateCollection(ctx, coll); err != nil {
		t.Fatal(err)
	}
	return &fixture{port: port, cat: catalog.New(port), coll: coll}
}

func (f *fixture) seedDocument(t *testing.T, id string, values map[string]string) {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC()
	if err := f.port.CreateDocument(ctx, &model.Document{
		ID: id, CollectionID: f.coll.ID, SchemaID: "sch_1", SHA256Hash: "h-" + id,
		CreatedUTC: now, LastUpdateUTC: now,
	}); err != nil {
		t.Fatal(err)
	}
	byKey := make(map[string][]*model.DocumentValue, len(values))
	for key, v := range values {
		val := v
		byKey[key] = []*model.DocumentValue{{ID: "val_" + id + "_" + key, DocumentID: id, SchemaID: "sch_1", Value: &val}}
	}
	if err := f.cat.InsertMultiTable(ctx, byKey); err != nil {
		t.Fatal(err)
	}
}

func TestSearchSingleFilterMatches(t *testing.T) {
	f := newFixture(t)
	f.seedDocument(t, "doc_1", map[string]string{"name": "gear"})
	f.seedDocument(t, "doc_2", map[string]string{"name": "bolt"})

	planner := New(f.port, f.cat)
	resp, err := planner.Search(context.Background(), query.Search{
		CollectionID: &f.coll.ID,
		Filters:      []query.Filter{{Field: "name", Condition: query.Equals, Value: "gear"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.Results) != 1 || resp.Results[0].Document.ID != "doc_1" {
		t.Fatalf("results = %+v", resp.Results)
	}
	if !resp.EndOfResults {
		t.Error("expected EndOfResults for a single-page result set")
	}
}

func TestSearchIntersectsMultipleFilters(t *testing.T) {
	f := newFixture(t)
	f.seedDocument(t, "doc_1", map[string]string{"name": "gear", "color": "red"})
	f.seedDocument(t, "doc_2", map[string]string{"name": "gear", "color": "blue"})

	planner := New(f.port, f.cat)
	resp, err := planner.Search(context.Background(), query.Search{
		CollectionID: &f.coll.ID,
		Filters: []query.Filter{
			{Field: "name", Condition: query.Equals, Value: "gear"},
			{Field: "color", Condition: query.Equals, Value: "red"},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.Results) != 1 || resp.Results[0].Document.ID != "doc_1" {
		t.Fatalf("results = %+v", resp.Results)
	}
}

func TestSearchUnindexedFieldReturnsEmptyNotError(t *testing.T) {
	f := newFixture(t)
	f.seedDocument(t, "doc_1", map[string]string{"name": "gear"})

	planner := New(f.port, f.cat)
	resp, err := planner.Search(context.Background(), query.Search{
		CollectionID: &f.coll.ID,
		Filters:      []query.Filter{{Field: "never_indexed", Condition: query.Equals, Value: "x"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.Results) != 0 {
		t.Errorf("expected no results for an unindexed field, got %+v", resp.Results)
	}
}

func TestSearchNoFiltersScansWholeCollection(t *testing.T) {
	f := newFixture(t)
	f.seedDocument(t, "doc_1", map[string]string{"name": "gear"})
	f.seedDocument(t, "doc_2", map[string]string{"name": "bolt"})

	planner := New(f.port, f.cat)
	resp, err := planner.Search(context.Background(), query.Search{CollectionID: &f.coll.ID})
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.Results) != 2 {
		t.Fatalf("expected both documents, got %+v", resp.Results)
	}
}

func TestSearchPaginationReportsRemaining(t *testing.T) {
	f := newFixture(t)
	f.seedDocument(t, "doc_1", map[string]string{"name": "a"})
	f.seedDocument(t, "doc_2", map[string]string{"name": "b"})
	f.seedDocument(t, "doc_3", map[string]string{"name": "c"})

	planner := New(f.port, f.cat)
	resp, err := planner.Search(context.Background(), query.Search{
		CollectionID: &f.coll.ID,
		MaxResults:   2,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.Results) != 2 {
		t.Fatalf("expected 2 results in the first page, got %d", len(resp.Results))
	}
	if resp.EndOfResults {
		t.Error("expected more pages to remain")
	}
	if resp.RecordsRemaining != 1 {
		t.Errorf("RecordsRemaining = %d, want 1", resp.RecordsRemaining)
	}
}
