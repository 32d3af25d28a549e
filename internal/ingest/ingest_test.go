package ingest

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/lattice-db/lattice/internal/catalog"
	"github.com/lattice-db/lattice/internal/errs"
	"github.com/lattice-db/lattice/internal/ids"
	"github.com/lattice-db/lattice/internal/model"
	"github.com/lattice-db/lattice/internal/store"
	"github.com/lattice-db/lattice/internal/store/sqlitestore"
)

func newTestPipeline(t *testing.T) (*Pipeline, store.Port, *model.Collection) {
	t.Helper()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "lattice.db")
	port, err := sqlitestore.Open(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { port.Close() })

	cat := catalog.New(port)
	pipeline := New(port, cat)

	now := time.Now().UTC()
	coll := &model.Collection{
		ID:                    ids.New(ids.Collection),
		Name:                  "widgets",
		DocumentsDirectory:    t.TempDir(),
		SchemaEnforcementMode: model.EnforcementNone,
		IndexingMode:          model.IndexingAll,
		CreatedUTC:            now,
		LastUpdateUTC:         now,
	}
	if err := port.CreateCollection(ctx, coll); err != nil {
		t.Fatal(err)
	}
	return pipeline, port, coll
}

func TestIngestBasicDocument(t *testing.T) {
	pipeline, _, coll := newTestPipeline(t)
	ctx := context.Background()

	doc, err := pipeline.Ingest(ctx, Request{
		CollectionID: coll.ID,
		JSON:         []byte(`{"name": "gear", "weight_kg": 1.5}`),
	})
	if err != nil {
		t.Fatal(err)
	}
	if doc.ID == "" || doc.SchemaID == "" {
		t.Fatalf("expected a populated document, got %+v", doc)
	}
	if doc.SHA256Hash == "" {
		t.Error("expected a sha256 hash to be computed")
	}
}

func TestIngestReusesSchemaForIdenticalShape(t *testing.T) {
	pipeline, _, coll := newTestPipeline(t)
	ctx := context.Background()

	first, err := pipeline.Ingest(ctx, Request{CollectionID: coll.ID, JSON: []byte(`{"name": "gear", "qty": 1}`)})
	if err != nil {
		t.Fatal(err)
	}
	second, err := pipeline.Ingest(ctx, Request{CollectionID: coll.ID, JSON: []byte(`{"name": "bolt", "qty": 2}`)})
	if err != nil {
		t.Fatal(err)
	}
	if first.SchemaID != second.SchemaID {
		t.Errorf("documents with the same shape should share a schema: %q != %q", first.SchemaID, second.SchemaID)
	}
}

func TestIngestDifferentShapeGetsDifferentSchema(t *testing.T) {
	pipeline, _, coll := newTestPipeline(t)
	ctx := context.Background()

	first, err := pipeline.Ingest(ctx, Request{CollectionID: coll.ID, JSON: []byte(`{"name": "gear"}`)})
	if err != nil {
		t.Fatal(err)
	}
	second, err := pipeline.Ingest(ctx, Request{CollectionID: coll.ID, JSON: []byte(`{"name": "bolt", "weight": 3}`)})
	if err != nil {
		t.Fatal(err)
	}
	if first.SchemaID == second.SchemaID {
		t.Error("documents with different shapes should get distinct schemas")
	}
}

func TestIngestUnknownCollection(t *testing.T) {
	pipeline, _, _ := newTestPipeline(t)
	ctx := context.Background()

	_, err := pipeline.Ingest(ctx, Request{CollectionID: "col_does_not_exist", JSON: []byte(`{}`)})
	if !errs.Is(err, errs.KindNotFound) {
		t.Fatalf("expected KindNotFound, got %v", err)
	}
}

func TestIngestStrictModeRejectsUnexpectedField(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "lattice.db")
	port, err := sqlitestore.Open(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { port.Close() })
	cat := catalog.New(port)
	pipeline := New(port, cat)

	now := time.Now().UTC()
	coll := &model.Collection{
		ID: ids.New(ids.Collection), Name: "strict-widgets", DocumentsDirectory: t.TempDir(),
		SchemaEnforcementMode: model.EnforcementStrict, IndexingMode: model.IndexingAll,
		CreatedUTC: now, LastUpdateUTC: now,
	}
	if err := port.CreateCollection(ctx, coll); err != nil {
		t.Fatal(err)
	}
	stringType := model.TypeString
	if err := port.CreateFieldConstraint(ctx, &model.FieldConstraint{
		ID: ids.New(ids.FieldConstraint), CollectionID: coll.ID, FieldPath: "name", DataType: &stringType, Required: true,
	}); err != nil {
		t.Fatal(err)
	}

	_, err = pipeline.Ingest(ctx, Request{CollectionID: coll.ID, JSON: []byte(`{"name": "gear", "unexpected": true}`)})
	if _, ok := errs.AsValidation(err); !ok {
		t.Fatalf("expected a schema validation error, got %v", err)
	}
}

func TestIngestWritesBlobAndLabelsAndTags(t *testing.T) {
	pipeline, port, coll := newTestPipeline(t)
	ctx := context.Background()

	doc, err := pipeline.Ingest(ctx, Request{
		CollectionID: coll.ID,
		JSON:         []byte(`{"name": "gear"}`),
		Labels:       []string{"priority"},
		Tags:         map[string]string{"color": "red"},
	})
	if err != nil {
		t.Fatal(err)
	}

	labels, err := port.ListLabels(ctx, nil, &doc.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(labels) != 1 || labels[0].Value != "priority" {
		t.Errorf("labels = %+v", labels)
	}

	tags, err := port.ListTags(ctx, nil, &doc.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(tags) != 1 || tags[0].Key != "color" || tags[0].Value != "red" {
		t.Errorf("tags = %+v", tags)
	}
}
