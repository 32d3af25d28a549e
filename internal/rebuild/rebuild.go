// Package rebuild implements the Index Rebuilder (C10, spec.md §4.8): a
// four-phase state machine (Scanning -> Dropping? -> Clearing ->
// Indexing) that re-derives every DocumentValue row for a collection
// from its on-disk blobs.
//
// Grounded on the teacher's internal/daemon reconciliation loop shape
// (phase-by-phase progress with a result struct collecting per-item
// failures rather than aborting on the first one); RebuildIndexes never
// returns a non-nil error for a single document's failure, only for
// cancellation or a structural backend failure.
package rebuild

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lattice-db/lattice/internal/catalog"
	"github.com/lattice-db/lattice/internal/errs"
	"github.com/lattice-db/lattice/internal/flatten"
	"github.com/lattice-db/lattice/internal/ids"
	"github.com/lattice-db/lattice/internal/model"
	"github.com/lattice-db/lattice/internal/query"
	"github.com/lattice-db/lattice/internal/schema"
	"github.com/lattice-db/lattice/internal/store"
)

// Phase names progress reports are tagged with.
type Phase string

const (
	PhaseScanning  Phase = "Scanning"
	PhaseDropping  Phase = "Dropping"
	PhaseClearing  Phase = "Clearing"
	PhaseIndexing  Phase = "Indexing"
)

// DocumentError records one document's failure during the Indexing
// phase; it does not abort the overall rebuild.
type DocumentError struct {
	DocumentID string
	Err        error
}

// Result is the outcome of a RebuildIndexes call.
type Result struct {
	DocumentsScanned int
	IndexesDropped   int
	IndexesCreated   int
	Errors           []DocumentError
}

// ProgressFunc, if non-nil, is invoked once per phase transition.
type ProgressFunc func(phase Phase)

// Rebuilder drives RebuildIndexes against a Repository Port and Index
// Catalog.
type Rebuilder struct {
	port store.Port
	cat  *catalog.Catalog
}

func New(port store.Port, cat *catalog.Catalog) *Rebuilder {
	return &Rebuilder{port: port, cat: cat}
}

// RebuildIndexes executes the four phases in order for collectionID.
// dropUnused is only meaningful when the collection's indexing mode is
// Selective; it is ignored otherwise (spec.md §4.8).
func (r *Rebuilder) RebuildIndexes(ctx context.Context, collectionID string, dropUnused bool, progress ProgressFunc) (*Result, error) {
	report := func(p Phase) {
		if progress != nil {
			progress(p)
		}
	}

	coll, err := r.port.GetCollection(ctx, collectionID)
	if err == store.ErrNotFound {
		return nil, errs.NotFound("collection %q does not exist", collectionID)
	}
	if err != nil {
		return nil, errs.Backend(err)
	}

	// Scanning: list all documents in the collection.
	report(PhaseScanning)
	docIDs, err := r.port.ListDocumentIDsByCollection(ctx, collectionID, query.CreatedAscending)
	if err != nil {
		return nil, errs.Backend(err)
	}
	result := &Result{DocumentsScanned: len(docIDs)}

	var indexedSet map[string]struct{}
	if coll.IndexingMode == model.IndexingSelective {
		fields, err := r.port.ListIndexedFields(ctx, collectionID)
		if err != nil {
			return nil, errs.Backend(err)
		}
		indexedSet = make(map[string]struct{}, len(fields))
		for _, f := range fields {
			indexedSet[strings.ToLower(f.FieldPath)] = struct{}{}
		}
	}

	// Dropping: only for Selective + drop_unused, remove this
	// collection's rows from any populated table whose key fell out of
	// the indexed set.
	if coll.IndexingMode == model.IndexingSelective && dropUnused {
		report(PhaseDropping)
		populated, err := r.cat.PopulatedTablesForCollection(ctx, collectionID)
		if err != nil {
			return nil, errs.Backend(err)
		}
		for tableName, key := range populated {
			if _, keep := indexedSet[strings.ToLower(key)]; keep {
				continue
			}
			if err := r.cat.DropCollectionFromTable(ctx, tableName, collectionID); err != nil {
				return nil, errs.Backend(err)
			}
			result.IndexesDropped++
		}
	}

	// Clearing: delete all DocumentValues for every document in scope,
	// regardless of which tables they live in, so Indexing always starts
	// from a clean slate (spec.md §4.8, and P8's determinism guarantee).
	report(PhaseClearing)
	mappings, err := r.port.ListIndexMappings(ctx)
	if err != nil {
		return nil, errs.Backend(err)
	}
	for _, m := range mappings {
		if err := r.port.DeleteValuesByCollection(ctx, m.TableName, collectionID); err != nil {
			return nil, errs.Backend(err)
		}
	}

	if coll.IndexingMode == model.IndexingNone {
		return result, nil
	}

	// Indexing: re-derive DocumentValue rows from each document's blob.
	report(PhaseIndexing)
	before := make(map[string]struct{}, len(mappings))
	for _, m := range mappings {
		before[m.Key] = struct{}{}
	}

	for _, docID := range docIDs {
		if err := ctx.Err(); err != nil {
			return nil, errs.Cancelled()
		}
		if err := r.reindexDocument(ctx, coll, docID, indexedSet, before, result); err != nil {
			result.Errors = append(result.Errors, DocumentError{DocumentID: docID, Err: err})
		}
	}

	return result, nil
}

func (r *Rebuilder) reindexDocument(ctx context.Context, coll *model.Collection, documentID string, indexedSet map[string]struct{}, seenKeys map[string]struct{}, result *Result) error {
	doc, err := r.port.GetDocument(ctx, documentID)
	if err != nil {
		return fmt.Errorf("loading document: %w", err)
	}

	raw, err := os.ReadFile(filepath.Join(coll.DocumentsDirectory, doc.ID+".json"))
	if err != nil {
		return fmt.Errorf("reading document blob: %w", err)
	}

	values, err := flatten.Flatten(raw)
	if err != nil {
		return fmt.Errorf("flattening document: %w", err)
	}
	elements := schema.Infer(values)

	elementIDByKey := make(map[string]string, len(elements))
	for _, el := range elements {
		if m, err := r.port.GetSchemaElementByKey(ctx, doc.SchemaID, el.Key); err == nil {
			elementIDByKey[el.Key] = m.ID
		}
	}

	byKey := make(map[string][]*model.DocumentValue)
	for _, v := range values {
		if indexedSet != nil {
			if _, ok := indexedSet[strings.ToLower(v.Key)]; !ok {
				continue
			}
		}
		if _, known := seenKeys[v.Key]; !known {
			seenKeys[v.Key] = struct{}{}
			result.IndexesCreated++
		}
		var elementID *string
		if id, ok := elementIDByKey[v.Key]; ok {
			elementID = &id
		}
		byKey[v.Key] = append(byKey[v.Key], &model.DocumentValue{
			ID:              ids.New(ids.DocumentValue),
			DocumentID:      doc.ID,
			SchemaID:        doc.SchemaID,
			SchemaElementID: elementID,
			Position:        v.Position,
			Value:           v.Value,
			CreatedUTC:      doc.CreatedUTC,
		})
	}

	if len(byKey) == 0 {
		return nil
	}
	return r.cat.InsertMultiTable(ctx, byKey)
}
