// Package ingest implements the Ingestion Pipeline (C7, spec.md §4.5):
// the nine-step Ingest operation tying together the Schema Validator
// (C5), Schema Inferencer (C4), JSON Flattener (C3), Index Catalog
// (C6), and Repository Port.
//
// Grounded on the teacher's internal/storage/convex/adapter.go
// ConvexStorageAdapter.CreateIssue, which runs the same
// serialize -> build entries -> generate indexes -> atomic write shape;
// this version generalizes "indexes" from Convex's five fixed fields to
// whatever the Schema Inferencer discovers per document.
package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lattice-db/lattice/internal/catalog"
	"github.com/lattice-db/lattice/internal/errs"
	"github.com/lattice-db/lattice/internal/flatten"
	"github.com/lattice-db/lattice/internal/ids"
	"github.com/lattice-db/lattice/internal/model"
	"github.com/lattice-db/lattice/internal/schema"
	"github.com/lattice-db/lattice/internal/store"
	"github.com/lattice-db/lattice/internal/validate"
)

// Request is the input to Ingest.
type Request struct {
	CollectionID string
	JSON         []byte
	Name         *string
	Labels       []string
	Tags         map[string]string
}

// Pipeline executes Ingest against a Repository Port and Index Catalog.
type Pipeline struct {
	port store.Port
	cat  *catalog.Catalog
}

func New(port store.Port, cat *catalog.Catalog) *Pipeline {
	return &Pipeline{port: port, cat: cat}
}

// Ingest runs the nine steps of spec.md §4.5 in order, returning on the
// first failing step.
func (p *Pipeline) Ingest(ctx context.Context, req Request) (*model.Document, error) {
	// Step 1: load collection.
	coll, err := p.port.GetCollection(ctx, req.CollectionID)
	if err == store.ErrNotFound {
		return nil, errs.NotFound("collection %q does not exist", req.CollectionID)
	}
	if err != nil {
		return nil, errs.Backend(err)
	}

	// Step 2: validate against field constraints unless enforcement is off.
	if coll.SchemaEnforcementMode != model.EnforcementNone {
		constraintPtrs, err := p.port.ListFieldConstraints(ctx, coll.ID)
		if err != nil {
			return nil, errs.Backend(err)
		}
		constraints := make([]model.FieldConstraint, len(constraintPtrs))
		for i, c := range constraintPtrs {
			constraints[i] = *c
		}
		if err := validate.Validate(req.JSON, coll.SchemaEnforcementMode, constraints); err != nil {
			return nil, err
		}
	}

	// Step 3: extract elements and hash; reuse or create the schema.
	values, err := flatten.Flatten(req.JSON)
	if err != nil {
		return nil, errs.InvalidArgument("document is not valid JSON: %v", err)
	}
	elements := schema.Infer(values)
	hash := schema.ComputeHash(elements)

	sc, newElements, err := p.resolveSchema(ctx, hash, elements)
	if err != nil {
		return nil, err
	}

	// Step 4: ensure index tables exist for any newly seen schema element.
	if coll.IndexingMode != model.IndexingNone {
		for _, el := range newElements {
			if _, err := p.cat.Resolve(ctx, el.Key); err != nil {
				return nil, errs.Backend(err)
			}
		}
	}

	// Step 5: content length and hash.
	contentLength := int64(len(req.JSON))
	sum := sha256.Sum256(req.JSON)
	sha256Hash := hex.EncodeToString(sum[:])

	// Step 6: generate id, persist document row.
	now := time.Now().UTC()
	doc := &model.Document{
		ID:            ids.New(ids.DocumentPrefix),
		CollectionID:  coll.ID,
		SchemaID:      sc.ID,
		Name:          req.Name,
		ContentLength: contentLength,
		SHA256Hash:    sha256Hash,
		CreatedUTC:    now,
		LastUpdateUTC: now,
	}
	if err := p.port.CreateDocument(ctx, doc); err != nil {
		return nil, errs.Backend(err)
	}

	// Step 7: document-level labels and tags.
	for _, lv := range req.Labels {
		l := &model.Label{ID: ids.New(ids.LabelPrefix), CollectionID: &coll.ID, DocumentID: &doc.ID, Value: lv}
		if err := p.port.CreateLabel(ctx, l); err != nil {
			return nil, errs.Backend(err)
		}
	}
	for k, v := range req.Tags {
		t := &model.Tag{ID: ids.New(ids.TagPrefix), CollectionID: &coll.ID, DocumentID: &doc.ID, Key: k, Value: v}
		if err := p.port.CreateTag(ctx, t); err != nil {
			return nil, errs.Backend(err)
		}
	}

	// Step 8: flatten and index, respecting the collection's indexing mode.
	if coll.IndexingMode != model.IndexingNone {
		if err := p.indexDocument(ctx, coll, doc, sc, elements, values); err != nil {
			return nil, err
		}
	}

	// Step 9: write the raw JSON blob last, so a Document row never
	// outlives a missing blob on a clean first attempt.
	if err := p.writeBlob(coll.DocumentsDirectory, doc.ID, req.JSON); err != nil {
		return nil, errs.Backend(err)
	}

	doc.Labels = req.Labels
	doc.Tags = req.Tags
	return doc, nil
}

// resolveSchema looks up a schema by hash, creating it (and its
// elements) on first sight. Returns the elements that are new to this
// schema's creation, which is always all of them when the schema itself
// is new, and none when it was reused.
func (p *Pipeline) resolveSchema(ctx context.Context, hash string, elements []schema.Element) (*model.Schema, []schema.Element, error) {
	existing, err := p.port.GetSchemaByHash(ctx, hash)
	if err == nil {
		return existing, nil, nil
	}
	if err != store.ErrNotFound {
		return nil, nil, errs.Backend(err)
	}

	sc := &model.Schema{ID: ids.New(ids.SchemaPrefix), Hash: hash, CreatedUTC: time.Now().UTC()}
	if createErr := p.port.CreateSchema(ctx, sc); createErr != nil {
		if createErr != store.ErrAlreadyExists {
			return nil, nil, errs.Backend(createErr)
		}
		// Lost a race creating this schema: another ingest created the
		// same hash first. Re-read it and treat its elements as not new.
		existing, getErr := p.port.GetSchemaByHash(ctx, hash)
		if getErr != nil {
			return nil, nil, errs.Backend(getErr)
		}
		return existing, nil, nil
	}

	modelElements := make([]*model.SchemaElement, len(elements))
	for i, el := range elements {
		modelElements[i] = &model.SchemaElement{
			ID:       ids.New(ids.SchemaElement),
			SchemaID: sc.ID,
			Position: el.Position,
			Key:      el.Key,
			DataType: el.DataType,
			Nullable: el.Nullable,
		}
	}
	if err := p.port.CreateSchemaElements(ctx, modelElements); err != nil {
		return nil, nil, errs.Backend(err)
	}
	return sc, elements, nil
}

// indexDocument groups flattened values by key, applies the
// collection's indexing mode, and batch-inserts the resulting
// DocumentValue rows via the Index Catalog.
func (p *Pipeline) indexDocument(ctx context.Context, coll *model.Collection, doc *model.Document, sc *model.Schema, elements []schema.Element, values []flatten.Value) error {
	var indexedFieldSet map[string]struct{}
	if coll.IndexingMode == model.IndexingSelective {
		fields, err := p.port.ListIndexedFields(ctx, coll.ID)
		if err != nil {
			return errs.Backend(err)
		}
		indexedFieldSet = make(map[string]struct{}, len(fields))
		for _, f := range fields {
			indexedFieldSet[strings.ToLower(f.FieldPath)] = struct{}{}
		}
	}

	elementIDByKey := make(map[string]string, len(elements))
	for _, el := range elements {
		// the element's persisted id is only known for a newly created
		// schema; for a reused schema it must be looked up instead.
		if m, err := p.port.GetSchemaElementByKey(ctx, sc.ID, el.Key); err == nil {
			elementIDByKey[el.Key] = m.ID
		}
	}

	byKey := make(map[string][]*model.DocumentValue)
	now := time.Now().UTC()
	for _, v := range values {
		if indexedFieldSet != nil {
			if _, ok := indexedFieldSet[strings.ToLower(v.Key)]; !ok {
				continue
			}
		}
		var elementID *string
		if id, ok := elementIDByKey[v.Key]; ok {
			elementID = &id
		}
		dv := &model.DocumentValue{
			ID:              ids.New(ids.DocumentValue),
			DocumentID:      doc.ID,
			SchemaID:        sc.ID,
			SchemaElementID: elementID,
			Position:        v.Position,
			Value:           v.Value,
			CreatedUTC:      now,
		}
		byKey[v.Key] = append(byKey[v.Key], dv)
	}

	if len(byKey) == 0 {
		return nil
	}
	if err := p.cat.InsertMultiTable(ctx, byKey); err != nil {
		return errs.Backend(err)
	}
	return nil
}

func (p *Pipeline) writeBlob(dir, documentID string, content []byte) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating documents directory: %w", err)
	}
	path := filepath.Join(dir, documentID+".json")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return fmt.Errorf("writing document blob: %w", err)
	}
	return nil
}

