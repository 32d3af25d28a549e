// Package engine composes the ingestion/indexing/search core (C1-C11)
// into the single entry point a caller — the CLI harness, or a future
// HTTP façade — actually holds. It wires no business logic of its own:
// every operation is a thin delegation to the component that owns it.
package engine

import (
	"context"
	"os"
	"time"

	"github.com/lattice-db/lattice/internal/catalog"
	"github.com/lattice-db/lattice/internal/config"
	"github.com/lattice-db/lattice/internal/errs"
	"github.com/lattice-db/lattice/internal/ids"
	"github.com/lattice-db/lattice/internal/ingest"
	"github.com/lattice-db/lattice/internal/lock"
	"github.com/lattice-db/lattice/internal/model"
	"github.com/lattice-db/lattice/internal/query"
	"github.com/lattice-db/lattice/internal/rebuild"
	"github.com/lattice-db/lattice/internal/search"
	"github.com/lattice-db/lattice/internal/sqlquery"
	"github.com/lattice-db/lattice/internal/store"
)

// Engine is the composed Lattice core. Construct one with New, passing
// an already-open Repository Port (a *sqlitestore.Store,
// *mysqlstore.Store, or *doltstore.Store, optionally itself wrapped by
// retry.Port for transient-error backoff).
type Engine struct {
	port   store.Port
	cat    *catalog.Catalog
	locks  *lock.Registry
	ingest *ingest.Pipeline
	search *search.Planner
	rebuild *rebuild.Rebuilder
	cfg    config.Config
}

func New(port store.Port, cfg config.Config) *Engine {
	cat := catalog.New(port)
	return &Engine{
		port:    port,
		cat:     cat,
		locks:   lock.New(port),
		ingest:  ingest.New(port, cat),
		search:  search.New(port, cat),
		rebuild: rebuild.New(port, cat),
		cfg:     cfg,
	}
}

// Close releases the underlying Repository Port's resources.
func (e *Engine) Close() error { return e.port.Close() }

// CreateCollection creates a new Collection, defaulting enforcement and
// indexing modes from configuration when the caller leaves them empty,
// and ensuring documents_directory exists on disk (spec.md §3's
// invariant).
func (e *Engine) CreateCollection(ctx context.Context, name string, description *string, documentsDirectory string, enforcement model.EnforcementMode, indexing model.IndexingMode) (*model.Collection, error) {
	if name == "" {
		return nil, errs.InvalidArgument("collection name must not be empty")
	}
	if enforcement == "" {
		enforcement = model.EnforcementMode(e.cfg.DefaultSchemaEnforcementMode)
	}
	if indexing == "" {
		indexing = model.IndexingMode(e.cfg.DefaultIndexingMode)
	}
	if err := os.MkdirAll(documentsDirectory, 0o755); err != nil {
		return nil, errs.Backend(err)
	}

	now := time.Now().UTC()
	c := &model.Collection{
		ID:                    ids.New(ids.Collection),
		Name:                  name,
		Description:           description,
		DocumentsDirectory:    documentsDirectory,
		SchemaEnforcementMode: enforcement,
		IndexingMode:          indexing,
		CreatedUTC:            now,
		LastUpdateUTC:         now,
	}
	if err := e.port.CreateCollection(ctx, c); err != nil {
		return nil, errs.Backend(err)
	}
	return c, nil
}

// GetCollection loads a collection by id.
func (e *Engine) GetCollection(ctx context.Context, id string) (*model.Collection, error) {
	c, err := e.port.GetCollection(ctx, id)
	if err == store.ErrNotFound {
		return nil, errs.NotFound("collection %q does not exist", id)
	}
	if err != nil {
		return nil, errs.Backend(err)
	}
	return c, nil
}

// FindCollectionByName loads a collection by its unique name.
func (e *Engine) FindCollectionByName(ctx context.Context, name string) (*model.Collection, error) {
	c, err := e.port.FindCollectionByName(ctx, name)
	if err == store.ErrNotFound {
		return nil, errs.NotFound("collection named %q does not exist", name)
	}
	if err != nil {
		return nil, errs.Backend(err)
	}
	return c, nil
}

// AddFieldConstraint registers a per-(collection, field) enforcement
// rule consumed by subsequent Ingest calls under Strict/Flexible/Partial
// enforcement.
func (e *Engine) AddFieldConstraint(ctx context.Context, c *model.FieldConstraint) error {
	c.ID = ids.New(ids.FieldConstraint)
	if err := e.port.CreateFieldConstraint(ctx, c); err != nil {
		return errs.Backend(err)
	}
	return nil
}

// AddIndexedField registers fieldPath as part of collectionID's
// Selective-mode indexed set.
func (e *Engine) AddIndexedField(ctx context.Context, collectionID, fieldPath string) error {
	f := &model.IndexedField{ID: ids.New(ids.IndexedField), CollectionID: collectionID, FieldPath: fieldPath}
	if err := e.port.CreateIndexedField(ctx, f); err != nil {
		return errs.Backend(err)
	}
	return nil
}

// AddCollectionLabel attaches a collection-level label.
func (e *Engine) AddCollectionLabel(ctx context.Context, collectionID, value string) error {
	l := &model.Label{ID: ids.New(ids.LabelPrefix), CollectionID: &collectionID, Value: value}
	if err := e.port.CreateLabel(ctx, l); err != nil {
		return errs.Backend(err)
	}
	return nil
}

// AddCollectionTag attaches a collection-level key/value tag.
func (e *Engine) AddCollectionTag(ctx context.Context, collectionID, key, value string) error {
	t := &model.Tag{ID: ids.New(ids.TagPrefix), CollectionID: &collectionID, Key: key, Value: value}
	if err := e.port.CreateTag(ctx, t); err != nil {
		return errs.Backend(err)
	}
	return nil
}

// ListSchemaElements returns a schema's elements in position order, for
// introspection callers (the CLI's `schema show`).
func (e *Engine) ListSchemaElements(ctx context.Context, schemaID string) ([]*model.SchemaElement, error) {
	elements, err := e.port.ListSchemaElements(ctx, schemaID)
	if err != nil {
		return nil, errs.Backend(err)
	}
	return elements, nil
}

// Ingest runs the Ingestion Pipeline (C7).
func (e *Engine) Ingest(ctx context.Context, req ingest.Request) (*model.Document, error) {
	return e.ingest.Ingest(ctx, req)
}

// Search runs the Search Planner (C8) against a structured query.Search,
// clamping MaxResults to the configured ceiling first.
func (e *Engine) Search(ctx context.Context, s query.Search) (*search.Response, error) {
	if s.MaxResults == 0 || s.MaxResults > e.cfg.MaxResultsCap {
		s.MaxResults = e.cfg.MaxResultsCap
	}
	return e.search.Search(ctx, s)
}

// SearchSQL parses a restricted SQL-like query (C9) and runs it through
// the Search Planner. The collection name embedded in the query is
// resolved to a collection id before the search executes.
func (e *Engine) SearchSQL(ctx context.Context, text string, includeContent, includeLabels, includeTags bool) (*search.Response, error) {
	collectionName, s, err := sqlquery.Parse(text)
	if err != nil {
		return nil, err
	}
	coll, err := e.FindCollectionByName(ctx, collectionName)
	if err != nil {
		return nil, err
	}
	s.CollectionID = &coll.ID
	s.IncludeContent = includeContent
	s.IncludeLabels = includeLabels
	s.IncludeTags = includeTags
	return e.Search(ctx, s)
}

// RebuildIndexes runs the Index Rebuilder (C10).
func (e *Engine) RebuildIndexes(ctx context.Context, collectionID string, dropUnused bool, progress rebuild.ProgressFunc) (*rebuild.Result, error) {
	return e.rebuild.RebuildIndexes(ctx, collectionID, dropUnused, progress)
}

// AcquireLock runs the Object Lock Registry's (C11) Free -> Held transition.
func (e *Engine) AcquireLock(ctx context.Context, collectionID, documentName, hostname string) (*model.ObjectLock, error) {
	return e.locks.Acquire(ctx, collectionID, documentName, hostname)
}

// ReleaseLock runs the Object Lock Registry's Held -> Free transition.
func (e *Engine) ReleaseLock(ctx context.Context, id string) error {
	return e.locks.Release(ctx, id)
}

// DeleteExpiredLocks sweeps locks older than the configured expiration.
func (e *Engine) DeleteExpiredLocks(ctx context.Context) (int64, error) {
	return e.locks.DeleteExpired(ctx, e.cfg.LockExpirationSeconds)
}
