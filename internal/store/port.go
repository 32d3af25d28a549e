// Package store defines the Repository Port (C1, spec.md §6): the sole
// contract the engine uses to reach a backend. It is a single trait
// aggregating eleven sub-traits, mirroring the teacher's Persistence /
// PersistenceReader split (internal/storage/convex/persistence.go) but
// widened from Convex's fixed three-table temporal log into Lattice's
// dynamic per-key index table model.
//
// Concrete backends (sqlitestore, mysqlstore, doltstore) each implement
// Port once; the engine never branches on backend identity.
package store

import (
	"context"

	"github.com/lattice-db/lattice/internal/model"
	"github.com/lattice-db/lattice/internal/query"
	"github.com/lattice-db/lattice/internal/store/sqlstore"
)

// ErrAlreadyExists is returned by operations that hit a unique
// constraint the engine expects and recovers from locally: schema hash
// creation races and index-mapping key creation races (spec.md §5). It
// is sqlstore's sentinel re-exported here so every backend (which
// returns it via an embedded *sqlstore.Engine) and every caller (which
// checks it through this package) agree on the same error value.
var ErrAlreadyExists = sqlstore.ErrAlreadyExists

// ErrNotFound is returned by single-row lookups that found nothing.
// The engine wraps this into errs.NotFound at its call sites.
var ErrNotFound = sqlstore.ErrNotFound

// Port is the full Repository Port surface.
type Port interface {
	Collections
	Documents
	Schemas
	SchemaElements
	Values
	Labels
	Tags
	Indexes
	FieldConstraints
	IndexedFields
	ObjectLocks

	// Close releases backend resources (connection pool, file handle).
	Close() error
}

// Collections is the Collection sub-port.
type Collections interface {
	CreateCollection(ctx context.Context, c *model.Collection) error
	GetCollection(ctx context.Context, id string) (*model.Collection, error)
	FindCollectionByName(ctx context.Context, name string) (*model.Collection, error)
	UpdateCollection(ctx context.Context, c *model.Collection) error
	DeleteCollection(ctx context.Context, id string) error
}

// Documents is the Document sub-port.
type Documents interface {
	CreateDocument(ctx context.Context, d *model.Document) error
	GetDocument(ctx context.Context, id string) (*model.Document, error)
	GetDocumentsByIDs(ctx context.Context, ids []string) ([]*model.Document, error)
	ListDocumentIDsByCollection(ctx context.Context, collectionID string, order query.Ordering) ([]string, error)
	DeleteDocument(ctx context.Context, id string) error
	DeleteDocumentsByCollection(ctx context.Context, collectionID string) error
}

// Schemas is the Schema sub-port.
type Schemas interface {
	CreateSchema(ctx context.Context, s *model.Schema) error
	GetSchemaByHash(ctx context.Context, hash string) (*model.Schema, error)
	GetSchema(ctx context.Context, id string) (*model.Schema, error)
}

// SchemaElements is the SchemaElement sub-port.
type SchemaElements interface {
	CreateSchemaElements(ctx context.Context, elements []*model.SchemaElement) error
	ListSchemaElements(ctx context.Context, schemaID string) ([]*model.SchemaElement, error)
	GetSchemaElementByKey(ctx context.Context, schemaID, key string) (*model.SchemaElement, error)
}

// Values is the data plane of the Index Catalog (C6): the dynamically
// allocated per-key tables holding (document_id, position, value) rows.
type Values interface {
	// EnsureIndexTable creates the physical table for tableName if it
	// does not already exist (CREATE TABLE IF NOT EXISTS semantics —
	// concurrent creators converge without error, spec.md §5).
	EnsureIndexTable(ctx context.Context, tableName string) error

	// InsertValuesMultiTable atomically inserts every row across every
	// named table, or none (spec.md §4.4's insert_values_multi_table).
	InsertValuesMultiTable(ctx context.Context, byTable map[string][]*model.DocumentValue) error

	// DeleteValuesByDocument removes every row in tableName for documentID.
	DeleteValuesByDocument(ctx context.Context, tableName, documentID string) error

	// DeleteValuesByCollection removes every row in tableName belonging
	// to a document of collectionID (a join against documents).
	DeleteValuesByCollection(ctx context.Context, tableName, collectionID string) error

	// MatchingDocumentIDs returns the document ids whose rows in
	// tableName satisfy cond against value (spec.md §4.6's per-table
	// candidate set, OR semantics across value rows of the same doc).
	MatchingDocumentIDs(ctx context.Context, tableName string, cond query.Condition, value string) ([]string, error)

	// PopulatedTables returns the subset of tableNames that have at
	// least one row belonging to a document of collectionID (spec.md
	// §4.4's "identify the subset of index tables actually populated").
	PopulatedTables(ctx context.Context, collectionID string, tableNames []string) ([]string, error)
}

// Indexes is the Index Catalog's key -> table_name mapping metadata.
type Indexes interface {
	CreateIndexMapping(ctx context.Context, m *model.IndexTableMapping) error
	GetIndexMapping(ctx context.Context, key string) (*model.IndexTableMapping, error)
	ListIndexMappings(ctx context.Context) ([]*model.IndexTableMapping, error)
}

// Labels is the Label sub-port.
type Labels interface {
	CreateLabel(ctx context.Context, l *model.Label) error
	ListLabels(ctx context.Context, collectionID, documentID *string) ([]*model.Label, error)
	DeleteLabelsForDocument(ctx context.Context, documentID string) error
	// DocumentIDsWithAllLabels returns documents (optionally scoped to
	// collectionID) whose label set is a superset of labels (AND
	// semantics, spec.md §4.6 step 3).
	DocumentIDsWithAllLabels(ctx context.Context, collectionID *string, labels []string) ([]string, error)
}

// Tags is the Tag sub-port.
type Tags interface {
	CreateTag(ctx context.Context, t *model.Tag) error
	ListTags(ctx context.Context, collectionID, documentID *string) ([]*model.Tag, error)
	DeleteTagsForDocument(ctx context.Context, documentID string) error
	// DocumentIDsWithAllTags mirrors DocumentIDsWithAllLabels for
	// (key, value) pairs (spec.md §4.6 step 4).
	DocumentIDsWithAllTags(ctx context.Context, collectionID *string, tags map[string]string) ([]string, error)
}

// FieldConstraints is the FieldConstraint sub-port.
type FieldConstraints interface {
	CreateFieldConstraint(ctx context.Context, c *model.FieldConstraint) error
	ListFieldConstraints(ctx context.Context, collectionID string) ([]*model.FieldConstraint, error)
	DeleteFieldConstraint(ctx context.Context, id string) error
}

// IndexedFields is the IndexedField sub-port.
type IndexedFields interface {
	CreateIndexedField(ctx context.Context, f *model.IndexedField) error
	ListIndexedFields(ctx context.Context, collectionID string) ([]*model.IndexedField, error)
	DeleteIndexedField(ctx context.Context, id string) error
}

// ObjectLocks is the ObjectLock sub-port (C11).
type ObjectLocks interface {
	// TryAcquireLock inserts a lock row. If a conflicting row already
	// exists for (collectionID, documentName), it returns that existing
	// lock and acquired=false; the caller surfaces errs.Conflict.
	TryAcquireLock(ctx context.Context, l *model.ObjectLock) (existing *model.ObjectLock, acquired bool, err error)
	ReleaseLock(ctx context.Context, id string) error
	ReleaseLockByName(ctx context.Context, collectionID, documentName string) error
	// DeleteExpiredLocks removes locks older than expirationSeconds,
	// returning the count removed (spec.md §4.9).
	DeleteExpiredLocks(ctx context.Context, expirationSeconds int) (int64, error)
}
