package retry

import (
	"context"

	"github.com/lattice-db/lattice/internal/model"
	"github.com/lattice-db/lattice/internal/query"
	"github.com/lattice-db/lattice/internal/store"
)

// Wrap returns a store.Port that retries every call against p under
// policy, using Do's transient-error classification. The engine never
// knows the difference: Wrap's return value satisfies store.Port like
// any concrete backend.
func Wrap(p store.Port, policy Policy) store.Port {
	return &retryPort{p: p, policy: policy}
}

type retryPort struct {
	p      store.Port
	policy Policy
}

func (r *retryPort) Close() error { return r.p.Close() }

func (r *retryPort) CreateCollection(ctx context.Context, c *model.Collection) error {
	return Do(ctx, r.policy, func(ctx context.Context) error { return r.p.CreateCollection(ctx, c) })
}

func (r *retryPort) GetCollection(ctx context.Context, id string) (*model.Collection, error) {
	var out *model.Collection
	err := Do(ctx, r.policy, func(ctx context.Context) error {
		v, err := r.p.GetCollection(ctx, id)
		out = v
		return err
	})
	return out, err
}

func (r *retryPort) FindCollectionByName(ctx context.Context, name string) (*model.Collection, error) {
	var out *model.Collection
	err := Do(ctx, r.policy, func(ctx context.Context) error {
		v, err := r.p.FindCollectionByName(ctx, name)
		out = v
		return err
	})
	return out, err
}

func (r *retryPort) UpdateCollection(ctx context.Context, c *model.Collection) error {
	return Do(ctx, r.policy, func(ctx context.Context) error { return r.p.UpdateCollection(ctx, c) })
}

func (r *retryPort) DeleteCollection(ctx context.Context, id string) error {
	return Do(ctx, r.policy, func(ctx context.Context) error { return r.p.DeleteCollection(ctx, id) })
}

func (r *retryPort) CreateDocument(ctx context.Context, d *model.Document) error {
	return Do(ctx, r.policy, func(ctx context.Context) error { return r.p.CreateDocument(ctx, d) })
}

func (r *retryPort) GetDocument(ctx context.Context, id string) (*model.Document, error) {
	var out *model.Document
	err := Do(ctx, r.policy, func(ctx context.Context) error {
		v, err := r.p.GetDocument(ctx, id)
		out = v
		return err
	})
	return out, err
}

func (r *retryPort) GetDocumentsByIDs(ctx context.Context, ids []string) ([]*model.Document, error) {
	var out []*model.Document
	err := Do(ctx, r.policy, func(ctx context.Context) error {
		v, err := r.p.GetDocumentsByIDs(ctx, ids)
		out = v
		return err
	})
	return out, err
}

func (r *retryPort) ListDocumentIDsByCollection(ctx context.Context, collectionID string, order query.Ordering) ([]string, error) {
	var out []string
	err := Do(ctx, r.policy, func(ctx context.Context) error {
		v, err := r.p.ListDocumentIDsByCollection(ctx, collectionID, order)
		out = v
		return err
	})
	return out, err
}

func (r *retryPort) DeleteDocument(ctx context.Context, id string) error {
	return Do(ctx, r.policy, func(ctx context.Context) error { return r.p.DeleteDocument(ctx, id) })
}

func (r *retryPort) DeleteDocumentsByCollection(ctx context.Context, collectionID string) error {
	return Do(ctx, r.policy, func(ctx context.Context) error { return r.p.DeleteDocumentsByCollection(ctx, collectionID) })
}

func (r *retryPort) CreateSchema(ctx context.Context, s *model.Schema) error {
	return Do(ctx, r.policy, func(ctx context.Context) error { return r.p.CreateSchema(ctx, s) })
}

func (r *retryPort) GetSchemaByHash(ctx context.Context, hash string) (*model.Schema, error) {
	var out *model.Schema
	err := Do(ctx, r.policy, func(ctx context.Context) error {
		v, err := r.p.GetSchemaByHash(ctx, hash)
		out = v
		return err
	})
	return out, err
}

func (r *retryPort) GetSchema(ctx context.Context, id string) (*model.Schema, error) {
	var out *model.Schema
	err := Do(ctx, r.policy, func(ctx context.Context) error {
		v, err := r.p.GetSchema(ctx, id)
		out = v
		return err
	})
	return out, err
}

func (r *retryPort) CreateSchemaElements(ctx context.Context, elements []*model.SchemaElement) error {
	return Do(ctx, r.policy, func(ctx context.Context) error { return r.p.CreateSchemaElements(ctx, elements) })
}

func (r *retryPort) ListSchemaElements(ctx context.Context, schemaID string) ([]*model.SchemaElement, error) {
	var out []*model.SchemaElement
	err := Do(ctx, r.policy, func(ctx context.Context) error {
		v, err := r.p.ListSchemaElements(ctx, schemaID)
		out = v
		return err
	})
	return out, err
}

func (r *retryPort) GetSchemaElementByKey(ctx context.Context, schemaID, key string) (*model.SchemaElement, error) {
	var out *model.SchemaElement
	err := Do(ctx, r.policy, func(ctx context.Context) error {
		v, err := r.p.GetSchemaElementByKey(ctx, schemaID, key)
		out = v
		return err
	})
	return out, err
}

func (r *retryPort) EnsureIndexTable(ctx context.Context, tableName string) error {
	return Do(ctx, r.policy, func(ctx context.Context) error { return r.p.EnsureIndexTable(ctx, tableName) })
}

func (r *retryPort) InsertValuesMultiTable(ctx context.Context, byTable map[string][]*model.DocumentValue) error {
	return Do(ctx, r.policy, func(ctx context.Context) error { return r.p.InsertValuesMultiTable(ctx, byTable) })
}

func (r *retryPort) DeleteValuesByDocument(ctx context.Context, tableName, documentID string) error {
	return Do(ctx, r.policy, func(ctx context.Context) error { return r.p.DeleteValuesByDocument(ctx, tableName, documentID) })
}

func (r *retryPort) DeleteValuesByCollection(ctx context.Context, tableName, collectionID string) error {
	return Do(ctx, r.policy, func(ctx context.Context) error { return r.p.DeleteValuesByCollection(ctx, tableName, collectionID) })
}

func (r *retryPort) MatchingDocumentIDs(ctx context.Context, tableName string, cond query.Condition, value string) ([]string, error) {
	var out []string
	err := Do(ctx, r.policy, func(ctx context.Context) error {
		v, err := r.p.MatchingDocumentIDs(ctx, tableName, cond, value)
		out = v
		return err
	})
	return out, err
}

func (r *retryPort) PopulatedTables(ctx context.Context, collectionID string, tableNames []string) ([]string, error) {
	var out []string
	err := Do(ctx, r.policy, func(ctx context.Context) error {
		v, err := r.p.PopulatedTables(ctx, collectionID, tableNames)
		out = v
		return err
	})
	return out, err
}

func (r *retryPort) CreateIndexMapping(ctx context.Context, m *model.IndexTableMapping) error {
	return Do(ctx, r.policy, func(ctx context.Context) error { return r.p.CreateIndexMapping(ctx, m) })
}

func (r *retryPort) GetIndexMapping(ctx context.Context, key string) (*model.IndexTableMapping, error) {
	var out *model.IndexTableMapping
	err := Do(ctx, r.policy, func(ctx context.Context) error {
		v, err := r.p.GetIndexMapping(ctx, key)
		out = v
		return err
	})
	return out, err
}

func (r *retryPort) ListIndexMappings(ctx context.Context) ([]*model.IndexTableMapping, error) {
	var out []*model.IndexTableMapping
	err := Do(ctx, r.policy, func(ctx context.Context) error {
		v, err := r.p.ListIndexMappings(ctx)
		out = v
		return err
	})
	return out, err
}

func (r *retryPort) CreateLabel(ctx context.Context, l *model.Label) error {
	return Do(ctx, r.policy, func(ctx context.Context) error { return r.p.CreateLabel(ctx, l) })
}

func (r *retryPort) ListLabels(ctx context.Context, collectionID, documentID *string) ([]*model.Label, error) {
	var out []*model.Label
	err := Do(ctx, r.policy, func(ctx context.Context) error {
		v, err := r.p.ListLabels(ctx, collectionID, documentID)
		out = v
		return err
	})
	return out, err
}

func (r *retryPort) DeleteLabelsForDocument(ctx context.Context, documentID string) error {
	return Do(ctx, r.policy, func(ctx context.Context) error { return r.p.DeleteLabelsForDocument(ctx, documentID) })
}

func (r *retryPort) DocumentIDsWithAllLabels(ctx context.Context, collectionID *string, labels []string) ([]string, error) {
	var out []string
	err := Do(ctx, r.policy, func(ctx context.Context) error {
		v, err := r.p.DocumentIDsWithAllLabels(ctx, collectionID, labels)
		out = v
		return err
	})
	return out, err
}

func (r *retryPort) CreateTag(ctx context.Context, t *model.Tag) error {
	return Do(ctx, r.policy, func(ctx context.Context) error { return r.p.CreateTag(ctx, t) })
}

func (r *retryPort) ListTags(ctx context.Context, collectionID, documentID *string) ([]*model.Tag, error) {
	var out []*model.Tag
	err := Do(ctx, r.policy, func(ctx context.Context) error {
		v, err := r.p.ListTags(ctx, collectionID, documentID)
		out = v
		return err
	})
	return out, err
}

func (r *retryPort) DeleteTagsForDocument(ctx context.Context, documentID string) error {
	return Do(ctx, r.policy, func(ctx context.Context) error { return r.p.DeleteTagsForDocument(ctx, documentID) })
}

func (r *retryPort) DocumentIDsWithAllTags(ctx context.Context, collectionID *string, tags map[string]string) ([]string, error) {
	var out []string
	err := Do(ctx, r.policy, func(ctx context.Context) error {
		v, err := r.p.DocumentIDsWithAllTags(ctx, collectionID, tags)
		out = v
		return err
	})
	return out, err
}

func (r *retryPort) CreateFieldConstraint(ctx context.Context, c *model.FieldConstraint) error {
	return Do(ctx, r.policy, func(ctx context.Context) error { return r.p.CreateFieldConstraint(ctx, c) })
}

func (r *retryPort) ListFieldConstraints(ctx context.Context, collectionID string) ([]*model.FieldConstraint, error) {
	var out []*model.FieldConstraint
	err := Do(ctx, r.policy, func(ctx context.Context) error {
		v, err := r.p.ListFieldConstraints(ctx, collectionID)
		out = v
		return err
	})
	return out, err
}

func (r *retryPort) DeleteFieldConstraint(ctx context.Context, id string) error {
	return Do(ctx, r.policy, func(ctx context.Context) error { return r.p.DeleteFieldConstraint(ctx, id) })
}

func (r *retryPort) CreateIndexedField(ctx context.Context, f *model.IndexedField) error {
	return Do(ctx, r.policy, func(ctx context.Context) error { return r.p.CreateIndexedField(ctx, f) })
}

func (r *retryPort) ListIndexedFields(ctx context.Context, collectionID string) ([]*model.IndexedField, error) {
	var out []*model.IndexedField
	err := Do(ctx, r.policy, func(ctx context.Context) error {
		v, err := r.p.ListIndexedFields(ctx, collectionID)
		out = v
		return err
	})
	return out, err
}

func (r *retryPort) DeleteIndexedField(ctx context.Context, id string) error {
	return Do(ctx, r.policy, func(ctx context.Context) error { return r.p.DeleteIndexedField(ctx, id) })
}

func (r *retryPort) TryAcquireLock(ctx context.Context, l *model.ObjectLock) (*model.ObjectLock, bool, error) {
	var existing *model.ObjectLock
	var acquired bool
	err := Do(ctx, r.policy, func(ctx context.Context) error {
		e, a, err := r.p.TryAcquireLock(ctx, l)
		existing, acquired = e, a
		return err
	})
	return existing, acquired, err
}

func (r *retryPort) ReleaseLock(ctx context.Context, id string) error {
	return Do(ctx, r.policy, func(ctx context.Context) error { return r.p.ReleaseLock(ctx, id) })
}

func (r *retryPort) ReleaseLockByName(ctx context.Context, collectionID, documentName string) error {
	return Do(ctx, r.policy, func(ctx context.Context) error { return r.p.ReleaseLockByName(ctx, collectionID, documentName) })
}

func (r *retryPort) DeleteExpiredLocks(ctx context.Context, expirationSeconds int) (int64, error) {
	var out int64
	err := Do(ctx, r.policy, func(ctx context.Context) error {
		v, err := r.p.DeleteExpiredLocks(ctx, expirationSeconds)
		out = v
		return err
	})
	return out, err
}

var _ store.Port = (*retryPort)(nil)
