package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lattice-db/lattice/internal/model"
	"github.com/lattice-db/lattice/internal/query"
)

// ErrAlreadyExists/ErrNotFound are declared at the SQL layer so Engine
// has no import cycle back to internal/store; store re-exports these
// same values as store.ErrAlreadyExists/store.ErrNotFound, so no
// translation happens at the Port boundary.
var (
	ErrAlreadyExists = errors.New("sqlstore: row already exists")
	ErrNotFound      = errors.New("sqlstore: not found")
)

// execer is the subset of *sql.DB every Engine operation needs; both
// *sql.DB and *sql.Tx satisfy it.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Engine implements every Repository Port method. Its query text is
// dialect-neutral; only the DDL EnsureIndexTable renders depends on
// Dialect. A backend package supplies the *sql.DB, the connection setup,
// and its dialect-specific error classifiers; Engine supplies everything
// downstream of the connection.
type Engine struct {
	DB execer
	// Dialect selects the DDL this Engine's backend actually accepts
	// (sqlstore.SQLiteDialect/MySQLDialect/DoltDialect); EnsureIndexTable
	// renders dynamic index tables under it.
	Dialect Dialect
	// BeginTx opens a transaction; only *sql.DB can do this, so it is
	// threaded separately from the execer interface.
	BeginTx func(ctx context.Context) (*sql.Tx, error)
	// IsUniqueViolation classifies a unique-constraint error.
	IsUniqueViolation func(error) bool
	// IsMissingTable classifies a "relation does not exist" error —
	// the case a filter targets a key whose index table was dropped
	// mid-rebuild or never created.
	IsMissingTable func(error) bool
	// IsDuplicateIndex classifies a "this index already exists" error.
	// Only meaningful (and only ever called) when Dialect.IndexIfNotExists
	// is false: MySQL and Dolt reject CREATE INDEX IF NOT EXISTS outright,
	// so EnsureIndexTable runs a bare CREATE INDEX and relies on this to
	// tell a genuine failure apart from the loser of a concurrent race to
	// create the same dynamic table re-running the same statement.
	IsDuplicateIndex func(error) bool
}

type rowScanner interface {
	Scan(dest ...any) error
}

// --- Collections ---

func (e *Engine) CreateCollection(ctx context.Context, c *model.Collection) error {
	_, err := e.DB.ExecContext(ctx, InsertCollectionQuery,
		c.ID, c.Name, c.Description, c.DocumentsDirectory,
		string(c.SchemaEnforcementMode), string(c.IndexingMode),
		fmtTime(c.CreatedUTC), fmtTime(c.LastUpdateUTC))
	return e.wrapWrite(err, "inserting collection")
}

func (e *Engine) GetCollection(ctx context.Context, id string) (*model.Collection, error) {
	return e.scanCollection(e.DB.QueryRowContext(ctx, GetCollectionQuery, id))
}

func (e *Engine) FindCollectionByName(ctx context.Context, name string) (*model.Collection, error) {
	return e.scanCollection(e.DB.QueryRowContext(ctx, GetCollectionByNameQuery, name))
}

func (e *Engine) UpdateCollection(ctx context.Context, c *model.Collection) error {
	res, err := e.DB.ExecContext(ctx, UpdateCollectionQuery,
		c.Name, c.Description, c.DocumentsDirectory,
		string(c.SchemaEnforcementMode), string(c.IndexingMode), fmtTime(c.LastUpdateUTC), c.ID)
	if err != nil {
		return fmt.Errorf("sqlstore: updating collection: %w", err)
	}
	return requireRowsAffected(res)
}

func (e *Engine) DeleteCollection(ctx context.Context, id string) error {
	_, err := e.DB.ExecContext(ctx, DeleteCollectionQuery, id)
	return e.wrapWrite(err, "deleting collection")
}

func (e *Engine) scanCollection(row rowScanner) (*model.Collection, error) {
	var c model.Collection
	var created, updated string
	err := row.Scan(&c.ID, &c.Name, &c.Description, &c.DocumentsDirectory,
		&c.SchemaEnforcementMode, &c.IndexingMode, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlstore: scanning collection: %w", err)
	}
	c.CreatedUTC, _ = time.Parse(time.RFC3339Nano, created)
	c.LastUpdateUTC, _ = time.Parse(time.RFC3339Nano, updated)
	return &c, nil
}

// --- Documents ---

func (e *Engine) CreateDocument(ctx context.Context, d *model.Document) error {
	_, err := e.DB.ExecContext(ctx, InsertDocumentQuery,
		d.ID, d.CollectionID, d.SchemaID, d.Name, d.ContentLength, d.SHA256Hash,
		fmtTime(d.CreatedUTC), fmtTime(d.LastUpdateUTC))
	return e.wrapWrite(err, "inserting document")
}

func (e *Engine) GetDocument(ctx context.Context, id string) (*model.Document, error) {
	return e.scanDocument(e.DB.QueryRowContext(ctx, GetDocumentQuery, id))
}

func (e *Engine) GetDocumentsByIDs(ctx context.Context, ids []string) ([]*model.Document, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	queryText := `SELECT id, collection_id, schema_id, name, content_length, sha256_hash, created_utc, last_update_utc
		FROM documents WHERE id IN (` + placeholders + `)`
	rows, err := e.DB.QueryContext(ctx, queryText, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: querying documents by ids: %w", err)
	}
	defer rows.Close()

	byID := make(map[string]*model.Document, len(ids))
	for rows.Next() {
		d, err := e.scanDocument(rows)
		if err != nil {
			return nil, err
		}
		byID[d.ID] = d
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlstore: iterating documents: %w", err)
	}
	out := make([]*model.Document, 0, len(ids))
	for _, id := range ids {
		if d, ok := byID[id]; ok {
			out = append(out, d)
		}
	}
	return out, nil
}

func (e *Engine) ListDocumentIDsByCollection(ctx context.Context, collectionID string, order query.Ordering) ([]string, error) {
	orderBy, ok := orderByClause(order)
	if !ok {
		return nil, fmt.Errorf("sqlstore: unknown ordering %q", order)
	}
	rows, err := e.DB.QueryContext(ctx, `SELECT id FROM documents WHERE collection_id = ? ORDER BY `+orderBy, collectionID)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: listing document ids: %w", err)
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("sqlstore: scanning document id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func orderByClause(o query.Ordering) (string, bool) {
	switch o {
	case query.CreatedAscending:
		return "created_utc ASC", true
	case query.CreatedDescending:
		return "created_utc DESC", true
	case query.LastUpdateAscending:
		return "last_update_utc ASC", true
	case query.LastUpdateDescending:
		return "last_update_utc DESC", true
	case query.NameAscending:
		return "name IS NULL, name ASC", true
	case query.NameDescending:
		return "name IS NULL, name DESC", true
	default:
		return "", false
	}
}

func (e *Engine) DeleteDocument(ctx context.Context, id string) error {
	_, err := e.DB.ExecContext(ctx, DeleteDocumentQuery, id)
	return e.wrapWrite(err, "deleting document")
}

func (e *Engine) DeleteDocumentsByCollection(ctx context.Context, collectionID string) error {
	_, err := e.DB.ExecContext(ctx, DeleteDocumentsByCollectionQuery, collectionID)
	return e.wrapWrite(err, "deleting documents by collection")
}

func (e *Engine) scanDocument(row rowScanner) (*model.Document, error) {
	var d model.Document
	var created, updated string
	err := row.Scan(&d.ID, &d.CollectionID, &d.SchemaID, &d.Name, &d.ContentLength, &d.SHA256Hash, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlstore: scanning document: %w", err)
	}
	d.CreatedUTC, _ = time.Parse(time.RFC3339Nano, created)
	d.LastUpdateUTC, _ = time.Parse(time.RFC3339Nano, updated)
	return &d, nil
}

// --- Schemas / SchemaElements ---

func (e *Engine) CreateSchema(ctx context.Context, sc *model.Schema) error {
	_, err := e.DB.ExecContext(ctx, InsertSchemaQuery, sc.ID, sc.Name, sc.Hash, fmtTime(sc.CreatedUTC))
	return e.wrapWrite(err, "inserting schema")
}

func (e *Engine) GetSchemaByHash(ctx context.Context, hash string) (*model.Schema, error) {
	return e.scanSchema(e.DB.QueryRowContext(ctx, GetSchemaByHashQuery, hash))
}

func (e *Engine) GetSchema(ctx context.Context, id string) (*model.Schema, error) {
	return e.scanSchema(e.DB.QueryRowContext(ctx, GetSchemaQuery, id))
}

func (e *Engine) scanSchema(row rowScanner) (*model.Schema, error) {
	var sc model.Schema
	var created string
	err := row.Scan(&sc.ID, &sc.Name, &sc.Hash, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlstore: scanning schema: %w", err)
	}
	sc.CreatedUTC, _ = time.Parse(time.RFC3339Nano, created)
	return &sc, nil
}

func (e *Engine) CreateSchemaElements(ctx context.Context, elements []*model.SchemaElement) error {
	if len(elements) == 0 {
		return nil
	}
	tx, err := e.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("sqlstore: beginning schema element transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, InsertSchemaElementQuery)
	if err != nil {
		return fmt.Errorf("sqlstore: preparing schema element insert: %w", err)
	}
	defer stmt.Close()
	for _, el := range elements {
		if _, err := stmt.ExecContext(ctx, el.ID, el.SchemaID, el.Position, el.Key, string(el.DataType), el.Nullable); err != nil {
			return fmt.Errorf("sqlstore: inserting schema element %s: %w", el.Key, err)
		}
	}
	return tx.Commit()
}

func (e *Engine) ListSchemaElements(ctx context.Context, schemaID string) ([]*model.SchemaElement, error) {
	rows, err := e.DB.QueryContext(ctx, ListSchemaElementsQuery, schemaID)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: listing schema elements: %w", err)
	}
	defer rows.Close()
	var out []*model.SchemaElement
	for rows.Next() {
		el, err := e.scanSchemaElement(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, el)
	}
	return out, rows.Err()
}

func (e *Engine) GetSchemaElementByKey(ctx context.Context, schemaID, key string) (*model.SchemaElement, error) {
	return e.scanSchemaElement(e.DB.QueryRowContext(ctx, GetSchemaElementByKeyQuery, schemaID, key))
}

func (e *Engine) scanSchemaElement(row rowScanner) (*model.SchemaElement, error) {
	var el model.SchemaElement
	err := row.Scan(&el.ID, &el.SchemaID, &el.Position, &el.Key, &el.DataType, &el.Nullable)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlstore: scanning schema element: %w", err)
	}
	return &el, nil
}

// --- Values (Index Catalog data plane) ---

func (e *Engine) EnsureIndexTable(ctx context.Context, tableName string) error {
	if _, err := e.DB.ExecContext(ctx, CreateIndexTableDDL(e.Dialect, tableName)); err != nil {
		return fmt.Errorf("sqlstore: creating index table %s: %w", tableName, err)
	}
	for _, stmt := range CreateIndexTableIndexDDL(e.Dialect, tableName) {
		if _, err := e.DB.ExecContext(ctx, stmt); err != nil {
			if !e.Dialect.IndexIfNotExists && e.IsDuplicateIndex != nil && e.IsDuplicateIndex(err) {
				continue // lost a race to another caller creating the same dynamic table
			}
			return fmt.Errorf("sqlstore: creating index on %s: %w", tableName, err)
		}
	}
	return nil
}

func (e *Engine) InsertValuesMultiTable(ctx context.Context, byTable map[string][]*model.DocumentValue) error {
	if len(byTable) == 0 {
		return nil
	}
	tx, err := e.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("sqlstore: beginning value insert transaction: %w", err)
	}
	defer tx.Rollback()

	for tableName, values := range byTable {
		stmt, err := tx.PrepareContext(ctx, InsertValueQuery(tableName))
		if err != nil {
			return fmt.Errorf("sqlstore: preparing value insert for %s: %w", tableName, err)
		}
		for _, v := range values {
			_, err := stmt.ExecContext(ctx, v.ID, v.DocumentID, v.SchemaID, v.SchemaElementID, v.Position, v.Value, fmtTime(v.CreatedUTC))
			if err != nil {
				stmt.Close()
				return fmt.Errorf("sqlstore: inserting value into %s: %w", tableName, err)
			}
		}
		stmt.Close()
	}
	return tx.Commit()
}

func (e *Engine) DeleteValuesByDocument(ctx context.Context, tableName, documentID string) error {
	_, err := e.DB.ExecContext(ctx, DeleteValuesByDocumentQuery(tableName), documentID)
	return e.wrapWrite(err, "deleting values by document")
}

func (e *Engine) DeleteValuesByCollection(ctx context.Context, tableName, collectionID string) error {
	_, err := e.DB.ExecContext(ctx, DeleteValuesByCollectionQuery(tableName), collectionID)
	return e.wrapWrite(err, "deleting values by collection")
}

func (e *Engine) MatchingDocumentIDs(ctx context.Context, tableName string, cond query.Condition, value string) ([]string, error) {
	fragment, args := ConditionSQL(cond, value)
	rows, err := e.DB.QueryContext(ctx, MatchQuery(tableName, fragment), args...)
	if err != nil {
		if e.IsMissingTable(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("sqlstore: matching values in %s: %w", tableName, err)
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("sqlstore: scanning matched document id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (e *Engine) PopulatedTables(ctx context.Context, collectionID string, tableNames []string) ([]string, error) {
	var populated []string
	for _, t := range tableNames {
		var exists bool
		err := e.DB.QueryRowContext(ctx, PopulatedQuery(t), collectionID).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			if e.IsMissingTable(err) {
				continue
			}
			return nil, fmt.Errorf("sqlstore: checking population of %s: %w", t, err)
		}
		if exists {
			populated = append(populated, t)
		}
	}
	return populated, nil
}

// --- Index Catalog metadata ---

func (e *Engine) CreateIndexMapping(ctx context.Context, m *model.IndexTableMapping) error {
	_, err := e.DB.ExecContext(ctx, InsertIndexMappingQuery, m.ID, m.Key, m.TableName)
	return e.wrapWrite(err, "inserting index mapping")
}

func (e *Engine) GetIndexMapping(ctx context.Context, key string) (*model.IndexTableMapping, error) {
	return e.scanIndexMapping(e.DB.QueryRowContext(ctx, GetIndexMappingQuery, key))
}

func (e *Engine) ListIndexMappings(ctx context.Context) ([]*model.IndexTableMapping, error) {
	rows, err := e.DB.QueryContext(ctx, ListIndexMappingsQuery)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: listing index mappings: %w", err)
	}
	defer rows.Close()
	var out []*model.IndexTableMapping
	for rows.Next() {
		m, err := e.scanIndexMapping(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (e *Engine) scanIndexMapping(row rowScanner) (*model.IndexTableMapping, error) {
	var m model.IndexTableMapping
	err := row.Scan(&m.ID, &m.Key, &m.TableName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlstore: scanning index mapping: %w", err)
	}
	return &m, nil
}

// --- Labels / Tags ---

func (e *Engine) CreateLabel(ctx context.Context, l *model.Label) error {
	_, err := e.DB.ExecContext(ctx, InsertLabelQuery, l.ID, l.CollectionID, l.DocumentID, l.Value)
	return e.wrapWrite(err, "inserting label")
}

func (e *Engine) ListLabels(ctx context.Context, collectionID, documentID *string) ([]*model.Label, error) {
	queryText := `SELECT id, collection_id, document_id, label_value FROM labels WHERE 1 = 1`
	var args []any
	if collectionID != nil {
		queryText += ` AND collection_id = ?`
		args = append(args, *collectionID)
	}
	if documentID != nil {
		queryText += ` AND document_id = ?`
		args = append(args, *documentID)
	}
	rows, err := e.DB.QueryContext(ctx, queryText, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: listing labels: %w", err)
	}
	defer rows.Close()
	var out []*model.Label
	for rows.Next() {
		var l model.Label
		if err := rows.Scan(&l.ID, &l.CollectionID, &l.DocumentID, &l.Value); err != nil {
			return nil, fmt.Errorf("sqlstore: scanning label: %w", err)
		}
		out = append(out, &l)
	}
	return out, rows.Err()
}

func (e *Engine) DeleteLabelsForDocument(ctx context.Context, documentID string) error {
	_, err := e.DB.ExecContext(ctx, DeleteLabelsForDocumentQuery, documentID)
	return e.wrapWrite(err, "deleting labels")
}

func (e *Engine) DocumentIDsWithAllLabels(ctx context.Context, collectionID *string, labels []string) ([]string, error) {
	if len(labels) == 0 {
		return nil, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(labels)), ",")
	args := make([]any, 0, len(labels)+2)
	for _, l := range labels {
		args = append(args, l)
	}
	queryText := `SELECT document_id FROM labels WHERE document_id IS NOT NULL AND label_value IN (` + placeholders + `)`
	if collectionID != nil {
		queryText += ` AND document_id IN (SELECT id FROM documents WHERE collection_id = ?)`
		args = append(args, *collectionID)
	}
	queryText += ` GROUP BY document_id HAVING COUNT(DISTINCT label_value) = ?`
	args = append(args, len(labels))
	return e.queryDocumentIDs(ctx, queryText, args, "matching documents by labels")
}

func (e *Engine) CreateTag(ctx context.Context, t *model.Tag) error {
	_, err := e.DB.ExecContext(ctx, InsertTagQuery, t.ID, t.CollectionID, t.DocumentID, t.Key, t.Value)
	return e.wrapWrite(err, "inserting tag")
}

func (e *Engine) ListTags(ctx context.Context, collectionID, documentID *string) ([]*model.Tag, error) {
	queryText := `SELECT id, collection_id, document_id, tag_key, tag_value FROM tags WHERE 1 = 1`
	var args []any
	if collectionID != nil {
		queryText += ` AND collection_id = ?`
		args = append(args, *collectionID)
	}
	if documentID != nil {
		queryText += ` AND document_id = ?`
		args = append(args, *documentID)
	}
	rows, err := e.DB.QueryContext(ctx, queryText, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: listing tags: %w", err)
	}
	defer rows.Close()
	var out []*model.Tag
	for rows.Next() {
		var t model.Tag
		if err := rows.Scan(&t.ID, &t.CollectionID, &t.DocumentID, &t.Key, &t.Value); err != nil {
			return nil, fmt.Errorf("sqlstore: scanning tag: %w", err)
		}
		out = append(out, &t)
	}
	return out, rows.Err()
}

func (e *Engine) DeleteTagsForDocument(ctx context.Context, documentID string) error {
	_, err := e.DB.ExecContext(ctx, DeleteTagsForDocumentQuery, documentID)
	return e.wrapWrite(err, "deleting tags")
}

func (e *Engine) DocumentIDsWithAllTags(ctx context.Context, collectionID *string, tags map[string]string) ([]string, error) {
	if len(tags) == 0 {
		return nil, nil
	}
	var clauses []string
	var args []any
	for k, v := range tags {
		clauses = append(clauses, "(tag_key = ? AND tag_value = ?)")
		args = append(args, k, v)
	}
	queryText := `SELECT document_id FROM tags WHERE document_id IS NOT NULL AND (` + strings.Join(clauses, " OR ") + `)`
	if collectionID != nil {
		queryText += ` AND document_id IN (SELECT id FROM documents WHERE collection_id = ?)`
		args = append(args, *collectionID)
	}
	queryText += " GROUP BY document_id HAVING COUNT(DISTINCT tag_key || '\x1f' || tag_value) = ?"
	args = append(args, len(tags))
	return e.queryDocumentIDs(ctx, queryText, args, "matching documents by tags")
}

func (e *Engine) queryDocumentIDs(ctx context.Context, queryText string, args []any, op string) ([]string, error) {
	rows, err := e.DB.QueryContext(ctx, queryText, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: %s: %w", op, err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("sqlstore: scanning matched document id: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// --- Field constraints / indexed fields ---

func (e *Engine) CreateFieldConstraint(ctx context.Context, c *model.FieldConstraint) error {
	_, err := e.DB.ExecContext(ctx, InsertFieldConstraintQuery,
		c.ID, c.CollectionID, c.FieldPath, c.DataType, c.Required, c.Nullable, c.RegexPattern,
		c.MinValue, c.MaxValue, c.MinLength, c.MaxLength, encodeStrings(c.AllowedValues), c.ArrayElementType)
	return e.wrapWrite(err, "inserting field constraint")
}

func (e *Engine) ListFieldConstraints(ctx context.Context, collectionID string) ([]*model.FieldConstraint, error) {
	rows, err := e.DB.QueryContext(ctx, ListFieldConstraintsQuery, collectionID)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: listing field constraints: %w", err)
	}
	defer rows.Close()
	var out []*model.FieldConstraint
	for rows.Next() {
		var c model.FieldConstraint
		var allowed *string
		err := rows.Scan(&c.ID, &c.CollectionID, &c.FieldPath, &c.DataType, &c.Required, &c.Nullable,
			&c.RegexPattern, &c.MinValue, &c.MaxValue, &c.MinLength, &c.MaxLength, &allowed, &c.ArrayElementType)
		if err != nil {
			return nil, fmt.Errorf("sqlstore: scanning field constraint: %w", err)
		}
		c.AllowedValues = decodeStrings(allowed)
		out = append(out, &c)
	}
	return out, rows.Err()
}

func (e *Engine) DeleteFieldConstraint(ctx context.Context, id string) error {
	_, err := e.DB.ExecContext(ctx, DeleteFieldConstraintQuery, id)
	return e.wrapWrite(err, "deleting field constraint")
}

func (e *Engine) CreateIndexedField(ctx context.Context, f *model.IndexedField) error {
	_, err := e.DB.ExecContext(ctx, InsertIndexedFieldQuery, f.ID, f.CollectionID, f.FieldPath)
	return e.wrapWrite(err, "inserting indexed field")
}

func (e *Engine) ListIndexedFields(ctx context.Context, collectionID string) ([]*model.IndexedField, error) {
	rows, err := e.DB.QueryContext(ctx, ListIndexedFieldsQuery, collectionID)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: listing indexed fields: %w", err)
	}
	defer rows.Close()
	var out []*model.IndexedField
	for rows.Next() {
		var f model.IndexedField
		if err := rows.Scan(&f.ID, &f.CollectionID, &f.FieldPath); err != nil {
			return nil, fmt.Errorf("sqlstore: scanning indexed field: %w", err)
		}
		out = append(out, &f)
	}
	return out, rows.Err()
}

func (e *Engine) DeleteIndexedField(ctx context.Context, id string) error {
	res, err := e.DB.ExecContext(ctx, DeleteIndexedFieldQuery, id)
	if err != nil {
		return fmt.Errorf("sqlstore: deleting indexed field: %w", err)
	}
	return requireRowsAffected(res)
}

// encodeStrings/decodeStrings give FieldConstraint.AllowedValues (not a
// real SQL column per model.FieldConstraint's db:"-" tag) a storage
// representation: one TEXT column holding \x1f-separated values.
func encodeStrings(vs []string) *string {
	if len(vs) == 0 {
		return nil
	}
	joined := strings.Join(vs, "\x1f")
	return &joined
}

func decodeStrings(s *string) []string {
	if s == nil || *s == "" {
		return nil
	}
	return strings.Split(*s, "\x1f")
}

// --- Object locks ---

func (e *Engine) TryAcquireLock(ctx context.Context, l *model.ObjectLock) (*model.ObjectLock, bool, error) {
	_, err := e.DB.ExecContext(ctx, InsertObjectLockQuery, l.ID, l.CollectionID, l.DocumentName, l.Hostname, fmtTime(l.CreatedUTC))
	if err == nil {
		return nil, true, nil
	}
	if !e.IsUniqueViolation(err) {
		return nil, false, fmt.Errorf("sqlstore: inserting object lock: %w", err)
	}
	existing, scanErr := e.scanObjectLock(e.DB.QueryRowContext(ctx, GetObjectLockByNameQuery, l.CollectionID, l.DocumentName))
	if scanErr != nil {
		return nil, false, fmt.Errorf("sqlstore: reading conflicting object lock: %w", scanErr)
	}
	return existing, false, nil
}

func (e *Engine) ReleaseLock(ctx context.Context, id string) error {
	_, err := e.DB.ExecContext(ctx, ReleaseObjectLockQuery, id)
	return e.wrapWrite(err, "releasing object lock")
}

func (e *Engine) ReleaseLockByName(ctx context.Context, collectionID, documentName string) error {
	_, err := e.DB.ExecContext(ctx, ReleaseObjectLockByNameQuery, collectionID, documentName)
	return e.wrapWrite(err, "releasing object lock by name")
}

func (e *Engine) DeleteExpiredLocks(ctx context.Context, expirationSeconds int) (int64, error) {
	cutoff := time.Now().UTC().Add(-time.Duration(expirationSeconds) * time.Second).Format(time.RFC3339Nano)
	res, err := e.DB.ExecContext(ctx, DeleteExpiredLocksQuery, cutoff)
	if err != nil {
		return 0, fmt.Errorf("sqlstore: deleting expired locks: %w", err)
	}
	return res.RowsAffected()
}

func (e *Engine) scanObjectLock(row rowScanner) (*model.ObjectLock, error) {
	var l model.ObjectLock
	var created string
	err := row.Scan(&l.ID, &l.CollectionID, &l.DocumentName, &l.Hostname, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlstore: scanning object lock: %w", err)
	}
	l.CreatedUTC, _ = time.Parse(time.RFC3339Nano, created)
	return &l, nil
}

// --- shared helpers ---

func (e *Engine) wrapWrite(err error, op string) error {
	if err == nil {
		return nil
	}
	if e.IsUniqueViolation(err) {
		return ErrAlreadyExists
	}
	return fmt.Errorf("sqlstore: %s: %w", op, err)
}

func requireRowsAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlstore: reading rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func fmtTime(t time.Time) string { return t.UTC().Format(time.RFC3339Nano) }
