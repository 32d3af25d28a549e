// Package sqlstore holds the SQL text and table-naming rules shared by
// every Port backend (sqlitestore, mysqlstore, doltstore). Because
// ncruces/go-sqlite3, go-sql-driver/mysql and dolthub/driver all accept
// "?" positional placeholders, one dialect-neutral set of query text
// serves all three — mirroring the teacher's internal/storage/convex,
// which embeds its DDL and query text as package-level string constants
// (internal/storage/convex/schema.go) rather than building it through an
// ORM or query builder library.
//
// DDL is the one place the three backends actually diverge: MySQL and
// Dolt reject a bare TEXT column in a PRIMARY KEY or UNIQUE constraint
// (error 1170, "BLOB/TEXT column used in key specification without a
// key length"), and neither accepts CREATE INDEX ... IF NOT EXISTS.
// Dialect captures exactly those two differences; every backend's Open
// picks the matching value and everything downstream still shares one
// query-text layer.
package sqlstore

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
)

// IndexTableName computes the deterministic table_name for key
// (spec.md §4.4): "index_" followed by the first TableNameHashLen hex
// characters of sha256(key). Truncating keeps table names short enough
// for every target backend's identifier length limit (MySQL's 64-byte
// cap is the tightest) while 16 hex characters (64 bits) leaves
// collision probability negligible for any realistic key cardinality.
func IndexTableName(key string) string {
	sum := sha256.Sum256([]byte(key))
	return "index_" + hex.EncodeToString(sum[:])[:TableNameHashLen]
}

// TableNameHashLen is the fixed hex-character length used by
// IndexTableName. Changing it would silently re-bucket every existing
// index table, so it is pinned as a constant rather than configuration.
const TableNameHashLen = 16

// Dialect parameterizes the handful of DDL differences between SQLite
// and the two MySQL-wire backends (MySQL itself and Dolt).
type Dialect struct {
	Name string

	// KeyType is the column type for TEXT values that appear in a
	// PRIMARY KEY or UNIQUE constraint: engine-generated ids and
	// hashes, which are always short and fixed-shape. SQLite is happy
	// keying on TEXT directly; MySQL/Dolt need a bounded VARCHAR.
	KeyType string

	// NameType is the column type for UNIQUE-constrained values that
	// originate from user input (a collection name, a document name) and
	// so need a byte cap even though they aren't engine-generated.
	NameType string

	// IndexIfNotExists is true when CREATE INDEX ... IF NOT EXISTS is
	// valid syntax (SQLite only). MySQL and Dolt reject it; callers
	// creating an index on those dialects must tolerate a
	// duplicate-index error on re-init instead.
	IndexIfNotExists bool
}

var (
	SQLiteDialect = Dialect{Name: "sqlite", KeyType: "TEXT", NameType: "TEXT", IndexIfNotExists: true}
	MySQLDialect  = Dialect{Name: "mysql", KeyType: "VARCHAR(64)", NameType: "VARCHAR(255)", IndexIfNotExists: false}
	DoltDialect   = Dialect{Name: "dolt", KeyType: "VARCHAR(64)", NameType: "VARCHAR(255)", IndexIfNotExists: false}
)

// metadataSchemaTemplate is MetadataSchema's DDL with the dialect-
// sensitive bits replaced by tokens: %%KEY%% for id/hash/table_name
// columns, %%NAME%% for user-supplied columns that are also
// UNIQUE-constrained, and %%IFNE%% for the CREATE INDEX existence
// guard.
const metadataSchemaTemplate = `
CREATE TABLE IF NOT EXISTS collections (
	id                       %%KEY%% PRIMARY KEY,
	name                     %%NAME%% NOT NULL UNIQUE,
	description              TEXT,
	documents_directory      TEXT NOT NULL,
	schema_enforcement_mode  TEXT NOT NULL,
	indexing_mode            TEXT NOT NULL,
	created_utc              TEXT NOT NULL,
	last_update_utc          TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS documents (
	id              %%KEY%% PRIMARY KEY,
	collection_id   %%KEY%% NOT NULL,
	schema_id       TEXT NOT NULL,
	name            %%NAME%%,
	content_length  INTEGER NOT NULL,
	sha256_hash     TEXT NOT NULL,
	created_utc     TEXT NOT NULL,
	last_update_utc TEXT NOT NULL
);
CREATE INDEX %%IFNE%%idx_documents_collection ON documents(collection_id);
CREATE INDEX %%IFNE%%idx_documents_collection_name ON documents(collection_id, name);

CREATE TABLE IF NOT EXISTS schemas (
	id          %%KEY%% PRIMARY KEY,
	name        TEXT,
	hash        %%KEY%% NOT NULL UNIQUE,
	created_utc TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS schema_elements (
	id        %%KEY%% PRIMARY KEY,
	schema_id %%KEY%% NOT NULL,
	position  INTEGER NOT NULL,
	key       %%NAME%% NOT NULL,
	data_type TEXT NOT NULL,
	nullable  INTEGER NOT NULL
);
CREATE INDEX %%IFNE%%idx_schema_elements_schema ON schema_elements(schema_id);
CREATE UNIQUE INDEX %%IFNE%%idx_schema_elements_schema_key ON schema_elements(schema_id, key);

CREATE TABLE IF NOT EXISTS index_table_mappings (
	id         %%KEY%% PRIMARY KEY,
	key        %%NAME%% NOT NULL UNIQUE,
	table_name %%KEY%% NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS labels (
	id            %%KEY%% PRIMARY KEY,
	collection_id %%KEY%%,
	document_id   %%KEY%%,
	label_value   TEXT NOT NULL
);
CREATE INDEX %%IFNE%%idx_labels_collection ON labels(collection_id);
CREATE INDEX %%IFNE%%idx_labels_document ON labels(document_id);

CREATE TABLE IF NOT EXISTS tags (
	id            %%KEY%% PRIMARY KEY,
	collection_id %%KEY%%,
	document_id   %%KEY%%,
	tag_key       TEXT NOT NULL,
	tag_value     TEXT NOT NULL
);
CREATE INDEX %%IFNE%%idx_tags_collection ON tags(collection_id);
CREATE INDEX %%IFNE%%idx_tags_document ON tags(document_id);

CREATE TABLE IF NOT EXISTS field_constraints (
	id                 %%KEY%% PRIMARY KEY,
	collection_id      %%KEY%% NOT NULL,
	field_path         TEXT NOT NULL,
	data_type          TEXT,
	required           INTEGER NOT NULL,
	nullable           INTEGER NOT NULL,
	regex_pattern      TEXT,
	min_value          REAL,
	max_value          REAL,
	min_length         INTEGER,
	max_length         INTEGER,
	allowed_values     TEXT,
	array_element_type TEXT
);
CREATE INDEX %%IFNE%%idx_field_constraints_collection ON field_constraints(collection_id);

CREATE TABLE IF NOT EXISTS indexed_fields (
	id            %%KEY%% PRIMARY KEY,
	collection_id %%KEY%% NOT NULL,
	field_path    TEXT NOT NULL
);
CREATE INDEX %%IFNE%%idx_indexed_fields_collection ON indexed_fields(collection_id);

CREATE TABLE IF NOT EXISTS object_locks (
	id            %%KEY%% PRIMARY KEY,
	collection_id %%KEY%% NOT NULL,
	document_name %%NAME%% NOT NULL,
	hostname      TEXT NOT NULL,
	created_utc   TEXT NOT NULL
);
CREATE UNIQUE INDEX %%IFNE%%idx_object_locks_name ON object_locks(collection_id, document_name);
`

// MetadataSchema renders the DDL for every fixed (non-dynamic) table
// the engine needs, under d. Dynamic per-key index tables are created
// on demand via CreateIndexTableDDL.
func MetadataSchema(d Dialect) string {
	s := metadataSchemaTemplate
	s = strings.ReplaceAll(s, "%%KEY%%", d.KeyType)
	s = strings.ReplaceAll(s, "%%NAME%%", d.NameType)
	s = strings.ReplaceAll(s, "%%IFNE%%", ifneToken(d))
	return s
}

func ifneToken(d Dialect) string {
	if d.IndexIfNotExists {
		return "IF NOT EXISTS "
	}
	return ""
}

// CreateIndexTableDDL returns the CREATE TABLE IF NOT EXISTS statement
// for a dynamic per-key index table. Every index table shares the same
// shape regardless of which key it indexes (spec.md §4.4): one row per
// (document, position) pair observed for that key. document_id is
// bounded under d because it carries the idx_*_doc index; value stays
// TEXT on every dialect and is indexed with a length prefix instead
// (see CreateIndexTableIndexDDL), since search values are unbounded
// user content.
func CreateIndexTableDDL(d Dialect, tableName string) string {
	return `CREATE TABLE IF NOT EXISTS ` + tableName + ` (
	id                ` + d.KeyType + ` PRIMARY KEY,
	document_id       ` + d.KeyType + ` NOT NULL,
	schema_id         TEXT NOT NULL,
	schema_element_id TEXT,
	position          INTEGER,
	value             TEXT,
	created_utc       TEXT NOT NULL
)`
}

// valueIndexLen is the prefix length used to index the unbounded value
// column on MySQL/Dolt, chosen to stay under InnoDB's 767-byte key-part
// limit at utf8mb4's 4 bytes/char.
const valueIndexLen = 191

// CreateIndexTableIndexDDL returns the supporting indexes for a dynamic
// index table (spec.md §4.4): document_id (deletes and population
// checks key off it), value (the search planner's equality/relational
// lookups), position (ordinal lookups), and the composite
// (document_id, position) pair a rebuild's per-document scan uses to
// re-derive a document's values in source order.
func CreateIndexTableIndexDDL(d Dialect, tableName string) []string {
	ifne := ifneToken(d)
	valueColumn := "value"
	if !d.IndexIfNotExists { // MySQL/Dolt: value is unbounded TEXT, index a prefix
		valueColumn = "value(" + strconv.Itoa(valueIndexLen) + ")"
	}
	return []string{
		`CREATE INDEX ` + ifne + `idx_` + tableName + `_doc ON ` + tableName + `(document_id)`,
		`CREATE INDEX ` + ifne + `idx_` + tableName + `_value ON ` + tableName + `(` + valueColumn + `)`,
		`CREATE INDEX ` + ifne + `idx_` + tableName + `_position ON ` + tableName + `(position)`,
		`CREATE INDEX ` + ifne + `idx_` + tableName + `_doc_position ON ` + tableName + `(document_id, position)`,
	}
}

// Fixed query text for the metadata tables. Every backend runs these
// verbatim through database/sql with "?" placeholders.
const (
	InsertCollectionQuery = `INSERT INTO collections
		(id, name, description, documents_directory, schema_enforcement_mode, indexing_mode, created_utc, last_update_utc)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	GetCollectionQuery = `SELECT id, name, description, documents_directory, schema_enforcement_mode, indexing_mode, created_utc, last_update_utc
		FROM collections WHERE id = ?`
	GetCollectionByNameQuery = `SELECT id, name, description, documents_directory, schema_enforcement_mode, indexing_mode, created_utc, last_update_utc
		FROM collections WHERE name = ?`
	UpdateCollectionQuery = `UPDATE collections SET name = ?, description = ?, documents_directory = ?,
		schema_enforcement_mode = ?, indexing_mode = ?, last_update_utc = ? WHERE id = ?`
	DeleteCollectionQuery = `DELETE FROM collections WHERE id = ?`

	InsertDocumentQuery = `INSERT INTO documents
		(id, collection_id, schema_id, name, content_length, sha256_hash, created_utc, last_update_utc)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	GetDocumentQuery = `SELECT id, collection_id, schema_id, name, content_length, sha256_hash, created_utc, last_update_utc
		FROM documents WHERE id = ?`
	DeleteDocumentQuery              = `DELETE FROM documents WHERE id = ?`
	DeleteDocumentsByCollectionQuery = `DELETE FROM documents WHERE collection_id = ?`

	InsertSchemaQuery    = `INSERT INTO schemas (id, name, hash, created_utc) VALUES (?, ?, ?, ?)`
	GetSchemaByHashQuery = `SELECT id, name, hash, created_utc FROM schemas WHERE hash = ?`
	GetSchemaQuery       = `SELECT id, name, hash, created_utc FROM schemas WHERE id = ?`

	InsertSchemaElementQuery = `INSERT INTO schema_elements (id, schema_id, position, key, data_type, nullable)
		VALUES (?, ?, ?, ?, ?, ?)`
	ListSchemaElementsQuery = `SELECT id, schema_id, position, key, data_type, nullable
		FROM schema_elements WHERE schema_id = ? ORDER BY position ASC`
	GetSchemaElementByKeyQuery = `SELECT id, schema_id, position, key, data_type, nullable
		FROM schema_elements WHERE schema_id = ? AND key = ?`

	InsertIndexMappingQuery = `INSERT INTO index_table_mappings (id, key, table_name) VALUES (?, ?, ?)`
	GetIndexMappingQuery    = `SELECT id, key, table_name FROM index_table_mappings WHERE key = ?`
	ListIndexMappingsQuery  = `SELECT id, key, table_name FROM index_table_mappings`

	InsertLabelQuery             = `INSERT INTO labels (id, collection_id, document_id, label_value) VALUES (?, ?, ?, ?)`
	DeleteLabelsForDocumentQuery = `DELETE FROM labels WHERE document_id = ?`

	InsertTagQuery             = `INSERT INTO tags (id, collection_id, document_id, tag_key, tag_value) VALUES (?, ?, ?, ?, ?)`
	DeleteTagsForDocumentQuery = `DELETE FROM tags WHERE document_id = ?`

	InsertFieldConstraintQuery = `INSERT INTO field_constraints
		(id, collection_id, field_path, data_type, required, nullable, regex_pattern, min_value, max_value, min_length, max_length, allowed_values, array_element_type)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	ListFieldConstraintsQuery = `SELECT id, collection_id, field_path, data_type, required, nullable, regex_pattern, min_value, max_value, min_length, max_length, allowed_values, array_element_type
		FROM field_constraints WHERE collection_id = ?`
	DeleteFieldConstraintQuery = `DELETE FROM field_constraints WHERE id = ?`

	InsertIndexedFieldQuery = `INSERT INTO indexed_fields (id, collection_id, field_path) VALUES (?, ?, ?)`
	ListIndexedFieldsQuery  = `SELECT id, collection_id, field_path FROM indexed_fields WHERE collection_id = ?`
	DeleteIndexedFieldQuery = `DELETE FROM indexed_fields WHERE id = ?`

	InsertObjectLockQuery        = `INSERT INTO object_locks (id, collection_id, document_name, hostname, created_utc) VALUES (?, ?, ?, ?, ?)`
	GetObjectLockByNameQuery     = `SELECT id, collection_id, document_name, hostname, created_utc FROM object_locks WHERE collection_id = ? AND document_name = ?`
	ReleaseObjectLockQuery       = `DELETE FROM object_locks WHERE id = ?`
	ReleaseObjectLockByNameQuery = `DELETE FROM object_locks WHERE collection_id = ? AND document_name = ?`
	DeleteExpiredLocksQuery      = `DELETE FROM object_locks WHERE created_utc < ?`
)

// InsertValueQuery returns the parameterized insert for a dynamic index
// table; the table name cannot be a placeholder, so it is interpolated
// (safe: tableName is always engine-generated via IndexTableName, never
// user input).
func InsertValueQuery(tableName string) string {
	return `INSERT INTO ` + tableName + ` (id, document_id, schema_id, schema_element_id, position, value, created_utc) VALUES (?, ?, ?, ?, ?, ?, ?)`
}

// DeleteValuesByDocumentQuery returns the delete statement scoping a
// dynamic index table to one document.
func DeleteValuesByDocumentQuery(tableName string) string {
	return `DELETE FROM ` + tableName + ` WHERE document_id = ?`
}

// DeleteValuesByCollectionQuery deletes every row in tableName whose
// document_id belongs to collectionID.
func DeleteValuesByCollectionQuery(tableName string) string {
	return `DELETE FROM ` + tableName + ` WHERE document_id IN (SELECT id FROM documents WHERE collection_id = ?)`
}

// PopulatedQuery checks whether tableName has any row for a document of
// collectionID.
func PopulatedQuery(tableName string) string {
	return `SELECT EXISTS(SELECT 1 FROM ` + tableName + ` v JOIN documents d ON d.id = v.document_id WHERE d.collection_id = ? LIMIT 1)`
}

// MatchQuery wraps a WHERE fragment for one Condition (as rendered by
// ConditionSQL) in the SELECT of tableName's matching document ids; the
// caller supplies the bind arguments ConditionSQL returned with the
// fragment, in the order it returned them.
func MatchQuery(tableName, whereFragment string) string {
	return `SELECT DISTINCT document_id FROM ` + tableName + ` WHERE ` + whereFragment
}
