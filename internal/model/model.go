// Package model holds the Lattice data model (spec.md §3): Collection,
// Document, Schema, SchemaElement, IndexTableMapping, DocumentValue,
// Label, Tag, FieldConstraint, IndexedField and ObjectLock.
//
// Every type here carries both a `db` tag (consumed by the Repository
// Port's parameterized SQL, see internal/store) and a `json` tag (the
// wire representation returned by engine operations).
package model

import "time"

// EnforcementMode governs how a collection's field constraints are
// applied to an incoming document (spec.md §4.3).
type EnforcementMode string

const (
	EnforcementNone     EnforcementMode = "None"
	EnforcementStrict   EnforcementMode = "Strict"
	EnforcementFlexible EnforcementMode = "Flexible"
	EnforcementPartial  EnforcementMode = "Partial"
)

// IndexingMode governs which fields of an ingested document are striped
// into per-key index tables (spec.md §4.5).
type IndexingMode string

const (
	IndexingAll       IndexingMode = "All"
	IndexingSelective IndexingMode = "Selective"
	IndexingNone      IndexingMode = "None"
)

// DataType is the inferred or declared JSON type of a field.
type DataType string

const (
	TypeString  DataType = "string"
	TypeNumber  DataType = "number"
	TypeInteger DataType = "integer"
	TypeBoolean DataType = "boolean"
	TypeNull    DataType = "null"
	TypeArray   DataType = "array"
	TypeObject  DataType = "object"
)

// Collection is the top-level logical container for documents sharing a
// directory, an enforcement policy, and an indexing policy.
type Collection struct {
	ID                     string            `db:"id"                       json:"id"`
	Name                   string            `db:"name"                     json:"name"`
	Description            *string           `db:"description"              json:"description,omitempty"`
	DocumentsDirectory     string            `db:"documents_directory"      json:"documents_directory"`
	SchemaEnforcementMode  EnforcementMode   `db:"schema_enforcement_mode"  json:"schema_enforcement_mode"`
	IndexingMode           IndexingMode      `db:"indexing_mode"            json:"indexing_mode"`
	Labels                 []string          `db:"-"                        json:"labels,omitempty"`
	Tags                   map[string]string `db:"-"                        json:"tags,omitempty"`
	CreatedUTC             time.Time         `db:"created_utc"              json:"created_utc"`
	LastUpdateUTC          time.Time         `db:"last_update_utc"          json:"last_update_utc"`
}

// Document is one JSON value persisted as a file plus this metadata row.
// The raw JSON lives at {CollectionDocumentsDirectory}/{ID}.json.
type Document struct {
	ID            string            `db:"id"             json:"id"`
	CollectionID  string            `db:"collection_id"  json:"collection_id"`
	SchemaID      string            `db:"schema_id"       json:"schema_id"`
	Name          *string           `db:"name"            json:"name,omitempty"`
	ContentLength int64             `db:"content_length"  json:"content_length"`
	SHA256Hash    string            `db:"sha256_hash"     json:"sha256_hash"`
	Labels        []string          `db:"-"               json:"labels,omitempty"`
	Tags          map[string]string `db:"-"               json:"tags,omitempty"`
	CreatedUTC    time.Time         `db:"created_utc"     json:"created_utc"`
	LastUpdateUTC time.Time         `db:"last_update_utc" json:"last_update_utc"`
}

// Schema is an ordered, deduplicated list of (key, type, nullable)
// triples shared by every document whose flattened shape hashes the same.
type Schema struct {
	ID         string    `db:"id"          json:"id"`
	Name       *string   `db:"name"        json:"name,omitempty"`
	Hash       string    `db:"hash"        json:"hash"`
	CreatedUTC time.Time `db:"created_utc" json:"created_utc"`
}

// SchemaElement is one field of a Schema.
type SchemaElement struct {
	ID       string   `db:"id"        json:"id"`
	SchemaID string   `db:"schema_id" json:"schema_id"`
	Position int      `db:"position"  json:"position"`
	Key      string   `db:"key"       json:"key"`
	DataType DataType `db:"data_type" json:"data_type"`
	Nullable bool     `db:"nullable"  json:"nullable"`
}

// IndexTableMapping names the physical table backing a field key's index.
type IndexTableMapping struct {
	ID        string `db:"id"         json:"id"`
	Key       string `db:"key"        json:"key"`
	TableName string `db:"table_name" json:"table_name"`
}

// DocumentValue is one row of a per-key index table.
type DocumentValue struct {
	ID              string    `db:"id"                json:"id"`
	DocumentID      string    `db:"document_id"       json:"document_id"`
	SchemaID        string    `db:"schema_id"         json:"schema_id"`
	SchemaElementID *string   `db:"schema_element_id" json:"schema_element_id,omitempty"`
	Position        *int      `db:"position"          json:"position,omitempty"`
	Value           *string   `db:"value"             json:"value,omitempty"`
	CreatedUTC      time.Time `db:"created_utc"       json:"created_utc"`
}

// Label is a collection- or document-level tag-free string annotation.
// At least one of CollectionID/DocumentID is set; a document-level label
// carries both.
type Label struct {
	ID           string  `db:"id"            json:"id"`
	CollectionID *string `db:"collection_id" json:"collection_id,omitempty"`
	DocumentID   *string `db:"document_id"   json:"document_id,omitempty"`
	Value        string  `db:"label_value"   json:"value"`
}

// Tag is a collection- or document-level key/value annotation.
type Tag struct {
	ID           string  `db:"id"            json:"id"`
	CollectionID *string `db:"collection_id" json:"collection_id,omitempty"`
	DocumentID   *string `db:"document_id"   json:"document_id,omitempty"`
	Key          string  `db:"tag_key"       json:"key"`
	Value        string  `db:"tag_value"     json:"value"`
}

// FieldConstraint is a per-(collection, field path) enforcement rule.
type FieldConstraint struct {
	ID                string    `db:"id"                 json:"id"`
	CollectionID      string    `db:"collection_id"      json:"collection_id"`
	FieldPath         string    `db:"field_path"         json:"field_path"`
	DataType          *DataType `db:"data_type"           json:"data_type,omitempty"`
	Required          bool      `db:"required"           json:"required"`
	Nullable          bool      `db:"nullable"           json:"nullable"`
	RegexPattern      *string   `db:"regex_pattern"      json:"regex_pattern,omitempty"`
	MinValue          *float64  `db:"min_value"          json:"min_value,omitempty"`
	MaxValue          *float64  `db:"max_value"          json:"max_value,omitempty"`
	MinLength         *int      `db:"min_length"         json:"min_length,omitempty"`
	MaxLength         *int      `db:"max_length"         json:"max_length,omitempty"`
	AllowedValues     []string  `db:"-"                  json:"allowed_values,omitempty"`
	ArrayElementType  *DataType `db:"array_element_type" json:"array_element_type,omitempty"`
}

// IndexedField names a field path that Selective indexing mode should
// retain (spec.md §4.5 step 8).
type IndexedField struct {
	ID           string `db:"id"            json:"id"`
	CollectionID string `db:"collection_id" json:"collection_id"`
	FieldPath    string `db:"field_path"    json:"field_path"`
}

// ObjectLock enforces single-writer semantics per (collection, document
// name) during ingest (spec.md §4.9).
type ObjectLock struct {
	ID           string    `db:"id"            json:"id"`
	CollectionID string    `db:"collection_id" json:"collection_id"`
	DocumentName string    `db:"document_name"  json:"document_name"`
	Hostname     string    `db:"hostname"       json:"hostname"`
	CreatedUTC   time.Time `db:"created_utc"    json:"created_utc"`
}
