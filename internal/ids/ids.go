// Package ids generates the engine's prefix-typed identifiers
// (spec.md §6): "{prefix}_{base36-or-hex}", where the prefix names the
// entity kind and is stable across the life of the format.
package ids

import (
	"strings"

	"github.com/google/uuid"
)

// Prefix is one of the stable entity-kind tags an ID can carry.
type Prefix string

const (
	Collection      Prefix = "col"
	DocumentPrefix  Prefix = "doc"
	SchemaPrefix    Prefix = "sch"
	SchemaElement   Prefix = "sel"
	DocumentValue   Prefix = "val"
	LabelPrefix     Prefix = "lbl"
	TagPrefix       Prefix = "tag"
	IndexMapping    Prefix = "itm"
	FieldConstraint Prefix = "fco"
	IndexedField    Prefix = "ixf"
	ObjectLock      Prefix = "lock"
)

// New returns a fresh identifier of the form "{prefix}_{hex}". The
// suffix is a random UUIDv4 rendered without dashes, giving 122 bits of
// entropy — comfortably collision-free for the rates a single-process
// engine generates IDs at.
func New(p Prefix) string {
	return string(p) + "_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// HasPrefix reports whether id carries the given prefix, the way a
// caller might sanity-check an ID before using it to address a
// sub-port (e.g. refusing a "doc_..." value where a "col_..." is
// expected).
func HasPrefix(id string, p Prefix) bool {
	return strings.HasPrefix(id, string(p)+"_")
}
