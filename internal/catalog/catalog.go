// Package catalog implements the Index Catalog (C6, spec.md §4.4): the
// key -> table_name mapping and the dynamic per-key index tables it
// names, sitting directly on top of the Repository Port's Indexes and
// Values sub-ports.
//
// This generalizes the teacher's internal/storage/convex/indexes.go
// IndexGenerator, which only ever emits entries for a fixed set of
// known fields (status, priority, type, parent, assignee, label); here
// any key observed in any document can earn its own table, so table
// identity has to be computed (IndexTableName) and persisted (the
// mapping row) rather than hard-coded as Go constants.
package catalog

import (
	"context"
	"fmt"

	"github.com/lattice-db/lattice/internal/ids"
	"github.com/lattice-db/lattice/internal/model"
	"github.com/lattice-db/lattice/internal/store"
	"github.com/lattice-db/lattice/internal/store/sqlstore"
)

// Catalog resolves field keys to their physical index tables, creating
// both the mapping row and the table itself on first sight of a key.
type Catalog struct {
	port store.Port
}

func New(port store.Port) *Catalog {
	return &Catalog{port: port}
}

// Resolve returns the table_name backing key, creating the mapping and
// the physical table if this is the first time key has been seen.
// Concurrent callers resolving the same new key race on
// CreateIndexMapping; the loser's store.ErrAlreadyExists is treated as
// success and the winner's row is re-read, matching spec.md §5's
// "creator code paths treat a duplicate-key error on insert as success".
func (c *Catalog) Resolve(ctx context.Context, key string) (string, error) {
	if m, err := c.port.GetIndexMapping(ctx, key); err == nil {
		return m.TableName, nil
	} else if err != store.ErrNotFound {
		return "", fmt.Errorf("catalog: looking up mapping for %q: %w", key, err)
	}

	tableName := sqlstore.IndexTableName(key)
	if err := c.port.EnsureIndexTable(ctx, tableName); err != nil {
		return "", fmt.Errorf("catalog: creating index table for %q: %w", key, err)
	}

	mapping := &model.IndexTableMapping{ID: ids.New(ids.IndexMapping), Key: key, TableName: tableName}
	err := c.port.CreateIndexMapping(ctx, mapping)
	if err == nil {
		return tableName, nil
	}
	if err != store.ErrAlreadyExists {
		return "", fmt.Errorf("catalog: creating mapping for %q: %w", key, err)
	}

	existing, getErr := c.port.GetIndexMapping(ctx, key)
	if getErr != nil {
		return "", fmt.Errorf("catalog: re-reading mapping for %q after race: %w", key, getErr)
	}
	return existing.TableName, nil
}

// InsertMultiTable resolves every key in byKey to its table and batches
// the writes through a single InsertValuesMultiTable call, so either
// every row lands or none do (spec.md §4.4's atomicity contract).
func (c *Catalog) InsertMultiTable(ctx context.Context, byKey map[string][]*model.DocumentValue) error {
	if len(byKey) == 0 {
		return nil
	}
	byTable := make(map[string][]*model.DocumentValue, len(byKey))
	for key, values := range byKey {
		tableName, err := c.Resolve(ctx, key)
		if err != nil {
			return err
		}
		byTable[tableName] = append(byTable[tableName], values...)
	}
	return c.port.InsertValuesMultiTable(ctx, byTable)
}

// DeleteDocument removes documentID's rows from every index table named
// by keys.
func (c *Catalog) DeleteDocument(ctx context.Context, documentID string, keys []string) error {
	for _, key := range keys {
		m, err := c.port.GetIndexMapping(ctx, key)
		if err == store.ErrNotFound {
			continue
		}
		if err != nil {
			return fmt.Errorf("catalog: looking up mapping for %q: %w", key, err)
		}
		if err := c.port.DeleteValuesByDocument(ctx, m.TableName, documentID); err != nil {
			return fmt.Errorf("catalog: deleting values for document in %q: %w", m.TableName, err)
		}
	}
	return nil
}

// PopulatedTablesForCollection identifies which of the catalog's known
// tables currently hold a row belonging to collectionID (spec.md §4.4's
// "identify the subset of index tables actually populated", used by the
// Index Rebuilder's Dropping phase).
func (c *Catalog) PopulatedTablesForCollection(ctx context.Context, collectionID string) (map[string]string, error) {
	mappings, err := c.port.ListIndexMappings(ctx)
	if err != nil {
		return nil, fmt.Errorf("catalog: listing mappings: %w", err)
	}
	tableToKey := make(map[string]string, len(mappings))
	tableNames := make([]string, 0, len(mappings))
	for _, m := range mappings {
		tableToKey[m.TableName] = m.Key
		tableNames = append(tableNames, m.TableName)
	}

	populated, err := c.port.PopulatedTables(ctx, collectionID, tableNames)
	if err != nil {
		return nil, fmt.Errorf("catalog: checking table population: %w", err)
	}

	out := make(map[string]string, len(populated))
	for _, t := range populated {
		out[t] = tableToKey[t]
	}
	return out, nil
}

// DropCollectionFromTable removes every row belonging to collectionID
// from tableName (C10's Dropping phase).
func (c *Catalog) DropCollectionFromTable(ctx context.Context, tableName, collectionID string) error {
	if err := c.port.DeleteValuesByCollection(ctx, tableName, collectionID); err != nil {
		return fmt.Errorf("catalog: dropping collection rows from %q: %w", tableName, err)
	}
	return nil
}
