// Package doltstore implements the Repository Port against Dolt via
// dolthub/driver. Dolt speaks the MySQL wire protocol and accepts the
// same DDL/DML dialect go-sql-driver/mysql does — including MySQL's
// restrictions on keyed TEXT columns and its lack of "CREATE INDEX IF
// NOT EXISTS" — so this backend renders its DDL against
// sqlstore.DoltDialect (identical column types to MySQLDialect) and
// tolerates the same duplicate index/key errors on re-initialization
// or a lost EnsureIndexTable race, just phrased in Dolt's own error
// text rather than MySQL's numbered codes.
//
// Dolt additionally versions every commit; this backend does not use
// that (Lattice has no notion of branches or commits), but DOLT_COMMIT
// could be layered on top of Write operations in a later iteration
// without touching the Port surface.
package doltstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/dolthub/driver"

	"github.com/lattice-db/lattice/internal/store"
	"github.com/lattice-db/lattice/internal/store/sqlstore"
)

// Store is the Dolt-backed Port implementation.
type Store struct {
	*sqlstore.Engine
	db *sql.DB
}

// Open connects to a Dolt server or embedded database using dsn (a
// dolthub/driver data source name, e.g. "file:///path/to/dolt/db?commitname=lattice&commitemail=lattice@local&database=lattice")
// and ensures the metadata schema exists.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("dolt", dsn)
	if err != nil {
		return nil, fmt.Errorf("doltstore: opening connection: %w", err)
	}
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetMaxOpenConns(16)
	db.SetMaxIdleConns(4)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("doltstore: pinging database: %w", err)
	}

	for _, stmt := range splitStatements(sqlstore.MetadataSchema(sqlstore.DoltDialect)) {
		if _, err := db.ExecContext(ctx, stmt); err != nil && !isDuplicateIndex(err) {
			db.Close()
			return nil, fmt.Errorf("doltstore: initializing schema: %w", err)
		}
	}

	return &Store{
		Engine: &sqlstore.Engine{
			DB:                db,
			Dialect:           sqlstore.DoltDialect,
			BeginTx:           func(ctx context.Context) (*sql.Tx, error) { return db.BeginTx(ctx, nil) },
			IsUniqueViolation: isUniqueViolation,
			IsMissingTable:    isMissingTable,
			IsDuplicateIndex:  isDuplicateIndex,
		},
		db: db,
	}, nil
}

func (s *Store) Close() error { return s.db.Close() }

var _ store.Port = (*Store)(nil)

// splitStatements mirrors mysqlstore's: Dolt's MySQL-wire server also
// expects one statement per query.
func splitStatements(script string) []string {
	raw := strings.Split(script, ";")
	out := make([]string, 0, len(raw))
	for _, stmt := range raw {
		if trimmed := strings.TrimSpace(stmt); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "duplicate")
}

func isMissingTable(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "table not found") || strings.Contains(err.Error(), "doesn't exist"))
}

// isDuplicateIndex matches Dolt's error text for creating an index
// whose name already exists on the table. Dolt has no "IF NOT EXISTS"
// guard for CREATE INDEX, so Open tolerates this on re-initialization
// and EnsureIndexTable tolerates it when it loses a race against a
// concurrent caller creating the same index table.
func isDuplicateIndex(err error) bool {
	return err != nil && strings.Contains(err.Error(), "already exists")
}
