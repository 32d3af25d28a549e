// Package sqlitestore implements the Repository Port (internal/store)
// against SQLite via ncruces/go-sqlite3, the pure-Go/WASM driver the
// teacher uses (internal/storage/convex/sqlite.go). Connection setup —
// WAL journal mode, a 5s busy timeout, foreign keys on, and a capped
// connection pool of one (SQLite allows exactly one writer) — is copied
// from that file's NewSQLitePersistence almost verbatim.
//
// Everything downstream of the connection is generic: Store embeds
// *sqlstore.Engine, which supplies every Port method against the
// dialect-neutral SQL text in internal/store/sqlstore. sqlite's own
// contribution is only the dial string, the error classifiers Engine
// needs (unique-constraint / missing-table detection), and Close.
package sqlitestore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/lattice-db/lattice/internal/store"
	"github.com/lattice-db/lattice/internal/store/sqlstore"
)

// Store is the SQLite-backed Port implementation.
type Store struct {
	*sqlstore.Engine
	db    *sql.DB
	fresh bool
}

// Open creates or attaches to a SQLite database at path, creating its
// parent directory and metadata schema if it does not yet exist.
func Open(ctx context.Context, path string) (*Store, error) {
	fresh := false
	if _, err := os.Stat(path); os.IsNotExist(err) {
		fresh = true
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("sqlitestore: creating database directory: %w", err)
		}
	}

	connStr := fmt.Sprintf(
		"file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(ON)",
		path,
	)
	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: opening database: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite allows exactly one writer
	db.SetMaxIdleConns(1)

	if _, err := db.ExecContext(ctx, sqlstore.MetadataSchema(sqlstore.SQLiteDialect)); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlitestore: initializing schema: %w", err)
	}

	return &Store{
		Engine: &sqlstore.Engine{
			DB:                db,
			Dialect:           sqlstore.SQLiteDialect,
			BeginTx:           func(ctx context.Context) (*sql.Tx, error) { return db.BeginTx(ctx, nil) },
			IsUniqueViolation: isUniqueViolation,
			IsMissingTable:    isMissingTable,
		},
		db:    db,
		fresh: fresh,
	}, nil
}

// IsFresh reports whether Open created a new database file.
func (s *Store) IsFresh() bool { return s.fresh }

// Close closes the underlying connection pool.
func (s *Store) Close() error { return s.db.Close() }

var _ store.Port = (*Store)(nil)

// isUniqueViolation matches go-sqlite3's error text for a UNIQUE or
// PRIMARY KEY constraint failure. Matching on message text (rather
// than a typed *sqlite3.Error with an ExtendedCode) avoids importing
// the driver's internal error package, which the project imports only
// for its registration side effects.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// isMissingTable matches SQLite's "no such table" error, the case a
// filter targets a key whose index table was dropped mid-rebuild
// (C10's Dropping phase) or never created.
func isMissingTable(err error) bool {
	return err != nil && strings.Contains(err.Error(), "no such table")
}
