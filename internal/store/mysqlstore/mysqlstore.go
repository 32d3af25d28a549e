// Package mysqlstore implements the Repository Port against MySQL via
// go-sql-driver/mysql. MySQL tolerates concurrent writers natively, so
// this backend uses database/sql's ordinary connection pool rather than
// sqlitestore's single-connection constraint.
//
// MySQL rejects a bare TEXT column in a PRIMARY KEY or UNIQUE position
// and has no "CREATE INDEX IF NOT EXISTS" syntax, so this backend asks
// sqlstore for its DDL rendered against sqlstore.MySQLDialect (bounded
// VARCHAR keys, prefix-length value index) and tolerates the duplicate
// index/key errors that come from re-running that DDL, or racing
// another caller through EnsureIndexTable, on an already-initialized
// database. Store embeds *sqlstore.Engine for everything downstream of
// connection setup and these dialect-specific error classifiers.
package mysqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/lattice-db/lattice/internal/store"
	"github.com/lattice-db/lattice/internal/store/sqlstore"
)

// Store is the MySQL-backed Port implementation.
type Store struct {
	*sqlstore.Engine
	db *sql.DB
}

// Open connects to a MySQL server using dsn (a go-sql-driver/mysql data
// source name, e.g. "user:pass@tcp(host:3306)/lattice") and ensures the
// metadata schema exists.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("mysqlstore: opening connection: %w", err)
	}
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetMaxOpenConns(16)
	db.SetMaxIdleConns(4)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("mysqlstore: pinging server: %w", err)
	}

	for _, stmt := range splitStatements(sqlstore.MetadataSchema(sqlstore.MySQLDialect)) {
		if _, err := db.ExecContext(ctx, stmt); err != nil && !isDuplicateIndex(err) {
			db.Close()
			return nil, fmt.Errorf("mysqlstore: initializing schema: %w", err)
		}
	}

	return &Store{
		Engine: &sqlstore.Engine{
			DB:                db,
			Dialect:           sqlstore.MySQLDialect,
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

// splitStatements breaks sqlstore.MetadataSchema's multi-statement DDL
// text into individual statements: go-sql-driver/mysql, unlike
// ncruces/go-sqlite3, does not execute multiple ";"-separated
// statements in a single ExecContext call.
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

// isUniqueViolation matches MySQL error 1062 (ER_DUP_ENTRY) by text,
// the way go-sql-driver/mysql's *mysql.MySQLError renders it.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "Error 1062")
}

// isMissingTable matches MySQL error 1146 (ER_NO_SUCH_TABLE).
func isMissingTable(err error) bool {
	return err != nil && strings.Contains(err.Error(), "Error 1146")
}

// isDuplicateIndex matches MySQL error 1061 (ER_DUP_KEYNAME), returned
// when CREATE INDEX names an index that already exists. MySQL has no
// "IF NOT EXISTS" guard for CREATE INDEX, so Open tolerates this on
// re-initialization and EnsureIndexTable tolerates it when it loses a
// race against a concurrent caller creating the same index table.
func isDuplicateIndex(err error) bool {
	return err != nil && strings.Contains(err.Error(), "Error 1061")
}
