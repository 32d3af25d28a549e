package main

import (
	"context"
	"fmt"

	"github.com/lattice-db/lattice/internal/config"
	"github.com/lattice-db/lattice/internal/engine"
	"github.com/lattice-db/lattice/internal/store"
	"github.com/lattice-db/lattice/internal/store/doltstore"
	"github.com/lattice-db/lattice/internal/store/mysqlstore"
	"github.com/lattice-db/lattice/internal/store/retry"
	"github.com/lattice-db/lattice/internal/store/sqlitestore"
)

// openEngine reads configuration, opens the configured Repository Port
// backend, wraps it in the retry policy (C15), and returns a ready
// *engine.Engine. Callers must Close it when done.
func openEngine(ctx context.Context) (*engine.Engine, error) {
	loader, err := config.NewLoader(flagConfigPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	cfg := loader.Snapshot()

	if flagBackend != "" {
		cfg.Backend = config.Backend(flagBackend)
	}
	if flagDSN != "" {
		cfg.DSN = flagDSN
	}

	port, err := openBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}
	wrapped := retry.Wrap(port, retry.DefaultPolicy)
	return engine.New(wrapped, cfg), nil
}

func openBackend(ctx context.Context, cfg config.Config) (store.Port, error) {
	switch cfg.Backend {
	case config.BackendSQLite, "":
		return sqlitestore.Open(ctx, cfg.DSN)
	case config.BackendMySQL:
		return mysqlstore.Open(ctx, cfg.DSN)
	case config.BackendDolt:
		return doltstore.Open(ctx, cfg.DSN)
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}
