// Package config provides the engine's Config Loader (C12, spec.md §4.10):
// defaults and overrides for pagination caps, enforcement/indexing
// policy, backend selection, and lock expiration.
package config

import "time"

// Backend selects which Repository Port implementation the process
// wires up at start.
type Backend string

const (
	BackendSQLite Backend = "sqlite"
	BackendMySQL  Backend = "mysql"
	BackendDolt   Backend = "dolt"
)

// Config is the fully resolved engine configuration, loaded from
// lattice.toml and overridable by LATTICE_-prefixed environment
// variables (see Loader).
type Config struct {
	DefaultSchemaEnforcementMode string  `mapstructure:"default_schema_enforcement_mode" toml:"default_schema_enforcement_mode"`
	DefaultIndexingMode          string  `mapstructure:"default_indexing_mode"           toml:"default_indexing_mode"`
	MaxResultsCap                int     `mapstructure:"max_results_cap"                 toml:"max_results_cap"`
	DefaultPageSize              int     `mapstructure:"default_page_size"               toml:"default_page_size"`
	LockExpirationSeconds        int     `mapstructure:"lock_expiration_seconds"          toml:"lock_expiration_seconds"`
	Backend                      Backend `mapstructure:"backend"                          toml:"backend"`
	DSN                          string  `mapstructure:"dsn"                              toml:"dsn"`
	DocumentsRoot                string  `mapstructure:"documents_root"                   toml:"documents_root"`
}

// LockExpiration is a convenience accessor matching the Object Lock
// Registry's time.Duration-shaped inputs.
func (c Config) LockExpiration() time.Duration {
	return time.Duration(c.LockExpirationSeconds) * time.Second
}

// Defaults returns the configuration used when no lattice.toml is
// present and no environment override applies.
func Defaults() Config {
	return Config{
		DefaultSchemaEnforcementMode: "None",
		DefaultIndexingMode:          "All",
		MaxResultsCap:                1000,
		DefaultPageSize:              50,
		LockExpirationSeconds:        300,
		Backend:                      BackendSQLite,
		DSN:                         "lattice.db",
		DocumentsRoot:               "./documents",
	}
}
