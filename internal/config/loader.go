package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/BurntSushi/toml"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Loader reads lattice.toml (if present), applies LATTICE_-prefixed
// environment overrides, and watches the file for changes, publishing
// each reload as the next Snapshot. A reload reaches only callers that
// call Snapshot again: a Config copied out earlier (engine.New keeps
// the one it is given) does not change.
type Loader struct {
	v    *viper.Viper
	snap atomic.Pointer[Config]
	mu   sync.Mutex // guards watch-callback writes to snap; never held across a backend call
}

// NewLoader builds a Loader seeded with Defaults, optionally reading
// configPath (a lattice.toml). A missing file is not an error: the
// process runs on defaults plus whatever environment variables are set.
func NewLoader(configPath string) (*Loader, error) {
	v := viper.New()
	v.SetConfigType("toml")
	defaults := Defaults()
	v.SetDefault("default_schema_enforcement_mode", defaults.DefaultSchemaEnforcementMode)
	v.SetDefault("default_indexing_mode", defaults.DefaultIndexingMode)
	v.SetDefault("max_results_cap", defaults.MaxResultsCap)
	v.SetDefault("default_page_size", defaults.DefaultPageSize)
	v.SetDefault("lock_expiration_seconds", defaults.LockExpirationSeconds)
	v.SetDefault("backend", string(defaults.Backend))
	v.SetDefault("dsn", defaults.DSN)
	v.SetDefault("documents_root", defaults.DocumentsRoot)

	v.SetEnvPrefix("LATTICE")
	v.AutomaticEnv()

	l := &Loader{v: v}

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("config: reading %s: %w", configPath, err)
			}
		}
	}

	cfg, err := l.decode()
	if err != nil {
		return nil, err
	}
	l.snap.Store(cfg)

	if configPath != "" {
		v.OnConfigChange(func(fsnotify.Event) {
			l.mu.Lock()
			defer l.mu.Unlock()
			if next, err := l.decode(); err == nil {
				l.snap.Store(next)
			}
		})
		v.WatchConfig()
	}

	return l, nil
}

func (l *Loader) decode() (*Config, error) {
	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decoding: %w", err)
	}
	cfg.Backend = Backend(strings.ToLower(string(cfg.Backend)))
	return &cfg, nil
}

// Snapshot returns a copy of the current configuration. Values reloaded
// from the watched file appear in the next Snapshot call; a copy taken
// earlier keeps its old values.
func (l *Loader) Snapshot() Config {
	return *l.snap.Load()
}

// DecodeTOMLBytes is a narrow escape hatch for callers (such as this
// package's tests) that already have TOML bytes in hand and want Config,
// seeded with Defaults, without going through viper's file-watch machinery.
func DecodeTOMLBytes(data []byte) (Config, error) {
	cfg := Defaults()
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return Config{}, fmt.Errorf("config: decoding toml: %w", err)
	}
	return cfg, nil
}
