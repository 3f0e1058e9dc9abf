package store

import (
	"fmt"

	"github.com/sambhavthakkar/PulseDrive/core/factory"
	"github.com/sambhavthakkar/PulseDrive/core/ledger"
)

var registry = factory.NewRegistry[ledger.Store]()

// SQLiteConfig configures the SQLite backend.
type SQLiteConfig struct {
	Path string `json:"path"`
}

func init() {
	registry.MustRegister("memory", func(map[string]any) (ledger.Store, error) {
		return NewMemoryStore(), nil
	})
	registry.MustRegister("sqlite", func(conf map[string]any) (ledger.Store, error) {
		var c SQLiteConfig
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		if c.Path == "" {
			c.Path = "reservations.db"
		}
		return NewSQLiteStore(c.Path)
	})
	registry.MustRegister("http", func(conf map[string]any) (ledger.Store, error) {
		var c HTTPConfig
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewHTTPStore(c)
	})
}

// Register adds a store backend identified by name.
func Register(name string, f factory.Factory[ledger.Store]) error {
	return registry.Register(name, f)
}

// New creates the store described by cfg. An empty type selects the
// in-memory store.
func New(cfg factory.ModuleConfig) (ledger.Store, error) {
	if cfg.Type == "" {
		cfg.Type = "memory"
	}
	s, err := registry.Create(cfg)
	if err != nil {
		return nil, fmt.Errorf("reservation store: %w", err)
	}
	return s, nil
}
