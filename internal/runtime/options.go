package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"net"

	"github.com/tjfontaine/mindspark/internal/adapters/config/file"
	"github.com/tjfontaine/mindspark/internal/adapters/storage/firestore"
	"github.com/tjfontaine/mindspark/internal/adapters/storage/sqlite"
	"github.com/tjfontaine/mindspark/internal/core/ports"
	"github.com/tjfontaine/mindspark/internal/pkg/config"
	"github.com/tjfontaine/mindspark/internal/storage/memory"
	"github.com/tjfontaine/mindspark/internal/storage/sqldb"
)

// Option is a functional option for configuring a Gateway.
type Option func(*Gateway) error

// WithFileConfig uses file-based configuration with hot-reload (default).
// The path should point to a config.yaml file that will be watched for changes.
func WithFileConfig(path string) Option {
	return func(g *Gateway) error {
		provider, err := file.NewProvider(path, file.WithLogger(g.logger))
		if err != nil {
			return fmt.Errorf("create file config provider: %w", err)
		}
		g.config = provider
		return nil
	}
}

// WithConfigProvider sets a custom config provider.
func WithConfigProvider(provider ports.ConfigProvider) Option {
	return func(g *Gateway) error {
		g.config = provider
		return nil
	}
}

// WithIdentityVerifier replaces the config-backed bearer token verifier.
func WithIdentityVerifier(verifier ports.IdentityVerifier) Option {
	return func(g *Gateway) error {
		g.verifier = verifier
		return nil
	}
}

// WithSQLite uses SQLite storage regardless of the storage section.
func WithSQLite(path string) Option {
	return func(g *Gateway) error {
		store, err := sqlite.NewProvider(path)
		if err != nil {
			return fmt.Errorf("create sqlite storage: %w", err)
		}
		g.store = store
		return nil
	}
}

// WithDatabase uses a SQL database (sqlite, postgres or mysql).
func WithDatabase(driver, dsn string) Option {
	return func(g *Gateway) error {
		store, err := sqldb.New(sqldb.Config{Driver: driver, DSN: dsn})
		if err != nil {
			return fmt.Errorf("create %s storage: %w", driver, err)
		}
		g.store = store
		return nil
	}
}

// WithMemoryStorage keeps history in process memory.
func WithMemoryStorage() Option {
	return func(g *Gateway) error {
		g.store = memory.New()
		return nil
	}
}

// WithHistoryStore sets a custom history store.
func WithHistoryStore(store ports.HistoryStore) Option {
	return func(g *Gateway) error {
		g.store = store
		return nil
	}
}

// WithListener serves on ln instead of listening on the configured port.
func WithListener(ln net.Listener) Option {
	return func(g *Gateway) error {
		g.listener = ln
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Gateway) error {
		g.logger = logger
		return nil
	}
}

// OpenStore builds the history store described by cfg.
func OpenStore(ctx context.Context, cfg config.StorageConfig) (ports.HistoryStore, error) {
	switch cfg.Type {
	case "", "sqlite":
		return sqlite.NewProvider(cfg.SQLite.Path)
	case "memory":
		return memory.New(), nil
	case "postgres", "mysql", "database":
		driver := cfg.Database.Driver
		if driver == "" {
			driver = cfg.Type
		}
		if cfg.Database.DSN == "" {
			return nil, fmt.Errorf("storage.database.dsn is required for %s", driver)
		}
		return sqldb.New(sqldb.Config{Driver: driver, DSN: cfg.Database.DSN})
	case "firestore":
		if cfg.Firestore.ProjectID == "" {
			return nil, fmt.Errorf("storage.firestore.project_id is required")
		}
		return firestore.New(ctx, cfg.Firestore.ProjectID, cfg.Firestore.Collection)
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Type)
	}
}
