// Package sqlite adapts the SQL history store to a local SQLite file.
package sqlite

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tjfontaine/mindspark/internal/core/ports"
	"github.com/tjfontaine/mindspark/internal/storage/sqldb"
)

// Provider is a HistoryStore backed by a SQLite file.
type Provider struct {
	*sqldb.Store
	path string
}

var _ ports.HistoryStore = (*Provider)(nil)

// NewProvider opens (or creates) the database at path. The parent directory
// is created when missing. DSNs with a "file:" prefix or ":memory:" are
// passed through untouched.
func NewProvider(path string) (*Provider, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	if !isSpecialDSN(path) {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create database directory: %w", err)
			}
		}
	}

	store, err := sqldb.NewSQLite(path)
	if err != nil {
		return nil, err
	}
	return &Provider{Store: store, path: path}, nil
}

// Path returns the database location.
func (p *Provider) Path() string {
	return p.path
}

func isSpecialDSN(path string) bool {
	return path == ":memory:" || strings.HasPrefix(path, "file:")
}
