// Package dialect hides the differences between the SQL databases the
// history store can run on.
package dialect

import (
	"fmt"
	"strings"
)

// Dialect represents a SQL database dialect.
type Dialect interface {
	// Name returns the dialect name (e.g., "sqlite", "postgres", "mysql")
	Name() string

	// DriverName returns the database/sql driver name to use
	DriverName() string

	// Rebind converts ? placeholders to the dialect's format.
	// For example, PostgreSQL uses $1, $2, etc.
	Rebind(query string) string

	// SequenceColumn returns the column definition of an auto-increment
	// primary key. It orders rows written within the same timestamp.
	SequenceColumn() string

	// KeyType returns the SQL type for short indexed strings such as ids.
	KeyType() string

	// TimestampType returns the SQL type for timestamps
	TimestampType() string

	// TextType returns the SQL type for large text fields
	TextType() string

	// CreateIndex returns a standalone CREATE INDEX statement, or "" when
	// the dialect declares indexes inline via TableIndex.
	CreateIndex(name, table string, columns ...string) string

	// TableIndex returns an inline index clause for CREATE TABLE, or "".
	TableIndex(name string, columns ...string) string

	// PragmaStatements returns dialect-specific initialization statements (e.g., PRAGMA for SQLite)
	PragmaStatements() []string
}

// DialectType represents supported database types
type DialectType string

const (
	SQLite   DialectType = "sqlite"
	Postgres DialectType = "postgres"
	MySQL    DialectType = "mysql"
)

// New creates a new Dialect based on the dialect type
func New(dialectType DialectType) (Dialect, error) {
	switch dialectType {
	case SQLite:
		return &sqliteDialect{}, nil
	case Postgres:
		return &postgresDialect{}, nil
	case MySQL:
		return &mysqlDialect{}, nil
	default:
		return nil, fmt.Errorf("unsupported dialect: %s", dialectType)
	}
}

// FromDriverName returns the dialect for a given driver name
func FromDriverName(driverName string) (Dialect, error) {
	switch strings.ToLower(driverName) {
	case "sqlite", "sqlite3":
		return &sqliteDialect{}, nil
	case "postgres", "postgresql", "pgx":
		return &postgresDialect{}, nil
	case "mysql":
		return &mysqlDialect{}, nil
	default:
		return nil, fmt.Errorf("unsupported driver: %s", driverName)
	}
}

func standaloneIndex(name, table string, columns []string) string {
	return fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (%s)", name, table, strings.Join(columns, ", "))
}

// sqliteDialect implements Dialect for SQLite
type sqliteDialect struct{}

func (d *sqliteDialect) Name() string       { return "sqlite" }
func (d *sqliteDialect) DriverName() string { return "sqlite" }

func (d *sqliteDialect) Rebind(query string) string {
	return query // SQLite uses ?
}

func (d *sqliteDialect) SequenceColumn() string {
	return "seq INTEGER PRIMARY KEY AUTOINCREMENT"
}

func (d *sqliteDialect) KeyType() string       { return "TEXT" }
func (d *sqliteDialect) TimestampType() string { return "TIMESTAMP" }
func (d *sqliteDialect) TextType() string      { return "TEXT" }

func (d *sqliteDialect) CreateIndex(name, table string, columns ...string) string {
	return standaloneIndex(name, table, columns)
}

func (d *sqliteDialect) TableIndex(string, ...string) string { return "" }

func (d *sqliteDialect) PragmaStatements() []string {
	return []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
}

// postgresDialect implements Dialect for PostgreSQL
type postgresDialect struct{}

func (d *postgresDialect) Name() string       { return "postgres" }
func (d *postgresDialect) DriverName() string { return "pgx" }

func (d *postgresDialect) Rebind(query string) string {
	// Convert ? placeholders to $1, $2, etc.
	var result strings.Builder
	idx := 1
	for _, ch := range query {
		if ch == '?' {
			fmt.Fprintf(&result, "$%d", idx)
			idx++
		} else {
			result.WriteRune(ch)
		}
	}
	return result.String()
}

func (d *postgresDialect) SequenceColumn() string {
	return "seq BIGSERIAL PRIMARY KEY"
}

func (d *postgresDialect) KeyType() string       { return "TEXT" }
func (d *postgresDialect) TimestampType() string { return "TIMESTAMP WITH TIME ZONE" }
func (d *postgresDialect) TextType() string      { return "TEXT" }

func (d *postgresDialect) CreateIndex(name, table string, columns ...string) string {
	return standaloneIndex(name, table, columns)
}

func (d *postgresDialect) TableIndex(string, ...string) string { return "" }

func (d *postgresDialect) PragmaStatements() []string {
	return nil // PostgreSQL doesn't use pragmas
}

// mysqlDialect implements Dialect for MySQL
type mysqlDialect struct{}

func (d *mysqlDialect) Name() string       { return "mysql" }
func (d *mysqlDialect) DriverName() string { return "mysql" }

func (d *mysqlDialect) Rebind(query string) string {
	return query // MySQL uses ?
}

func (d *mysqlDialect) SequenceColumn() string {
	return "seq BIGINT AUTO_INCREMENT PRIMARY KEY"
}

// InnoDB cannot index unbounded TEXT columns.
func (d *mysqlDialect) KeyType() string       { return "VARCHAR(191)" }
func (d *mysqlDialect) TimestampType() string { return "DATETIME(6)" }
func (d *mysqlDialect) TextType() string      { return "LONGTEXT" }

// MySQL has no CREATE INDEX IF NOT EXISTS.
func (d *mysqlDialect) CreateIndex(string, string, ...string) string { return "" }

func (d *mysqlDialect) TableIndex(name string, columns ...string) string {
	return fmt.Sprintf("INDEX %s (%s)", name, strings.Join(columns, ", "))
}

func (d *mysqlDialect) PragmaStatements() []string {
	return nil // MySQL doesn't use pragmas
}
