// Package sqldb implements the history store on any database/sql backend
// with a known dialect.
package sqldb

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/tjfontaine/mindspark/internal/core/domain"
	"github.com/tjfontaine/mindspark/internal/storage"
	"github.com/tjfontaine/mindspark/internal/storage/dialect"
)

const historyTable = "history"

// Store is a SQL implementation of HistoryStore that supports multiple
// database dialects.
type Store struct {
	db      *sqlx.DB
	dialect dialect.Dialect
}

var _ storage.HistoryStore = (*Store)(nil)

// Config holds database connection configuration
type Config struct {
	Driver string // Driver name: sqlite, postgres, mysql
	DSN    string // Data source name / connection string
}

// New opens the database, applies dialect pragmas and creates the schema.
func New(cfg Config) (*Store, error) {
	d, err := dialect.FromDriverName(cfg.Driver)
	if err != nil {
		return nil, fmt.Errorf("unsupported database driver: %w", err)
	}

	dsn, err := prepareDSN(d, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("invalid database DSN: %w", err)
	}

	db, err := sqlx.Open(d.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	for _, stmt := range d.PragmaStatements() {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute pragma: %w", err)
		}
	}

	store := &Store{db: db, dialect: d}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// prepareDSN adjusts dsn for the dialect. MySQL connections must scan
// DATETIME columns into time.Time in UTC.
func prepareDSN(d dialect.Dialect, dsn string) (string, error) {
	if d.DriverName() != "mysql" {
		return dsn, nil
	}
	mc, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", err
	}
	mc.ParseTime = true
	mc.Loc = time.UTC
	return mc.FormatDSN(), nil
}

// NewSQLite creates a SQLite-backed store.
func NewSQLite(dbPath string) (*Store, error) {
	return New(Config{Driver: "sqlite", DSN: dbPath})
}

// Dialect returns the dialect being used
func (s *Store) Dialect() dialect.Dialect {
	return s.dialect
}

func (s *Store) initSchema() error {
	d := s.dialect
	columns := []string{
		d.SequenceColumn(),
		fmt.Sprintf("id %s NOT NULL UNIQUE", d.KeyType()),
		fmt.Sprintf("uid %s NOT NULL", d.KeyType()),
		fmt.Sprintf("topic %s NOT NULL", d.TextType()),
		fmt.Sprintf("explanation %s NOT NULL", d.TextType()),
		fmt.Sprintf("image_url %s NOT NULL", d.TextType()),
		fmt.Sprintf("created_at %s NOT NULL", d.TimestampType()),
	}
	if inline := d.TableIndex("idx_history_uid_created", "uid", "created_at"); inline != "" {
		columns = append(columns, inline)
	}

	statements := []string{
		fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n\t%s\n)", historyTable, strings.Join(columns, ",\n\t")),
	}
	if idx := d.CreateIndex("idx_history_uid_created", historyTable, "uid", "created_at"); idx != "" {
		statements = append(statements, idx)
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}
	return nil
}

type historyRow struct {
	ID          string    `db:"id"`
	Topic       string    `db:"topic"`
	Explanation string    `db:"explanation"`
	ImageURL    string    `db:"image_url"`
	CreatedAt   time.Time `db:"created_at"`
}

// Append inserts one history row and returns its id.
func (s *Store) Append(ctx context.Context, res *domain.GenerationResult) (string, error) {
	id := storage.NewRecordID()
	createdAt := res.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	query := s.dialect.Rebind(`INSERT INTO history (id, uid, topic, explanation, image_url, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if _, err := s.db.ExecContext(ctx, query,
		id, res.Identity.UID, res.Topic, res.FullText, res.ArtifactReference, createdAt.UTC(),
	); err != nil {
		return "", fmt.Errorf("failed to insert history: %w", err)
	}
	return id, nil
}

// QueryByIdentity returns up to limit rows owned by uid, newest first.
func (s *Store) QueryByIdentity(ctx context.Context, uid string, limit int) ([]*domain.HistoryEntry, error) {
	query := s.dialect.Rebind(`SELECT id, topic, explanation, image_url, created_at
		FROM history WHERE uid = ?
		ORDER BY created_at DESC, seq DESC
		LIMIT ?`)

	var rows []historyRow
	if err := s.db.SelectContext(ctx, &rows, query, uid, storage.ClampLimit(limit)); err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}

	entries := make([]*domain.HistoryEntry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, &domain.HistoryEntry{
			ID:          r.ID,
			Topic:       r.Topic,
			Explanation: r.Explanation,
			ImageURL:    r.ImageURL,
			CreatedAt:   r.CreatedAt,
		})
	}
	return entries, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}
