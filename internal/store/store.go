package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/duckdb/duckdb-go/v2"
	_ "github.com/lib/pq"
	"k8s.io/klog/v2"
)

// ErrNotFound is returned when a collection, look or hotspot does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicateID is returned when a hotspot list repeats an id.
var ErrDuplicateID = errors.New("duplicate hotspot id")

// Drivers accepted by Open.
const (
	DriverDuckDB   = "duckdb"
	DriverPostgres = "postgres"
)

// Store manages catalog persistence. Statements use $n placeholders and
// plain ANSI types so the same SQL runs on DuckDB and Postgres.
type Store struct {
	DB     *sql.DB
	Driver string
}

// New opens (or creates) a DuckDB database in the given data directory.
func New(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}
	return Open(DriverDuckDB, filepath.Join(dataDir, "overo.duckdb"))
}

// Open connects to a database with the named driver and prepares the schema.
// For DuckDB the dsn is a file path.
func Open(driver, dsn string) (*Store, error) {
	switch driver {
	case DriverDuckDB, DriverPostgres:
	default:
		return nil, fmt.Errorf("unsupported store driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", driver, err)
	}

	s := &Store{DB: db, Driver: driver}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating schema: %w", err)
	}
	klog.V(1).Infof("store opened (%s)", driver)
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.DB.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS collections (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS looks (
			collection_id TEXT NOT NULL,
			id TEXT NOT NULL,
			title TEXT NOT NULL,
			src TEXT NOT NULL,
			width INTEGER NOT NULL,
			height INTEGER NOT NULL,
			variants TEXT,
			position INTEGER NOT NULL,
			created_at TIMESTAMP NOT NULL,
			PRIMARY KEY (collection_id, id)
		)`,
		`CREATE TABLE IF NOT EXISTS hotspots (
			collection_id TEXT NOT NULL,
			look_id TEXT NOT NULL,
			id TEXT NOT NULL,
			points TEXT NOT NULL,
			title TEXT NOT NULL,
			brand TEXT NOT NULL,
			price TEXT NOT NULL,
			url TEXT NOT NULL,
			position INTEGER NOT NULL,
			PRIMARY KEY (collection_id, look_id, id)
		)`,
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.DB.Exec(stmt); err != nil {
			return fmt.Errorf("executing migration %q: %w", stmt[:40], err)
		}
	}
	return nil
}

// SetMeta records a key/value pair, replacing any previous value.
func (s *Store) SetMeta(ctx context.Context, key, value string) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM meta WHERE key = $1", key); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO meta (key, value) VALUES ($1, $2)", key, value); err != nil {
		return err
	}
	return tx.Commit()
}

// Meta returns a recorded value, or "" if the key was never set.
func (s *Store) Meta(ctx context.Context, key string) (string, error) {
	var v string
	err := s.DB.QueryRowContext(ctx, "SELECT value FROM meta WHERE key = $1", key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return v, err
}

func (s *Store) count(ctx context.Context, table string) (int, error) {
	var n int
	err := s.DB.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", table)).Scan(&n)
	return n, err
}

func notFound(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return nil
}
