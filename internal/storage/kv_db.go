package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// SQLKV stores entries in a kv_entries table. The SQLite and Postgres
// backends differ only in DSN handling and placeholder style.
type SQLKV struct {
	driver  string
	db      *sql.DB
	getStmt string
	setStmt string
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS kv_entries (
    scope TEXT NOT NULL,
    key TEXT NOT NULL,
    value TEXT NOT NULL,
    updated_at DATETIME NOT NULL DEFAULT (datetime('now')),
    PRIMARY KEY (scope, key)
);
`

const postgresSchema = `
CREATE TABLE IF NOT EXISTS kv_entries (
    scope TEXT NOT NULL,
    key TEXT NOT NULL,
    value TEXT NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    PRIMARY KEY (scope, key)
);
`

func OpenSQLite(path string) (*SQLKV, error) {
	if path == "" {
		return nil, errors.New("sqlite path required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening sqlite: %w", err)
	}
	return newSQLite(db)
}

// OpenSQLiteMemory opens a private in-memory database. It is pinned to a
// single connection, since every sqlite connection to :memory: is its own
// database.
func OpenSQLiteMemory() (*SQLKV, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("opening sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	return newSQLite(db)
}

func newSQLite(db *sql.DB) (*SQLKV, error) {
	if err := migrate(db, sqliteSchema); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLKV{
		driver:  DriverSQLite,
		db:      db,
		getStmt: `SELECT value FROM kv_entries WHERE scope = ? AND key = ?`,
		setStmt: `
			INSERT INTO kv_entries (scope, key, value, updated_at)
			VALUES (?, ?, ?, datetime('now'))
			ON CONFLICT (scope, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
		`,
	}, nil
}

func OpenPostgres(dsn string) (*SQLKV, error) {
	if dsn == "" {
		return nil, errors.New("postgres dsn required")
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)

	return ownPostgres(db)
}

// ownPostgres wraps a handle this package opened and closes it when the
// store cannot be set up.
func ownPostgres(db *sql.DB) (*SQLKV, error) {
	kv, err := NewPostgresKV(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return kv, nil
}

// NewPostgresKV migrates a caller-owned handle. The caller closes db on error.
func NewPostgresKV(db *sql.DB) (*SQLKV, error) {
	if err := migrate(db, postgresSchema); err != nil {
		return nil, err
	}
	return &SQLKV{
		driver:  DriverPostgres,
		db:      db,
		getStmt: `SELECT value FROM kv_entries WHERE scope = $1 AND key = $2`,
		setStmt: `
			INSERT INTO kv_entries (scope, key, value, updated_at)
			VALUES ($1, $2, $3, now())
			ON CONFLICT (scope, key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
		`,
	}, nil
}

func migrate(db *sql.DB, schema string) error {
	return withTimeout(context.Background(), queryTimeout, func(ctx context.Context) error {
		if _, err := db.ExecContext(ctx, schema); err != nil {
			return fmt.Errorf("running migrations: %w", err)
		}
		return nil
	})
}

// DB exposes the underlying handle so other stores can share the pool.
func (s *SQLKV) DB() *sql.DB { return s.db }

func (s *SQLKV) Driver() string { return s.driver }

func (s *SQLKV) Close() error { return s.db.Close() }

func (s *SQLKV) Ping(ctx context.Context) error {
	return withTimeout(ctx, pingTimeout, func(ctx context.Context) error {
		return s.db.PingContext(ctx)
	})
}

func (s *SQLKV) Get(ctx context.Context, scope, key string) (string, bool, error) {
	if scope == "" {
		return "", false, ErrEmptyScope
	}

	var v string
	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		return s.db.QueryRowContext(ctx, s.getStmt, scope, key).Scan(&v)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (s *SQLKV) Set(ctx context.Context, scope, key, value string) error {
	if scope == "" {
		return ErrEmptyScope
	}

	return withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		_, err := s.db.ExecContext(ctx, s.setStmt, scope, key, value)
		return err
	})
}
