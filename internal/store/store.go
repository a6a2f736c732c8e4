// Package store implements the storage engine (spec §4.1): a connection
// abstraction over SQLite or PostgreSQL with query/update/batch/transaction/
// health operations, a process-wide pool, and a per-session write-lock
// registry. Schema bootstrap runs exactly once per process from
// cmd/server, never lazily from a request path.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Engine identifies which relational backend a Store is talking to. Query
// text differs slightly between engines (placeholder style, JSON column
// type, datetime casting), so callers that need engine-specific SQL check
// this rather than sniffing the driver name.
type Engine string

const (
	EngineSQLite   Engine = "sqlite"
	EnginePostgres Engine = "postgres"
)

// Config configures a Store.
type Config struct {
	// DatabaseURL is either "sqlite://<path>" or a postgres:// DSN.
	DatabaseURL string
	// PoolBaseline is the steady-state connection pool size (default 20).
	PoolBaseline int
	// PoolBurst is the maximum pool size under load (default 30).
	PoolBurst int
}

// Store is the storage engine handle shared by every component that needs
// database access. It is safe for concurrent use.
type Store struct {
	db     *sqlx.DB
	engine Engine
	locks  *LockRegistry
}

// Open parses cfg.DatabaseURL, opens a pooled connection, and configures
// pool limits per spec §4.1 (baseline 20 / burst 30, ≤30s per-connection
// lifetime, SQLite WAL mode with an 8MB cache, 5s busy timeout, 256MB mmap).
// It does not run schema bootstrap — call Bootstrap separately, once.
func Open(cfg Config) (*Store, error) {
	if cfg.PoolBaseline <= 0 {
		cfg.PoolBaseline = 20
	}
	if cfg.PoolBurst <= 0 {
		cfg.PoolBurst = 30
	}

	var engine Engine
	var driver, dsn string

	switch {
	case strings.HasPrefix(cfg.DatabaseURL, "sqlite://"):
		engine = EngineSQLite
		driver = "sqlite3"
		path := strings.TrimPrefix(cfg.DatabaseURL, "sqlite://")
		dsn = fmt.Sprintf("file:%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000&cache_size=-8000&_mmap_size=268435456", path)
	case strings.HasPrefix(cfg.DatabaseURL, "postgres://"), strings.HasPrefix(cfg.DatabaseURL, "postgresql://"):
		engine = EnginePostgres
		driver = "postgres"
		if _, err := url.Parse(cfg.DatabaseURL); err != nil {
			return nil, fmt.Errorf("invalid database url: %w", err)
		}
		dsn = cfg.DatabaseURL
	default:
		return nil, fmt.Errorf("unsupported database url scheme: %s", cfg.DatabaseURL)
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	switch engine {
	case EngineSQLite:
		// SQLite's single-writer model means a large pool just serializes
		// behind the one write connection; cap it low and let WAL mode
		// give concurrent readers their own snapshot.
		db.SetMaxOpenConns(cfg.PoolBaseline)
		db.SetMaxIdleConns(cfg.PoolBaseline)
	case EnginePostgres:
		db.SetMaxOpenConns(cfg.PoolBurst)
		db.SetMaxIdleConns(cfg.PoolBaseline)
	}
	db.SetConnMaxLifetime(30 * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Store{db: db, engine: engine, locks: newLockRegistry()}, nil
}

// Engine reports which backend this Store is talking to.
func (s *Store) Engine() Engine { return s.engine }

// DB returns the underlying sqlx handle for components that need
// engine-specific query construction (search core's time-range filter).
func (s *Store) DB() *sqlx.DB { return s.db }

// Rebind converts a query written with '?' placeholders into the target
// engine's native placeholder style.
func (s *Store) Rebind(query string) string { return s.db.Rebind(query) }

// Close releases the pool. Intended for graceful shutdown only.
func (s *Store) Close() error { return s.db.Close() }

// Health performs a lightweight connectivity check ("health" operation of
// the storage abstraction).
func (s *Store) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Query executes a read query ("query" operation) with a per-statement
// timeout.
func (s *Store) Query(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	return sqlx.SelectContext(ctx, s.db, dest, s.Rebind(query), args...)
}

// Get executes a read query expected to return at most one row.
func (s *Store) Get(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	return sqlx.GetContext(ctx, s.db, dest, s.Rebind(query), args...)
}

// Exec runs a single write statement ("update" operation).
func (s *Store) Exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	return s.db.ExecContext(ctx, s.Rebind(query), args...)
}

// BatchExec runs several write statements in one transaction ("batch"
// operation); the whole batch rolls back on the first failure.
func (s *Store) BatchExec(ctx context.Context, stmts []string, argsPerStmt [][]interface{}) error {
	return s.WithTx(ctx, func(tx *sqlx.Tx) error {
		for i, stmt := range stmts {
			if _, err := tx.Exec(s.Rebind(stmt), argsPerStmt[i]...); err != nil {
				return err
			}
		}
		return nil
	})
}

// WithTx runs fn inside a transaction ("transaction" operation),
// committing on success and rolling back on error or panic.
func (s *Store) WithTx(ctx context.Context, fn func(tx *sqlx.Tx) error) (err error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()

	err = fn(tx)
	return err
}

// WithSessionLock acquires the per-session write lock for sessionID,
// invokes fn, and releases it on every exit path. Callers must never hold
// this lock across a notification-bus publish or an external bridge post
// (spec §5) — fn should finish its database work and return before any
// post-commit side effects happen.
func (s *Store) WithSessionLock(sessionID string, fn func() error) error {
	unlock := s.locks.Acquire(sessionID)
	defer unlock()
	return fn()
}

// Now is the single timestamp source used whenever application code must
// compute related timestamps together (e.g. created_at and expires_at),
// so invariants like expires_at > created_at never depend on a database
// default-timestamp expression evaluated at a different instant.
func Now() time.Time {
	return time.Now().UTC()
}
