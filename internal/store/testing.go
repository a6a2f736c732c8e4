package store

import "github.com/jmoiron/sqlx"

// NewForTesting wraps an already-open *sql.DB (typically a go-sqlmock
// connection) in a Store, bypassing Open's DSN parsing and pool setup.
// Exported for use by other packages' tests that need a Store backed by a
// mock driver.
func NewForTesting(db *sqlx.DB, engine Engine) *Store {
	return &Store{db: db, engine: engine, locks: newLockRegistry()}
}
