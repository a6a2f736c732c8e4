package store

import (
	"context"
	"fmt"

	"github.com/sharedcontext/server/internal/logger"
)

// schemaVersion is the current schema revision. Bootstrap inserts a row
// into schema_version the first time it runs each revision; subsequent
// calls are no-ops for revisions already recorded, and this whole method
// runs exactly once per process (cmd/server calls it before accepting any
// request), never from a lazy per-request path (spec §4.1, §9).
const schemaVersion = 1

// jsonColumnType returns the column type used for JSON-valued columns,
// which differs by engine: Postgres has a native JSONB type, SQLite stores
// validated JSON text.
func (s *Store) jsonColumnType() string {
	if s.engine == EnginePostgres {
		return "JSONB"
	}
	return "TEXT"
}

// timestampColumnType returns the column type used for timestamp-valued
// columns. mattn/go-sqlite3 only parses a stored value back into
// time.Time when the declared column type is DATETIME/TIMESTAMP/DATE — a
// plain TEXT column comes back as a string and fails every Scan into
// *time.Time (every read path in internal/model touches one of these).
func (s *Store) timestampColumnType() string {
	if s.engine == EnginePostgres {
		return "TIMESTAMPTZ"
	}
	return "DATETIME"
}

func (s *Store) autoIncrementPK() string {
	if s.engine == EnginePostgres {
		return "BIGSERIAL PRIMARY KEY"
	}
	return "INTEGER PRIMARY KEY AUTOINCREMENT"
}

// Bootstrap creates every table and index this server needs if they don't
// already exist, and records the applied schema version. Safe to call on
// an already-bootstrapped database (idempotent CREATE TABLE/INDEX IF NOT
// EXISTS), but callers must still only invoke it once at process start.
func (s *Store) Bootstrap(ctx context.Context) error {
	log := logger.Store()
	ts := s.timestampColumnType()
	js := s.jsonColumnType()
	pk := s.autoIncrementPK()

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY,
			applied_at ` + ts + ` NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS sessions (
			id VARCHAR(64) PRIMARY KEY,
			purpose TEXT NOT NULL,
			created_at ` + ts + ` NOT NULL,
			updated_at ` + ts + ` NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_by VARCHAR(255) NOT NULL,
			metadata ` + js + `
		)`,

		`CREATE TABLE IF NOT EXISTS messages (
			id ` + pk + `,
			session_id VARCHAR(64) NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
			sender VARCHAR(255) NOT NULL,
			sender_type VARCHAR(100) NOT NULL,
			content TEXT NOT NULL,
			visibility VARCHAR(20) NOT NULL DEFAULT 'public',
			message_type VARCHAR(100) NOT NULL DEFAULT 'agent_response',
			metadata ` + js + `,
			timestamp ` + ts + ` NOT NULL,
			parent_message_id BIGINT REFERENCES messages(id) ON DELETE SET NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_session_timestamp ON messages(session_id, timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_sender_timestamp ON messages(sender, timestamp)`,

		`CREATE TABLE IF NOT EXISTS agent_memory (
			id ` + pk + `,
			agent_id VARCHAR(255) NOT NULL,
			session_id VARCHAR(64) REFERENCES sessions(id) ON DELETE CASCADE,
			key VARCHAR(255) NOT NULL,
			value TEXT NOT NULL,
			metadata ` + js + `,
			created_at ` + ts + ` NOT NULL,
			updated_at ` + ts + ` NOT NULL,
			expires_at ` + ts + `
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_memory_agent_session_key ON agent_memory(agent_id, COALESCE(session_id, ''), key)`,
		`CREATE INDEX IF NOT EXISTS idx_memory_expires_at ON agent_memory(expires_at)`,

		`CREATE TABLE IF NOT EXISTS protected_tokens (
			token_id VARCHAR(64) PRIMARY KEY,
			encrypted_payload BLOB NOT NULL,
			agent_id VARCHAR(255) NOT NULL,
			expires_at ` + ts + ` NOT NULL,
			created_at ` + ts + ` NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_tokens_agent_expires ON protected_tokens(agent_id, expires_at)`,

		`CREATE TABLE IF NOT EXISTS audit_log (
			id ` + pk + `,
			timestamp ` + ts + ` NOT NULL,
			event_type VARCHAR(100) NOT NULL,
			agent_id VARCHAR(255) NOT NULL,
			session_id VARCHAR(64),
			resource VARCHAR(255),
			action VARCHAR(100),
			result VARCHAR(50),
			metadata ` + js + `
		)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_timestamp ON audit_log(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_agent_timestamp ON audit_log(agent_id, timestamp)`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema bootstrap: %w (statement: %s)", err, truncate(stmt, 80))
		}
	}

	// Postgres doesn't allow COALESCE inside a unique index the same way
	// some older SQLite builds parse it; both engines used here accept
	// the form above, but keep the insert of the schema_version row
	// engine-agnostic via a plain parameterized statement.
	var exists int
	q := s.Rebind(`SELECT COUNT(*) FROM schema_version WHERE version = ?`)
	if err := s.db.GetContext(ctx, &exists, q, schemaVersion); err != nil {
		return fmt.Errorf("schema bootstrap: check version: %w", err)
	}
	if exists == 0 {
		ins := s.Rebind(`INSERT INTO schema_version (version, applied_at) VALUES (?, ?)`)
		if _, err := s.db.ExecContext(ctx, ins, schemaVersion, Now()); err != nil {
			return fmt.Errorf("schema bootstrap: record version: %w", err)
		}
	}

	log.Info().Str("engine", string(s.engine)).Int("schema_version", schemaVersion).Msg("schema bootstrap complete")
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
