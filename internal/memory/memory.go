// Package memory implements the per-agent memory core (spec §4.5): dual
// global/session scoping, TTL expiry computed from a single application
// clock, and last-writer-wins upserts serialized per (agent, session, key).
package memory

import (
	"context"
	"strings"
	"time"

	"github.com/sharedcontext/server/internal/errors"
	"github.com/sharedcontext/server/internal/model"
	"github.com/sharedcontext/server/internal/store"
	"github.com/sharedcontext/server/internal/validate"
)

const defaultListLimit = 100

// Scope selects which memory entries list_memory returns.
type Scope string

const (
	ScopeGlobal  Scope = "global"
	ScopeSession Scope = "session"
	ScopeAll     Scope = "all"
)

// Core implements set/get/list for agent memory.
type Core struct {
	store *store.Store
}

// New builds a memory Core.
func New(st *store.Store) *Core {
	return &Core{store: st}
}

// lockKey scopes the write-lock registry (built for sessions) to also
// serialize per (agent_id, session_id) memory writes — reusing
// store.WithSessionLock's per-key mutex map rather than adding a second
// lock registry for a near-identical need.
func lockKey(agentID string, sessionID *string) string {
	if sessionID == nil {
		return "memory:global:" + agentID
	}
	return "memory:session:" + *sessionID + ":" + agentID
}

// SetMemory upserts a memory entry. overwrite=false with an existing row
// present returns CONFLICT instead of silently overwriting.
func (c *Core) SetMemory(ctx context.Context, agentID, key, value string, sessionID *string, ttlSeconds *int64, overwrite bool, metadata *string) (*model.MemoryEntry, *errors.AppError) {
	if err := validate.Key(key); err != nil {
		return nil, err
	}
	if err := validate.Metadata(metadata); err != nil {
		return nil, err
	}
	if sessionID != nil {
		if err := validate.SessionID(*sessionID); err != nil {
			return nil, err
		}
	}
	if ttlSeconds != nil && *ttlSeconds <= 0 {
		return nil, errors.InvalidInput("ttl_seconds must be greater than 0")
	}

	var entry *model.MemoryEntry
	lockErr := c.store.WithSessionLock(lockKey(agentID, sessionID), func() error {
		var existing model.MemoryEntry
		existingErr := c.getRow(ctx, agentID, key, sessionID, &existing)
		exists := existingErr == nil

		if exists && !overwrite {
			return errors.Conflict("memory entry %q already exists", key)
		}

		now := store.Now()
		var expiresAt *time.Time
		if ttlSeconds != nil {
			t := now.Add(time.Duration(*ttlSeconds) * time.Second)
			expiresAt = &t
		}

		if exists {
			_, execErr := c.store.Exec(ctx,
				`UPDATE agent_memory SET value = ?, metadata = ?, updated_at = ?, expires_at = ? WHERE id = ?`,
				value, metadata, now, expiresAt, existing.ID,
			)
			if execErr != nil {
				return errors.DatabaseUnavailable(execErr)
			}
			entry = &model.MemoryEntry{ID: existing.ID, AgentID: agentID, SessionID: sessionID, Key: key, Value: value, Metadata: metadata, CreatedAt: existing.CreatedAt, UpdatedAt: now, ExpiresAt: expiresAt}
			return nil
		}

		res, execErr := c.store.Exec(ctx,
			`INSERT INTO agent_memory (agent_id, session_id, key, value, metadata, created_at, updated_at, expires_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			agentID, sessionID, key, value, metadata, now, now, expiresAt,
		)
		if execErr != nil {
			return errors.DatabaseUnavailable(execErr)
		}
		id, idErr := res.LastInsertId()
		if idErr != nil {
			return errors.DatabaseUnavailable(idErr)
		}
		entry = &model.MemoryEntry{ID: id, AgentID: agentID, SessionID: sessionID, Key: key, Value: value, Metadata: metadata, CreatedAt: now, UpdatedAt: now, ExpiresAt: expiresAt}
		return nil
	})
	if lockErr != nil {
		if ae, ok := lockErr.(*errors.AppError); ok {
			return nil, ae
		}
		return nil, errors.Internal(lockErr)
	}
	return entry, nil
}

// getRow fetches the memory row for (agentID, key, sessionID), treating a
// nil sessionID as a distinct value from any non-nil one (spec §3
// uniqueness rule).
func (c *Core) getRow(ctx context.Context, agentID, key string, sessionID *string, dest *model.MemoryEntry) error {
	if sessionID == nil {
		return c.store.Get(ctx, dest, `SELECT * FROM agent_memory WHERE agent_id = ? AND key = ? AND session_id IS NULL`, agentID, key)
	}
	return c.store.Get(ctx, dest, `SELECT * FROM agent_memory WHERE agent_id = ? AND key = ? AND session_id = ?`, agentID, key, *sessionID)
}

// GetMemory fetches a memory entry, rejecting (and opportunistically
// deleting) an expired one.
func (c *Core) GetMemory(ctx context.Context, agentID, key string, sessionID *string) (*model.MemoryEntry, *errors.AppError) {
	if err := validate.Key(key); err != nil {
		return nil, err
	}

	var entry model.MemoryEntry
	if getErr := c.getRow(ctx, agentID, key, sessionID, &entry); getErr != nil {
		return nil, errors.NotFound("memory entry")
	}

	if entry.Expired(store.Now()) {
		_, _ = c.store.Exec(ctx, `DELETE FROM agent_memory WHERE id = ?`, entry.ID)
		return nil, errors.NotFound("memory entry")
	}

	return &entry, nil
}

// ListMemory lists entries scoped to the caller's agent_id.
func (c *Core) ListMemory(ctx context.Context, agentID string, sessionID *string, scope Scope, prefix string, limit int) ([]model.MemoryEntry, *errors.AppError) {
	if limit <= 0 || limit > defaultListLimit {
		limit = defaultListLimit
	}

	query := `SELECT * FROM agent_memory WHERE agent_id = ? AND (expires_at IS NULL OR expires_at > ?)`
	args := []interface{}{agentID, store.Now()}

	switch scope {
	case ScopeGlobal:
		query += ` AND session_id IS NULL`
	case ScopeSession:
		if sessionID == nil {
			return nil, errors.InvalidInput("session_id is required when scope is 'session'")
		}
		query += ` AND session_id = ?`
		args = append(args, *sessionID)
	case ScopeAll, "":
		// no additional scope filter
	default:
		return nil, errors.InvalidInput("scope must be one of global, session, all")
	}

	if prefix != "" {
		query += ` AND key LIKE ? ESCAPE '\'`
		args = append(args, escapeLikePrefix(prefix)+"%")
	}

	query += ` ORDER BY updated_at DESC LIMIT ?`
	args = append(args, limit)

	var entries []model.MemoryEntry
	if queryErr := c.store.Query(ctx, &entries, query, args...); queryErr != nil {
		return nil, errors.DatabaseUnavailable(queryErr)
	}
	return entries, nil
}

// Sweep deletes every memory row whose expires_at has passed. Intended to
// be called periodically by internal/sweep.
func (c *Core) Sweep(ctx context.Context) (int64, error) {
	res, err := c.store.Exec(ctx, `DELETE FROM agent_memory WHERE expires_at IS NOT NULL AND expires_at <= ?`, store.Now())
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// escapeLikePrefix escapes SQL LIKE metacharacters in a user-supplied
// prefix so a key containing '%' or '_' is matched literally.
func escapeLikePrefix(prefix string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(prefix)
}
