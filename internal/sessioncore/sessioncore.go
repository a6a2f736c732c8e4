// Package sessioncore implements the session/message core (spec §4.4):
// session creation, message append under the per-session write lock, the
// four-tier visibility predicate as a single-table SQL filter, and
// visibility changes gated to the original sender or an admin.
package sessioncore

import (
	"context"
	"crypto/rand"
	"encoding/base32"
	"strings"
	"time"

	"github.com/sharedcontext/server/internal/audit"
	"github.com/sharedcontext/server/internal/errors"
	"github.com/sharedcontext/server/internal/model"
	"github.com/sharedcontext/server/internal/store"
	"github.com/sharedcontext/server/internal/validate"
)

// defaultMessageLimit caps get_messages results server-side (spec §4.4: "server-side limit cap (e.g. 200)").
const defaultMessageLimit = 200

// Notifier is the subset of the notification bus (internal/live) the
// session core needs. It is an interface here so sessioncore never imports
// the transport/bus package directly — the bus is notified strictly after
// a database commit, never from inside one.
type Notifier interface {
	Publish(sessionID string, eventType string, data map[string]interface{})
}

// Core implements the session/message operations.
type Core struct {
	store    *store.Store
	audit    *audit.Logger
	notifier Notifier
}

// New builds a session/message Core.
func New(st *store.Store, auditLogger *audit.Logger, notifier Notifier) *Core {
	return &Core{store: st, audit: auditLogger, notifier: notifier}
}

// Identity is the resolved caller identity a tool call carries into every
// session-core operation (spec §4.3's agent_id, agent_type, permissions).
type Identity struct {
	AgentID     string
	AgentType   string
	Tier        model.AccessTier
	HasAdmin    bool
}

// generateSessionID produces a conforming 8-64 char alphanumeric id. 20
// random bytes base32-encoded (no padding, lowercased) yields 32
// characters, comfortably inside the allowed range.
func generateSessionID() (string, error) {
	buf := make([]byte, 20)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	id := strings.ToLower(base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(buf))
	return id, nil
}

// CreateSession creates a new session. Requires write permission, checked
// by the caller (the dispatch layer) before this is ever invoked.
func (c *Core) CreateSession(ctx context.Context, purpose string, metadata *string, createdBy string) (*model.Session, *errors.AppError) {
	if err := validate.Purpose(purpose); err != nil {
		return nil, err
	}
	if err := validate.Metadata(metadata); err != nil {
		return nil, err
	}

	id, genErr := generateSessionID()
	if genErr != nil {
		return nil, errors.Internal(genErr)
	}

	now := store.Now()
	session := &model.Session{
		ID: id, Purpose: purpose, CreatedAt: now, UpdatedAt: now,
		IsActive: true, CreatedBy: createdBy, Metadata: metadata,
	}

	_, execErr := c.store.Exec(ctx,
		`INSERT INTO sessions (id, purpose, created_at, updated_at, is_active, created_by, metadata) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		session.ID, session.Purpose, session.CreatedAt, session.UpdatedAt, session.IsActive, session.CreatedBy, session.Metadata,
	)
	if execErr != nil {
		return nil, errors.DatabaseUnavailable(execErr)
	}

	c.audit.Write(ctx, audit.Record{EventType: "session_created", AgentID: createdBy, SessionID: &session.ID})
	return session, nil
}

// GetSession fetches a session plus a visibility-filtered message count for
// the requesting identity.
func (c *Core) GetSession(ctx context.Context, sessionID string, who Identity) (*model.Session, int, *errors.AppError) {
	if err := validate.SessionID(sessionID); err != nil {
		return nil, 0, err
	}

	var session model.Session
	if getErr := c.store.Get(ctx, &session, `SELECT * FROM sessions WHERE id = ?`, sessionID); getErr != nil {
		return nil, 0, errors.NotFound("session")
	}

	predicate, args := visibilityPredicate(who)
	query := `SELECT COUNT(*) FROM messages WHERE session_id = ? AND (` + predicate + `)`
	fullArgs := append([]interface{}{sessionID}, args...)

	var count int
	if countErr := c.store.Get(ctx, &count, query, fullArgs...); countErr != nil {
		return nil, 0, errors.DatabaseUnavailable(countErr)
	}

	return &session, count, nil
}

// AddMessage appends a message under the session's write lock.
func (c *Core) AddMessage(ctx context.Context, sessionID, content string, visibility model.Visibility, messageType string, metadata *string, parentMessageID *int64, who Identity) (*model.Message, *errors.AppError) {
	if err := validate.SessionID(sessionID); err != nil {
		return nil, err
	}
	if err := validate.Content(content); err != nil {
		return nil, err
	}
	if err := validate.Metadata(metadata); err != nil {
		return nil, err
	}
	if visibility == "" {
		visibility = model.VisibilityPublic
	}
	if !model.ValidVisibility(visibility) {
		return nil, errors.InvalidInput("visibility must be one of public, private, agent_only, admin_only")
	}
	if visibility == model.VisibilityAdminOnly && !who.HasAdmin {
		return nil, errors.PermissionDenied("only an admin may write an admin_only message")
	}
	if messageType == "" {
		messageType = "agent_response"
	}

	var msg *model.Message
	lockErr := c.store.WithSessionLock(sessionID, func() error {
		var session model.Session
		if getErr := c.store.Get(ctx, &session, `SELECT * FROM sessions WHERE id = ?`, sessionID); getErr != nil {
			return errors.NotFound("session")
		}
		if !session.IsActive {
			return errors.InvalidInput("session is not active")
		}

		now := store.Now()
		res, execErr := c.store.Exec(ctx,
			`INSERT INTO messages (session_id, sender, sender_type, content, visibility, message_type, metadata, timestamp, parent_message_id)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			sessionID, who.AgentID, who.AgentType, content, visibility, messageType, metadata, now, parentMessageID,
		)
		if execErr != nil {
			return errors.DatabaseUnavailable(execErr)
		}
		id, idErr := res.LastInsertId()
		if idErr != nil {
			return errors.DatabaseUnavailable(idErr)
		}

		if _, touchErr := c.store.Exec(ctx, `UPDATE sessions SET updated_at = ? WHERE id = ?`, now, sessionID); touchErr != nil {
			return errors.DatabaseUnavailable(touchErr)
		}

		msg = &model.Message{
			ID: id, SessionID: sessionID, Sender: who.AgentID, SenderType: who.AgentType,
			Content: content, Visibility: visibility, MessageType: messageType,
			Metadata: metadata, Timestamp: now, ParentMessageID: parentMessageID,
		}
		return nil
	})
	if lockErr != nil {
		if ae, ok := lockErr.(*errors.AppError); ok {
			return nil, ae
		}
		return nil, errors.Internal(lockErr)
	}

	c.audit.Write(ctx, audit.Record{EventType: "message_added", AgentID: who.AgentID, SessionID: &sessionID})
	c.notifier.Publish(sessionID, "message_added", map[string]interface{}{
		"message_id": msg.ID, "sender": msg.Sender, "visibility": string(msg.Visibility), "timestamp": msg.Timestamp,
	})

	return msg, nil
}

// GetMessages lists messages visible to who, ordered by timestamp
// ascending, capped at defaultMessageLimit.
func (c *Core) GetMessages(ctx context.Context, sessionID string, limit, offset int, visibilityFilter *model.Visibility, who Identity) ([]model.Message, *errors.AppError) {
	if err := validate.SessionID(sessionID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > defaultMessageLimit {
		limit = defaultMessageLimit
	}
	if offset < 0 {
		offset = 0
	}

	predicate, args := visibilityPredicate(who)
	query := `SELECT * FROM messages WHERE session_id = ? AND (` + predicate + `)`
	fullArgs := append([]interface{}{sessionID}, args...)

	if visibilityFilter != nil {
		if !model.ValidVisibility(*visibilityFilter) {
			return nil, errors.InvalidInput("visibility_filter must be one of public, private, agent_only, admin_only")
		}
		query += ` AND visibility = ?`
		fullArgs = append(fullArgs, *visibilityFilter)
	}

	query += ` ORDER BY timestamp ASC LIMIT ? OFFSET ?`
	fullArgs = append(fullArgs, limit, offset)

	var messages []model.Message
	if queryErr := c.store.Query(ctx, &messages, query, fullArgs...); queryErr != nil {
		return nil, errors.DatabaseUnavailable(queryErr)
	}
	return messages, nil
}

// SetMessageVisibility changes a message's visibility. Allowed for the
// original sender or an admin; setting admin_only requires admin. The tool
// surface (spec §6) identifies the message by id alone, so the owning
// session is looked up from the message row itself before the write lock
// for that session is acquired.
func (c *Core) SetMessageVisibility(ctx context.Context, messageID int64, newVisibility model.Visibility, reason string, who Identity) (oldVisibility model.Visibility, appErr *errors.AppError) {
	if !model.ValidVisibility(newVisibility) {
		return "", errors.InvalidInput("new_visibility must be one of public, private, agent_only, admin_only")
	}
	if newVisibility == model.VisibilityAdminOnly && !who.HasAdmin {
		return "", errors.PermissionDenied("only an admin may set admin_only visibility")
	}

	var existing model.Message
	if getErr := c.store.Get(ctx, &existing, `SELECT * FROM messages WHERE id = ?`, messageID); getErr != nil {
		return "", errors.NotFound("message")
	}
	sessionID := existing.SessionID

	var updated *model.Message
	lockErr := c.store.WithSessionLock(sessionID, func() error {
		var msg model.Message
		if getErr := c.store.Get(ctx, &msg, `SELECT * FROM messages WHERE id = ? AND session_id = ?`, messageID, sessionID); getErr != nil {
			return errors.NotFound("message")
		}
		if msg.Sender != who.AgentID && !who.HasAdmin {
			return errors.PermissionDenied("only the original sender or an admin may change message visibility")
		}

		oldVisibility = msg.Visibility
		if _, execErr := c.store.Exec(ctx, `UPDATE messages SET visibility = ? WHERE id = ?`, newVisibility, messageID); execErr != nil {
			return errors.DatabaseUnavailable(execErr)
		}
		msg.Visibility = newVisibility
		updated = &msg

		c.audit.Write(ctx, audit.Record{
			EventType: "message_visibility_changed", AgentID: who.AgentID, SessionID: &sessionID,
			Metadata: map[string]interface{}{"message_id": messageID, "old_visibility": string(oldVisibility), "new_visibility": string(newVisibility), "reason": reason},
		})
		return nil
	})
	if lockErr != nil {
		if ae, ok := lockErr.(*errors.AppError); ok {
			return "", ae
		}
		return "", errors.Internal(lockErr)
	}

	c.notifier.Publish(sessionID, "message_visibility_changed", map[string]interface{}{
		"message_id": updated.ID, "new_visibility": string(updated.Visibility), "timestamp": time.Now().UTC(),
	})
	return oldVisibility, nil
}

// visibilityPredicate builds the four-tier SQL predicate (spec §4.4) as a
// single-table filter against messages.sender_type — never an audit-log
// join. Returns the predicate text (with '?' placeholders) and its bound
// arguments in order.
func visibilityPredicate(who Identity) (string, []interface{}) {
	predicate := `visibility = 'public' OR (visibility = 'private' AND sender = ?) OR (visibility = 'agent_only' AND sender_type = ?)`
	args := []interface{}{who.AgentID, who.AgentType}
	if who.HasAdmin {
		predicate += ` OR visibility = 'admin_only'`
	}
	return predicate, args
}
