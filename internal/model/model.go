// Package model defines the entities stored by the shared context server:
// sessions, messages, agent memory entries, audit records, and protected
// tokens. These mirror spec §3 exactly; the storage engine and core
// components operate on these types rather than raw rows.
package model

import "time"

// Visibility is one of the four message visibility tiers.
type Visibility string

const (
	VisibilityPublic    Visibility = "public"
	VisibilityPrivate   Visibility = "private"
	VisibilityAgentOnly Visibility = "agent_only"
	VisibilityAdminOnly Visibility = "admin_only"
)

// ValidVisibility reports whether v is one of the four allowed tiers.
func ValidVisibility(v Visibility) bool {
	switch v {
	case VisibilityPublic, VisibilityPrivate, VisibilityAgentOnly, VisibilityAdminOnly:
		return true
	}
	return false
}

// AccessTier is the permission tier derived from a resolved capability
// token (spec §4.3).
type AccessTier string

const (
	TierAdmin     AccessTier = "ADMIN"
	TierAgent     AccessTier = "AGENT"
	TierReadOnly  AccessTier = "READ_ONLY"
	TierAnonymous AccessTier = "ANONYMOUS"
)

// Session is an isolated conversational workspace.
type Session struct {
	ID        string    `db:"id"`
	Purpose   string    `db:"purpose"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
	IsActive  bool      `db:"is_active"`
	CreatedBy string    `db:"created_by"`
	Metadata  *string   `db:"metadata"` // JSON object text, or nil
}

// Message is a single append-only entry in a session's blackboard.
type Message struct {
	ID              int64      `db:"id"`
	SessionID       string     `db:"session_id"`
	Sender          string     `db:"sender"`
	SenderType      string     `db:"sender_type"`
	Content         string     `db:"content"`
	Visibility      Visibility `db:"visibility"`
	MessageType     string     `db:"message_type"`
	Metadata        *string    `db:"metadata"`
	Timestamp       time.Time  `db:"timestamp"`
	ParentMessageID *int64     `db:"parent_message_id"`
}

// MemoryEntry is a per-agent key/value row, optionally session-scoped.
type MemoryEntry struct {
	ID        int64      `db:"id"`
	AgentID   string     `db:"agent_id"`
	SessionID *string    `db:"session_id"` // nil => global
	Key       string     `db:"key"`
	Value     string     `db:"value"`
	Metadata  *string    `db:"metadata"`
	CreatedAt time.Time  `db:"created_at"`
	UpdatedAt time.Time  `db:"updated_at"`
	ExpiresAt *time.Time `db:"expires_at"`
}

// Expired reports whether the entry has passed its expiry as of now.
func (m MemoryEntry) Expired(now time.Time) bool {
	return m.ExpiresAt != nil && !now.Before(*m.ExpiresAt)
}

// AuditRecord is a single append-only audit-trail entry.
type AuditRecord struct {
	ID        int64     `db:"id"`
	Timestamp time.Time `db:"timestamp"`
	EventType string    `db:"event_type"`
	AgentID   string    `db:"agent_id"`
	SessionID *string   `db:"session_id"`
	Resource  *string   `db:"resource"`
	Action    *string   `db:"action"`
	Result    *string   `db:"result"`
	Metadata  *string   `db:"metadata"`
}

// ProtectedToken is the server-side record backing an opaque sct_<uuid>
// handle; EncryptedPayload holds an AEAD-sealed capability token and is
// never serialized to clients or logs.
type ProtectedToken struct {
	TokenID          string    `db:"token_id"`
	EncryptedPayload []byte    `db:"encrypted_payload"`
	AgentID          string    `db:"agent_id"`
	ExpiresAt        time.Time `db:"expires_at"`
	CreatedAt        time.Time `db:"created_at"`
}
