package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sharedcontext/server/internal/logger"
	"github.com/sharedcontext/server/internal/model"
	"github.com/sharedcontext/server/internal/store"
)

// Manager implements the token manager's issue/resolve/refresh/sweep
// operations (spec §4.2). It is constructed fresh per request (or per unit
// of work) from an immutable Keyring and the shared Store — it holds no
// mutable state of its own, so there is nothing to leak between requests
// or test cases.
type Manager struct {
	keyring *Keyring
	store   *store.Store
	policy  *Policy
	ttl     time.Duration
}

// NewManager builds a request-scoped token manager.
func NewManager(kr *Keyring, st *store.Store, policy *Policy, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Manager{keyring: kr, store: st, policy: policy, ttl: ttl}
}

// IssueResult is returned by Issue.
type IssueResult struct {
	ProtectedToken string
	Permissions    []Permission
	ExpiresAt      time.Time
}

// Issue mints a capability token scoped to the allowed permissions for
// agentType, wraps it in a new protected token record, and returns the
// opaque handle. The capability token itself never leaves this function.
func (m *Manager) Issue(ctx context.Context, agentID, agentType string, requested []Permission) (*IssueResult, error) {
	granted := m.policy.Allowed(agentType, requested)

	signed, expiresAt, err := signCapabilityToken(m.keyring, agentID, agentType, granted, m.ttl)
	if err != nil {
		return nil, err
	}

	sealed, err := sealPayload(m.keyring, []byte(signed))
	if err != nil {
		return nil, err
	}

	tokenID := "sct_" + uuid.New().String()
	now := store.Now()

	_, err = m.store.Exec(ctx,
		`INSERT INTO protected_tokens (token_id, encrypted_payload, agent_id, expires_at, created_at) VALUES (?, ?, ?, ?, ?)`,
		tokenID, sealed, agentID, expiresAt, now,
	)
	if err != nil {
		return nil, fmt.Errorf("store protected token: %w", err)
	}

	return &IssueResult{ProtectedToken: tokenID, Permissions: granted, ExpiresAt: expiresAt}, nil
}

// Resolve looks up a protected token, checks its expiry, decrypts the
// wrapped capability token, and validates it. Returns nil, nil when the
// token record is simply absent or expired (callers translate that to
// INVALID_TOKEN / TOKEN_EXPIRED as appropriate); returns a non-nil error
// only for unexpected storage failures.
func (m *Manager) Resolve(ctx context.Context, protectedToken string) (*CapabilityClaims, error) {
	var row model.ProtectedToken
	err := m.store.Get(ctx, &row,
		`SELECT token_id, encrypted_payload, agent_id, expires_at, created_at FROM protected_tokens WHERE token_id = ?`,
		protectedToken,
	)
	if err != nil {
		return nil, nil //nolint:nilerr // not found / scan miss both mean "no such token"
	}

	if !store.Now().Before(row.ExpiresAt) {
		return nil, nil
	}

	plaintext, err := openPayload(m.keyring, row.EncryptedPayload)
	if err != nil {
		return nil, nil // decryption failure: treat as an unresolvable token, not a server error
	}

	claims, err := parseCapabilityToken(m.keyring, string(plaintext))
	if err != nil {
		return nil, nil
	}
	return claims, nil
}

// Refresh creates a brand new protected token for the same agent/claims,
// then best-effort deletes the old one. If the delete fails, the old token
// simply expires naturally per its own TTL — it must never invalidate the
// newly issued token (spec §4.2, scenario 2 in spec §8).
func (m *Manager) Refresh(ctx context.Context, currentProtectedToken string) (*IssueResult, error) {
	claims, err := m.Resolve(ctx, currentProtectedToken)
	if err != nil {
		return nil, err
	}
	if claims == nil {
		return nil, fmt.Errorf("invalid or expired token")
	}

	result, err := m.Issue(ctx, claims.AgentID, claims.AgentType, claims.Permissions)
	if err != nil {
		return nil, err
	}

	if _, delErr := m.store.Exec(ctx, `DELETE FROM protected_tokens WHERE token_id = ?`, currentProtectedToken); delErr != nil {
		logger.Auth().Warn().Err(delErr).Str("token_id", currentProtectedToken).Msg("failed to delete old protected token during refresh; it will expire naturally")
	}

	return result, nil
}

// Sweep deletes every protected token whose expires_at has passed. Intended
// to be called periodically by internal/sweep.
func (m *Manager) Sweep(ctx context.Context) (int64, error) {
	res, err := m.store.Exec(ctx, `DELETE FROM protected_tokens WHERE expires_at <= ?`, store.Now())
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return n, nil
}
