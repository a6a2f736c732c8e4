// Package search implements the search core (spec §4.6): fuzzy content
// search, exact sender search, and native time-range search, each
// constrained to the caller's visibility predicate (spec §4.4).
package search

import (
	"context"
	"sort"
	"time"

	"github.com/sharedcontext/server/internal/errors"
	"github.com/sharedcontext/server/internal/model"
	"github.com/sharedcontext/server/internal/sessioncore"
	"github.com/sharedcontext/server/internal/store"
	"github.com/sharedcontext/server/internal/validate"
)

const defaultSearchLimit = 10

// Scope selects which message fields search_context matches against.
type Scope string

const (
	ScopeContent  Scope = "content"
	ScopeSender   Scope = "sender"
	ScopeMetadata Scope = "metadata"
	ScopeAll      Scope = "all"
)

// Result is one scored search hit.
type Result struct {
	Message model.Message
	Score   int
}

// Core implements the three search operations.
type Core struct {
	store *store.Store
}

// New builds a search Core.
func New(st *store.Store) *Core {
	return &Core{store: st}
}

// visibilityPredicate builds the spec §4.4 predicate text (with '?'
// placeholders) and its bound arguments for the given caller identity.
func visibilityPredicate(who sessioncore.Identity) (string, []interface{}) {
	predicate := `visibility = 'public' OR (visibility = 'private' AND sender = ?) OR (visibility = 'agent_only' AND sender_type = ?)`
	args := []interface{}{who.AgentID, who.AgentType}
	if who.HasAdmin {
		predicate += ` OR visibility = 'admin_only'`
	}
	return predicate, args
}

// visibleMessages loads every message in sessionID visible to who, letting
// the caller-identity predicate do the filtering entirely at the database
// layer before any scoring happens in Go.
func (c *Core) visibleMessages(ctx context.Context, sessionID string, who sessioncore.Identity) ([]model.Message, error) {
	predicate, args := visibilityPredicate(who)
	var messages []model.Message
	query := `SELECT * FROM messages WHERE session_id = ? AND (` + predicate + `)`
	err := c.store.Query(ctx, &messages, query, append([]interface{}{sessionID}, args...)...)
	return messages, err
}

// SearchContext applies substring-biased fuzzy matching against content
// and, when search_scope extends to them, sender or metadata text.
func (c *Core) SearchContext(ctx context.Context, sessionID, query string, threshold int, limit int, scope Scope, who sessioncore.Identity) ([]Result, *errors.AppError) {
	if err := validate.SessionID(sessionID); err != nil {
		return nil, err
	}
	if query == "" {
		return nil, errors.InvalidInput("query must not be empty")
	}
	if threshold <= 0 {
		threshold = 60
	}
	if limit <= 0 || limit > defaultSearchLimit*20 {
		limit = defaultSearchLimit
	}
	if scope == "" {
		scope = ScopeAll
	}

	messages, err := c.visibleMessages(ctx, sessionID, who)
	if err != nil {
		return nil, errors.DatabaseUnavailable(err)
	}

	best := make(map[int64]Result, len(messages))
	considerField := func(msg model.Message, field string) {
		if field == "" {
			return
		}
		score := PartialRatio(query, field)
		if score < threshold {
			return
		}
		if existing, ok := best[msg.ID]; !ok || score > existing.Score {
			best[msg.ID] = Result{Message: msg, Score: score}
		}
	}

	for _, msg := range messages {
		switch scope {
		case ScopeContent:
			considerField(msg, msg.Content)
		case ScopeSender:
			considerField(msg, msg.Sender)
		case ScopeMetadata:
			if msg.Metadata != nil {
				considerField(msg, *msg.Metadata)
			}
		case ScopeAll:
			considerField(msg, msg.Content)
			considerField(msg, msg.Sender)
			if msg.Metadata != nil {
				considerField(msg, *msg.Metadata)
			}
		default:
			return nil, errors.InvalidInput("search_scope must be one of content, sender, metadata, all")
		}
	}

	results := make([]Result, 0, len(best))
	for _, r := range best {
		results = append(results, r)
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Message.Timestamp.After(results[j].Message.Timestamp)
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// SearchBySender returns an exact-match subset of the caller's visible
// messages for sessionID, most recent first.
func (c *Core) SearchBySender(ctx context.Context, sessionID, sender string, limit int, who sessioncore.Identity) ([]model.Message, *errors.AppError) {
	if err := validate.SessionID(sessionID); err != nil {
		return nil, err
	}
	if sender == "" {
		return nil, errors.InvalidInput("sender must not be empty")
	}
	if limit <= 0 || limit > 200 {
		limit = defaultSearchLimit
	}

	predicate, predArgs := visibilityPredicate(who)
	query := `SELECT * FROM messages WHERE session_id = ? AND sender = ? AND (` + predicate + `) ORDER BY timestamp DESC LIMIT ?`
	args := append([]interface{}{sessionID, sender}, predArgs...)
	args = append(args, limit)

	var messages []model.Message
	if queryErr := c.store.Query(ctx, &messages, query, args...); queryErr != nil {
		return nil, errors.DatabaseUnavailable(queryErr)
	}
	return messages, nil
}

// SearchByTimerange returns messages within [start, end], using the
// database's native datetime comparison rather than string comparison of
// ISO text (spec §4.6).
func (c *Core) SearchByTimerange(ctx context.Context, sessionID string, start, end time.Time, limit int, who sessioncore.Identity) ([]model.Message, *errors.AppError) {
	if err := validate.SessionID(sessionID); err != nil {
		return nil, err
	}
	if end.Before(start) {
		return nil, errors.InvalidInput("end must not be before start")
	}
	if limit <= 0 || limit > 200 {
		limit = defaultSearchLimit
	}

	predicate, predArgs := visibilityPredicate(who)
	query := `SELECT * FROM messages WHERE session_id = ? AND timestamp >= ? AND timestamp <= ? AND (` + predicate + `) ORDER BY timestamp DESC LIMIT ?`
	args := append([]interface{}{sessionID, start, end}, predArgs...)
	args = append(args, limit)

	var messages []model.Message
	if queryErr := c.store.Query(ctx, &messages, query, args...); queryErr != nil {
		return nil, errors.DatabaseUnavailable(queryErr)
	}
	return messages, nil
}
