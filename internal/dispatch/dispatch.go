// Package dispatch implements the tool dispatch surface (spec §4.8): a
// registry mapping tool name to a typed handler, transport-agnostic
// permission gating, rate limiting, metrics, and the success/error
// envelope shape every transport (internal/api, internal/live) renders.
package dispatch

import (
	"context"
	"encoding/json"
	"time"

	"github.com/sharedcontext/server/internal/errors"
	"github.com/sharedcontext/server/internal/model"
	"github.com/sharedcontext/server/internal/ratelimit"
	"github.com/sharedcontext/server/internal/sessioncore"
)

// Permission is the access level a tool requires. It is distinct from
// auth.Permission (a capability token's granted scopes) — this is what
// the dispatch layer checks the resolved Identity's tier against before a
// handler ever runs.
type Permission string

const (
	// PermNone marks a tool reachable without any resolved identity
	// (authenticate_agent — gated by API key instead).
	PermNone Permission = "none"
	// PermAny marks a tool every tier may call, content varying by tier
	// (get_usage_guidance).
	PermAny   Permission = "any"
	PermRead  Permission = "read"
	PermWrite Permission = "write"
	PermAdmin Permission = "admin"
)

// Context is the server-bound call context the dispatch layer injects into
// every handler. Its fields never appear in a tool's client-visible JSON
// schema (spec §4.8, §9 "context parameters must be server-bound").
type Context struct {
	Identity  sessioncore.Identity
	RequestID string
}

// Handler implements one tool operation. args is the tool call's raw JSON
// argument object; the handler decodes it into its own typed struct.
type Handler func(ctx context.Context, dctx Context, args json.RawMessage) (interface{}, *errors.AppError)

type entry struct {
	handler    Handler
	permission Permission
	schema     json.RawMessage
}

// Registry maps tool name to handler, required permission, and declared
// input schema.
type Registry struct {
	entries map[string]entry
	limiter *ratelimit.Limiter
}

// NewRegistry builds an empty Registry. Call Register for each tool, then
// Dispatch to route calls.
func NewRegistry(limiter *ratelimit.Limiter) *Registry {
	return &Registry{entries: make(map[string]entry), limiter: limiter}
}

// Register adds toolName to the registry, gated by permission, and records
// its externally visible input schema. schema must never describe a
// Context field (spec §4.8, §9) — those are bound server-side and have no
// place in a client-visible tool contract.
func (r *Registry) Register(toolName string, permission Permission, schema json.RawMessage, handler Handler) {
	r.entries[toolName] = entry{handler: handler, permission: permission, schema: schema}
}

// Names returns every registered tool name, for schema introspection and
// tests that assert full spec §6 coverage.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	return names
}

// Schema returns toolName's declared input schema, for clients that need
// to validate or render arguments before calling it.
func (r *Registry) Schema(toolName string) (json.RawMessage, bool) {
	e, ok := r.entries[toolName]
	if !ok {
		return nil, false
	}
	return e.schema, true
}

// Dispatch resolves toolName to its handler, enforces the permission tier
// and rate limit, and runs the handler. It never panics: a handler panic
// is recovered and converted to an INTERNAL error, matching the teacher's
// own "wrap every scheduled/dispatched job in recover()" idiom.
func (r *Registry) Dispatch(ctx context.Context, dctx Context, toolName string, args json.RawMessage) (result interface{}, appErr *errors.AppError) {
	e, ok := r.entries[toolName]
	if !ok {
		return nil, errors.NotFound("tool " + toolName)
	}

	if !permissionSatisfied(e.permission, dctx.Identity) {
		return nil, errors.PermissionDenied("tool %s requires %s permission", toolName, e.permission)
	}

	if e.permission != PermNone && r.limiter != nil {
		if rlErr := r.limiter.Check(dctx.Identity.AgentID, toolName); rlErr != nil {
			return nil, rlErr
		}
	}

	defer func() {
		if rec := recover(); rec != nil {
			appErr = errors.Internal(nil)
		}
	}()

	return e.handler(ctx, dctx, args)
}

func permissionSatisfied(required Permission, who sessioncore.Identity) bool {
	switch required {
	case PermNone, PermAny:
		return true
	case PermRead:
		return who.Tier == model.TierReadOnly || who.Tier == model.TierAgent || who.Tier == model.TierAdmin
	case PermWrite:
		return who.Tier == model.TierAgent || who.Tier == model.TierAdmin
	case PermAdmin:
		return who.Tier == model.TierAdmin
	default:
		return false
	}
}

// unixFloat renders t as the seconds-precision Unix float envelopes use
// (spec §6: "Timestamps in envelopes are seconds-precision Unix floats").
func unixFloat(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}

// decode unmarshals args into dest, translating a decode failure into the
// spec's INVALID_INPUT kind rather than a raw JSON error.
func decode(args json.RawMessage, dest interface{}) *errors.AppError {
	if len(args) == 0 {
		return nil
	}
	if err := json.Unmarshal(args, dest); err != nil {
		return errors.InvalidInput("malformed arguments: %v", err)
	}
	return nil
}
