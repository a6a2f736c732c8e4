package dispatch

import (
	"github.com/sharedcontext/server/internal/audit"
	"github.com/sharedcontext/server/internal/auth"
	"github.com/sharedcontext/server/internal/memory"
	"github.com/sharedcontext/server/internal/metrics"
	"github.com/sharedcontext/server/internal/search"
	"github.com/sharedcontext/server/internal/sessioncore"
)

// Deps bundles every core component a handler needs. One Deps is built at
// startup and shared by every call. NewManager is the only auth-related
// field: it closes over the keyring and policy so handlers never need to
// see them directly, matching auth.Manager's own "constructed fresh per
// unit of work" design rather than holding one as a shared mutable field.
type Deps struct {
	APIKey string

	Sessions *sessioncore.Core
	Memory   *memory.Core
	Search   *search.Core
	Audit    *audit.Logger
	Metrics  *metrics.Metrics

	// NewManager builds a fresh request-scoped auth.Manager, matching
	// auth.Manager's own "constructed fresh per unit of work" design note
	// rather than holding one as a shared mutable field.
	NewManager func() *auth.Manager
}

// RegisterAll registers every spec §6 tool operation, and its declared
// input schema, against r.
func RegisterAll(r *Registry, deps Deps) {
	r.Register("authenticate_agent", PermNone, schemaAuthenticateAgent, deps.authenticateAgent)
	r.Register("refresh_token", PermNone, schemaRefreshToken, deps.refreshToken)

	r.Register("create_session", PermWrite, schemaCreateSession, deps.createSession)
	r.Register("get_session", PermRead, schemaGetSession, deps.getSession)
	r.Register("add_message", PermWrite, schemaAddMessage, deps.addMessage)
	r.Register("get_messages", PermRead, schemaGetMessages, deps.getMessages)
	r.Register("set_message_visibility", PermWrite, schemaSetMessageVisibility, deps.setMessageVisibility)

	r.Register("search_context", PermRead, schemaSearchContext, deps.searchContext)
	r.Register("search_by_sender", PermRead, schemaSearchBySender, deps.searchBySender)
	r.Register("search_by_timerange", PermRead, schemaSearchByTimerange, deps.searchByTimerange)

	r.Register("set_memory", PermWrite, schemaSetMemory, deps.setMemory)
	r.Register("get_memory", PermRead, schemaGetMemory, deps.getMemory)
	r.Register("list_memory", PermRead, schemaListMemory, deps.listMemory)

	r.Register("get_usage_guidance", PermAny, schemaGetUsageGuidance, deps.getUsageGuidance)
	r.Register("get_audit_log", PermAdmin, schemaGetAuditLog, deps.getAuditLog)
	r.Register("get_performance_metrics", PermAdmin, schemaGetPerformanceMetrics, deps.getPerformanceMetrics)
}
