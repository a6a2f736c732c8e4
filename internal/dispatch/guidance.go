package dispatch

import (
	"context"
	"encoding/json"

	"github.com/sharedcontext/server/internal/errors"
	"github.com/sharedcontext/server/internal/model"
)

type getUsageGuidanceArgs struct {
	GuidanceType string `json:"guidance_type,omitempty"`
}

// toolsByTier lists the tool names available at each access tier, from
// least to most privileged — the same ordering permissionSatisfied checks.
var toolsByTier = map[model.AccessTier][]string{
	model.TierAnonymous: {"authenticate_agent", "get_usage_guidance"},
	model.TierReadOnly: {
		"authenticate_agent", "refresh_token", "get_session", "get_messages",
		"search_context", "search_by_sender", "search_by_timerange",
		"get_memory", "list_memory", "get_usage_guidance",
	},
	model.TierAgent: {
		"authenticate_agent", "refresh_token", "create_session", "get_session",
		"add_message", "get_messages", "set_message_visibility",
		"search_context", "search_by_sender", "search_by_timerange",
		"set_memory", "get_memory", "list_memory", "get_usage_guidance",
	},
	model.TierAdmin: {
		"authenticate_agent", "refresh_token", "create_session", "get_session",
		"add_message", "get_messages", "set_message_visibility",
		"search_context", "search_by_sender", "search_by_timerange",
		"set_memory", "get_memory", "list_memory", "get_usage_guidance",
		"get_audit_log", "get_performance_metrics",
	},
}

// visibilityGuidance documents the four-tier message visibility model. It
// does not vary by caller tier — every agent benefits from knowing the
// full rule set, even the part (admin_only) it cannot itself write.
const visibilityGuidance = "Messages carry one of four visibilities: " +
	"public (visible to everyone in the session), private (visible only to the " +
	"sending agent), agent_only (visible to any agent of the same agent_type as " +
	"the sender), and admin_only (visible only to ADMIN-tier callers, and only " +
	"an ADMIN may set it)."

const bestPracticesGuidance = "Prefer the narrowest visibility that still lets " +
	"collaborators see what they need. Use session-scoped memory for state tied " +
	"to one task and global memory for anything that should outlive it. Poll " +
	"get_messages sparingly once subscribed to the real-time channel — it exists " +
	"to avoid the need for polling."

// getUsageGuidance returns a guidance object whose tools[] reflects the
// caller's own tier and whose prose sections are tier-independent. any
// caller reaching this handler has already cleared PermAny, including an
// unauthenticated ANONYMOUS identity.
func (d Deps) getUsageGuidance(ctx context.Context, dctx Context, raw json.RawMessage) (interface{}, *errors.AppError) {
	var args getUsageGuidanceArgs
	if err := decode(raw, &args); err != nil {
		return nil, err
	}

	tier := dctx.Identity.Tier
	if tier == "" {
		tier = model.TierAnonymous
	}

	guidance := map[string]interface{}{
		"tier":             string(tier),
		"available_tools":  toolsByTier[tier],
		"visibility_model": visibilityGuidance,
	}

	switch args.GuidanceType {
	case "", "overview":
		guidance["best_practices"] = bestPracticesGuidance
	case "visibility":
		// visibility_model above already covers this; nothing further to add.
	case "best_practices":
		guidance["best_practices"] = bestPracticesGuidance
	default:
		return nil, errors.InvalidInput("guidance_type must be one of overview, visibility, best_practices")
	}

	return guidance, nil
}
