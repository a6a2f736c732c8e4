package auth

import "github.com/sharedcontext/server/internal/model"

// Tier derives the access tier a resolved capability token grants (spec
// §4.3). A nil claims value — meaning no token resolved at all — is
// ANONYMOUS: every tool call still reaches the dispatcher, but with the
// narrowest possible tier.
func Tier(claims *CapabilityClaims) model.AccessTier {
	if claims == nil {
		return model.TierAnonymous
	}
	switch {
	case claims.HasPermission(PermAdmin):
		return model.TierAdmin
	case claims.HasPermission(PermWrite):
		return model.TierAgent
	case claims.HasPermission(PermRead):
		return model.TierReadOnly
	default:
		return model.TierAnonymous
	}
}

// CanWrite reports whether tier permits mutating operations (add_message,
// set_memory, set_message_visibility, and so on).
func CanWrite(tier model.AccessTier) bool {
	return tier == model.TierAdmin || tier == model.TierAgent
}

// CanAdminister reports whether tier permits admin-only operations, such as
// reading admin_only visibility messages or forcing a session closed.
func CanAdminister(tier model.AccessTier) bool {
	return tier == model.TierAdmin
}
