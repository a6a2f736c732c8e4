package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/sharedcontext/server/internal/auth"
	"github.com/sharedcontext/server/internal/model"
	"github.com/sharedcontext/server/internal/sessioncore"
)

const identityKey = "identity"

// resolveIdentity extracts a Bearer protected token, if present, and
// resolves it to a sessioncore.Identity via newManager(). A missing or
// invalid token resolves to the ANONYMOUS tier rather than aborting the
// request — tools gated by PermNone or PermAny (authenticate_agent,
// get_usage_guidance) must still be reachable without a token, and every
// other tool is rejected downstream by dispatch's permission check.
func resolveIdentity(newManager func() *auth.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := sessioncore.Identity{Tier: model.TierAnonymous}

		header := c.GetHeader("Authorization")
		if token, ok := strings.CutPrefix(header, "Bearer "); ok && token != "" {
			claims, err := newManager().Resolve(c.Request.Context(), token)
			if err != nil {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"success": false, "error": "invalid or expired token", "code": "INVALID_TOKEN",
				})
				return
			}
			tier := auth.Tier(claims)
			identity = sessioncore.Identity{
				AgentID:   claims.AgentID,
				AgentType: claims.AgentType,
				Tier:      tier,
				HasAdmin:  auth.CanAdminister(tier),
			}
		}

		c.Set(identityKey, identity)
		c.Next()
	}
}

func identityFrom(c *gin.Context) sessioncore.Identity {
	if v, ok := c.Get(identityKey); ok {
		if id, ok := v.(sessioncore.Identity); ok {
			return id
		}
	}
	return sessioncore.Identity{Tier: model.TierAnonymous}
}
