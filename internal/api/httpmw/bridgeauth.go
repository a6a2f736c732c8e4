package httpmw

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

// BridgeAuth gates the internal broadcast bridge (spec §6) behind a shared
// secret distinct from the agent-facing API key — co-hosted components
// push events, they never authenticate as an agent.
func BridgeAuth(sharedSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if sharedSecret == "" {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
				"success": false, "error": "broadcast bridge is not configured", "code": "INTERNAL",
			})
			return
		}
		presented := c.GetHeader("X-Bridge-Secret")
		if subtle.ConstantTimeCompare([]byte(presented), []byte(sharedSecret)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false, "error": "invalid bridge secret", "code": "AUTH_FAILED",
			})
			return
		}
		c.Next()
	}
}
