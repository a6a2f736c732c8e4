package httpmw

import "github.com/gin-gonic/gin"

// SecurityHeaders adds the response headers appropriate for a JSON-only
// tool API: no template/script surface to carve a CSP nonce policy for, so
// this is the fixed subset of the teacher's header set that still applies
// without an HTML rendering path.
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Content-Security-Policy", "default-src 'none'")
		c.Header("Referrer-Policy", "no-referrer")
		c.Header("Cache-Control", "no-store")
		c.Header("Server", "")
		c.Next()
	}
}
