// Package httpmw provides the gin HTTP middleware chain for the shared
// context server's transport layer (spec §6's tool surface riding over
// HTTP, plus the real-time and bridge endpoints).
package httpmw

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	RequestIDHeader = "X-Request-ID"
	RequestIDKey    = "request_id"
)

// RequestID assigns a correlation id to every request, reusing one the
// caller supplied so a request can be traced across co-hosted components.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		c.Set(RequestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// GetRequestID reads the id RequestID set, or "" if the middleware never ran.
func GetRequestID(c *gin.Context) string {
	if v, ok := c.Get(RequestIDKey); ok {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}
