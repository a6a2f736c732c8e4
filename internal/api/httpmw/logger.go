package httpmw

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sharedcontext/server/internal/logger"
)

// StructuredLogger logs one zerolog event per request, replacing the
// teacher's log.Printf-with-a-map approach with the component-logger
// pattern used everywhere else in this server.
func StructuredLogger() gin.HandlerFunc {
	log := logger.HTTP()
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		duration := time.Since(start)
		status := c.Writer.Status()

		event := log.Info()
		if status >= 500 {
			event = log.Error()
		} else if status >= 400 {
			event = log.Warn()
		}

		event.
			Str("request_id", GetRequestID(c)).
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", status).
			Dur("duration", duration).
			Str("client_ip", c.ClientIP()).
			Msg("http request")

		if len(c.Errors) > 0 {
			log.Warn().Str("request_id", GetRequestID(c)).Str("errors", c.Errors.String()).Msg("request errors")
		}
	}
}
