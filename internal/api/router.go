package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sharedcontext/server/internal/api/httpmw"
	"github.com/sharedcontext/server/internal/auth"
	"github.com/sharedcontext/server/internal/dispatch"
	"github.com/sharedcontext/server/internal/live"
)

// Server bundles everything the HTTP transport needs beyond the dispatch
// registry itself: the live notification hub for the WebSocket endpoint
// and the bridge secret gating the internal broadcast endpoint.
type Server struct {
	Registry           *dispatch.Registry
	Hub                *live.Hub
	NewManager         func() *auth.Manager
	BridgeSharedSecret string
	RequestTimeout     time.Duration
}

// NewRouter builds the gin engine with every spec §6 endpoint wired:
// POST /tools/:name for the tool dispatch surface, GET /tools/:name/schema
// for its declared input schema, POST /auth/authenticate as a convenience
// alias for the authenticate_agent tool, GET /ws/sessions/:session_id for
// the real-time channel, POST /broadcast/:session_id for the internal
// bridge, and an unauthenticated GET /metrics Prometheus scrape endpoint.
func (s *Server) NewRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(httpmw.RequestID())
	r.Use(httpmw.StructuredLogger())
	r.Use(httpmw.SecurityHeaders())
	r.Use(httpmw.SizeLimit(httpmw.MaxToolArgsSize))

	timeout := s.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	r.Use(httpmw.Timeout(timeout, "/ws/"))

	r.GET("/health", s.handleHealth)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/tools/:name/schema", s.handleToolSchema)

	authed := r.Group("/")
	authed.Use(resolveIdentity(s.NewManager))
	{
		authed.POST("/tools/:name", s.handleToolCall)
		authed.POST("/auth/authenticate", s.handleAuthenticate)
		authed.GET("/ws/sessions/:session_id", s.handleWebSocket)
	}

	bridge := r.Group("/broadcast")
	bridge.Use(httpmw.BridgeAuth(s.BridgeSharedSecret))
	bridge.POST("/:session_id", s.handleBroadcastBridge)

	return r
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(200, gin.H{"status": "ok"})
}
