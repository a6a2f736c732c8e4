package api

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/sharedcontext/server/internal/api/httpmw"
	"github.com/sharedcontext/server/internal/dispatch"
	"github.com/sharedcontext/server/internal/errors"
)

// envelope is the success/error response shape every tool call renders
// (spec §6): {"success": true, "result": ...} or {"success": false,
// "error": ..., "code": ..., "details": ...}.
func writeResult(c *gin.Context, result interface{}) {
	c.JSON(http.StatusOK, gin.H{"success": true, "result": result})
}

func writeError(c *gin.Context, appErr *errors.AppError) {
	c.JSON(errors.StatusCode(appErr.Code), gin.H{
		"success": false, "error": appErr.Message, "code": appErr.Code, "details": appErr.Details,
	})
}

func readArgs(c *gin.Context) (json.RawMessage, *errors.AppError) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return nil, errors.InvalidInput("failed to read request body")
	}
	if len(body) == 0 {
		return json.RawMessage("{}"), nil
	}
	return json.RawMessage(body), nil
}

// handleToolCall dispatches POST /tools/:name to the matching registered
// handler. :name is the tool name exactly as listed in spec §6.
func (s *Server) handleToolCall(c *gin.Context) {
	args, argErr := readArgs(c)
	if argErr != nil {
		writeError(c, argErr)
		return
	}

	dctx := dispatch.Context{Identity: identityFrom(c), RequestID: httpmw.GetRequestID(c)}
	result, err := s.Registry.Dispatch(c.Request.Context(), dctx, c.Param("name"), args)
	if err != nil {
		writeError(c, err)
		return
	}
	writeResult(c, result)
}

// handleToolSchema serves a tool's declared input schema (spec §4.8, §9) so
// a strict client can validate or render a call's arguments before ever
// sending them. Unauthenticated: the schema itself carries no data any
// tier shouldn't see.
func (s *Server) handleToolSchema(c *gin.Context) {
	schema, ok := s.Registry.Schema(c.Param("name"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "unknown tool", "code": "NOT_FOUND"})
		return
	}
	if schema == nil {
		schema = json.RawMessage(`{"type":"object","properties":{}}`)
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", schema)
}

// handleAuthenticate is a friendlier alias for POST /tools/authenticate_agent,
// matching spec §6's explicit mention of an auth endpoint separate from the
// generic tool-call path.
func (s *Server) handleAuthenticate(c *gin.Context) {
	args, argErr := readArgs(c)
	if argErr != nil {
		writeError(c, argErr)
		return
	}

	dctx := dispatch.Context{Identity: identityFrom(c), RequestID: httpmw.GetRequestID(c)}
	result, err := s.Registry.Dispatch(c.Request.Context(), dctx, "authenticate_agent", args)
	if err != nil {
		writeError(c, err)
		return
	}
	writeResult(c, result)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// Tool callers are trusted backend agents, not browsers sharing
	// cookies with this origin — there is no session-riding risk to guard
	// against with an origin allowlist here.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleWebSocket upgrades GET /ws/sessions/:session_id and subscribes the
// connection to that session's event stream until it disconnects. The
// caller's protected token is resolved the same way as any other tool call
// (resolveIdentity ran in the route group), so an unauthenticated or
// insufficiently-privileged connection is rejected before the upgrade.
func (s *Server) handleWebSocket(c *gin.Context) {
	identity := identityFrom(c)
	if identity.AgentID == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"success": false, "error": "a valid token is required to subscribe", "code": "AUTH_FAILED",
		})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	s.Hub.Subscribe(conn, c.Param("session_id"), identity.AgentID)
}

type broadcastRequest struct {
	Type string                 `json:"type"`
	Data map[string]interface{} `json:"data"`
}

// handleBroadcastBridge implements the internal bridge (spec §6):
// POST /broadcast/{session_id} with {type, data}, used by co-hosted
// components to push a post-commit event without going through a tool
// call. It publishes straight to the Hub, bypassing dispatch entirely —
// this endpoint is not a tool and carries no agent identity.
func (s *Server) handleBroadcastBridge(c *gin.Context) {
	var req broadcastRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Type == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false})
		return
	}

	s.Hub.Publish(c.Param("session_id"), req.Type, req.Data)
	c.JSON(http.StatusOK, gin.H{"success": true})
}
