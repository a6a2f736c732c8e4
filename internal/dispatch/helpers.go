package dispatch

import "github.com/sharedcontext/server/internal/audit"

// auditRecord builds an audit.Record for a dispatch-layer event. resource
// and action are optional per spec §3.
func auditRecord(eventType, agentID string, sessionID *string, metadata map[string]interface{}) audit.Record {
	return audit.Record{EventType: eventType, AgentID: agentID, SessionID: sessionID, Metadata: metadata}
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func int64Ptr(v int64) *int64 {
	return &v
}
