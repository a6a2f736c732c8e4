package dispatch

import "encoding/json"

// Each tool's input schema is a literal JSON Schema document, declared
// next to the rest of the registry wiring rather than generated from the
// handler's args struct — the schema is the externally visible contract
// (spec §4.8, §9) and is reviewed independently of the Go type used to
// decode it. Optional object-valued fields (every "metadata" parameter)
// are declared as {"type":"object","additionalProperties":true} rather
// than a nullable/union shape, since strict clients reject the latter
// (spec §9).

var schemaAuthenticateAgent = json.RawMessage(`{
	"type": "object",
	"properties": {
		"agent_id": {"type": "string", "description": "Caller-chosen unique identifier for the agent"},
		"agent_type": {"type": "string", "description": "Agent type; governs admin-permission eligibility"},
		"api_key": {"type": "string", "description": "Shared deployment API key"},
		"requested_permissions": {
			"type": "array",
			"items": {"type": "string"},
			"description": "Permissions the agent is requesting on its capability token"
		}
	},
	"required": ["agent_id", "agent_type", "api_key"]
}`)

var schemaRefreshToken = json.RawMessage(`{
	"type": "object",
	"properties": {
		"current_token": {"type": "string", "description": "The protected token to refresh"}
	},
	"required": ["current_token"]
}`)

var schemaCreateSession = json.RawMessage(`{
	"type": "object",
	"properties": {
		"purpose": {"type": "string", "description": "Human-readable description of the session's purpose"},
		"metadata": {"type": "object", "additionalProperties": true, "description": "Caller-defined session metadata"}
	},
	"required": ["purpose"]
}`)

var schemaGetSession = json.RawMessage(`{
	"type": "object",
	"properties": {
		"session_id": {"type": "string"}
	},
	"required": ["session_id"]
}`)

var schemaAddMessage = json.RawMessage(`{
	"type": "object",
	"properties": {
		"session_id": {"type": "string"},
		"content": {"type": "string"},
		"visibility": {"type": "string", "enum": ["public", "private", "agent_only", "admin_only"]},
		"metadata": {"type": "object", "additionalProperties": true},
		"parent_message_id": {"type": "integer", "description": "Message this one is a reply to"}
	},
	"required": ["session_id", "content"]
}`)

var schemaGetMessages = json.RawMessage(`{
	"type": "object",
	"properties": {
		"session_id": {"type": "string"},
		"limit": {"type": "integer"},
		"offset": {"type": "integer"},
		"visibility_filter": {"type": "string", "enum": ["public", "private", "agent_only", "admin_only"]}
	},
	"required": ["session_id"]
}`)

var schemaSetMessageVisibility = json.RawMessage(`{
	"type": "object",
	"properties": {
		"message_id": {"type": "integer"},
		"new_visibility": {"type": "string", "enum": ["public", "private", "agent_only", "admin_only"]},
		"reason": {"type": "string"}
	},
	"required": ["message_id", "new_visibility"]
}`)

var schemaSearchContext = json.RawMessage(`{
	"type": "object",
	"properties": {
		"session_id": {"type": "string"},
		"query": {"type": "string"},
		"threshold": {"type": "integer", "description": "Minimum partial-ratio score, 0-100"},
		"limit": {"type": "integer"},
		"search_scope": {"type": "string", "description": "Visibility scope to search within"}
	},
	"required": ["session_id", "query"]
}`)

var schemaSearchBySender = json.RawMessage(`{
	"type": "object",
	"properties": {
		"session_id": {"type": "string"},
		"sender": {"type": "string"},
		"limit": {"type": "integer"}
	},
	"required": ["session_id", "sender"]
}`)

var schemaSearchByTimerange = json.RawMessage(`{
	"type": "object",
	"properties": {
		"session_id": {"type": "string"},
		"start": {"type": "number", "description": "Unix timestamp, inclusive"},
		"end": {"type": "number", "description": "Unix timestamp, inclusive"},
		"limit": {"type": "integer"}
	},
	"required": ["session_id", "start", "end"]
}`)

var schemaSetMemory = json.RawMessage(`{
	"type": "object",
	"properties": {
		"key": {"type": "string"},
		"value": {"type": "string"},
		"session_id": {"type": "string", "description": "Scopes the entry to a session; omit for global scope"},
		"ttl_seconds": {"type": "integer", "description": "Seconds until expiry; must be greater than 0"},
		"overwrite": {"type": "boolean"},
		"metadata": {"type": "object", "additionalProperties": true}
	},
	"required": ["key", "value"]
}`)

var schemaGetMemory = json.RawMessage(`{
	"type": "object",
	"properties": {
		"key": {"type": "string"},
		"session_id": {"type": "string"}
	},
	"required": ["key"]
}`)

var schemaListMemory = json.RawMessage(`{
	"type": "object",
	"properties": {
		"session_id": {"type": "string"},
		"scope": {"type": "string", "enum": ["global", "session", "all"]},
		"prefix": {"type": "string"},
		"limit": {"type": "integer"}
	}
}`)

var schemaGetUsageGuidance = json.RawMessage(`{
	"type": "object",
	"properties": {
		"guidance_type": {"type": "string", "enum": ["overview", "visibility", "best_practices"]}
	}
}`)

var schemaGetAuditLog = json.RawMessage(`{
	"type": "object",
	"properties": {
		"agent_id": {"type": "string"},
		"session_id": {"type": "string"},
		"event_type": {"type": "string"},
		"since": {"type": "number", "description": "Unix timestamp; only records at or after this time"},
		"limit": {"type": "integer"}
	}
}`)

var schemaGetPerformanceMetrics = json.RawMessage(`{
	"type": "object",
	"properties": {}
}`)
