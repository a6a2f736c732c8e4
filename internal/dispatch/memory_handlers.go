package dispatch

import (
	"context"
	"encoding/json"
	"time"

	"github.com/sharedcontext/server/internal/errors"
	"github.com/sharedcontext/server/internal/memory"
)

type setMemoryArgs struct {
	Key        string  `json:"key"`
	Value      string  `json:"value"`
	SessionID  *string `json:"session_id,omitempty"`
	TTLSeconds *int64  `json:"ttl_seconds,omitempty"`
	Overwrite  bool    `json:"overwrite,omitempty"`
	Metadata   *string `json:"metadata,omitempty"`
}

func (d Deps) setMemory(ctx context.Context, dctx Context, raw json.RawMessage) (interface{}, *errors.AppError) {
	var args setMemoryArgs
	if err := decode(raw, &args); err != nil {
		return nil, err
	}

	entry, err := d.Memory.SetMemory(ctx, dctx.Identity.AgentID, args.Key, args.Value, args.SessionID, args.TTLSeconds, args.Overwrite, args.Metadata)
	if err != nil {
		return nil, err
	}

	d.Audit.Write(ctx, auditRecord("memory_set", dctx.Identity.AgentID, args.SessionID, map[string]interface{}{"key": args.Key}))

	return map[string]interface{}{
		"key":        entry.Key,
		"updated_at": unixFloat(entry.UpdatedAt),
		"expires_at": expiresAtFloat(entry.ExpiresAt),
	}, nil
}

type getMemoryArgs struct {
	Key       string  `json:"key"`
	SessionID *string `json:"session_id,omitempty"`
}

func (d Deps) getMemory(ctx context.Context, dctx Context, raw json.RawMessage) (interface{}, *errors.AppError) {
	var args getMemoryArgs
	if err := decode(raw, &args); err != nil {
		return nil, err
	}

	entry, err := d.Memory.GetMemory(ctx, dctx.Identity.AgentID, args.Key, args.SessionID)
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"key":        entry.Key,
		"value":      entry.Value,
		"metadata":   entry.Metadata,
		"created_at": unixFloat(entry.CreatedAt),
		"updated_at": unixFloat(entry.UpdatedAt),
		"expires_at": expiresAtFloat(entry.ExpiresAt),
	}, nil
}

type listMemoryArgs struct {
	SessionID *string `json:"session_id,omitempty"`
	Scope     string  `json:"scope,omitempty"`
	Prefix    string  `json:"prefix,omitempty"`
	Limit     int     `json:"limit,omitempty"`
}

func (d Deps) listMemory(ctx context.Context, dctx Context, raw json.RawMessage) (interface{}, *errors.AppError) {
	var args listMemoryArgs
	if err := decode(raw, &args); err != nil {
		return nil, err
	}

	scope := memory.Scope(args.Scope)
	entries, err := d.Memory.ListMemory(ctx, dctx.Identity.AgentID, args.SessionID, scope, args.Prefix, args.Limit)
	if err != nil {
		return nil, err
	}

	rendered := make([]map[string]interface{}, len(entries))
	for i, e := range entries {
		rendered[i] = map[string]interface{}{
			"key":        e.Key,
			"value":      e.Value,
			"session_id": e.SessionID,
			"metadata":   e.Metadata,
			"updated_at": unixFloat(e.UpdatedAt),
			"expires_at": expiresAtFloat(e.ExpiresAt),
		}
	}
	return map[string]interface{}{"entries": rendered}, nil
}

// expiresAtFloat renders a possibly-absent expiry as a nullable envelope
// field rather than a zero-value timestamp.
func expiresAtFloat(ts *time.Time) interface{} {
	if ts == nil {
		return nil
	}
	return unixFloat(*ts)
}
