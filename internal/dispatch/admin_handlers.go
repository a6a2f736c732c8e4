package dispatch

import (
	"context"
	"encoding/json"

	"github.com/sharedcontext/server/internal/audit"
	"github.com/sharedcontext/server/internal/errors"
	"github.com/sharedcontext/server/internal/metrics"
)

type getAuditLogArgs struct {
	AgentID   string   `json:"agent_id,omitempty"`
	SessionID string   `json:"session_id,omitempty"`
	EventType string   `json:"event_type,omitempty"`
	Since     *float64 `json:"since,omitempty"`
	Limit     int      `json:"limit,omitempty"`
}

func (d Deps) getAuditLog(ctx context.Context, dctx Context, raw json.RawMessage) (interface{}, *errors.AppError) {
	var args getAuditLogArgs
	if err := decode(raw, &args); err != nil {
		return nil, err
	}

	filter := audit.Filter{
		AgentID:   args.AgentID,
		SessionID: args.SessionID,
		EventType: args.EventType,
		Limit:     args.Limit,
	}
	if args.Since != nil {
		t := unixFloatToTime(*args.Since)
		filter.Since = &t
	}

	records, err := d.Audit.List(ctx, filter)
	if err != nil {
		return nil, errors.DatabaseUnavailable(err)
	}

	entries := make([]map[string]interface{}, len(records))
	for i, r := range records {
		entries[i] = map[string]interface{}{
			"id":         r.ID,
			"timestamp":  unixFloat(r.Timestamp),
			"event_type": r.EventType,
			"agent_id":   r.AgentID,
			"session_id": r.SessionID,
			"resource":   r.Resource,
			"action":     r.Action,
			"result":     r.Result,
			"metadata":   r.Metadata,
		}
	}
	return map[string]interface{}{"entries": entries}, nil
}

func (d Deps) getPerformanceMetrics(ctx context.Context, dctx Context, raw json.RawMessage) (interface{}, *errors.AppError) {
	snap := metrics.Collect()
	return map[string]interface{}{
		"cpu_percent":     snap.CPUPercent,
		"memory_rss_mb":   snap.MemoryRSSMB,
		"memory_total_mb": snap.MemoryTotalMB,
		"goroutine_count": snap.GoroutineCount,
		"uptime_seconds":  snap.UptimeSeconds,
		"collected_at":    unixFloat(snap.CollectedAt),
	}, nil
}
