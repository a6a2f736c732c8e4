package dispatch

import (
	"context"
	"encoding/json"
	"time"

	"github.com/sharedcontext/server/internal/errors"
	"github.com/sharedcontext/server/internal/model"
	"github.com/sharedcontext/server/internal/search"
)

type searchContextArgs struct {
	SessionID string `json:"session_id"`
	Query     string `json:"query"`
	Threshold int    `json:"threshold,omitempty"`
	Limit     int    `json:"limit,omitempty"`
	Scope     string `json:"search_scope,omitempty"`
}

func (d Deps) searchContext(ctx context.Context, dctx Context, raw json.RawMessage) (interface{}, *errors.AppError) {
	var args searchContextArgs
	if err := decode(raw, &args); err != nil {
		return nil, err
	}

	results, err := d.Search.SearchContext(ctx, args.SessionID, args.Query, args.Threshold, args.Limit, search.Scope(args.Scope), dctx.Identity)
	if err != nil {
		return nil, err
	}

	rendered := make([]map[string]interface{}, len(results))
	for i, r := range results {
		entry := renderMessages([]model.Message{r.Message})[0]
		entry["score"] = r.Score
		rendered[i] = entry
	}
	return map[string]interface{}{"results": rendered}, nil
}

type searchBySenderArgs struct {
	SessionID string `json:"session_id"`
	Sender    string `json:"sender"`
	Limit     int    `json:"limit,omitempty"`
}

func (d Deps) searchBySender(ctx context.Context, dctx Context, raw json.RawMessage) (interface{}, *errors.AppError) {
	var args searchBySenderArgs
	if err := decode(raw, &args); err != nil {
		return nil, err
	}

	messages, err := d.Search.SearchBySender(ctx, args.SessionID, args.Sender, args.Limit, dctx.Identity)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"messages": renderMessages(messages)}, nil
}

type searchByTimerangeArgs struct {
	SessionID string  `json:"session_id"`
	Start     float64 `json:"start"`
	End       float64 `json:"end"`
	Limit     int     `json:"limit,omitempty"`
}

func (d Deps) searchByTimerange(ctx context.Context, dctx Context, raw json.RawMessage) (interface{}, *errors.AppError) {
	var args searchByTimerangeArgs
	if err := decode(raw, &args); err != nil {
		return nil, err
	}

	start := unixFloatToTime(args.Start)
	end := unixFloatToTime(args.End)

	messages, err := d.Search.SearchByTimerange(ctx, args.SessionID, start, end, args.Limit, dctx.Identity)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"messages": renderMessages(messages)}, nil
}

// unixFloatToTime is the inverse of unixFloat, accepting the same
// seconds-precision Unix float the envelope format uses for timestamps.
func unixFloatToTime(f float64) time.Time {
	return time.Unix(0, int64(f*float64(time.Second))).UTC()
}
