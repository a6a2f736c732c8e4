package dispatch

import (
	"context"
	"encoding/json"

	"github.com/sharedcontext/server/internal/errors"
	"github.com/sharedcontext/server/internal/model"
)

type createSessionArgs struct {
	Purpose  string  `json:"purpose"`
	Metadata *string `json:"metadata,omitempty"`
}

func (d Deps) createSession(ctx context.Context, dctx Context, raw json.RawMessage) (interface{}, *errors.AppError) {
	var args createSessionArgs
	if err := decode(raw, &args); err != nil {
		return nil, err
	}

	session, err := d.Sessions.CreateSession(ctx, args.Purpose, args.Metadata, dctx.Identity.AgentID)
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"session_id": session.ID,
		"created_by": session.CreatedBy,
	}, nil
}

type getSessionArgs struct {
	SessionID string `json:"session_id"`
}

func (d Deps) getSession(ctx context.Context, dctx Context, raw json.RawMessage) (interface{}, *errors.AppError) {
	var args getSessionArgs
	if err := decode(raw, &args); err != nil {
		return nil, err
	}

	session, count, err := d.Sessions.GetSession(ctx, args.SessionID, dctx.Identity)
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"session_id":    session.ID,
		"purpose":       session.Purpose,
		"created_at":    unixFloat(session.CreatedAt),
		"updated_at":    unixFloat(session.UpdatedAt),
		"created_by":    session.CreatedBy,
		"active":        session.IsActive,
		"message_count": count,
	}, nil
}

type addMessageArgs struct {
	SessionID       string           `json:"session_id"`
	Content         string           `json:"content"`
	Visibility      model.Visibility `json:"visibility,omitempty"`
	Metadata        *string          `json:"metadata,omitempty"`
	ParentMessageID *int64           `json:"parent_message_id,omitempty"`
}

func (d Deps) addMessage(ctx context.Context, dctx Context, raw json.RawMessage) (interface{}, *errors.AppError) {
	var args addMessageArgs
	if err := decode(raw, &args); err != nil {
		return nil, err
	}

	msg, err := d.Sessions.AddMessage(ctx, args.SessionID, args.Content, args.Visibility, "", args.Metadata, args.ParentMessageID, dctx.Identity)
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"message_id": msg.ID,
		"timestamp":  unixFloat(msg.Timestamp),
	}, nil
}

type getMessagesArgs struct {
	SessionID        string            `json:"session_id"`
	Limit            int               `json:"limit,omitempty"`
	Offset           int               `json:"offset,omitempty"`
	VisibilityFilter *model.Visibility `json:"visibility_filter,omitempty"`
}

func (d Deps) getMessages(ctx context.Context, dctx Context, raw json.RawMessage) (interface{}, *errors.AppError) {
	var args getMessagesArgs
	if err := decode(raw, &args); err != nil {
		return nil, err
	}

	messages, err := d.Sessions.GetMessages(ctx, args.SessionID, args.Limit, args.Offset, args.VisibilityFilter, dctx.Identity)
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{"messages": renderMessages(messages)}, nil
}

type setMessageVisibilityArgs struct {
	MessageID     int64            `json:"message_id"`
	NewVisibility model.Visibility `json:"new_visibility"`
	Reason        string           `json:"reason,omitempty"`
}

func (d Deps) setMessageVisibility(ctx context.Context, dctx Context, raw json.RawMessage) (interface{}, *errors.AppError) {
	var args setMessageVisibilityArgs
	if err := decode(raw, &args); err != nil {
		return nil, err
	}
	if args.MessageID == 0 {
		return nil, errors.InvalidInput("message_id is required")
	}

	oldVisibility, err := d.Sessions.SetMessageVisibility(ctx, args.MessageID, args.NewVisibility, args.Reason, dctx.Identity)
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"message_id":     args.MessageID,
		"old_visibility": string(oldVisibility),
		"new_visibility": string(args.NewVisibility),
	}, nil
}

func renderMessages(messages []model.Message) []map[string]interface{} {
	out := make([]map[string]interface{}, len(messages))
	for i, m := range messages {
		out[i] = map[string]interface{}{
			"message_id":        m.ID,
			"session_id":        m.SessionID,
			"sender":            m.Sender,
			"sender_type":       m.SenderType,
			"content":           m.Content,
			"visibility":        string(m.Visibility),
			"message_type":      m.MessageType,
			"metadata":          m.Metadata,
			"timestamp":         unixFloat(m.Timestamp),
			"parent_message_id": m.ParentMessageID,
		}
	}
	return out
}
