package dispatch

import (
	"context"
	"encoding/json"

	"github.com/sharedcontext/server/internal/auth"
	"github.com/sharedcontext/server/internal/errors"
	"github.com/sharedcontext/server/internal/store"
)

type authenticateAgentArgs struct {
	AgentID              string   `json:"agent_id"`
	AgentType            string   `json:"agent_type"`
	APIKey               string   `json:"api_key"`
	RequestedPermissions []string `json:"requested_permissions"`
}

func (d Deps) authenticateAgent(ctx context.Context, dctx Context, raw json.RawMessage) (interface{}, *errors.AppError) {
	var args authenticateAgentArgs
	if err := decode(raw, &args); err != nil {
		return nil, err
	}
	if args.AgentID == "" || args.AgentType == "" {
		return nil, errors.InvalidInput("agent_id and agent_type are required")
	}
	if !auth.CheckAPIKey(d.APIKey, args.APIKey) {
		return nil, errors.AuthFailed("invalid api key")
	}

	requested := make([]auth.Permission, 0, len(args.RequestedPermissions))
	for _, p := range args.RequestedPermissions {
		requested = append(requested, auth.Permission(p))
	}

	result, err := d.NewManager().Issue(ctx, args.AgentID, args.AgentType, requested)
	if err != nil {
		return nil, errors.Internal(err)
	}

	d.Audit.Write(ctx, auditRecord("agent_authenticated", args.AgentID, nil, nil))

	return map[string]interface{}{
		"token":       result.ProtectedToken,
		"permissions": permissionStrings(result.Permissions),
		"expires_at":  unixFloat(result.ExpiresAt),
	}, nil
}

type refreshTokenArgs struct {
	CurrentToken string `json:"current_token"`
}

func (d Deps) refreshToken(ctx context.Context, dctx Context, raw json.RawMessage) (interface{}, *errors.AppError) {
	var args refreshTokenArgs
	if err := decode(raw, &args); err != nil {
		return nil, err
	}
	if args.CurrentToken == "" {
		return nil, errors.InvalidInput("current_token is required")
	}

	result, err := d.NewManager().Refresh(ctx, args.CurrentToken)
	if err != nil {
		return nil, errors.InvalidToken("current_token is invalid or expired")
	}

	return map[string]interface{}{
		"token":      result.ProtectedToken,
		"expires_in": result.ExpiresAt.Sub(store.Now()).Seconds(),
		"expires_at": unixFloat(result.ExpiresAt),
	}, nil
}

func permissionStrings(perms []auth.Permission) []string {
	out := make([]string, len(perms))
	for i, p := range perms {
		out[i] = string(p)
	}
	return out
}
