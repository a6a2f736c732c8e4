package dispatch

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sharedcontext/server/internal/errors"
	"github.com/sharedcontext/server/internal/model"
	"github.com/sharedcontext/server/internal/ratelimit"
	"github.com/sharedcontext/server/internal/sessioncore"
)

func echoHandler(ctx context.Context, dctx Context, args json.RawMessage) (interface{}, *errors.AppError) {
	return map[string]interface{}{"ok": true}, nil
}

func panicHandler(ctx context.Context, dctx Context, args json.RawMessage) (interface{}, *errors.AppError) {
	panic("boom")
}

func identity(tier model.AccessTier) sessioncore.Identity {
	return sessioncore.Identity{AgentID: "agent-1", AgentType: "worker", Tier: tier, HasAdmin: tier == model.TierAdmin}
}

func TestDispatch_UnknownToolReturnsNotFound(t *testing.T) {
	r := NewRegistry(nil)
	_, err := r.Dispatch(context.Background(), Context{Identity: identity(model.TierAdmin)}, "no_such_tool", nil)
	require.NotNil(t, err)
	assert.Equal(t, errors.CodeNotFound, err.Code)
}

func TestDispatch_InsufficientTierIsDenied(t *testing.T) {
	r := NewRegistry(nil)
	r.Register("create_session", PermWrite, nil, echoHandler)

	_, err := r.Dispatch(context.Background(), Context{Identity: identity(model.TierReadOnly)}, "create_session", nil)
	require.NotNil(t, err)
	assert.Equal(t, errors.CodePermissionDenied, err.Code)
}

func TestDispatch_SufficientTierSucceeds(t *testing.T) {
	r := NewRegistry(nil)
	r.Register("create_session", PermWrite, nil, echoHandler)

	result, err := r.Dispatch(context.Background(), Context{Identity: identity(model.TierAgent)}, "create_session", nil)
	require.Nil(t, err)
	assert.Equal(t, map[string]interface{}{"ok": true}, result)
}

func TestDispatch_RateLimitExceededIsRejected(t *testing.T) {
	limiter := ratelimit.New(1, 1)
	r := NewRegistry(limiter)
	r.Register("add_message", PermWrite, nil, echoHandler)

	dctx := Context{Identity: identity(model.TierAgent)}
	_, err := r.Dispatch(context.Background(), dctx, "add_message", nil)
	require.Nil(t, err)

	_, err = r.Dispatch(context.Background(), dctx, "add_message", nil)
	require.NotNil(t, err)
	assert.Equal(t, errors.CodeRateLimited, err.Code)
}

func TestDispatch_PermNoneSkipsRateLimit(t *testing.T) {
	limiter := ratelimit.New(1, 1)
	r := NewRegistry(limiter)
	r.Register("authenticate_agent", PermNone, nil, echoHandler)

	dctx := Context{Identity: identity(model.TierAnonymous)}
	for i := 0; i < 5; i++ {
		_, err := r.Dispatch(context.Background(), dctx, "authenticate_agent", nil)
		require.Nil(t, err)
	}
}

func TestDispatch_HandlerPanicRecoversToInternalError(t *testing.T) {
	r := NewRegistry(nil)
	r.Register("get_session", PermRead, nil, panicHandler)

	_, err := r.Dispatch(context.Background(), Context{Identity: identity(model.TierAgent)}, "get_session", nil)
	require.NotNil(t, err)
	assert.Equal(t, errors.CodeInternal, err.Code)
}

func TestRegistry_SchemaIsDeclaredForEveryRegisteredTool(t *testing.T) {
	r := NewRegistry(nil)
	RegisterAll(r, Deps{})

	for _, name := range r.Names() {
		schema, ok := r.Schema(name)
		require.True(t, ok, "tool %s missing from registry", name)
		require.NotNil(t, schema, "tool %s has no declared input schema", name)

		var parsed map[string]interface{}
		require.NoError(t, json.Unmarshal(schema, &parsed), "tool %s schema is not valid JSON", name)
		assert.Equal(t, "object", parsed["type"], "tool %s schema must be object-typed", name)
	}
}

func TestRegistry_SchemaUnknownToolReturnsFalse(t *testing.T) {
	r := NewRegistry(nil)
	_, ok := r.Schema("no_such_tool")
	assert.False(t, ok)
}

func TestPermissionSatisfied_TierOrdering(t *testing.T) {
	cases := []struct {
		required Permission
		tier     model.AccessTier
		want     bool
	}{
		{PermRead, model.TierAnonymous, false},
		{PermRead, model.TierReadOnly, true},
		{PermWrite, model.TierReadOnly, false},
		{PermWrite, model.TierAgent, true},
		{PermAdmin, model.TierAgent, false},
		{PermAdmin, model.TierAdmin, true},
		{PermAny, model.TierAnonymous, true},
	}
	for _, tc := range cases {
		got := permissionSatisfied(tc.required, identity(tc.tier))
		assert.Equal(t, tc.want, got, "required=%s tier=%s", tc.required, tc.tier)
	}
}
