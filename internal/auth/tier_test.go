package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sharedcontext/server/internal/model"
)

func TestTier(t *testing.T) {
	tests := []struct {
		name   string
		claims *CapabilityClaims
		want   model.AccessTier
	}{
		{"nil claims is anonymous", nil, model.TierAnonymous},
		{"admin permission wins", &CapabilityClaims{Permissions: []Permission{PermRead, PermWrite, PermAdmin}}, model.TierAdmin},
		{"write without admin is agent", &CapabilityClaims{Permissions: []Permission{PermRead, PermWrite}}, model.TierAgent},
		{"read only", &CapabilityClaims{Permissions: []Permission{PermRead}}, model.TierReadOnly},
		{"no permissions is anonymous", &CapabilityClaims{Permissions: nil}, model.TierAnonymous},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Tier(tt.claims))
		})
	}
}

func TestCanWriteAndCanAdminister(t *testing.T) {
	assert.True(t, CanWrite(model.TierAdmin))
	assert.True(t, CanWrite(model.TierAgent))
	assert.False(t, CanWrite(model.TierReadOnly))
	assert.False(t, CanWrite(model.TierAnonymous))

	assert.True(t, CanAdminister(model.TierAdmin))
	assert.False(t, CanAdminister(model.TierAgent))
}
