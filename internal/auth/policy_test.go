package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPolicy_Allowed(t *testing.T) {
	p := NewPolicy([]string{"orchestrator"})

	tests := []struct {
		name      string
		agentType string
		requested []Permission
		want      []Permission
	}{
		{
			name:      "read and write granted to any agent type",
			agentType: "claude",
			requested: []Permission{PermRead, PermWrite},
			want:      []Permission{PermRead, PermWrite},
		},
		{
			name:      "admin granted only to allow-listed agent type",
			agentType: "orchestrator",
			requested: []Permission{PermRead, PermAdmin},
			want:      []Permission{PermRead, PermAdmin},
		},
		{
			name:      "admin stripped for non-allow-listed agent type",
			agentType: "claude",
			requested: []Permission{PermAdmin},
			want:      []Permission{PermRead},
		},
		{
			name:      "empty request defaults to read",
			agentType: "claude",
			requested: nil,
			want:      []Permission{PermRead},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := p.Allowed(tt.agentType, tt.requested)
			assert.Equal(t, tt.want, got)
		})
	}
}
