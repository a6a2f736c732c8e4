package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckAPIKey(t *testing.T) {
	tests := []struct {
		name       string
		configured string
		presented  string
		want       bool
	}{
		{"matching keys", "super-secret-key", "super-secret-key", true},
		{"mismatched keys", "super-secret-key", "wrong-key", false},
		{"empty configured", "", "anything", false},
		{"empty presented", "super-secret-key", "", false},
		{"different lengths", "short", "a-much-longer-key", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CheckAPIKey(tt.configured, tt.presented))
		})
	}
}
