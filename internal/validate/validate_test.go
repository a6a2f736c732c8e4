package validate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sharedcontext/server/internal/errors"
)

func TestSessionID(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{"valid minimum length", "abcdefgh", false},
		{"valid with hyphen and underscore", "abc-123_XYZ", false},
		{"too short", "abc123", true},
		{"too long", strings.Repeat("a", 65), true},
		{"invalid character", "abc123!!", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := SessionID(tt.id)
			if tt.wantErr {
				assert.NotNil(t, err)
				assert.Equal(t, errors.CodeInvalidInput, err.Code)
			} else {
				assert.Nil(t, err)
			}
		})
	}
}

func TestContent(t *testing.T) {
	assert.Nil(t, Content("hello"))
	assert.NotNil(t, Content(""))

	atBoundary := strings.Repeat("a", 100000)
	assert.Nil(t, Content(atBoundary))

	overBoundary := strings.Repeat("a", 100001)
	assert.NotNil(t, Content(overBoundary))
}

func TestKey(t *testing.T) {
	assert.Nil(t, Key("a"))
	assert.Nil(t, Key(strings.Repeat("k", 255)))
	assert.NotNil(t, Key(""))
	assert.NotNil(t, Key(strings.Repeat("k", 256)))
}

func TestPurpose(t *testing.T) {
	assert.Nil(t, Purpose("build a widget"))
	assert.NotNil(t, Purpose(""))
	assert.NotNil(t, Purpose("   "))
	assert.NotNil(t, Purpose(strings.Repeat("p", 1001)))
}

func TestSanitize_StripsScriptTags(t *testing.T) {
	got := Sanitize(`hello <script>alert(1)</script> world`)
	assert.NotContains(t, got, "<script>")
	assert.Contains(t, got, "hello")
	assert.Contains(t, got, "world")
}

func TestContent_BoundaryUnaffectedBySanitization(t *testing.T) {
	atBoundary := strings.Repeat("a", 100000)
	require := Content(atBoundary)
	assert.Nil(t, require)
	// Sanitizing plain text at the boundary must not change its length.
	assert.Equal(t, atBoundary, Sanitize(atBoundary))
}
