package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKeyring(t *testing.T) *Keyring {
	t.Helper()
	kr, err := NewKeyring("a-signing-key-at-least-16-bytes", "MDEyMzQ1Njc4OTAxMjM0NTY3ODkwMTIzNDU2Nzg5MDE=")
	require.NoError(t, err)
	return kr
}

func TestSignAndParseCapabilityToken_RoundTrips(t *testing.T) {
	kr := testKeyring(t)

	signed, expiresAt, err := signCapabilityToken(kr, "agent-1", "claude", []Permission{PermRead, PermWrite}, time.Hour)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().UTC().Add(time.Hour), expiresAt, 2*time.Second)

	claims, err := parseCapabilityToken(kr, signed)
	require.NoError(t, err)
	assert.Equal(t, "agent-1", claims.AgentID)
	assert.Equal(t, "claude", claims.AgentType)
	assert.True(t, claims.HasPermission(PermRead))
	assert.True(t, claims.HasPermission(PermWrite))
	assert.False(t, claims.HasPermission(PermAdmin))
}

func TestParseCapabilityToken_RejectsWrongSigningKey(t *testing.T) {
	kr := testKeyring(t)
	other, err := NewKeyring("a-different-signing-key-16bytes", "MDEyMzQ1Njc4OTAxMjM0NTY3ODkwMTIzNDU2Nzg5MDE=")
	require.NoError(t, err)

	signed, _, err := signCapabilityToken(kr, "agent-1", "claude", []Permission{PermRead}, time.Hour)
	require.NoError(t, err)

	_, err = parseCapabilityToken(other, signed)
	assert.Error(t, err)
}

func TestParseCapabilityToken_RejectsExpiredToken(t *testing.T) {
	kr := testKeyring(t)

	signed, _, err := signCapabilityToken(kr, "agent-1", "claude", []Permission{PermRead}, -time.Hour)
	require.NoError(t, err)

	_, err = parseCapabilityToken(kr, signed)
	assert.Error(t, err)
}

func TestSealAndOpenPayload_RoundTrips(t *testing.T) {
	kr := testKeyring(t)

	sealed, err := sealPayload(kr, []byte("a signed capability token string"))
	require.NoError(t, err)

	plaintext, err := openPayload(kr, sealed)
	require.NoError(t, err)
	assert.Equal(t, "a signed capability token string", string(plaintext))
}

func TestOpenPayload_RejectsTamperedCiphertext(t *testing.T) {
	kr := testKeyring(t)

	sealed, err := sealPayload(kr, []byte("original payload"))
	require.NoError(t, err)
	sealed[len(sealed)-1] ^= 0xFF

	_, err = openPayload(kr, sealed)
	assert.Error(t, err)
}

func TestNewKeyring_RejectsShortSigningKey(t *testing.T) {
	_, err := NewKeyring("short", "MDEyMzQ1Njc4OTAxMjM0NTY3ODkwMTIzNDU2Nzg5MDE=")
	assert.Error(t, err)
}

func TestNewKeyring_RejectsWrongLengthEncryptionKey(t *testing.T) {
	_, err := NewKeyring("a-signing-key-at-least-16-bytes", "dG9vc2hvcnQ=")
	assert.Error(t, err)
}
