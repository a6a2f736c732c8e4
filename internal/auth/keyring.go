// Package auth implements the token manager (spec §4.2) and the
// auth/permission core (spec §4.3): capability tokens signed with HMAC,
// protected tokens that wrap them in encrypted-at-rest opaque handles, and
// derivation of the four access tiers from a resolved capability token.
//
// Per spec §4.2 and §9, token-manager state is request-scoped rather than
// a mutable process singleton: Keyring holds the two required secrets
// loaded once at startup and is immutable thereafter; Manager is
// constructed per request (or per logical unit of work) from a Keyring and
// a store.Store, carrying no mutable state of its own beyond what it reads
// from and writes to the database.
package auth

import (
	"encoding/base64"
	"fmt"
)

// Keyring holds the two secrets required at startup: the HMAC signing key
// for capability tokens and the AEAD key for encrypting protected-token
// payloads at rest. Both are required; there is no random fallback,
// because a randomly generated key would make every token unverifiable
// across a restart.
type Keyring struct {
	SigningKey    []byte
	EncryptionKey [32]byte
}

// NewKeyring validates and assembles a Keyring from configuration values.
// signingKey must be non-empty; encryptionKeyB64 must base64-decode to
// exactly 32 bytes (a chacha20poly1305 key).
func NewKeyring(signingKey, encryptionKeyB64 string) (*Keyring, error) {
	if len(signingKey) < 16 {
		return nil, fmt.Errorf("signing key must be at least 16 bytes")
	}
	raw, err := base64.StdEncoding.DecodeString(encryptionKeyB64)
	if err != nil {
		return nil, fmt.Errorf("encryption key must be base64: %w", err)
	}
	if len(raw) != 32 {
		return nil, fmt.Errorf("encryption key must decode to 32 bytes, got %d", len(raw))
	}
	kr := &Keyring{SigningKey: []byte(signingKey)}
	copy(kr.EncryptionKey[:], raw)
	return kr, nil
}
