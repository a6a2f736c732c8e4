package auth

import (
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

// sealPayload encrypts plaintext (the signed capability token string) with
// the keyring's AEAD key. The nonce is prepended to the ciphertext so a
// single []byte column holds everything Resolve needs.
func sealPayload(kr *Keyring, plaintext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(kr.EncryptionKey[:])
	if err != nil {
		return nil, fmt.Errorf("init aead: %w", err)
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}
	sealed := aead.Seal(nonce, nonce, plaintext, nil)
	return sealed, nil
}

// openPayload decrypts a value produced by sealPayload. Any tampering or
// wrong key causes this to fail, which callers surface as INVALID_TOKEN
// (spec §7: "Cryptographic failures on token resolution surface as
// INVALID_TOKEN").
func openPayload(kr *Keyring, sealed []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(kr.EncryptionKey[:])
	if err != nil {
		return nil, fmt.Errorf("init aead: %w", err)
	}
	if len(sealed) < aead.NonceSize() {
		return nil, fmt.Errorf("ciphertext too short")
	}
	nonce, ct := sealed[:aead.NonceSize()], sealed[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, ct, nil)
	if err != nil {
		return nil, fmt.Errorf("decrypt payload: %w", err)
	}
	return plaintext, nil
}
