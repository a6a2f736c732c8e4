package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	issuer   = "shared-context-server"
	audience = "shared-context-tools"
	// clockSkew is the tolerance applied to exp/nbf/iat checks (spec §4.2:
	// "tolerates ±5 minutes clock skew").
	clockSkew = 5 * time.Minute
)

// Permission is one of the capability strings a capability token can carry.
type Permission string

const (
	PermRead  Permission = "read"
	PermWrite Permission = "write"
	PermAdmin Permission = "admin"
)

// CapabilityClaims is the signed, time-bounded statement of identity and
// permissions carried inside a capability token (spec §4.2).
type CapabilityClaims struct {
	AgentID     string       `json:"agent_id"`
	AgentType   string       `json:"agent_type"`
	Permissions []Permission `json:"permissions"`
	jwt.RegisteredClaims
}

// HasPermission reports whether c carries perm.
func (c CapabilityClaims) HasPermission(perm Permission) bool {
	for _, p := range c.Permissions {
		if p == perm {
			return true
		}
	}
	return false
}

// signCapabilityToken creates and signs a new capability token string.
func signCapabilityToken(kr *Keyring, agentID, agentType string, perms []Permission, ttl time.Duration) (string, time.Time, error) {
	now := time.Now().UTC()
	expiresAt := now.Add(ttl)

	claims := CapabilityClaims{
		AgentID:     agentID,
		AgentType:   agentType,
		Permissions: perms,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Audience:  jwt.ClaimStrings{audience},
			Subject:   agentID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(kr.SigningKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign capability token: %w", err)
	}
	return signed, expiresAt, nil
}

// parseCapabilityToken validates signature, algorithm, issuer, audience,
// and expiration (with clock-skew tolerance) and returns the claims.
func parseCapabilityToken(kr *Keyring, tokenString string) (*CapabilityClaims, error) {
	claims := &CapabilityClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Method.Alg())
		}
		return kr.SigningKey, nil
	},
		jwt.WithIssuer(issuer),
		jwt.WithAudience(audience),
		jwt.WithLeeway(clockSkew),
		jwt.WithValidMethods([]string{"HS256"}),
	)
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid capability token")
	}
	return claims, nil
}
