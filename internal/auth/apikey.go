package auth

import "crypto/subtle"

// CheckAPIKey reports whether presented matches the operator-configured API
// key, using a constant-time comparison so response timing cannot leak how
// many leading bytes matched. This gates authenticate_agent: a client must
// present the static API key before it is handed a capability token at all.
func CheckAPIKey(configured, presented string) bool {
	if configured == "" || presented == "" {
		return false
	}
	if len(configured) != len(presented) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(configured), []byte(presented)) == 1
}
