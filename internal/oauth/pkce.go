package oauth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

// pkcePair is a freshly generated verifier/challenge pair for the
// authorization-code-with-PKCE flow. The verifier never leaves the
// process; only the challenge is sent to the authorization endpoint.
type pkcePair struct {
	verifier  string
	challenge string
}

// newPKCEPair generates a verifier per RFC 7636 §4.1 (43-128 characters
// from the unreserved character set, here base64url of 32 random bytes)
// and its S256 challenge.
func newPKCEPair() (pkcePair, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return pkcePair{}, fmt.Errorf("oauth: generating PKCE verifier: %w", err)
	}
	verifier := base64.RawURLEncoding.EncodeToString(raw)
	sum := sha256.Sum256([]byte(verifier))
	challenge := base64.RawURLEncoding.EncodeToString(sum[:])
	return pkcePair{verifier: verifier, challenge: challenge}, nil
}

// newState generates an opaque CSRF-resistant state value to embed in
// the authorization URL and compare against the callback.
func newState() (string, error) {
	raw := make([]byte, 16)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("oauth: generating state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}
