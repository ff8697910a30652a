// Package oauth implements the OAuth Token Manager (C9): a PKCE
// authorization-code state machine, pluggable token storage, and a
// singleflight-guarded refresh path so concurrent callers of
// get_valid_token share one in-flight refresh.
package oauth

import (
	"time"
)

// Token is the persisted OAuth token record.
type Token struct {
	AccessToken      string `json:"access_token"`
	RefreshToken     string `json:"refresh_token,omitempty"`
	TokenType        string `json:"token_type"`
	ExpiresInSeconds *int64 `json:"expires_in_seconds,omitempty"`
	Scope            string `json:"scope,omitempty"`
	IssuedAtMS       int64  `json:"issued_at_ms"`
}

// refreshBuffer is the default safety margin before declared expiry at
// which a token is considered expired.
const refreshBuffer = time.Hour

// Expired reports whether t is expired as of now, applying refreshBuffer.
func (t Token) Expired(now time.Time) bool {
	if t.ExpiresInSeconds == nil {
		return false
	}
	expiresAtMS := t.IssuedAtMS + (*t.ExpiresInSeconds)*1000
	thresholdMS := expiresAtMS - refreshBuffer.Milliseconds()
	return now.UnixMilli() >= thresholdMS
}

// EqualModuloIssuedAt compares two records for equality modulo
// IssuedAtMS, which a refresh is expected to bump even when every
// other field round-trips.
func (t Token) EqualModuloIssuedAt(other Token) bool {
	return t.AccessToken == other.AccessToken &&
		t.RefreshToken == other.RefreshToken &&
		t.TokenType == other.TokenType &&
		t.Scope == other.Scope &&
		equalExpiry(t.ExpiresInSeconds, other.ExpiresInSeconds)
}

func equalExpiry(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
