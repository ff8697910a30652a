package oauth

import (
	"testing"
	"time"
)

func TestTokenExpiredAppliesRefreshBuffer(t *testing.T) {
	expiresIn := int64(3600)
	issued := time.Now().Add(-30 * time.Minute)
	tok := Token{ExpiresInSeconds: &expiresIn, IssuedAtMS: issued.UnixMilli()}

	if !tok.Expired(issued.Add(40 * time.Minute)) {
		t.Error("expected token to be considered expired within the one-hour refresh buffer of its declared lifetime")
	}
}

func TestTokenWithoutExpiryNeverExpires(t *testing.T) {
	tok := Token{IssuedAtMS: time.Now().Add(-24 * time.Hour).UnixMilli()}
	if tok.Expired(time.Now()) {
		t.Error("token without ExpiresInSeconds should never report expired")
	}
}

func TestTokenNotYetExpired(t *testing.T) {
	expiresIn := int64(7200)
	tok := Token{ExpiresInSeconds: &expiresIn, IssuedAtMS: time.Now().UnixMilli()}
	if tok.Expired(time.Now().Add(time.Minute)) {
		t.Error("freshly issued token should not be expired one minute in")
	}
}

func TestEqualModuloIssuedAtIgnoresTimestamp(t *testing.T) {
	expiresIn := int64(3600)
	a := Token{AccessToken: "x", RefreshToken: "r", TokenType: "Bearer", ExpiresInSeconds: &expiresIn, IssuedAtMS: 1000}
	b := a
	b.IssuedAtMS = 999999

	if !a.EqualModuloIssuedAt(b) {
		t.Error("expected tokens differing only in IssuedAtMS to compare equal")
	}
	b.AccessToken = "y"
	if a.EqualModuloIssuedAt(b) {
		t.Error("expected tokens with different AccessToken to compare unequal")
	}
}
