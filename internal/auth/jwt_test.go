package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func newTestAuthenticator(accessExp time.Duration) *JWTAuthenticator {
	return NewJWTAuthenticator("test-secret", "test-refresh-secret", "bodyshop", accessExp, time.Hour)
}

func TestVerifyAccessTokenRoundTrip(t *testing.T) {
	a := newTestAuthenticator(time.Hour)

	access, refresh, err := a.GenerateTokens(42, "staff", "staff@example.com")
	if err != nil {
		t.Fatalf("GenerateTokens: %v", err)
	}
	if access == "" || refresh == "" {
		t.Fatal("expected non-empty tokens")
	}

	identity, err := a.VerifyAccessToken(access)
	if err != nil {
		t.Fatalf("VerifyAccessToken: %v", err)
	}
	if identity.UserID != 42 {
		t.Errorf("UserID = %d, want 42", identity.UserID)
	}
	if identity.Role != "staff" {
		t.Errorf("Role = %q, want staff", identity.Role)
	}
	if identity.Email != "staff@example.com" {
		t.Errorf("Email = %q", identity.Email)
	}
}

func TestVerifyAccessTokenExpired(t *testing.T) {
	a := newTestAuthenticator(-time.Minute)

	access, _, err := a.GenerateTokens(7, "client", "")
	if err != nil {
		t.Fatalf("GenerateTokens: %v", err)
	}

	if _, err := a.VerifyAccessToken(access); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("err = %v, want ErrTokenExpired", err)
	}
}

func TestVerifyAccessTokenWrongSecret(t *testing.T) {
	a := newTestAuthenticator(time.Hour)
	other := NewJWTAuthenticator("other-secret", "other-refresh", "bodyshop", time.Hour, time.Hour)

	access, _, err := other.GenerateTokens(7, "client", "")
	if err != nil {
		t.Fatalf("GenerateTokens: %v", err)
	}

	if _, err := a.VerifyAccessToken(access); !errors.Is(err, ErrTokenSignatureInvalid) {
		t.Fatalf("err = %v, want ErrTokenSignatureInvalid", err)
	}
}

func TestVerifyAccessTokenMalformed(t *testing.T) {
	a := newTestAuthenticator(time.Hour)

	for _, token := range []string{"", "not-a-jwt", "a.b.c"} {
		if _, err := a.VerifyAccessToken(token); !errors.Is(err, ErrTokenMalformed) {
			t.Errorf("token %q: err = %v, want ErrTokenMalformed", token, err)
		}
	}
}

func TestVerifyAccessTokenMissingClaims(t *testing.T) {
	a := newTestAuthenticator(time.Hour)

	// Signed with the right secret but without sub/role.
	claims := jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
		"iat": time.Now().Unix(),
	}
	token, err := a.generateTokenWithClaims(claims, a.secret)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := a.VerifyAccessToken(token); !errors.Is(err, ErrMissingClaims) {
		t.Fatalf("err = %v, want ErrMissingClaims", err)
	}
}

func TestVerifyRefreshTokenNotValidAsAccess(t *testing.T) {
	a := newTestAuthenticator(time.Hour)

	_, refresh, err := a.GenerateTokens(9, "client", "")
	if err != nil {
		t.Fatalf("GenerateTokens: %v", err)
	}

	// Refresh tokens are signed with a different secret.
	if _, err := a.VerifyAccessToken(refresh); !errors.Is(err, ErrTokenSignatureInvalid) {
		t.Fatalf("err = %v, want ErrTokenSignatureInvalid", err)
	}

	userID, err := a.VerifyRefreshToken(refresh)
	if err != nil {
		t.Fatalf("VerifyRefreshToken: %v", err)
	}
	if userID != 9 {
		t.Errorf("userID = %d, want 9", userID)
	}
}
