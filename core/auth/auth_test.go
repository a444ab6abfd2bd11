package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestToken_RoundTrip(t *testing.T) {
	tok, err := GenerateToken("s3cret", "desk", time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	claims, err := ParseToken("s3cret", tok)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if claims.Client != "desk" || claims.Subject != "desk" {
		t.Fatalf("unexpected claims %+v", claims)
	}
}

func TestToken_Rejects(t *testing.T) {
	good, _ := GenerateToken("s3cret", "desk", 0)
	expired, _ := GenerateToken("s3cret", "desk", -time.Minute)

	tests := []struct {
		name   string
		secret string
		token  string
	}{
		{"wrong secret", "other", good},
		{"expired", "s3cret", expired},
		{"garbage", "s3cret", "not.a.token"},
	}
	for _, tc := range tests {
		if _, err := ParseToken(tc.secret, tc.token); err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
	}
}

func TestToken_NoSecret(t *testing.T) {
	if _, err := GenerateToken("", "desk", 0); !errors.Is(err, ErrNoSecret) {
		t.Fatalf("expected ErrNoSecret, got %v", err)
	}
	if _, err := ParseToken("", "x"); !errors.Is(err, ErrNoSecret) {
		t.Fatalf("expected ErrNoSecret, got %v", err)
	}
}

func TestToken_TTL(t *testing.T) {
	forever, err := GenerateToken("s3cret", "desk", 0)
	if err != nil {
		t.Fatal(err)
	}
	claims, err := ParseToken("s3cret", forever)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if claims.ExpiresAt != nil {
		t.Fatalf("zero ttl should not set an expiry, got %v", claims.ExpiresAt)
	}

	past, err := GenerateToken("s3cret", "desk", -time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ParseToken("s3cret", past); !errors.Is(err, jwt.ErrTokenExpired) {
		t.Fatalf("negative ttl should give an expired token, got %v", err)
	}
}
