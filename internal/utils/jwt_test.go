package utils

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
)

func TestNewAccessTokenRoundTrip(t *testing.T) {
	secret := "test-secret"
	at, err := NewAccessToken(secret, 17, "client", 15)
	if err != nil {
		t.Fatalf("NewAccessToken: %v", err)
	}

	tok, err := jwt.Parse(at.Token, func(tok *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		t.Fatalf("parse signed token: %v", err)
	}
	claims := tok.Claims.(jwt.MapClaims)
	if sub, _ := claims["sub"].(float64); uint64(sub) != 17 {
		t.Errorf("sub = %v, want 17", claims["sub"])
	}
	if role, _ := claims["role"].(string); role != "client" {
		t.Errorf("role = %q, want client", role)
	}
}

func TestRefreshTokenHashIsStable(t *testing.T) {
	rt, err := NewRefreshToken(30)
	if err != nil {
		t.Fatalf("NewRefreshToken: %v", err)
	}
	if len(rt.Raw) != 96 {
		t.Fatalf("raw token length = %d, want 96 hex chars", len(rt.Raw))
	}
	h1 := HashRefreshRaw(rt.Raw)
	h2 := HashRefreshRaw(rt.Raw)
	if h1 != h2 {
		t.Fatal("hashing the same raw token produced different values")
	}
	other, _ := NewRefreshToken(30)
	if HashRefreshRaw(other.Raw) == h1 {
		t.Fatal("two distinct tokens hashed to the same value")
	}
}
