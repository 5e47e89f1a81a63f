package auth

import (
	"testing"
	"time"

	"github.com/suporte-ops/ticket-desk/internal/domain"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", 5)
	team := &domain.Team{ID: "team-1", Name: domain.TeamWhatsapp}

	token, exp, err := tm.GenerateToken(team)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if time.Until(exp) <= 0 {
		t.Fatalf("expiry in the past: %s", exp)
	}
	claims, err := tm.ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if claims.TeamID != "team-1" || claims.TeamName != domain.TeamWhatsapp {
		t.Fatalf("unexpected claims %+v", claims)
	}
}

func TestTokenRejectsOtherSecret(t *testing.T) {
	token, _, err := NewTokenManager("one", 5).GenerateToken(&domain.Team{ID: "x", Name: domain.TeamLigacao})
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if _, err := NewTokenManager("two", 5).ParseToken(token); err == nil {
		t.Fatal("expected signature failure")
	}
}

func TestSecretHashing(t *testing.T) {
	hash, err := HashSecret("ligacao123", 4)
	if err != nil {
		t.Fatalf("HashSecret: %v", err)
	}
	if err := CompareSecret(hash, "ligacao123"); err != nil {
		t.Fatalf("CompareSecret: %v", err)
	}
	if err := CompareSecret(hash, "wrong"); err == nil {
		t.Fatal("expected mismatch")
	}
}
