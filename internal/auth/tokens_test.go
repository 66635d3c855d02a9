package auth

import (
	"context"
	"testing"
	"time"
)

func testIssuer(clock func() time.Time) *TokenIssuer {
	return NewTokenIssuer(TokenIssuerConfig{
		SigningSecret: []byte("super-secret"),
		Issuer:        "plenum-auth",
		Audience:      "plenum-api",
		TokenTTL:      30 * time.Minute,
		Clock:         clock,
	})
}

func TestTokenRoundTripCarriesRoles(t *testing.T) {
	issuer := testIssuer(nil)

	tokenString, expiresIn, err := issuer.IssueToken(context.Background(), Principal{
		UserID:    "user-123",
		IsAdmin:   true,
		IsWatcher: false,
	})
	if err != nil {
		t.Fatalf("expected successful issuance: %v", err)
	}
	if expiresIn <= 0 {
		t.Fatalf("expected positive expiry seconds, got %d", expiresIn)
	}

	principal, err := issuer.ValidateToken(tokenString)
	if err != nil {
		t.Fatalf("expected token to validate: %v", err)
	}
	if principal.UserID != "user-123" {
		t.Fatalf("unexpected subject %s", principal.UserID)
	}
	if !principal.IsAdmin {
		t.Fatalf("admin claim was lost")
	}
	if principal.IsWatcher {
		t.Fatalf("watcher claim appeared from nowhere")
	}
}

func TestTokenRejectsMissingSubject(t *testing.T) {
	issuer := testIssuer(nil)
	if _, _, err := issuer.IssueToken(context.Background(), Principal{}); err == nil {
		t.Fatalf("expected issuance to fail without a user id")
	}
}

func TestTokenRejectsExpired(t *testing.T) {
	issuedAt := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	issuer := testIssuer(func() time.Time { return issuedAt })

	tokenString, _, err := issuer.IssueToken(context.Background(), Principal{UserID: "user-123"})
	if err != nil {
		t.Fatalf("unexpected issuance error: %v", err)
	}

	late := testIssuer(func() time.Time { return issuedAt.Add(31 * time.Minute) })
	if _, err := late.ValidateToken(tokenString); err == nil {
		t.Fatalf("expected expired token to be rejected")
	}
}

func TestTokenRejectsForeignAudience(t *testing.T) {
	issuer := testIssuer(nil)
	other := NewTokenIssuer(TokenIssuerConfig{
		SigningSecret: []byte("super-secret"),
		Issuer:        "plenum-auth",
		Audience:      "some-other-api",
		TokenTTL:      30 * time.Minute,
	})

	tokenString, _, err := other.IssueToken(context.Background(), Principal{UserID: "user-123"})
	if err != nil {
		t.Fatalf("unexpected issuance error: %v", err)
	}
	if _, err := issuer.ValidateToken(tokenString); err == nil {
		t.Fatalf("expected audience mismatch to be rejected")
	}
}
