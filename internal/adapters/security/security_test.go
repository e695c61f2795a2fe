package security

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/findinggems/settlement-service/internal/domain"
)

func TestJWTVerifyRoundTrip(t *testing.T) {
	t.Parallel()

	verifier, err := NewJWTVerifier("test-secret")
	if err != nil {
		t.Fatalf("new verifier failed: %v", err)
	}
	userID := uuid.New()
	token, err := verifier.Sign(userID, "creator", time.Hour)
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}

	claims, err := verifier.Verify(token)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if claims.UserID != userID || claims.Role != "creator" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if claims.ExpiresAt.Before(time.Now().UTC()) {
		t.Fatalf("token already expired: %v", claims.ExpiresAt)
	}
}

func TestJWTVerifyRejectsWrongSecret(t *testing.T) {
	t.Parallel()

	signer, _ := NewJWTVerifier("secret-a")
	verifier, _ := NewJWTVerifier("secret-b")
	token, err := signer.Sign(uuid.New(), "buyer", time.Hour)
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}
	if _, err := verifier.Verify(token); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestJWTVerifyRejectsExpired(t *testing.T) {
	t.Parallel()

	verifier, _ := NewJWTVerifier("test-secret")
	token, err := verifier.Sign(uuid.New(), "buyer", -2*time.Minute)
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}
	if _, err := verifier.Verify(token); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected unauthorized for expired token, got %v", err)
	}
}

func TestJWTVerifyRejectsGarbage(t *testing.T) {
	t.Parallel()

	verifier, _ := NewJWTVerifier("test-secret")
	if _, err := verifier.Verify("not-a-token"); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestAESGCMRoundTrip(t *testing.T) {
	t.Parallel()

	enc := NewAESGCMEncryption("seed-value")
	owner := uuid.NewString()

	cipherText, err := enc.Encrypt(owner, "1234567890")
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}
	if string(cipherText) == "1234567890" {
		t.Fatalf("value not encrypted")
	}
	plain, err := enc.Decrypt(owner, cipherText)
	if err != nil {
		t.Fatalf("decrypt failed: %v", err)
	}
	if plain != "1234567890" {
		t.Fatalf("round trip mismatch: %s", plain)
	}
}

func TestAESGCMKeyIsPerOwner(t *testing.T) {
	t.Parallel()

	enc := NewAESGCMEncryption("seed-value")
	cipherText, err := enc.Encrypt("owner-a", "1234567890")
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}
	if _, err := enc.Decrypt("owner-b", cipherText); err == nil {
		t.Fatalf("expected decrypt failure with another owner's key")
	}
}
