package auth

import (
	"errors"
	"testing"
	"time"
)

func TestIssueAndVerifyRoundTrip(t *testing.T) {
	tokens := NewTokens("test-secret", time.Hour)

	signed, err := tokens.Issue("user-1")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	userID, err := tokens.Verify(signed)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if userID != "user-1" {
		t.Fatalf("Verify() = %q, want user-1", userID)
	}
}

func TestVerifyRejectsGarbage(t *testing.T) {
	tokens := NewTokens("test-secret", time.Hour)
	if _, err := tokens.Verify("not-a-token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("Verify() error = %v, want ErrInvalidToken", err)
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	signed, err := NewTokens("secret-a", time.Hour).Issue("user-1")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if _, err := NewTokens("secret-b", time.Hour).Verify(signed); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("Verify() error = %v, want ErrInvalidToken", err)
	}
}

func TestVerifyRejectsExpired(t *testing.T) {
	signed, err := NewTokens("test-secret", -time.Minute).Issue("user-1")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if _, err := NewTokens("test-secret", time.Hour).Verify(signed); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("Verify() error = %v, want ErrInvalidToken", err)
	}
}

func TestCheckPassword(t *testing.T) {
	hash, err := HashPassword("hunter2!")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if !CheckPassword(hash, "hunter2!") {
		t.Fatalf("CheckPassword() should accept the original password")
	}
	if CheckPassword(hash, "hunter3!") {
		t.Fatalf("CheckPassword() should reject a wrong password")
	}
}
