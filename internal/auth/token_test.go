package auth

import (
	"testing"
	"time"
)

func TestIssueAndVerifyToken(t *testing.T) {
	secret := "test_secret"
	now := time.Unix(1700000000, 0)

	s, err := IssueToken("user-1", "ops@example.com", "admin", secret, 10*time.Minute, now)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	got, err := VerifyToken(s, secret, now)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if got.UserID != "user-1" || got.Email != "ops@example.com" || got.Role != "admin" {
		t.Fatalf("claims mismatch: %+v", got)
	}
}

func TestVerifyToken_Expired(t *testing.T) {
	secret := "test_secret"
	now := time.Unix(1700000000, 0)

	s, err := IssueToken("user-1", "ops@example.com", "admin", secret, time.Minute, now)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := VerifyToken(s, secret, now.Add(2*time.Minute)); err == nil {
		t.Fatalf("expected expiry error")
	}
}

func TestVerifyToken_WrongSecret(t *testing.T) {
	now := time.Unix(1700000000, 0)

	s, err := IssueToken("user-1", "ops@example.com", "admin", "secret_a", time.Minute, now)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := VerifyToken(s, "secret_b", now); err == nil {
		t.Fatalf("expected signature error")
	}
}
