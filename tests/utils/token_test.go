package testutil

import (
	"testing"

	"taskboard/internal/auth"
)

func TestTestTokenIsAccepted(t *testing.T) {
	t.Setenv("JWT_SECRET", "local-secret")
	t.Setenv("JWT_AUDIENCE", "taskboard")
	tok, err := TestToken("perf-user-1")
	if err != nil {
		t.Fatalf("TestToken: %v", err)
	}
	a, err := auth.New(auth.Config{Mode: auth.ModeHS256, Secret: []byte("local-secret"), Audience: "taskboard"})
	if err != nil {
		t.Fatalf("auth.New: %v", err)
	}
	uid, err := a.UserIDFromAuthHeader("Bearer " + tok)
	if err != nil || uid != "perf-user-1" {
		t.Fatalf("expected perf-user-1, got %q (%v)", uid, err)
	}
}

func TestTestTokenRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("TEST_JWT_SECRET", "")
	if _, err := TestToken("u"); err == nil {
		t.Fatal("expected error without a secret")
	}
}
