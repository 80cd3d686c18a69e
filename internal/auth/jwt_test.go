package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/rotzhost/rotzcoder/internal/models"
)

func tokenTestUser() *models.User {
	return &models.User{
		ID:    uuid.New(),
		Email: "dev@rotz.host",
		Role:  models.RoleUser,
	}
}

func TestIssueAndVerify(t *testing.T) {
	t.Parallel()

	tm := NewTokenManager("test-secret", time.Hour)
	u := tokenTestUser()

	token, claims, err := tm.Issue(u)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if token == "" {
		t.Fatal("Issue returned empty token")
	}
	if claims.UserID != u.ID || claims.Email != u.Email || claims.Role != u.Role {
		t.Fatalf("issued claims do not match user: %+v", claims)
	}

	got, err := tm.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if got.UserID != u.ID {
		t.Fatalf("verified UserID = %s, want %s", got.UserID, u.ID)
	}
	if got.Email != u.Email || got.Role != u.Role {
		t.Fatalf("verified claims mismatch: %+v", got)
	}
}

func TestVerifyExpiredToken(t *testing.T) {
	t.Parallel()

	tm := NewTokenManager("test-secret", -time.Minute)
	token, _, err := tm.Issue(tokenTestUser())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if _, err := tm.Verify(token); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expired token: got %v, want ErrTokenExpired", err)
	}
}

func TestVerifyWrongSecret(t *testing.T) {
	t.Parallel()

	token, _, err := NewTokenManager("secret-a", time.Hour).Issue(tokenTestUser())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if _, err := NewTokenManager("secret-b", time.Hour).Verify(token); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("wrong secret: got %v, want ErrTokenInvalid", err)
	}
}

func TestVerifyMalformedToken(t *testing.T) {
	t.Parallel()

	tm := NewTokenManager("test-secret", time.Hour)
	for _, bad := range []string{"", "garbage", "a.b.c", "eyJhbGciOiJIUzI1NiJ9.e30."} {
		if _, err := tm.Verify(bad); !errors.Is(err, ErrTokenInvalid) {
			t.Fatalf("Verify(%q): got %v, want ErrTokenInvalid", bad, err)
		}
	}
}

func TestHashToken(t *testing.T) {
	t.Parallel()

	h1 := HashToken("token-one")
	h2 := HashToken("token-one")
	h3 := HashToken("token-two")

	if h1 != h2 {
		t.Fatal("HashToken is not deterministic")
	}
	if h1 == h3 {
		t.Fatal("different tokens hashed to the same value")
	}
	if len(h1) != 64 {
		t.Fatalf("hash length = %d, want 64 hex chars", len(h1))
	}
}
