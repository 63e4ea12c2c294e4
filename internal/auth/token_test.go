package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/todoapp/todo-api/internal/core/domain"
)

var issuedAt = time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func newManager(t *testing.T, secret string, now time.Time) *TokenManager {
	t.Helper()
	m, err := NewTokenManager([]byte(secret), WithClock(fixedClock(now)))
	if err != nil {
		t.Fatalf("NewTokenManager: %v", err)
	}
	return m
}

func TestNewTokenManager_MissingSecret(t *testing.T) {
	if _, err := NewTokenManager(nil); !errors.Is(err, ErrMissingSecret) {
		t.Fatalf("expected ErrMissingSecret, got %v", err)
	}
	if _, err := NewTokenManager([]byte("")); !errors.Is(err, ErrMissingSecret) {
		t.Fatalf("expected ErrMissingSecret for empty secret, got %v", err)
	}
}

func TestTokenManager_IssueAndVerify(t *testing.T) {
	m := newManager(t, "secret", issuedAt)

	token, expiresAt, err := m.Issue(domain.Identity{UserID: 42, Email: "jo@x.com"})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if !expiresAt.Equal(issuedAt.Add(2 * time.Hour)) {
		t.Fatalf("expected expiry %v, got %v", issuedAt.Add(2*time.Hour), expiresAt)
	}

	identity, err := m.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if identity.UserID != 42 || identity.Email != "jo@x.com" {
		t.Fatalf("unexpected identity: %+v", identity)
	}
}

func TestTokenManager_ExpiryBoundary(t *testing.T) {
	issuer := newManager(t, "secret", issuedAt)
	token, expiresAt, err := issuer.Issue(domain.Identity{UserID: 7, Email: "a@b.c"})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	cases := []struct {
		name  string
		at    time.Time
		valid bool
	}{
		{"one second before expiry", expiresAt.Add(-time.Second), true},
		{"exactly at expiry", expiresAt, false},
		{"after expiry", expiresAt.Add(time.Second), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			verifier := newManager(t, "secret", tc.at)
			_, err := verifier.Verify(token)
			if tc.valid && err != nil {
				t.Fatalf("expected valid token, got %v", err)
			}
			if !tc.valid && !errors.Is(err, domain.ErrUnauthorized) {
				t.Fatalf("expected ErrUnauthorized, got %v", err)
			}
		})
	}
}

func TestTokenManager_WrongSecret(t *testing.T) {
	token, _, err := newManager(t, "right-secret", issuedAt).Issue(domain.Identity{UserID: 1, Email: "a@b.c"})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if _, err := newManager(t, "wrong-secret", issuedAt).Verify(token); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestTokenManager_Malformed(t *testing.T) {
	m := newManager(t, "secret", issuedAt)

	for _, token := range []string{"", "not-a-token", "not.a.jwt"} {
		if _, err := m.Verify(token); !errors.Is(err, domain.ErrUnauthorized) {
			t.Fatalf("token %q: expected ErrUnauthorized, got %v", token, err)
		}
	}
}

func TestTokenManager_TamperedPayload(t *testing.T) {
	m := newManager(t, "secret", issuedAt)
	token, _, _ := m.Issue(domain.Identity{UserID: 1, Email: "a@b.c"})
	other, _, _ := m.Issue(domain.Identity{UserID: 2, Email: "z@b.c"})

	a := strings.Split(token, ".")
	b := strings.Split(other, ".")
	forged := a[0] + "." + b[1] + "." + a[2]

	if _, err := m.Verify(forged); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for swapped payload, got %v", err)
	}
}

func TestTokenManager_RejectsOtherAlgorithms(t *testing.T) {
	m := newManager(t, "secret", issuedAt)

	claims := Claims{
		Email: "a@b.c",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "1",
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := m.Verify(signed); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for HS512, got %v", err)
	}
}

func TestTokenManager_RequiresExpiryAndNumericSubject(t *testing.T) {
	m := newManager(t, "secret", issuedAt)

	noExp, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "1"},
	}).SignedString([]byte("secret"))
	if _, err := m.Verify(noExp); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized without exp, got %v", err)
	}

	badSub, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "b85bb9f4-d62b-4bb8-9f80-6d1eeb99f8c1",
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(time.Hour)),
		},
	}).SignedString([]byte("secret"))
	if _, err := m.Verify(badSub); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for non-numeric subject, got %v", err)
	}
}

func TestIdentityContext(t *testing.T) {
	if _, ok := IdentityFromContext(context.Background()); ok {
		t.Fatalf("empty context must not carry an identity")
	}

	ctx := WithIdentity(context.Background(), domain.Identity{UserID: 9, Email: "n@x.com"})
	identity, ok := IdentityFromContext(ctx)
	if !ok || identity.UserID != 9 || identity.Email != "n@x.com" {
		t.Fatalf("unexpected identity: %+v ok=%v", identity, ok)
	}
}
