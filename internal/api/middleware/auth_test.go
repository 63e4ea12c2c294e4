package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/todoapp/todo-api/internal/auth"
	"github.com/todoapp/todo-api/internal/core/domain"
)

func newTokens(t *testing.T) *auth.TokenManager {
	t.Helper()
	tm, err := auth.NewTokenManager([]byte("secret"))
	if err != nil {
		t.Fatalf("token manager: %v", err)
	}
	return tm
}

func runAuth(t *testing.T, header string, next echo.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := Auth(newTokens(t))(next)(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec
}

func mustNotReach(t *testing.T) echo.HandlerFunc {
	return func(c echo.Context) error {
		t.Fatalf("should not reach next")
		return nil
	}
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	token, _, err := newTokens(t).Issue(domain.Identity{UserID: 7, Email: "alice@example.com"})
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	calls := 0
	rec := runAuth(t, "Bearer "+token, func(c echo.Context) error {
		calls++
		identity, ok := auth.IdentityFromContext(c.Request().Context())
		if !ok {
			t.Fatalf("identity not attached")
		}
		if identity.UserID != 7 || identity.Email != "alice@example.com" {
			t.Fatalf("unexpected identity: %+v", identity)
		}
		return c.NoContent(http.StatusOK)
	})

	if calls != 1 {
		t.Fatalf("expected next to be called once, got %d", calls)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAuthMiddleware_LowercaseScheme(t *testing.T) {
	token, _, _ := newTokens(t).Issue(domain.Identity{UserID: 7, Email: "alice@example.com"})

	rec := runAuth(t, "bearer "+token, func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAuthMiddleware_MissingHeader(t *testing.T) {
	rec := runAuth(t, "", mustNotReach(t))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthMiddleware_InvalidHeaderFormat(t *testing.T) {
	for _, header := range []string{"Token abc", "Bearer", "Bearer   ", "abc"} {
		rec := runAuth(t, header, mustNotReach(t))
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("header %q: expected 401, got %d", header, rec.Code)
		}
	}
}

func TestAuthMiddleware_InvalidToken(t *testing.T) {
	rec := runAuth(t, "Bearer not-a-jwt", mustNotReach(t))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthMiddleware_WrongSecret(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   "7",
		"email": "alice@example.com",
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte("other-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	rec := runAuth(t, "Bearer "+signed, mustNotReach(t))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthMiddleware_ExpiredToken(t *testing.T) {
	past := func() time.Time { return time.Now().Add(-3 * time.Hour) }
	issuer, err := auth.NewTokenManager([]byte("secret"), auth.WithClock(past))
	if err != nil {
		t.Fatalf("token manager: %v", err)
	}
	token, _, _ := issuer.Issue(domain.Identity{UserID: 7, Email: "alice@example.com"})

	rec := runAuth(t, "Bearer "+token, mustNotReach(t))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}
