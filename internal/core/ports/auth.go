package ports

import (
	"context"
	"time"

	"github.com/todoapp/todo-api/internal/core/domain"
)

// PasswordHasher owns the one-way password digest.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(hash, plain string) bool
}

// TokenIssuer signs credentials for an identity.
type TokenIssuer interface {
	Issue(identity domain.Identity) (token string, expiresAt time.Time, err error)
}

// TokenVerifier resolves a bearer token back to its identity. Any failure is
// reported as domain.ErrUnauthorized.
type TokenVerifier interface {
	Verify(token string) (domain.Identity, error)
}

// RegisterInput is the DTO for account registration.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// LoginInput is the DTO for password login.
type LoginInput struct {
	Email    string
	Password string
}

// LoginResult carries the issued token and the authenticated user.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      *domain.User
}

type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*domain.User, error)
	Login(ctx context.Context, input LoginInput) (*LoginResult, error)
}
