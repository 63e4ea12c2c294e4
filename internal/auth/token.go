package auth

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/todoapp/todo-api/internal/core/domain"
)

// TokenTTL is the fixed validity window of an issued token.
const TokenTTL = 2 * time.Hour

var ErrMissingSecret = errors.New("auth: token signing secret is not configured")

// Claims is the JWT payload: the user ID travels in sub, plus the email.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// TokenManager issues and verifies HS256 bearer tokens. It holds no mutable
// state and is safe for concurrent use.
type TokenManager struct {
	secret []byte
	now    func() time.Time
}

// Option configures a TokenManager.
type Option func(*TokenManager)

// WithClock overrides the time source used for both issuing and verifying.
func WithClock(now func() time.Time) Option {
	return func(m *TokenManager) { m.now = now }
}

// NewTokenManager returns ErrMissingSecret when secret is empty.
func NewTokenManager(secret []byte, opts ...Option) (*TokenManager, error) {
	if len(secret) == 0 {
		return nil, ErrMissingSecret
	}
	m := &TokenManager{secret: secret, now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Issue signs a token for identity that expires TokenTTL from now.
func (m *TokenManager) Issue(identity domain.Identity) (string, time.Time, error) {
	now := m.now()
	expiresAt := now.Add(TokenTTL)

	claims := Claims{
		Email: identity.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(identity.UserID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, claims.ExpiresAt.Time, nil
}

// Verify checks the signature and expiry of token. The token is valid only
// strictly before its exp instant. Every failure is domain.ErrUnauthorized.
func (m *TokenManager) Verify(token string) (domain.Identity, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (interface{}, error) { return m.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil || !parsed.Valid {
		return domain.Identity{}, domain.ErrUnauthorized
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return domain.Identity{}, domain.ErrUnauthorized
	}

	return domain.Identity{UserID: userID, Email: claims.Email}, nil
}
