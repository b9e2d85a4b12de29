package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"scribeai/pkg/models"
)

// MinSecretLength is the shortest accepted signing secret.
const MinSecretLength = 32

// Claims are carried by a session token. The subject is the user id.
type Claims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies HS256 session tokens.
type TokenIssuer struct {
	secret []byte
	maxAge time.Duration
	now    func() time.Time
}

// NewTokenIssuer fails with ErrMissingSecret for an empty secret.
func NewTokenIssuer(secret string, maxAge time.Duration) (*TokenIssuer, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("AUTH_SECRET must be at least %d characters", MinSecretLength)
	}
	if maxAge <= 0 {
		maxAge = 30 * 24 * time.Hour
	}
	return &TokenIssuer{secret: []byte(secret), maxAge: maxAge, now: time.Now}, nil
}

// MaxAge is the lifetime of issued tokens.
func (t *TokenIssuer) MaxAge() time.Duration { return t.maxAge }

// Issue signs a token for user.
func (t *TokenIssuer) Issue(user *models.User) (string, error) {
	now := t.now()
	claims := Claims{
		Email: user.Email,
		Name:  user.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.maxAge)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// Parse verifies a token and returns its claims. Any failure is ErrInvalidToken.
func (t *TokenIssuer) Parse(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(t.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, errors.Join(ErrInvalidToken, err)
	}
	if !parsed.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
