// Package auth implements credential registration and login with stateless
// signed session tokens.
package auth

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"scribeai/internal/db"
	"scribeai/internal/logger"
	"scribeai/pkg/models"
)

const (
	// BcryptCost is the work factor for stored password hashes.
	BcryptCost = 10

	minPasswordLength = 6
	minNameLength     = 2
)

var emailPattern = regexp.MustCompile(`(?i)^[a-z0-9_'+\-.]*[a-z0-9_+\-]@([a-z0-9][a-z0-9\-]*\.)+[a-z]{2,}$`)

// UserStore persists users.
type UserStore interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

// RegisterInput is the body of a registration request.
type RegisterInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// Validate checks email, password and name in that order and reports the
// first failure.
func (in RegisterInput) Validate() error {
	if !validEmail(in.Email) {
		return &ValidationError{Field: "email", Message: "Invalid email"}
	}
	if utf8.RuneCountInString(in.Password) < minPasswordLength {
		return &ValidationError{Field: "password", Message: "Password must be at least 6 characters"}
	}
	if utf8.RuneCountInString(in.Name) < minNameLength {
		return &ValidationError{Field: "name", Message: "Name must be at least 2 characters"}
	}
	return nil
}

func validEmail(email string) bool {
	if strings.HasPrefix(email, ".") || strings.Contains(email, "..") {
		return false
	}
	return emailPattern.MatchString(email)
}

// Service registers and authenticates users and issues their tokens.
type Service struct {
	users  UserStore
	tokens *TokenIssuer
	now    func() time.Time
	log    zerolog.Logger
}

// NewService wires the service to a user store and token issuer.
func NewService(users UserStore, tokens *TokenIssuer) *Service {
	return &Service{
		users:  users,
		tokens: tokens,
		now:    time.Now,
		log:    logger.WithComponent("auth"),
	}
}

// Register validates the input, hashes the password and stores the user.
// The email is marked verified at creation.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	if _, err := s.users.GetUserByEmail(ctx, in.Email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, db.ErrUserNotFound) {
		return nil, fmt.Errorf("register: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("register: hash password: %w", err)
	}

	verified := s.now().UTC().Truncate(time.Microsecond)
	user := &models.User{
		Email:         in.Email,
		Name:          in.Name,
		PasswordHash:  string(hash),
		EmailVerified: &verified,
	}

	// The unique index catches a concurrent registration the lookup missed.
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, db.ErrDuplicateEmail) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("register: %w", err)
	}

	s.log.Info().Str("user_id", user.ID).Msg("User registered")
	return user, nil
}

// Authenticate checks an email and password. Every failure to match is
// ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if errors.Is(err, db.ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("authenticate: %w", err)
	}
	if !user.HasPassword() {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.log.Debug().Str("user_id", user.ID).Msg("Password mismatch")
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// Login authenticates and issues a token, moving session through
// authenticating to authenticated or back to anonymous.
func (s *Service) Login(ctx context.Context, session *Session, email, password string) (string, error) {
	session.Begin()

	user, err := s.Authenticate(ctx, email, password)
	if err != nil {
		session.Fail()
		return "", err
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		session.Fail()
		return "", err
	}

	session.Succeed(user)
	s.log.Info().Str("user_id", user.ID).Msg("User signed in")
	return token, nil
}

// Resolve returns the session a token represents. A missing or invalid token
// gives an anonymous session.
func (s *Service) Resolve(ctx context.Context, token string) *Session {
	session := NewSession()
	if token == "" {
		return session
	}

	claims, err := s.tokens.Parse(token)
	if err != nil {
		return session
	}

	session.Begin()
	user, err := s.users.GetUserByID(ctx, claims.Subject)
	if err != nil {
		session.Fail()
		return session
	}
	session.Succeed(user)
	return session
}

// Tokens returns the token issuer.
func (s *Service) Tokens() *TokenIssuer { return s.tokens }
