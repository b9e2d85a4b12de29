package auth

import "errors"

var (
	// ErrEmailTaken is returned by Register when the email is already used.
	ErrEmailTaken = errors.New("User with this email already exists")

	// ErrInvalidCredentials is returned by Authenticate for an unknown user,
	// a user without a password and a wrong password alike.
	ErrInvalidCredentials = errors.New("Invalid email or password")

	// ErrMissingSecret is returned when no signing secret is configured.
	ErrMissingSecret = errors.New("AUTH_SECRET is not set")

	// ErrInvalidToken is returned for a malformed, forged or expired token.
	ErrInvalidToken = errors.New("invalid session token")
)

// ValidationError reports the first invalid registration field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
