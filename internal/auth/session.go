package auth

import "scribeai/pkg/models"

// SessionState is the position of a client in the sign-in flow.
type SessionState string

const (
	StateAnonymous      SessionState = "anonymous"
	StateAuthenticating SessionState = "authenticating"
	StateAuthenticated  SessionState = "authenticated"
)

// Session tracks one client's sign-in state.
//
//	anonymous --Begin--> authenticating --Succeed--> authenticated
//	authenticating --Fail--> anonymous
//	authenticated --SignOut--> anonymous
//
// Calls that do not match the current state are ignored.
type Session struct {
	State SessionState `json:"state"`
	User  *models.User `json:"user,omitempty"`
}

// NewSession returns an anonymous session.
func NewSession() *Session {
	return &Session{State: StateAnonymous}
}

// Begin starts a sign-in attempt.
func (s *Session) Begin() {
	if s.State == StateAnonymous {
		s.State = StateAuthenticating
	}
}

// Succeed completes a sign-in attempt for user.
func (s *Session) Succeed(user *models.User) {
	if s.State == StateAuthenticating {
		s.State = StateAuthenticated
		s.User = user
	}
}

// Fail abandons a sign-in attempt.
func (s *Session) Fail() {
	if s.State == StateAuthenticating {
		s.State = StateAnonymous
		s.User = nil
	}
}

// SignOut drops the signed-in user.
func (s *Session) SignOut() {
	if s.State == StateAuthenticated {
		s.State = StateAnonymous
		s.User = nil
	}
}

// Authenticated reports whether the session carries a user.
func (s *Session) Authenticated() bool {
	return s != nil && s.State == StateAuthenticated
}
