package models

import "time"

type User struct {
	ID            string     `json:"id"`
	Email         string     `json:"email"`
	Name          string     `json:"name"`
	PasswordHash  string     `json:"-"` // empty for accounts without a password
	EmailVerified *time.Time `json:"emailVerified"`
	Image         string     `json:"image,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
}

// HasPassword reports whether the account can sign in with credentials.
func (u *User) HasPassword() bool {
	return u != nil && u.PasswordHash != ""
}
