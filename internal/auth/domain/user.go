package domain

import (
	"strings"
	"time"
)

// User is an account that can authenticate and hold access tokens.
type User struct {
	ID           string
	Email        string
	FirstName    string
	LastName     string
	PasswordHash string

	// Pending is set when the account still awaits email verification.
	Pending bool

	// VerificationCodeHash holds the fingerprint of the most recent
	// password-reset or activation code, if one is outstanding.
	VerificationCodeHash      *string
	VerificationCodeExpiresAt *time.Time

	LastLoginAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// FullName returns the display name used in signed-token claims.
func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Group is an operator-defined cohort of users. In multiple-permission mode
// each group maps to a schema and registration policy; a user's effective
// group is the first one in their ordered membership list.
type Group struct {
	ID     string
	Handle string
	Name   string
}
