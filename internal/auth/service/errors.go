package service

import "errors"

// Every failure kind callers can act on gets its own sentinel. Handlers map
// these to configurable user-facing messages; the strings here are stable
// internal identifiers, not display text.
var (
	// ErrInvalidHeader covers missing, malformed, expired and revoked
	// credentials alike. The collapse is deliberate: a caller probing with a
	// stolen or stale token learns nothing about why it was rejected.
	ErrInvalidHeader = errors.New("invalid_header")

	ErrInvalidRefreshToken   = errors.New("invalid_refresh_token")
	ErrInvalidLogin          = errors.New("invalid_login")
	ErrInvalidSchema         = errors.New("invalid_schema")
	ErrInvalidPasswordUpdate = errors.New("invalid_password_update")
	ErrInvalidPasswordMatch  = errors.New("invalid_password_match")
	ErrInvalidUserUpdate     = errors.New("invalid_user_update")
	ErrTokenNotFound         = errors.New("token_not_found")
	ErrUserNotFound          = errors.New("user_not_found")
	ErrInvalidRequest        = errors.New("invalid_request")

	// ErrInvalidSecret is a deployment fault, not a caller fault: JWT mode
	// was configured without a signing secret.
	ErrInvalidSecret = errors.New("invalid_secret")
)
