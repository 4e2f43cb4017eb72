package service

import "errors"

// Messages holds the user-facing text for each failure kind. Operators can
// override any of them; zero values fall back to the defaults.
type Messages struct {
	InvalidHeader         string `env:"MSG_INVALID_HEADER"`
	InvalidRefreshToken   string `env:"MSG_INVALID_REFRESH_TOKEN"`
	InvalidLogin          string `env:"MSG_INVALID_LOGIN"`
	InvalidSchema         string `env:"MSG_INVALID_SCHEMA"`
	InvalidPasswordUpdate string `env:"MSG_INVALID_PASSWORD_UPDATE"`
	InvalidPasswordMatch  string `env:"MSG_INVALID_PASSWORD_MATCH"`
	InvalidUserUpdate     string `env:"MSG_INVALID_USER_UPDATE"`
	TokenNotFound         string `env:"MSG_TOKEN_NOT_FOUND"`
	UserNotFound          string `env:"MSG_USER_NOT_FOUND"`
	InvalidRequest        string `env:"MSG_INVALID_REQUEST"`
	ForgottenPassword     string `env:"MSG_FORGOTTEN_PASSWORD"`
	PasswordSaved         string `env:"MSG_PASSWORD_SAVED"`
	PasswordUpdated       string `env:"MSG_PASSWORD_UPDATED"`
	ActivationRequired    string `env:"MSG_ACTIVATION_REQUIRED"`
}

// DefaultMessages returns the built-in message set.
func DefaultMessages() Messages {
	return Messages{
		InvalidHeader:         "Invalid Authorization Header",
		InvalidRefreshToken:   "Invalid Refresh Token",
		InvalidLogin:          "We couldn't log you in with the provided details",
		InvalidSchema:         "No schema has been set for this user group",
		InvalidPasswordUpdate: "We couldn't update the password with the provided details",
		InvalidPasswordMatch:  "New passwords do not match",
		InvalidUserUpdate:     "We couldn't update the user with the provided details",
		TokenNotFound:         "We couldn't find any matching tokens",
		UserNotFound:          "We couldn't find any matching users",
		InvalidRequest:        "Cannot validate request",
		ForgottenPassword:     "You will receive an email if it matches an account in our system",
		PasswordSaved:         "Successfully saved password",
		PasswordUpdated:       "Successfully updated password",
		ActivationRequired:    "Check your email for an activation link",
	}
}

// WithDefaults fills any unset message with its default so partial operator
// overrides keep the rest of the set intact.
func (m Messages) WithDefaults() Messages {
	d := DefaultMessages()
	fill := func(dst *string, def string) {
		if *dst == "" {
			*dst = def
		}
	}
	fill(&m.InvalidHeader, d.InvalidHeader)
	fill(&m.InvalidRefreshToken, d.InvalidRefreshToken)
	fill(&m.InvalidLogin, d.InvalidLogin)
	fill(&m.InvalidSchema, d.InvalidSchema)
	fill(&m.InvalidPasswordUpdate, d.InvalidPasswordUpdate)
	fill(&m.InvalidPasswordMatch, d.InvalidPasswordMatch)
	fill(&m.InvalidUserUpdate, d.InvalidUserUpdate)
	fill(&m.TokenNotFound, d.TokenNotFound)
	fill(&m.UserNotFound, d.UserNotFound)
	fill(&m.InvalidRequest, d.InvalidRequest)
	fill(&m.ForgottenPassword, d.ForgottenPassword)
	fill(&m.PasswordSaved, d.PasswordSaved)
	fill(&m.PasswordUpdated, d.PasswordUpdated)
	fill(&m.ActivationRequired, d.ActivationRequired)
	return m
}

// For maps a service error to its configured display text. Unknown errors
// fall back to the invalid-request message so internal detail never leaks.
func (m Messages) For(err error) string {
	switch {
	case errors.Is(err, ErrInvalidHeader):
		return m.InvalidHeader
	case errors.Is(err, ErrInvalidRefreshToken):
		return m.InvalidRefreshToken
	case errors.Is(err, ErrInvalidLogin):
		return m.InvalidLogin
	case errors.Is(err, ErrInvalidSchema):
		return m.InvalidSchema
	case errors.Is(err, ErrInvalidPasswordUpdate):
		return m.InvalidPasswordUpdate
	case errors.Is(err, ErrInvalidPasswordMatch):
		return m.InvalidPasswordMatch
	case errors.Is(err, ErrInvalidUserUpdate):
		return m.InvalidUserUpdate
	case errors.Is(err, ErrTokenNotFound):
		return m.TokenNotFound
	case errors.Is(err, ErrUserNotFound):
		return m.UserNotFound
	default:
		return m.InvalidRequest
	}
}
