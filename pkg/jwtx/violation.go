package jwtx

import (
	"encoding/json"
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

// ViolationError reports which verification constraints a token failed.
// Unlike most auth failures, which deliberately collapse to a single opaque
// error, constraint violations are surfaced with their detail so API
// consumers can tell a bad signature from a malformed token.
type ViolationError struct {
	Violations []string `json:"violations"`
	cause      error
}

func newViolationError(err error) *ViolationError {
	v := &ViolationError{cause: err}

	for _, check := range []struct {
		sentinel error
		label    string
	}{
		{jwt.ErrTokenMalformed, "token is malformed"},
		{jwt.ErrTokenSignatureInvalid, "token signature mismatch"},
	} {
		if errors.Is(err, check.sentinel) {
			v.Violations = append(v.Violations, check.label)
		}
	}

	if len(v.Violations) == 0 {
		v.Violations = []string{err.Error()}
	}

	return v
}

// Error renders the violation list as JSON, mirroring how constraint
// violations are reported to API consumers.
func (e *ViolationError) Error() string {
	b, err := json.Marshal(e.Violations)
	if err != nil {
		return "jwtx: constraint violation"
	}
	return string(b)
}

// Unwrap exposes the underlying library error for errors.Is checks.
func (e *ViolationError) Unwrap() error { return e.cause }
