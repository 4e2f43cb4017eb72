package jwtx

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrNoSecret reports a signer or verifier constructed without key material.
	ErrNoSecret = errors.New("jwtx: empty secret key")
)

// HS256 signs and verifies self-contained tokens with a shared symmetric
// secret. Both sides of the exchange hold the same key, so this is only
// suitable when issuer and verifier are the same deployment.
type HS256 struct {
	secret []byte
}

// NewHS256 builds a symmetric signer/verifier from the shared secret.
func NewHS256(secret string) (*HS256, error) {
	if secret == "" {
		return nil, ErrNoSecret
	}
	return &HS256{secret: []byte(secret)}, nil
}

// Alg returns the JOSE algorithm identifier.
func (h *HS256) Alg() string { return jwt.SigningMethodHS256.Alg() }

// Sign produces a compact serialized token for the claim set.
func (h *HS256) Sign(claims Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(h.secret)
	if err != nil {
		return "", fmt.Errorf("jwtx: sign: %w", err)
	}
	return signed, nil
}

// Verify parses raw and checks its signature against the shared secret.
// Constraint failures are reported as a *ViolationError carrying every
// violated constraint, so callers can surface the detail verbatim instead
// of a flattened message.
//
// Time claims are deliberately NOT validated here. Expiry is enforced by
// the caller against the stored token record, so a stale token reads the
// same as a missing one instead of leaking its existence.
func (h *HS256) Verify(raw string) (Claims, error) {
	var claims Claims

	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return h.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithoutClaimsValidation())
	if err != nil {
		return Claims{}, newViolationError(err)
	}

	return claims, nil
}
