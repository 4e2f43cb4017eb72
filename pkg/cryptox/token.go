package cryptox

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

// Token size constants (in bytes before encoding).
const (
	// TokenSize128 provides 128 bits of entropy (22 chars base64url).
	TokenSize128 = 16
	// TokenSize256 provides 256 bits of entropy (43 chars base64url).
	TokenSize256 = 32
)

// AccessTokenLength is the fixed character length of opaque access and
// refresh tokens. Clients treat the value as opaque, so the length is part
// of the wire contract and must not change.
const AccessTokenLength = 32

const tokenAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789_-"

// GenerateToken creates a cryptographically secure random token of the
// specified byte length, returned as a base64url-encoded string (URL-safe,
// no padding). Use this for one-shot secrets like password reset codes.
func GenerateToken(size int) (string, error) {
	if size <= 0 {
		return "", fmt.Errorf("token size must be positive, got %d", size)
	}

	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate random token: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// GenerateOpaqueToken creates a fixed-length random string drawn from a
// 64-character URL-safe alphabet. Each character carries 6 bits of entropy,
// so the default 32-character token holds 192 bits.
//
// The alphabet size divides 256 evenly, so indexing random bytes with a
// bitmask introduces no modulo bias.
func GenerateOpaqueToken(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("token length must be positive, got %d", length)
	}

	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate random token: %w", err)
	}

	out := make([]byte, length)
	for i, b := range buf {
		out[i] = tokenAlphabet[b&63]
	}
	return string(out), nil
}

// FingerprintToken returns a deterministic SHA-256 fingerprint of a token.
// This is used to store hashed secrets in the database, allowing lookup
// without storing the original value.
//
// The fingerprint is returned as a base64url-encoded string (43 chars).
func FingerprintToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
