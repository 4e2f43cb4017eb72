package domain

import (
	"fmt"
	"strings"
	"time"
)

// AccessToken models one issued, revocable access grant. The token value is
// opaque and unique; clients present it back verbatim through whichever
// transport the deployment is configured for.
type AccessToken struct {
	ID       string
	Name     string // "user-<userID>-<issueTimeMicros>", see TokenName
	Token    string
	UserID   string
	SchemaID int64
	Enabled  bool
	// ExpiresAt is optional: a nil expiry means the token never expires.
	ExpiresAt *time.Time
	CreatedAt time.Time
}

// RefreshToken models the stored refresh token record. Refresh tokens exist
// only in JWT transport mode and, unlike access tokens, always expire.
type RefreshToken struct {
	ID        string
	Token     string
	UserID    string
	SchemaID  int64
	ExpiresAt time.Time
	CreatedAt time.Time
}

// JWTGrant is the response bundle for JWT-mode issuance: the signed token,
// its companion refresh token, and both expiry instants as unix seconds.
type JWTGrant struct {
	JWT                   string `json:"jwt"`
	JWTExpiresAt          int64  `json:"jwtExpiresAt"`
	RefreshToken          string `json:"refreshToken"`
	RefreshTokenExpiresAt int64  `json:"refreshTokenExpiresAt"`
}

// IssuedToken is the result of one issuance. AccessToken is always set;
// Grant is set only in JWT mode.
type IssuedToken struct {
	AccessToken string
	Grant       *JWTGrant
}

// TokenName builds the name tag for an access token. The owning user id is
// recoverable from the tag without a store lookup, and the microsecond
// timestamp keeps names unique per user across concurrent issuances.
func TokenName(userID string, issuedAt time.Time) string {
	return fmt.Sprintf("user-%s-%d", userID, issuedAt.UnixMicro())
}

// UserIDFromTokenName recovers the owning user id embedded in a token name
// tag. Returns false for names that don't carry the user prefix.
func UserIDFromTokenName(name string) (string, bool) {
	parts := strings.Split(name, "-")
	if len(parts) < 3 || parts[0] != "user" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// UserTokenPrefix returns the name-tag prefix shared by every access token
// issued to the user, used for bulk revocation.
func UserTokenPrefix(userID string) string {
	return fmt.Sprintf("user-%s-", userID)
}

// Expired reports whether the token is past its expiry at the given time.
// Tokens without an expiry never expire. The comparison is at second
// granularity, and a token whose expiry equals now is already expired:
// validity is strictly future-only.
func (t AccessToken) Expired(now time.Time) bool {
	if t.ExpiresAt == nil {
		return false
	}
	return !now.Truncate(time.Second).Before(t.ExpiresAt.Truncate(time.Second))
}
