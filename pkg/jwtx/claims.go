package jwtx

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the signed-token claim set. The token is self-contained: it
// carries everything a client needs to display the session, plus the opaque
// access token it was minted alongside. The access token claim is what ties
// the signed token back to the revocable credential record in the store.
type Claims struct {
	jwt.RegisteredClaims

	// UserID is the owning user's identifier.
	UserID string `json:"userId,omitempty"`

	// FullName is the user's display name at issuance time.
	FullName string `json:"fullName,omitempty"`

	// AccessToken is the opaque access token issued with this JWT. Holders
	// of the JWT are holders of the access token; the store record remains
	// the authority on enabled/expiry state.
	AccessToken string `json:"accessToken,omitempty"`

	// Schema is the name of the permission schema the token was issued under.
	Schema string `json:"schema,omitempty"`
}

// NewClaims builds a minimally-correct claim set for a freshly issued
// access token.
func NewClaims(
	issuer string,
	userID, fullName, accessToken, schema string,
	ttl time.Duration,
	now time.Time,
) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserID:      userID,
		FullName:    fullName,
		AccessToken: accessToken,
		Schema:      schema,
	}
}
