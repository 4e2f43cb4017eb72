package service

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/aussiebroadwan/gqlgate/internal/auth/domain"
	"github.com/aussiebroadwan/gqlgate/internal/auth/store"
)

// FromRequest resolves the inbound request to a live access token record or
// fails closed. Only the configured transport is consulted.
//
// Expired, revoked and absent credentials are all reported as
// ErrInvalidHeader so a probing caller can't distinguish them; a stale JWT
// collapses the same way because Verify skips time claims and the stored
// record's expiry does the rejecting. The one exception is a JWT whose
// signature fails verification or that is malformed: that surfaces the
// structured violation detail instead.
func (s *TokenService) FromRequest(ctx context.Context, r *http.Request) (domain.AccessToken, error) {
	var (
		raw string
		ok  bool
	)

	switch s.Mode {
	case TokenModeHeader:
		raw, ok = bearerValue(r, "Bearer")
		if !ok {
			return domain.AccessToken{}, ErrInvalidHeader
		}

	case TokenModeCookie:
		c, err := r.Cookie(AccessTokenCookie)
		if err != nil || c.Value == "" {
			return domain.AccessToken{}, ErrInvalidHeader
		}
		raw = c.Value

	case TokenModeJWT:
		signed, found := bearerValue(r, "JWT")
		if !found {
			return domain.AccessToken{}, ErrInvalidHeader
		}
		if s.Signer == nil {
			return domain.AccessToken{}, ErrInvalidSecret
		}
		claims, err := s.Signer.Verify(signed)
		if err != nil {
			// Violation detail is passed through verbatim.
			return domain.AccessToken{}, err
		}
		raw = claims.AccessToken
		if raw == "" {
			return domain.AccessToken{}, ErrInvalidHeader
		}

	default:
		return domain.AccessToken{}, ErrInvalidHeader
	}

	tok, err := s.Store.AccessTokens().GetAccessTokenByToken(ctx, raw)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.AccessToken{}, ErrInvalidHeader
		}
		return domain.AccessToken{}, err
	}

	if tok.Expired(time.Now().UTC()) {
		return domain.AccessToken{}, ErrInvalidHeader
	}

	return tok, nil
}

// UserFromRequest resolves the request's credential and then its owning
// user. The user id comes from the token's name tag, so no second token
// lookup is needed.
func (s *TokenService) UserFromRequest(ctx context.Context, r *http.Request) (domain.User, domain.AccessToken, error) {
	tok, err := s.FromRequest(ctx, r)
	if err != nil {
		return domain.User{}, domain.AccessToken{}, err
	}

	userID, ok := domain.UserIDFromTokenName(tok.Name)
	if !ok {
		return domain.User{}, domain.AccessToken{}, ErrInvalidHeader
	}

	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, domain.AccessToken{}, ErrUserNotFound
		}
		return domain.User{}, domain.AccessToken{}, err
	}

	return user, tok, nil
}

// bearerValue scans every Authorization value, splitting on commas, for a
// case-insensitive "<scheme> <token>" entry and returns the first token
// found. Ordinary loop termination, not error signaling, handles the
// no-match case.
func bearerValue(r *http.Request, scheme string) (string, bool) {
	for _, header := range r.Header.Values("Authorization") {
		for _, part := range strings.Split(header, ",") {
			fields := strings.Fields(part)
			if len(fields) == 2 && strings.EqualFold(fields[0], scheme) {
				return fields[1], true
			}
		}
	}
	return "", false
}
