package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aussiebroadwan/gqlgate/internal/auth/domain"
	"github.com/aussiebroadwan/gqlgate/internal/auth/store"
	"github.com/aussiebroadwan/gqlgate/pkg/cryptox"
	"github.com/aussiebroadwan/gqlgate/pkg/idx"
	"github.com/aussiebroadwan/gqlgate/pkg/jwtx"
	"github.com/aussiebroadwan/gqlgate/pkg/slogx"
)

// TokenMode selects the one transport every credential in the deployment
// uses. Modes are mutually exclusive and fixed at startup, never negotiated
// per request.
type TokenMode string

const (
	TokenModeHeader TokenMode = "header"
	TokenModeCookie TokenMode = "cookie"
	TokenModeJWT    TokenMode = "jwt"
)

// Cookie names are fixed protocol surface, not configuration.
const (
	AccessTokenCookie  = "gql_accessToken"
	RefreshTokenCookie = "gql_refreshToken"
)

// TokenService issues, refreshes and revokes access credentials. One
// instance serves the whole process; all fields are read-only after
// construction.
type TokenService struct {
	Store  store.Store
	Signer *jwtx.HS256 // nil unless a secret is configured
	Issuer string
	Mode   TokenMode

	// Expiration applies in header and cookie modes; zero means tokens
	// never expire. JWT mode ignores it and always uses JWTExpiration.
	Expiration        time.Duration
	JWTExpiration     time.Duration
	RefreshExpiration time.Duration

	SameSite     http.SameSite
	CookieSecure bool
}

// Create mints a new access token for an authenticated user under the given
// schema and completes it per the configured transport: header mode returns
// the raw string, cookie mode additionally sets the access-token cookie, JWT
// mode signs a bearer token and mints a companion refresh token.
//
// The writer receives set-cookie side effects and may be nil in header mode.
func (s *TokenService) Create(ctx context.Context, w http.ResponseWriter, user domain.User, schemaID int64) (domain.IssuedToken, error) {
	now := time.Now().UTC()

	token, err := cryptox.GenerateOpaqueToken(cryptox.AccessTokenLength)
	if err != nil {
		return domain.IssuedToken{}, fmt.Errorf("generate access token: %w", err)
	}

	var expiresAt *time.Time
	switch s.Mode {
	case TokenModeJWT:
		// JWT-mode access tokens always expire with the signed token.
		e := now.Add(s.JWTExpiration)
		expiresAt = &e
	default:
		if s.Expiration > 0 {
			e := now.Add(s.Expiration)
			expiresAt = &e
		}
	}

	rec := domain.AccessToken{
		ID:        idx.New().String(),
		Name:      domain.TokenName(user.ID, now),
		Token:     token,
		UserID:    user.ID,
		SchemaID:  schemaID,
		Enabled:   true,
		ExpiresAt: expiresAt,
		CreatedAt: now,
	}

	// Store validation failures surface verbatim; the caller is entitled to
	// the field-level detail.
	if err := s.Store.AccessTokens().CreateAccessToken(ctx, rec); err != nil {
		return domain.IssuedToken{}, err
	}

	switch s.Mode {
	case TokenModeHeader:
		return domain.IssuedToken{AccessToken: token}, nil

	case TokenModeCookie:
		s.setCookie(w, AccessTokenCookie, token, expiresAt)
		return domain.IssuedToken{AccessToken: token}, nil

	case TokenModeJWT:
		grant, err := s.issueGrant(ctx, w, user, schemaID, token, now)
		if err != nil {
			return domain.IssuedToken{}, err
		}
		return domain.IssuedToken{AccessToken: token, Grant: grant}, nil

	default:
		return domain.IssuedToken{}, fmt.Errorf("unknown token mode %q", s.Mode)
	}
}

// issueGrant signs the JWT and mints the companion refresh token. The two
// store writes are independent: if the refresh write fails the access token
// already persisted stays behind, harmless until presented.
func (s *TokenService) issueGrant(ctx context.Context, w http.ResponseWriter, user domain.User, schemaID int64, accessToken string, now time.Time) (*domain.JWTGrant, error) {
	if s.Signer == nil {
		return nil, ErrInvalidSecret
	}

	schema, err := s.Store.Schemas().GetSchemaByID(ctx, schemaID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidSchema
		}
		return nil, err
	}

	claims := jwtx.NewClaims(s.Issuer, user.ID, user.FullName(), accessToken, schema.Name, s.JWTExpiration, now)
	signed, err := s.Signer.Sign(claims)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	refreshOpaque, err := cryptox.GenerateOpaqueToken(cryptox.AccessTokenLength)
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}

	refreshExpiry := now.Add(s.RefreshExpiration)
	refresh := domain.RefreshToken{
		ID:        idx.New().String(),
		Token:     refreshOpaque,
		UserID:    user.ID,
		SchemaID:  schemaID,
		ExpiresAt: refreshExpiry,
		CreatedAt: now,
	}
	if err := s.Store.RefreshTokens().CreateRefreshToken(ctx, refresh); err != nil {
		return nil, err
	}

	s.setCookie(w, RefreshTokenCookie, refreshOpaque, &refreshExpiry)

	return &domain.JWTGrant{
		JWT:                   signed,
		JWTExpiresAt:          now.Add(s.JWTExpiration).Unix(),
		RefreshToken:          refreshOpaque,
		RefreshTokenExpiresAt: refreshExpiry.Unix(),
	}, nil
}

// Refresh mints a fresh credential pair from a refresh token. The token is
// resolved from the refresh cookie first, falling back to the explicit
// argument. The spent refresh token and its sibling access token stay valid
// until they expire on their own; a refresh is a one-time mint, not a
// rotating exchange.
func (s *TokenService) Refresh(ctx context.Context, w http.ResponseWriter, r *http.Request, refreshToken string) (domain.IssuedToken, domain.User, error) {
	raw := refreshToken
	if r != nil {
		if c, err := r.Cookie(RefreshTokenCookie); err == nil && c.Value != "" {
			raw = c.Value
		}
	}
	if raw == "" {
		return domain.IssuedToken{}, domain.User{}, ErrInvalidRefreshToken
	}

	rt, err := s.Store.RefreshTokens().GetRefreshTokenByToken(ctx, raw)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.IssuedToken{}, domain.User{}, ErrInvalidRefreshToken
		}
		return domain.IssuedToken{}, domain.User{}, err
	}

	user, err := s.Store.Users().GetUserByID(ctx, rt.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.IssuedToken{}, domain.User{}, ErrUserNotFound
		}
		return domain.IssuedToken{}, domain.User{}, err
	}

	issued, err := s.Create(ctx, w, user, rt.SchemaID)
	if err != nil {
		return domain.IssuedToken{}, domain.User{}, err
	}
	return issued, user, nil
}

// DeleteCurrent revokes the credential presented on the request
// (logout-this-device).
func (s *TokenService) DeleteCurrent(ctx context.Context, r *http.Request) error {
	tok, err := s.FromRequest(ctx, r)
	if err != nil {
		return err
	}
	if err := s.Store.AccessTokens().DeleteAccessToken(ctx, tok.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrTokenNotFound
		}
		return err
	}
	return nil
}

// DeleteAll revokes every credential belonging to the presenting user
// (logout-all-devices), matched by the shared name-tag prefix.
func (s *TokenService) DeleteAll(ctx context.Context, r *http.Request) (int64, error) {
	tok, err := s.FromRequest(ctx, r)
	if err != nil {
		return 0, err
	}
	userID, ok := domain.UserIDFromTokenName(tok.Name)
	if !ok {
		return 0, ErrInvalidHeader
	}

	removed, err := s.Store.AccessTokens().DeleteAccessTokensByNamePrefix(ctx, domain.UserTokenPrefix(userID))
	if err != nil {
		return 0, err
	}
	if removed == 0 {
		return 0, ErrTokenNotFound
	}

	slogx.FromContext(ctx).Info("revoked all tokens for user", "user_id", userID, "count", removed)
	return removed, nil
}

// setCookie writes an HTTP-only, path-scoped cookie. A nil expiry yields a
// session cookie, matching non-expiring tokens.
func (s *TokenService) setCookie(w http.ResponseWriter, name, value string, expires *time.Time) {
	if w == nil {
		return
	}
	c := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.CookieSecure,
		SameSite: s.SameSite,
	}
	if expires != nil {
		c.Expires = *expires
	}
	http.SetCookie(w, c)
}
