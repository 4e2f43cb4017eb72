// Package gateclient is a typed Go client for the gateway's operation API.
// It wraps the /v1/op endpoints, carries the caller's credential in the
// configured transport scheme, and surfaces server failures as typed errors.
package gateclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Scheme is the Authorization scheme the deployment expects.
type Scheme string

const (
	SchemeBearer Scheme = "Bearer"
	SchemeJWT    Scheme = "JWT"
)

// Client talks to one gateway. The zero credential makes unauthenticated
// calls; WithToken returns a derived client for authenticated ones.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Scheme     Scheme

	token string
}

// New creates a client for the gateway at baseURL.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		Scheme: SchemeBearer,
	}
}

// WithToken returns a copy of the client that presents the given credential
// on every call. In Bearer scheme the credential is the opaque access
// token; in JWT scheme it is the signed token string.
func (c *Client) WithToken(token string) *Client {
	derived := *c
	derived.token = token
	return &derived
}

// APIError is a failure response from the gateway.
type APIError struct {
	StatusCode int
	Message    string   `json:"message"`
	Field      string   `json:"field,omitempty"`
	Violations []string `json:"violations,omitempty"`
}

func (e *APIError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("gateway: %s: %s", e.Field, e.Message)
	}
	return "gateway: " + e.Message
}

// User is the user shape operations return.
type User struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	FirstName   string     `json:"firstName"`
	LastName    string     `json:"lastName"`
	FullName    string     `json:"fullName"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
}

// Credential is the result of authenticate and register. The JWT fields are
// only populated by deployments running in JWT mode.
type Credential struct {
	AccessToken           string `json:"accessToken"`
	JWT                   string `json:"jwt,omitempty"`
	JWTExpiresAt          int64  `json:"jwtExpiresAt,omitempty"`
	RefreshToken          string `json:"refreshToken,omitempty"`
	RefreshTokenExpiresAt int64  `json:"refreshTokenExpiresAt,omitempty"`
	User                  User   `json:"user"`
	Schema                string `json:"schema"`
}

// Grant is the result of refreshToken.
type Grant struct {
	JWT                   string `json:"jwt"`
	JWTExpiresAt          int64  `json:"jwtExpiresAt"`
	RefreshToken          string `json:"refreshToken"`
	RefreshTokenExpiresAt int64  `json:"refreshTokenExpiresAt"`
}

// Message is the result of operations whose payload is display text.
type Message struct {
	Message string `json:"message"`
}

// Authenticate exchanges an email/password pair for a credential.
func (c *Client) Authenticate(ctx context.Context, email, password string) (*Credential, error) {
	return call[Credential](ctx, c, "authenticate", map[string]string{
		"email": email, "password": password,
	})
}

// Register creates an account via the plain register mutation.
func (c *Client) Register(ctx context.Context, email, password, firstName, lastName string) (*Credential, error) {
	return c.RegisterAs(ctx, "register", email, password, firstName, lastName)
}

// RegisterAs targets a group-specific register mutation, e.g.
// "registerMembers" on deployments with per-group registration.
func (c *Client) RegisterAs(ctx context.Context, operation, email, password, firstName, lastName string) (*Credential, error) {
	return call[Credential](ctx, c, operation, map[string]string{
		"email":     email,
		"password":  password,
		"firstName": firstName,
		"lastName":  lastName,
	})
}

// RefreshToken redeems a refresh token for a fresh grant (JWT mode only).
func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (*Grant, error) {
	return call[Grant](ctx, c, "refreshToken", map[string]string{
		"refreshToken": refreshToken,
	})
}

// ForgottenPassword starts a password reset for the email.
func (c *Client) ForgottenPassword(ctx context.Context, email string) (*Message, error) {
	return call[Message](ctx, c, "forgottenPassword", map[string]string{"email": email})
}

// SetPassword redeems a reset or activation code.
func (c *Client) SetPassword(ctx context.Context, userID, code, password string) (*Message, error) {
	return call[Message](ctx, c, "setPassword", map[string]string{
		"id": userID, "code": code, "password": password,
	})
}

// UpdatePassword changes the authenticated user's password.
func (c *Client) UpdatePassword(ctx context.Context, current, updated, confirm string) (*Message, error) {
	return call[Message](ctx, c, "updatePassword", map[string]string{
		"currentPassword": current,
		"newPassword":     updated,
		"confirmPassword": confirm,
	})
}

// UpdateUser rewrites profile fields; empty fields are left unchanged.
func (c *Client) UpdateUser(ctx context.Context, email, firstName, lastName string) (*User, error) {
	return call[User](ctx, c, "updateUser", map[string]string{
		"email": email, "firstName": firstName, "lastName": lastName,
	})
}

// GetUser returns the authenticated user.
func (c *Client) GetUser(ctx context.Context) (*User, error) {
	return call[User](ctx, c, "getUser", nil)
}

// DeleteCurrentToken revokes the credential this client presents.
func (c *Client) DeleteCurrentToken(ctx context.Context) (bool, error) {
	ok, err := call[bool](ctx, c, "deleteCurrentToken", nil)
	if err != nil {
		return false, err
	}
	return *ok, nil
}

// DeleteAllTokens revokes every credential of the authenticated user.
func (c *Client) DeleteAllTokens(ctx context.Context) (bool, error) {
	ok, err := call[bool](ctx, c, "deleteAllTokens", nil)
	if err != nil {
		return false, err
	}
	return *ok, nil
}

func call[T any](ctx context.Context, c *Client, operation string, args any) (*T, error) {
	var body io.Reader
	if args != nil {
		encoded, err := json.Marshal(args)
		if err != nil {
			return nil, fmt.Errorf("gateclient: encode arguments: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v1/op/"+operation, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", string(c.Scheme)+" "+c.token)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var failure struct {
			Error APIError `json:"error"`
		}
		if err := json.Unmarshal(raw, &failure); err != nil || failure.Error.Message == "" {
			return nil, &APIError{
				StatusCode: resp.StatusCode,
				Message:    http.StatusText(resp.StatusCode),
			}
		}
		failure.Error.StatusCode = resp.StatusCode
		return nil, &failure.Error
	}

	var success struct {
		Data T `json:"data"`
	}
	if err := json.Unmarshal(raw, &success); err != nil {
		return nil, fmt.Errorf("gateclient: decode response: %w", err)
	}
	return &success.Data, nil
}
