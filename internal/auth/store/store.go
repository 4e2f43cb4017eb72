package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/gqlgate/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// ValidationError carries field-level detail for writes the store rejects,
// e.g. a duplicate email on registration. These surface to API consumers
// verbatim rather than being collapsed into a generic failure.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("store: %s: %s", e.Field, e.Message)
}

// Store is the root data access interface. Concrete drivers (sqlite)
// implement this. It exposes sub-repositories to keep concerns tidy and
// testable.
type Store interface {
	Users() Users
	Groups() Groups
	Schemas() Schemas
	Sections() Sections
	AccessTokens() AccessTokens
	RefreshTokens() RefreshTokens

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction. If fn returns an error the
	// transaction is rolled back, otherwise it is committed.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// GetUserByID returns a user by id.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail is used during authentication; the email doubles as
	// the username.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// CreateUser inserts a new user (id is provided by the app via ULID).
	CreateUser(ctx context.Context, u domain.User) error

	// UpdateUserProfile rewrites email and names, bumping updated_at.
	UpdateUserProfile(ctx context.Context, userID, email, firstName, lastName string) error

	// UpdatePasswordHash sets the password_hash (argon2) and bumps updated_at.
	UpdatePasswordHash(ctx context.Context, userID string, newHash string) error

	// SetVerificationCode stores the fingerprint and expiry of an
	// outstanding reset/activation code, replacing any previous one.
	SetVerificationCode(ctx context.Context, userID, codeHash string, expiresAt time.Time) error

	// ClearVerificationCode removes the outstanding code after use.
	ClearVerificationCode(ctx context.Context, userID string) error

	// ActivateUser clears the pending flag once the account is verified.
	ActivateUser(ctx context.Context, userID string) error

	// MarkLastLogin records a successful authentication.
	MarkLastLogin(ctx context.Context, userID string, at time.Time) error

	// AssignUserToGroup appends the user to a group. Position determines
	// ordering; the first group governs the user's effective schema.
	AssignUserToGroup(ctx context.Context, userID, groupID string, position int) error

	// ListUserGroups returns the user's groups ordered by position.
	ListUserGroups(ctx context.Context, userID string) ([]domain.Group, error)
}

type Groups interface {
	GetGroupByHandle(ctx context.Context, handle string) (domain.Group, error)

	// ListGroups returns all groups; registration mutations are derived
	// from this list at startup.
	ListGroups(ctx context.Context) ([]domain.Group, error)

	CreateGroup(ctx context.Context, g domain.Group) error
}

type Schemas interface {
	// GetSchemaByID resolves a schema id to its name and readable sections.
	GetSchemaByID(ctx context.Context, id int64) (domain.Schema, error)

	CreateSchema(ctx context.Context, s domain.Schema) error
}

type Sections interface {
	GetSectionByHandle(ctx context.Context, handle string) (domain.Section, error)

	GetSectionByID(ctx context.Context, id int64) (domain.Section, error)

	CreateSection(ctx context.Context, s domain.Section) error
}

type AccessTokens interface {
	// CreateAccessToken stores a new access token record.
	CreateAccessToken(ctx context.Context, t domain.AccessToken) error

	// GetAccessTokenByToken returns the enabled record matching the opaque
	// token value. Disabled tokens are indistinguishable from absent ones.
	GetAccessTokenByToken(ctx context.Context, token string) (domain.AccessToken, error)

	// DeleteAccessToken removes a single record (logout-this-device).
	DeleteAccessToken(ctx context.Context, id string) error

	// DeleteAccessTokensByNamePrefix bulk-removes every record whose name
	// tag starts with the prefix (logout-all-devices for one user).
	// Returns the number of records removed.
	DeleteAccessTokensByNamePrefix(ctx context.Context, prefix string) (int64, error)
}

type RefreshTokens interface {
	// CreateRefreshToken stores a new refresh token record.
	CreateRefreshToken(ctx context.Context, t domain.RefreshToken) error

	// GetRefreshTokenByToken returns the record matching the opaque token
	// value. Expired records are filtered out by the query; expiry here is
	// advisory, not an enforced revocation.
	GetRefreshTokenByToken(ctx context.Context, token string) (domain.RefreshToken, error)
}
