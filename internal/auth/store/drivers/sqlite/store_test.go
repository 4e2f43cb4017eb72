package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/aussiebroadwan/gqlgate/internal/auth/domain"
	"github.com/aussiebroadwan/gqlgate/internal/auth/store"
	"github.com/aussiebroadwan/gqlgate/pkg/idx"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.ApplyMigrations())
	return s
}

func seedUser(t *testing.T, s *Store, email string) domain.User {
	t.Helper()

	u := domain.User{
		ID:           idx.New().String(),
		Email:        email,
		FirstName:    "Test",
		LastName:     "User",
		PasswordHash: "$argon2id$v=19$m=19456,t=2,p=1$c2FsdA$aGFzaA",
	}
	require.NoError(t, s.Users().CreateUser(context.Background(), u))
	return u
}

func TestUsersRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	created := seedUser(t, s, "a@b.com")

	byID, err := s.Users().GetUserByID(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, created.Email, byID.Email)
	require.False(t, byID.Pending)
	require.Nil(t, byID.LastLoginAt)

	byEmail, err := s.Users().GetUserByEmail(ctx, "a@b.com")
	require.NoError(t, err)
	require.Equal(t, created.ID, byEmail.ID)

	_, err = s.Users().GetUserByEmail(ctx, "missing@b.com")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestCreateUserDuplicateEmailIsValidationError(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	seedUser(t, s, "a@b.com")

	err := s.Users().CreateUser(ctx, domain.User{
		ID:           idx.New().String(),
		Email:        "a@b.com",
		PasswordHash: "x",
	})
	require.Error(t, err)

	var verr *store.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "email", verr.Field)
}

func TestVerificationCodeLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	u := seedUser(t, s, "a@b.com")

	expires := time.Now().Add(time.Hour).UTC()
	require.NoError(t, s.Users().SetVerificationCode(ctx, u.ID, "code-fingerprint", expires))

	got, err := s.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, got.VerificationCodeHash)
	require.Equal(t, "code-fingerprint", *got.VerificationCodeHash)
	require.NotNil(t, got.VerificationCodeExpiresAt)
	require.WithinDuration(t, expires, *got.VerificationCodeExpiresAt, time.Second)

	require.NoError(t, s.Users().ClearVerificationCode(ctx, u.ID))
	got, err = s.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.Nil(t, got.VerificationCodeHash)
}

func TestUserGroupsOrdering(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	u := seedUser(t, s, "a@b.com")

	staff := domain.Group{ID: idx.New().String(), Handle: "staff", Name: "Staff"}
	members := domain.Group{ID: idx.New().String(), Handle: "members", Name: "Members"}
	require.NoError(t, s.Groups().CreateGroup(ctx, staff))
	require.NoError(t, s.Groups().CreateGroup(ctx, members))

	require.NoError(t, s.Users().AssignUserToGroup(ctx, u.ID, members.ID, 0))
	require.NoError(t, s.Users().AssignUserToGroup(ctx, u.ID, staff.ID, 1))

	groups, err := s.Users().ListUserGroups(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, groups, 2)
	require.Equal(t, "members", groups[0].Handle)
	require.Equal(t, "staff", groups[1].Handle)
}

func TestSchemasAndSections(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.Schemas().CreateSchema(ctx, domain.Schema{
		ID: 7, Name: "Public Schema", Sections: []string{"news", "blog"},
	}))

	schema, err := s.Schemas().GetSchemaByID(ctx, 7)
	require.NoError(t, err)
	require.Equal(t, "Public Schema", schema.Name)
	require.Equal(t, []string{"news", "blog"}, schema.Sections)

	require.NoError(t, s.Sections().CreateSection(ctx, domain.Section{ID: 3, Handle: "news", Name: "News"}))

	byHandle, err := s.Sections().GetSectionByHandle(ctx, "news")
	require.NoError(t, err)
	require.EqualValues(t, 3, byHandle.ID)

	byID, err := s.Sections().GetSectionByID(ctx, 3)
	require.NoError(t, err)
	require.Equal(t, "news", byID.Handle)
}

func TestAccessTokenLookupAndRevocation(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	u := seedUser(t, s, "a@b.com")
	require.NoError(t, s.Schemas().CreateSchema(ctx, domain.Schema{ID: 1, Name: "Schema"}))

	now := time.Now().UTC()
	tok := domain.AccessToken{
		ID:        idx.New().String(),
		Name:      domain.TokenName(u.ID, now),
		Token:     "opaque-token-value-0123456789abc",
		UserID:    u.ID,
		SchemaID:  1,
		Enabled:   true,
		CreatedAt: now,
	}
	require.NoError(t, s.AccessTokens().CreateAccessToken(ctx, tok))

	got, err := s.AccessTokens().GetAccessTokenByToken(ctx, tok.Token)
	require.NoError(t, err)
	require.Equal(t, tok.Name, got.Name)
	require.Equal(t, u.ID, got.UserID)
	require.Nil(t, got.ExpiresAt)

	// Reusing a token value must fail: token strings are never reused.
	dup := tok
	dup.ID = idx.New().String()
	require.Error(t, s.AccessTokens().CreateAccessToken(ctx, dup))

	require.NoError(t, s.AccessTokens().DeleteAccessToken(ctx, tok.ID))
	_, err = s.AccessTokens().GetAccessTokenByToken(ctx, tok.Token)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestDeleteAccessTokensByNamePrefix(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	alice := seedUser(t, s, "alice@b.com")
	bob := seedUser(t, s, "bob@b.com")
	require.NoError(t, s.Schemas().CreateSchema(ctx, domain.Schema{ID: 1, Name: "Schema"}))

	mint := func(userID, token string) {
		require.NoError(t, s.AccessTokens().CreateAccessToken(ctx, domain.AccessToken{
			ID:        idx.New().String(),
			Name:      domain.TokenName(userID, time.Now()),
			Token:     token,
			UserID:    userID,
			SchemaID:  1,
			Enabled:   true,
			CreatedAt: time.Now().UTC(),
		}))
	}

	mint(alice.ID, "alice-token-1")
	mint(alice.ID, "alice-token-2")
	mint(bob.ID, "bob-token-1")

	removed, err := s.AccessTokens().DeleteAccessTokensByNamePrefix(ctx, domain.UserTokenPrefix(alice.ID))
	require.NoError(t, err)
	require.EqualValues(t, 2, removed)

	_, err = s.AccessTokens().GetAccessTokenByToken(ctx, "alice-token-1")
	require.ErrorIs(t, err, store.ErrNotFound)

	// Bob's token is untouched.
	_, err = s.AccessTokens().GetAccessTokenByToken(ctx, "bob-token-1")
	require.NoError(t, err)
}

func TestRefreshTokenExpiryIsAdvisory(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	u := seedUser(t, s, "a@b.com")
	require.NoError(t, s.Schemas().CreateSchema(ctx, domain.Schema{ID: 1, Name: "Schema"}))

	live := domain.RefreshToken{
		ID:        idx.New().String(),
		Token:     "live-refresh-token",
		UserID:    u.ID,
		SchemaID:  1,
		ExpiresAt: time.Now().Add(time.Hour).UTC(),
		CreatedAt: time.Now().UTC(),
	}
	dead := domain.RefreshToken{
		ID:        idx.New().String(),
		Token:     "dead-refresh-token",
		UserID:    u.ID,
		SchemaID:  1,
		ExpiresAt: time.Now().Add(-time.Hour).UTC(),
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, s.RefreshTokens().CreateRefreshToken(ctx, live))
	require.NoError(t, s.RefreshTokens().CreateRefreshToken(ctx, dead))

	got, err := s.RefreshTokens().GetRefreshTokenByToken(ctx, "live-refresh-token")
	require.NoError(t, err)
	require.Equal(t, live.ID, got.ID)

	_, err = s.RefreshTokens().GetRefreshTokenByToken(ctx, "dead-refresh-token")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestWithTxRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	err := s.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Groups().CreateGroup(ctx, domain.Group{
			ID: idx.New().String(), Handle: "staff", Name: "Staff",
		}); err != nil {
			return err
		}
		return context.Canceled
	})
	require.ErrorIs(t, err, context.Canceled)

	_, err = s.Groups().GetGroupByHandle(ctx, "staff")
	require.ErrorIs(t, err, store.ErrNotFound)
}
