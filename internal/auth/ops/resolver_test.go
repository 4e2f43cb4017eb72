package ops

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aussiebroadwan/gqlgate/internal/auth/domain"
	"github.com/aussiebroadwan/gqlgate/internal/auth/service"
	"github.com/aussiebroadwan/gqlgate/internal/auth/store"
	"github.com/aussiebroadwan/gqlgate/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/gqlgate/pkg/cryptox"
	"github.com/aussiebroadwan/gqlgate/pkg/idx"
	"github.com/aussiebroadwan/gqlgate/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	store    store.Store
	resolver *Resolver
	registry *Registry
}

type nopMailer struct{}

func (nopMailer) SendActivationCode(context.Context, string, string, string) error    { return nil }
func (nopMailer) SendPasswordResetCode(context.Context, string, string, string) error { return nil }

func newFixture(t *testing.T, mode service.TokenMode, scope *service.ScopeService) *fixture {
	t.Helper()
	ctx := context.Background()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	require.NoError(t, st.Schemas().CreateSchema(ctx, domain.Schema{
		ID: 7, Name: "Public Schema", Sections: []string{"news", "blog"},
	}))

	scope.Store = st

	tokens := &service.TokenService{
		Store:             st,
		Issuer:            "https://cms.example.com",
		Mode:              mode,
		JWTExpiration:     30 * time.Minute,
		RefreshExpiration: 30 * 24 * time.Hour,
		SameSite:          http.SameSiteStrictMode,
	}
	users := &service.UserService{Store: st, Mailer: nopMailer{}}

	rv := &Resolver{
		Tokens:   tokens,
		Users:    users,
		Scope:    scope,
		Store:    st,
		Messages: service.DefaultMessages(),
	}

	reg := NewRegistry()
	require.NoError(t, rv.RegisterAll(reg))

	return &fixture{store: st, resolver: rv, registry: reg}
}

func (f *fixture) seedUser(t *testing.T, email, password string) domain.User {
	t.Helper()

	hash, err := cryptox.HashPassword(password)
	require.NoError(t, err)

	u := domain.User{
		ID:           idx.New().String(),
		Email:        email,
		PasswordHash: hash,
		FirstName:    "Jane",
		LastName:     "Doe",
	}
	require.NoError(t, f.store.Users().CreateUser(context.Background(), u))
	return u
}

func (f *fixture) call(t *testing.T, name string, args any, r *http.Request) (any, error) {
	t.Helper()

	op, ok := f.registry.Lookup(name)
	require.True(t, ok, "operation %q not registered", name)

	var raw json.RawMessage
	if args != nil {
		b, err := json.Marshal(args)
		require.NoError(t, err)
		raw = b
	}
	if r == nil {
		r = httptest.NewRequest(http.MethodPost, "/", nil)
	}
	return op.Resolve(context.Background(), Env{Writer: httptest.NewRecorder(), Request: r, Args: raw})
}

func mustSigner(t *testing.T) *jwtx.HS256 {
	t.Helper()
	signer, err := jwtx.NewHS256("test-secret-key-for-signing-0001")
	require.NoError(t, err)
	return signer
}

func singleScope() *service.ScopeService {
	return &service.ScopeService{Mode: service.PermissionSingle, SchemaID: 7}
}

func TestRegisteredOperationSet(t *testing.T) {
	f := newFixture(t, service.TokenModeHeader, singleScope())

	names := make(map[string]Kind)
	for _, op := range f.registry.Operations() {
		names[op.Name] = op.Kind
	}

	require.Equal(t, KindMutation, names["authenticate"])
	require.Equal(t, KindMutation, names["register"])
	require.Equal(t, KindQuery, names["getUser"])

	// refreshToken only exists in jwt mode.
	_, ok := names["refreshToken"]
	require.False(t, ok)

	jwtScoped := newFixture(t, service.TokenModeJWT, singleScope())
	_, ok = jwtScoped.registry.Lookup("refreshToken")
	require.True(t, ok)
}

func TestRegisterPerGroupOperations(t *testing.T) {
	scope := &service.ScopeService{
		Mode: service.PermissionMultiple,
		GroupSchemas: map[string]service.GroupSchema{
			"members": {SchemaID: 7, AllowRegistration: true},
			"staff":   {SchemaID: 7},
		},
	}
	f := newFixture(t, service.TokenModeHeader, scope)

	// One register mutation per registration-open group, none for the rest.
	_, ok := f.registry.Lookup("registerMembers")
	require.True(t, ok)
	_, ok = f.registry.Lookup("registerStaff")
	require.False(t, ok)
	_, ok = f.registry.Lookup("register")
	require.False(t, ok)
}

func TestAuthenticateSingleMode(t *testing.T) {
	f := newFixture(t, service.TokenModeHeader, singleScope())
	f.seedUser(t, "a@b.com", "pw")

	result, err := f.call(t, "authenticate", credentialsArgs{Email: "a@b.com", Password: "pw"}, nil)
	require.NoError(t, err)

	payload, ok := result.(CredentialPayload)
	require.True(t, ok)
	require.Len(t, payload.AccessToken, 32)
	require.Equal(t, "a@b.com", payload.User.Email)
	require.Equal(t, "Public Schema", payload.Schema)
	require.Empty(t, payload.JWT)

	_, err = f.call(t, "authenticate", credentialsArgs{Email: "a@b.com", Password: "nope"}, nil)
	require.ErrorIs(t, err, service.ErrInvalidLogin)
}

func TestRegisterThenGetUser(t *testing.T) {
	f := newFixture(t, service.TokenModeHeader, singleScope())

	result, err := f.call(t, "register", registerArgs{
		Email: "new@b.com", Password: "a strong password", FirstName: "New", LastName: "User",
	}, nil)
	require.NoError(t, err)

	payload := result.(CredentialPayload)
	require.NotEmpty(t, payload.AccessToken)
	require.Equal(t, "New User", payload.User.FullName)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer "+payload.AccessToken)
	got, err := f.call(t, "getUser", nil, r)
	require.NoError(t, err)
	require.Equal(t, "new@b.com", got.(UserView).Email)
}

func TestRefreshTokenOperation(t *testing.T) {
	f := newFixture(t, service.TokenModeJWT, singleScope())
	f.resolver.Tokens.Signer = mustSigner(t)
	f.seedUser(t, "a@b.com", "pw")

	result, err := f.call(t, "authenticate", credentialsArgs{Email: "a@b.com", Password: "pw"}, nil)
	require.NoError(t, err)
	payload := result.(CredentialPayload)
	require.NotEmpty(t, payload.JWT)
	require.NotEmpty(t, payload.RefreshToken)

	refreshed, err := f.call(t, "refreshToken", refreshArgs{RefreshToken: payload.RefreshToken}, nil)
	require.NoError(t, err)

	grant, ok := refreshed.(*domain.JWTGrant)
	require.True(t, ok)
	require.NotEqual(t, payload.RefreshToken, grant.RefreshToken)
	require.NotEmpty(t, grant.JWT)

	_, err = f.call(t, "refreshToken", refreshArgs{RefreshToken: "bogus"}, nil)
	require.ErrorIs(t, err, service.ErrInvalidRefreshToken)
}

func TestForgottenPasswordAlwaysSucceeds(t *testing.T) {
	f := newFixture(t, service.TokenModeHeader, singleScope())
	f.seedUser(t, "a@b.com", "pw")

	known, err := f.call(t, "forgottenPassword", emailArgs{Email: "a@b.com"}, nil)
	require.NoError(t, err)
	unknown, err := f.call(t, "forgottenPassword", emailArgs{Email: "nobody@b.com"}, nil)
	require.NoError(t, err)

	// The response never betrays whether the account exists.
	require.Equal(t, known, unknown)
}

func TestDeleteCurrentTokenOperation(t *testing.T) {
	f := newFixture(t, service.TokenModeHeader, singleScope())
	f.seedUser(t, "a@b.com", "pw")

	result, err := f.call(t, "authenticate", credentialsArgs{Email: "a@b.com", Password: "pw"}, nil)
	require.NoError(t, err)
	token := result.(CredentialPayload).AccessToken

	r := httptest.NewRequest(http.MethodPost, "/", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	ok, err := f.call(t, "deleteCurrentToken", nil, r)
	require.NoError(t, err)
	require.Equal(t, true, ok)

	// The same credential no longer resolves.
	_, err = f.call(t, "getUser", nil, r)
	require.ErrorIs(t, err, service.ErrInvalidHeader)
}

func TestRegisterOpNaming(t *testing.T) {
	require.Equal(t, "register", registerOpName(""))
	require.Equal(t, "registerMembers", registerOpName("members"))
	require.Equal(t, "registerVipGuests", registerOpName("vipGuests"))
}
