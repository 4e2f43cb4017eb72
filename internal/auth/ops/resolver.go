package ops

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/aussiebroadwan/gqlgate/internal/auth/domain"
	"github.com/aussiebroadwan/gqlgate/internal/auth/service"
	"github.com/aussiebroadwan/gqlgate/internal/auth/store"
)

// Resolver binds the services to the operations they back. One instance
// serves the whole process.
type Resolver struct {
	Tokens   *service.TokenService
	Users    *service.UserService
	Scope    *service.ScopeService
	Store    store.Store
	Messages service.Messages
}

// UserView is the user shape returned by operations.
type UserView struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	FirstName   string     `json:"firstName"`
	LastName    string     `json:"lastName"`
	FullName    string     `json:"fullName"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
}

func viewOf(u domain.User) UserView {
	return UserView{
		ID:          u.ID,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		FullName:    u.FullName(),
		LastLoginAt: u.LastLoginAt,
	}
}

// CredentialPayload is the result of authenticate and register. The JWT
// fields are only present in JWT transport mode.
type CredentialPayload struct {
	AccessToken           string   `json:"accessToken"`
	JWT                   string   `json:"jwt,omitempty"`
	JWTExpiresAt          int64    `json:"jwtExpiresAt,omitempty"`
	RefreshToken          string   `json:"refreshToken,omitempty"`
	RefreshTokenExpiresAt int64    `json:"refreshTokenExpiresAt,omitempty"`
	User                  UserView `json:"user"`
	Schema                string   `json:"schema"`
}

// MessagePayload carries operations whose whole result is display text.
type MessagePayload struct {
	Message string `json:"message"`
}

// RegisterAll publishes every operation the engine exposes. The register
// mutation fans out per group in multiple-permission mode, and
// refreshToken only exists when a refresh token can exist.
func (rv *Resolver) RegisterAll(reg *Registry) error {
	ops := []Operation{
		{Name: "authenticate", Kind: KindMutation, Resolve: rv.authenticate},
		{Name: "forgottenPassword", Kind: KindMutation, Resolve: rv.forgottenPassword},
		{Name: "setPassword", Kind: KindMutation, Resolve: rv.setPassword},
		{Name: "updatePassword", Kind: KindMutation, Resolve: rv.updatePassword},
		{Name: "updateUser", Kind: KindMutation, Resolve: rv.updateUser},
		{Name: "deleteCurrentToken", Kind: KindMutation, Resolve: rv.deleteCurrentToken},
		{Name: "deleteAllTokens", Kind: KindMutation, Resolve: rv.deleteAllTokens},
		{Name: "getUser", Kind: KindQuery, Resolve: rv.getUser},
	}

	if rv.Scope.Mode == service.PermissionMultiple {
		for _, handle := range rv.Scope.RegistrableGroups() {
			ops = append(ops, Operation{
				Name:    registerOpName(handle),
				Kind:    KindMutation,
				Resolve: rv.registerFor(handle),
			})
		}
	} else {
		ops = append(ops, Operation{Name: "register", Kind: KindMutation, Resolve: rv.registerFor("")})
	}

	if rv.Tokens.Mode == service.TokenModeJWT {
		ops = append(ops, Operation{Name: "refreshToken", Kind: KindMutation, Resolve: rv.refreshToken})
	}

	for _, op := range ops {
		if err := reg.Register(op); err != nil {
			return err
		}
	}
	return nil
}

// registerOpName turns a group handle into its mutation name, e.g.
// "members" becomes "registerMembers".
func registerOpName(handle string) string {
	if handle == "" {
		return "register"
	}
	return "register" + strings.ToUpper(handle[:1]) + handle[1:]
}

type credentialsArgs struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (rv *Resolver) authenticate(ctx context.Context, env Env) (any, error) {
	args, err := decodeArgs[credentialsArgs](env)
	if err != nil {
		return nil, err
	}

	user, err := rv.Users.Authenticate(ctx, args.Email, args.Password)
	if err != nil {
		return nil, err
	}

	schemaID, err := rv.Scope.SchemaIDForUser(ctx, user)
	if err != nil {
		return nil, err
	}

	return rv.issue(ctx, env, user, schemaID)
}

type registerArgs struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

func (rv *Resolver) registerFor(groupHandle string) ResolveFunc {
	return func(ctx context.Context, env Env) (any, error) {
		args, err := decodeArgs[registerArgs](env)
		if err != nil {
			return nil, err
		}

		// Resolve the schema up front so a registration-closed group fails
		// before any account is created.
		schemaID, err := rv.Scope.SchemaIDForGroup(groupHandle)
		if err != nil {
			return nil, err
		}

		user, err := rv.Users.Register(ctx, groupHandle, args.Email, args.Password, args.FirstName, args.LastName)
		if err != nil {
			return nil, err
		}

		if user.Pending {
			return MessagePayload{Message: rv.Messages.ActivationRequired}, nil
		}

		return rv.issue(ctx, env, user, schemaID)
	}
}

type refreshArgs struct {
	RefreshToken string `json:"refreshToken"`
}

func (rv *Resolver) refreshToken(ctx context.Context, env Env) (any, error) {
	args, err := decodeArgs[refreshArgs](env)
	if err != nil {
		return nil, err
	}

	issued, _, err := rv.Tokens.Refresh(ctx, env.Writer, env.Request, args.RefreshToken)
	if err != nil {
		return nil, err
	}
	if issued.Grant == nil {
		return nil, service.ErrInvalidRefreshToken
	}
	return issued.Grant, nil
}

type emailArgs struct {
	Email string `json:"email"`
}

func (rv *Resolver) forgottenPassword(ctx context.Context, env Env) (any, error) {
	args, err := decodeArgs[emailArgs](env)
	if err != nil {
		return nil, err
	}
	if err := rv.Users.ForgottenPassword(ctx, args.Email); err != nil {
		return nil, err
	}
	return MessagePayload{Message: rv.Messages.ForgottenPassword}, nil
}

type setPasswordArgs struct {
	Password string `json:"password"`
	Code     string `json:"code"`
	ID       string `json:"id"`
}

func (rv *Resolver) setPassword(ctx context.Context, env Env) (any, error) {
	args, err := decodeArgs[setPasswordArgs](env)
	if err != nil {
		return nil, err
	}
	if err := rv.Users.SetPassword(ctx, args.ID, args.Code, args.Password); err != nil {
		return nil, err
	}
	return MessagePayload{Message: rv.Messages.PasswordSaved}, nil
}

type updatePasswordArgs struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

func (rv *Resolver) updatePassword(ctx context.Context, env Env) (any, error) {
	args, err := decodeArgs[updatePasswordArgs](env)
	if err != nil {
		return nil, err
	}

	user, _, err := rv.Tokens.UserFromRequest(ctx, env.Request)
	if err != nil {
		return nil, err
	}
	if err := rv.Users.UpdatePassword(ctx, user, args.CurrentPassword, args.NewPassword, args.ConfirmPassword); err != nil {
		return nil, err
	}
	return MessagePayload{Message: rv.Messages.PasswordUpdated}, nil
}

type updateUserArgs struct {
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

func (rv *Resolver) updateUser(ctx context.Context, env Env) (any, error) {
	args, err := decodeArgs[updateUserArgs](env)
	if err != nil {
		return nil, err
	}

	user, _, err := rv.Tokens.UserFromRequest(ctx, env.Request)
	if err != nil {
		return nil, err
	}
	updated, err := rv.Users.UpdateUser(ctx, user, args.Email, args.FirstName, args.LastName)
	if err != nil {
		return nil, err
	}
	return viewOf(updated), nil
}

func (rv *Resolver) deleteCurrentToken(ctx context.Context, env Env) (any, error) {
	if err := rv.Tokens.DeleteCurrent(ctx, env.Request); err != nil {
		return nil, err
	}
	return true, nil
}

func (rv *Resolver) deleteAllTokens(ctx context.Context, env Env) (any, error) {
	if _, err := rv.Tokens.DeleteAll(ctx, env.Request); err != nil {
		return nil, err
	}
	return true, nil
}

func (rv *Resolver) getUser(ctx context.Context, env Env) (any, error) {
	user, _, err := rv.Tokens.UserFromRequest(ctx, env.Request)
	if err != nil {
		return nil, err
	}
	return viewOf(user), nil
}

// issue mints a credential for the user under the schema and shapes the
// mode-appropriate payload.
func (rv *Resolver) issue(ctx context.Context, env Env, user domain.User, schemaID int64) (any, error) {
	issued, err := rv.Tokens.Create(ctx, env.Writer, user, schemaID)
	if err != nil {
		return nil, err
	}

	schema, err := rv.Store.Schemas().GetSchemaByID(ctx, schemaID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, service.ErrInvalidSchema
		}
		return nil, err
	}

	payload := CredentialPayload{
		AccessToken: issued.AccessToken,
		User:        viewOf(user),
		Schema:      schema.Name,
	}
	if issued.Grant != nil {
		payload.JWT = issued.Grant.JWT
		payload.JWTExpiresAt = issued.Grant.JWTExpiresAt
		payload.RefreshToken = issued.Grant.RefreshToken
		payload.RefreshTokenExpiresAt = issued.Grant.RefreshTokenExpiresAt
	}
	return payload, nil
}
