package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"
	"time"

	"github.com/aussiebroadwan/gqlgate/internal/auth/domain"
	"github.com/aussiebroadwan/gqlgate/internal/auth/store"
	"github.com/aussiebroadwan/gqlgate/pkg/cryptox"
	"github.com/aussiebroadwan/gqlgate/pkg/idx"
	"github.com/aussiebroadwan/gqlgate/pkg/slogx"
)

// DefaultResetCodeTTL bounds how long a password-reset or activation code
// stays redeemable.
const DefaultResetCodeTTL = 24 * time.Hour

// Mailer delivers account emails. Outbound delivery is an external
// collaborator; the service only hands over the raw codes.
type Mailer interface {
	SendActivationCode(ctx context.Context, email, userID, code string) error
	SendPasswordResetCode(ctx context.Context, email, userID, code string) error
}

// UserService owns account lifecycle: authentication, registration, and the
// password flows.
type UserService struct {
	Store  store.Store
	Mailer Mailer

	// RequireVerification creates new accounts pending until they redeem an
	// emailed activation code via setPassword.
	RequireVerification bool

	// ResetCodeTTL defaults to DefaultResetCodeTTL when zero.
	ResetCodeTTL time.Duration
}

// Authenticate verifies an email/password pair. Unknown accounts, pending
// accounts and wrong passwords all collapse into ErrInvalidLogin.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (domain.User, error) {
	l := slogx.FromContext(ctx)

	user, err := s.Store.Users().GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, ErrInvalidLogin
		}
		return domain.User{}, err
	}

	if user.Pending {
		l.Info("login attempt on pending account", "user_id", user.ID)
		return domain.User{}, ErrInvalidLogin
	}

	if err := cryptox.VerifyPassword(password, user.PasswordHash); err != nil {
		l.Info("password verification failed", "user_id", user.ID)
		return domain.User{}, ErrInvalidLogin
	}

	now := time.Now().UTC()
	if err := s.Store.Users().MarkLastLogin(ctx, user.ID, now); err != nil {
		l.Error("failed to record last login", "error", err, "user_id", user.ID)
	}
	user.LastLoginAt = &now

	return user, nil
}

// Register creates a new account. In multiple-permission mode the account
// is placed into the named group; single mode passes an empty handle.
// Duplicate emails surface as the store's field-level validation error.
//
// When verification is required the account is created pending and an
// activation code is emailed; pending accounts cannot authenticate until
// they redeem the code through setPassword.
func (s *UserService) Register(ctx context.Context, groupHandle, email, password, firstName, lastName string) (domain.User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return domain.User{}, ErrInvalidRequest
	}

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return domain.User{}, err
	}

	now := time.Now().UTC()
	user := domain.User{
		ID:           idx.New().String(),
		Email:        email,
		FirstName:    strings.TrimSpace(firstName),
		LastName:     strings.TrimSpace(lastName),
		PasswordHash: hash,
		Pending:      s.RequireVerification,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if !s.RequireVerification {
		user.LastLoginAt = &now
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().CreateUser(ctx, user); err != nil {
			return err
		}
		if groupHandle == "" {
			return nil
		}
		group, err := tx.Groups().GetGroupByHandle(ctx, groupHandle)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrInvalidSchema
			}
			return err
		}
		return tx.Users().AssignUserToGroup(ctx, user.ID, group.ID, 0)
	})
	if err != nil {
		return domain.User{}, err
	}

	if s.RequireVerification {
		if err := s.sendCode(ctx, user, s.Mailer.SendActivationCode); err != nil {
			return domain.User{}, err
		}
	}

	return user, nil
}

// ForgottenPassword starts a password reset. It reports success whether or
// not the email matches an account, so the operation can't be used to
// enumerate users.
func (s *UserService) ForgottenPassword(ctx context.Context, email string) error {
	l := slogx.FromContext(ctx)

	user, err := s.Store.Users().GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return err
	}

	if err := s.sendCode(ctx, user, s.Mailer.SendPasswordResetCode); err != nil {
		// Delivery faults stay invisible to the caller for the same
		// enumeration-resistance reason; they are an operator problem.
		l.Error("failed to send password reset code", "error", err, "user_id", user.ID)
	}
	return nil
}

// SetPassword redeems a reset or activation code and saves a new password.
// Any code problem, including an unknown user id, reports ErrInvalidRequest.
func (s *UserService) SetPassword(ctx context.Context, userID, code, password string) error {
	if code == "" || password == "" {
		return ErrInvalidRequest
	}

	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvalidRequest
		}
		return err
	}

	now := time.Now().UTC()
	if user.VerificationCodeHash == nil ||
		user.VerificationCodeExpiresAt == nil ||
		!now.Before(*user.VerificationCodeExpiresAt) {
		return ErrInvalidRequest
	}

	fp := cryptox.FingerprintToken(code)
	if subtle.ConstantTimeCompare([]byte(fp), []byte(*user.VerificationCodeHash)) != 1 {
		return ErrInvalidRequest
	}

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return err
	}

	return s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().UpdatePasswordHash(ctx, user.ID, hash); err != nil {
			return err
		}
		if err := tx.Users().ClearVerificationCode(ctx, user.ID); err != nil {
			return err
		}
		if user.Pending {
			// Redeeming the code proves control of the mailbox.
			return tx.Users().ActivateUser(ctx, user.ID)
		}
		return nil
	})
}

// UpdatePassword changes the password of an authenticated user. The current
// password must verify and the new pair must match.
func (s *UserService) UpdatePassword(ctx context.Context, user domain.User, currentPassword, newPassword, confirmPassword string) error {
	if err := cryptox.VerifyPassword(currentPassword, user.PasswordHash); err != nil {
		return ErrInvalidPasswordUpdate
	}
	if newPassword == "" || newPassword != confirmPassword {
		return ErrInvalidPasswordMatch
	}

	hash, err := cryptox.HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.Store.Users().UpdatePasswordHash(ctx, user.ID, hash); err != nil {
		return ErrInvalidPasswordUpdate
	}
	return nil
}

// UpdateUser rewrites profile fields on an authenticated user. Empty fields
// keep their current value; the email doubles as the login name.
func (s *UserService) UpdateUser(ctx context.Context, user domain.User, email, firstName, lastName string) (domain.User, error) {
	if email = normalizeEmail(email); email != "" {
		user.Email = email
	}
	if firstName = strings.TrimSpace(firstName); firstName != "" {
		user.FirstName = firstName
	}
	if lastName = strings.TrimSpace(lastName); lastName != "" {
		user.LastName = lastName
	}

	err := s.Store.Users().UpdateUserProfile(ctx, user.ID, user.Email, user.FirstName, user.LastName)
	if err != nil {
		var verr *store.ValidationError
		if errors.As(err, &verr) {
			return domain.User{}, err
		}
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, ErrInvalidUserUpdate
	}

	user.UpdatedAt = time.Now().UTC()
	return user, nil
}

// sendCode mints a one-time code, stores its fingerprint and hands the raw
// value to the mailer. Only the fingerprint is ever persisted.
func (s *UserService) sendCode(ctx context.Context, user domain.User, deliver func(ctx context.Context, email, userID, code string) error) error {
	code, err := cryptox.GenerateToken(cryptox.TokenSize128)
	if err != nil {
		return err
	}

	ttl := s.ResetCodeTTL
	if ttl == 0 {
		ttl = DefaultResetCodeTTL
	}

	expires := time.Now().UTC().Add(ttl)
	if err := s.Store.Users().SetVerificationCode(ctx, user.ID, cryptox.FingerprintToken(code), expires); err != nil {
		return err
	}
	return deliver(ctx, user.Email, user.ID, code)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
