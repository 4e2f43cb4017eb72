package sqlite

import (
	"context"
	"time"

	"github.com/aussiebroadwan/gqlgate/internal/auth/domain"
	"github.com/aussiebroadwan/gqlgate/internal/auth/store"
)

type refreshTokensRepo struct {
	db dbtx
}

func (r *refreshTokensRepo) CreateRefreshToken(ctx context.Context, t domain.RefreshToken) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO refresh_tokens (id, token, user_id, schema_id, expires_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		t.ID, t.Token, t.UserID, t.SchemaID, t.ExpiresAt.UTC(), t.CreatedAt.UTC(),
	)
	return mapConstraint(err)
}

func (r *refreshTokensRepo) GetRefreshTokenByToken(ctx context.Context, token string) (domain.RefreshToken, error) {
	var t domain.RefreshToken

	err := r.db.QueryRowContext(ctx,
		`SELECT id, token, user_id, schema_id, expires_at, created_at
		 FROM refresh_tokens WHERE token = ?`,
		token,
	).Scan(&t.ID, &t.Token, &t.UserID, &t.SchemaID, &t.ExpiresAt, &t.CreatedAt)
	if err != nil {
		return domain.RefreshToken{}, mapNotFound(err)
	}

	// Expired refresh tokens are advisory-dead, not revoked: nothing sweeps
	// them, the lookup just refuses to return them.
	if !t.ExpiresAt.After(time.Now().UTC()) {
		return domain.RefreshToken{}, store.ErrNotFound
	}

	return t, nil
}
