package sqlite

import (
	"context"
	"database/sql"

	"github.com/aussiebroadwan/gqlgate/internal/auth/domain"
)

type accessTokensRepo struct {
	db dbtx
}

func (r *accessTokensRepo) CreateAccessToken(ctx context.Context, t domain.AccessToken) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO access_tokens (id, name, token, user_id, schema_id, enabled, expires_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Name, t.Token, t.UserID, t.SchemaID,
		boolToInt(t.Enabled), mapOptionalTime(t.ExpiresAt), t.CreatedAt.UTC(),
	)
	return mapConstraint(err)
}

func (r *accessTokensRepo) GetAccessTokenByToken(ctx context.Context, token string) (domain.AccessToken, error) {
	var (
		t         domain.AccessToken
		enabled   int
		expiresAt sql.NullTime
	)

	// Disabled tokens are filtered here so a revoked credential looks the
	// same as one that never existed.
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, token, user_id, schema_id, enabled, expires_at, created_at
		 FROM access_tokens WHERE token = ? AND enabled = 1`,
		token,
	).Scan(&t.ID, &t.Name, &t.Token, &t.UserID, &t.SchemaID, &enabled, &expiresAt, &t.CreatedAt)
	if err != nil {
		return domain.AccessToken{}, mapNotFound(err)
	}

	t.Enabled = enabled != 0
	t.ExpiresAt = mapNullTimePtr(expiresAt)
	return t, nil
}

func (r *accessTokensRepo) DeleteAccessToken(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM access_tokens WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *accessTokensRepo) DeleteAccessTokensByNamePrefix(ctx context.Context, prefix string) (int64, error) {
	// ESCAPE guards against a prefix containing LIKE wildcards, even though
	// name tags are generated internally and never should.
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM access_tokens WHERE name LIKE ? ESCAPE '\'`,
		escapeLike(prefix)+"%",
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func escapeLike(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '%', '_', '\\':
			out = append(out, '\\')
		}
		out = append(out, s[i])
	}
	return string(out)
}
