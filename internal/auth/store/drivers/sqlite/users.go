package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/aussiebroadwan/gqlgate/internal/auth/domain"
)

type usersRepo struct {
	db dbtx
}

const userColumns = `id, email, first_name, last_name, password_hash, pending,
	verification_code_hash, verification_code_expires_at, last_login_at,
	created_at, updated_at`

func (r *usersRepo) scanUser(row *sql.Row) (domain.User, error) {
	var (
		u           domain.User
		pending     int
		codeHash    sql.NullString
		codeExpires sql.NullTime
		lastLogin   sql.NullTime
	)

	err := row.Scan(
		&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.PasswordHash, &pending,
		&codeHash, &codeExpires, &lastLogin,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}

	u.Pending = pending != 0
	u.VerificationCodeHash = mapNullStringPtr(codeHash)
	u.VerificationCodeExpiresAt = mapNullTimePtr(codeExpires)
	u.LastLoginAt = mapNullTimePtr(lastLogin)
	return u, nil
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	return r.scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	return r.scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email))
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, email, first_name, last_name, password_hash, pending)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.FirstName, u.LastName, u.PasswordHash, boolToInt(u.Pending),
	)
	return mapConstraint(err)
}

func (r *usersRepo) UpdateUserProfile(ctx context.Context, userID, email, firstName, lastName string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET email = ?, first_name = ?, last_name = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		email, firstName, lastName, userID,
	)
	if err != nil {
		return mapConstraint(err)
	}
	return requireRow(res)
}

func (r *usersRepo) UpdatePasswordHash(ctx context.Context, userID string, newHash string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET password_hash = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		newHash, userID,
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *usersRepo) SetVerificationCode(ctx context.Context, userID, codeHash string, expiresAt time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET verification_code_hash = ?, verification_code_expires_at = ?,
		 updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		codeHash, expiresAt.UTC(), userID,
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *usersRepo) ClearVerificationCode(ctx context.Context, userID string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET verification_code_hash = NULL, verification_code_expires_at = NULL,
		 updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		userID,
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *usersRepo) ActivateUser(ctx context.Context, userID string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET pending = 0, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		userID,
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *usersRepo) MarkLastLogin(ctx context.Context, userID string, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET last_login_at = ? WHERE id = ?`,
		at.UTC(), userID,
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *usersRepo) AssignUserToGroup(ctx context.Context, userID, groupID string, position int) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO user_groups (user_id, group_id, position) VALUES (?, ?, ?)`,
		userID, groupID, position,
	)
	return mapConstraint(err)
}

func (r *usersRepo) ListUserGroups(ctx context.Context, userID string) ([]domain.Group, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT g.id, g.handle, g.name
		 FROM groups g
		 JOIN user_groups ug ON ug.group_id = g.id
		 WHERE ug.user_id = ?
		 ORDER BY ug.position ASC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var groups []domain.Group
	for rows.Next() {
		var g domain.Group
		if err := rows.Scan(&g.ID, &g.Handle, &g.Name); err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// requireRow maps zero-row updates to ErrNotFound so callers can tell a
// missing record from a silent no-op.
func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return mapNotFound(sql.ErrNoRows)
	}
	return nil
}
