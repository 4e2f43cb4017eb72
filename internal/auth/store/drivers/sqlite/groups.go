package sqlite

import (
	"context"

	"github.com/aussiebroadwan/gqlgate/internal/auth/domain"
)

type groupsRepo struct {
	db dbtx
}

func (r *groupsRepo) GetGroupByHandle(ctx context.Context, handle string) (domain.Group, error) {
	var g domain.Group
	err := r.db.QueryRowContext(ctx,
		`SELECT id, handle, name FROM groups WHERE handle = ?`, handle,
	).Scan(&g.ID, &g.Handle, &g.Name)
	if err != nil {
		return domain.Group{}, mapNotFound(err)
	}
	return g, nil
}

func (r *groupsRepo) ListGroups(ctx context.Context) ([]domain.Group, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, handle, name FROM groups ORDER BY handle ASC`)
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

func (r *groupsRepo) CreateGroup(ctx context.Context, g domain.Group) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO groups (id, handle, name) VALUES (?, ?, ?)`,
		g.ID, g.Handle, g.Name,
	)
	return mapConstraint(err)
}
