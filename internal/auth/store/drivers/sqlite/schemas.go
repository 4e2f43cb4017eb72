package sqlite

import (
	"context"
	"strings"

	"github.com/aussiebroadwan/gqlgate/internal/auth/domain"
)

type schemasRepo struct {
	db dbtx
}

func (r *schemasRepo) GetSchemaByID(ctx context.Context, id int64) (domain.Schema, error) {
	var (
		s        domain.Schema
		sections string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, sections FROM schemas WHERE id = ?`, id,
	).Scan(&s.ID, &s.Name, &sections)
	if err != nil {
		return domain.Schema{}, mapNotFound(err)
	}
	s.Sections = splitFields(sections)
	return s, nil
}

func (r *schemasRepo) CreateSchema(ctx context.Context, s domain.Schema) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO schemas (id, name, sections) VALUES (?, ?, ?)`,
		s.ID, s.Name, strings.Join(s.Sections, " "),
	)
	return mapConstraint(err)
}

type sectionsRepo struct {
	db dbtx
}

func (r *sectionsRepo) GetSectionByHandle(ctx context.Context, handle string) (domain.Section, error) {
	var s domain.Section
	err := r.db.QueryRowContext(ctx,
		`SELECT id, handle, name FROM sections WHERE handle = ?`, handle,
	).Scan(&s.ID, &s.Handle, &s.Name)
	if err != nil {
		return domain.Section{}, mapNotFound(err)
	}
	return s, nil
}

func (r *sectionsRepo) GetSectionByID(ctx context.Context, id int64) (domain.Section, error) {
	var s domain.Section
	err := r.db.QueryRowContext(ctx,
		`SELECT id, handle, name FROM sections WHERE id = ?`, id,
	).Scan(&s.ID, &s.Handle, &s.Name)
	if err != nil {
		return domain.Section{}, mapNotFound(err)
	}
	return s, nil
}

func (r *sectionsRepo) CreateSection(ctx context.Context, s domain.Section) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sections (id, handle, name) VALUES (?, ?, ?)`,
		s.ID, s.Handle, s.Name,
	)
	return mapConstraint(err)
}
