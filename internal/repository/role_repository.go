package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/social-blog/internal/model"
)

const roleSelect = "SELECT id, name, permissions, is_default FROM roles"

// RoleRepo persists roles.
type RoleRepo struct{ db *sqlx.DB }

func NewRoleRepo(db *sqlx.DB) *RoleRepo { return &RoleRepo{db: db} }

// FindByName returns the role called name.
func (r *RoleRepo) FindByName(ctx context.Context, name string) (*model.Role, error) {
	var role model.Role
	if err := r.db.GetContext(ctx, &role, roleSelect+" WHERE name=? LIMIT 1", name); err != nil {
		return nil, mapError(err)
	}
	return &role, nil
}

// FindDefault returns the role flagged as default, or ErrNotFound before
// roles have been seeded.
func (r *RoleRepo) FindDefault(ctx context.Context) (*model.Role, error) {
	var role model.Role
	if err := r.db.GetContext(ctx, &role, roleSelect+" WHERE is_default=1 ORDER BY id LIMIT 1"); err != nil {
		return nil, mapError(err)
	}
	return &role, nil
}

// GetByID returns the role with the given id.
func (r *RoleRepo) GetByID(ctx context.Context, id uint64) (*model.Role, error) {
	var role model.Role
	if err := r.db.GetContext(ctx, &role, roleSelect+" WHERE id=? LIMIT 1", id); err != nil {
		return nil, mapError(err)
	}
	return &role, nil
}

// List returns every role ordered by id.
func (r *RoleRepo) List(ctx context.Context) ([]model.Role, error) {
	roles := []model.Role{}
	if err := r.db.SelectContext(ctx, &roles, roleSelect+" ORDER BY id"); err != nil {
		return nil, err
	}
	return roles, nil
}

// InsertRoles brings the roles table to the state described by roles.
// Existing rows are matched by name and have their mask and default flag
// overwritten; the default flag is cleared everywhere first so exactly one
// role holds it afterwards.  Running it repeatedly yields the same rows.
func (r *RoleRepo) InsertRoles(ctx context.Context, roles []model.Role) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "UPDATE roles SET is_default=0 WHERE is_default=1"); err != nil {
		return err
	}
	for _, role := range roles {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO roles (name, permissions, is_default) VALUES (?,?,?)
			 ON DUPLICATE KEY UPDATE permissions=VALUES(permissions), is_default=VALUES(is_default)`,
			role.Name, uint(role.Permissions), role.IsDefault); err != nil {
			return err
		}
	}
	return tx.Commit()
}
