package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/social-blog/internal/model"
)

// userSelect loads a user together with its role in one round trip.
const userSelect = `SELECT u.id, u.email, u.username, u.password_hash, u.confirmed, u.role_id,
       u.name, u.location, u.about_me, u.created_at, u.last_active_at,
       r.name AS role_name, r.permissions AS role_permissions, r.is_default AS role_is_default
  FROM users u
  LEFT JOIN roles r ON r.id = u.role_id`

// userRow is the scan target for userSelect.
type userRow struct {
	model.User
	RoleName        sql.NullString `db:"role_name"`
	RolePermissions sql.NullInt64  `db:"role_permissions"`
	RoleIsDefault   sql.NullBool   `db:"role_is_default"`
}

func (r userRow) toModel() *model.User {
	u := r.User
	if u.RoleID != nil && r.RoleName.Valid {
		u.Role = &model.Role{
			ID:          *u.RoleID,
			Name:        r.RoleName.String,
			Permissions: model.Permission(r.RolePermissions.Int64),
			IsDefault:   r.RoleIsDefault.Bool,
		}
	}
	return &u
}

// UserRepo persists users.
type UserRepo struct{ db *sqlx.DB }

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{db: db} }

// Create inserts u and the user's self-follow edge in a single
// transaction, so a committed user always follows themselves.  On success
// u.ID and the timestamps are populated.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	now := time.Now().UTC().Truncate(time.Second)
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	if u.LastActiveAt.IsZero() {
		u.LastActiveAt = now
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO users (email, username, password_hash, confirmed, role_id, name, location, about_me, created_at, last_active_at)
		 VALUES (?,?,?,?,?,?,?,?,?,?)`,
		u.Email, u.Username, u.PasswordHash, u.Confirmed, u.RoleID,
		u.Name, u.Location, u.AboutMe, u.CreatedAt, u.LastActiveAt)
	if err != nil {
		return mapError(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT IGNORE INTO follows (follower_id, followed_id, created_at) VALUES (?,?,?)",
		id, id, u.CreatedAt); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return mapError(err)
	}
	u.ID = uint64(id)
	return nil
}

// GetByID fetches a user and its role by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (*model.User, error) {
	return r.getOne(ctx, userSelect+" WHERE u.id = ? LIMIT 1", id)
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.getOne(ctx, userSelect+" WHERE u.email = ? LIMIT 1", strings.ToLower(strings.TrimSpace(email)))
}

// GetByUsername fetches a user by exact username.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.getOne(ctx, userSelect+" WHERE u.username = ? LIMIT 1", username)
}

func (r *UserRepo) getOne(ctx context.Context, q string, args ...interface{}) (*model.User, error) {
	var row userRow
	if err := r.db.GetContext(ctx, &row, q, args...); err != nil {
		return nil, mapError(err)
	}
	return row.toModel(), nil
}

// Update writes every mutable column of u.  A duplicate email or
// username surfaces as ErrEmailExists / ErrUsernameExists.
func (r *UserRepo) Update(ctx context.Context, u *model.User) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET email=?, username=?, password_hash=?, confirmed=?, role_id=?,
		        name=?, location=?, about_me=?, last_active_at=?
		  WHERE id=?`,
		strings.ToLower(strings.TrimSpace(u.Email)), u.Username, u.PasswordHash, u.Confirmed, u.RoleID,
		u.Name, u.Location, u.AboutMe, u.LastActiveAt, u.ID)
	if err != nil {
		return mapError(err)
	}
	return requireRow(res)
}

// Touch records user activity without rewriting the rest of the row.
func (r *UserRepo) Touch(ctx context.Context, id uint64, at time.Time) error {
	_, err := r.db.ExecContext(ctx, "UPDATE users SET last_active_at=? WHERE id=?", at.UTC(), id)
	return err
}

// Delete removes the user; follows, posts and comments cascade.
func (r *UserRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM users WHERE id=?", id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// requireRow maps an UPDATE/DELETE that matched nothing to ErrNotFound.
// The DSN sets clientFoundRows so unchanged rows still count as matched.
func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
