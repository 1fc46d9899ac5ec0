package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/social-blog/internal/model"
)

// FollowRepo persists edges of the social graph.
type FollowRepo struct{ db *sqlx.DB }

func NewFollowRepo(db *sqlx.DB) *FollowRepo { return &FollowRepo{db: db} }

// Follow creates the edge follower -> followed.  An existing edge is left
// untouched.
func (r *FollowRepo) Follow(ctx context.Context, followerID, followedID uint64) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT IGNORE INTO follows (follower_id, followed_id, created_at) VALUES (?,?,?)",
		followerID, followedID, time.Now().UTC())
	return err
}

// Unfollow removes the edge follower -> followed if it exists.
func (r *FollowRepo) Unfollow(ctx context.Context, followerID, followedID uint64) error {
	_, err := r.db.ExecContext(ctx,
		"DELETE FROM follows WHERE follower_id=? AND followed_id=?", followerID, followedID)
	return err
}

// IsFollowing reports whether the edge follower -> followed exists.
func (r *FollowRepo) IsFollowing(ctx context.Context, followerID, followedID uint64) (bool, error) {
	var ok bool
	err := r.db.GetContext(ctx, &ok,
		"SELECT EXISTS(SELECT 1 FROM follows WHERE follower_id=? AND followed_id=?)", followerID, followedID)
	return ok, err
}

type followRow struct {
	userRow
	Since time.Time `db:"since"`
}

// Followers lists who follows userID, newest first, without the self edge.
func (r *FollowRepo) Followers(ctx context.Context, userID uint64, page model.PageRequest) (model.Page[model.FollowEntry], error) {
	return r.list(ctx, "follower_id", "followed_id", userID, page)
}

// Following lists whom userID follows, newest first, without the self edge.
func (r *FollowRepo) Following(ctx context.Context, userID uint64, page model.PageRequest) (model.Page[model.FollowEntry], error) {
	return r.list(ctx, "followed_id", "follower_id", userID, page)
}

// list joins the "other" side of each edge to users.  The column names are
// constants chosen by the two callers above.
func (r *FollowRepo) list(ctx context.Context, joinCol, filterCol string, userID uint64, page model.PageRequest) (model.Page[model.FollowEntry], error) {
	total, err := r.count(ctx, filterCol, userID)
	if err != nil {
		return model.Page[model.FollowEntry]{}, err
	}
	q := `SELECT u.id, u.email, u.username, u.password_hash, u.confirmed, u.role_id,
	             u.name, u.location, u.about_me, u.created_at, u.last_active_at,
	             r.name AS role_name, r.permissions AS role_permissions, r.is_default AS role_is_default,
	             f.created_at AS since
	        FROM follows f
	        JOIN users u ON u.id = f.` + joinCol + `
	        LEFT JOIN roles r ON r.id = u.role_id
	       WHERE f.` + filterCol + ` = ? AND f.follower_id <> f.followed_id
	       ORDER BY f.created_at DESC, u.id DESC
	       LIMIT ? OFFSET ?`
	var rows []followRow
	if err := r.db.SelectContext(ctx, &rows, q, userID, page.Limit(), page.Offset()); err != nil {
		return model.Page[model.FollowEntry]{}, err
	}
	items := make([]model.FollowEntry, 0, len(rows))
	for _, row := range rows {
		items = append(items, model.FollowEntry{User: row.toModel().Public(), Since: row.Since})
	}
	return model.NewPage(page, items, total), nil
}

// FollowerCount returns how many users follow userID, excluding userID.
func (r *FollowRepo) FollowerCount(ctx context.Context, userID uint64) (int64, error) {
	return r.count(ctx, "followed_id", userID)
}

// FollowingCount returns how many users userID follows, excluding userID.
func (r *FollowRepo) FollowingCount(ctx context.Context, userID uint64) (int64, error) {
	return r.count(ctx, "follower_id", userID)
}

func (r *FollowRepo) count(ctx context.Context, filterCol string, userID uint64) (int64, error) {
	var n int64
	err := r.db.GetContext(ctx, &n,
		"SELECT COUNT(*) FROM follows WHERE "+filterCol+" = ? AND follower_id <> followed_id", userID)
	return n, err
}
