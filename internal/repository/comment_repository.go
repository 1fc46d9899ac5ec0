package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/social-blog/internal/model"
)

const commentSelect = `SELECT c.id, c.body, c.body_html, c.disabled, c.author_id, c.post_id, c.created_at,
       u.username AS author_username
  FROM comments c
  JOIN users u ON u.id = c.author_id`

// CommentRepo persists comments.
type CommentRepo struct{ db *sqlx.DB }

func NewCommentRepo(db *sqlx.DB) *CommentRepo { return &CommentRepo{db: db} }

// Create inserts c and fills in its id and creation time.  A post that no
// longer exists surfaces as the driver's foreign key error.
func (r *CommentRepo) Create(ctx context.Context, c *model.Comment) error {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC().Truncate(time.Second)
	}
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO comments (body, body_html, disabled, author_id, post_id, created_at) VALUES (?,?,?,?,?,?)",
		c.Body, c.BodyHTML, c.Disabled, c.AuthorID, c.PostID, c.CreatedAt)
	if err != nil {
		return mapError(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)
	return nil
}

// GetByID returns one comment.
func (r *CommentRepo) GetByID(ctx context.Context, id uint64) (*model.Comment, error) {
	var c model.Comment
	if err := r.db.GetContext(ctx, &c, commentSelect+" WHERE c.id=? LIMIT 1", id); err != nil {
		return nil, mapError(err)
	}
	return &c, nil
}

// ListForPost returns the comments of postID, oldest first, including
// disabled ones.  Redaction is the caller's decision.
func (r *CommentRepo) ListForPost(ctx context.Context, postID uint64, page model.PageRequest) (model.Page[model.Comment], error) {
	var total int64
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM comments WHERE post_id=?", postID); err != nil {
		return model.Page[model.Comment]{}, err
	}
	var items []model.Comment
	if err := r.db.SelectContext(ctx, &items,
		commentSelect+" WHERE c.post_id=? ORDER BY c.created_at ASC, c.id ASC LIMIT ? OFFSET ?",
		postID, page.Limit(), page.Offset()); err != nil {
		return model.Page[model.Comment]{}, err
	}
	return model.NewPage(page, items, total), nil
}

// ListAll returns every comment, newest first, for moderation.
func (r *CommentRepo) ListAll(ctx context.Context, page model.PageRequest) (model.Page[model.Comment], error) {
	var total int64
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM comments"); err != nil {
		return model.Page[model.Comment]{}, err
	}
	var items []model.Comment
	if err := r.db.SelectContext(ctx, &items,
		commentSelect+" ORDER BY c.created_at DESC, c.id DESC LIMIT ? OFFSET ?",
		page.Limit(), page.Offset()); err != nil {
		return model.Page[model.Comment]{}, err
	}
	return model.NewPage(page, items, total), nil
}

// SetDisabled flips the moderation flag of comment id.
func (r *CommentRepo) SetDisabled(ctx context.Context, id uint64, disabled bool) error {
	res, err := r.db.ExecContext(ctx, "UPDATE comments SET disabled=? WHERE id=?", disabled, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}
