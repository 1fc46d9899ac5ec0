package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/social-blog/internal/model"
)

// postSelect carries the author's username and the number of comments so
// listings need no follow-up queries.
const postSelect = `SELECT p.id, p.body, p.body_html, p.author_id, p.created_at,
       u.username AS author_username,
       (SELECT COUNT(*) FROM comments c WHERE c.post_id = p.id) AS comment_count
  FROM posts p
  JOIN users u ON u.id = p.author_id`

// PostRepo persists posts.
type PostRepo struct{ db *sqlx.DB }

func NewPostRepo(db *sqlx.DB) *PostRepo { return &PostRepo{db: db} }

// Create inserts p and fills in its id and creation time.
func (r *PostRepo) Create(ctx context.Context, p *model.Post) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC().Truncate(time.Second)
	}
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO posts (body, body_html, author_id, created_at) VALUES (?,?,?,?)",
		p.Body, p.BodyHTML, p.AuthorID, p.CreatedAt)
	if err != nil {
		return mapError(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	return nil
}

// GetByID returns one post.
func (r *PostRepo) GetByID(ctx context.Context, id uint64) (*model.Post, error) {
	var p model.Post
	if err := r.db.GetContext(ctx, &p, postSelect+" WHERE p.id=? LIMIT 1", id); err != nil {
		return nil, mapError(err)
	}
	return &p, nil
}

// Update rewrites the body of p.
func (r *PostRepo) Update(ctx context.Context, p *model.Post) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE posts SET body=?, body_html=? WHERE id=?", p.Body, p.BodyHTML, p.ID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// List returns every post, newest first.
func (r *PostRepo) List(ctx context.Context, page model.PageRequest) (model.Page[model.Post], error) {
	return r.page(ctx, page,
		"SELECT COUNT(*) FROM posts", nil,
		postSelect, nil)
}

// ListByAuthor returns the posts written by authorID, newest first.
func (r *PostRepo) ListByAuthor(ctx context.Context, authorID uint64, page model.PageRequest) (model.Page[model.Post], error) {
	args := []interface{}{authorID}
	return r.page(ctx, page,
		"SELECT COUNT(*) FROM posts WHERE author_id=?", args,
		postSelect+" WHERE p.author_id=?", args)
}

// FollowedPosts returns posts by every user userID follows, newest first.
// The self-follow edge makes the user's own posts part of the result.
func (r *PostRepo) FollowedPosts(ctx context.Context, userID uint64, page model.PageRequest) (model.Page[model.Post], error) {
	args := []interface{}{userID}
	return r.page(ctx, page,
		`SELECT COUNT(*) FROM posts p JOIN follows f ON f.followed_id = p.author_id WHERE f.follower_id=?`, args,
		postSelect+" JOIN follows f ON f.followed_id = p.author_id WHERE f.follower_id=?", args)
}

func (r *PostRepo) page(ctx context.Context, page model.PageRequest, countQ string, countArgs []interface{}, selQ string, selArgs []interface{}) (model.Page[model.Post], error) {
	var total int64
	if err := r.db.GetContext(ctx, &total, countQ, countArgs...); err != nil {
		return model.Page[model.Post]{}, err
	}
	var items []model.Post
	args := append(append([]interface{}{}, selArgs...), page.Limit(), page.Offset())
	if err := r.db.SelectContext(ctx, &items, selQ+" ORDER BY p.created_at DESC, p.id DESC LIMIT ? OFFSET ?", args...); err != nil {
		return model.Page[model.Post]{}, err
	}
	return model.NewPage(page, items, total), nil
}
