package service

import (
	"context"
	"time"

	"github.com/iliyamo/social-blog/internal/model"
)

// UserStore is the persistence the services need for users.
// *repository.UserRepo satisfies it.
type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	GetByID(ctx context.Context, id uint64) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	Update(ctx context.Context, u *model.User) error
	Touch(ctx context.Context, id uint64, at time.Time) error
	Delete(ctx context.Context, id uint64) error
}

// RoleStore is satisfied by *repository.RoleRepo.
type RoleStore interface {
	FindByName(ctx context.Context, name string) (*model.Role, error)
	FindDefault(ctx context.Context) (*model.Role, error)
	GetByID(ctx context.Context, id uint64) (*model.Role, error)
	List(ctx context.Context) ([]model.Role, error)
	InsertRoles(ctx context.Context, roles []model.Role) error
}

// FollowStore is satisfied by *repository.FollowRepo.
type FollowStore interface {
	Follow(ctx context.Context, followerID, followedID uint64) error
	Unfollow(ctx context.Context, followerID, followedID uint64) error
	IsFollowing(ctx context.Context, followerID, followedID uint64) (bool, error)
	Followers(ctx context.Context, userID uint64, page model.PageRequest) (model.Page[model.FollowEntry], error)
	Following(ctx context.Context, userID uint64, page model.PageRequest) (model.Page[model.FollowEntry], error)
	FollowerCount(ctx context.Context, userID uint64) (int64, error)
	FollowingCount(ctx context.Context, userID uint64) (int64, error)
}

// PostStore is satisfied by *repository.PostRepo.
type PostStore interface {
	Create(ctx context.Context, p *model.Post) error
	GetByID(ctx context.Context, id uint64) (*model.Post, error)
	Update(ctx context.Context, p *model.Post) error
	List(ctx context.Context, page model.PageRequest) (model.Page[model.Post], error)
	ListByAuthor(ctx context.Context, authorID uint64, page model.PageRequest) (model.Page[model.Post], error)
	FollowedPosts(ctx context.Context, userID uint64, page model.PageRequest) (model.Page[model.Post], error)
}

// CommentStore is satisfied by *repository.CommentRepo.
type CommentStore interface {
	Create(ctx context.Context, c *model.Comment) error
	GetByID(ctx context.Context, id uint64) (*model.Comment, error)
	ListForPost(ctx context.Context, postID uint64, page model.PageRequest) (model.Page[model.Comment], error)
	ListAll(ctx context.Context, page model.PageRequest) (model.Page[model.Comment], error)
	SetDisabled(ctx context.Context, id uint64, disabled bool) error
}

// Mailer sends account emails.  Implementations must not block the
// caller and must not report delivery failures.
type Mailer interface {
	SendConfirmation(u *model.User, token string)
	SendChangeEmail(u *model.User, newEmail, token string)
	SendPasswordReset(u *model.User, token string)
}
