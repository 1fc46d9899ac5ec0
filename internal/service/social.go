package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/iliyamo/social-blog/internal/model"
)

// PageSizes are the per-page counts of the paginated listings.
type PageSizes struct {
	Posts     int
	Followers int
	Comments  int
}

// SocialService implements the follower graph, posts and comments.  Every
// mutating method checks the caller's capability before touching storage.
type SocialService struct {
	users    UserStore
	follows  FollowStore
	posts    PostStore
	comments CommentStore
	sizes    PageSizes
	log      *zap.Logger
}

func NewSocialService(users UserStore, follows FollowStore, posts PostStore, comments CommentStore, sizes PageSizes, log *zap.Logger) *SocialService {
	return &SocialService{users: users, follows: follows, posts: posts, comments: comments, sizes: sizes, log: log}
}

// require returns the caller's user when it is authenticated, confirmed
// and holds p.
func require(id model.Identity, p model.Permission) (*model.User, error) {
	u, ok := model.UserOf(id)
	if !ok {
		return nil, ErrUnauthenticated
	}
	if !u.Confirmed {
		return nil, ErrUnconfirmed
	}
	if !id.Can(p) {
		return nil, ErrForbidden
	}
	return u, nil
}

// Profile is a user page: the account plus follower statistics.
type Profile struct {
	User      model.PublicUser `json:"user"`
	Followers int64            `json:"followers"`
	Following int64            `json:"following"`
	// FollowedByViewer is set when an authenticated viewer follows the user.
	FollowedByViewer bool `json:"followed_by_viewer"`
	// FollowsViewer is set when the user follows the authenticated viewer.
	FollowsViewer bool `json:"follows_viewer"`
}

// Profile loads the public profile of username as seen by viewer.
func (s *SocialService) Profile(ctx context.Context, viewer model.Identity, username string) (*Profile, error) {
	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	p := &Profile{User: u.PublicFor(viewer)}
	if p.Followers, err = s.follows.FollowerCount(ctx, u.ID); err != nil {
		return nil, err
	}
	if p.Following, err = s.follows.FollowingCount(ctx, u.ID); err != nil {
		return nil, err
	}
	if me, ok := model.UserOf(viewer); ok && me.ID != u.ID {
		if p.FollowedByViewer, err = s.IsFollowing(ctx, me, u); err != nil {
			return nil, err
		}
		if p.FollowsViewer, err = s.IsFollowedBy(ctx, me, u); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Follow makes the caller follow username.  Following twice is a no-op.
func (s *SocialService) Follow(ctx context.Context, caller model.Identity, username string) error {
	me, err := require(caller, model.PermFollow)
	if err != nil {
		return err
	}
	target, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return err
	}
	if err := s.follows.Follow(ctx, me.ID, target.ID); err != nil {
		return err
	}
	s.log.Debug("follow", zap.Uint64("follower", me.ID), zap.Uint64("followed", target.ID))
	return nil
}

// Unfollow removes the caller's edge to username.  Removing a missing
// edge is a no-op; removing the self edge is refused.
func (s *SocialService) Unfollow(ctx context.Context, caller model.Identity, username string) error {
	me, err := require(caller, model.PermFollow)
	if err != nil {
		return err
	}
	target, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return err
	}
	if target.ID == me.ID {
		return ErrSelfUnfollow
	}
	return s.follows.Unfollow(ctx, me.ID, target.ID)
}

// IsFollowing reports whether self follows other.  An unsaved other
// (ID 0) is never followed and storage is not consulted.
func (s *SocialService) IsFollowing(ctx context.Context, self, other *model.User) (bool, error) {
	if self == nil || other == nil || self.ID == 0 || other.ID == 0 {
		return false, nil
	}
	return s.follows.IsFollowing(ctx, self.ID, other.ID)
}

// IsFollowedBy reports whether other follows self.
func (s *SocialService) IsFollowedBy(ctx context.Context, self, other *model.User) (bool, error) {
	if self == nil || other == nil || self.ID == 0 || other.ID == 0 {
		return false, nil
	}
	return s.follows.IsFollowing(ctx, other.ID, self.ID)
}

// Followers lists who follows username.
func (s *SocialService) Followers(ctx context.Context, username string, page int) (model.Page[model.FollowEntry], error) {
	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return model.Page[model.FollowEntry]{}, err
	}
	return s.follows.Followers(ctx, u.ID, model.NewPageRequest(page, s.sizes.Followers))
}

// Following lists whom username follows.
func (s *SocialService) Following(ctx context.Context, username string, page int) (model.Page[model.FollowEntry], error) {
	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return model.Page[model.FollowEntry]{}, err
	}
	return s.follows.Following(ctx, u.ID, model.NewPageRequest(page, s.sizes.Followers))
}

// Feed lists posts by everyone the caller follows, their own included.
func (s *SocialService) Feed(ctx context.Context, caller model.Identity, page int) (model.Page[model.Post], error) {
	me, ok := model.UserOf(caller)
	if !ok {
		return model.Page[model.Post]{}, ErrUnauthenticated
	}
	return s.posts.FollowedPosts(ctx, me.ID, model.NewPageRequest(page, s.sizes.Posts))
}

// Posts lists every post, newest first.
func (s *SocialService) Posts(ctx context.Context, page int) (model.Page[model.Post], error) {
	return s.posts.List(ctx, model.NewPageRequest(page, s.sizes.Posts))
}

// UserPosts lists the posts written by username.
func (s *SocialService) UserPosts(ctx context.Context, username string, page int) (model.Page[model.Post], error) {
	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return model.Page[model.Post]{}, err
	}
	return s.posts.ListByAuthor(ctx, u.ID, model.NewPageRequest(page, s.sizes.Posts))
}

// Post returns a single post.
func (s *SocialService) Post(ctx context.Context, id uint64) (*model.Post, error) {
	return s.posts.GetByID(ctx, id)
}

type PostInput struct {
	Body string `json:"body" validate:"required"`
}

// CreatePost publishes a post written by the caller.
func (s *SocialService) CreatePost(ctx context.Context, caller model.Identity, in PostInput) (*model.Post, error) {
	me, err := require(caller, model.PermWrite)
	if err != nil {
		return nil, err
	}
	if err := validateBody(in.Body); err != nil {
		return nil, err
	}
	p := &model.Post{AuthorID: me.ID, AuthorUsername: me.Username}
	if err := p.SetBody(in.Body); err != nil {
		return nil, err
	}
	if err := s.posts.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// EditPost rewrites a post.  Only its author or an administrator may.
func (s *SocialService) EditPost(ctx context.Context, caller model.Identity, id uint64, in PostInput) (*model.Post, error) {
	me, ok := model.UserOf(caller)
	if !ok {
		return nil, ErrUnauthenticated
	}
	if err := validateBody(in.Body); err != nil {
		return nil, err
	}
	p, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.AuthorID != me.ID && !caller.IsAdministrator() {
		return nil, ErrForbidden
	}
	if err := p.SetBody(in.Body); err != nil {
		return nil, err
	}
	if err := s.posts.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

type CommentInput struct {
	Body string `json:"body" validate:"required"`
}

// AddComment attaches a comment by the caller to post postID.
func (s *SocialService) AddComment(ctx context.Context, caller model.Identity, postID uint64, in CommentInput) (*model.Comment, error) {
	me, err := require(caller, model.PermComment)
	if err != nil {
		return nil, err
	}
	if err := validateBody(in.Body); err != nil {
		return nil, err
	}
	if _, err := s.posts.GetByID(ctx, postID); err != nil {
		return nil, err
	}
	c := &model.Comment{AuthorID: me.ID, PostID: postID, AuthorUsername: me.Username}
	if err := c.SetBody(in.Body); err != nil {
		return nil, err
	}
	if err := s.comments.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Comments lists the comments of a post.  Disabled comments are redacted
// unless the viewer may moderate.
func (s *SocialService) Comments(ctx context.Context, viewer model.Identity, postID uint64, page int) (model.Page[model.Comment], error) {
	if _, err := s.posts.GetByID(ctx, postID); err != nil {
		return model.Page[model.Comment]{}, err
	}
	out, err := s.comments.ListForPost(ctx, postID, model.NewPageRequest(page, s.sizes.Comments))
	if err != nil {
		return out, err
	}
	if !viewer.Can(model.PermModerate) {
		for i := range out.Items {
			out.Items[i] = out.Items[i].Redacted()
		}
	}
	return out, nil
}

// ModerationQueue lists every comment, newest first, for moderators.
func (s *SocialService) ModerationQueue(ctx context.Context, caller model.Identity, page int) (model.Page[model.Comment], error) {
	if _, err := require(caller, model.PermModerate); err != nil {
		return model.Page[model.Comment]{}, err
	}
	return s.comments.ListAll(ctx, model.NewPageRequest(page, s.sizes.Comments))
}

// SetCommentDisabled hides or restores a comment and returns it as
// stored afterwards.
func (s *SocialService) SetCommentDisabled(ctx context.Context, caller model.Identity, id uint64, disabled bool) (*model.Comment, error) {
	me, err := require(caller, model.PermModerate)
	if err != nil {
		return nil, err
	}
	if err := s.comments.SetDisabled(ctx, id, disabled); err != nil {
		return nil, err
	}
	s.log.Info("comment moderated", zap.Uint64("comment_id", id), zap.Bool("disabled", disabled), zap.Uint64("moderator", me.ID))
	return s.comments.GetByID(ctx, id)
}

func validateBody(body string) error {
	if strings.TrimSpace(body) == "" {
		return invalid("body", "is required")
	}
	return nil
}
