package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/social-blog/internal/middleware"
	"github.com/iliyamo/social-blog/internal/model"
	"github.com/iliyamo/social-blog/internal/service"
)

// Social is the follow/post/comment surface.  *service.SocialService
// implements it.
type Social interface {
	Profile(ctx context.Context, viewer model.Identity, username string) (*service.Profile, error)
	Follow(ctx context.Context, caller model.Identity, username string) error
	Unfollow(ctx context.Context, caller model.Identity, username string) error
	Followers(ctx context.Context, username string, page int) (model.Page[model.FollowEntry], error)
	Following(ctx context.Context, username string, page int) (model.Page[model.FollowEntry], error)
	Feed(ctx context.Context, caller model.Identity, page int) (model.Page[model.Post], error)
	Posts(ctx context.Context, page int) (model.Page[model.Post], error)
	UserPosts(ctx context.Context, username string, page int) (model.Page[model.Post], error)
	Post(ctx context.Context, id uint64) (*model.Post, error)
	CreatePost(ctx context.Context, caller model.Identity, in service.PostInput) (*model.Post, error)
	EditPost(ctx context.Context, caller model.Identity, id uint64, in service.PostInput) (*model.Post, error)
	AddComment(ctx context.Context, caller model.Identity, postID uint64, in service.CommentInput) (*model.Comment, error)
	Comments(ctx context.Context, viewer model.Identity, postID uint64, page int) (model.Page[model.Comment], error)
	ModerationQueue(ctx context.Context, caller model.Identity, page int) (model.Page[model.Comment], error)
	SetCommentDisabled(ctx context.Context, caller model.Identity, id uint64, disabled bool) (*model.Comment, error)
}

// UserHandler serves profiles and the follow graph.
type UserHandler struct {
	social Social
	log    *zap.Logger
}

func NewUserHandler(social Social, log *zap.Logger) *UserHandler {
	return &UserHandler{social: social, log: log}
}

func (h *UserHandler) Profile(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	p, err := h.social.Profile(ctx, middleware.Identity(c), c.Param("username"))
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *UserHandler) Posts(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	page, err := h.social.UserPosts(ctx, c.Param("username"), pageParam(c))
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(http.StatusOK, page)
}

func (h *UserHandler) Followers(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	page, err := h.social.Followers(ctx, c.Param("username"), pageParam(c))
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(http.StatusOK, page)
}

func (h *UserHandler) Following(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	page, err := h.social.Following(ctx, c.Param("username"), pageParam(c))
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(http.StatusOK, page)
}

func (h *UserHandler) Follow(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	username := c.Param("username")
	if err := h.social.Follow(ctx, middleware.Identity(c), username); err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "you are now following " + username})
}

func (h *UserHandler) Unfollow(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	username := c.Param("username")
	if err := h.social.Unfollow(ctx, middleware.Identity(c), username); err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "you are not following " + username + " anymore"})
}

// PostHandler serves posts, comments and comment moderation.
type PostHandler struct {
	social Social
	log    *zap.Logger
}

func NewPostHandler(social Social, log *zap.Logger) *PostHandler {
	return &PostHandler{social: social, log: log}
}

func (h *PostHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	page, err := h.social.Posts(ctx, pageParam(c))
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(http.StatusOK, page)
}

// Feed lists posts from the accounts the caller follows.
func (h *PostHandler) Feed(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	page, err := h.social.Feed(ctx, middleware.Identity(c), pageParam(c))
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(http.StatusOK, page)
}

func (h *PostHandler) Get(c echo.Context) error {
	id, ok := idParam(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid post id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	p, err := h.social.Post(ctx, id)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *PostHandler) Create(c echo.Context) error {
	var req service.PostInput
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	p, err := h.social.CreatePost(ctx, middleware.Identity(c), req)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *PostHandler) Edit(c echo.Context) error {
	id, ok := idParam(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid post id"})
	}
	var req service.PostInput
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	p, err := h.social.EditPost(ctx, middleware.Identity(c), id, req)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *PostHandler) Comments(c echo.Context) error {
	id, ok := idParam(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid post id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	page, err := h.social.Comments(ctx, middleware.Identity(c), id, pageParam(c))
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(http.StatusOK, page)
}

func (h *PostHandler) AddComment(c echo.Context) error {
	id, ok := idParam(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid post id"})
	}
	var req service.CommentInput
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	cm, err := h.social.AddComment(ctx, middleware.Identity(c), id, req)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, cm)
}

// Moderate lists every comment, disabled ones included, newest first.
func (h *PostHandler) Moderate(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	page, err := h.social.ModerationQueue(ctx, middleware.Identity(c), pageParam(c))
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(http.StatusOK, page)
}

func (h *PostHandler) EnableComment(c echo.Context) error  { return h.setDisabled(c, false) }
func (h *PostHandler) DisableComment(c echo.Context) error { return h.setDisabled(c, true) }

func (h *PostHandler) setDisabled(c echo.Context, disabled bool) error {
	id, ok := idParam(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid comment id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	cm, err := h.social.SetCommentDisabled(ctx, middleware.Identity(c), id, disabled)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(http.StatusOK, cm)
}
