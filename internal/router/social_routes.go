package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/social-blog/internal/handler"
	"github.com/iliyamo/social-blog/internal/middleware"
	"github.com/iliyamo/social-blog/internal/model"
)

// confirmed is the middleware chain of routes that need a logged-in,
// confirmed account, followed by extra.
func confirmed(extra ...echo.MiddlewareFunc) []echo.MiddlewareFunc {
	return append([]echo.MiddlewareFunc{middleware.RequireAuth(), middleware.RequireConfirmed()}, extra...)
}

// RegisterPublic registers the read-only browse endpoints.  They accept
// anonymous callers and go through cache, which only serves anonymous
// requests.  Middleware is attached per route: a group-level chain on
// /v1 would also run for unknown paths under it.
func RegisterPublic(e *echo.Echo, u *handler.UserHandler, p *handler.PostHandler, cache echo.MiddlewareFunc) {
	g := e.Group("/v1")
	g.GET("/posts", p.List, cache)
	g.GET("/posts/:id", p.Get, cache)
	g.GET("/posts/:id/comments", p.Comments, cache)
	g.GET("/users/:username", u.Profile, cache)
	g.GET("/users/:username/posts", u.Posts, cache)
	g.GET("/users/:username/followers", u.Followers, cache)
	g.GET("/users/:username/following", u.Following, cache)
}

// RegisterSocial registers the endpoints that need a confirmed account.
// Each write additionally checks the permission its role must grant.
func RegisterSocial(e *echo.Echo, u *handler.UserHandler, p *handler.PostHandler) {
	g := e.Group("/v1")
	g.GET("/feed", p.Feed, confirmed()...)
	g.POST("/posts", p.Create, confirmed(middleware.RequirePermission(model.PermWrite))...)
	g.PUT("/posts/:id", p.Edit, confirmed()...)
	g.POST("/posts/:id/comments", p.AddComment, confirmed(middleware.RequirePermission(model.PermComment))...)
	g.POST("/users/:username/follow", u.Follow, confirmed(middleware.RequirePermission(model.PermFollow))...)
	g.DELETE("/users/:username/follow", u.Unfollow, confirmed(middleware.RequirePermission(model.PermFollow))...)
}

// RegisterModeration registers the moderator and administrator
// endpoints.
func RegisterModeration(e *echo.Echo, a *handler.AuthHandler, p *handler.PostHandler) {
	mod := e.Group("/v1/moderate", confirmed(middleware.RequirePermission(model.PermModerate))...)
	mod.GET("/comments", p.Moderate)
	mod.POST("/comments/:id/enable", p.EnableComment)
	mod.POST("/comments/:id/disable", p.DisableComment)

	admin := e.Group("/v1/admin", confirmed(middleware.RequireAdmin())...)
	admin.GET("/roles", a.Roles)
	admin.PUT("/users/:id", a.AdminUpdateUser)
	admin.DELETE("/users/:id", a.AdminDeleteUser)
}
