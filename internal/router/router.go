package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/social-blog/internal/handler"
	"github.com/iliyamo/social-blog/internal/metrics"
	"github.com/iliyamo/social-blog/internal/middleware"
)

// RegisterRoutes registers the operational endpoints: the health check
// and the Prometheus scrape target.
func RegisterRoutes(e *echo.Echo, db handler.Pinger) {
	e.GET("/healthz", handler.Health(db))
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))
}

// RegisterAuth registers the account endpoints.  The credential
// endpoints (register, login, reset) sit behind limiter; the rest need a
// logged-in user but not a confirmed one, so an unconfirmed account can
// still confirm itself or ask for a new confirmation email.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, limiter echo.MiddlewareFunc) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register, limiter)
	g.POST("/login", a.Login, limiter)
	g.POST("/reset", a.RequestReset, limiter)
	g.POST("/reset/:token", a.Reset, limiter)

	g.POST("/confirm", a.ResendConfirmation, middleware.RequireAuth())
	g.GET("/confirm/:token", a.Confirm, middleware.RequireAuth())
	g.POST("/change-password", a.ChangePassword, middleware.RequireAuth())
	g.POST("/change-email", a.ChangeEmail, middleware.RequireAuth())

	me := e.Group("/v1/me", middleware.RequireAuth())
	me.GET("", a.Me)
	me.PUT("/profile", a.UpdateProfile)
}
