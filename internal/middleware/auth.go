package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/social-blog/internal/model"
)

// Identifier resolves bearer tokens and records activity.
// *service.AccountService satisfies it.
type Identifier interface {
	Identify(ctx context.Context, raw string) model.Identity
	Ping(ctx context.Context, u *model.User) error
}

// Authenticate resolves the Authorization header into an Identity and
// stores it on the context.  It never rejects a request: a missing or
// invalid token yields Anonymous, and routes that need a user add
// RequireAuth.  Authenticated callers have their last-seen time updated.
func Authenticate(ids Identifier, log *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			var raw string
			if auth := c.Request().Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
				raw = strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
			}
			ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
			defer cancel()

			id := ids.Identify(ctx, raw)
			c.Set(identityKey, id)
			if u, ok := model.UserOf(id); ok {
				if err := ids.Ping(ctx, u); err != nil {
					log.Warn("record activity failed", zap.Uint64("user_id", u.ID), zap.Error(err))
				}
			}
			return next(c)
		}
	}
}

// RequireAuth rejects anonymous callers with 401.
func RequireAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, ok := CurrentUser(c); !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
			}
			return next(c)
		}
	}
}
