package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/social-blog/internal/model"
)

// RequireConfirmed rejects callers whose account is not confirmed yet.  It
// must run after RequireAuth.
func RequireConfirmed() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			u, ok := CurrentUser(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
			}
			if !u.Confirmed {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "account not confirmed"})
			}
			return next(c)
		}
	}
}

// RequirePermission rejects callers whose identity lacks p.  Anonymous
// callers get 401, authenticated ones 403.
func RequirePermission(p model.Permission) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := Identity(c)
			if id.Can(p) {
				return next(c)
			}
			if _, ok := model.UserOf(id); !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
			}
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden", "missing": p.String()})
		}
	}
}

// RequireAdmin is RequirePermission(model.PermAdmin).
func RequireAdmin() echo.MiddlewareFunc { return RequirePermission(model.PermAdmin) }
