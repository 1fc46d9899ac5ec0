package middleware

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/social-blog/internal/model"
)

// identityKey is the echo.Context key holding the caller's model.Identity.
const identityKey = "identity"

// Identity returns the caller resolved by Authenticate.  Requests that did
// not pass through it are anonymous.
func Identity(c echo.Context) model.Identity {
	if id, ok := c.Get(identityKey).(model.Identity); ok && id != nil {
		return id
	}
	return model.Anonymous{}
}

// CurrentUser returns the authenticated user, if any.
func CurrentUser(c echo.Context) (*model.User, bool) {
	return model.UserOf(Identity(c))
}

// userID returns the caller's id as a string for rate limit and cache
// keys, or "anon".
func userID(c echo.Context) string {
	if u, ok := CurrentUser(c); ok {
		return strconv.FormatUint(u.ID, 10)
	}
	return "anon"
}
