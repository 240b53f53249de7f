package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/festapp/identity/internal/core/domain"
	"github.com/festapp/identity/internal/core/ports"
)

// Context keys populated by Session.
const (
	ClaimsKey = "session"
	RoleKey   = "role"
	UserIDKey = "user_id"
)

// JarFunc builds the cookie sink for the current request.
type JarFunc func(c echo.Context) ports.SessionCookie

// Session verifies the session cookie and injects its claims into the
// context. Anonymous requests pass through untouched.
func Session(sessions ports.SessionService, jar JarFunc) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims := sessions.VerifySession(c.Request().Context(), jar(c))
			if claims != nil {
				id := claims.Identity()
				c.Set(ClaimsKey, claims)
				c.Set(RoleKey, string(id.Role))
				c.Set(UserIDKey, id.UserID)
			}
			return next(c)
		}
	}
}

// RequireSession rejects anonymous requests. It must run after Session.
func RequireSession() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, ok := c.Get(ClaimsKey).(domain.SessionClaims); !ok {
				return c.JSON(http.StatusUnauthorized, map[string]any{"success": false, "error": "authentication required"})
			}
			return next(c)
		}
	}
}
