package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/festapp/identity/internal/core/domain"
)

// RBAC enforces role-based access control on the role injected by Session.
func RBAC(allowedRoles ...domain.Role) echo.MiddlewareFunc {
	allowed := make(map[domain.Role]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get(RoleKey).(string)
			if _, ok := allowed[domain.Role(role)]; !ok {
				return c.JSON(http.StatusForbidden, map[string]any{"success": false, "error": "forbidden"})
			}
			return next(c)
		}
	}
}

// RequireAdmin admits admin sessions only, impersonated admins included.
func RequireAdmin() echo.MiddlewareFunc {
	return RBAC(domain.RoleAdmin)
}
