package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/festapp/identity/internal/api/middleware"
	"github.com/festapp/identity/internal/core/domain"
)

// ctxClaims returns the claims injected by the Session middleware. A request
// that reached an admin route without them is rejected as unauthorized.
func ctxClaims(c echo.Context) (domain.SessionClaims, error) {
	claims, ok := c.Get(middleware.ClaimsKey).(domain.SessionClaims)
	if !ok || claims == nil {
		return nil, domain.ErrUnauthorized
	}
	return claims, nil
}
