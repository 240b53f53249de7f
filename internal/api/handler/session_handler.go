package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/festapp/identity/internal/api/metrics"
	"github.com/festapp/identity/internal/core/ports"
)

type SessionHandler struct {
	sessions ports.SessionService
	cookies  CookieOptions
	log      zerolog.Logger
}

func NewSessionHandler(sessions ports.SessionService, cookies CookieOptions, log zerolog.Logger) *SessionHandler {
	return &SessionHandler{sessions: sessions, cookies: cookies, log: log}
}

// Login authenticates by username or email and sets the session cookie.
//
// @Summary      Login
// @Tags         session
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  sessionResponse
// @Failure      400   {object}  sessionResponse
// @Failure      401   {object}  sessionResponse
// @Failure      423   {object}  sessionResponse
// @Failure      429   {object}  sessionResponse
// @Router       /auth/login [post]
func (h *SessionHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := bindAndValidate(c, &req); err != nil {
		_, werr := fail(c, h.log, err)
		return werr
	}

	session, err := h.sessions.Login(c.Request().Context(), h.cookies.Jar(c), req.Identifier, req.Password)
	if err != nil {
		label, werr := fail(c, h.log, err)
		metrics.LoginsTotal.WithLabelValues(label).Inc()
		return werr
	}

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	return c.JSON(http.StatusOK, sessionResponse{Success: true, Session: toSessionView(session)})
}

// Logout clears the session cookie. The token itself stays valid until expiry.
//
// @Summary      Logout
// @Tags         session
// @Produce      json
// @Success      200  {object}  sessionResponse
// @Router       /auth/logout [post]
func (h *SessionHandler) Logout(c echo.Context) error {
	h.sessions.Logout(c.Request().Context(), h.cookies.Jar(c))
	metrics.SessionOpsTotal.WithLabelValues("logout", "success").Inc()
	return c.JSON(http.StatusOK, sessionResponse{Success: true})
}

// Refresh re-issues the current session from fresh user data.
//
// @Summary      Refresh session
// @Tags         session
// @Produce      json
// @Success      200  {object}  sessionResponse
// @Failure      500  {object}  sessionResponse
// @Router       /auth/refresh [post]
func (h *SessionHandler) Refresh(c echo.Context) error {
	claims, err := h.sessions.RefreshSession(c.Request().Context(), h.cookies.Jar(c))
	if err != nil {
		label, werr := fail(c, h.log, err)
		metrics.SessionOpsTotal.WithLabelValues("refresh", label).Inc()
		return werr
	}
	if claims == nil {
		metrics.SessionOpsTotal.WithLabelValues("refresh", "anonymous").Inc()
	} else {
		metrics.SessionOpsTotal.WithLabelValues("refresh", "success").Inc()
	}
	return c.JSON(http.StatusOK, sessionResponse{Success: true, Session: toSessionView(claims)})
}

// Current returns the verified session, or no session when anonymous.
//
// @Summary      Current session
// @Tags         session
// @Produce      json
// @Success      200  {object}  sessionResponse
// @Router       /auth/session [get]
func (h *SessionHandler) Current(c echo.Context) error {
	claims := h.sessions.VerifySession(c.Request().Context(), h.cookies.Jar(c))
	return c.JSON(http.StatusOK, sessionResponse{Success: true, Session: toSessionView(claims)})
}

// CurrentAdmin returns the session only when it carries the admin role.
//
// @Summary      Current admin session
// @Tags         session
// @Produce      json
// @Success      200  {object}  sessionResponse
// @Router       /auth/session/admin [get]
func (h *SessionHandler) CurrentAdmin(c echo.Context) error {
	claims := h.sessions.VerifyAdminSession(c.Request().Context(), h.cookies.Jar(c))
	return c.JSON(http.StatusOK, sessionResponse{Success: true, Session: toSessionView(claims)})
}

// IsTemporary reports whether the caller is in an impersonation session.
//
// @Summary      Is temporary session
// @Tags         session
// @Produce      json
// @Success      200  {object}  temporaryResponse
// @Router       /auth/session/temporary [get]
func (h *SessionHandler) IsTemporary(c echo.Context) error {
	temporary := h.sessions.IsTemporaryUserSession(c.Request().Context(), h.cookies.Jar(c))
	return c.JSON(http.StatusOK, temporaryResponse{Success: true, IsTemporary: temporary})
}

// BecomeUser starts a two-hour impersonation session as the target user.
//
// @Summary      Impersonate user
// @Tags         impersonation
// @Produce      json
// @Param        id   path      string  true  "Target user ID"
// @Success      200  {object}  sessionResponse
// @Failure      403  {object}  sessionResponse
// @Failure      404  {object}  sessionResponse
// @Router       /auth/impersonate/{id} [post]
func (h *SessionHandler) BecomeUser(c echo.Context) error {
	session, err := h.sessions.BecomeUser(c.Request().Context(), h.cookies.Jar(c), c.Param("id"))
	if err != nil {
		label, werr := fail(c, h.log, err)
		metrics.SessionOpsTotal.WithLabelValues("become_user", label).Inc()
		return werr
	}

	metrics.SessionOpsTotal.WithLabelValues("become_user", "success").Inc()
	return c.JSON(http.StatusOK, sessionResponse{Success: true, Session: toSessionView(session)})
}

// Restore ends impersonation and returns to the original admin's session.
//
// @Summary      Restore admin session
// @Tags         impersonation
// @Produce      json
// @Success      200  {object}  sessionResponse
// @Failure      403  {object}  sessionResponse
// @Failure      409  {object}  sessionResponse
// @Router       /auth/impersonate/restore [post]
func (h *SessionHandler) Restore(c echo.Context) error {
	session, err := h.sessions.RestoreAdminSession(c.Request().Context(), h.cookies.Jar(c))
	if err != nil {
		label, werr := fail(c, h.log, err)
		metrics.SessionOpsTotal.WithLabelValues("restore_admin", label).Inc()
		return werr
	}

	metrics.SessionOpsTotal.WithLabelValues("restore_admin", "success").Inc()
	return c.JSON(http.StatusOK, sessionResponse{Success: true, Session: toSessionView(session)})
}
