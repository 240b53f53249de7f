package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/festapp/identity/internal/api/metrics"
	"github.com/festapp/identity/internal/core/ports"
)

type PasswordResetHandler struct {
	resets ports.PasswordResetService
	log    zerolog.Logger
}

func NewPasswordResetHandler(resets ports.PasswordResetService, log zerolog.Logger) *PasswordResetHandler {
	return &PasswordResetHandler{resets: resets, log: log}
}

// Request starts a password reset. It always succeeds so callers cannot
// tell whether the address belongs to an account.
//
// @Summary      Request password reset
// @Tags         password-reset
// @Accept       json
// @Produce      json
// @Param        body  body      resetRequest  true  "Account email"
// @Success      200   {object}  successResponse
// @Failure      429   {object}  sessionResponse
// @Router       /auth/password-reset [post]
func (h *PasswordResetHandler) Request(c echo.Context) error {
	var req resetRequest
	if err := bindAndValidate(c, &req); err != nil {
		_, werr := fail(c, h.log, err)
		return werr
	}

	if err := h.resets.RequestReset(c.Request().Context(), req.Email); err != nil {
		h.log.Error().Err(err).Msg("password reset request failed")
	}
	metrics.PasswordResetsTotal.WithLabelValues("request", "success").Inc()
	return c.JSON(http.StatusOK, successResponse{Success: true})
}

// Validate checks a reset token and reveals its owner's masked identity.
//
// @Summary      Validate reset token
// @Tags         password-reset
// @Produce      json
// @Param        token  path      string  true  "Reset token"
// @Success      200    {object}  resetTokenResponse
// @Failure      400    {object}  sessionResponse
// @Router       /auth/password-reset/{token} [get]
func (h *PasswordResetHandler) Validate(c echo.Context) error {
	user, err := h.resets.ValidateToken(c.Request().Context(), c.Param("token"))
	if err != nil {
		label, werr := fail(c, h.log, err)
		metrics.PasswordResetsTotal.WithLabelValues("validate", label).Inc()
		return werr
	}

	metrics.PasswordResetsTotal.WithLabelValues("validate", "success").Inc()
	return c.JSON(http.StatusOK, resetTokenResponse{Success: true, User: user})
}

// Confirm sets a new password and burns the token. The user is not logged in.
//
// @Summary      Confirm password reset
// @Tags         password-reset
// @Accept       json
// @Produce      json
// @Param        body  body      confirmResetRequest  true  "Token and new password"
// @Success      200   {object}  successResponse
// @Failure      400   {object}  sessionResponse
// @Router       /auth/password-reset/confirm [post]
func (h *PasswordResetHandler) Confirm(c echo.Context) error {
	var req confirmResetRequest
	if err := bindAndValidate(c, &req); err != nil {
		_, werr := fail(c, h.log, err)
		return werr
	}

	if err := h.resets.ResetPassword(c.Request().Context(), req.Token, req.Password); err != nil {
		label, werr := fail(c, h.log, err)
		metrics.PasswordResetsTotal.WithLabelValues("confirm", label).Inc()
		return werr
	}

	metrics.PasswordResetsTotal.WithLabelValues("confirm", "success").Inc()
	return c.JSON(http.StatusOK, successResponse{Success: true})
}
