package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/festapp/identity/internal/core/domain"
)

const unexpectedError = "an unexpected error occurred"

// errValidation marks request payloads rejected by binding or validation.
var errValidation = errors.New("invalid request")

type validationError struct{ msg string }

func (e *validationError) Error() string { return e.msg }
func (e *validationError) Unwrap() error { return errValidation }

// classify maps a service error to its HTTP status, client message and
// metric label. Unknown errors report ok=false.
func classify(err error) (status int, msg, label string, ok bool) {
	var ve *validationError
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest, ve.msg, "invalid_request", true
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, err.Error(), "invalid_credentials", true
	case errors.Is(err, domain.ErrAccountLocked):
		return http.StatusLocked, err.Error(), "locked", true
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusForbidden, err.Error(), "unauthorized", true
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, err.Error(), "not_found", true
	case errors.Is(err, domain.ErrNoTemporarySession):
		return http.StatusConflict, err.Error(), "no_temporary_session", true
	case errors.Is(err, domain.ErrAdminNoLongerValid):
		return http.StatusForbidden, err.Error(), "admin_no_longer_valid", true
	case errors.Is(err, domain.ErrSelfDemotion):
		return http.StatusConflict, err.Error(), "self_demotion", true
	case errors.Is(err, domain.ErrUserExists):
		return http.StatusConflict, err.Error(), "user_exists", true
	case errors.Is(err, domain.ErrInvalidRole):
		return http.StatusBadRequest, err.Error(), "invalid_role", true
	case errors.Is(err, domain.ErrInvalidOrExpired):
		return http.StatusBadRequest, err.Error(), "invalid_or_expired", true
	case errors.Is(err, domain.ErrWeakPassword):
		return http.StatusBadRequest, err.Error(), "weak_password", true
	case errors.Is(err, domain.ErrMissingFields), errors.Is(err, domain.ErrInvalidUsername):
		return http.StatusBadRequest, err.Error(), "invalid_input", true
	}
	return http.StatusInternalServerError, unexpectedError, "error", false
}

// fail writes the {success:false,error} envelope. Unknown errors are logged
// and replaced by a generic message.
func fail(c echo.Context, log zerolog.Logger, err error) (string, error) {
	status, msg, label, known := classify(err)
	if !known {
		log.Error().
			Err(err).
			Str("method", c.Request().Method).
			Str("path", c.Path()).
			Msg("session action failed")
	}
	return label, c.JSON(status, sessionResponse{Success: false, Error: msg})
}

// bindAndValidate decodes the body into req and runs the registered validator.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return &validationError{msg: "invalid payload"}
	}
	if err := c.Validate(req); err != nil {
		return &validationError{msg: err.Error()}
	}
	return nil
}
