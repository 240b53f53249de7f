package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/festapp/identity/internal/core/domain"
	"github.com/festapp/identity/internal/core/ports"
)

type UserHandler struct {
	users ports.UserService
	log   zerolog.Logger
}

func NewUserHandler(users ports.UserService, log zerolog.Logger) *UserHandler {
	return &UserHandler{users: users, log: log}
}

// Register creates a new user account.
//
// @Summary      Register a new user
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "User registration details"
// @Success      201   {object}  userResponse
// @Failure      400   {object}  sessionResponse
// @Failure      409   {object}  sessionResponse
// @Router       /auth/register [post]
func (h *UserHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := bindAndValidate(c, &req); err != nil {
		_, werr := fail(c, h.log, err)
		return werr
	}

	user, err := h.users.Register(c.Request().Context(), ports.RegisterInput{
		Name:     req.Name,
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		_, werr := fail(c, h.log, err)
		return werr
	}

	return c.JSON(http.StatusCreated, userResponse{Success: true, User: user})
}

// List returns all accounts. Shadow users are hidden unless include_shadow=true.
//
// @Summary      List users
// @Tags         admin
// @Produce      json
// @Param        include_shadow  query     bool  false  "Include shadow users"
// @Success      200             {object}  userListResponse
// @Failure      403             {object}  sessionResponse
// @Router       /admin/users [get]
func (h *UserHandler) List(c echo.Context) error {
	actor, err := ctxClaims(c)
	if err != nil {
		_, werr := fail(c, h.log, err)
		return werr
	}

	includeShadow, _ := strconv.ParseBool(c.QueryParam("include_shadow"))
	users, err := h.users.ListUsers(c.Request().Context(), actor, includeShadow)
	if err != nil {
		_, werr := fail(c, h.log, err)
		return werr
	}

	return c.JSON(http.StatusOK, userListResponse{Success: true, Users: users, Total: len(users)})
}

// ChangeRole promotes or demotes a user.
//
// @Summary      Change user role
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        id    path      string             true  "User ID"
// @Param        body  body      changeRoleRequest  true  "New role"
// @Success      200   {object}  userResponse
// @Failure      400   {object}  sessionResponse
// @Failure      403   {object}  sessionResponse
// @Failure      404   {object}  sessionResponse
// @Failure      409   {object}  sessionResponse
// @Router       /admin/users/{id}/role [patch]
func (h *UserHandler) ChangeRole(c echo.Context) error {
	actor, err := ctxClaims(c)
	if err != nil {
		_, werr := fail(c, h.log, err)
		return werr
	}

	var req changeRoleRequest
	if err := bindAndValidate(c, &req); err != nil {
		_, werr := fail(c, h.log, err)
		return werr
	}

	user, err := h.users.ChangeRole(c.Request().Context(), actor, c.Param("id"), domain.Role(req.Role))
	if err != nil {
		_, werr := fail(c, h.log, err)
		return werr
	}

	return c.JSON(http.StatusOK, userResponse{Success: true, User: user})
}

// SetShadow toggles whether a user is hidden from default listings.
//
// @Summary      Set shadow status
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        id    path      string         true  "User ID"
// @Param        body  body      shadowRequest  true  "Shadow flag"
// @Success      200   {object}  userResponse
// @Failure      403   {object}  sessionResponse
// @Failure      404   {object}  sessionResponse
// @Router       /admin/users/{id}/shadow [patch]
func (h *UserHandler) SetShadow(c echo.Context) error {
	actor, err := ctxClaims(c)
	if err != nil {
		_, werr := fail(c, h.log, err)
		return werr
	}

	var req shadowRequest
	if err := bindAndValidate(c, &req); err != nil {
		_, werr := fail(c, h.log, err)
		return werr
	}

	user, err := h.users.SetShadowStatus(c.Request().Context(), actor, c.Param("id"), *req.IsShadowUser)
	if err != nil {
		_, werr := fail(c, h.log, err)
		return werr
	}

	return c.JSON(http.StatusOK, userResponse{Success: true, User: user})
}
