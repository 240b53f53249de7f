package handler

import "github.com/festapp/identity/internal/core/domain"

type registerRequest struct {
	Name     string `json:"name"     validate:"required"`
	Username string `json:"username" validate:"required,min=3"`
	Email    string `json:"email"    validate:"omitempty,email"`
	Password string `json:"password" validate:"required"`
}

type changeRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=user admin"`
}

type shadowRequest struct {
	IsShadowUser *bool `json:"isShadowUser" validate:"required"`
}

type userResponse struct {
	Success bool         `json:"success"`
	User    *domain.User `json:"user"`
}

type userListResponse struct {
	Success bool           `json:"success"`
	Users   []*domain.User `json:"users"`
	Total   int            `json:"total"`
}
