package handler

import "github.com/festapp/identity/internal/core/domain"

type resetRequest struct {
	Email string `json:"email" validate:"required"`
}

type confirmResetRequest struct {
	Token    string `json:"token"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

type resetTokenResponse struct {
	Success bool               `json:"success"`
	User    *domain.MaskedUser `json:"user"`
}

type successResponse struct {
	Success bool `json:"success"`
}
