package handler

import (
	"time"

	"github.com/festapp/identity/internal/core/domain"
)

type loginRequest struct {
	// Identifier is a username or an email address.
	Identifier string `json:"identifier" validate:"required"`
	Password   string `json:"password"   validate:"required"`
}

// sessionView is the client-facing projection of session claims.
type sessionView struct {
	UserID        string                `json:"userId"`
	Email         string                `json:"email"`
	Name          string                `json:"name"`
	Username      string                `json:"username"`
	Role          domain.Role           `json:"role"`
	EmailVerified bool                  `json:"emailVerified"`
	IsShadowUser  bool                  `json:"isShadowUser"`
	IsTemporary   bool                  `json:"isTemporary"`
	OriginalAdmin *domain.OriginalAdmin `json:"originalAdmin,omitempty"`
	ExpiresAt     time.Time             `json:"expiresAt"`
}

// sessionResponse is the envelope for every session action.
type sessionResponse struct {
	Success bool         `json:"success"`
	Error   string       `json:"error,omitempty"`
	Session *sessionView `json:"session,omitempty"`
}

type temporaryResponse struct {
	Success     bool `json:"success"`
	IsTemporary bool `json:"isTemporary"`
}

func toSessionView(claims domain.SessionClaims) *sessionView {
	if claims == nil {
		return nil
	}
	id := claims.Identity()
	v := &sessionView{
		UserID:        id.UserID,
		Email:         id.Email,
		Name:          id.Name,
		Username:      id.Username,
		Role:          id.Role,
		EmailVerified: id.EmailVerified,
		IsShadowUser:  id.IsShadowUser,
		ExpiresAt:     claims.ExpiresAt(),
	}
	switch s := claims.(type) {
	case *domain.ImpersonationSession:
		admin := s.Admin
		v.IsTemporary = true
		v.OriginalAdmin = &admin
	case *domain.NormalSession:
	}
	return v
}
