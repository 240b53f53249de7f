package ports

import (
	"context"
	"time"

	"github.com/festapp/identity/internal/core/domain"
)

// RegisterInput carries the data for a new account.
type RegisterInput struct {
	Name     string
	Username string
	Email    string
	Password string
}

// RoleChangedEvent tells other connected clients that a user's role changed
// so they can refresh their session.
type RoleChangedEvent struct {
	ID        string      `json:"id"`
	UserID    string      `json:"userId"`
	Role      domain.Role `json:"role"`
	ChangedBy string      `json:"changedBy"`
	ChangedAt time.Time   `json:"changedAt"`
}

// RoleChangeNotifier fans role changes out to other clients.
type RoleChangeNotifier interface {
	PublishRoleChanged(ctx context.Context, event RoleChangedEvent) error
}

// UserService covers registration and the admin account operations.
type UserService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.User, error)
	ListUsers(ctx context.Context, actor domain.SessionClaims, includeShadow bool) ([]*domain.User, error)
	ChangeRole(ctx context.Context, actor domain.SessionClaims, targetID string, role domain.Role) (*domain.User, error)
	SetShadowStatus(ctx context.Context, actor domain.SessionClaims, targetID string, shadow bool) (*domain.User, error)
}
