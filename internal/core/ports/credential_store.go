package ports

import (
	"context"
	"time"

	"github.com/festapp/identity/internal/core/domain"
)

// CredentialStore is the persistence boundary for user records. Every
// account mutation is applied to the stored document in a single atomic
// update, never by writing back an in-memory copy.
type CredentialStore interface {
	// FindByIdentifier matches username or email case-insensitively among
	// active users, shadow users included. Returns domain.ErrUserNotFound.
	FindByIdentifier(ctx context.Context, identifier string) (*domain.User, error)
	// FindByID returns the user regardless of active state.
	FindByID(ctx context.Context, id string) (*domain.User, error)
	// FindByEmail matches email case-insensitively among active users.
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	// List returns users ordered by username; shadow users only when includeShadow.
	List(ctx context.Context, includeShadow bool) ([]*domain.User, error)

	// IncrementFailedAttempts bumps the counter of an unlocked account. When
	// the counter reaches threshold it is reset to 0 and lock_until set to
	// lockUntil. Locked accounts are left untouched.
	IncrementFailedAttempts(ctx context.Context, id string, threshold int, lockUntil, now time.Time) error
	// RecordLoginSuccess clears the counter and lock and stamps lastLogin.
	RecordLoginSuccess(ctx context.Context, id string, now time.Time) error

	UpdateRole(ctx context.Context, id string, role domain.Role) (*domain.User, error)
	UpdateShadowStatus(ctx context.Context, id string, shadow bool) (*domain.User, error)

	SetPasswordResetToken(ctx context.Context, id, tokenHash string, expires time.Time) error
	// FindByPasswordResetTokenHash only matches tokens expiring after now.
	FindByPasswordResetTokenHash(ctx context.Context, tokenHash string, now time.Time) (*domain.User, error)
	// ConsumePasswordReset sets the new hash and clears both reset fields
	// in one update. Returns domain.ErrInvalidOrExpired when no live token matched.
	ConsumePasswordReset(ctx context.Context, tokenHash, passwordHash string, now time.Time) error
}
