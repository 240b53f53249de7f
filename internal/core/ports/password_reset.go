package ports

import (
	"context"

	"github.com/festapp/identity/internal/core/domain"
)

// ResetMail is a password-reset message handed to the mail pipeline.
type ResetMail struct {
	To       string
	Name     string
	ResetURL string
}

// ResetMailer accepts reset mails for delivery.
type ResetMailer interface {
	SendResetMail(ctx context.Context, mail ResetMail) error
}

// PasswordResetService issues and consumes single-use reset tokens.
type PasswordResetService interface {
	// RequestReset never reports whether the email is known.
	RequestReset(ctx context.Context, email string) error
	ValidateToken(ctx context.Context, token string) (*domain.MaskedUser, error)
	ResetPassword(ctx context.Context, token, newPassword string) error
}
