package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/festapp/identity/internal/core/domain"
	"github.com/festapp/identity/internal/core/ports"
)

var _ ports.PasswordResetService = (*PasswordResetService)(nil)

const (
	ResetTokenTTL   = 10 * time.Minute
	resetTokenBytes = 32
)

// PasswordResetService issues single-use reset tokens. Only the SHA-256 of a
// token is stored; the plaintext exists in the mail and nowhere else.
type PasswordResetService struct {
	store  ports.CredentialStore
	hasher *PasswordHasher
	mailer ports.ResetMailer
	appURL string
	log    zerolog.Logger
	now    func() time.Time
}

func NewPasswordResetService(
	store ports.CredentialStore,
	hasher *PasswordHasher,
	mailer ports.ResetMailer,
	appURL string,
	log zerolog.Logger,
) *PasswordResetService {
	return &PasswordResetService{
		store:  store,
		hasher: hasher,
		mailer: mailer,
		appURL: strings.TrimRight(appURL, "/"),
		log:    log,
		now:    time.Now,
	}
}

// RequestReset always returns nil so callers cannot enumerate accounts.
func (s *PasswordResetService) RequestReset(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil
	}

	user, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, domain.ErrUserNotFound) {
			s.log.Error().Err(err).Msg("password reset lookup failed")
		}
		return nil
	}
	if user.Email == "" {
		return nil
	}

	token, err := newResetToken()
	if err != nil {
		s.log.Error().Err(err).Msg("password reset token generation failed")
		return nil
	}

	expires := s.now().Add(ResetTokenTTL)
	if err := s.store.SetPasswordResetToken(ctx, user.ID, hashResetToken(token), expires); err != nil {
		s.log.Error().Err(err).Str("user_id", user.ID).Msg("failed to store password reset token")
		return nil
	}

	mail := ports.ResetMail{
		To:       user.Email,
		Name:     user.Name,
		ResetURL: s.appURL + "/reset-password?token=" + url.QueryEscape(token),
	}
	if err := s.mailer.SendResetMail(ctx, mail); err != nil {
		s.log.Error().Err(err).Str("user_id", user.ID).Msg("failed to queue password reset mail")
	}
	return nil
}

// ValidateToken returns the masked owner of a live token.
func (s *PasswordResetService) ValidateToken(ctx context.Context, token string) (*domain.MaskedUser, error) {
	user, err := s.lookup(ctx, token)
	if err != nil {
		return nil, err
	}
	return user.Mask(), nil
}

// ResetPassword rotates the password and burns the token. A weak password
// leaves the token usable. The user is not logged in.
func (s *PasswordResetService) ResetPassword(ctx context.Context, token, newPassword string) error {
	user, err := s.lookup(ctx, token)
	if err != nil {
		return err
	}
	if len(newPassword) < MinPasswordLength {
		return domain.ErrWeakPassword
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("reset password: %w", err)
	}
	if err := s.store.ConsumePasswordReset(ctx, hashResetToken(token), hash, s.now()); err != nil {
		if errors.Is(err, domain.ErrInvalidOrExpired) {
			return err
		}
		return fmt.Errorf("reset password: %w", err)
	}

	s.log.Info().Str("user_id", user.ID).Msg("password reset completed")
	return nil
}

func (s *PasswordResetService) lookup(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, domain.ErrInvalidOrExpired
	}
	user, err := s.store.FindByPasswordResetTokenHash(ctx, hashResetToken(token), s.now())
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidOrExpired
		}
		return nil, fmt.Errorf("lookup reset token: %w", err)
	}
	return user, nil
}

func newResetToken() (string, error) {
	b := make([]byte, resetTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func hashResetToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
