package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/festapp/identity/internal/core/domain"
	"github.com/festapp/identity/internal/core/ports"
)

var _ ports.UserService = (*UserService)(nil)

// UserService implements registration and admin account management.
type UserService struct {
	store    ports.CredentialStore
	hasher   *PasswordHasher
	notifier ports.RoleChangeNotifier
	log      zerolog.Logger
	now      func() time.Time
}

func NewUserService(store ports.CredentialStore, hasher *PasswordHasher, notifier ports.RoleChangeNotifier, log zerolog.Logger) *UserService {
	return &UserService{store: store, hasher: hasher, notifier: notifier, log: log, now: time.Now}
}

func (s *UserService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	in.Name = strings.TrimSpace(in.Name)
	if in.Username == "" || in.Name == "" {
		return nil, domain.ErrMissingFields
	}
	// Usernames and emails share one login namespace.
	if strings.Contains(in.Username, "@") {
		return nil, domain.ErrInvalidUsername
	}
	if len(in.Password) < MinPasswordLength {
		return nil, domain.ErrWeakPassword
	}
	if err := s.ensureIdentifiersFree(ctx, in.Username, in.Email); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	user := &domain.User{
		Name:         in.Name,
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         domain.RoleUser,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	created, err := s.store.Create(ctx, user)
	if err != nil {
		return nil, err
	}
	return created, nil
}

// ensureIdentifiersFree rejects a registration when either identifier already
// answers a login lookup, whichever field it is stored in.
func (s *UserService) ensureIdentifiersFree(ctx context.Context, identifiers ...string) error {
	for _, id := range identifiers {
		if id == "" {
			continue
		}
		_, err := s.store.FindByIdentifier(ctx, id)
		switch {
		case err == nil:
			return domain.ErrUserExists
		case errors.Is(err, domain.ErrUserNotFound):
		default:
			return err
		}
	}
	return nil
}

// ListUsers hides shadow users unless includeShadow is set.
func (s *UserService) ListUsers(ctx context.Context, actor domain.SessionClaims, includeShadow bool) ([]*domain.User, error) {
	if !domain.IsAdminSession(actor) {
		return nil, domain.ErrUnauthorized
	}
	users, err := s.store.List(ctx, includeShadow)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// ChangeRole sets the role of targetID. An admin may not demote themselves.
// Tokens already issued keep their old role until refreshed or expired.
func (s *UserService) ChangeRole(ctx context.Context, actor domain.SessionClaims, targetID string, role domain.Role) (*domain.User, error) {
	if !domain.IsAdminSession(actor) {
		return nil, domain.ErrUnauthorized
	}
	if !role.Valid() {
		return nil, domain.ErrInvalidRole
	}
	actorID := actor.Identity().UserID
	if actorID == targetID && role != domain.RoleAdmin {
		return nil, domain.ErrSelfDemotion
	}

	user, err := s.store.UpdateRole(ctx, targetID, role)
	if err != nil {
		return nil, err
	}

	event := ports.RoleChangedEvent{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Role:      user.Role,
		ChangedBy: actorID,
		ChangedAt: s.now().UTC(),
	}
	if err := s.notifier.PublishRoleChanged(ctx, event); err != nil {
		s.log.Warn().Err(err).Str("user_id", user.ID).Msg("failed to publish role change")
	}

	s.log.Info().
		Str("user_id", user.ID).
		Str("role", string(user.Role)).
		Str("changed_by", actorID).
		Msg("role changed")
	return user, nil
}

func (s *UserService) SetShadowStatus(ctx context.Context, actor domain.SessionClaims, targetID string, shadow bool) (*domain.User, error) {
	if !domain.IsAdminSession(actor) {
		return nil, domain.ErrUnauthorized
	}
	user, err := s.store.UpdateShadowStatus(ctx, targetID, shadow)
	if err != nil {
		return nil, err
	}
	return user, nil
}
