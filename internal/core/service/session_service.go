package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/festapp/identity/internal/core/domain"
	"github.com/festapp/identity/internal/core/ports"
)

var _ ports.SessionService = (*SessionService)(nil)

var errNoSession = errors.New("no session cookie")

const (
	NormalSessionTTL        = 7 * 24 * time.Hour
	ImpersonationSessionTTL = 2 * time.Hour
)

// SessionService implements login, logout, refresh and impersonation on top
// of stateless signed tokens. Nothing is kept server side, so logout and
// role changes never revoke tokens already issued.
type SessionService struct {
	store   ports.CredentialStore
	hasher  *PasswordHasher
	lockout *LockoutGuard
	tokens  *TokenIssuer
	log     zerolog.Logger
	now     func() time.Time

	// dummyHash keeps the unknown-identifier path as slow as a wrong password.
	dummyHash string
}

func NewSessionService(
	store ports.CredentialStore,
	hasher *PasswordHasher,
	lockout *LockoutGuard,
	tokens *TokenIssuer,
	log zerolog.Logger,
) *SessionService {
	dummy, err := hasher.Hash("not-a-real-password")
	if err != nil {
		log.Warn().Err(err).Msg("could not prepare dummy password hash")
	}
	return &SessionService{
		store:     store,
		hasher:    hasher,
		lockout:   lockout,
		tokens:    tokens,
		log:       log,
		now:       time.Now,
		dummyHash: dummy,
	}
}

// Login authenticates identifier (username or email) and opens a normal session.
func (s *SessionService) Login(ctx context.Context, jar ports.SessionCookie, identifier, password string) (*domain.NormalSession, error) {
	if identifier == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.store.FindByIdentifier(ctx, identifier)
	if errors.Is(err, domain.ErrUserNotFound) || (err == nil && !user.IsActive) {
		s.hasher.Verify(password, s.dummyHash)
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	now := s.now()
	passwordOK := s.hasher.Verify(password, user.PasswordHash)

	// The lock wins over the password result, right or wrong.
	if s.lockout.IsLocked(user, now) {
		s.log.Info().Str("user_id", user.ID).Msg("login refused: account locked")
		return nil, domain.ErrAccountLocked
	}

	if !passwordOK {
		if err := s.lockout.RecordFailure(ctx, user, now); err != nil {
			s.log.Error().Err(err).Str("user_id", user.ID).Msg("failed to record failed login")
		}
		return nil, domain.ErrInvalidCredentials
	}

	if err := s.lockout.Reset(ctx, user, now); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	token, session, err := s.tokens.IssueNormal(user.Identity(), NormalSessionTTL)
	if err != nil {
		return nil, fmt.Errorf("login: issue token: %w", err)
	}
	jar.Write(token, NormalSessionTTL)

	s.log.Info().Str("user_id", user.ID).Msg("user logged in")
	return session, nil
}

// Logout only drops the cookie; the token itself stays valid until it expires.
func (s *SessionService) Logout(_ context.Context, jar ports.SessionCookie) {
	jar.Clear()
}

// RefreshSession re-issues the current session from fresh user state. An
// unusable token or a vanished user degrades to Anonymous (nil, nil).
func (s *SessionService) RefreshSession(ctx context.Context, jar ports.SessionCookie) (domain.SessionClaims, error) {
	claims, err := s.current(jar)
	if err != nil {
		jar.Clear()
		return nil, nil
	}

	user, err := s.store.FindByID(ctx, claims.Identity().UserID)
	if errors.Is(err, domain.ErrUserNotFound) || (err == nil && !user.IsActive) {
		jar.Clear()
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("refresh session: %w", err)
	}

	switch c := claims.(type) {
	case *domain.ImpersonationSession:
		token, session, err := s.tokens.IssueImpersonation(user.Identity(), c.Admin, ImpersonationSessionTTL)
		if err != nil {
			return nil, fmt.Errorf("refresh session: issue token: %w", err)
		}
		jar.Write(token, ImpersonationSessionTTL)
		return session, nil
	case *domain.NormalSession:
		token, session, err := s.tokens.IssueNormal(user.Identity(), NormalSessionTTL)
		if err != nil {
			return nil, fmt.Errorf("refresh session: issue token: %w", err)
		}
		jar.Write(token, NormalSessionTTL)
		return session, nil
	default:
		return nil, fmt.Errorf("refresh session: unknown session kind %T", claims)
	}
}

// BecomeUser lets the current admin act as targetUserID for a bounded time.
// Impersonating another admin, or oneself, is allowed.
func (s *SessionService) BecomeUser(ctx context.Context, jar ports.SessionCookie, targetUserID string) (*domain.ImpersonationSession, error) {
	claims, err := s.current(jar)
	if err != nil || !domain.IsAdminSession(claims) {
		return nil, domain.ErrUnauthorized
	}

	target, err := s.store.FindByID(ctx, targetUserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("become user: %w", err)
	}

	caller := claims.Identity()
	admin := domain.OriginalAdmin{
		UserID:   caller.UserID,
		Email:    caller.Email,
		Name:     caller.Name,
		Username: caller.Username,
	}

	token, session, err := s.tokens.IssueImpersonation(target.Identity(), admin, ImpersonationSessionTTL)
	if err != nil {
		return nil, fmt.Errorf("become user: issue token: %w", err)
	}
	jar.Write(token, ImpersonationSessionTTL)

	s.log.Info().
		Str("admin_id", admin.UserID).
		Str("target_id", target.ID).
		Msg("impersonation started")
	return session, nil
}

// RestoreAdminSession ends an impersonation and signs the original admin
// back in, provided the store still lists them as an active admin.
func (s *SessionService) RestoreAdminSession(ctx context.Context, jar ports.SessionCookie) (*domain.NormalSession, error) {
	claims, err := s.current(jar)
	if err != nil {
		jar.Clear()
		return nil, domain.ErrNoTemporarySession
	}

	var ref domain.OriginalAdmin
	switch c := claims.(type) {
	case *domain.ImpersonationSession:
		ref = c.Admin
	case *domain.NormalSession:
		return nil, domain.ErrNoTemporarySession
	default:
		return nil, fmt.Errorf("restore admin session: unknown session kind %T", claims)
	}

	admin, err := s.store.FindByID(ctx, ref.UserID)
	if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
		return nil, fmt.Errorf("restore admin session: %w", err)
	}
	if err != nil || !admin.IsAdmin() || !admin.IsActive {
		s.log.Warn().Str("admin_id", ref.UserID).Msg("restore refused: admin no longer valid")
		return nil, domain.ErrAdminNoLongerValid
	}

	token, session, err := s.tokens.IssueNormal(admin.Identity(), NormalSessionTTL)
	if err != nil {
		return nil, fmt.Errorf("restore admin session: issue token: %w", err)
	}
	jar.Write(token, NormalSessionTTL)

	s.log.Info().Str("admin_id", admin.ID).Msg("impersonation ended")
	return session, nil
}

// IsTemporaryUserSession reports whether the current token is an impersonation.
func (s *SessionService) IsTemporaryUserSession(_ context.Context, jar ports.SessionCookie) bool {
	claims, err := s.current(jar)
	return err == nil && domain.IsTemporary(claims)
}

// VerifySession returns the current claims, or nil when anonymous.
func (s *SessionService) VerifySession(_ context.Context, jar ports.SessionCookie) domain.SessionClaims {
	claims, err := s.current(jar)
	if err != nil {
		return nil
	}
	return claims
}

// VerifyAdminSession is VerifySession restricted to the admin role.
func (s *SessionService) VerifyAdminSession(ctx context.Context, jar ports.SessionCookie) domain.SessionClaims {
	claims := s.VerifySession(ctx, jar)
	if !domain.IsAdminSession(claims) {
		return nil
	}
	return claims
}

func (s *SessionService) current(jar ports.SessionCookie) (domain.SessionClaims, error) {
	token, ok := jar.Read()
	if !ok {
		return nil, errNoSession
	}
	return s.tokens.Verify(token)
}
