package ports

import (
	"context"
	"time"

	"github.com/festapp/identity/internal/core/domain"
)

// SessionCookie is the transport sink holding the client's session token.
type SessionCookie interface {
	Read() (token string, ok bool)
	Write(token string, maxAge time.Duration)
	Clear()
}

// TokenVerifier validates a session token and returns its claims.
type TokenVerifier interface {
	Verify(token string) (domain.SessionClaims, error)
}

// SessionService drives the session state machine:
// Anonymous, Normal Session and Temporary Impersonation Session.
type SessionService interface {
	Login(ctx context.Context, jar SessionCookie, identifier, password string) (*domain.NormalSession, error)
	Logout(ctx context.Context, jar SessionCookie)
	// RefreshSession returns nil claims when the session degraded to Anonymous.
	RefreshSession(ctx context.Context, jar SessionCookie) (domain.SessionClaims, error)
	BecomeUser(ctx context.Context, jar SessionCookie, targetUserID string) (*domain.ImpersonationSession, error)
	RestoreAdminSession(ctx context.Context, jar SessionCookie) (*domain.NormalSession, error)
	IsTemporaryUserSession(ctx context.Context, jar SessionCookie) bool
	VerifySession(ctx context.Context, jar SessionCookie) domain.SessionClaims
	VerifyAdminSession(ctx context.Context, jar SessionCookie) domain.SessionClaims
}
