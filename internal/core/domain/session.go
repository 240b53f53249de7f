package domain

import "time"

// TokenType marks session tokens of this family apart from other token kinds
// the platform may sign with the same secret.
const TokenType = "user"

// Identity is the user snapshot embedded in every session token.
type Identity struct {
	UserID        string `json:"userId"`
	Email         string `json:"email"`
	Name          string `json:"name"`
	Username      string `json:"username"`
	Role          Role   `json:"role"`
	EmailVerified bool   `json:"emailVerified"`
	IsShadowUser  bool   `json:"isShadowUser"`
}

// OriginalAdmin references the admin behind an impersonation session.
// It is never trusted for authorization; restore re-loads the admin.
type OriginalAdmin struct {
	UserID   string `json:"userId"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Username string `json:"username"`
}

// SessionClaims is the verified content of a session token. It is
// implemented only by *NormalSession and *ImpersonationSession; switch on
// the concrete type to handle both kinds.
type SessionClaims interface {
	Identity() Identity
	IssuedAt() time.Time
	ExpiresAt() time.Time

	sessionClaims()
}

// NormalSession is an ordinary login session.
type NormalSession struct {
	Subject Identity
	Issued  time.Time
	Expires time.Time
}

func (s *NormalSession) Identity() Identity   { return s.Subject }
func (s *NormalSession) IssuedAt() time.Time  { return s.Issued }
func (s *NormalSession) ExpiresAt() time.Time { return s.Expires }
func (*NormalSession) sessionClaims()         {}

// ImpersonationSession is an admin acting as Subject.
type ImpersonationSession struct {
	Subject Identity
	Admin   OriginalAdmin
	Issued  time.Time
	Expires time.Time
}

func (s *ImpersonationSession) Identity() Identity   { return s.Subject }
func (s *ImpersonationSession) IssuedAt() time.Time  { return s.Issued }
func (s *ImpersonationSession) ExpiresAt() time.Time { return s.Expires }
func (*ImpersonationSession) sessionClaims()         {}

// IsTemporary reports whether claims belong to an impersonation session.
func IsTemporary(claims SessionClaims) bool {
	_, ok := claims.(*ImpersonationSession)
	return ok
}

// IsAdminSession reports whether claims carry the admin role.
func IsAdminSession(claims SessionClaims) bool {
	return claims != nil && claims.Identity().Role == RoleAdmin
}
