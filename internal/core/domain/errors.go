package domain

import "errors"

// Authentication. ErrInvalidCredentials deliberately covers unknown
// identifiers, wrong passwords and inactive accounts alike.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountLocked      = errors.New("account temporarily locked")
	ErrInvalidToken       = errors.New("invalid token")
)

// Authorization and impersonation.
var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrUserNotFound       = errors.New("user not found")
	ErrNoTemporarySession = errors.New("no temporary session")
	ErrAdminNoLongerValid = errors.New("original admin no longer valid")
	ErrSelfDemotion       = errors.New("admins cannot demote themselves")
)

// Accounts and password reset.
var (
	ErrUserExists       = errors.New("user already exists")
	ErrInvalidRole      = errors.New("invalid role")
	ErrInvalidOrExpired = errors.New("reset token invalid or expired")
	ErrWeakPassword     = errors.New("password must be at least 8 characters")
	ErrMissingFields    = errors.New("name and username are required")
	ErrInvalidUsername  = errors.New("username must not contain '@'")
)
