package domain

import (
	"strings"
	"time"
)

// Role is the coarse permission level of a user.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// User models an account of the festival companion app.
type User struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Username      string `json:"username"`
	Email         string `json:"email,omitempty"`
	PasswordHash  string `json:"-"`
	Role          Role   `json:"role"`
	IsActive      bool   `json:"isActive"`
	EmailVerified bool   `json:"emailVerified"`
	// IsShadowUser hides the account from default admin listings only.
	IsShadowUser bool `json:"isShadowUser"`

	FailedLoginAttempts int        `json:"-"`
	LockUntil           *time.Time `json:"-"`

	PasswordResetToken   string     `json:"-"`
	PasswordResetExpires *time.Time `json:"-"`

	LastLogin *time.Time `json:"lastLogin,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// IsAdmin reports whether the user currently holds the admin role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// Identity projects the user onto the claims carried by a session token.
func (u *User) Identity() Identity {
	return Identity{
		UserID:        u.ID,
		Email:         u.Email,
		Name:          u.Name,
		Username:      u.Username,
		Role:          u.Role,
		EmailVerified: u.EmailVerified,
		IsShadowUser:  u.IsShadowUser,
	}
}

// AsOriginalAdmin projects the user onto the admin reference stored in an
// impersonation session.
func (u *User) AsOriginalAdmin() OriginalAdmin {
	return OriginalAdmin{
		UserID:   u.ID,
		Email:    u.Email,
		Name:     u.Name,
		Username: u.Username,
	}
}

// MaskedUser is what a valid password-reset token reveals about its owner.
type MaskedUser struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Mask returns the masked view of the user.
func (u *User) Mask() *MaskedUser {
	return &MaskedUser{Name: u.Name, Email: MaskEmail(u.Email)}
}

// MaskEmail keeps the first character of the local part and the domain:
// "alice@example.com" becomes "a***@example.com".
func MaskEmail(email string) string {
	at := strings.LastIndex(email, "@")
	if at <= 0 {
		return "***"
	}
	return email[:1] + "***" + email[at:]
}
