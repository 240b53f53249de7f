package service

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/festapp/identity/internal/core/domain"
)

// tokenClaims is the wire shape of a session token.
type tokenClaims struct {
	UserID        string                `json:"userId"`
	Email         string                `json:"email"`
	Name          string                `json:"name"`
	Username      string                `json:"username"`
	Role          domain.Role           `json:"role"`
	EmailVerified bool                  `json:"emailVerified"`
	IsShadowUser  bool                  `json:"isShadowUser"`
	Type          string                `json:"type"`
	OriginalAdmin *domain.OriginalAdmin `json:"originalAdmin,omitempty"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies HS256 session tokens. The secret is set once
// at construction; rotating it invalidates every outstanding session.
type TokenIssuer struct {
	secret []byte
	now    func() time.Time
}

func NewTokenIssuer(secret string) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), now: time.Now}
}

// IssueNormal signs a normal session for subject.
func (i *TokenIssuer) IssueNormal(subject domain.Identity, ttl time.Duration) (string, *domain.NormalSession, error) {
	token, issued, expires, err := i.sign(subject, nil, ttl)
	if err != nil {
		return "", nil, err
	}
	return token, &domain.NormalSession{Subject: subject, Issued: issued, Expires: expires}, nil
}

// IssueImpersonation signs a temporary session acting as subject on behalf of admin.
func (i *TokenIssuer) IssueImpersonation(subject domain.Identity, admin domain.OriginalAdmin, ttl time.Duration) (string, *domain.ImpersonationSession, error) {
	token, issued, expires, err := i.sign(subject, &admin, ttl)
	if err != nil {
		return "", nil, err
	}
	return token, &domain.ImpersonationSession{Subject: subject, Admin: admin, Issued: issued, Expires: expires}, nil
}

func (i *TokenIssuer) sign(subject domain.Identity, admin *domain.OriginalAdmin, ttl time.Duration) (string, time.Time, time.Time, error) {
	// NumericDate has second precision; truncate so the returned claims
	// equal what Verify will decode.
	issued := i.now().UTC().Truncate(time.Second)
	expires := issued.Add(ttl)

	claims := tokenClaims{
		UserID:        subject.UserID,
		Email:         subject.Email,
		Name:          subject.Name,
		Username:      subject.Username,
		Role:          subject.Role,
		EmailVerified: subject.EmailVerified,
		IsShadowUser:  subject.IsShadowUser,
		Type:          domain.TokenType,
		OriginalAdmin: admin,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, time.Time{}, err
	}
	return signed, issued, expires, nil
}

// Verify checks signature, expiry and token type. Every failure is reported
// as domain.ErrInvalidToken.
func (i *TokenIssuer) Verify(token string) (domain.SessionClaims, error) {
	if token == "" {
		return nil, domain.ErrInvalidToken
	}

	var claims tokenClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (interface{}, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil || !parsed.Valid {
		return nil, domain.ErrInvalidToken
	}
	if claims.Type != domain.TokenType || claims.UserID == "" || claims.IssuedAt == nil {
		return nil, domain.ErrInvalidToken
	}

	subject := domain.Identity{
		UserID:        claims.UserID,
		Email:         claims.Email,
		Name:          claims.Name,
		Username:      claims.Username,
		Role:          claims.Role,
		EmailVerified: claims.EmailVerified,
		IsShadowUser:  claims.IsShadowUser,
	}
	issued := claims.IssuedAt.Time.UTC()
	expires := claims.ExpiresAt.Time.UTC()

	if claims.OriginalAdmin != nil {
		return &domain.ImpersonationSession{
			Subject: subject,
			Admin:   *claims.OriginalAdmin,
			Issued:  issued,
			Expires: expires,
		}, nil
	}
	return &domain.NormalSession{Subject: subject, Issued: issued, Expires: expires}, nil
}
