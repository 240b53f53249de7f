package service

import (
	"context"
	"fmt"
	"time"

	"github.com/festapp/identity/internal/core/domain"
	"github.com/festapp/identity/internal/core/ports"
)

const (
	DefaultLockoutThreshold = 5
	DefaultLockoutWindow    = 15 * time.Minute
)

// LockoutGuard locks an account for Window after Threshold consecutive
// failed logins. The lock heals by itself once Window has passed.
type LockoutGuard struct {
	store     ports.CredentialStore
	threshold int
	window    time.Duration
}

func NewLockoutGuard(store ports.CredentialStore, threshold int, window time.Duration) *LockoutGuard {
	if threshold <= 0 {
		threshold = DefaultLockoutThreshold
	}
	if window <= 0 {
		window = DefaultLockoutWindow
	}
	return &LockoutGuard{store: store, threshold: threshold, window: window}
}

// IsLocked reports whether the user's lock window is still open at now.
func (g *LockoutGuard) IsLocked(user *domain.User, now time.Time) bool {
	return user.LockUntil != nil && user.LockUntil.After(now)
}

// RecordFailure counts a failed attempt against the stored document.
func (g *LockoutGuard) RecordFailure(ctx context.Context, user *domain.User, now time.Time) error {
	if err := g.store.IncrementFailedAttempts(ctx, user.ID, g.threshold, now.Add(g.window), now); err != nil {
		return fmt.Errorf("record failed login: %w", err)
	}
	return nil
}

// Reset clears the counter and lock after a successful login.
func (g *LockoutGuard) Reset(ctx context.Context, user *domain.User, now time.Time) error {
	if err := g.store.RecordLoginSuccess(ctx, user.ID, now); err != nil {
		return fmt.Errorf("record login success: %w", err)
	}
	return nil
}
