package service

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/festapp/identity/internal/core/domain"
)

// requestToken runs RequestReset and extracts the plaintext token from the mail.
func requestToken(t *testing.T, env *testEnv, email string) string {
	t.Helper()
	if err := env.resets.RequestReset(context.Background(), email); err != nil {
		t.Fatalf("RequestReset: %v", err)
	}
	if len(env.mailer.sent) == 0 {
		t.Fatalf("expected a reset mail")
	}
	u, err := url.Parse(env.mailer.sent[len(env.mailer.sent)-1].ResetURL)
	if err != nil {
		t.Fatalf("bad reset url: %v", err)
	}
	return u.Query().Get("token")
}

func TestPasswordReset_RequestStoresHashOnly(t *testing.T) {
	env := newTestEnv()
	alice := env.seedUser("alice", "alice@example.com", "correct-horse", domain.RoleUser)

	token := requestToken(t, env, "Alice@Example.com")
	if len(token) != 64 {
		t.Fatalf("expected 64 hex chars, got %q", token)
	}

	mail := env.mailer.sent[0]
	if mail.To != "alice@example.com" {
		t.Fatalf("unexpected recipient %q", mail.To)
	}
	if !strings.HasPrefix(mail.ResetURL, "https://fest.example/reset-password?token=") {
		t.Fatalf("unexpected reset url %q", mail.ResetURL)
	}

	stored := env.store.get(alice.ID)
	if stored.PasswordResetToken == "" || stored.PasswordResetToken == token {
		t.Fatalf("expected hashed token to be stored, got %q", stored.PasswordResetToken)
	}
	if stored.PasswordResetExpires == nil || !stored.PasswordResetExpires.Equal(env.clock.Now().Add(10*time.Minute)) {
		t.Fatalf("expected 10 minute expiry, got %v", stored.PasswordResetExpires)
	}
}

func TestPasswordReset_RequestUnknownEmail(t *testing.T) {
	env := newTestEnv()
	env.seedUser("alice", "alice@example.com", "correct-horse", domain.RoleUser)

	if err := env.resets.RequestReset(context.Background(), "nobody@example.com"); err != nil {
		t.Fatalf("expected success for unknown email, got %v", err)
	}
	if len(env.mailer.sent) != 0 {
		t.Fatal("no mail expected for unknown email")
	}
	for _, u := range env.store.users {
		if u.PasswordResetToken != "" {
			t.Fatal("no token expected for unknown email")
		}
	}
}

func TestPasswordReset_MailFailureStillSucceeds(t *testing.T) {
	env := newTestEnv()
	env.seedUser("alice", "alice@example.com", "correct-horse", domain.RoleUser)
	env.mailer.err = errors.New("queue full")

	if err := env.resets.RequestReset(context.Background(), "alice@example.com"); err != nil {
		t.Fatalf("expected success, got %v", err)
	}
}

func TestPasswordReset_ValidateToken(t *testing.T) {
	env := newTestEnv()
	env.seedUser("alice", "alice@example.com", "correct-horse", domain.RoleUser)
	token := requestToken(t, env, "alice@example.com")

	masked, err := env.resets.ValidateToken(context.Background(), token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if masked.Email != "a***@example.com" || masked.Name != "Alice" {
		t.Fatalf("unexpected masked user: %+v", masked)
	}

	if _, err := env.resets.ValidateToken(context.Background(), "bogus"); err != domain.ErrInvalidOrExpired {
		t.Fatalf("expected ErrInvalidOrExpired, got %v", err)
	}

	env.clock.Advance(10*time.Minute + time.Second)
	if _, err := env.resets.ValidateToken(context.Background(), token); err != domain.ErrInvalidOrExpired {
		t.Fatalf("expected expired token to be rejected, got %v", err)
	}
}

func TestPasswordReset_ResetIsSingleUse(t *testing.T) {
	env := newTestEnv()
	alice := env.seedUser("alice", "alice@example.com", "correct-horse", domain.RoleUser)
	token := requestToken(t, env, "alice@example.com")
	ctx := context.Background()

	if err := env.resets.ResetPassword(ctx, token, "battery-staple"); err != nil {
		t.Fatalf("ResetPassword: %v", err)
	}

	stored := env.store.get(alice.ID)
	if stored.PasswordResetToken != "" || stored.PasswordResetExpires != nil {
		t.Fatal("reset fields must be cleared")
	}
	if !env.hasher.Verify("battery-staple", stored.PasswordHash) {
		t.Fatal("new password not stored")
	}

	if err := env.resets.ResetPassword(ctx, token, "another-password"); err != domain.ErrInvalidOrExpired {
		t.Fatalf("expected replay to fail with ErrInvalidOrExpired, got %v", err)
	}

	// No automatic login.
	jar := &stubJar{}
	if _, err := env.sessions.Login(ctx, jar, "alice", "battery-staple"); err != nil {
		t.Fatalf("explicit login with new password failed: %v", err)
	}
	if _, err := env.sessions.Login(ctx, &stubJar{}, "alice", "correct-horse"); err != domain.ErrInvalidCredentials {
		t.Fatalf("old password must stop working, got %v", err)
	}
}

func TestPasswordReset_WeakPasswordKeepsToken(t *testing.T) {
	env := newTestEnv()
	alice := env.seedUser("alice", "alice@example.com", "correct-horse", domain.RoleUser)
	token := requestToken(t, env, "alice@example.com")
	ctx := context.Background()

	if err := env.resets.ResetPassword(ctx, token, "short"); err != domain.ErrWeakPassword {
		t.Fatalf("expected ErrWeakPassword, got %v", err)
	}

	if _, err := env.resets.ValidateToken(ctx, token); err != nil {
		t.Fatalf("token must remain valid after weak password, got %v", err)
	}
	if env.store.get(alice.ID).PasswordResetToken == "" {
		t.Fatal("token must remain unconsumed")
	}
}

func TestPasswordReset_InvalidTokenBeforeStrength(t *testing.T) {
	env := newTestEnv()
	if err := env.resets.ResetPassword(context.Background(), "bogus", "short"); err != domain.ErrInvalidOrExpired {
		t.Fatalf("expected ErrInvalidOrExpired, got %v", err)
	}
	if err := env.resets.ResetPassword(context.Background(), "", "long-enough"); err != domain.ErrInvalidOrExpired {
		t.Fatalf("expected ErrInvalidOrExpired for empty token, got %v", err)
	}
}
