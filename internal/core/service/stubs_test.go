package service

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/festapp/identity/internal/core/domain"
	"github.com/festapp/identity/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory credential store mirroring the Mongo repository's semantics.
// ---------------------------------------------------------------------------

type stubStore struct {
	mu     sync.Mutex
	users  map[string]*domain.User
	nextID int

	increments int // IncrementFailedAttempts calls that changed a document
	findErr    error
}

func newStubStore() *stubStore {
	return &stubStore{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}

func (s *stubStore) put(u *domain.User) *domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == "" {
		s.nextID++
		u.ID = "u" + strconv.Itoa(s.nextID)
	}
	s.users[u.ID] = cloneUser(u)
	return cloneUser(u)
}

func (s *stubStore) get(id string) *domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneUser(s.users[id])
}

func (s *stubStore) FindByIdentifier(_ context.Context, identifier string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findErr != nil {
		return nil, s.findErr
	}
	for _, u := range s.users {
		if !u.IsActive {
			continue
		}
		if strings.EqualFold(u.Username, identifier) || (u.Email != "" && strings.EqualFold(u.Email, identifier)) {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (s *stubStore) FindByID(_ context.Context, id string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findErr != nil {
		return nil, s.findErr
	}
	u, ok := s.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (s *stubStore) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.IsActive && u.Email != "" && strings.EqualFold(u.Email, email) {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (s *stubStore) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	s.mu.Lock()
	for _, u := range s.users {
		if strings.EqualFold(u.Username, user.Username) || (user.Email != "" && strings.EqualFold(u.Email, user.Email)) {
			s.mu.Unlock()
			return nil, domain.ErrUserExists
		}
	}
	s.mu.Unlock()
	return s.put(cloneUser(user)), nil
}

func (s *stubStore) List(_ context.Context, includeShadow bool) ([]*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.User
	for _, u := range s.users {
		if u.IsShadowUser && !includeShadow {
			continue
		}
		out = append(out, cloneUser(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (s *stubStore) IncrementFailedAttempts(_ context.Context, id string, threshold int, lockUntil, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	if u.LockUntil != nil && u.LockUntil.After(now) {
		return nil
	}
	s.increments++
	u.FailedLoginAttempts++
	if u.FailedLoginAttempts >= threshold {
		u.FailedLoginAttempts = 0
		lu := lockUntil
		u.LockUntil = &lu
	}
	return nil
}

func (s *stubStore) RecordLoginSuccess(_ context.Context, id string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.FailedLoginAttempts = 0
	u.LockUntil = nil
	ts := now
	u.LastLogin = &ts
	return nil
}

func (s *stubStore) UpdateRole(_ context.Context, id string, role domain.Role) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	u.Role = role
	return cloneUser(u), nil
}

func (s *stubStore) UpdateShadowStatus(_ context.Context, id string, shadow bool) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	u.IsShadowUser = shadow
	return cloneUser(u), nil
}

func (s *stubStore) SetPasswordResetToken(_ context.Context, id, tokenHash string, expires time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.PasswordResetToken = tokenHash
	exp := expires
	u.PasswordResetExpires = &exp
	return nil
}

func (s *stubStore) FindByPasswordResetTokenHash(_ context.Context, tokenHash string, now time.Time) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.PasswordResetToken == tokenHash && u.PasswordResetExpires != nil && u.PasswordResetExpires.After(now) {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (s *stubStore) ConsumePasswordReset(_ context.Context, tokenHash, passwordHash string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.PasswordResetToken == tokenHash && u.PasswordResetExpires != nil && u.PasswordResetExpires.After(now) {
			u.PasswordHash = passwordHash
			u.PasswordResetToken = ""
			u.PasswordResetExpires = nil
			return nil
		}
	}
	return domain.ErrInvalidOrExpired
}

// ---------------------------------------------------------------------------
// Cookie jar, mailer and notifier stubs.
// ---------------------------------------------------------------------------

type stubJar struct {
	token   string
	maxAge  time.Duration
	set     bool
	writes  int
	cleared bool
}

func (j *stubJar) Read() (string, bool) { return j.token, j.set }

func (j *stubJar) Write(token string, maxAge time.Duration) {
	j.token, j.maxAge, j.set = token, maxAge, true
	j.writes++
}

func (j *stubJar) Clear() {
	j.token, j.maxAge, j.set = "", 0, false
	j.cleared = true
}

func jarWith(token string) *stubJar {
	return &stubJar{token: token, set: true}
}

type stubMailer struct {
	sent []ports.ResetMail
	err  error
}

func (m *stubMailer) SendResetMail(_ context.Context, mail ports.ResetMail) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, mail)
	return nil
}

type stubNotifier struct {
	events []ports.RoleChangedEvent
	err    error
}

func (n *stubNotifier) PublishRoleChanged(_ context.Context, e ports.RoleChangedEvent) error {
	n.events = append(n.events, e)
	return n.err
}

// ---------------------------------------------------------------------------
// Test environment with a controllable clock.
// ---------------------------------------------------------------------------

const testSecret = "test-secret"

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type testEnv struct {
	store    *stubStore
	hasher   *PasswordHasher
	tokens   *TokenIssuer
	clock    *testClock
	sessions *SessionService
	resets   *PasswordResetService
	users    *UserService
	mailer   *stubMailer
	notifier *stubNotifier
}

func newTestEnv() *testEnv {
	clock := &testClock{t: time.Date(2026, 7, 1, 18, 0, 0, 0, time.UTC)}
	store := newStubStore()
	hasher := NewPasswordHasher(4) // bcrypt.MinCost keeps tests fast
	tokens := NewTokenIssuer(testSecret)
	tokens.now = clock.Now

	sessions := NewSessionService(store, hasher, NewLockoutGuard(store, 3, 15*time.Minute), tokens, zerolog.Nop())
	sessions.now = clock.Now

	mailer := &stubMailer{}
	resets := NewPasswordResetService(store, hasher, mailer, "https://fest.example/", zerolog.Nop())
	resets.now = clock.Now

	notifier := &stubNotifier{}
	users := NewUserService(store, hasher, notifier, zerolog.Nop())
	users.now = clock.Now

	return &testEnv{
		store:    store,
		hasher:   hasher,
		tokens:   tokens,
		clock:    clock,
		sessions: sessions,
		resets:   resets,
		users:    users,
		mailer:   mailer,
		notifier: notifier,
	}
}

func (e *testEnv) seedUser(username, email, password string, role domain.Role) *domain.User {
	hash, err := e.hasher.Hash(password)
	if err != nil {
		panic(err)
	}
	return e.store.put(&domain.User{
		Name:         strings.ToUpper(username[:1]) + username[1:],
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
	})
}
