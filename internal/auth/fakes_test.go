// AngelaMos | 2026
// fakes_test.go

package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/learnhub/internal/config"
	"github.com/carterperez-dev/learnhub/internal/core"
	"github.com/carterperez-dev/learnhub/internal/notify"
)

const (
	testSecret      = "test-secret-0123456789abcdef-0123456789"
	testMaxAttempts = 5
)

type memoryUsers struct {
	mu       sync.Mutex
	users    map[string]*UserInfo
	attempts map[string]int
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{
		users:    make(map[string]*UserInfo),
		attempts: make(map[string]int),
	}
}

func (m *memoryUsers) clone(u *UserInfo) *UserInfo {
	c := *u
	if u.ResetCodeHash != nil {
		h := *u.ResetCodeHash
		c.ResetCodeHash = &h
	}
	if u.ResetCodeExpiresAt != nil {
		e := *u.ResetCodeExpiresAt
		c.ResetCodeExpiresAt = &e
	}
	return &c
}

func (m *memoryUsers) GetByEmail(_ context.Context, email string) (*UserInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range m.users {
		if u.Email == email {
			return m.clone(u), nil
		}
	}
	return nil, core.ErrNotFound
}

func (m *memoryUsers) GetByID(_ context.Context, id string) (*UserInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	return m.clone(u), nil
}

func (m *memoryUsers) Create(
	_ context.Context,
	email, passwordHash, name string,
) (*UserInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range m.users {
		if u.Email == email {
			return nil, core.ErrDuplicateKey
		}
	}
	u := &UserInfo{
		ID:           uuid.New().String(),
		Email:        email,
		Name:         name,
		PasswordHash: passwordHash,
		Role:         "student",
		CreatedAt:    time.Now(),
	}
	m.users[u.ID] = u
	return m.clone(u), nil
}

func (m *memoryUsers) UpdatePassword(_ context.Context, id, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return core.ErrNotFound
	}
	u.PasswordHash = hash
	return nil
}

func (m *memoryUsers) SetResetCode(
	_ context.Context,
	id, codeHash string,
	expiresAt time.Time,
) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return core.ErrNotFound
	}
	u.ResetCodeHash = &codeHash
	u.ResetCodeExpiresAt = &expiresAt
	m.attempts[id] = 0
	return nil
}

func (m *memoryUsers) ConsumeResetCode(
	_ context.Context,
	id, codeHash, passwordHash string,
	now time.Time,
) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok || u.ResetCodeHash == nil || *u.ResetCodeHash != codeHash ||
		u.ResetCodeExpiresAt.Before(now) {
		return false, nil
	}
	u.PasswordHash = passwordHash
	u.ResetCodeHash = nil
	u.ResetCodeExpiresAt = nil
	m.attempts[id] = 0
	return true, nil
}

func (m *memoryUsers) RecordResetCodeFailure(
	_ context.Context,
	id, codeHash string,
	maxAttempts int,
) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok || u.ResetCodeHash == nil || *u.ResetCodeHash != codeHash {
		return false, nil
	}
	m.attempts[id]++
	if m.attempts[id] < maxAttempts {
		return false, nil
	}
	u.ResetCodeHash = nil
	u.ResetCodeExpiresAt = nil
	return true, nil
}

func (m *memoryUsers) failedAttempts(id string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.attempts[id]
}

func (m *memoryUsers) ClearResetCode(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return core.ErrNotFound
	}
	u.ResetCodeHash = nil
	u.ResetCodeExpiresAt = nil
	m.attempts[id] = 0
	return nil
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []notify.Message
	err  error
}

func (n *recordingNotifier) Send(_ context.Context, msg notify.Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, msg)
	return nil
}

func (n *recordingNotifier) last() notify.Message {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.sent[len(n.sent)-1]
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            testSecret,
		AccessTokenExpire: 24 * time.Hour,
		ResetTokenExpire:  15 * time.Minute,
		Issuer:            "learnhub",
		Audience:          "learnhub-api",
	}
}

type fixture struct {
	users    *memoryUsers
	notifier *recordingNotifier
	clock    *testClock
	tokens   *TokenService
	service  *Service
	reset    *ResetFlow
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	clock := &testClock{now: time.Now()}
	tokens, err := NewTokenService(testJWTConfig(), WithClock(clock.Now))
	require.NoError(t, err)

	users := newMemoryUsers()
	notifier := &recordingNotifier{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	reset := NewResetFlow(users, tokens, notifier, logger, ResetFlowConfig{
		CodeTTL:     15 * time.Minute,
		MaxAttempts: testMaxAttempts,
		ResetLink: func(token string) string {
			return "https://learn.example.com/reset-password?token=" + token
		},
		Now: clock.Now,
	})

	return &fixture{
		users:    users,
		notifier: notifier,
		clock:    clock,
		tokens:   tokens,
		service:  NewService(tokens, users),
		reset:    reset,
	}
}

func (f *fixture) register(t *testing.T, email, password string) *AuthResponse {
	t.Helper()
	resp, err := f.service.Register(context.Background(), RegisterRequest{
		Email:    email,
		Password: password,
		Name:     "Test Student",
	})
	require.NoError(t, err)
	return resp
}

var errBroker = errors.New("broker unavailable")
