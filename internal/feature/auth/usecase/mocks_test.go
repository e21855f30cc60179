package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"natours_backend/internal/feature/auth/domain/entity"
	"natours_backend/internal/platform/password"
)

// memUserRepository is an in-memory UserRepository used by the flow tests.
type memUserRepository struct {
	mu    sync.Mutex
	users map[string]entity.User

	// CreateErr and UpdateErr, when set, are returned instead of writing.
	CreateErr error
	UpdateErr error
}

func newMemUserRepository() *memUserRepository {
	return &memUserRepository{users: map[string]entity.User{}}
}

func (m *memUserRepository) Create(_ context.Context, u *entity.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateErr != nil {
		return m.CreateErr
	}
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return ErrEmailAlreadyExists
		}
	}
	m.users[u.ID] = *u
	return nil
}

func (m *memUserRepository) Update(_ context.Context, u *entity.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.UpdateErr != nil {
		return m.UpdateErr
	}
	for id, existing := range m.users {
		if id != u.ID && existing.Email == u.Email {
			return ErrEmailAlreadyExists
		}
	}
	m.users[u.ID] = *u
	return nil
}

func (m *memUserRepository) FindByID(_ context.Context, id string, includeInactive bool) (*entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok || (!u.Active && !includeInactive) {
		return nil, ErrUserNotFound
	}
	return &u, nil
}

func (m *memUserRepository) FindByEmail(_ context.Context, email string, includeInactive bool) (*entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email && (u.Active || includeInactive) {
			return &u, nil
		}
	}
	return nil, ErrUserNotFound
}

func (m *memUserRepository) FindByResetTokenHash(_ context.Context, hash string) (*entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Active && u.PasswordResetTokenHash != nil && *u.PasswordResetTokenHash == hash {
			return &u, nil
		}
	}
	return nil, ErrUserNotFound
}

func (m *memUserRepository) ConsumeResetToken(_ context.Context, id, hash string, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok || !u.Active || u.PasswordResetTokenHash == nil || *u.PasswordResetTokenHash != hash ||
		u.PasswordResetExpires == nil || !now.Before(*u.PasswordResetExpires) {
		return ErrResetTokenUnavailable
	}
	u.ClearReset()
	m.users[id] = u
	return nil
}

func (m *memUserRepository) List(_ context.Context) ([]entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]entity.User, 0, len(m.users))
	for _, u := range m.users {
		if u.Active {
			out = append(out, u)
		}
	}
	return out, nil
}

// mockTokenIssuer is a mock implementation of TokenIssuer.
type mockTokenIssuer struct {
	IssueFunc func(userID string) (string, error)
}

func (m *mockTokenIssuer) Issue(userID string) (string, error) {
	if m.IssueFunc != nil {
		return m.IssueFunc(userID)
	}
	return "token-for-" + userID, nil
}

// mockMailer records reset mails.
type mockMailer struct {
	SendFunc func(ctx context.Context, to, name, resetURL string) error

	mu   sync.Mutex
	sent []string
}

func (m *mockMailer) SendPasswordReset(ctx context.Context, to, name, resetURL string) error {
	m.mu.Lock()
	m.sent = append(m.sent, resetURL)
	m.mu.Unlock()
	if m.SendFunc != nil {
		return m.SendFunc(ctx, to, name, resetURL)
	}
	return nil
}

// testClock is a settable time source.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)}
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

func newTestStore(t *testing.T, repo UserRepository, clock *testClock) *CredentialStore {
	t.Helper()
	return NewCredentialStore(repo, password.NewBcryptHasher(bcrypt.MinCost), WithStoreClock(clock.Now))
}

func validSignup() SignupInput {
	return SignupInput{
		Name:            "Ann",
		Email:           "a@x.io",
		Password:        "pass1234",
		PasswordConfirm: "pass1234",
	}
}
