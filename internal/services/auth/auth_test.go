package auth

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/instagrowth/credit-service/internal/lib/jwt"
	"github.com/instagrowth/credit-service/internal/lib/password"
	"github.com/instagrowth/credit-service/internal/models"
	"github.com/instagrowth/credit-service/internal/ratelimit"
)

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) RegisterUser(ctx context.Context, user models.User) (string, error) {
	args := m.Called(ctx, user)
	return args.String(0), args.Error(1)
}

func (m *MockUserRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

// memBlocker простая блокировка адресов в памяти для тестов.
type memBlocker struct {
	mu      sync.Mutex
	blocked map[string]bool
}

func newMemBlocker() *memBlocker {
	return &memBlocker{blocked: make(map[string]bool)}
}

func (b *memBlocker) IsBlocked(_ context.Context, key string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.blocked[key], nil
}

func (b *memBlocker) Block(_ context.Context, key string, _ time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.blocked[key] = true
	return nil
}

func noopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newService(users *MockUserRepository, limit int) (*Service, *memBlocker) {
	blocker := newMemBlocker()
	svc := New(
		users,
		jwt.NewJWTMaker("test-secret", time.Hour),
		ratelimit.NewMemoryWindow(limit, 5*time.Minute),
		blocker,
		time.Hour,
		noopLogger(),
	)
	return svc, blocker
}

func TestRegister(t *testing.T) {
	users := new(MockUserRepository)
	svc, _ := newService(users, 5)
	ctx := context.Background()

	users.On("RegisterUser", ctx, mock.MatchedBy(func(u models.User) bool {
		return u.Email == "new@example.com" &&
			u.Username == "newuser" &&
			u.Role == "user" &&
			u.Plan == "free" &&
			password.CompareHash(u.PasswordHash, "secret123") == nil
	})).Return("uid-new", nil).Once()

	uid, err := svc.Register(ctx, models.RegisterRequest{
		Email:    "new@example.com",
		Username: "newuser",
		Password: "secret123",
	})
	require.NoError(t, err)
	assert.Equal(t, "uid-new", uid)
	users.AssertExpectations(t)
}

func TestLogin_Success(t *testing.T) {
	users := new(MockUserRepository)
	svc, _ := newService(users, 5)
	ctx := context.Background()

	hash, err := password.GetHash("secret123")
	require.NoError(t, err)
	users.On("GetUserByUsername", ctx, "alice").Return(&models.User{
		UID:          "uid-1",
		Username:     "alice",
		PasswordHash: hash,
		Role:         "user",
	}, nil).Once()

	result, err := svc.Login(ctx, "10.0.0.1", models.LoginRequest{
		Username: "alice",
		Password: "secret123",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
	assert.Equal(t, "user", result.Role)
	assert.Equal(t, "alice", result.Username)

	claims, err := jwt.NewJWTMaker("test-secret", time.Hour).ParseToken(result.Token)
	require.NoError(t, err)
	assert.Equal(t, "uid-1", claims.UserUID)
}

func TestLogin_WrongPassword(t *testing.T) {
	users := new(MockUserRepository)
	svc, _ := newService(users, 5)
	ctx := context.Background()

	hash, err := password.GetHash("secret123")
	require.NoError(t, err)
	users.On("GetUserByUsername", ctx, "alice").Return(&models.User{
		UID:          "uid-1",
		Username:     "alice",
		PasswordHash: hash,
	}, nil).Once()

	_, err = svc.Login(ctx, "10.0.0.1", models.LoginRequest{
		Username: "alice",
		Password: "wrong",
	})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_UnknownUser(t *testing.T) {
	users := new(MockUserRepository)
	svc, _ := newService(users, 5)
	ctx := context.Background()

	users.On("GetUserByUsername", ctx, "ghost").Return(nil, ErrInvalidCredentials).Once()

	_, err := svc.Login(ctx, "10.0.0.1", models.LoginRequest{
		Username: "ghost",
		Password: "whatever",
	})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_SuccessResetsAttemptWindow(t *testing.T) {
	users := new(MockUserRepository)
	svc, _ := newService(users, 2)
	ctx := context.Background()

	hash, err := password.GetHash("secret123")
	require.NoError(t, err)
	users.On("GetUserByUsername", ctx, "alice").Return(&models.User{
		UID:          "uid-1",
		Username:     "alice",
		PasswordHash: hash,
	}, nil)

	_, err = svc.Login(ctx, "10.0.0.1", models.LoginRequest{Username: "alice", Password: "wrong"})
	require.ErrorIs(t, err, ErrInvalidCredentials)

	// успешный вход очищает окно попыток
	_, err = svc.Login(ctx, "10.0.0.1", models.LoginRequest{Username: "alice", Password: "secret123"})
	require.NoError(t, err)

	// без очистки третья попытка исчерпала бы окно и заблокировала адрес
	for range 2 {
		_, err := svc.Login(ctx, "10.0.0.1", models.LoginRequest{Username: "alice", Password: "wrong"})
		require.ErrorIs(t, err, ErrInvalidCredentials)
	}

	_, err = svc.Login(ctx, "10.0.0.1", models.LoginRequest{Username: "alice", Password: "secret123"})
	assert.ErrorIs(t, err, ErrTooManyAttempts)
}

func TestLogin_BlocksIPAfterTooManyAttempts(t *testing.T) {
	users := new(MockUserRepository)
	svc, blocker := newService(users, 2)
	ctx := context.Background()

	hash, err := password.GetHash("secret123")
	require.NoError(t, err)
	users.On("GetUserByUsername", ctx, "alice").Return(&models.User{
		UID:          "uid-1",
		Username:     "alice",
		PasswordHash: hash,
	}, nil)

	for range 2 {
		_, err := svc.Login(ctx, "10.0.0.1", models.LoginRequest{Username: "alice", Password: "wrong"})
		require.ErrorIs(t, err, ErrInvalidCredentials)
	}

	// третья попытка исчерпывает окно и блокирует адрес
	_, err = svc.Login(ctx, "10.0.0.1", models.LoginRequest{Username: "alice", Password: "secret123"})
	require.ErrorIs(t, err, ErrTooManyAttempts)

	blocked, err := blocker.IsBlocked(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, blocked)

	// заблокированный адрес получает отказ даже с верным паролем
	_, err = svc.Login(ctx, "10.0.0.1", models.LoginRequest{Username: "alice", Password: "secret123"})
	assert.ErrorIs(t, err, ErrTooManyAttempts)

	// другой адрес не затронут
	result, err := svc.Login(ctx, "10.0.0.2", models.LoginRequest{Username: "alice", Password: "secret123"})
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
}
