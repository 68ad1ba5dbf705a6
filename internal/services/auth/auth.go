// Package auth реализует регистрацию и вход пользователей с выдачей JWT.
// Попытки входа ограничены скользящим окном по IP, при переборе адрес
// блокируется на заданный срок.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/instagrowth/credit-service/internal/lib/jwt"
	"github.com/instagrowth/credit-service/internal/lib/password"
	"github.com/instagrowth/credit-service/internal/lib/sl"
	"github.com/instagrowth/credit-service/internal/models"
)

// ErrInvalidCredentials возвращается при неверной паре логин/пароль.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrTooManyAttempts возвращается, когда IP заблокирован за перебор паролей.
var ErrTooManyAttempts = errors.New("too many login attempts")

// RegisterPlan тарифный план новых пользователей.
const RegisterPlan = "free"

// UserRepository определяет методы для работы с пользователями в хранилище.
type UserRepository interface {
	RegisterUser(ctx context.Context, user models.User) (string, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
}

// AttemptWindow окно попыток входа по IP. Успешный вход очищает окно,
// чтобы старые неудачные попытки не копились до блокировки.
type AttemptWindow interface {
	Allow(ctx context.Context, key string) (bool, error)
	Reset(ctx context.Context, key string) error
}

// Blocker блокирует IP-адреса на заданный срок.
type Blocker interface {
	IsBlocked(ctx context.Context, key string) (bool, error)
	Block(ctx context.Context, key string, ttl time.Duration) error
}

// LoginResult результат успешного входа.
type LoginResult struct {
	Token    string
	Role     string
	Username string
}

// Service реализует бизнес-логику регистрации и входа.
type Service struct {
	users         UserRepository
	jwtMaker      jwt.Maker
	limiter       AttemptWindow
	blocker       Blocker
	blockDuration time.Duration
	log           *slog.Logger
}

// New создает новый экземпляр Service.
func New(users UserRepository, jwtMaker jwt.Maker, limiter AttemptWindow, blocker Blocker, blockDuration time.Duration, log *slog.Logger) *Service {
	return &Service{
		users:         users,
		jwtMaker:      jwtMaker,
		limiter:       limiter,
		blocker:       blocker,
		blockDuration: blockDuration,
		log:           log,
	}
}

// Register создает нового пользователя с ролью user на бесплатном плане
// и возвращает его UID.
func (s *Service) Register(ctx context.Context, req models.RegisterRequest) (string, error) {
	const op = "auth.Register"

	hash, err := password.GetHash(req.Password)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	uid, err := s.users.RegisterUser(ctx, models.User{
		Email:        req.Email,
		Username:     req.Username,
		PasswordHash: hash,
		Role:         "user",
		Plan:         RegisterPlan,
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("user registered", slog.String("username", req.Username))
	return uid, nil
}

// Login проверяет учетные данные и выдает JWT. Перед проверкой пароля
// применяется окно попыток по IP: исчерпание окна блокирует адрес
// на blockDuration, заблокированный адрес получает отказ сразу.
// Успешный вход очищает окно для адреса.
func (s *Service) Login(ctx context.Context, ip string, req models.LoginRequest) (*LoginResult, error) {
	const op = "auth.Login"

	blocked, err := s.blocker.IsBlocked(ctx, ip)
	if err != nil {
		s.log.Warn("blocklist unavailable", sl.Err(err))
	} else if blocked {
		return nil, fmt.Errorf("%s: %w", op, ErrTooManyAttempts)
	}

	allowed, err := s.limiter.Allow(ctx, ip)
	if err != nil {
		s.log.Warn("login limiter unavailable, allowing attempt", sl.Err(err))
	} else if !allowed {
		if err := s.blocker.Block(ctx, ip, s.blockDuration); err != nil {
			s.log.Warn("failed to block ip", slog.String("ip", ip), sl.Err(err))
		}
		s.log.Info("ip blocked for login attempts", slog.String("ip", ip))
		return nil, fmt.Errorf("%s: %w", op, ErrTooManyAttempts)
	}

	user, err := s.users.GetUserByUsername(ctx, req.Username)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}
	if err := password.CompareHash(user.PasswordHash, req.Password); err != nil {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	if err := s.limiter.Reset(ctx, ip); err != nil {
		s.log.Warn("failed to reset login attempt window", slog.String("ip", ip), sl.Err(err))
	}

	token, err := s.jwtMaker.GenerateToken(user.UID, user.Username, user.Role)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("login success", slog.String("username", user.Username))
	return &LoginResult{
		Token:    token,
		Role:     user.Role,
		Username: user.Username,
	}, nil
}
