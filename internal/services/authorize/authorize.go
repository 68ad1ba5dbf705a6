// Package authorize принимает единое решение о допуске AI-запроса:
// частота запросов, месячный потолок операций плана и остаток кредитов
// проверяются в одном месте и в одном порядке.
package authorize

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/instagrowth/credit-service/internal/lib/sl"
	"github.com/instagrowth/credit-service/internal/models"
	"github.com/instagrowth/credit-service/internal/plans"
	"github.com/instagrowth/credit-service/internal/ratelimit"
)

// Status результат проверки допуска.
type Status int

const (
	// Allowed запрос можно выполнять.
	Allowed Status = iota
	// RateLimited превышена частота запросов в скользящем окне.
	RateLimited
	// QuotaExceeded исчерпан месячный потолок AI-операций плана.
	QuotaExceeded
	// InsufficientCredits не хватает кредитов на вызов функции.
	InsufficientCredits
)

// Decision решение о допуске. Для InsufficientCredits заполнены
// Required и Remaining.
type Decision struct {
	Status    Status
	Required  int
	Remaining int
}

// AccountReader дает доступ к счету с учетом месячного сброса.
type AccountReader interface {
	MaybeReset(ctx context.Context, userUID string) (*models.CreditAccount, error)
}

// UserStore дает доступ к пользователю и его счетчику AI-операций.
type UserStore interface {
	GetUser(ctx context.Context, userUID string) (*models.User, error)
	IncrementAIUsage(ctx context.Context, userUID string) error
}

// Service реализует единую проверку допуска AI-запросов.
type Service struct {
	limiter  ratelimit.Limiter
	users    UserStore
	accounts AccountReader
	log      *slog.Logger
}

// New создает новый экземпляр Service.
func New(limiter ratelimit.Limiter, users UserStore, accounts AccountReader, log *slog.Logger) *Service {
	return &Service{
		limiter:  limiter,
		users:    users,
		accounts: accounts,
		log:      log,
	}
}

// Authorize проверяет допуск запроса в порядке: частота, потолок операций,
// остаток кредитов. Проверка ничего не списывает и не инкрементирует,
// реальное списание выполняется после успешной генерации.
// Недоступность лимитера не блокирует запрос.
func (s *Service) Authorize(ctx context.Context, userUID, feature string) (Decision, error) {
	const op = "authorize.Authorize"

	allowed, err := s.limiter.Allow(ctx, userUID)
	if err != nil {
		s.log.Warn("rate limiter unavailable, allowing request", sl.Err(err))
	} else if !allowed {
		return Decision{Status: RateLimited}, nil
	}

	user, err := s.users.GetUser(ctx, userUID)
	if err != nil {
		return Decision{}, fmt.Errorf("%s: %w", op, err)
	}
	if user.AIUsageCurrent >= plans.UsageLimit(user.Plan) {
		return Decision{Status: QuotaExceeded}, nil
	}

	acc, err := s.accounts.MaybeReset(ctx, userUID)
	if err != nil {
		return Decision{}, fmt.Errorf("%s: %w", op, err)
	}
	cost := plans.Cost(feature)
	if acc.RemainingCredits < cost {
		return Decision{
			Status:    InsufficientCredits,
			Required:  cost,
			Remaining: acc.RemainingCredits,
		}, nil
	}

	return Decision{Status: Allowed, Required: cost, Remaining: acc.RemainingCredits}, nil
}

// IncrementUsage увеличивает месячный счетчик AI-операций после успешного
// запроса. Ошибка логируется и не прерывает обработку.
func (s *Service) IncrementUsage(ctx context.Context, userUID string) {
	if err := s.users.IncrementAIUsage(ctx, userUID); err != nil {
		s.log.Warn("failed to increment ai usage",
			slog.String("user_uid", userUID), sl.Err(err))
	}
}
