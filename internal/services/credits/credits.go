// Package credits содержит бизнес-логику кредитного счета: ленивую
// инициализацию, месячный сброс, списание, ручное начисление и пересчет
// квоты при смене плана.
package credits

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/instagrowth/credit-service/internal/lib/cycle"
	"github.com/instagrowth/credit-service/internal/lib/sl"
	"github.com/instagrowth/credit-service/internal/models"
	"github.com/instagrowth/credit-service/internal/plans"
	"github.com/instagrowth/credit-service/internal/storage/repository"
)

// InsufficientCreditsError возвращается при нехватке остатка на списание.
// Содержит данные для ответа 402: сколько нужно и сколько осталось.
type InsufficientCreditsError struct {
	Feature   string
	Required  int
	Remaining int
}

func (e *InsufficientCreditsError) Error() string {
	return fmt.Sprintf("insufficient credits for %s: required %d, remaining %d",
		e.Feature, e.Required, e.Remaining)
}

// lowCreditsThreshold порог остатка в процентах от квоты, ниже которого
// отправляется уведомление.
const lowCreditsThreshold = 20

// cacheTTL время жизни кешированного снимка счета.
const cacheTTL = 5 * time.Minute

// CreditRepository определяет методы для работы с кредитными счетами в хранилище.
type CreditRepository interface {
	GetAccount(ctx context.Context, userUID string) (*models.CreditAccount, error)
	CreateAccount(ctx context.Context, userUID string, total int, resetDate time.Time) error
	ResetAccount(ctx context.Context, userUID string, total int, nextReset time.Time) (int, error)
	DebitIfEnough(ctx context.Context, userUID, feature string, cost int) (bool, error)
	AddExtraCredits(ctx context.Context, userUID string, amount int, reason string, total int, resetDate time.Time) error
	Reprice(ctx context.Context, userUID string, newTotal int) (int, error)
	ListUsage(ctx context.Context, userUID string, limit int) ([]*models.UsageRecord, error)
	ListAdditions(ctx context.Context, userUID string, limit int) ([]*models.CreditAddition, error)
	FindLowCreditAccounts(ctx context.Context) ([]*models.LowCreditsEvent, error)
}

// UserRepository определяет методы для работы с пользователями в хранилище.
type UserRepository interface {
	GetUser(ctx context.Context, userUID string) (*models.User, error)
	UpdateUserPlan(ctx context.Context, userUID, plan string) error
}

// Cache описывает методы для кэширования снимков счета.
type Cache interface {
	Get(key string, result any) (bool, error)
	Set(key string, value any, expiration time.Duration) error
	Invalidate(key string) error
}

// Notifier отправляет уведомление о низком остатке кредитов.
// Ошибка отправки логируется и никогда не влияет на результат списания.
type Notifier interface {
	NotifyLowCredits(ctx context.Context, event models.LowCreditsEvent) error
}

// CreditService реализует бизнес-логику кредитного счета.
type CreditService struct {
	repo     CreditRepository
	users    UserRepository
	cache    Cache
	notifier Notifier
	log      *slog.Logger
	now      func() time.Time
}

// NewCreditService создает новый экземпляр CreditService.
func NewCreditService(repo CreditRepository, users UserRepository, cache Cache, notifier Notifier, log *slog.Logger) *CreditService {
	return &CreditService{
		repo:     repo,
		users:    users,
		cache:    cache,
		notifier: notifier,
		log:      log,
		now:      time.Now,
	}
}

func cacheKey(userUID string) string {
	return fmt.Sprintf("credits:%s", userUID)
}

// planAllowance возвращает месячную квоту кредитов пользователя.
// Для отсутствующего пользователя используется план по умолчанию.
func (s *CreditService) planAllowance(ctx context.Context, userUID string) int {
	user, err := s.users.GetUser(ctx, userUID)
	if err != nil {
		if !errors.Is(err, repository.ErrUserNotFound) {
			s.log.Warn("failed to resolve user plan", sl.Err(err))
		}
		return plans.Allowance(plans.DefaultPlan)
	}
	return plans.Allowance(user.Plan)
}

// GetOrInit возвращает счет пользователя, создавая его при первом обращении
// с квотой, соответствующей тарифному плану.
func (s *CreditService) GetOrInit(ctx context.Context, userUID string) (*models.CreditAccount, error) {
	var cached models.CreditAccount
	found, err := s.cache.Get(cacheKey(userUID), &cached)
	if err != nil {
		s.log.Warn("failed to read account from cache", sl.Err(err))
	}
	if found {
		return &cached, nil
	}

	acc, err := s.repo.GetAccount(ctx, userUID)
	if errors.Is(err, repository.ErrAccountNotFound) {
		total := s.planAllowance(ctx, userUID)
		if err := s.repo.CreateAccount(ctx, userUID, total, cycle.NextResetDate(s.now())); err != nil {
			return nil, err
		}
		acc, err = s.repo.GetAccount(ctx, userUID)
	}
	if err != nil {
		return nil, err
	}

	s.updateCache(acc)
	return acc, nil
}

// MaybeReset проверяет дату сброса и при наступлении выполняет месячный
// сброс счета. До даты сброса операция — чтение без побочных эффектов.
func (s *CreditService) MaybeReset(ctx context.Context, userUID string) (*models.CreditAccount, error) {
	acc, err := s.GetOrInit(ctx, userUID)
	if err != nil {
		return nil, err
	}
	if !cycle.IsDue(acc.ResetDate, s.now()) {
		return acc, nil
	}

	total := s.planAllowance(ctx, userUID)
	if _, err := s.repo.ResetAccount(ctx, userUID, total, cycle.NextResetDate(s.now())); err != nil {
		return nil, err
	}
	s.log.Info("credit account reset", slog.String("user_uid", userUID), slog.Int("total", total))

	acc, err = s.repo.GetAccount(ctx, userUID)
	if err != nil {
		return nil, err
	}
	s.updateCache(acc)
	return acc, nil
}

// Debit списывает кредиты за вызов функции. Стоимость берется из таблицы
// тарифов, если явная сумма не задана. При нехватке остатка возвращается
// InsufficientCreditsError без каких-либо изменений счета; отказ всегда
// решается по данным хранилища, а не по кешированному снимку. Успешное
// списание ниже порога в 20% квоты асинхронно отправляет уведомление;
// сбой уведомления на результат не влияет.
func (s *CreditService) Debit(ctx context.Context, userUID, feature string, amount int) (*models.CreditAccount, error) {
	cost := amount
	if cost <= 0 {
		cost = plans.Cost(feature)
	}

	acc, err := s.MaybeReset(ctx, userUID)
	if err != nil {
		return nil, err
	}
	if acc.RemainingCredits < cost {
		// снимок мог прийти из устаревшего кеша, перечитываем счет
		fresh, err := s.repo.GetAccount(ctx, userUID)
		if err != nil {
			return nil, err
		}
		s.updateCache(fresh)
		acc = fresh
	}
	if acc.RemainingCredits < cost {
		return nil, &InsufficientCreditsError{
			Feature:   feature,
			Required:  cost,
			Remaining: acc.RemainingCredits,
		}
	}

	ok, err := s.repo.DebitIfEnough(ctx, userUID, feature, cost)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Конкурентное списание опередило нас после проверки остатка.
		fresh, ferr := s.repo.GetAccount(ctx, userUID)
		remaining := 0
		if ferr == nil {
			remaining = fresh.RemainingCredits
		}
		return nil, &InsufficientCreditsError{
			Feature:   feature,
			Required:  cost,
			Remaining: remaining,
		}
	}

	updated, err := s.repo.GetAccount(ctx, userUID)
	if err != nil {
		return nil, err
	}
	s.updateCache(updated)
	s.log.Info("credits debited",
		slog.String("user_uid", userUID),
		slog.String("feature", feature),
		slog.Int("cost", cost),
		slog.Int("remaining", updated.RemainingCredits))

	if s.isLowBalance(updated) {
		go s.sendLowCreditsAlert(userUID, updated)
	}
	return updated, nil
}

// isLowBalance сообщает, опустился ли остаток ниже порога уведомления,
// оставаясь при этом положительным.
func (s *CreditService) isLowBalance(acc *models.CreditAccount) bool {
	if acc.TotalCredits <= 0 || acc.RemainingCredits <= 0 {
		return false
	}
	return acc.RemainingCredits*100 < acc.TotalCredits*lowCreditsThreshold
}

// sendLowCreditsAlert отправляет уведомление о низком остатке.
// Вызывается в отдельной горутине; любая ошибка только логируется.
func (s *CreditService) sendLowCreditsAlert(userUID string, acc *models.CreditAccount) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	user, err := s.users.GetUser(ctx, userUID)
	if err != nil {
		s.log.Warn("failed to resolve user for low credits alert", sl.Err(err))
		return
	}

	event := models.LowCreditsEvent{
		Email:     user.Email,
		Username:  user.Username,
		Remaining: acc.RemainingCredits,
		Used:      acc.UsedCredits,
		Total:     acc.TotalCredits,
		ResetDate: acc.ResetDate,
	}
	if err := s.notifier.NotifyLowCredits(ctx, event); err != nil {
		s.log.Warn("failed to send low credits alert", sl.Err(err))
		return
	}
	s.log.Info("low credits alert sent", slog.String("user_uid", userUID),
		slog.Int("remaining", acc.RemainingCredits))
}

// Credit начисляет бонусные кредиты. ExtraCredits и RemainingCredits растут
// на amount, запись добавляется в журнал начислений; счет создается, если
// его еще нет.
func (s *CreditService) Credit(ctx context.Context, userUID string, amount int, reason string) (*models.CreditAccount, error) {
	total := s.planAllowance(ctx, userUID)
	if err := s.repo.AddExtraCredits(ctx, userUID, amount, reason, total, cycle.NextResetDate(s.now())); err != nil {
		return nil, err
	}
	s.log.Info("extra credits granted",
		slog.String("user_uid", userUID),
		slog.Int("amount", amount),
		slog.String("reason", reason))

	acc, err := s.repo.GetAccount(ctx, userUID)
	if err != nil {
		return nil, err
	}
	s.updateCache(acc)
	return acc, nil
}

// Reprice пересчитывает квоту при смене тарифного плана, сохраняя
// списанные в текущем цикле кредиты.
func (s *CreditService) Reprice(ctx context.Context, userUID, newPlan string) (*models.CreditAccount, error) {
	if err := s.users.UpdateUserPlan(ctx, userUID, newPlan); err != nil {
		return nil, err
	}
	if _, err := s.GetOrInit(ctx, userUID); err != nil {
		return nil, err
	}
	if _, err := s.repo.Reprice(ctx, userUID, plans.Allowance(newPlan)); err != nil {
		return nil, err
	}
	s.log.Info("credit account repriced",
		slog.String("user_uid", userUID),
		slog.String("plan", newPlan))

	acc, err := s.repo.GetAccount(ctx, userUID)
	if err != nil {
		return nil, err
	}
	s.updateCache(acc)
	return acc, nil
}

// SweepLowCredits находит все счета с остатком ниже порога и отправляет
// уведомление по каждому. Возвращает число отправленных уведомлений;
// сбой отдельного уведомления пропускает счет, но не прерывает обход.
func (s *CreditService) SweepLowCredits(ctx context.Context) (int, error) {
	const op = "credits.SweepLowCredits"

	events, err := s.repo.FindLowCreditAccounts(ctx)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	sent := 0
	for _, ev := range events {
		if err := s.notifier.NotifyLowCredits(ctx, *ev); err != nil {
			s.log.Warn("failed to send low credits alert",
				slog.String("email", ev.Email), sl.Err(err))
			continue
		}
		sent++
	}

	s.log.Info("low credits sweep finished",
		slog.Int("found", len(events)), slog.Int("sent", sent))
	return sent, nil
}

// History возвращает журнал списаний пользователя, новые записи первыми.
func (s *CreditService) History(ctx context.Context, userUID string, limit int) ([]*models.UsageRecord, error) {
	return s.repo.ListUsage(ctx, userUID, limit)
}

// Costs возвращает статические таблицы тарифов для отображения клиенту.
func (s *CreditService) Costs() map[string]any {
	return map[string]any{
		"costs":            plans.FeatureCosts,
		"plan_allocations": plans.CreditAllowances,
	}
}

func (s *CreditService) updateCache(acc *models.CreditAccount) {
	key := cacheKey(acc.UserUID)
	if err := s.cache.Set(key, acc, cacheTTL); err != nil {
		s.log.Warn("failed to cache credit account", slog.String("key", key), sl.Err(err))
	}
}
