package credits

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/instagrowth/credit-service/internal/models"
	"github.com/instagrowth/credit-service/internal/storage/repository"
)

type MockCreditRepository struct {
	mock.Mock
}

func (m *MockCreditRepository) GetAccount(ctx context.Context, userUID string) (*models.CreditAccount, error) {
	args := m.Called(ctx, userUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CreditAccount), args.Error(1)
}

func (m *MockCreditRepository) CreateAccount(ctx context.Context, userUID string, total int, resetDate time.Time) error {
	args := m.Called(ctx, userUID, total, resetDate)
	return args.Error(0)
}

func (m *MockCreditRepository) ResetAccount(ctx context.Context, userUID string, total int, nextReset time.Time) (int, error) {
	args := m.Called(ctx, userUID, total, nextReset)
	return args.Int(0), args.Error(1)
}

func (m *MockCreditRepository) DebitIfEnough(ctx context.Context, userUID, feature string, cost int) (bool, error) {
	args := m.Called(ctx, userUID, feature, cost)
	return args.Bool(0), args.Error(1)
}

func (m *MockCreditRepository) AddExtraCredits(ctx context.Context, userUID string, amount int, reason string, total int, resetDate time.Time) error {
	args := m.Called(ctx, userUID, amount, reason, total, resetDate)
	return args.Error(0)
}

func (m *MockCreditRepository) Reprice(ctx context.Context, userUID string, newTotal int) (int, error) {
	args := m.Called(ctx, userUID, newTotal)
	return args.Int(0), args.Error(1)
}

func (m *MockCreditRepository) ListUsage(ctx context.Context, userUID string, limit int) ([]*models.UsageRecord, error) {
	args := m.Called(ctx, userUID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.UsageRecord), args.Error(1)
}

func (m *MockCreditRepository) ListAdditions(ctx context.Context, userUID string, limit int) ([]*models.CreditAddition, error) {
	args := m.Called(ctx, userUID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.CreditAddition), args.Error(1)
}

func (m *MockCreditRepository) FindLowCreditAccounts(ctx context.Context) ([]*models.LowCreditsEvent, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.LowCreditsEvent), args.Error(1)
}

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetUser(ctx context.Context, userUID string) (*models.User, error) {
	args := m.Called(ctx, userUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) UpdateUserPlan(ctx context.Context, userUID, plan string) error {
	args := m.Called(ctx, userUID, plan)
	return args.Error(0)
}

// MockNotifier закрывает канал done после первого вызова, чтобы тест мог
// дождаться асинхронного уведомления.
type MockNotifier struct {
	mock.Mock
	done chan struct{}
	once sync.Once
}

func NewMockNotifier() *MockNotifier {
	return &MockNotifier{done: make(chan struct{})}
}

func (m *MockNotifier) NotifyLowCredits(ctx context.Context, event models.LowCreditsEvent) error {
	args := m.Called(ctx, event)
	if m.done != nil {
		m.once.Do(func() { close(m.done) })
	}
	return args.Error(0)
}

type fakeCache struct {
	data map[string][]byte
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[string][]byte)}
}

func (c *fakeCache) Get(key string, result any) (bool, error) {
	raw, ok := c.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, result)
}

func (c *fakeCache) Set(key string, value any, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.data[key] = raw
	return nil
}

func (c *fakeCache) Invalidate(key string) error {
	delete(c.data, key)
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(discardWriter{}, nil))
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

const testUID = "8d4f2c1e-1111-2222-3333-444455556666"

func newService(repo *MockCreditRepository, users *MockUserRepository, notifier Notifier) *CreditService {
	if notifier == nil {
		notifier = NewMockNotifier()
	}
	return NewCreditService(repo, users, newFakeCache(), notifier, discardLogger())
}

func futureAccount(remaining, used, total, extra int) *models.CreditAccount {
	return &models.CreditAccount{
		UserUID:          testUID,
		TotalCredits:     total,
		UsedCredits:      used,
		RemainingCredits: remaining,
		ExtraCredits:     extra,
		ResetDate:        time.Now().UTC().AddDate(0, 0, 10),
	}
}

func TestGetOrInit_CreatesAccountLazily(t *testing.T) {
	repo := new(MockCreditRepository)
	users := new(MockUserRepository)
	svc := newService(repo, users, nil)
	ctx := context.Background()

	created := futureAccount(100, 0, 100, 0)
	repo.On("GetAccount", ctx, testUID).Return(nil, repository.ErrAccountNotFound).Once()
	users.On("GetUser", ctx, testUID).Return(&models.User{UID: testUID, Plan: "pro"}, nil).Once()
	repo.On("CreateAccount", ctx, testUID, 100, mock.AnythingOfType("time.Time")).Return(nil).Once()
	repo.On("GetAccount", ctx, testUID).Return(created, nil).Once()

	acc, err := svc.GetOrInit(ctx, testUID)
	require.NoError(t, err)
	assert.Equal(t, 100, acc.TotalCredits)
	assert.Equal(t, 100, acc.RemainingCredits)
	assert.Equal(t, 0, acc.UsedCredits)
	repo.AssertExpectations(t)
	users.AssertExpectations(t)
}

func TestGetOrInit_UnknownUserGetsDefaultPlan(t *testing.T) {
	repo := new(MockCreditRepository)
	users := new(MockUserRepository)
	svc := newService(repo, users, nil)
	ctx := context.Background()

	repo.On("GetAccount", ctx, testUID).Return(nil, repository.ErrAccountNotFound).Once()
	users.On("GetUser", ctx, testUID).Return(nil, repository.ErrUserNotFound).Once()
	// квота плана по умолчанию
	repo.On("CreateAccount", ctx, testUID, 10, mock.AnythingOfType("time.Time")).Return(nil).Once()
	repo.On("GetAccount", ctx, testUID).Return(futureAccount(10, 0, 10, 0), nil).Once()

	acc, err := svc.GetOrInit(ctx, testUID)
	require.NoError(t, err)
	assert.Equal(t, 10, acc.TotalCredits)
	repo.AssertExpectations(t)
}

func TestGetOrInit_ServesFromCache(t *testing.T) {
	repo := new(MockCreditRepository)
	users := new(MockUserRepository)
	svc := newService(repo, users, nil)
	ctx := context.Background()

	repo.On("GetAccount", ctx, testUID).Return(futureAccount(42, 58, 100, 0), nil).Once()

	first, err := svc.GetOrInit(ctx, testUID)
	require.NoError(t, err)

	// второй вызов не трогает хранилище
	second, err := svc.GetOrInit(ctx, testUID)
	require.NoError(t, err)
	assert.Equal(t, first.RemainingCredits, second.RemainingCredits)
	repo.AssertNumberOfCalls(t, "GetAccount", 1)
}

func TestMaybeReset_BeforeDateIsReadOnly(t *testing.T) {
	repo := new(MockCreditRepository)
	users := new(MockUserRepository)
	svc := newService(repo, users, nil)
	ctx := context.Background()

	repo.On("GetAccount", ctx, testUID).Return(futureAccount(3, 7, 10, 0), nil).Once()

	acc, err := svc.MaybeReset(ctx, testUID)
	require.NoError(t, err)
	assert.Equal(t, 3, acc.RemainingCredits)
	repo.AssertNotCalled(t, "ResetAccount", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestMaybeReset_DueDateResetsAccount(t *testing.T) {
	repo := new(MockCreditRepository)
	users := new(MockUserRepository)
	svc := newService(repo, users, nil)
	ctx := context.Background()

	due := &models.CreditAccount{
		UserUID:          testUID,
		TotalCredits:     10,
		UsedCredits:      10,
		RemainingCredits: 2,
		ExtraCredits:     2,
		ResetDate:        time.Now().UTC().AddDate(0, 0, -1),
	}
	after := futureAccount(12, 0, 10, 2)

	repo.On("GetAccount", ctx, testUID).Return(due, nil).Once()
	users.On("GetUser", ctx, testUID).Return(&models.User{UID: testUID, Plan: "starter"}, nil).Once()
	repo.On("ResetAccount", ctx, testUID, 10, mock.AnythingOfType("time.Time")).Return(1, nil).Once()
	repo.On("GetAccount", ctx, testUID).Return(after, nil).Once()

	acc, err := svc.MaybeReset(ctx, testUID)
	require.NoError(t, err)
	assert.Equal(t, 0, acc.UsedCredits)
	// бонусные кредиты переживают сброс
	assert.Equal(t, 2, acc.ExtraCredits)
	assert.Equal(t, 12, acc.RemainingCredits)
	repo.AssertExpectations(t)
}

func TestDebit_CostFromFeatureTable(t *testing.T) {
	repo := new(MockCreditRepository)
	users := new(MockUserRepository)
	svc := newService(repo, users, nil)
	ctx := context.Background()

	repo.On("GetAccount", ctx, testUID).Return(futureAccount(100, 0, 100, 0), nil).Once()
	repo.On("DebitIfEnough", ctx, testUID, "growth_plan", 15).Return(true, nil).Once()
	repo.On("GetAccount", ctx, testUID).Return(futureAccount(85, 15, 100, 0), nil).Once()

	acc, err := svc.Debit(ctx, testUID, "growth_plan", 0)
	require.NoError(t, err)
	assert.Equal(t, 85, acc.RemainingCredits)
	assert.Equal(t, 15, acc.UsedCredits)
	repo.AssertExpectations(t)
}

func TestDebit_ExplicitAmountOverridesTable(t *testing.T) {
	repo := new(MockCreditRepository)
	users := new(MockUserRepository)
	svc := newService(repo, users, nil)
	ctx := context.Background()

	repo.On("GetAccount", ctx, testUID).Return(futureAccount(100, 0, 100, 0), nil).Once()
	repo.On("DebitIfEnough", ctx, testUID, "audit", 3).Return(true, nil).Once()
	repo.On("GetAccount", ctx, testUID).Return(futureAccount(97, 3, 100, 0), nil).Once()

	_, err := svc.Debit(ctx, testUID, "audit", 3)
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestDebit_UnknownFeatureCostsOne(t *testing.T) {
	repo := new(MockCreditRepository)
	users := new(MockUserRepository)
	svc := newService(repo, users, nil)
	ctx := context.Background()

	repo.On("GetAccount", ctx, testUID).Return(futureAccount(10, 0, 10, 0), nil).Once()
	repo.On("DebitIfEnough", ctx, testUID, "mystery", 1).Return(true, nil).Once()
	repo.On("GetAccount", ctx, testUID).Return(futureAccount(9, 1, 10, 0), nil).Once()

	_, err := svc.Debit(ctx, testUID, "mystery", 0)
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestDebit_InsufficientBalanceRejectsWithoutMutation(t *testing.T) {
	repo := new(MockCreditRepository)
	users := new(MockUserRepository)
	svc := newService(repo, users, nil)
	ctx := context.Background()

	// первое чтение наполняет кеш, второе — контрольное перед отказом
	repo.On("GetAccount", ctx, testUID).Return(futureAccount(5, 5, 10, 0), nil).Twice()

	_, err := svc.Debit(ctx, testUID, "audit", 0)
	require.Error(t, err)

	var insufficient *InsufficientCreditsError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, "audit", insufficient.Feature)
	assert.Equal(t, 10, insufficient.Required)
	assert.Equal(t, 5, insufficient.Remaining)
	repo.AssertNotCalled(t, "DebitIfEnough", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestDebit_StaleCacheDoesNotRejectDebit(t *testing.T) {
	repo := new(MockCreditRepository)
	users := new(MockUserRepository)
	svc := newService(repo, users, nil)
	ctx := context.Background()

	// кеш хранит нулевой остаток, хотя в хранилище кредиты есть
	cache := svc.cache.(*fakeCache)
	require.NoError(t, cache.Set(cacheKey(testUID), futureAccount(0, 10, 10, 0), 0))

	repo.On("GetAccount", ctx, testUID).Return(futureAccount(10, 0, 10, 0), nil).Once()
	repo.On("DebitIfEnough", ctx, testUID, "caption", 1).Return(true, nil).Once()
	repo.On("GetAccount", ctx, testUID).Return(futureAccount(9, 1, 10, 0), nil).Once()

	acc, err := svc.Debit(ctx, testUID, "caption", 0)
	require.NoError(t, err)
	assert.Equal(t, 9, acc.RemainingCredits)
	repo.AssertExpectations(t)
}

func TestDebit_StaleCacheRejectionUsesStorageBalance(t *testing.T) {
	repo := new(MockCreditRepository)
	users := new(MockUserRepository)
	svc := newService(repo, users, nil)
	ctx := context.Background()

	// кеш занижает остаток; отказ должен назвать цифру из хранилища
	cache := svc.cache.(*fakeCache)
	require.NoError(t, cache.Set(cacheKey(testUID), futureAccount(0, 10, 10, 0), 0))

	repo.On("GetAccount", ctx, testUID).Return(futureAccount(4, 6, 10, 0), nil).Once()

	_, err := svc.Debit(ctx, testUID, "audit", 0)
	var insufficient *InsufficientCreditsError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 4, insufficient.Remaining)
	repo.AssertNotCalled(t, "DebitIfEnough", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestDebit_ConcurrentLoserGetsInsufficient(t *testing.T) {
	repo := new(MockCreditRepository)
	users := new(MockUserRepository)
	svc := newService(repo, users, nil)
	ctx := context.Background()

	repo.On("GetAccount", ctx, testUID).Return(futureAccount(10, 0, 10, 0), nil).Once()
	// другой запрос списал остаток между чтением и UPDATE
	repo.On("DebitIfEnough", ctx, testUID, "audit", 10).Return(false, nil).Once()
	repo.On("GetAccount", ctx, testUID).Return(futureAccount(2, 8, 10, 0), nil).Once()

	_, err := svc.Debit(ctx, testUID, "audit", 0)
	var insufficient *InsufficientCreditsError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 2, insufficient.Remaining)
	repo.AssertExpectations(t)
}

func TestDebit_StarterPlanExhaustion(t *testing.T) {
	repo := new(MockCreditRepository)
	users := new(MockUserRepository)
	svc := newService(repo, users, nil)
	ctx := context.Background()

	// десять списаний по одному кредиту выбирают квоту starter целиком
	remaining := 10
	for i := 0; i < 10; i++ {
		repo.On("GetAccount", ctx, testUID).Return(futureAccount(remaining, 10-remaining, 10, 0), nil).Once()
		repo.On("DebitIfEnough", ctx, testUID, "caption", 1).Return(true, nil).Once()
		remaining--
		repo.On("GetAccount", ctx, testUID).Return(futureAccount(remaining, 10-remaining, 10, 0), nil).Once()
	}

	cache := svc.cache.(*fakeCache)
	for i := 0; i < 10; i++ {
		require.NoError(t, cache.Invalidate(cacheKey(testUID)))
		_, err := svc.Debit(ctx, testUID, "caption", 0)
		require.NoError(t, err)
	}

	require.NoError(t, cache.Invalidate(cacheKey(testUID)))
	repo.On("GetAccount", ctx, testUID).Return(futureAccount(0, 10, 10, 0), nil).Twice()
	_, err := svc.Debit(ctx, testUID, "caption", 0)
	var insufficient *InsufficientCreditsError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 0, insufficient.Remaining)
}

func TestDebit_LowBalanceTriggersAlert(t *testing.T) {
	repo := new(MockCreditRepository)
	users := new(MockUserRepository)
	notifier := NewMockNotifier()
	svc := newService(repo, users, notifier)
	ctx := context.Background()

	repo.On("GetAccount", ctx, testUID).Return(futureAccount(25, 75, 100, 0), nil).Once()
	repo.On("DebitIfEnough", ctx, testUID, "audit", 10).Return(true, nil).Once()
	after := futureAccount(15, 85, 100, 0)
	repo.On("GetAccount", ctx, testUID).Return(after, nil).Once()
	users.On("GetUser", mock.Anything, testUID).
		Return(&models.User{UID: testUID, Email: "low@example.com", Username: "low", Plan: "pro"}, nil).Once()
	notifier.On("NotifyLowCredits", mock.Anything, mock.MatchedBy(func(ev models.LowCreditsEvent) bool {
		return ev.Email == "low@example.com" && ev.Remaining == 15 && ev.Total == 100
	})).Return(nil).Once()

	acc, err := svc.Debit(ctx, testUID, "audit", 0)
	require.NoError(t, err)
	assert.Equal(t, 15, acc.RemainingCredits)

	select {
	case <-notifier.done:
	case <-time.After(2 * time.Second):
		t.Fatal("low credits alert was not sent")
	}
	notifier.AssertExpectations(t)
}

func TestDebit_AlertFailureDoesNotAffectResult(t *testing.T) {
	repo := new(MockCreditRepository)
	users := new(MockUserRepository)
	notifier := NewMockNotifier()
	svc := newService(repo, users, notifier)
	ctx := context.Background()

	repo.On("GetAccount", ctx, testUID).Return(futureAccount(11, 89, 100, 0), nil).Once()
	repo.On("DebitIfEnough", ctx, testUID, "caption", 1).Return(true, nil).Once()
	repo.On("GetAccount", ctx, testUID).Return(futureAccount(10, 90, 100, 0), nil).Once()
	users.On("GetUser", mock.Anything, testUID).
		Return(&models.User{UID: testUID, Email: "x@example.com", Username: "x"}, nil).Once()
	notifier.On("NotifyLowCredits", mock.Anything, mock.Anything).
		Return(errors.New("broker down")).Once()

	acc, err := svc.Debit(ctx, testUID, "caption", 0)
	require.NoError(t, err)
	assert.Equal(t, 10, acc.RemainingCredits)

	select {
	case <-notifier.done:
	case <-time.After(2 * time.Second):
		t.Fatal("notifier was not called")
	}
}

func TestDebit_NoAlertAboveThreshold(t *testing.T) {
	repo := new(MockCreditRepository)
	users := new(MockUserRepository)
	notifier := NewMockNotifier()
	svc := newService(repo, users, notifier)
	ctx := context.Background()

	repo.On("GetAccount", ctx, testUID).Return(futureAccount(100, 0, 100, 0), nil).Once()
	repo.On("DebitIfEnough", ctx, testUID, "caption", 1).Return(true, nil).Once()
	repo.On("GetAccount", ctx, testUID).Return(futureAccount(99, 1, 100, 0), nil).Once()

	_, err := svc.Debit(ctx, testUID, "caption", 0)
	require.NoError(t, err)

	time.Sleep(50 * time.Millisecond)
	notifier.AssertNotCalled(t, "NotifyLowCredits", mock.Anything, mock.Anything)
}

func TestDebit_NoAlertAtZeroRemaining(t *testing.T) {
	repo := new(MockCreditRepository)
	users := new(MockUserRepository)
	notifier := NewMockNotifier()
	svc := newService(repo, users, notifier)
	ctx := context.Background()

	repo.On("GetAccount", ctx, testUID).Return(futureAccount(1, 9, 10, 0), nil).Once()
	repo.On("DebitIfEnough", ctx, testUID, "caption", 1).Return(true, nil).Once()
	repo.On("GetAccount", ctx, testUID).Return(futureAccount(0, 10, 10, 0), nil).Once()

	_, err := svc.Debit(ctx, testUID, "caption", 0)
	require.NoError(t, err)

	time.Sleep(50 * time.Millisecond)
	notifier.AssertNotCalled(t, "NotifyLowCredits", mock.Anything, mock.Anything)
}

func TestCredit_GrantsExtraCredits(t *testing.T) {
	repo := new(MockCreditRepository)
	users := new(MockUserRepository)
	svc := newService(repo, users, nil)
	ctx := context.Background()

	users.On("GetUser", ctx, testUID).Return(&models.User{UID: testUID, Plan: "free"}, nil).Once()
	repo.On("AddExtraCredits", ctx, testUID, 20, "support bonus", 5, mock.AnythingOfType("time.Time")).
		Return(nil).Once()
	repo.On("GetAccount", ctx, testUID).Return(futureAccount(25, 0, 5, 20), nil).Once()

	acc, err := svc.Credit(ctx, testUID, 20, "support bonus")
	require.NoError(t, err)
	assert.Equal(t, 20, acc.ExtraCredits)
	assert.Equal(t, 25, acc.RemainingCredits)
	repo.AssertExpectations(t)
}

func TestReprice_KeepsUsedCredits(t *testing.T) {
	repo := new(MockCreditRepository)
	users := new(MockUserRepository)
	svc := newService(repo, users, nil)
	ctx := context.Background()

	users.On("UpdateUserPlan", ctx, testUID, "pro").Return(nil).Once()
	repo.On("GetAccount", ctx, testUID).Return(futureAccount(2, 8, 10, 0), nil).Once()
	repo.On("Reprice", ctx, testUID, 100).Return(1, nil).Once()
	repo.On("GetAccount", ctx, testUID).Return(futureAccount(92, 8, 100, 0), nil).Once()

	acc, err := svc.Reprice(ctx, testUID, "pro")
	require.NoError(t, err)
	assert.Equal(t, 100, acc.TotalCredits)
	assert.Equal(t, 8, acc.UsedCredits)
	assert.Equal(t, 92, acc.RemainingCredits)
	repo.AssertExpectations(t)
}

func TestHistory(t *testing.T) {
	repo := new(MockCreditRepository)
	users := new(MockUserRepository)
	svc := newService(repo, users, nil)
	ctx := context.Background()

	records := []*models.UsageRecord{
		{Feature: "audit", Cost: 10, Timestamp: time.Now()},
		{Feature: "caption", Cost: 1, Timestamp: time.Now().Add(-time.Hour)},
	}
	repo.On("ListUsage", ctx, testUID, 50).Return(records, nil).Once()

	got, err := svc.History(ctx, testUID, 50)
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, "audit", got[0].Feature)
}

func TestSweepLowCredits(t *testing.T) {
	repo := new(MockCreditRepository)
	users := new(MockUserRepository)
	notifier := new(MockNotifier)
	svc := newService(repo, users, notifier)
	ctx := context.Background()

	events := []*models.LowCreditsEvent{
		{Email: "a@example.com", Username: "a", Remaining: 1, Total: 10},
		{Email: "b@example.com", Username: "b", Remaining: 2, Total: 100},
	}
	repo.On("FindLowCreditAccounts", ctx).Return(events, nil).Once()
	notifier.On("NotifyLowCredits", ctx, *events[0]).Return(nil).Once()
	// сбой одного уведомления не прерывает обход
	notifier.On("NotifyLowCredits", ctx, *events[1]).Return(errors.New("broker down")).Once()

	sent, err := svc.SweepLowCredits(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	notifier.AssertExpectations(t)
}

func TestCosts(t *testing.T) {
	svc := newService(new(MockCreditRepository), new(MockUserRepository), nil)

	tables := svc.Costs()
	costs, ok := tables["costs"].(map[string]int)
	require.True(t, ok)
	assert.Equal(t, 10, costs["audit"])

	allocations, ok := tables["plan_allocations"].(map[string]int)
	require.True(t, ok)
	assert.Equal(t, 100, allocations["pro"])
}
