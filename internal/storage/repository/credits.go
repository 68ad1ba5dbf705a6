package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/instagrowth/credit-service/internal/models"
)

// GetAccount возвращает кредитный счет пользователя.
func (s *Storage) GetAccount(ctx context.Context, userUID string) (*models.CreditAccount, error) {
	const op = "storage.GetAccount"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT user_uid, total_credits, used_credits, remaining_credits,
			      extra_credits, reset_date, last_reset, created_at
			  FROM ai_credits WHERE user_uid = $1`
	row := s.DB.QueryRowContext(ctx, query, userUID)

	var acc models.CreditAccount
	var lastReset sql.NullTime
	if err := row.Scan(&acc.UserUID, &acc.TotalCredits, &acc.UsedCredits, &acc.RemainingCredits,
		&acc.ExtraCredits, &acc.ResetDate, &lastReset, &acc.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrAccountNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if lastReset.Valid {
		acc.LastReset = &lastReset.Time
	}
	return &acc, nil
}

// CreateAccount создает кредитный счет с начальной квотой плана.
// Повторная вставка для того же пользователя молча игнорируется.
func (s *Storage) CreateAccount(ctx context.Context, userUID string, total int, resetDate time.Time) error {
	const op = "storage.CreateAccount"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO ai_credits (user_uid, total_credits, used_credits,
			      remaining_credits, extra_credits, reset_date)
			  VALUES ($1, $2, 0, $2, 0, $3)
			  ON CONFLICT (user_uid) DO NOTHING`
	if _, err := s.DB.ExecContext(ctx, query, userUID, total, resetDate); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ResetAccount выполняет месячный сброс счета: выставляет новую квоту плана,
// обнуляет списанное, переносит дату сброса и обнуляет месячный счетчик
// AI-операций пользователя. Условие reset_date <= now() делает операцию
// идемпотентной при гонке двух запросов.
func (s *Storage) ResetAccount(ctx context.Context, userUID string, total int, nextReset time.Time) (int, error) {
	const op = "storage.ResetAccount"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE ai_credits
			  SET total_credits = $2,
			      used_credits = 0,
			      remaining_credits = $2 + extra_credits,
			      reset_date = $3,
			      last_reset = now()
			  WHERE user_uid = $1 AND reset_date <= now()`
	result, err := s.DB.ExecContext(ctx, query, userUID, total, nextReset)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected == 0 {
		return 0, nil
	}

	usageQuery := `UPDATE users SET ai_usage_current = 0 WHERE uid = $1`
	if _, err := s.DB.ExecContext(ctx, usageQuery, userUID); err != nil {
		return int(rowsAffected), fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// DebitIfEnough атомарно списывает cost кредитов, если остатка хватает.
// Проверка и списание выполняются одним условным UPDATE, поэтому два
// конкурентных списания не могут увести остаток в минус. Возвращает true,
// если списание произошло; запись журнала добавляется только при успехе.
func (s *Storage) DebitIfEnough(ctx context.Context, userUID, feature string, cost int) (bool, error) {
	const op = "storage.DebitIfEnough"
	select {
	case <-ctx.Done():
		return false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE ai_credits
			  SET used_credits = used_credits + $2,
			      remaining_credits = remaining_credits - $2
			  WHERE user_uid = $1 AND remaining_credits >= $2`
	result, err := s.DB.ExecContext(ctx, query, userUID, cost)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected == 0 {
		return false, nil
	}

	usageQuery := `INSERT INTO credit_usage (user_uid, feature, cost) VALUES ($1, $2, $3)`
	if _, err := s.DB.ExecContext(ctx, usageQuery, userUID, feature, cost); err != nil {
		return true, fmt.Errorf("%s: %w", op, err)
	}
	return true, nil
}

// AddExtraCredits начисляет бонусные кредиты с upsert счета: для нового
// пользователя счет создается сразу с начислением поверх квоты total.
func (s *Storage) AddExtraCredits(ctx context.Context, userUID string, amount int, reason string, total int, resetDate time.Time) error {
	const op = "storage.AddExtraCredits"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO ai_credits (user_uid, total_credits, used_credits,
			      remaining_credits, extra_credits, reset_date)
			  VALUES ($1, $4, 0, $4 + $2, $2, $5)
			  ON CONFLICT (user_uid) DO UPDATE
			  SET extra_credits = ai_credits.extra_credits + $2,
			      remaining_credits = ai_credits.remaining_credits + $2`
	if _, err := s.DB.ExecContext(ctx, query, userUID, amount, reason, total, resetDate); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	additionQuery := `INSERT INTO credit_additions (user_uid, amount, reason) VALUES ($1, $2, $3)`
	if _, err := s.DB.ExecContext(ctx, additionQuery, userUID, amount, reason); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Reprice пересчитывает квоту при смене плана, сохраняя уже списанные
// в этом цикле кредиты: remaining = max(0, new_total - used) + extra.
func (s *Storage) Reprice(ctx context.Context, userUID string, newTotal int) (int, error) {
	const op = "storage.Reprice"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE ai_credits
			  SET total_credits = $2,
			      remaining_credits = GREATEST(0, $2 - used_credits) + extra_credits
			  WHERE user_uid = $1`
	result, err := s.DB.ExecContext(ctx, query, userUID, newTotal)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// ListUsage возвращает журнал списаний пользователя, новые записи первыми.
func (s *Storage) ListUsage(ctx context.Context, userUID string, limit int) ([]*models.UsageRecord, error) {
	const op = "storage.ListUsage"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT feature, cost, created_at
			  FROM credit_usage
			  WHERE user_uid = $1
			  ORDER BY created_at DESC, id DESC
			  LIMIT $2`
	rows, err := s.DB.QueryContext(ctx, query, userUID, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.UsageRecord
	for rows.Next() {
		var item models.UsageRecord
		if err := rows.Scan(&item.Feature, &item.Cost, &item.Timestamp); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ListAdditions возвращает журнал ручных начислений, новые записи первыми.
func (s *Storage) ListAdditions(ctx context.Context, userUID string, limit int) ([]*models.CreditAddition, error) {
	const op = "storage.ListAdditions"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT amount, reason, created_at
			  FROM credit_additions
			  WHERE user_uid = $1
			  ORDER BY created_at DESC, id DESC
			  LIMIT $2`
	rows, err := s.DB.QueryContext(ctx, query, userUID, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.CreditAddition
	for rows.Next() {
		var item models.CreditAddition
		if err := rows.Scan(&item.Amount, &item.Reason, &item.Timestamp); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// FindLowCreditAccounts находит счета с остатком ниже 20% месячной квоты.
func (s *Storage) FindLowCreditAccounts(ctx context.Context) ([]*models.LowCreditsEvent, error) {
	const op = "storage.FindLowCreditAccounts"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT u.email, u.username, c.remaining_credits, c.used_credits,
			      c.total_credits, c.reset_date
			  FROM ai_credits c
			  JOIN users u ON u.uid = c.user_uid
			  WHERE c.total_credits > 0
			    AND c.remaining_credits * 100 < c.total_credits * 20`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.LowCreditsEvent
	for rows.Next() {
		var ev models.LowCreditsEvent
		if err := rows.Scan(&ev.Email, &ev.Username, &ev.Remaining, &ev.Used,
			&ev.Total, &ev.ResetDate); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &ev)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
