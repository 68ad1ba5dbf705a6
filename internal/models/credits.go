package models

import "time"

// CreditAccount представляет собой кредитный счет пользователя.
// Инвариант счета: RemainingCredits = TotalCredits + ExtraCredits - UsedCredits.
// ExtraCredits переживают месячный сброс, TotalCredits выдаются планом на цикл.
type CreditAccount struct {
	UserUID          string     `json:"user_uid"`
	TotalCredits     int        `json:"total_credits"`
	UsedCredits      int        `json:"used_credits"`
	RemainingCredits int        `json:"remaining_credits"`
	ExtraCredits     int        `json:"extra_credits"`
	ResetDate        time.Time  `json:"reset_date"`
	LastReset        *time.Time `json:"last_reset,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

// UsageRecord одна запись журнала списаний кредитов.
type UsageRecord struct {
	Feature   string    `json:"feature"`
	Cost      int       `json:"cost"`
	Timestamp time.Time `json:"timestamp"`
}

// CreditAddition одна запись журнала ручных начислений кредитов.
type CreditAddition struct {
	Amount    int       `json:"amount"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

// GrantRequest используется для приёма данных ручного начисления из JSON-запроса.
type GrantRequest struct {
	UserUID string `json:"user_uid" validate:"required,uuid"`
	Amount  int    `json:"amount" validate:"required,gt=0"`
	Reason  string `json:"reason" validate:"required"`
}

// GenerateRequest используется для приёма запроса AI-генерации из JSON.
type GenerateRequest struct {
	Feature string `json:"feature" validate:"required"`
	Prompt  string `json:"prompt" validate:"required"`
}

// LowCreditsEvent сообщение для очереди уведомлений о низком балансе.
type LowCreditsEvent struct {
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	Remaining int       `json:"remaining"`
	Used      int       `json:"used"`
	Total     int       `json:"total"`
	ResetDate time.Time `json:"reset_date"`
}
