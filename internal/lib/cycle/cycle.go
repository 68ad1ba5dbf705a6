// Package cycle содержит функции расчёта месячного цикла кредитов.
// Цикл привязан к первому числу календарного месяца в UTC.
package cycle

import "time"

// NextResetDate возвращает дату следующего сброса кредитов:
// полночь первого числа следующего календарного месяца в UTC.
func NextResetDate(now time.Time) time.Time {
	now = now.UTC()
	if now.Month() == time.December {
		return time.Date(now.Year()+1, time.January, 1, 0, 0, 0, 0, time.UTC)
	}
	return time.Date(now.Year(), now.Month()+1, 1, 0, 0, 0, 0, time.UTC)
}

// IsDue сообщает, наступила ли дата сброса.
func IsDue(resetDate, now time.Time) bool {
	return !now.UTC().Before(resetDate)
}
