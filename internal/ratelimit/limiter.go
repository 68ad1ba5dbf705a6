// Package ratelimit реализует скользящее окно запросов для ограничения
// частоты AI-операций и попыток входа, а также блокировку IP-адресов.
//
// Состояние окна хранится в Redis, поэтому лимит действует на все
// экземпляры сервиса сразу. Для тестов и однопроцессного запуска есть
// эквивалентная реализация в памяти.
package ratelimit

import "context"

// Limiter проверяет, укладывается ли идентификатор в лимит запросов.
type Limiter interface {
	// Allow регистрирует запрос и сообщает, разрешен ли он.
	// false означает, что окно заполнено; запрос при этом не регистрируется.
	Allow(ctx context.Context, key string) (bool, error)
}
