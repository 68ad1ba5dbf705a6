package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Blocklist временная блокировка клиентских IP в Redis.
// Ключ блокировки живет ровно duration, разблокировка происходит по TTL.
type Blocklist struct {
	client *redis.Client
	prefix string
}

// NewBlocklist создает блок-лист с заданным префиксом ключей.
func NewBlocklist(client *redis.Client, prefix string) *Blocklist {
	return &Blocklist{client: client, prefix: prefix}
}

// Block блокирует идентификатор на duration.
func (b *Blocklist) Block(ctx context.Context, id string, duration time.Duration) error {
	const op = "ratelimit.Blocklist.Block"
	if err := b.client.Set(ctx, b.prefix+":"+id, "1", duration).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Unblock снимает блокировку досрочно.
func (b *Blocklist) Unblock(ctx context.Context, id string) error {
	const op = "ratelimit.Blocklist.Unblock"
	if err := b.client.Del(ctx, b.prefix+":"+id).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// IsBlocked сообщает, заблокирован ли идентификатор.
func (b *Blocklist) IsBlocked(ctx context.Context, id string) (bool, error) {
	const op = "ratelimit.Blocklist.IsBlocked"
	n, err := b.client.Exists(ctx, b.prefix+":"+id).Result()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return n > 0, nil
}
