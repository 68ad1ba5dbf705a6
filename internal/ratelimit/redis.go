package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisWindow скользящее окно поверх Redis sorted set.
// Каждый запрос — элемент множества со score равным времени в наносекундах;
// перед проверкой устаревшие элементы удаляются, ключ живет не дольше окна.
type RedisWindow struct {
	client *redis.Client
	prefix string
	limit  int
	window time.Duration
}

// NewRedisWindow создает окно на limit запросов за период window.
// prefix разделяет независимые лимиты в одном Redis (например "ai" и "login").
func NewRedisWindow(client *redis.Client, prefix string, limit int, window time.Duration) *RedisWindow {
	return &RedisWindow{
		client: client,
		prefix: prefix,
		limit:  limit,
		window: window,
	}
}

// Allow регистрирует запрос для key, если окно не заполнено.
func (r *RedisWindow) Allow(ctx context.Context, key string) (bool, error) {
	const op = "ratelimit.RedisWindow.Allow"

	redisKey := r.prefix + ":" + key
	now := time.Now()
	cutoff := now.Add(-r.window).UnixNano()

	if err := r.client.ZRemRangeByScore(ctx, redisKey, "0", strconv.FormatInt(cutoff, 10)).Err(); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	count, err := r.client.ZCard(ctx, redisKey).Result()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	if count >= int64(r.limit) {
		return false, nil
	}

	member := strconv.FormatInt(now.UnixNano(), 10)
	pipe := r.client.TxPipeline()
	pipe.ZAdd(ctx, redisKey, redis.Z{Score: float64(now.UnixNano()), Member: member})
	pipe.Expire(ctx, redisKey, r.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return true, nil
}

// Reset очищает окно для key.
func (r *RedisWindow) Reset(ctx context.Context, key string) error {
	const op = "ratelimit.RedisWindow.Reset"
	if err := r.client.Del(ctx, r.prefix+":"+key).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
