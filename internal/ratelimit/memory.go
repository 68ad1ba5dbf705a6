package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryWindow скользящее окно в памяти процесса.
// Подходит для тестов и однопроцессного запуска; в многопроцессном
// развертывании каждый процесс считает окно независимо.
type MemoryWindow struct {
	mu     sync.Mutex
	hits   map[string][]time.Time
	limit  int
	window time.Duration
	now    func() time.Time
}

// NewMemoryWindow создает окно на limit запросов за период window.
func NewMemoryWindow(limit int, window time.Duration) *MemoryWindow {
	return &MemoryWindow{
		hits:   make(map[string][]time.Time),
		limit:  limit,
		window: window,
		now:    time.Now,
	}
}

// Allow регистрирует запрос для key, если окно не заполнено.
func (m *MemoryWindow) Allow(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	cutoff := now.Add(-m.window)

	kept := m.hits[key][:0]
	for _, t := range m.hits[key] {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	m.hits[key] = kept

	if len(kept) >= m.limit {
		return false, nil
	}
	m.hits[key] = append(kept, now)
	return true, nil
}

// Reset очищает окно для key. Используется при успешном входе,
// чтобы не накапливать счетчик неудачных попыток.
func (m *MemoryWindow) Reset(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.hits, key)
	return nil
}
