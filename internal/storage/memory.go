package storage

import (
	"context"
	"sort"
	"sync"
	"time"
)

// item — документ в памяти со сроком действия.
type item struct {
	doc       []byte
	expiresAt time.Time
}

func (i *item) expired(now time.Time) bool {
	return !i.expiresAt.IsZero() && now.After(i.expiresAt)
}

// Memory хранит документы в памяти. Нулевой ttl отключает истечение.
type Memory struct {
	items map[string]*item
	mutex sync.RWMutex
	ttl   time.Duration
	now   func() time.Time
}

// NewMemory создает новое хранилище в памяти.
func NewMemory(ttl time.Duration) *Memory {
	return &Memory{
		items: make(map[string]*item),
		ttl:   ttl,
		now:   time.Now,
	}
}

// Load извлекает документ по ключу. Просроченный документ считается отсутствующим.
func (m *Memory) Load(_ context.Context, key string) ([]byte, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	it, exists := m.items[key]
	if !exists || it.expired(m.now()) {
		return nil, nil
	}
	return append([]byte(nil), it.doc...), nil
}

// Save сохраняет документ и продлевает срок его действия.
func (m *Memory) Save(_ context.Context, key string, doc []byte) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	it := &item{doc: append([]byte(nil), doc...)}
	if m.ttl > 0 {
		it.expiresAt = m.now().Add(m.ttl)
	}
	m.items[key] = it
	return nil
}

// Delete удаляет документ.
func (m *Memory) Delete(_ context.Context, key string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	delete(m.items, key)
	return nil
}

// Keys перечисляет ключи непросроченных документов.
func (m *Memory) Keys(context.Context) ([]string, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	now := m.now()
	keys := make([]string, 0, len(m.items))
	for key, it := range m.items {
		if !it.expired(now) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// CleanupExpired удаляет просроченные документы.
func (m *Memory) CleanupExpired() {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	now := m.now()
	for key, it := range m.items {
		if it.expired(now) {
			delete(m.items, key)
		}
	}
}

// StartCleanupTicker запускает периодическую очистку до отмены ctx.
func (m *Memory) StartCleanupTicker(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.CleanupExpired()
			}
		}
	}()
}

// Close ничего не делает.
func (m *Memory) Close() error {
	return nil
}
