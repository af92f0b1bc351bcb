// Package guard сериализует операции навигации по ключу области.
package guard

import (
	"context"
	"sync"

	"telegram-navigator/internal/domain"
	"telegram-navigator/internal/ports"
)

// Registry — реестр исключительных блокировок по ключу области внутри процесса.
// Запись удаляется, когда ключ больше никто не держит и не ждет.
type Registry struct {
	mu    sync.Mutex
	slots map[domain.ScopeKey]*slot
}

type slot struct {
	sem  chan struct{}
	refs int
}

// NewRegistry создает пустой реестр.
func NewRegistry() *Registry {
	return &Registry{slots: make(map[domain.ScopeKey]*slot)}
}

// Latch реализует ports.ScopeLockProvider.
func (r *Registry) Latch(key domain.ScopeKey) ports.Lock {
	return &latch{registry: r, key: key}
}

// Size возвращает число ключей, которые сейчас удерживаются или ожидаются.
func (r *Registry) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.slots)
}

func (r *Registry) checkout(key domain.ScopeKey) *slot {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.slots[key]
	if !ok {
		s = &slot{sem: make(chan struct{}, 1)}
		r.slots[key] = s
	}
	s.refs++
	return s
}

func (r *Registry) checkin(key domain.ScopeKey) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.slots[key]
	if !ok {
		return
	}
	s.refs--
	if s.refs <= 0 {
		delete(r.slots, key)
	}
}

type latch struct {
	registry *Registry
	key      domain.ScopeKey
	slot     *slot
}

// Acquire ждет освобождения ключа или отмены контекста.
func (l *latch) Acquire(ctx context.Context) error {
	s := l.registry.checkout(l.key)
	select {
	case s.sem <- struct{}{}:
		l.slot = s
		return nil
	case <-ctx.Done():
		l.registry.checkin(l.key)
		return ctx.Err()
	}
}

// Release освобождает ключ. Повторный вызов ничего не делает.
func (l *latch) Release() {
	if l.slot == nil {
		return
	}
	<-l.slot.sem
	l.slot = nil
	l.registry.checkin(l.key)
}

// Hold выполняет fn под блокировкой ключа key. Блокировка снимается на всех путях,
// включая панику в fn.
func Hold(ctx context.Context, provider ports.ScopeLockProvider, key domain.ScopeKey, fn func(ctx context.Context) error) error {
	lock := provider.Latch(key)
	if err := lock.Acquire(ctx); err != nil {
		return err
	}
	defer lock.Release()
	return fn(ctx)
}
