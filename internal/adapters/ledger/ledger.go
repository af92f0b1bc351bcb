// Package ledger — реестр именованных фабрик экранов.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"telegram-navigator/internal/domain"
	"telegram-navigator/internal/ports"
)

// ErrDuplicateView — фабрика с таким ключом уже зарегистрирована.
var ErrDuplicateView = errors.New("view already registered")

// BuildFunc строит экран по отфильтрованному контексту.
type BuildFunc func(ctx context.Context, args map[string]any) ([]domain.Payload, error)

type forge struct {
	supplies []string
	build    BuildFunc
}

func (f forge) Supplies() []string {
	return append([]string(nil), f.supplies...)
}

func (f forge) Forge(ctx context.Context, args map[string]any) ([]domain.Payload, error) {
	return f.build(ctx, args)
}

// Func оборачивает функцию в фабрику экранов. supplies перечисляет ключи
// контекста, которые функция читает; остальные ключи до нее не доходят.
func Func(build BuildFunc, supplies ...string) ports.ViewForge {
	return forge{supplies: supplies, build: build}
}

// Static возвращает фабрику, всегда строящую один и тот же экран.
func Static(bundle ...domain.Payload) ports.ViewForge {
	return Func(func(context.Context, map[string]any) ([]domain.Payload, error) {
		out := make([]domain.Payload, len(bundle))
		for i, p := range bundle {
			out[i] = p.Clone()
		}
		return out, nil
	})
}

// Registry хранит фабрики по ключу. Регистрация выполняется при старте,
// дальше реестр только читается.
type Registry struct {
	mu     sync.RWMutex
	forges map[string]ports.ViewForge
}

// New создает пустой реестр.
func New() *Registry {
	return &Registry{forges: make(map[string]ports.ViewForge)}
}

// Register добавляет фабрику под ключом key.
func (r *Registry) Register(key string, f ports.ViewForge) error {
	if key == "" {
		return errors.New("пустой ключ экрана")
	}
	if f == nil {
		return fmt.Errorf("фабрика экрана %q не задана", key)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.forges[key]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateView, key)
	}
	r.forges[key] = f
	return nil
}

// MustRegister регистрирует фабрику и паникует при ошибке. Для кода инициализации.
func (r *Registry) MustRegister(key string, f ports.ViewForge) *Registry {
	if err := r.Register(key, f); err != nil {
		panic(err)
	}
	return r
}

// Get реализует ports.ViewLedger.
func (r *Registry) Get(key string) (ports.ViewForge, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.forges[key]
	return f, ok
}

// Has реализует ports.ViewLedger.
func (r *Registry) Has(key string) bool {
	_, ok := r.Get(key)
	return ok
}

// Keys возвращает отсортированные ключи экранов.
func (r *Registry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.forges))
	for key := range r.forges {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

var _ ports.ViewLedger = (*Registry)(nil)
