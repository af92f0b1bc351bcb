package navigator

import (
	"context"

	"telegram-navigator/internal/domain"
	"telegram-navigator/internal/usecase"
)

// Navigator привязан к одной области и делегирует операции ядру.
type Navigator struct {
	runtime *Runtime
	scope   domain.Scope
}

// EntryOption настраивает добавляемый кадр.
type EntryOption func(*entryOptions)

type entryOptions struct {
	view string
	root bool
}

// WithView связывает кадр с фабрикой экрана для динамического восстановления.
func WithView(key string) EntryOption {
	return func(o *entryOptions) { o.view = key }
}

// AsRoot делает кадр корневым: история заменяется им целиком.
func AsRoot() EntryOption {
	return func(o *entryOptions) { o.root = true }
}

// Scope возвращает область навигатора.
func (n *Navigator) Scope() domain.Scope {
	return n.scope
}

// Add показывает новый экран.
func (n *Navigator) Add(ctx context.Context, bundle []domain.Payload, opts ...EntryOption) error {
	var o entryOptions
	for _, opt := range opts {
		opt(&o)
	}
	return n.runtime.call(ctx, n.scope, "add", func(ctx context.Context) error {
		return n.runtime.history.Add(ctx, n.scope, bundle, o.view, o.root)
	})
}

// Replace подменяет текущий экран.
func (n *Navigator) Replace(ctx context.Context, bundle ...domain.Payload) error {
	return n.runtime.call(ctx, n.scope, "replace", func(ctx context.Context) error {
		return n.runtime.history.Replace(ctx, n.scope, bundle)
	})
}

// Back возвращает предыдущий экран.
func (n *Navigator) Back(ctx context.Context, args map[string]any) error {
	return n.runtime.call(ctx, n.scope, "back", func(ctx context.Context) error {
		return n.runtime.history.Back(ctx, n.scope, args)
	})
}

// Set возвращается к последнему экрану с состоянием goal.
func (n *Navigator) Set(ctx context.Context, goal string, args map[string]any) error {
	return n.runtime.call(ctx, n.scope, "set", func(ctx context.Context) error {
		return n.runtime.history.Set(ctx, n.scope, goal, args)
	})
}

// Pop отбрасывает до count последних кадров.
func (n *Navigator) Pop(ctx context.Context, count int) error {
	return n.runtime.call(ctx, n.scope, "pop", func(ctx context.Context) error {
		return n.runtime.history.Pop(ctx, n.scope, count)
	})
}

// Rebase переносит маркер на сообщение id.
func (n *Navigator) Rebase(ctx context.Context, id int) error {
	return n.runtime.call(ctx, n.scope, "rebase", func(ctx context.Context) error {
		return n.runtime.history.Rebase(ctx, n.scope, id)
	})
}

// Alert показывает уведомление.
func (n *Navigator) Alert(ctx context.Context, text string) error {
	return n.runtime.call(ctx, n.scope, "alert", func(ctx context.Context) error {
		return n.runtime.history.Alert(ctx, n.scope, text)
	})
}

// Last возвращает операции над последним сообщением.
func (n *Navigator) Last() *Last {
	return &Last{nav: n}
}

// Last — операции над сообщением, на которое указывает маркер.
type Last struct {
	nav *Navigator
}

// Get возвращает ссылку на последнее сообщение или nil.
func (l *Last) Get(ctx context.Context) (*usecase.LastRef, error) {
	var ref *usecase.LastRef
	err := l.nav.runtime.call(ctx, l.nav.scope, "last.get", func(ctx context.Context) error {
		var err error
		ref, err = l.nav.runtime.history.LastGet(ctx, l.nav.scope)
		return err
	})
	return ref, err
}

// Edit правит последнее сообщение.
func (l *Last) Edit(ctx context.Context, p domain.Payload) error {
	return l.nav.runtime.call(ctx, l.nav.scope, "last.edit", func(ctx context.Context) error {
		return l.nav.runtime.history.LastEdit(ctx, l.nav.scope, p)
	})
}

// Delete удаляет последний кадр.
func (l *Last) Delete(ctx context.Context) error {
	return l.nav.runtime.call(ctx, l.nav.scope, "last.delete", func(ctx context.Context) error {
		return l.nav.runtime.history.LastDelete(ctx, l.nav.scope)
	})
}
