package ports

import (
	"context"

	"telegram-navigator/internal/domain"
)

// HistoryStore хранит историю экранов одной области.
type HistoryStore interface {
	Recall(ctx context.Context) ([]domain.Entry, error)
	Archive(ctx context.Context, history []domain.Entry) error
}

// LastMarkerStore хранит идентификатор последнего головного сообщения.
type LastMarkerStore interface {
	Peek(ctx context.Context) (*int, error)
	Mark(ctx context.Context, id *int) error
}

// StateStore хранит состояние FSM и его данные.
type StateStore interface {
	Status(ctx context.Context) (string, error)
	Assign(ctx context.Context, state string) error
	// Payload возвращает данные состояния без служебных ключей навигатора.
	Payload(ctx context.Context) (map[string]any, error)
}

// Session объединяет хранилища одной области.
type Session interface {
	HistoryStore
	LastMarkerStore
	StateStore
}

// StorageProvider выдает сессию хранилища для области.
type StorageProvider interface {
	For(scope domain.Scope) Session
}
