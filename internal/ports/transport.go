package ports

import (
	"context"

	"telegram-navigator/internal/domain"
)

// Result — подтверждение транспорта об отправке или редактировании.
type Result struct {
	ID     int
	Extras []int
	Meta   domain.Meta
}

// Transport определяет операции над удаленным чатом.
type Transport interface {
	// Send отправляет новое сообщение или альбом.
	Send(ctx context.Context, scope domain.Scope, payload domain.Payload) (*Result, error)
	// Rewrite редактирует текст сообщения.
	Rewrite(ctx context.Context, scope domain.Scope, id int, payload domain.Payload) (*Result, error)
	// Recast заменяет медиа сообщения.
	Recast(ctx context.Context, scope domain.Scope, id int, payload domain.Payload) (*Result, error)
	// Retitle редактирует подпись медиа.
	Retitle(ctx context.Context, scope domain.Scope, id int, payload domain.Payload) (*Result, error)
	// Remap редактирует только разметку ответа.
	Remap(ctx context.Context, scope domain.Scope, id int, payload domain.Payload) (*Result, error)
	// Delete удаляет сообщения.
	Delete(ctx context.Context, scope domain.Scope, ids []int) error
	// Alert показывает легкое уведомление без влияния на историю.
	Alert(ctx context.Context, scope domain.Scope, text string) error
}
