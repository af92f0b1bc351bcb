package ports

import (
	"context"

	"telegram-navigator/internal/domain"
)

// ViewForge — именованная фабрика экранов.
type ViewForge interface {
	// Supplies перечисляет ключи контекста, которые потребляет фабрика.
	Supplies() []string
	// Forge строит один или несколько payload по отфильтрованному контексту.
	Forge(ctx context.Context, args map[string]any) ([]domain.Payload, error)
}

// ViewLedger — реестр фабрик экранов. Только чтение после инициализации.
type ViewLedger interface {
	Get(key string) (ViewForge, bool)
	Has(key string) bool
}

// Lexicon выдает текст уведомления по умолчанию для области.
type Lexicon interface {
	Alert(scope domain.Scope) string
}
