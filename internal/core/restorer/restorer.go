// Package restorer восстанавливает payload кадра истории: динамически через
// фабрику экранов или статически из сохраненных сообщений.
package restorer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"telegram-navigator/internal/domain"
	"telegram-navigator/internal/log"
	"telegram-navigator/internal/ports"
)

// Restorer восстанавливает содержимое кадров.
type Restorer struct {
	ledger  ports.ViewLedger
	channel *log.Channel
}

// New создает восстановитель поверх реестра экранов. ledger может быть nil.
func New(ledger ports.ViewLedger, telemetry *log.Telemetry) *Restorer {
	return &Restorer{ledger: ledger, channel: telemetry.Channel("restorer")}
}

// Revive возвращает payload для кадра entry. Ошибка фабрики приводит к
// статическому восстановлению; наружу выходит только ErrInlineUnsupported.
func (r *Restorer) Revive(ctx context.Context, scope domain.Scope, entry domain.Entry, args map[string]any) ([]domain.Payload, error) {
	if entry.View != "" && r.ledger != nil {
		if forge, ok := r.ledger.Get(entry.View); ok {
			bundle, err := r.forge(ctx, forge, args)
			switch {
			case err == nil && scope.IsInline() && len(bundle) > 1:
				return nil, fmt.Errorf("%w: view %q produced %d payloads", domain.ErrInlineUnsupported, entry.View, len(bundle))
			case err == nil && len(bundle) > 0:
				return bundle, nil
			case errors.Is(err, domain.ErrInlineUnsupported):
				return nil, err
			case err != nil:
				r.channel.Emit(ctx, slog.LevelWarn, log.RestoreDynamicFallback,
					slog.String("view", entry.View), slog.String("error", err.Error()))
			}
		}
	}
	return Static(entry), nil
}

// forge вызывает фабрику с отфильтрованным контекстом; паника фабрики
// превращается в ошибку.
func (r *Restorer) forge(ctx context.Context, forge ports.ViewForge, args map[string]any) (bundle []domain.Payload, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("view forge panic: %v", rec)
		}
	}()
	return forge.Forge(ctx, Filter(args, forge.Supplies()))
}

// Filter оставляет в контексте только ключи keys.
func Filter(args map[string]any, keys []string) map[string]any {
	out := make(map[string]any, len(keys))
	for _, k := range keys {
		if v, ok := args[k]; ok {
			out[k] = v
		}
	}
	return out
}

// Static восстанавливает по одному payload на каждое сохраненное сообщение.
func Static(entry domain.Entry) []domain.Payload {
	out := make([]domain.Payload, 0, len(entry.Messages))
	for _, m := range entry.Messages {
		out = append(out, FromMessage(m))
	}
	return out
}

// FromMessage превращает сохраненное сообщение в payload.
// Для медиа текстом становится подпись; пустая подпись означает явную очистку.
func FromMessage(m domain.Message) domain.Payload {
	p := domain.Payload{
		Reply:   m.Markup.Clone(),
		Preview: m.Preview.Clone(),
		Extra:   m.Extra.Clone(),
	}
	switch {
	case m.IsGroup():
		p.Group = make([]domain.MediaItem, len(m.Group))
		for i, item := range m.Group {
			p.Group[i] = item.Clone()
		}
		p.Preview = nil
	case m.Media != nil:
		media := m.Media.Clone()
		p.Media = &media
		p.Preview = nil
		p.Text = domain.Str(media.Caption)
		p.Erase = media.Caption == ""
	default:
		p.Text = domain.Str(m.Text)
	}
	return p
}
