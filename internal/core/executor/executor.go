// Package executor переводит решения в вызовы транспорта и поглощает
// восстановимые ошибки транспорта.
package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"telegram-navigator/internal/core/payload"
	"telegram-navigator/internal/domain"
	"telegram-navigator/internal/log"
	"telegram-navigator/internal/ports"
)

// Execution — итог одного вызова транспорта.
// Stem — предыдущее головное сообщение, относительно которого выполнялась правка.
type Execution struct {
	Decision domain.Decision
	Result   *ports.Result
	Stem     *domain.Message
	Payload  domain.Payload
	// Fallback означает, что правка была заменена повторной отправкой.
	Fallback bool
}

// Executor выполняет решения через транспорт.
type Executor struct {
	transport  ports.Transport
	normalizer *payload.Normalizer
	channel    *log.Channel
}

// New создает исполнителя.
func New(transport ports.Transport, normalizer *payload.Normalizer, telemetry *log.Telemetry) *Executor {
	return &Executor{
		transport:  transport,
		normalizer: normalizer,
		channel:    telemetry.Channel("executor"),
	}
}

// Execute выполняет решение decision для payload относительно головы head.
// Возвращает nil, если операция пропущена без изменений в чате.
func (e *Executor) Execute(ctx context.Context, scope domain.Scope, decision domain.Decision, p domain.Payload, head *domain.Message) (*Execution, error) {
	return e.run(ctx, scope, decision, p, head, true)
}

// Patch выполняет точечную правку элемента альбома. В отличие от Execute,
// запрет редактирования не заменяется повторной отправкой: это разрушило бы альбом.
func (e *Executor) Patch(ctx context.Context, scope domain.Scope, decision domain.Decision, p domain.Payload, target *domain.Message) (*Execution, error) {
	return e.run(ctx, scope, decision, p, target, false)
}

// Purge удаляет сообщения, оставшиеся за пределами нового экрана.
func (e *Executor) Purge(ctx context.Context, scope domain.Scope, ids []int) error {
	if len(ids) == 0 {
		return nil
	}
	return e.transport.Delete(ctx, scope, ids)
}

func (e *Executor) run(ctx context.Context, scope domain.Scope, decision domain.Decision, p domain.Payload, head *domain.Message, fallback bool) (*Execution, error) {
	if decision == domain.NoChange {
		return nil, nil
	}

	clamped, err := e.normalizer.Clamp(p)
	if err != nil {
		return e.absorb(ctx, scope, decision, p, head, err, fallback)
	}

	result, err := e.dispatch(ctx, scope, decision, clamped, head)
	if err != nil {
		return e.absorb(ctx, scope, decision, clamped, head, err, fallback)
	}
	return &Execution{Decision: decision, Result: result, Stem: head, Payload: clamped}, nil
}

func (e *Executor) dispatch(ctx context.Context, scope domain.Scope, decision domain.Decision, p domain.Payload, head *domain.Message) (*ports.Result, error) {
	if head == nil && decision != domain.Resend {
		decision = domain.Resend
	}

	switch decision {
	case domain.Resend:
		return e.transport.Send(ctx, scope, p)
	case domain.EditText:
		return e.transport.Rewrite(ctx, scope, head.ID, p)
	case domain.EditMedia:
		return e.transport.Recast(ctx, scope, head.ID, p)
	case domain.EditMediaCaption:
		return e.transport.Retitle(ctx, scope, head.ID, p)
	case domain.EditMarkup:
		return e.transport.Remap(ctx, scope, head.ID, p)
	case domain.DeleteSend:
		return e.resend(ctx, scope, p, head)
	}
	return nil, fmt.Errorf("unknown decision %d", decision)
}

// resend отправляет новое сообщение и затем удаляет старое вместе с элементами альбома.
func (e *Executor) resend(ctx context.Context, scope domain.Scope, p domain.Payload, head *domain.Message) (*ports.Result, error) {
	result, err := e.transport.Send(ctx, scope, p)
	if err != nil {
		return nil, err
	}
	if head != nil {
		if err := e.transport.Delete(ctx, scope, head.IDs()); err != nil {
			e.channel.Emit(ctx, slog.LevelWarn, log.ExecutorFallback,
				slog.String("reason", "delete failed"), slog.Any("ids", head.IDs()), slog.String("error", err.Error()))
		}
	}
	return result, nil
}

// absorb обрабатывает восстановимые ошибки транспорта.
func (e *Executor) absorb(ctx context.Context, scope domain.Scope, decision domain.Decision, p domain.Payload, head *domain.Message, err error, fallback bool) (*Execution, error) {
	switch {
	case domain.Skippable(err):
		e.channel.Emit(ctx, slog.LevelInfo, log.RenderSkip,
			slog.String("decision", decision.String()), slog.String("error", err.Error()))
		return nil, nil

	case errors.Is(err, domain.ErrMessageUnchanged):
		e.channel.Emit(ctx, slog.LevelDebug, log.ExecutorUnchanged, slog.String("decision", decision.String()))
		return &Execution{Decision: domain.NoChange, Stem: head, Payload: p}, nil

	case errors.Is(err, domain.ErrEditForbidden):
		if scope.IsInline() || !fallback || head == nil || decision == domain.Resend {
			e.channel.Emit(ctx, slog.LevelInfo, log.InlineDenied,
				slog.String("decision", decision.String()), slog.String("error", err.Error()))
			return nil, nil
		}
		result, sendErr := e.resend(ctx, scope, p, head)
		if sendErr != nil {
			if domain.Skippable(sendErr) {
				e.channel.Emit(ctx, slog.LevelInfo, log.RenderSkip,
					slog.String("decision", domain.DeleteSend.String()), slog.String("error", sendErr.Error()))
				return nil, nil
			}
			return nil, sendErr
		}
		e.channel.Emit(ctx, slog.LevelInfo, log.ExecutorFallback,
			slog.String("decision", decision.String()), slog.Int("id", result.ID))
		return &Execution{Decision: domain.DeleteSend, Result: result, Stem: head, Payload: p, Fallback: true}, nil
	}
	return nil, err
}

// RefineMeta дополняет подтверждение транспорта недостающими полями из payload и
// сохраненной головы. Erase дает пустую подпись.
func RefineMeta(exec *Execution) domain.Meta {
	if exec == nil {
		return nil
	}
	stem := exec.Stem
	p := exec.Payload

	var meta domain.Meta
	if exec.Result != nil {
		meta = exec.Result.Meta
	}
	if meta == nil {
		if exec.Decision == domain.EditMarkup || exec.Decision == domain.NoChange {
			return domain.MetaOf(stem)
		}
		return nil
	}

	switch m := meta.(type) {
	case domain.TextMeta:
		if m.Text == "" {
			m.Text = p.TextValue()
		}
		if m.Inline == "" && stem != nil {
			m.Inline = stem.Inline
		}
		return m

	case domain.MediaMeta:
		if m.Medium == "" {
			switch {
			case p.Media != nil:
				m.Medium = p.Media.Type
			case stem.IsMedia():
				m.Medium = stem.Media.Type
			}
		}
		if m.File == "" {
			switch {
			case p.Media != nil:
				m.File = p.Media.Path
			case stem.IsMedia():
				m.File = stem.Media.Path
			}
		}
		if m.Caption == nil {
			if caption, ok := payload.Caption(p); ok {
				m.Caption = domain.Str(caption)
			} else if stem.IsMedia() && exec.Decision == domain.EditMarkup {
				m.Caption = domain.Str(stem.Media.Caption)
			}
		}
		if p.Erase {
			m.Caption = domain.Str("")
		}
		if m.Caption != nil {
			m.Caption = domain.Str(strings.TrimSpace(*m.Caption))
		}
		if m.Inline == "" && stem != nil {
			m.Inline = stem.Inline
		}
		return m

	case domain.GroupMeta:
		m.Clusters = append([]domain.MediaMeta(nil), m.Clusters...)
		for i := range m.Clusters {
			if i >= len(p.Group) {
				break
			}
			item := p.Group[i]
			if m.Clusters[i].Medium == "" {
				m.Clusters[i].Medium = item.Type
			}
			if m.Clusters[i].File == "" {
				m.Clusters[i].File = item.Path
			}
			if m.Clusters[i].Caption == nil {
				m.Clusters[i].Caption = domain.Str(item.Caption)
			}
		}
		return m
	}
	return meta
}
