package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"telegram-navigator/internal/core/executor"
	"telegram-navigator/internal/core/planner"
	"telegram-navigator/internal/domain"
	"telegram-navigator/internal/log"
	"telegram-navigator/internal/ports"
)

// LastRef — ссылка на последнее головное сообщение области.
type LastRef struct {
	ID     int    `json:"id"`
	Inline string `json:"inline,omitempty"`
	Chat   int64  `json:"chat"`
}

// Pop отбрасывает до count последних кадров, оставляя как минимум один.
// Сообщения в чате не удаляются.
func (uc *HistoryUseCase) Pop(ctx context.Context, scope domain.Scope, count int) error {
	if count < 1 {
		count = 1
	}
	session := uc.storage.For(scope)
	history, err := uc.recall(ctx, session)
	if err != nil {
		return err
	}

	drop := min(count, len(history)-1)
	if drop > 0 {
		history = history[:len(history)-drop]
	}
	if err := uc.commit(ctx, session, history, nil, headOf(history)); err != nil {
		return err
	}
	uc.channel.Emit(ctx, slog.LevelInfo, log.PopSuccess, slog.Int("dropped", max(drop, 0)), slog.Int("size", len(history)))
	return nil
}

// Rebase переносит маркер на сообщение id и подменяет им идентификатор
// головы последнего кадра. Остальные поля кадра не меняются.
func (uc *HistoryUseCase) Rebase(ctx context.Context, scope domain.Scope, id int) error {
	session := uc.storage.For(scope)
	history, err := uc.recall(ctx, session)
	if err != nil {
		return err
	}
	if last := tail(history); last != nil && len(last.Messages) > 0 {
		last.Messages[0].ID = id
	}
	if err := uc.commit(ctx, session, history, nil, &id); err != nil {
		return err
	}
	uc.channel.Emit(ctx, slog.LevelInfo, log.RebaseSuccess, slog.Int("id", id))
	return nil
}

// LastGet возвращает ссылку на последнее головное сообщение или nil.
func (uc *HistoryUseCase) LastGet(ctx context.Context, scope domain.Scope) (*LastRef, error) {
	marker, err := uc.storage.For(scope).Peek(ctx)
	if err != nil {
		return nil, fmt.Errorf("не удалось загрузить маркер: %w", err)
	}
	if marker == nil {
		return nil, nil
	}
	return &LastRef{ID: *marker, Inline: scope.Inline, Chat: scope.Chat}, nil
}

// LastEdit сверяет payload с сообщением, на которое указывает маркер, и правит его.
// Без маркера ничего не делает.
func (uc *HistoryUseCase) LastEdit(ctx context.Context, scope domain.Scope, p domain.Payload) error {
	session := uc.storage.For(scope)
	marker, err := session.Peek(ctx)
	if err != nil {
		return fmt.Errorf("не удалось загрузить маркер: %w", err)
	}
	if marker == nil {
		uc.channel.Emit(ctx, slog.LevelDebug, log.HistoryUnchanged, slog.String("operation", "last.edit"), slog.String("reason", "no marker"))
		return nil
	}
	history, err := uc.recall(ctx, session)
	if err != nil {
		return err
	}

	at, slot := locate(history, *marker)
	if at < 0 {
		uc.channel.Emit(ctx, slog.LevelDebug, log.HistoryUnchanged, slog.String("operation", "last.edit"), slog.Int("id", *marker))
		return nil
	}
	owner := &history[at]
	stored := owner.Messages[slot]

	node, err := uc.planner.Plan(ctx, scope, []domain.Payload{p}, &domain.Entry{Messages: []domain.Message{stored}})
	if err != nil {
		return err
	}
	if len(node.Slots) == 0 {
		return nil
	}

	result := node.Slots[0]
	if result.Skipped && result.Decision.Rewrites() && !scope.IsInline() && result.Payload.Meaningful() {
		fallback, err := uc.resend(ctx, scope, &stored, result.Payload)
		if err != nil {
			return err
		}
		if fallback == nil {
			// Старое сообщение уже удалено из чата: история должна это отразить.
			return uc.discard(ctx, session, history, at, slot)
		}
		node = fallback
		uc.channel.Emit(ctx, slog.LevelInfo, log.LastEditFallback, slog.String("decision", result.Decision.String()))
	} else if !node.Changed {
		uc.channel.Emit(ctx, slog.LevelDebug, log.HistoryUnchanged, slog.String("operation", "last.edit"))
		return nil
	}

	messages, err := planner.Compose(node, uc.now())
	if err != nil {
		return err
	}
	if len(messages) == 0 {
		return nil
	}
	owner.Messages[slot] = messages[0]

	id := messages[0].ID
	if err := uc.commit(ctx, session, history, nil, &id); err != nil {
		return err
	}
	uc.channel.Emit(ctx, slog.LevelInfo, log.LastEdit, slog.Int("id", id), slog.String("decision", node.Slots[0].Decision.String()))
	return nil
}

// resend удаляет сообщение и отправляет payload заново.
func (uc *HistoryUseCase) resend(ctx context.Context, scope domain.Scope, stored *domain.Message, p domain.Payload) (*planner.RenderNode, error) {
	if err := uc.transport.Delete(ctx, scope, stored.IDs()); err != nil {
		return nil, fmt.Errorf("не удалось удалить сообщение: %w", err)
	}
	result, err := uc.transport.Send(ctx, scope, p)
	if err != nil {
		if domain.Skippable(err) {
			uc.channel.Emit(ctx, slog.LevelInfo, log.RenderSkip, slog.String("error", err.Error()))
			return nil, nil
		}
		return nil, fmt.Errorf("не удалось отправить сообщение: %w", err)
	}
	exec := &executor.Execution{Decision: domain.Resend, Result: result, Payload: p}
	slot := planner.Slot{
		Payload:  p,
		Decision: domain.Resend,
		Outcome:  planner.Rendered,
		ID:       result.ID,
		Extras:   result.Extras,
		Meta:     executor.RefineMeta(exec),
	}
	return &planner.RenderNode{Slots: []planner.Slot{slot}, Changed: true}, nil
}

// discard убирает удаленное сообщение из кадра history[at], а опустевший кадр
// из истории целиком. Маркер переносится на голову нового хвоста.
func (uc *HistoryUseCase) discard(ctx context.Context, session ports.Session, history []domain.Entry, at, slot int) error {
	owner := &history[at]
	id := owner.Messages[slot].ID
	owner.Messages = append(owner.Messages[:slot:slot], owner.Messages[slot+1:]...)
	if len(owner.Messages) == 0 {
		history = append(history[:at:at], history[at+1:]...)
	}
	if err := uc.commit(ctx, session, history, nil, headOf(history)); err != nil {
		return err
	}
	uc.channel.Emit(ctx, slog.LevelInfo, log.LastEditFallback,
		slog.String("reason", "send skipped"), slog.Int("id", id), slog.Int("size", len(history)))
	return nil
}

// locate ищет от хвоста кадр, содержащий сообщение id.
func locate(history []domain.Entry, id int) (int, int) {
	for i := len(history) - 1; i >= 0; i-- {
		for j, m := range history[i].Messages {
			if m.ID == id {
				return i, j
			}
		}
	}
	return -1, -1
}

// LastDelete удаляет последний кадр. В inline-режиме без бизнес-подключения
// удалить сообщение нельзя, поэтому кадр только убирается из истории.
func (uc *HistoryUseCase) LastDelete(ctx context.Context, scope domain.Scope) error {
	session := uc.storage.For(scope)
	history, err := uc.recall(ctx, session)
	if err != nil {
		return err
	}
	last := tail(history)
	if last == nil {
		return nil
	}

	if scope.IsInline() && !scope.IsBusiness() {
		history = history[:len(history)-1]
		if err := uc.commit(ctx, session, history, nil, headOf(history)); err != nil {
			return err
		}
		uc.channel.Emit(ctx, slog.LevelInfo, log.LastDelete, slog.Bool("inline", true), slog.Int("size", len(history)))
		return nil
	}

	ids := last.IDs()
	if len(ids) > 0 {
		if err := uc.transport.Delete(ctx, scope, ids); err != nil {
			return fmt.Errorf("не удалось удалить сообщения: %w", err)
		}
	}
	history = history[:len(history)-1]
	if err := uc.commit(ctx, session, history, nil, nil); err != nil {
		return err
	}
	uc.channel.Emit(ctx, slog.LevelInfo, log.LastDelete, slog.Any("ids", ids), slog.Int("size", len(history)))
	return nil
}

// Alert показывает уведомление. Пустой text заменяется текстом по умолчанию для области.
func (uc *HistoryUseCase) Alert(ctx context.Context, scope domain.Scope, text string) error {
	if text == "" && uc.lexicon != nil {
		text = uc.lexicon.Alert(scope)
	}
	if err := uc.transport.Alert(ctx, scope, text); err != nil {
		return fmt.Errorf("не удалось показать уведомление: %w", err)
	}
	uc.channel.Emit(ctx, slog.LevelDebug, log.AlertSent, slog.String("text", text))
	return nil
}
