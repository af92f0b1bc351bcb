package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"telegram-navigator/internal/core/planner"
	"telegram-navigator/internal/domain"
	"telegram-navigator/internal/log"
	"telegram-navigator/internal/ports"
)

// Add отрисовывает новый экран поверх последнего кадра и добавляет его в историю.
// root заменяет всю историю одним корневым кадром.
func (uc *HistoryUseCase) Add(ctx context.Context, scope domain.Scope, bundle []domain.Payload, view string, root bool) error {
	session := uc.storage.For(scope)
	history, err := uc.recall(ctx, session)
	if err != nil {
		return err
	}

	node, err := uc.planner.Plan(ctx, scope, bundle, tail(history))
	if err != nil {
		return err
	}
	if !node.Changed && !root {
		uc.channel.Emit(ctx, slog.LevelDebug, log.HistoryUnchanged, slog.String("operation", "add"))
		return nil
	}

	messages, err := planner.Compose(node, uc.now())
	if err != nil {
		return err
	}
	state, err := session.Status(ctx)
	if err != nil {
		return fmt.Errorf("не удалось загрузить состояние: %w", err)
	}

	entry := domain.Entry{State: state, View: uc.knownView(view), Messages: messages, Root: root}
	if root {
		history = []domain.Entry{entry}
	} else {
		history = append(history, entry)
	}
	if err := uc.commit(ctx, session, history, nil, headOf(history)); err != nil {
		return err
	}
	uc.channel.Emit(ctx, slog.LevelInfo, log.HistoryAdd,
		slog.Int("size", len(history)), slog.String("view", entry.View), slog.Bool("root", root), slog.Any("ids", node.IDs()))
	return nil
}

// Replace отрисовывает экран поверх последнего кадра и подменяет этот кадр.
// Новый кадр наследует ключ экрана, состояние и признак корня. На пустой истории
// работает как Add.
func (uc *HistoryUseCase) Replace(ctx context.Context, scope domain.Scope, bundle []domain.Payload) error {
	session := uc.storage.For(scope)
	history, err := uc.recall(ctx, session)
	if err != nil {
		return err
	}
	last := tail(history)
	if last == nil {
		return uc.Add(ctx, scope, bundle, "", false)
	}

	node, err := uc.planner.Plan(ctx, scope, bundle, last)
	if err != nil {
		return err
	}
	if !node.Changed {
		uc.channel.Emit(ctx, slog.LevelDebug, log.HistoryUnchanged, slog.String("operation", "replace"))
		return nil
	}
	messages, err := planner.Compose(node, uc.now())
	if err != nil {
		return err
	}

	history[len(history)-1] = domain.Entry{State: last.State, View: last.View, Messages: messages, Root: last.Root}
	if err := uc.commit(ctx, session, history, nil, headOf(history)); err != nil {
		return err
	}
	uc.channel.Emit(ctx, slog.LevelInfo, log.HistoryReplace, slog.Int("size", len(history)), slog.Any("ids", node.IDs()))
	return nil
}

// Back возвращает предыдущий экран. Требует не менее двух кадров.
func (uc *HistoryUseCase) Back(ctx context.Context, scope domain.Scope, args map[string]any) error {
	session := uc.storage.For(scope)
	history, err := uc.recall(ctx, session)
	if err != nil {
		return err
	}
	if len(history) < 2 {
		return fmt.Errorf("%w: %d entries", domain.ErrHistoryEmpty, len(history))
	}

	target, origin := history[len(history)-2], history[len(history)-1]
	node, err := uc.revive(ctx, scope, session, target, &origin, args)
	if err != nil {
		return err
	}

	history = history[:len(history)-1]
	if err := uc.reindex(history, len(history)-1, node); err != nil {
		return err
	}
	state := target.State
	if err := uc.commit(ctx, session, history, &state, headOf(history)); err != nil {
		return err
	}
	uc.channel.Emit(ctx, slog.LevelInfo, log.HistoryBack,
		slog.Int("size", len(history)), slog.String("state", state), slog.Bool("changed", node.Changed))
	return nil
}

// Set возвращается к последнему кадру с состоянием goal, отбрасывая все кадры после него.
func (uc *HistoryUseCase) Set(ctx context.Context, scope domain.Scope, goal string, args map[string]any) error {
	session := uc.storage.For(scope)
	history, err := uc.recall(ctx, session)
	if err != nil {
		return err
	}

	cursor := -1
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].State == goal {
			cursor = i
			break
		}
	}
	if cursor < 0 {
		return fmt.Errorf("%w: %q", domain.ErrStateNotFound, goal)
	}

	target, origin := history[cursor], history[len(history)-1]
	node, err := uc.revive(ctx, scope, session, target, &origin, args)
	if err != nil {
		return err
	}

	history = history[:cursor+1]
	if err := uc.reindex(history, cursor, node); err != nil {
		return err
	}
	if err := uc.commit(ctx, session, history, &goal, headOf(history)); err != nil {
		return err
	}
	uc.channel.Emit(ctx, slog.LevelInfo, log.HistorySet,
		slog.String("state", goal), slog.Int("size", len(history)), slog.Bool("changed", node.Changed))
	return nil
}

// revive восстанавливает payload кадра target и отрисовывает их поверх origin.
func (uc *HistoryUseCase) revive(ctx context.Context, scope domain.Scope, session ports.Session, target domain.Entry, origin *domain.Entry, args map[string]any) (*planner.RenderNode, error) {
	merged, err := uc.mergeContext(ctx, session, args)
	if err != nil {
		return nil, err
	}
	bundle, err := uc.restorer.Revive(ctx, scope, target, merged)
	if err != nil {
		return nil, err
	}
	return uc.planner.Plan(ctx, scope, bundle, origin)
}

// reindex переписывает сообщения кадра history[at] по результату отрисовки.
func (uc *HistoryUseCase) reindex(history []domain.Entry, at int, node *planner.RenderNode) error {
	messages, err := planner.Reindex(node, history[at].Messages, uc.now())
	if err != nil {
		return err
	}
	if len(messages) > 0 {
		history[at].Messages = messages
	}
	return nil
}
