// Package planner сверяет набор новых payload с сохраненным кадром истории
// и выполняет минимальный набор правок.
package planner

import (
	"context"
	"fmt"
	"log/slog"

	"telegram-navigator/internal/core/decision"
	"telegram-navigator/internal/core/executor"
	"telegram-navigator/internal/core/payload"
	"telegram-navigator/internal/domain"
	"telegram-navigator/internal/log"
)

// Outcome — что произошло со слотом при отрисовке.
type Outcome int

const (
	// Rendered — слот изменен в чате.
	Rendered Outcome = iota
	// Retained — сохраненное сообщение осталось без изменений.
	Retained
	// Omitted — сообщение не отправлено (пропуск без предшественника).
	Omitted
)

// Slot — результат отрисовки одной позиции кадра.
type Slot struct {
	Index    int
	Payload  domain.Payload
	Stored   *domain.Message
	Decision domain.Decision
	Outcome  Outcome
	// Skipped означает, что исполнитель поглотил ошибку и ничего не изменил;
	// Decision тогда хранит непримененное решение.
	Skipped  bool
	ID       int
	Extras   []int
	Meta     domain.Meta
}

// RenderNode — результат отрисовки кадра.
type RenderNode struct {
	Slots   []Slot
	Trimmed []int
	Changed bool
}

// IDs возвращает идентификаторы головных сообщений отображенных слотов.
func (n *RenderNode) IDs() []int {
	var ids []int
	for _, s := range n.Slots {
		if s.Outcome != Omitted {
			ids = append(ids, s.ID)
		}
	}
	return ids
}

// Extras возвращает идентификаторы элементов альбомов по слотам.
func (n *RenderNode) Extras() [][]int {
	var out [][]int
	for _, s := range n.Slots {
		if s.Outcome != Omitted {
			out = append(out, s.Extras)
		}
	}
	return out
}

// Metas возвращает подтверждения по слотам.
func (n *RenderNode) Metas() []domain.Meta {
	var out []domain.Meta
	for _, s := range n.Slots {
		if s.Outcome != Omitted {
			out = append(out, s.Meta)
		}
	}
	return out
}

// Head возвращает идентификатор первого отображенного сообщения.
func (n *RenderNode) Head() (int, bool) {
	for _, s := range n.Slots {
		if s.Outcome != Omitted {
			return s.ID, true
		}
	}
	return 0, false
}

// Options — настройки планировщика.
type Options struct {
	Policy decision.Policy
	Inline decision.InlineRules
}

// Planner строит и выполняет план отрисовки кадра.
type Planner struct {
	normalizer *payload.Normalizer
	executor   *executor.Executor
	opts       Options
	channel    *log.Channel
}

// New создает планировщик.
func New(normalizer *payload.Normalizer, exec *executor.Executor, opts Options, telemetry *log.Telemetry) *Planner {
	return &Planner{
		normalizer: normalizer,
		executor:   exec,
		opts:       opts,
		channel:    telemetry.Channel("planner"),
	}
}

// Prepare нормализует набор и фильтрует разметку по области.
// В inline-режиме набор из нескольких payload или альбом отклоняются.
func (p *Planner) Prepare(scope domain.Scope, bundle []domain.Payload) ([]domain.Payload, error) {
	inline := scope.IsInline()
	if inline && len(bundle) > 1 {
		return nil, fmt.Errorf("%w: %d payloads", domain.ErrInlineUnsupported, len(bundle))
	}

	out := make([]domain.Payload, 0, len(bundle))
	for i, raw := range bundle {
		norm, err := p.normalizer.Normalize(raw)
		if err != nil {
			return nil, fmt.Errorf("payload %d: %w", i, err)
		}
		if inline && norm.IsGroup() {
			return nil, fmt.Errorf("%w: media group", domain.ErrInlineUnsupported)
		}
		out = append(out, p.normalizer.Adapt(scope, norm))
	}
	return out, nil
}

// Plan отрисовывает bundle поверх сохраненного кадра tail.
func (p *Planner) Plan(ctx context.Context, scope domain.Scope, bundle []domain.Payload, tail *domain.Entry) (*RenderNode, error) {
	fresh, err := p.Prepare(scope, bundle)
	if err != nil {
		return nil, err
	}
	inline := scope.IsInline()

	var stored []domain.Message
	if tail != nil {
		stored = tail.Messages
	}

	node := &RenderNode{Slots: make([]Slot, 0, len(fresh))}
	start := 0

	if !inline && len(stored) > 0 && len(fresh) > 0 && stored[0].IsGroup() && fresh[0].IsGroup() {
		slot, ok, err := p.align(ctx, scope, &stored[0], fresh[0])
		if err != nil {
			return nil, err
		}
		if ok {
			node.Slots = append(node.Slots, slot)
			node.Changed = node.Changed || slot.Outcome == Rendered
			start = 1
		}
	}

	overlap := min(len(stored), len(fresh))
	if inline {
		// Inline-сообщение всегда одно: слот без предшественника отрисовывается тут же.
		overlap = len(fresh)
	}
	for i := start; i < overlap; i++ {
		var old *domain.Message
		if i < len(stored) {
			old = &stored[i]
		}
		slot, err := p.render(ctx, scope, i, old, fresh[i], inline)
		if err != nil {
			return nil, err
		}
		node.Slots = append(node.Slots, slot)
		node.Changed = node.Changed || slot.Outcome == Rendered
	}
	if inline {
		return node, nil
	}

	if len(stored) > len(fresh) {
		for i := len(fresh); i < len(stored); i++ {
			node.Trimmed = append(node.Trimmed, stored[i].IDs()...)
		}
		if err := p.executor.Purge(ctx, scope, node.Trimmed); err != nil {
			return nil, err
		}
		p.channel.Emit(ctx, slog.LevelDebug, log.RenderTrim, slog.Any("ids", node.Trimmed))
		node.Changed = true
	}

	for i := len(stored); i < len(fresh); i++ {
		slot, err := p.render(ctx, scope, i, nil, fresh[i], false)
		if err != nil {
			return nil, err
		}
		node.Slots = append(node.Slots, slot)
		node.Changed = node.Changed || slot.Outcome == Rendered
	}
	return node, nil
}

// render сверяет и отрисовывает один слот.
func (p *Planner) render(ctx context.Context, scope domain.Scope, index int, old *domain.Message, fresh domain.Payload, inline bool) (Slot, error) {
	slot := Slot{Index: index, Payload: fresh, Stored: old}

	decided := decision.Decide(old, fresh, p.opts.Policy)
	what, body := decided, fresh
	if inline {
		verdict, err := decision.Reconcile(old, fresh, decided, p.opts.Inline)
		if err != nil {
			return slot, err
		}
		if verdict.Denied {
			p.channel.Emit(ctx, slog.LevelInfo, log.InlineDenied, slog.Int("slot", index), slog.String("reason", verdict.Reason))
			return p.retain(slot), nil
		}
		what, body = verdict.Decision, verdict.Payload
	}
	slot.Decision = what
	p.channel.Emit(ctx, slog.LevelDebug, log.RenderDecision, slog.Int("slot", index), slog.String("decision", what.String()))

	if what == domain.NoChange {
		return p.retain(slot), nil
	}

	exec, err := p.executor.Execute(ctx, scope, what, body, old)
	if err != nil {
		return slot, err
	}
	if exec == nil {
		slot = p.retain(slot)
		slot.Skipped = true
		slot.Decision = what
		return slot, nil
	}
	if exec.Decision == domain.NoChange {
		return p.retain(slot), nil
	}

	slot.Outcome = Rendered
	slot.Decision = exec.Decision
	slot.Payload = exec.Payload
	slot.Meta = executor.RefineMeta(exec)
	if exec.Result != nil {
		slot.ID, slot.Extras = exec.Result.ID, exec.Result.Extras
	}
	if exec.Decision != domain.Resend && exec.Decision != domain.DeleteSend && old != nil {
		// Правка на месте сохраняет идентификаторы.
		if slot.ID == 0 {
			slot.ID = old.ID
		}
		if len(slot.Extras) == 0 {
			slot.Extras = append([]int(nil), old.Extras...)
		}
	}
	return slot, nil
}

// retain оставляет сохраненное сообщение слота как есть.
// Без предшественника слот считается неотправленным.
func (p *Planner) retain(slot Slot) Slot {
	if slot.Stored == nil {
		slot.Outcome = Omitted
		return slot
	}
	slot.Outcome = Retained
	slot.Decision = domain.NoChange
	slot.ID = slot.Stored.ID
	slot.Extras = append([]int(nil), slot.Stored.Extras...)
	slot.Meta = domain.MetaOf(slot.Stored)
	return slot
}

// align пытается править головной альбом поэлементно.
func (p *Planner) align(ctx context.Context, scope domain.Scope, old *domain.Message, fresh domain.Payload) (Slot, bool, error) {
	plan, ok := decision.Align(old, fresh, p.normalizer.Limits(), p.opts.Policy)
	if !ok {
		return Slot{}, false, nil
	}
	slot := Slot{Index: 0, Payload: fresh, Stored: old}
	if !plan.Mutated {
		return p.retain(slot), true, nil
	}

	// Элементы и разметка, правку которых транспорт не принял, остаются прежними.
	accepted := fresh.Clone()
	applied := 0
	for _, m := range plan.Mutations {
		target := &domain.Message{ID: m.Target, Inline: old.Inline}
		if m.Slot < len(old.Group) {
			item := old.Group[m.Slot].Clone()
			target.Media = &item
		}
		if m.Slot == 0 {
			target.Markup = old.Markup
		}
		exec, err := p.executor.Patch(ctx, scope, m.Decision, m.Payload, target)
		if err != nil {
			return Slot{}, false, err
		}
		if exec != nil {
			applied++
			continue
		}
		if m.Decision == domain.EditMarkup {
			accepted.Reply = old.Markup.Clone()
		} else if m.Slot < len(old.Group) && m.Slot < len(accepted.Group) {
			accepted.Group[m.Slot] = old.Group[m.Slot].Clone()
		}
	}
	p.channel.Emit(ctx, slog.LevelDebug, log.RenderAlbumAligned,
		slog.Int("id", plan.HeadID), slog.Int("mutations", len(plan.Mutations)), slog.Int("applied", applied))

	if applied == 0 {
		slot = p.retain(slot)
		slot.Skipped = true
		slot.Decision = plan.Mutations[0].Decision
		return slot, true, nil
	}

	meta := domain.GroupMeta{Clusters: make([]domain.MediaMeta, len(accepted.Group)), Inline: old.Inline}
	for i, item := range accepted.Group {
		meta.Clusters[i] = domain.MediaMeta{Medium: item.Type, File: item.Path, Caption: domain.Str(item.Caption), Inline: old.Inline}
	}

	slot.Outcome = Rendered
	slot.Decision = plan.Mutations[0].Decision
	slot.Payload = accepted
	slot.ID = plan.HeadID
	slot.Extras = plan.Extras
	slot.Meta = meta
	return slot, true, nil
}
