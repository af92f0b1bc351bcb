// Package portstest содержит записывающие фейки портов для тестов.
package portstest

import (
	"context"
	"sync"

	"telegram-navigator/internal/domain"
	"telegram-navigator/internal/ports"
)

// Call — один записанный вызов транспорта.
type Call struct {
	Method  string
	ID      int
	IDs     []int
	Payload domain.Payload
	Text    string
}

// Transport — фейковый транспорт: выдает возрастающие идентификаторы
// и возвращает подтверждения, построенные по payload.
type Transport struct {
	mu     sync.Mutex
	next   int
	calls  []Call
	errors map[string][]error
}

// NewTransport создает фейк, первая отправка которого получит идентификатор first.
func NewTransport(first int) *Transport {
	return &Transport{next: first, errors: make(map[string][]error)}
}

// Fail ставит в очередь ошибку для следующего вызова метода.
func (t *Transport) Fail(method string, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.errors[method] = append(t.errors[method], err)
}

// Calls возвращает копию журнала вызовов.
func (t *Transport) Calls() []Call {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Call(nil), t.calls...)
}

// Methods возвращает имена вызванных методов по порядку.
func (t *Transport) Methods() []string {
	calls := t.Calls()
	out := make([]string, len(calls))
	for i, c := range calls {
		out[i] = c.Method
	}
	return out
}

// Reset очищает журнал вызовов.
func (t *Transport) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls = nil
}

func (t *Transport) record(c Call) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls = append(t.calls, c)
	if queue := t.errors[c.Method]; len(queue) > 0 {
		t.errors[c.Method] = queue[1:]
		return queue[0]
	}
	return nil
}

func (t *Transport) allocate(n int) (int, []int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	id := t.next
	t.next++
	var extras []int
	for i := 1; i < n; i++ {
		extras = append(extras, t.next)
		t.next++
	}
	return id, extras
}

// Send реализует ports.Transport.
func (t *Transport) Send(_ context.Context, scope domain.Scope, p domain.Payload) (*ports.Result, error) {
	if err := t.record(Call{Method: "Send", Payload: p}); err != nil {
		return nil, err
	}
	if scope.IsInline() {
		return &ports.Result{Meta: metaOf(p, scope.Inline)}, nil
	}
	size := 1
	if p.IsGroup() {
		size = len(p.Group)
	}
	id, extras := t.allocate(size)
	return &ports.Result{ID: id, Extras: extras, Meta: metaOf(p, "")}, nil
}

func (t *Transport) edit(method string, scope domain.Scope, id int, p domain.Payload) (*ports.Result, error) {
	if err := t.record(Call{Method: method, ID: id, Payload: p}); err != nil {
		return nil, err
	}
	return &ports.Result{ID: id, Meta: metaOf(p, scope.Inline)}, nil
}

// Rewrite реализует ports.Transport.
func (t *Transport) Rewrite(_ context.Context, scope domain.Scope, id int, p domain.Payload) (*ports.Result, error) {
	return t.edit("Rewrite", scope, id, p)
}

// Recast реализует ports.Transport.
func (t *Transport) Recast(_ context.Context, scope domain.Scope, id int, p domain.Payload) (*ports.Result, error) {
	return t.edit("Recast", scope, id, p)
}

// Retitle реализует ports.Transport.
func (t *Transport) Retitle(_ context.Context, scope domain.Scope, id int, p domain.Payload) (*ports.Result, error) {
	return t.edit("Retitle", scope, id, p)
}

// Remap реализует ports.Transport.
func (t *Transport) Remap(_ context.Context, scope domain.Scope, id int, p domain.Payload) (*ports.Result, error) {
	return t.edit("Remap", scope, id, p)
}

// Delete реализует ports.Transport.
func (t *Transport) Delete(_ context.Context, _ domain.Scope, ids []int) error {
	return t.record(Call{Method: "Delete", IDs: append([]int(nil), ids...)})
}

// Alert реализует ports.Transport.
func (t *Transport) Alert(_ context.Context, _ domain.Scope, text string) error {
	return t.record(Call{Method: "Alert", Text: text})
}

func metaOf(p domain.Payload, inline string) domain.Meta {
	switch {
	case p.IsGroup():
		clusters := make([]domain.MediaMeta, len(p.Group))
		for i, item := range p.Group {
			clusters[i] = domain.MediaMeta{Medium: item.Type, File: item.Path, Caption: domain.Str(item.Caption), Inline: inline}
		}
		return domain.GroupMeta{Clusters: clusters, Inline: inline}
	case p.IsMedia():
		meta := domain.MediaMeta{Medium: p.Media.Type, File: p.Media.Path, Inline: inline}
		if p.Text != nil {
			meta.Caption = domain.Str(*p.Text)
		}
		return meta
	default:
		return domain.TextMeta{Text: p.TextValue(), Inline: inline}
	}
}

var _ ports.Transport = (*Transport)(nil)
