package portstest

import (
	"context"
	"strings"
	"sync"

	"telegram-navigator/internal/domain"
	"telegram-navigator/internal/ports"
)

// Session — сессия хранилища в памяти без сериализации.
type Session struct {
	mu      sync.Mutex
	history []domain.Entry
	last    *int
	state   string
	data    map[string]any
	// Journal фиксирует порядок записей: "archive", "assign", "mark".
	Journal []string
}

// Seed задает начальную историю и маркер.
func (s *Session) Seed(history []domain.Entry, last *int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = domain.CloneHistory(history)
	s.last = last
}

// SetData задает данные состояния.
func (s *Session) SetData(data map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = data
}

// History возвращает копию сохраненной истории.
func (s *Session) History() []domain.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.CloneHistory(s.history)
}

// Last возвращает сохраненный маркер.
func (s *Session) Last() *int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// State возвращает сохраненное состояние.
func (s *Session) State() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Recall реализует ports.HistoryStore.
func (s *Session) Recall(context.Context) ([]domain.Entry, error) {
	return s.History(), nil
}

// Archive реализует ports.HistoryStore.
func (s *Session) Archive(_ context.Context, history []domain.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = domain.CloneHistory(history)
	s.Journal = append(s.Journal, "archive")
	return nil
}

// Peek реализует ports.LastMarkerStore.
func (s *Session) Peek(context.Context) (*int, error) {
	return s.Last(), nil
}

// Mark реализует ports.LastMarkerStore.
func (s *Session) Mark(_ context.Context, id *int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = id
	s.Journal = append(s.Journal, "mark")
	return nil
}

// Status реализует ports.StateStore.
func (s *Session) Status(context.Context) (string, error) {
	return s.State(), nil
}

// Assign реализует ports.StateStore.
func (s *Session) Assign(_ context.Context, state string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
	s.Journal = append(s.Journal, "assign")
	return nil
}

// Payload реализует ports.StateStore.
func (s *Session) Payload(context.Context) (map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]any, len(s.data))
	for k, v := range s.data {
		if !strings.HasPrefix(k, "__nav__") {
			out[k] = v
		}
	}
	return out, nil
}

// Provider выдает по одной сессии на ключ области.
type Provider struct {
	mu       sync.Mutex
	sessions map[domain.ScopeKey]*Session
}

// NewProvider создает пустой провайдер.
func NewProvider() *Provider {
	return &Provider{sessions: make(map[domain.ScopeKey]*Session)}
}

// Session возвращает конкретную сессию области для проверок в тестах.
func (p *Provider) Session(scope domain.Scope) *Session {
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.sessions[scope.Key()]
	if !ok {
		s = &Session{}
		p.sessions[scope.Key()] = s
	}
	return s
}

// For реализует ports.StorageProvider.
func (p *Provider) For(scope domain.Scope) ports.Session {
	return p.Session(scope)
}

var _ ports.StorageProvider = (*Provider)(nil)
