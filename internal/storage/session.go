package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"telegram-navigator/internal/codec"
	"telegram-navigator/internal/domain"
	"telegram-navigator/internal/log"
	"telegram-navigator/internal/ports"
)

// Document — сохраняемый документ FSM одной области.
type Document struct {
	State *string                    `json:"state"`
	Data  map[string]json.RawMessage `json:"data"`
}

// namespace — содержимое Data[codec.NamespaceKey], разобранное лишь поверхностно,
// чтобы запись маркера не требовала разбора истории.
type namespace struct {
	History json.RawMessage `json:"history"`
	Last    *int            `json:"last"`
}

// Option настраивает Provider.
type Option func(*Provider)

// WithValidator включает проверку пространства навигатора по схеме при чтении.
func WithValidator(v *codec.Validator) Option {
	return func(p *Provider) { p.validator = v }
}

// WithTelemetry задает телеметрию хранилища.
func WithTelemetry(t *log.Telemetry) Option {
	return func(p *Provider) { p.channel = t.Channel("storage") }
}

// Provider выдает сессии хранилища поверх бэкенда.
type Provider struct {
	backend   Backend
	validator *codec.Validator
	channel   *log.Channel
}

// NewProvider создает провайдер сессий.
func NewProvider(backend Backend, opts ...Option) *Provider {
	p := &Provider{backend: backend}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// For реализует ports.StorageProvider.
func (p *Provider) For(scope domain.Scope) ports.Session {
	return p.Session(scope.Key())
}

// Session возвращает сессию для ключа области.
func (p *Provider) Session(key domain.ScopeKey) *Session {
	return &Session{provider: p, key: key.String()}
}

// Keys перечисляет ключи областей, для которых есть документы.
func (p *Provider) Keys(ctx context.Context) ([]string, error) {
	return p.backend.Keys(ctx)
}

// Raw возвращает пространство навигатора области в сохраненном виде или nil.
func (p *Provider) Raw(ctx context.Context, key domain.ScopeKey) (json.RawMessage, error) {
	doc, err := p.Session(key).load(ctx)
	if err != nil {
		return nil, err
	}
	return doc.Data[codec.NamespaceKey], nil
}

// Session — хранилище одной области. Реализует ports.Session.
// Каждая операция читает и записывает документ целиком.
type Session struct {
	provider *Provider
	key      string
}

// Key возвращает ключ документа.
func (s *Session) Key() string {
	return s.key
}

func (s *Session) load(ctx context.Context) (*Document, error) {
	raw, err := s.provider.backend.Load(ctx, s.key)
	if err != nil {
		return nil, err
	}
	doc := &Document{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, doc); err != nil {
			return nil, fmt.Errorf("документ %s поврежден: %w", s.key, err)
		}
	}
	if doc.Data == nil {
		doc.Data = make(map[string]json.RawMessage)
	}
	return doc, nil
}

func (s *Session) save(ctx context.Context, doc *Document) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("не удалось закодировать документ %s: %w", s.key, err)
	}
	return s.provider.backend.Save(ctx, s.key, raw)
}

func (s *Session) namespace(doc *Document) (namespace, error) {
	var ns namespace
	raw := doc.Data[codec.NamespaceKey]
	if len(raw) == 0 || string(raw) == "null" {
		return ns, nil
	}
	if err := json.Unmarshal(raw, &ns); err != nil {
		return ns, fmt.Errorf("пространство навигатора %s повреждено: %w", s.key, err)
	}
	return ns, nil
}

func (s *Session) store(doc *Document, ns namespace) error {
	if ns.History == nil {
		ns.History = json.RawMessage("[]")
	}
	raw, err := json.Marshal(ns)
	if err != nil {
		return fmt.Errorf("не удалось закодировать пространство навигатора: %w", err)
	}
	doc.Data[codec.NamespaceKey] = raw
	return nil
}

// Recall реализует ports.HistoryStore.
func (s *Session) Recall(ctx context.Context) ([]domain.Entry, error) {
	doc, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	raw := doc.Data[codec.NamespaceKey]
	if len(raw) == 0 {
		return nil, nil
	}
	if v := s.provider.validator; v != nil {
		if err := v.Validate(raw); err != nil {
			s.provider.channel.Emit(ctx, slog.LevelError, log.StorageSchemaInvalid,
				slog.String("key", s.key), slog.String("error", err.Error()))
			return nil, err
		}
	}
	history, _, err := codec.DecodeNamespace(raw)
	if err != nil {
		return nil, fmt.Errorf("не удалось разобрать историю %s: %w", s.key, err)
	}
	return history, nil
}

// Archive реализует ports.HistoryStore.
func (s *Session) Archive(ctx context.Context, history []domain.Entry) error {
	doc, err := s.load(ctx)
	if err != nil {
		return err
	}
	ns, err := s.namespace(doc)
	if err != nil {
		return err
	}
	ns.History, err = codec.EncodeHistory(history)
	if err != nil {
		return err
	}
	if err := s.store(doc, ns); err != nil {
		return err
	}
	return s.save(ctx, doc)
}

// Peek реализует ports.LastMarkerStore.
func (s *Session) Peek(ctx context.Context) (*int, error) {
	doc, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	ns, err := s.namespace(doc)
	if err != nil {
		return nil, err
	}
	return ns.Last, nil
}

// Mark реализует ports.LastMarkerStore.
func (s *Session) Mark(ctx context.Context, id *int) error {
	doc, err := s.load(ctx)
	if err != nil {
		return err
	}
	ns, err := s.namespace(doc)
	if err != nil {
		return err
	}
	ns.Last = id
	if err := s.store(doc, ns); err != nil {
		return err
	}
	return s.save(ctx, doc)
}

// Status реализует ports.StateStore.
func (s *Session) Status(ctx context.Context) (string, error) {
	doc, err := s.load(ctx)
	if err != nil {
		return "", err
	}
	if doc.State == nil {
		return "", nil
	}
	return *doc.State, nil
}

// Assign реализует ports.StateStore. Пустое состояние сохраняется как null.
func (s *Session) Assign(ctx context.Context, state string) error {
	doc, err := s.load(ctx)
	if err != nil {
		return err
	}
	doc.State = nil
	if state != "" {
		doc.State = &state
	}
	return s.save(ctx, doc)
}

// Payload реализует ports.StateStore.
func (s *Session) Payload(ctx context.Context) (map[string]any, error) {
	doc, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]any, len(doc.Data))
	for key, raw := range doc.Data {
		if strings.HasPrefix(key, codec.NamespaceKey) {
			continue
		}
		var value any
		if err := json.Unmarshal(raw, &value); err != nil {
			return nil, fmt.Errorf("данные %q повреждены: %w", key, err)
		}
		out[key] = value
	}
	return out, nil
}

// ErrReservedKey — ключ данных занят пространством навигатора.
var ErrReservedKey = errors.New("reserved data key")

// Update дописывает значения в данные состояния. Ключи с префиксом
// пространства навигатора запрещены.
func (s *Session) Update(ctx context.Context, values map[string]any) error {
	doc, err := s.load(ctx)
	if err != nil {
		return err
	}
	for key, value := range values {
		if strings.HasPrefix(key, codec.NamespaceKey) {
			return fmt.Errorf("%w: %s", ErrReservedKey, key)
		}
		raw, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("не удалось закодировать значение %q: %w", key, err)
		}
		doc.Data[key] = raw
	}
	return s.save(ctx, doc)
}

// Reset удаляет документ области.
func (s *Session) Reset(ctx context.Context) error {
	return s.provider.backend.Delete(ctx, s.key)
}

var (
	_ ports.Session         = (*Session)(nil)
	_ ports.StorageProvider = (*Provider)(nil)
)
