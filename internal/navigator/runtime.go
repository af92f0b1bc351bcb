// Package navigator — точка входа ядра: связывает область с операциями над историей,
// сериализует вызовы по области и пишет телеметрию каждого вызова.
package navigator

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"telegram-navigator/internal/core/decision"
	"telegram-navigator/internal/core/executor"
	"telegram-navigator/internal/core/payload"
	"telegram-navigator/internal/core/planner"
	"telegram-navigator/internal/core/restorer"
	"telegram-navigator/internal/domain"
	"telegram-navigator/internal/guard"
	"telegram-navigator/internal/log"
	"telegram-navigator/internal/ports"
	"telegram-navigator/internal/usecase"
)

// DefaultHistoryLimit — число кадров истории по умолчанию.
const DefaultHistoryLimit = 18

// Options — настройки ядра.
type Options struct {
	HistoryLimit int
	Limits       payload.Limits
	Policy       decision.Policy
	Inline       decision.InlineRules
}

// DefaultOptions возвращает настройки по умолчанию.
func DefaultOptions() Options {
	return Options{
		HistoryLimit: DefaultHistoryLimit,
		Limits:       payload.DefaultLimits(),
		Inline:       decision.InlineRules{StrictPath: true},
	}
}

// Builder собирает Runtime из портов.
type Builder struct {
	transport ports.Transport
	storage   ports.StorageProvider
	ledger    ports.ViewLedger
	lexicon   ports.Lexicon
	guard     ports.ScopeLockProvider
	telemetry *log.Telemetry
	options   Options
	clock     func() time.Time
}

// NewBuilder создает сборщик с обязательными портами.
func NewBuilder(transport ports.Transport, storage ports.StorageProvider) *Builder {
	return &Builder{transport: transport, storage: storage, options: DefaultOptions()}
}

// WithLedger задает реестр экранов.
func (b *Builder) WithLedger(ledger ports.ViewLedger) *Builder {
	b.ledger = ledger
	return b
}

// WithLexicon задает источник текстов уведомлений.
func (b *Builder) WithLexicon(lexicon ports.Lexicon) *Builder {
	b.lexicon = lexicon
	return b
}

// WithGuard задает провайдер блокировок. По умолчанию используется реестр в памяти.
func (b *Builder) WithGuard(provider ports.ScopeLockProvider) *Builder {
	b.guard = provider
	return b
}

// WithTelemetry задает телеметрию.
func (b *Builder) WithTelemetry(telemetry *log.Telemetry) *Builder {
	b.telemetry = telemetry
	return b
}

// WithOptions задает настройки ядра.
func (b *Builder) WithOptions(options Options) *Builder {
	b.options = options
	return b
}

// WithClock подменяет источник времени.
func (b *Builder) WithClock(clock func() time.Time) *Builder {
	b.clock = clock
	return b
}

// Build связывает компоненты ядра.
func (b *Builder) Build() (*Runtime, error) {
	if b.transport == nil {
		return nil, errors.New("транспорт не задан")
	}
	if b.storage == nil {
		return nil, errors.New("хранилище не задано")
	}
	telemetry := b.telemetry
	if telemetry == nil {
		telemetry = log.NewTelemetry(slog.Default())
	}
	provider := b.guard
	if provider == nil {
		provider = guard.NewRegistry()
	}
	opts := b.options
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = DefaultHistoryLimit
	}

	normalizer := payload.NewNormalizer(opts.Limits)
	exec := executor.New(b.transport, normalizer, telemetry)
	plan := planner.New(normalizer, exec, planner.Options{Policy: opts.Policy, Inline: opts.Inline}, telemetry)
	restore := restorer.New(b.ledger, telemetry)

	history := usecase.NewHistoryUseCase(usecase.Config{HistoryLimit: opts.HistoryLimit},
		b.storage, b.transport, plan, restore, b.ledger, b.lexicon, telemetry)
	if b.clock != nil {
		history.WithClock(b.clock)
	}

	return &Runtime{
		history: history,
		guard:   provider,
		channel: telemetry.Channel("navigator"),
	}, nil
}

// Runtime — собранное ядро, общее для всех областей. Безопасен для одновременного использования.
type Runtime struct {
	history *usecase.HistoryUseCase
	guard   ports.ScopeLockProvider
	channel *log.Channel
}

// Bind возвращает навигатор для области scope.
func (r *Runtime) Bind(scope domain.Scope) *Navigator {
	return &Navigator{runtime: r, scope: scope}
}

// call пишет событие NAVIGATOR_API и выполняет fn под блокировкой области.
func (r *Runtime) call(ctx context.Context, scope domain.Scope, method string, fn func(ctx context.Context) error) error {
	op := uuid.NewString()
	r.channel.Emit(ctx, slog.LevelInfo, log.NavigatorAPI,
		slog.String("method", method), slog.String("op", op), profile(scope))

	key := scope.Key()
	return guard.Hold(ctx, r.guard, key, func(ctx context.Context) error {
		r.channel.Emit(ctx, slog.LevelDebug, log.GuardAcquired, slog.String("op", op), slog.String("key", key.String()))
		defer r.channel.Emit(ctx, slog.LevelDebug, log.GuardReleased, slog.String("op", op), slog.String("key", key.String()))
		return fn(ctx)
	})
}

// profile возвращает краткое описание области для телеметрии.
func profile(scope domain.Scope) slog.Attr {
	attrs := []any{slog.Int64("chat", scope.Chat)}
	if scope.Inline != "" {
		attrs = append(attrs, slog.String("inline", scope.Inline))
	}
	if scope.Business != "" {
		attrs = append(attrs, slog.String("business", scope.Business))
	}
	if scope.Lang != "" {
		attrs = append(attrs, slog.String("lang", scope.Lang))
	}
	if scope.Topic != 0 {
		attrs = append(attrs, slog.Int("topic", scope.Topic))
	}
	return slog.Group("scope", attrs...)
}
