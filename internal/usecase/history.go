// Package usecase реализует операции над историей экранов одной области.
// Вызывающий код обязан сериализовать вызовы по ключу области.
package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"telegram-navigator/internal/core/planner"
	"telegram-navigator/internal/core/restorer"
	"telegram-navigator/internal/domain"
	"telegram-navigator/internal/log"
	"telegram-navigator/internal/ports"
)

// Config — параметры операций над историей.
type Config struct {
	HistoryLimit int
}

// HistoryUseCase инкапсулирует операции навигации: add, replace, back, set, pop,
// rebase, last.* и alert.
type HistoryUseCase struct {
	cfg       Config
	storage   ports.StorageProvider
	transport ports.Transport
	planner   *planner.Planner
	restorer  *restorer.Restorer
	ledger    ports.ViewLedger
	lexicon   ports.Lexicon
	channel   *log.Channel
	now       func() time.Time
}

// NewHistoryUseCase создает новый экземпляр HistoryUseCase.
func NewHistoryUseCase(
	cfg Config,
	storage ports.StorageProvider,
	transport ports.Transport,
	plan *planner.Planner,
	restore *restorer.Restorer,
	ledger ports.ViewLedger,
	lexicon ports.Lexicon,
	telemetry *log.Telemetry,
) *HistoryUseCase {
	return &HistoryUseCase{
		cfg:       cfg,
		storage:   storage,
		transport: transport,
		planner:   plan,
		restorer:  restore,
		ledger:    ledger,
		lexicon:   lexicon,
		channel:   telemetry.Channel("history"),
		now:       time.Now,
	}
}

// WithClock подменяет источник времени для меток сообщений.
func (uc *HistoryUseCase) WithClock(now func() time.Time) *HistoryUseCase {
	uc.now = now
	return uc
}

// tail возвращает последний кадр истории.
func tail(history []domain.Entry) *domain.Entry {
	if len(history) == 0 {
		return nil
	}
	return &history[len(history)-1]
}

// headOf возвращает идентификатор головы последнего кадра или nil.
func headOf(history []domain.Entry) *int {
	if head, ok := tail(history).Head(); ok {
		id := head.ID
		return &id
	}
	return nil
}

// knownView возвращает ключ экрана, если он есть в реестре.
func (uc *HistoryUseCase) knownView(view string) string {
	if view == "" || uc.ledger == nil || !uc.ledger.Has(view) {
		return ""
	}
	return view
}

// mergeContext объединяет данные состояния с контекстом вызова; контекст вызова важнее.
func (uc *HistoryUseCase) mergeContext(ctx context.Context, session ports.Session, args map[string]any) (map[string]any, error) {
	data, err := session.Payload(ctx)
	if err != nil {
		return nil, fmt.Errorf("не удалось загрузить данные состояния: %w", err)
	}
	merged := make(map[string]any, len(data)+len(args))
	for k, v := range data {
		merged[k] = v
	}
	for k, v := range args {
		merged[k] = v
	}
	return merged, nil
}

// commit обрезает историю по лимиту и сохраняет ее. Порядок записи фиксирован:
// сначала история, затем состояние (если задано), затем маркер.
func (uc *HistoryUseCase) commit(ctx context.Context, session ports.Session, history []domain.Entry, state *string, marker *int) error {
	before := len(history)
	history = domain.Trim(history, uc.cfg.HistoryLimit)
	if dropped := before - len(history); dropped > 0 {
		uc.channel.Emit(ctx, slog.LevelDebug, log.HistoryTrim, slog.Int("dropped", dropped), slog.Int("limit", uc.cfg.HistoryLimit))
	}

	if err := session.Archive(ctx, history); err != nil {
		return fmt.Errorf("не удалось сохранить историю: %w", err)
	}
	if state != nil {
		if err := session.Assign(ctx, *state); err != nil {
			return fmt.Errorf("не удалось сохранить состояние: %w", err)
		}
	}
	if err := session.Mark(ctx, marker); err != nil {
		return fmt.Errorf("не удалось сохранить маркер: %w", err)
	}
	return nil
}

func (uc *HistoryUseCase) recall(ctx context.Context, session ports.Session) ([]domain.Entry, error) {
	history, err := session.Recall(ctx)
	if err != nil {
		return nil, fmt.Errorf("не удалось загрузить историю: %w", err)
	}
	return history, nil
}
