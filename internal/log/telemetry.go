package log

import (
	"context"
	"io"
	"log/slog"
)

// Code — типизированный код события телеметрии.
type Code string

const (
	NavigatorAPI           Code = "NAVIGATOR_API"
	GuardAcquired          Code = "GUARD_ACQUIRED"
	GuardReleased          Code = "GUARD_RELEASED"
	RenderDecision         Code = "RENDER_DECISION"
	RenderSkip             Code = "RENDER_SKIP"
	RenderTrim             Code = "RENDER_TRIM"
	RenderAlbumAligned     Code = "RENDER_ALBUM_ALIGNED"
	InlineDenied           Code = "INLINE_DENIED"
	ExecutorFallback       Code = "EXECUTOR_FALLBACK"
	ExecutorUnchanged      Code = "EXECUTOR_UNCHANGED"
	RestoreDynamicFallback Code = "RESTORE_DYNAMIC_FALLBACK"
	HistoryAdd             Code = "HISTORY_ADD"
	HistoryReplace         Code = "HISTORY_REPLACE"
	HistoryBack            Code = "HISTORY_BACK"
	HistorySet             Code = "HISTORY_SET"
	HistoryTrim            Code = "HISTORY_TRIM"
	HistoryUnchanged       Code = "HISTORY_UNCHANGED"
	PopSuccess             Code = "POP_SUCCESS"
	RebaseSuccess          Code = "REBASE_SUCCESS"
	LastEdit               Code = "LAST_EDIT"
	LastEditFallback       Code = "LAST_EDIT_FALLBACK"
	LastDelete             Code = "LAST_DELETE"
	AlertSent              Code = "ALERT_SENT"
	StorageSchemaInvalid   Code = "STORAGE_SCHEMA_INVALID"
)

// Telemetry — источник именованных каналов телеметрии.
// Безопасен для одновременного использования.
type Telemetry struct {
	logger *slog.Logger
}

// NewTelemetry создает телеметрию поверх логгера.
func NewTelemetry(logger *slog.Logger) *Telemetry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Telemetry{logger: logger}
}

// Discard возвращает телеметрию, отбрасывающую все события.
func Discard() *Telemetry {
	return NewTelemetry(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// Channel возвращает канал для указанного источника.
func (t *Telemetry) Channel(origin string) *Channel {
	if t == nil {
		return nil
	}
	return &Channel{origin: origin, logger: t.logger.With(slog.String("origin", origin))}
}

// Channel пишет события одного источника.
type Channel struct {
	origin string
	logger *slog.Logger
}

// Emit записывает событие с кодом и дополнительными полями.
// Вызов на nil-канале ничего не делает.
func (c *Channel) Emit(ctx context.Context, level slog.Level, code Code, args ...any) {
	if c == nil {
		return
	}
	c.logger.Log(ctx, level, string(code), append([]any{slog.String("code", string(code))}, args...)...)
}

// Origin возвращает имя источника канала.
func (c *Channel) Origin() string {
	if c == nil {
		return ""
	}
	return c.origin
}
