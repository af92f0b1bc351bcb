package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"telegram-navigator/internal/codec"
	"telegram-navigator/internal/core/decision"
	"telegram-navigator/internal/core/payload"
	"telegram-navigator/internal/domain"
	"telegram-navigator/internal/guard"
	"telegram-navigator/internal/log"
	"telegram-navigator/internal/navigator"
	"telegram-navigator/internal/pkg/config"
	"telegram-navigator/internal/ports"
	"telegram-navigator/internal/storage"
)

// loadConfig загружает и проверяет конфигурацию.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("не удалось загрузить конфигурацию: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("конфигурация не прошла проверку: %w", err)
	}
	return cfg, nil
}

// newLogger создает логгер с маскировкой по настройкам logging.
func newLogger(cfg config.Logging, out io.Writer) (*slog.Logger, error) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	var handler slog.Handler
	switch cfg.Format {
	case "text":
		handler = slog.NewTextHandler(out, &slog.HandlerOptions{Level: level})
	default:
		handler = slog.NewJSONHandler(out, &slog.HandlerOptions{Level: level})
	}

	mode, err := log.ParseMode(cfg.Redaction)
	if err != nil {
		return nil, err
	}
	return log.NewLogger(handler, mode), nil
}

// storageDSN добавляет TTL из конфигурации к памяти, если он не задан в строке.
func storageDSN(cfg config.Storage) string {
	dsn := strings.TrimSpace(cfg.DSN)
	if cfg.TTL <= 0 || strings.Contains(dsn, "ttl=") {
		return dsn
	}
	if dsn == "" || strings.HasPrefix(dsn, "memory:") || strings.HasPrefix(dsn, "mem:") {
		if dsn == "" {
			dsn = "memory://"
		}
		return dsn + "?ttl=" + cfg.TTL.String()
	}
	return dsn
}

// openStorage открывает бэкенд и провайдер сессий. Для памяти запускается
// очистка просроченных документов до отмены ctx.
func openStorage(ctx context.Context, cfg config.Storage, telemetry *log.Telemetry) (storage.Backend, *storage.Provider, error) {
	backend, err := storage.Open(storageDSN(cfg))
	if err != nil {
		return nil, nil, fmt.Errorf("не удалось открыть хранилище: %w", err)
	}
	if memory, ok := backend.(*storage.Memory); ok {
		memory.StartCleanupTicker(ctx, cfg.CleanupInterval)
	}

	opts := []storage.Option{storage.WithTelemetry(telemetry)}
	if cfg.ValidateSchema {
		validator, err := codec.NewValidator()
		if err != nil {
			_ = backend.Close()
			return nil, nil, err
		}
		opts = append(opts, storage.WithValidator(validator))
	}
	return backend, storage.NewProvider(backend, opts...), nil
}

// scopeGuard выбирает блокировки областей: advisory-блокировки Postgres,
// если задан lock_dsn, иначе реестр в памяти процесса.
func scopeGuard(cfg config.Storage) (ports.ScopeLockProvider, func() error, error) {
	if cfg.LockDSN == "" {
		return guard.NewRegistry(), func() error { return nil }, nil
	}
	latch, err := guard.NewAdvisoryLatch(cfg.LockDSN)
	if err != nil {
		return nil, nil, err
	}
	return latch, latch.Close, nil
}

// navigatorOptions переводит секцию navigator в настройки ядра.
func navigatorOptions(cfg config.Navigator) navigator.Options {
	blend := make([]domain.MediaType, len(cfg.AlbumBlend))
	for i, kind := range cfg.AlbumBlend {
		blend[i] = domain.MediaType(kind)
	}
	return navigator.Options{
		HistoryLimit: cfg.HistoryLimit,
		Limits: payload.Limits{
			Text:         cfg.TextLimit,
			Caption:      cfg.CaptionLimit,
			AlbumFloor:   cfg.AlbumFloor,
			AlbumCeiling: cfg.AlbumCeiling,
			AlbumBlend:   blend,
			Truncate:     cfg.Truncate,
		},
		Policy: decision.Policy{ThumbGuard: cfg.DetectThumbChange},
		Inline: decision.InlineRules{StrictPath: cfg.StrictInlinePath},
	}
}
