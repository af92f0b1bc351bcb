package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spf13/cobra"

	"telegram-navigator/internal/adapters/lexicon"
	"telegram-navigator/internal/adapters/telegram"
	"telegram-navigator/internal/bot"
	"telegram-navigator/internal/httpapi"
	"telegram-navigator/internal/log"
	"telegram-navigator/internal/navigator"
)

// newServeCommand создает команду запуска бота и API инспекции.
func newServeCommand(rootOpts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Запустить бота и HTTP API инспекции",
		Long: `Запускает цикл обновлений Telegram-бота с демонстрационными экранами
и HTTP API только для чтения сохраненных историй.

Examples:
  navigator serve --config config.yml
  NAV_TELEGRAM_TOKEN=123:abc navigator serve`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), rootOpts)
		},
	}
}

// runServe инкапсулирует всю логику инициализации и запуска приложения.
func runServe(parent context.Context, opts *rootOptions) error {
	// 1. Загрузка и валидация конфигурации
	cfg, err := loadConfig(opts.ConfigPath)
	if err != nil {
		return err
	}
	if err := cfg.RequireToken(); err != nil {
		return err
	}

	// 2. Инициализация логгера
	logger, err := newLogger(cfg.Logging, os.Stdout)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)
	telemetry := log.NewTelemetry(logger)

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 3. Хранилище и блокировки
	backend, provider, err := openStorage(ctx, cfg.Storage, telemetry)
	if err != nil {
		return err
	}
	defer backend.Close()

	locks, closeLocks, err := scopeGuard(cfg.Storage)
	if err != nil {
		return err
	}
	defer closeLocks()

	// 4. Bot API и транспорт
	if err := tgbotapi.SetLogger(log.NewTGBotAPIAdapter(logger)); err != nil {
		return fmt.Errorf("не удалось установить логгер tgbotapi: %w", err)
	}
	api, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		return fmt.Errorf("failed to create bot api: %w", err)
	}
	api.Debug = cfg.Telegram.Debug
	logger.Info("Authorized on account", slog.String("username", api.Self.UserName))

	transport := telegram.NewTransport(api, telegram.Options{DeletePause: cfg.Navigator.DeletePause}, logger)
	views := bot.DemoViews()

	// 5. Ядро навигатора
	runtime, err := navigator.NewBuilder(transport, provider).
		WithLedger(views).
		WithLexicon(lexicon.New(cfg.Alerts)).
		WithGuard(locks).
		WithTelemetry(telemetry).
		WithOptions(navigatorOptions(cfg.Navigator)).
		Build()
	if err != nil {
		return fmt.Errorf("не удалось собрать навигатор: %w", err)
	}

	// 6. HTTP API инспекции
	srv := httpapi.New(cfg, provider, logger)
	serverDone := make(chan struct{})
	go func() {
		defer close(serverDone)
		logger.Info("Starting server", "addr", cfg.Address())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server error", "error", err)
		}
	}()

	// 7. Цикл обновлений до сигнала завершения
	b := bot.New(api, runtime, views, provider, bot.Options{PollTimeout: cfg.Telegram.PollTimeout}, logger)
	b.Start(ctx)

	logger.Info("Signal received, shutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}
	<-serverDone

	logger.Info("Application exited gracefully")
	return nil
}
