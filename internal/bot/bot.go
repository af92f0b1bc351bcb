// Package bot связывает обновления Telegram с навигатором: команды и
// callback-кнопки переводятся в операции над историей экранов.
package bot

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-navigator/internal/adapters/telegram"
	"telegram-navigator/internal/domain"
	"telegram-navigator/internal/navigator"
	"telegram-navigator/internal/ports"
)

const (
	startCommand = "start"
)

// Данные callback-кнопок.
const (
	CallbackPrefix = "nav:"
	CallbackBack   = CallbackPrefix + "back"
	CallbackHome   = CallbackPrefix + "home"
	CallbackPop    = CallbackPrefix + "pop"
	CallbackAlert  = CallbackPrefix + "alert"
)

// updatesAPI — подмножество *tgbotapi.BotAPI для цикла обновлений.
type updatesAPI interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Options — настройки цикла обновлений.
type Options struct {
	PollTimeout time.Duration
}

// Bot представляет собой основной объект Telegram-бота.
type Bot struct {
	api     updatesAPI
	runtime *navigator.Runtime
	views   ports.ViewLedger
	states  ports.StorageProvider
	opts    Options
	logger  *slog.Logger
}

// New создает бота. states используется для записи состояния перед показом экрана,
// чтобы по нему работал возврат через set.
func New(api updatesAPI, runtime *navigator.Runtime, views ports.ViewLedger, states ports.StorageProvider, opts Options, logger *slog.Logger) *Bot {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bot{
		api:     api,
		runtime: runtime,
		views:   views,
		states:  states,
		opts:    opts,
		logger:  logger.With(slog.String("component", "bot")),
	}
}

// Start запускает основной цикл обработки обновлений от Telegram.
// Обновления обрабатываются последовательно до отмены ctx.
func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = int(b.opts.PollTimeout / time.Second)
	u.AllowedUpdates = []string{"message", "callback_query"}

	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.logger.Info("Context cancelled, stopping bot...")
			b.api.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.Handle(ctx, update)
		}
	}
}

// Handle обрабатывает одно обновление.
func (b *Bot) Handle(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil && update.Message.IsCommand():
		b.handleCommand(ctx, update.Message)
	}
}

// handleCommand обрабатывает команды.
func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	scope := messageScope(msg)
	switch msg.Command() {
	case startCommand:
		b.report(scope, "start", b.home(ctx, scope))
	default:
		b.logger.Debug("unknown command", slog.String("command", msg.Command()))
	}
}

// handleCallback обрабатывает нажатие inline-кнопки.
func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	scope := callbackScope(cb)
	ctx = telegram.WithCallback(ctx, cb.ID)
	nav := b.runtime.Bind(scope)

	var err error
	answered := false
	switch data := cb.Data; {
	case data == CallbackBack:
		err = nav.Back(ctx, nil)
		if errors.Is(err, domain.ErrHistoryEmpty) {
			err = b.home(ctx, scope)
		}
	case data == CallbackHome:
		err = nav.Set(ctx, ViewHome, nil)
		if errors.Is(err, domain.ErrStateNotFound) {
			err = b.home(ctx, scope)
		}
	case data == CallbackPop:
		err = nav.Pop(ctx, 1)
	case data == CallbackAlert:
		err = nav.Alert(ctx, "")
		answered = err == nil
	case strings.HasPrefix(data, CallbackPrefix):
		err = b.show(ctx, scope, strings.TrimPrefix(data, CallbackPrefix), false)
	default:
		b.logger.Debug("unknown callback", slog.String("data", data))
	}
	b.report(scope, cb.Data, err)

	if !answered {
		// Без ответа клиент показывает индикатор загрузки на кнопке.
		if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
			b.logger.Debug("failed to answer callback", slog.String("error", err.Error()))
		}
	}
}

// home показывает главный экран как корень истории.
func (b *Bot) home(ctx context.Context, scope domain.Scope) error {
	return b.show(ctx, scope, ViewHome, true)
}

// show записывает состояние view и показывает экран из реестра.
func (b *Bot) show(ctx context.Context, scope domain.Scope, view string, root bool) error {
	forge, ok := b.views.Get(view)
	if !ok {
		b.logger.Debug("unknown view", slog.String("view", view))
		return nil
	}
	bundle, err := forge.Forge(ctx, nil)
	if err != nil {
		return err
	}
	if err := b.states.For(scope).Assign(ctx, view); err != nil {
		return err
	}
	opts := []navigator.EntryOption{navigator.WithView(view)}
	if root {
		opts = append(opts, navigator.AsRoot())
	}
	return b.runtime.Bind(scope).Add(ctx, bundle, opts...)
}

func (b *Bot) report(scope domain.Scope, action string, err error) {
	if err == nil {
		return
	}
	b.logger.Error("navigation failed",
		slog.Int64("chat", scope.Chat), slog.String("action", action), slog.String("error", err.Error()))
}

// messageScope строит область по входящему сообщению.
func messageScope(msg *tgbotapi.Message) domain.Scope {
	scope := domain.Scope{}
	if msg.Chat != nil {
		scope.Chat = msg.Chat.ID
		scope.Category = msg.Chat.Type
		scope.Direct = msg.Chat.IsPrivate()
	}
	if msg.From != nil {
		scope.Lang = msg.From.LanguageCode
	}
	return scope
}

// callbackScope строит область по callback-запросу. Для inline-сообщений
// чат неизвестен, поэтому ключом служит пользователь и идентификатор сообщения.
func callbackScope(cb *tgbotapi.CallbackQuery) domain.Scope {
	if cb.Message != nil {
		scope := messageScope(cb.Message)
		if cb.From != nil {
			scope.Lang = cb.From.LanguageCode
		}
		return scope
	}
	scope := domain.Scope{Inline: cb.InlineMessageID}
	if cb.From != nil {
		scope.Chat = cb.From.ID
		scope.Lang = cb.From.LanguageCode
	}
	return scope
}
