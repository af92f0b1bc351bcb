// Package telegram реализует транспорт навигатора поверх Telegram Bot API.
package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-navigator/internal/core/payload"
	"telegram-navigator/internal/domain"
	"telegram-navigator/internal/ports"
)

// botAPI — подмножество *tgbotapi.BotAPI, которым пользуется транспорт.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	SendMediaGroup(config tgbotapi.MediaGroupConfig) ([]tgbotapi.Message, error)
}

type callbackKey struct{}

// WithCallback кладет в контекст идентификатор callback-запроса, на который
// Alert ответит всплывающим уведомлением.
func WithCallback(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, callbackKey{}, id)
}

func callbackFrom(ctx context.Context) string {
	id, _ := ctx.Value(callbackKey{}).(string)
	return id
}

// Options — настройки транспорта.
type Options struct {
	// DeletePause — пауза между удалениями соседних сообщений.
	DeletePause time.Duration
}

// Transport реализует ports.Transport.
type Transport struct {
	api    botAPI
	opts   Options
	logger *slog.Logger
}

// NewTransport создает транспорт поверх клиента Bot API.
func NewTransport(api botAPI, opts Options, logger *slog.Logger) *Transport {
	if logger == nil {
		logger = slog.Default()
	}
	return &Transport{api: api, opts: opts, logger: logger.With(slog.String("component", "telegram_transport"))}
}

// Send реализует ports.Transport. В inline-области новое сообщение отправить
// нельзя, поэтому содержимое записывается в само inline-сообщение.
func (t *Transport) Send(ctx context.Context, scope domain.Scope, p domain.Payload) (*ports.Result, error) {
	if scope.IsInline() {
		if p.IsMedia() {
			return t.Recast(ctx, scope, 0, p)
		}
		return t.Rewrite(ctx, scope, 0, p)
	}
	if p.IsGroup() {
		return t.sendGroup(scope, p)
	}

	markup, err := replyMarkup(p.Reply)
	if err != nil {
		return nil, err
	}
	var request tgbotapi.Chattable
	if p.IsMedia() {
		request, err = mediaConfig(scope.Chat, *p.Media, mediaCaption(p), markup)
		if err != nil {
			return nil, err
		}
	} else {
		cfg := tgbotapi.NewMessage(scope.Chat, p.TextValue())
		cfg.ParseMode, cfg.Entities = textual(p.TextValue(), p.Extra)
		cfg.DisableWebPagePreview = previewDisabled(p.Preview)
		cfg.ReplyMarkup = markup
		request = cfg
	}

	msg, err := t.api.Send(request)
	if err != nil {
		return nil, classify(err)
	}
	return &ports.Result{ID: msg.MessageID, Meta: payloadMeta(p, "")}, nil
}

func (t *Transport) sendGroup(scope domain.Scope, p domain.Payload) (*ports.Result, error) {
	files := make([]any, 0, len(p.Group))
	for _, item := range p.Group {
		media, err := inputMedia(item, captionOf(item.Caption, item.Extra))
		if err != nil {
			return nil, err
		}
		files = append(files, media)
	}
	messages, err := t.api.SendMediaGroup(tgbotapi.NewMediaGroup(scope.Chat, files))
	if err != nil {
		return nil, classify(err)
	}
	if len(messages) == 0 {
		return nil, fmt.Errorf("bot api вернул пустой альбом")
	}
	result := &ports.Result{ID: messages[0].MessageID, Meta: payloadMeta(p, "")}
	for _, m := range messages[1:] {
		result.Extras = append(result.Extras, m.MessageID)
	}
	return result, nil
}

// Rewrite реализует ports.Transport.
func (t *Transport) Rewrite(ctx context.Context, scope domain.Scope, id int, p domain.Payload) (*ports.Result, error) {
	keyboard, err := inlineMarkup(p.Reply)
	if err != nil {
		return nil, err
	}
	cfg := tgbotapi.EditMessageTextConfig{BaseEdit: t.base(scope, id, keyboard), Text: p.TextValue()}
	cfg.ParseMode, cfg.Entities = textual(p.TextValue(), p.Extra)
	cfg.DisableWebPagePreview = previewDisabled(p.Preview)
	return t.edit(scope, id, cfg, p)
}

// Recast реализует ports.Transport.
func (t *Transport) Recast(ctx context.Context, scope domain.Scope, id int, p domain.Payload) (*ports.Result, error) {
	if p.Media == nil {
		return nil, fmt.Errorf("%w: нет медиа для замены", domain.ErrEmptyPayload)
	}
	keyboard, err := inlineMarkup(p.Reply)
	if err != nil {
		return nil, err
	}
	media, err := inputMedia(*p.Media, mediaCaption(p))
	if err != nil {
		return nil, err
	}
	cfg := tgbotapi.EditMessageMediaConfig{BaseEdit: t.base(scope, id, keyboard), Media: media}
	return t.edit(scope, id, cfg, p)
}

// Retitle реализует ports.Transport.
func (t *Transport) Retitle(ctx context.Context, scope domain.Scope, id int, p domain.Payload) (*ports.Result, error) {
	keyboard, err := inlineMarkup(p.Reply)
	if err != nil {
		return nil, err
	}
	c := mediaCaption(p)
	cfg := tgbotapi.EditMessageCaptionConfig{
		BaseEdit:        t.base(scope, id, keyboard),
		Caption:         c.text,
		ParseMode:       c.mode,
		CaptionEntities: c.entities,
	}
	return t.edit(scope, id, cfg, p)
}

// Remap реализует ports.Transport.
func (t *Transport) Remap(ctx context.Context, scope domain.Scope, id int, p domain.Payload) (*ports.Result, error) {
	keyboard, err := inlineMarkup(p.Reply)
	if err != nil {
		return nil, err
	}
	if keyboard == nil {
		// Пустая клавиатура снимает кнопки с сообщения.
		keyboard = &tgbotapi.InlineKeyboardMarkup{InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{}}
	}
	cfg := tgbotapi.EditMessageReplyMarkupConfig{BaseEdit: t.base(scope, id, keyboard)}
	return t.edit(scope, id, cfg, p)
}

func (t *Transport) base(scope domain.Scope, id int, keyboard *tgbotapi.InlineKeyboardMarkup) tgbotapi.BaseEdit {
	if scope.IsInline() {
		return tgbotapi.BaseEdit{InlineMessageID: scope.Inline, ReplyMarkup: keyboard}
	}
	return tgbotapi.BaseEdit{ChatID: scope.Chat, MessageID: id, ReplyMarkup: keyboard}
}

// edit выполняет редактирование. Для inline-сообщений Bot API возвращает true
// вместо сообщения, поэтому запрос идет через Request.
func (t *Transport) edit(scope domain.Scope, id int, request tgbotapi.Chattable, p domain.Payload) (*ports.Result, error) {
	if scope.IsInline() {
		if _, err := t.api.Request(request); err != nil {
			return nil, classify(err)
		}
		return &ports.Result{ID: id, Meta: payloadMeta(p, scope.Inline)}, nil
	}
	if _, err := t.api.Send(request); err != nil {
		return nil, classify(err)
	}
	return &ports.Result{ID: id, Meta: payloadMeta(p, "")}, nil
}

// Delete реализует ports.Transport. Уже удаленные сообщения пропускаются.
func (t *Transport) Delete(ctx context.Context, scope domain.Scope, ids []int) error {
	for i, id := range ids {
		if i > 0 && t.opts.DeletePause > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(t.opts.DeletePause):
			}
		}
		if _, err := t.api.Request(tgbotapi.NewDeleteMessage(scope.Chat, id)); err != nil {
			if ignorableDelete(err) {
				t.logger.Debug("message already gone", slog.Int("id", id), slog.String("error", err.Error()))
				continue
			}
			return classify(err)
		}
	}
	return nil
}

// Alert реализует ports.Transport: отвечает на callback-запрос из контекста,
// а без него отправляет короткое сообщение без звука.
func (t *Transport) Alert(ctx context.Context, scope domain.Scope, text string) error {
	if id := callbackFrom(ctx); id != "" {
		if _, err := t.api.Request(tgbotapi.NewCallback(id, text)); err != nil {
			return classify(err)
		}
		return nil
	}
	if scope.IsInline() {
		return nil
	}
	cfg := tgbotapi.NewMessage(scope.Chat, text)
	cfg.DisableNotification = true
	if _, err := t.api.Send(cfg); err != nil {
		return classify(err)
	}
	return nil
}

// mediaCaption возвращает действующую подпись медиа: текст payload, затем подпись элемента.
func mediaCaption(p domain.Payload) caption {
	text, ok := payload.Caption(p)
	if !ok {
		text = p.TextValue()
	}
	extra := p.Extra
	if extra == nil && p.Media != nil {
		extra = p.Media.Extra
	}
	return captionOf(text, extra)
}

func textual(text string, extra *domain.Extra) (string, []tgbotapi.MessageEntity) {
	mode, entities := extra.Textual()
	return mode, entitiesOf(domain.ValidEntities(entities, domain.TextLength(text)))
}

func previewDisabled(p *domain.Preview) bool {
	return p != nil && p.Disabled != nil && *p.Disabled
}

// payloadMeta строит подтверждение по запрошенному payload. Bot API возвращает
// file_id и текст без разметки, а ядро сравнивает пути и исходный текст.
func payloadMeta(p domain.Payload, inline string) domain.Meta {
	switch {
	case p.IsGroup():
		clusters := make([]domain.MediaMeta, len(p.Group))
		for i, item := range p.Group {
			clusters[i] = domain.MediaMeta{Medium: item.Type, File: item.Path, Caption: domain.Str(item.Caption), Inline: inline}
		}
		return domain.GroupMeta{Clusters: clusters, Inline: inline}
	case p.IsMedia():
		meta := domain.MediaMeta{Medium: p.Media.Type, File: p.Media.Path, Inline: inline}
		if text, ok := payload.Caption(p); ok {
			meta.Caption = domain.Str(text)
		}
		return meta
	default:
		return domain.TextMeta{Text: p.TextValue(), Inline: inline}
	}
}

var _ ports.Transport = (*Transport)(nil)
