package telegram

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"telegram-navigator/internal/core/payload"
	"telegram-navigator/internal/domain"
)

type mockBot struct {
	mock.Mock
}

func (m *mockBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	args := m.Called(c)
	return args.Get(0).(tgbotapi.Message), args.Error(1)
}

func (m *mockBot) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	args := m.Called(c)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tgbotapi.APIResponse), args.Error(1)
}

func (m *mockBot) SendMediaGroup(config tgbotapi.MediaGroupConfig) ([]tgbotapi.Message, error) {
	args := m.Called(config)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]tgbotapi.Message), args.Error(1)
}

var (
	chat   = domain.Scope{Chat: 100}
	inline = domain.Scope{Chat: 100, Inline: "inl-1"}
	ok     = &tgbotapi.APIResponse{Ok: true}
)

func newTransport(api *mockBot, pause time.Duration) *Transport {
	return NewTransport(api, Options{DeletePause: pause}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestSend_Text(t *testing.T) {
	api := new(mockBot)
	tr := newTransport(api, 0)

	p := domain.TextPayload("*hi*")
	p.Extra = &domain.Extra{Mode: "MarkdownV2", Entities: []domain.Entity{{Type: "bold", Offset: 0, Length: 2}, {Type: "bold", Offset: 3, Length: 9}}}
	p.Preview = &domain.Preview{Disabled: ptrBool(true)}
	p.Reply = InlineKeyboard(tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("Назад", "nav:back")))

	api.On("Send", mock.MatchedBy(func(c tgbotapi.Chattable) bool {
		cfg, isMessage := c.(tgbotapi.MessageConfig)
		if !isMessage {
			return false
		}
		keyboard, isKeyboard := cfg.ReplyMarkup.(*tgbotapi.InlineKeyboardMarkup)
		return cfg.ChatID == 100 && cfg.Text == "*hi*" && cfg.ParseMode == "MarkdownV2" &&
			len(cfg.Entities) == 1 && cfg.DisableWebPagePreview &&
			isKeyboard && *keyboard.InlineKeyboard[0][0].CallbackData == "nav:back"
	})).Return(tgbotapi.Message{MessageID: 11, Text: "hi"}, nil).Once()

	res, err := tr.Send(context.Background(), chat, p)
	require.NoError(t, err)
	assert.Equal(t, 11, res.ID)
	assert.Equal(t, domain.TextMeta{Text: "*hi*"}, res.Meta)
	api.AssertExpectations(t)
}

func TestSend_Media(t *testing.T) {
	api := new(mockBot)
	tr := newTransport(api, 0)

	p := domain.MediaPayload(domain.MediaItem{Type: domain.MediaPhoto, Path: "AgACAgIAAx"})
	p.Text = domain.Str("подпись")

	api.On("Send", mock.MatchedBy(func(c tgbotapi.Chattable) bool {
		cfg, isPhoto := c.(tgbotapi.PhotoConfig)
		return isPhoto && cfg.Caption == "подпись" && cfg.File == tgbotapi.FileID("AgACAgIAAx")
	})).Return(tgbotapi.Message{MessageID: 12}, nil).Once()

	res, err := tr.Send(context.Background(), chat, p)
	require.NoError(t, err)
	assert.Equal(t, 12, res.ID)
	assert.Equal(t, domain.MediaMeta{Medium: domain.MediaPhoto, File: "AgACAgIAAx", Caption: domain.Str("подпись")}, res.Meta)
}

func TestSend_SingleItemGroupKeepsCaption(t *testing.T) {
	api := new(mockBot)
	tr := newTransport(api, 0)

	item := domain.MediaItem{Type: domain.MediaPhoto, Path: "AgACAgIAAx", Caption: "hello",
		Extra: &domain.Extra{Entities: []domain.Entity{{Type: "bold", Offset: 0, Length: 5}}}}
	p, err := payload.NewNormalizer(payload.DefaultLimits()).Normalize(domain.GroupPayload(item))
	require.NoError(t, err)
	require.True(t, p.IsMedia())

	api.On("Send", mock.MatchedBy(func(c tgbotapi.Chattable) bool {
		cfg, isPhoto := c.(tgbotapi.PhotoConfig)
		return isPhoto && cfg.Caption == "hello" && len(cfg.CaptionEntities) == 1
	})).Return(tgbotapi.Message{MessageID: 13}, nil).Once()

	res, err := tr.Send(context.Background(), chat, p)
	require.NoError(t, err)
	assert.Equal(t, domain.MediaMeta{Medium: domain.MediaPhoto, File: "AgACAgIAAx", Caption: domain.Str("hello")}, res.Meta)
	api.AssertExpectations(t)
}

func TestRecast_UsesItemCaption(t *testing.T) {
	api := new(mockBot)
	tr := newTransport(api, 0)

	p := domain.MediaPayload(domain.MediaItem{Type: domain.MediaPhoto, Path: "new-file", Caption: "item"})
	api.On("Send", mock.MatchedBy(func(c tgbotapi.Chattable) bool {
		cfg, isEdit := c.(tgbotapi.EditMessageMediaConfig)
		if !isEdit {
			return false
		}
		photo, isPhoto := cfg.Media.(tgbotapi.InputMediaPhoto)
		return isPhoto && cfg.MessageID == 9 && photo.Caption == "item"
	})).Return(tgbotapi.Message{MessageID: 9}, nil).Once()

	_, err := tr.Recast(context.Background(), chat, 9, p)
	require.NoError(t, err)
	api.AssertExpectations(t)
}

func TestSend_Group(t *testing.T) {
	api := new(mockBot)
	tr := newTransport(api, 0)

	p := domain.GroupPayload(
		domain.MediaItem{Type: domain.MediaPhoto, Path: "https://example.com/a.jpg", Caption: "a"},
		domain.MediaItem{Type: domain.MediaVideo, Path: "./b.mp4"},
	)
	api.On("SendMediaGroup", mock.MatchedBy(func(cfg tgbotapi.MediaGroupConfig) bool {
		if len(cfg.Media) != 2 {
			return false
		}
		photo, isPhoto := cfg.Media[0].(tgbotapi.InputMediaPhoto)
		video, isVideo := cfg.Media[1].(tgbotapi.InputMediaVideo)
		return isPhoto && isVideo && photo.Caption == "a" &&
			photo.Media == tgbotapi.FileURL("https://example.com/a.jpg") && video.Media == tgbotapi.FilePath("./b.mp4")
	})).Return([]tgbotapi.Message{{MessageID: 20}, {MessageID: 21}}, nil).Once()

	res, err := tr.Send(context.Background(), chat, p)
	require.NoError(t, err)
	assert.Equal(t, 20, res.ID)
	assert.Equal(t, []int{21}, res.Extras)
	group, isGroup := res.Meta.(domain.GroupMeta)
	require.True(t, isGroup)
	assert.Len(t, group.Clusters, 2)
}

func TestSend_InlineEditsMessage(t *testing.T) {
	api := new(mockBot)
	tr := newTransport(api, 0)

	api.On("Request", mock.MatchedBy(func(c tgbotapi.Chattable) bool {
		cfg, isEdit := c.(tgbotapi.EditMessageTextConfig)
		return isEdit && cfg.InlineMessageID == "inl-1" && cfg.Text == "x" && cfg.ChatID == 0
	})).Return(ok, nil).Once()

	res, err := tr.Send(context.Background(), inline, domain.TextPayload("x"))
	require.NoError(t, err)
	assert.Equal(t, 0, res.ID)
	assert.Equal(t, domain.TextMeta{Text: "x", Inline: "inl-1"}, res.Meta)
	api.AssertNotCalled(t, "Send", mock.Anything)
}

func TestEdits(t *testing.T) {
	api := new(mockBot)
	tr := newTransport(api, 0)
	ctx := context.Background()

	api.On("Send", mock.MatchedBy(func(c tgbotapi.Chattable) bool {
		cfg, isEdit := c.(tgbotapi.EditMessageCaptionConfig)
		return isEdit && cfg.MessageID == 5 && cfg.Caption == "new"
	})).Return(tgbotapi.Message{MessageID: 5}, nil).Once()
	api.On("Send", mock.MatchedBy(func(c tgbotapi.Chattable) bool {
		cfg, isEdit := c.(tgbotapi.EditMessageMediaConfig)
		if !isEdit {
			return false
		}
		media, isVideo := cfg.Media.(tgbotapi.InputMediaVideo)
		return cfg.MessageID == 6 && isVideo && media.Media == tgbotapi.FileID("vid")
	})).Return(tgbotapi.Message{MessageID: 6}, nil).Once()
	api.On("Send", mock.MatchedBy(func(c tgbotapi.Chattable) bool {
		cfg, isEdit := c.(tgbotapi.EditMessageReplyMarkupConfig)
		return isEdit && cfg.MessageID == 7 && cfg.ReplyMarkup != nil && len(cfg.ReplyMarkup.InlineKeyboard) == 0
	})).Return(tgbotapi.Message{MessageID: 7}, nil).Once()

	captioned := domain.MediaPayload(domain.Photo("p"))
	captioned.Text = domain.Str("new")
	res, err := tr.Retitle(ctx, chat, 5, captioned)
	require.NoError(t, err)
	assert.Equal(t, 5, res.ID)

	res, err = tr.Recast(ctx, chat, 6, domain.MediaPayload(domain.MediaItem{Type: domain.MediaVideo, Path: "vid"}))
	require.NoError(t, err)
	assert.Equal(t, 6, res.ID)

	res, err = tr.Remap(ctx, chat, 7, domain.TextPayload("t"))
	require.NoError(t, err)
	assert.Equal(t, 7, res.ID)
	api.AssertExpectations(t)
}

func TestRecast_EphemeralForbidden(t *testing.T) {
	tr := newTransport(new(mockBot), 0)
	_, err := tr.Recast(context.Background(), chat, 1, domain.MediaPayload(domain.MediaItem{Type: domain.MediaVoice, Path: "v"}))
	assert.ErrorIs(t, err, domain.ErrEditForbidden)
}

func TestClassify(t *testing.T) {
	testCases := []struct {
		description string
		want        error
	}{
		{"Bad Request: message is not modified: specified new message content and reply markup are exactly the same", domain.ErrMessageUnchanged},
		{"Bad Request: message can't be edited", domain.ErrEditForbidden},
		{"Bad Request: message to edit not found", domain.ErrEditForbidden},
		{"Bad Request: message text is empty", domain.ErrEmptyPayload},
		{"Bad Request: message is too long", domain.ErrTextOverflow},
		{"Bad Request: MEDIA_CAPTION_TOO_LONG", domain.ErrCaptionOverflow},
		{"Bad Request: can't parse entities: Can't find end of the entity", domain.ErrExtraForbidden},
	}
	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			err := classify(&tgbotapi.Error{Code: 400, Message: tc.description})
			assert.ErrorIs(t, err, tc.want)
		})
	}

	err := classify(&tgbotapi.Error{Code: 429, Message: "Too Many Requests: retry after 5"})
	assert.Error(t, err)
	assert.False(t, domain.Skippable(err))

	plain := errors.New("connection reset")
	assert.ErrorIs(t, classify(plain), plain)
	assert.NoError(t, classify(nil))
}

func TestSend_ClassifiesErrors(t *testing.T) {
	api := new(mockBot)
	tr := newTransport(api, 0)
	api.On("Send", mock.Anything).Return(tgbotapi.Message{}, &tgbotapi.Error{Code: 400, Message: "Bad Request: message is too long"}).Once()

	_, err := tr.Send(context.Background(), chat, domain.TextPayload("x"))
	assert.ErrorIs(t, err, domain.ErrTextOverflow)
}

func TestDelete(t *testing.T) {
	api := new(mockBot)
	tr := newTransport(api, time.Millisecond)

	api.On("Request", tgbotapi.NewDeleteMessage(100, 1)).Return(ok, nil).Once()
	api.On("Request", tgbotapi.NewDeleteMessage(100, 2)).
		Return(nil, &tgbotapi.Error{Code: 400, Message: "Bad Request: message to delete not found"}).Once()
	api.On("Request", tgbotapi.NewDeleteMessage(100, 3)).Return(ok, nil).Once()

	require.NoError(t, tr.Delete(context.Background(), chat, []int{1, 2, 3}))
	api.AssertExpectations(t)
}

func TestDelete_Fails(t *testing.T) {
	api := new(mockBot)
	tr := newTransport(api, 0)
	api.On("Request", mock.Anything).Return(nil, &tgbotapi.Error{Code: 403, Message: "Forbidden: bot was blocked by the user"}).Once()

	assert.Error(t, tr.Delete(context.Background(), chat, []int{1, 2}))
	api.AssertNumberOfCalls(t, "Request", 1)
}

func TestDelete_CancelledBetweenChunks(t *testing.T) {
	api := new(mockBot)
	tr := newTransport(api, time.Hour)
	api.On("Request", mock.Anything).Return(ok, nil).Once()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := tr.Delete(ctx, chat, []int{1, 2})
	assert.ErrorIs(t, err, context.Canceled)
	api.AssertNumberOfCalls(t, "Request", 1)
}

func TestAlert(t *testing.T) {
	api := new(mockBot)
	tr := newTransport(api, 0)

	api.On("Request", tgbotapi.NewCallback("cb-1", "Готово")).Return(ok, nil).Once()
	require.NoError(t, tr.Alert(WithCallback(context.Background(), "cb-1"), chat, "Готово"))

	api.On("Send", mock.MatchedBy(func(c tgbotapi.Chattable) bool {
		cfg, isMessage := c.(tgbotapi.MessageConfig)
		return isMessage && cfg.Text == "Готово" && cfg.DisableNotification
	})).Return(tgbotapi.Message{MessageID: 1}, nil).Once()
	require.NoError(t, tr.Alert(context.Background(), chat, "Готово"))

	require.NoError(t, tr.Alert(context.Background(), inline, "Готово"))
	api.AssertExpectations(t)
}

func TestMarkupConversion(t *testing.T) {
	m := InlineKeyboard(tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonURL("Сайт", "https://example.com")))
	require.NotNil(t, m)
	assert.True(t, m.Inline())

	keyboard, err := inlineMarkup(m)
	require.NoError(t, err)
	require.NotNil(t, keyboard)
	assert.Equal(t, "https://example.com", *keyboard.InlineKeyboard[0][0].URL)

	remove, err := replyMarkup(&domain.Markup{Kind: domain.MarkupReplyRemove})
	require.NoError(t, err)
	assert.Equal(t, &tgbotapi.ReplyKeyboardRemove{RemoveKeyboard: true}, remove)

	reply, err := inlineMarkup(&domain.Markup{Kind: domain.MarkupReplyKeyboard, Data: map[string]any{"keyboard": []any{}}})
	require.NoError(t, err)
	assert.Nil(t, reply)

	_, err = replyMarkup(&domain.Markup{Kind: "Unknown"})
	assert.ErrorIs(t, err, domain.ErrExtraForbidden)
}

func ptrBool(b bool) *bool { return &b }
