package telegram

import (
	"encoding/json"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-navigator/internal/domain"
)

// InlineKeyboard строит разметку inline-клавиатуры из рядов кнопок.
func InlineKeyboard(rows ...[]tgbotapi.InlineKeyboardButton) *domain.Markup {
	m, err := MarkupOf(domain.MarkupInlineKeyboard, tgbotapi.NewInlineKeyboardMarkup(rows...))
	if err != nil {
		return nil
	}
	return m
}

// MarkupOf переводит разметку tgbotapi в доменную.
func MarkupOf(kind string, markup any) (*domain.Markup, error) {
	raw, err := json.Marshal(markup)
	if err != nil {
		return nil, fmt.Errorf("не удалось закодировать разметку: %w", err)
	}
	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("не удалось разобрать разметку: %w", err)
	}
	return &domain.Markup{Kind: kind, Data: data}, nil
}

// replyMarkup переводит доменную разметку в значение поля reply_markup для отправки.
func replyMarkup(m *domain.Markup) (any, error) {
	if m == nil {
		return nil, nil
	}
	var target any
	switch m.Kind {
	case domain.MarkupInlineKeyboard:
		target = &tgbotapi.InlineKeyboardMarkup{}
	case domain.MarkupReplyKeyboard:
		target = &tgbotapi.ReplyKeyboardMarkup{}
	case domain.MarkupReplyRemove:
		target = &tgbotapi.ReplyKeyboardRemove{RemoveKeyboard: true}
	case domain.MarkupForceReply:
		target = &tgbotapi.ForceReply{ForceReply: true}
	default:
		return nil, fmt.Errorf("%w: разметка %q", domain.ErrExtraForbidden, m.Kind)
	}
	if err := decodeInto(m.Data, target); err != nil {
		return nil, err
	}
	return target, nil
}

// inlineMarkup возвращает inline-клавиатуру для редактирования. Редактирование
// принимает только inline-клавиатуры, прочие классы отбрасываются.
func inlineMarkup(m *domain.Markup) (*tgbotapi.InlineKeyboardMarkup, error) {
	if !m.Inline() {
		return nil, nil
	}
	var keyboard tgbotapi.InlineKeyboardMarkup
	if err := decodeInto(m.Data, &keyboard); err != nil {
		return nil, err
	}
	return &keyboard, nil
}

func decodeInto(data map[string]any, target any) error {
	if len(data) == 0 {
		return nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("не удалось закодировать разметку: %w", err)
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("%w: разметка: %v", domain.ErrExtraForbidden, err)
	}
	return nil
}
