package telegram

import (
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-navigator/internal/domain"
)

// descriptions сопоставляет фрагменты описаний ошибок Bot API доменным ошибкам.
var descriptions = []struct {
	fragment string
	err      error
}{
	{"message is not modified", domain.ErrMessageUnchanged},
	{"message can't be edited", domain.ErrEditForbidden},
	{"message to edit not found", domain.ErrEditForbidden},
	{"there is no text in the message to edit", domain.ErrEditForbidden},
	{"there is no caption in the message to edit", domain.ErrEditForbidden},
	{"there is no media in the message to edit", domain.ErrEditForbidden},
	{"message_id_invalid", domain.ErrEditForbidden},
	{"message text is empty", domain.ErrEmptyPayload},
	{"text must be non-empty", domain.ErrEmptyPayload},
	{"message is too long", domain.ErrTextOverflow},
	{"caption is too long", domain.ErrCaptionOverflow},
	{"media_caption_too_long", domain.ErrCaptionOverflow},
	{"can't parse entities", domain.ErrExtraForbidden},
	{"unsupported parse_mode", domain.ErrExtraForbidden},
}

// classify переводит ошибку Bot API в доменную, если описание узнаваемо.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var apiErr *tgbotapi.Error
	if !errors.As(err, &apiErr) {
		return fmt.Errorf("запрос к Bot API не выполнен: %w", err)
	}
	description := strings.ToLower(apiErr.Message)
	for _, d := range descriptions {
		if strings.Contains(description, d.fragment) {
			return fmt.Errorf("%w: %s", d.err, apiErr.Message)
		}
	}
	return fmt.Errorf("bot api %d: %s", apiErr.Code, apiErr.Message)
}

// ignorableDelete сообщает, что сообщение уже удалено или удалить его нельзя.
func ignorableDelete(err error) bool {
	var apiErr *tgbotapi.Error
	if !errors.As(err, &apiErr) {
		return false
	}
	description := strings.ToLower(apiErr.Message)
	return strings.Contains(description, "message to delete not found") ||
		strings.Contains(description, "message can't be deleted")
}
