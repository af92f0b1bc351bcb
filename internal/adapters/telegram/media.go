package telegram

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-navigator/internal/domain"
)

// fileOf выбирает способ передачи файла по его пути.
func fileOf(path string) tgbotapi.RequestFileData {
	switch {
	case strings.HasPrefix(path, "http://"), strings.HasPrefix(path, "https://"):
		return tgbotapi.FileURL(path)
	case domain.IsLocalPath(path):
		return tgbotapi.FilePath(strings.TrimPrefix(path, "file://"))
	default:
		return tgbotapi.FileID(path)
	}
}

func entitiesOf(entities []domain.Entity) []tgbotapi.MessageEntity {
	if len(entities) == 0 {
		return nil
	}
	out := make([]tgbotapi.MessageEntity, len(entities))
	for i, e := range entities {
		out[i] = tgbotapi.MessageEntity{Type: e.Type, Offset: e.Offset, Length: e.Length, URL: e.URL, Language: e.Language}
		if e.User != 0 {
			out[i].User = &tgbotapi.User{ID: e.User}
		}
	}
	return out
}

// caption собирает подпись медиа вместе с режимом разбора и сущностями.
type caption struct {
	text     string
	mode     string
	entities []tgbotapi.MessageEntity
}

func captionOf(text string, extra *domain.Extra) caption {
	mode, entities := extra.Textual()
	return caption{
		text:     text,
		mode:     mode,
		entities: entitiesOf(domain.ValidEntities(entities, domain.TextLength(text))),
	}
}

// mediaConfig строит запрос отправки одиночного медиа.
func mediaConfig(chat int64, item domain.MediaItem, c caption, markup any) (tgbotapi.Chattable, error) {
	file := fileOf(item.Path)
	switch item.Type {
	case domain.MediaPhoto:
		cfg := tgbotapi.NewPhoto(chat, file)
		cfg.Caption, cfg.ParseMode, cfg.CaptionEntities, cfg.ReplyMarkup = c.text, c.mode, c.entities, markup
		return cfg, nil
	case domain.MediaVideo:
		cfg := tgbotapi.NewVideo(chat, file)
		cfg.Caption, cfg.ParseMode, cfg.CaptionEntities, cfg.ReplyMarkup = c.text, c.mode, c.entities, markup
		return cfg, nil
	case domain.MediaAnimation:
		cfg := tgbotapi.NewAnimation(chat, file)
		cfg.Caption, cfg.ParseMode, cfg.CaptionEntities, cfg.ReplyMarkup = c.text, c.mode, c.entities, markup
		return cfg, nil
	case domain.MediaAudio:
		cfg := tgbotapi.NewAudio(chat, file)
		cfg.Caption, cfg.ParseMode, cfg.CaptionEntities, cfg.ReplyMarkup = c.text, c.mode, c.entities, markup
		return cfg, nil
	case domain.MediaDocument:
		cfg := tgbotapi.NewDocument(chat, file)
		cfg.Caption, cfg.ParseMode, cfg.CaptionEntities, cfg.ReplyMarkup = c.text, c.mode, c.entities, markup
		return cfg, nil
	case domain.MediaVoice:
		cfg := tgbotapi.NewVoice(chat, file)
		cfg.Caption, cfg.ParseMode, cfg.CaptionEntities, cfg.ReplyMarkup = c.text, c.mode, c.entities, markup
		return cfg, nil
	case domain.MediaVideoNote:
		cfg := tgbotapi.NewVideoNote(chat, 0, file)
		cfg.ReplyMarkup = markup
		return cfg, nil
	default:
		return nil, fmt.Errorf("%w: тип медиа %q", domain.ErrEmptyPayload, item.Type)
	}
}

// inputMedia строит элемент альбома или новое медиа для editMessageMedia.
func inputMedia(item domain.MediaItem, c caption) (any, error) {
	file := fileOf(item.Path)
	switch item.Type {
	case domain.MediaPhoto:
		m := tgbotapi.NewInputMediaPhoto(file)
		m.Caption, m.ParseMode, m.CaptionEntities = c.text, c.mode, c.entities
		return m, nil
	case domain.MediaVideo:
		m := tgbotapi.NewInputMediaVideo(file)
		m.Caption, m.ParseMode, m.CaptionEntities = c.text, c.mode, c.entities
		return m, nil
	case domain.MediaAnimation:
		m := tgbotapi.NewInputMediaAnimation(file)
		m.Caption, m.ParseMode, m.CaptionEntities = c.text, c.mode, c.entities
		return m, nil
	case domain.MediaAudio:
		m := tgbotapi.NewInputMediaAudio(file)
		m.Caption, m.ParseMode, m.CaptionEntities = c.text, c.mode, c.entities
		return m, nil
	case domain.MediaDocument:
		m := tgbotapi.NewInputMediaDocument(file)
		m.Caption, m.ParseMode, m.CaptionEntities = c.text, c.mode, c.entities
		return m, nil
	default:
		return nil, fmt.Errorf("%w: тип медиа %q нельзя заменить", domain.ErrEditForbidden, item.Type)
	}
}
