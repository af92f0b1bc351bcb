package bot

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-navigator/internal/adapters/ledger"
	"telegram-navigator/internal/adapters/telegram"
	"telegram-navigator/internal/domain"
)

// Ключи демонстрационных экранов.
const (
	ViewHome    = "home"
	ViewCatalog = "catalog"
	ViewItem    = "item"
	ViewGallery = "gallery"
)

func button(text, data string) tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardButtonData(text, data)
}

// footer — общий ряд кнопок возврата.
func footer() []tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardRow(button("« Назад", CallbackBack), button("Домой", CallbackHome))
}

// DemoViews возвращает реестр экранов демонстрационного бота.
func DemoViews() *ledger.Registry {
	home := domain.TextPayload("Главное меню")
	home.Reply = telegram.InlineKeyboard(
		tgbotapi.NewInlineKeyboardRow(button("Каталог", CallbackPrefix+ViewCatalog), button("Галерея", CallbackPrefix+ViewGallery)),
		tgbotapi.NewInlineKeyboardRow(button("Уведомление", CallbackAlert)),
	)

	catalog := domain.TextPayload("Каталог")
	catalog.Reply = telegram.InlineKeyboard(
		tgbotapi.NewInlineKeyboardRow(button("Товар", CallbackPrefix+ViewItem)),
		footer(),
	)

	gallery := domain.GroupPayload(
		domain.MediaItem{Type: domain.MediaPhoto, Path: "https://picsum.photos/id/10/640/480", Caption: "Галерея"},
		domain.MediaItem{Type: domain.MediaPhoto, Path: "https://picsum.photos/id/20/640/480"},
	)
	galleryMenu := domain.TextPayload("Фотографии выше")
	galleryMenu.Reply = telegram.InlineKeyboard(footer())

	return ledger.New().
		MustRegister(ViewHome, ledger.Static(home)).
		MustRegister(ViewCatalog, ledger.Static(catalog)).
		MustRegister(ViewItem, ledger.Func(item, "item")).
		MustRegister(ViewGallery, ledger.Static(gallery, galleryMenu))
}

// item строит карточку товара по номеру из контекста.
func item(_ context.Context, args map[string]any) ([]domain.Payload, error) {
	number := 1
	switch v := args["item"].(type) {
	case int:
		number = v
	case float64:
		number = int(v)
	}
	p := domain.TextPayload(fmt.Sprintf("Товар №%d", number))
	p.Reply = telegram.InlineKeyboard(
		tgbotapi.NewInlineKeyboardRow(button("Удалить из истории", CallbackPop)),
		footer(),
	)
	return []domain.Payload{p}, nil
}
