package log

import (
	"fmt"
	"log/slog"
	"strings"
)

// BotAPISource — значение атрибута source у записей библиотеки Bot API.
const BotAPISource = "tgbotapi"

// TGBotAPIAdapter направляет журнал go-telegram-bot-api/v5 в slog.
// Записи идут на уровне debug с атрибутом source=tgbotapi: в режиме отладки
// библиотека печатает тела запросов, поэтому они проходят через RedactingHandler
// вместе с остальным журналом.
type TGBotAPIAdapter struct {
	logger *slog.Logger
}

// NewTGBotAPIAdapter создает адаптер поверх logger.
func NewTGBotAPIAdapter(logger *slog.Logger) *TGBotAPIAdapter {
	return &TGBotAPIAdapter{logger: logger.With(slog.String("source", BotAPISource))}
}

// Println реализует tgbotapi.BotLogger.
func (a *TGBotAPIAdapter) Println(v ...interface{}) {
	a.write(fmt.Sprintln(v...))
}

// Printf реализует tgbotapi.BotLogger.
func (a *TGBotAPIAdapter) Printf(format string, v ...interface{}) {
	a.write(fmt.Sprintf(format, v...))
}

func (a *TGBotAPIAdapter) write(line string) {
	if line = strings.TrimSpace(line); line == "" {
		return
	}
	a.logger.Debug(line)
}
