package log

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
)

// Mode — режим редактирования чувствительных полей.
type Mode string

const (
	ModeDebug    Mode = "debug"
	ModeSafe     Mode = "safe"
	ModeParanoid Mode = "paranoid"
)

// Mask — значение, подставляемое вместо скрытого поля.
const Mask = "***"

// ParseMode разбирает режим; неизвестные значения отклоняются.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeDebug:
		return ModeDebug, nil
	case ModeSafe, "":
		return ModeSafe, nil
	case ModeParanoid:
		return ModeParanoid, nil
	}
	return "", fmt.Errorf("unknown log redaction mode %q", s)
}

var safeKeys = map[string]struct{}{
	"text": {}, "caption": {}, "payload": {}, "context": {}, "args": {}, "data": {}, "markup": {},
}

var paranoidKeys = map[string]struct{}{
	"chat": {}, "user": {}, "inline": {}, "business": {}, "path": {}, "file": {}, "url": {}, "id": {}, "ids": {},
}

// hidden сообщает, нужно ли скрыть значение ключа в данном режиме.
func (m Mode) hidden(key string) bool {
	switch m {
	case ModeSafe:
		_, ok := safeKeys[key]
		return ok
	case ModeParanoid:
		if _, ok := safeKeys[key]; ok {
			return true
		}
		_, ok := paranoidKeys[key]
		return ok
	}
	return false
}

// RedactingHandler — обертка для slog.Handler, которая маскирует токены бота
// во всех строках и скрывает чувствительные поля согласно режиму.
type RedactingHandler struct {
	handler slog.Handler
	mode    Mode
}

// NewRedactingHandler создает новый обработчик с маскировкой.
func NewRedactingHandler(handler slog.Handler, mode Mode) *RedactingHandler {
	return &RedactingHandler{
		handler: handler,
		mode:    mode,
	}
}

// маскируем токены в формате botID:token, где ID - числа, token - буквенно-цифровой
var telegramTokenRegex = regexp.MustCompile(`(\bbot\d+:[A-Za-z0-9_-]{35,})`)

// maskTokens заменяет найденные токены на маску
func maskTokens(text string) string {
	return telegramTokenRegex.ReplaceAllString(text, "bot***:***masked-token***")
}

// Enabled реализует интерфейс slog.Handler
func (h *RedactingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle реализует интерфейс slog.Handler
func (h *RedactingHandler) Handle(ctx context.Context, record slog.Record) error {
	// Clone() не обнуляет атрибуты, поэтому собираем новую запись с нуля,
	// чтобы не работать с записью, которую slog может переиспользовать.
	r := slog.NewRecord(record.Time, record.Level, maskTokens(record.Message), record.PC)
	record.Attrs(func(a slog.Attr) bool {
		r.AddAttrs(h.redact(a))
		return true
	})
	return h.handler.Handle(ctx, r)
}

// WithAttrs реализует интерфейс slog.Handler
func (h *RedactingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	redacted := make([]slog.Attr, len(attrs))
	for i, attr := range attrs {
		redacted[i] = h.redact(attr)
	}
	return &RedactingHandler{
		handler: h.handler.WithAttrs(redacted),
		mode:    h.mode,
	}
}

// WithGroup реализует интерфейс slog.Handler
func (h *RedactingHandler) WithGroup(name string) slog.Handler {
	return &RedactingHandler{
		handler: h.handler.WithGroup(name),
		mode:    h.mode,
	}
}

func (h *RedactingHandler) redact(a slog.Attr) slog.Attr {
	if h.mode.hidden(a.Key) {
		return slog.String(a.Key, Mask)
	}
	return slog.Attr{Key: a.Key, Value: h.redactValue(a.Value)}
}

// redactValue рекурсивно маскирует значения атрибутов
func (h *RedactingHandler) redactValue(value slog.Value) slog.Value {
	value = value.Resolve()
	switch value.Kind() {
	case slog.KindString:
		return slog.StringValue(maskTokens(value.String()))
	case slog.KindAny:
		if err, ok := value.Any().(error); ok {
			return slog.StringValue(maskTokens(err.Error()))
		}
		return value
	case slog.KindGroup:
		group := value.Group()
		redacted := make([]slog.Attr, len(group))
		for i, attr := range group {
			redacted[i] = h.redact(attr)
		}
		return slog.GroupValue(redacted...)
	default:
		return value
	}
}

// NewLogger создает slog.Logger с маскировкой поверх обработчика.
func NewLogger(handler slog.Handler, mode Mode) *slog.Logger {
	return slog.New(NewRedactingHandler(handler, mode))
}
