// Package lexicon выдает тексты уведомлений по умолчанию в зависимости от языка области.
package lexicon

import (
	"strings"

	"telegram-navigator/internal/domain"
	"telegram-navigator/internal/ports"
)

// DefaultAlert — текст, если для языка ничего не настроено.
const DefaultAlert = "Done"

// Lexicon — таблица текстов по коду языка.
type Lexicon struct {
	texts    map[string]string
	fallback string
}

// New создает таблицу. Ключи texts — коды языков ("ru", "en-US");
// ключ "default" задает запасной текст.
func New(texts map[string]string) *Lexicon {
	l := &Lexicon{texts: make(map[string]string, len(texts)), fallback: DefaultAlert}
	for lang, text := range texts {
		lang = strings.ToLower(strings.TrimSpace(lang))
		if text == "" {
			continue
		}
		if lang == "default" {
			l.fallback = text
			continue
		}
		l.texts[lang] = text
	}
	return l
}

// Alert реализует ports.Lexicon: точное совпадение языка, затем базовый язык
// ("en" для "en-US"), затем запасной текст.
func (l *Lexicon) Alert(scope domain.Scope) string {
	lang := strings.ToLower(scope.Lang)
	if text, ok := l.texts[lang]; ok {
		return text
	}
	if base, _, found := strings.Cut(lang, "-"); found {
		if text, ok := l.texts[base]; ok {
			return text
		}
	}
	return l.fallback
}

var _ ports.Lexicon = (*Lexicon)(nil)
