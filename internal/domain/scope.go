package domain

import "fmt"

// Категории чатов, влияющие на допустимые типы клавиатур.
const (
	CategoryPrivate    = "private"
	CategoryGroup      = "group"
	CategorySupergroup = "supergroup"
	CategoryChannel    = "channel"
)

// Scope — адресная идентичность поверхности диалога.
// Две области равны тогда и только тогда, когда равны все поля.
type Scope struct {
	Chat     int64  `json:"chat"`
	Lang     string `json:"lang,omitempty"`
	Inline   string `json:"inline,omitempty"`
	Business string `json:"business,omitempty"`
	Category string `json:"category,omitempty"`
	Topic    int    `json:"topic,omitempty"`
	Direct   bool   `json:"direct"`
}

// IsInline сообщает, работает ли область в inline-режиме.
func (s Scope) IsInline() bool {
	return s.Inline != ""
}

// IsBusiness сообщает, относится ли область к бизнес-подключению.
func (s Scope) IsBusiness() bool {
	return s.Business != ""
}

// Key возвращает ключ сериализации для этой области: пару (chat, inline).
func (s Scope) Key() ScopeKey {
	return ScopeKey{Chat: s.Chat, Inline: s.Inline}
}

// ScopeKey идентифицирует область для блокировок и хранилища.
type ScopeKey struct {
	Chat   int64
	Inline string
}

// String возвращает стабильное строковое представление ключа.
func (k ScopeKey) String() string {
	if k.Inline == "" {
		return fmt.Sprintf("%d", k.Chat)
	}
	return fmt.Sprintf("%d:%s", k.Chat, k.Inline)
}
