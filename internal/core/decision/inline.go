package decision

import (
	"fmt"

	"telegram-navigator/internal/domain"
)

// Verdict — решение, адаптированное к ограничениям inline-режима.
type Verdict struct {
	Decision domain.Decision
	Payload  domain.Payload
	// Denied означает, что правку нужно молча пропустить.
	Denied bool
	Reason string
}

// InlineRules — ограничения inline-режима.
type InlineRules struct {
	// StrictPath отклоняет медиа с локальными путями.
	StrictPath bool
}

func deny(reason string) Verdict {
	return Verdict{Decision: domain.NoChange, Denied: true, Reason: reason}
}

// Reconcile адаптирует решение decided к inline-режиму: там нельзя удалять сообщения,
// отправлять альбомы и переключаться между текстом и медиа.
func Reconcile(old *domain.Message, fresh domain.Payload, decided domain.Decision, rules InlineRules) (Verdict, error) {
	if fresh.IsGroup() {
		return Verdict{}, fmt.Errorf("%w: media group", domain.ErrInlineUnsupported)
	}
	if old.IsGroup() {
		return deny("stored group"), nil
	}

	if old.IsMedia() && !fresh.IsMedia() {
		text := fresh.TextValue()
		if old.Media.Caption != text || !domain.TextualEqual(old.Extra, fresh.Extra) {
			media := old.Media.Clone()
			media.Caption = text
			p := domain.Payload{Media: &media, Text: domain.Str(text), Reply: fresh.Reply, Extra: fresh.Extra, Erase: text == ""}
			return Verdict{Decision: domain.EditMediaCaption, Payload: p}, nil
		}
		if !domain.MarkupEqual(old.Markup, fresh.Reply) {
			return remap(old, fresh), nil
		}
		return deny("media preserved"), nil
	}

	if fresh.IsMedia() && (fresh.Media.Type.Ephemeral() || (rules.StrictPath && domain.IsLocalPath(fresh.Media.Path))) {
		if old != nil && !domain.MarkupEqual(old.Markup, fresh.Reply) {
			return remap(old, fresh), nil
		}
		return deny("media inadmissible"), nil
	}

	if decided == domain.DeleteSend {
		switch {
		case !old.IsMedia() && fresh.IsMedia():
			return deny("text to media"), nil
		case fresh.IsMedia():
			return Verdict{Decision: domain.EditMedia, Payload: fresh}, nil
		default:
			return Verdict{Decision: domain.EditText, Payload: fresh}, nil
		}
	}
	return Verdict{Decision: decided, Payload: fresh}, nil
}

// remap строит правку только разметки, сохраняя отображаемое содержимое.
func remap(old *domain.Message, fresh domain.Payload) Verdict {
	p := domain.Payload{Reply: fresh.Reply}
	if old.IsMedia() {
		media := old.Media.Clone()
		p.Media = &media
		p.Text = domain.Str(media.Caption)
		p.Erase = media.Caption == ""
	} else {
		p.Text = domain.Str(old.Text)
	}
	return Verdict{Decision: domain.EditMarkup, Payload: p}
}
