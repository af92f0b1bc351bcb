// Package decision выбирает стратегию редактирования по сохраненному сообщению и новому payload.
package decision

import (
	"telegram-navigator/internal/core/payload"
	"telegram-navigator/internal/domain"
)

// IdentityPolicy решает, указывают ли два пути на одно и то же медиа.
type IdentityPolicy interface {
	Same(old, fresh string, kind domain.MediaType) bool
}

// ExactIdentity сравнивает пути посимвольно.
type ExactIdentity struct{}

// Same реализует IdentityPolicy.
func (ExactIdentity) Same(old, fresh string, _ domain.MediaType) bool {
	return old == fresh
}

// Policy — настройки движка решений.
type Policy struct {
	// ThumbGuard включает перезагрузку медиа при появлении или исчезновении превью.
	ThumbGuard bool
	Identity   IdentityPolicy
}

func (p Policy) same(old, fresh string, kind domain.MediaType) bool {
	if p.Identity == nil {
		return old == fresh
	}
	return p.Identity.Same(old, fresh, kind)
}

// Decide выбирает решение для пары (сохраненное сообщение, новый payload).
// Payload должен быть нормализован.
func Decide(old *domain.Message, fresh domain.Payload, policy Policy) domain.Decision {
	if old == nil {
		return domain.Resend
	}
	if old.IsGroup() || fresh.IsGroup() {
		return domain.DeleteSend
	}
	if fresh.Media != nil && fresh.Media.Type.Ephemeral() {
		return domain.DeleteSend
	}
	if old.IsMedia() != fresh.IsMedia() {
		return domain.DeleteSend
	}

	if !fresh.IsMedia() {
		if old.Text != fresh.TextValue() {
			return domain.EditText
		}
		if !domain.TextualEqual(old.Extra, fresh.Extra) || !domain.PreviewEqual(old.Preview, fresh.Preview) {
			return domain.EditText
		}
		if !domain.MarkupEqual(old.Markup, fresh.Reply) {
			return domain.EditMarkup
		}
		return domain.NoChange
	}

	if old.Media.Type != fresh.Media.Type || !policy.same(old.Media.Path, fresh.Media.Path, fresh.Media.Type) {
		return domain.EditMedia
	}
	if domain.ProfileOf(old.Extra, policy.ThumbGuard) != domain.ProfileOf(fresh.Extra, policy.ThumbGuard) {
		return domain.EditMedia
	}
	caption, _ := payload.Caption(fresh)
	if old.Media.Caption != caption ||
		!domain.TextualEqual(old.Extra, fresh.Extra) ||
		old.Extra.CaptionAbove() != fresh.Extra.CaptionAbove() {
		return domain.EditMediaCaption
	}
	if !domain.MarkupEqual(old.Markup, fresh.Reply) {
		return domain.EditMarkup
	}
	return domain.NoChange
}
