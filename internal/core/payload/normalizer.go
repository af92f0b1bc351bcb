// Package payload приводит payload к канонической форме и проверяет ограничения.
package payload

import (
	"fmt"
	"strings"

	"telegram-navigator/internal/domain"
)

// Limits — ограничения на содержимое сообщений.
type Limits struct {
	Text         int
	Caption      int
	AlbumFloor   int
	AlbumCeiling int
	AlbumBlend   []domain.MediaType
	Truncate     bool
}

// DefaultLimits возвращает ограничения Bot API.
func DefaultLimits() Limits {
	return Limits{
		Text:         4096,
		Caption:      1024,
		AlbumFloor:   2,
		AlbumCeiling: 10,
		AlbumBlend:   []domain.MediaType{domain.MediaPhoto, domain.MediaVideo},
	}
}

// Blends сообщает, допустим ли тип в смешанном альбоме.
func (l Limits) Blends(t domain.MediaType) bool {
	for _, b := range l.AlbumBlend {
		if b == t {
			return true
		}
	}
	return false
}

// Normalizer канонизирует payload.
type Normalizer struct {
	limits Limits
}

// NewNormalizer создает нормализатор с заданными ограничениями.
func NewNormalizer(limits Limits) *Normalizer {
	return &Normalizer{limits: limits}
}

// Limits возвращает ограничения нормализатора.
func (n *Normalizer) Limits() Limits {
	return n.limits
}

// Normalize приводит payload к канонической форме:
// альбом из одного элемента превращается в медиа, у альбома нет текста,
// пустая подпись у медиа допустима только с явным Erase.
func (n *Normalizer) Normalize(p domain.Payload) (domain.Payload, error) {
	if p.Media != nil && len(p.Group) > 0 {
		return p, domain.ErrPayloadShape
	}
	out := p.Clone()

	if len(out.Group) == 1 {
		item := out.Group[0]
		out.Media = &item
		out.Group = nil
		out.Text = nil
	}
	if len(out.Group) > 0 {
		out.Text = nil
		out.Erase = false
		if n.limits.AlbumCeiling > 0 && (len(out.Group) < n.limits.AlbumFloor || len(out.Group) > n.limits.AlbumCeiling) {
			return p, fmt.Errorf("%w: %d items, allowed %d..%d", domain.ErrGroupBounds, len(out.Group), n.limits.AlbumFloor, n.limits.AlbumCeiling)
		}
	}
	if out.Media != nil && out.Text != nil {
		if *out.Text == "" && !out.Erase {
			return p, domain.ErrEmptyCaptionWithoutErase
		}
		if *out.Text != "" {
			out.Erase = false
		}
	}
	if out.Media == nil {
		out.Erase = false
	}
	return out, nil
}

// Adapt фильтрует разметку ответа по допустимости в области.
// Если разметка уже допустима, возвращается исходный payload.
func (n *Normalizer) Adapt(scope domain.Scope, p domain.Payload) domain.Payload {
	if p.Reply == nil || allowed(scope, p.Reply) {
		return p
	}
	out := p.Clone()
	out.Reply = nil
	return out
}

func allowed(scope domain.Scope, m *domain.Markup) bool {
	if m.Inline() {
		return true
	}
	if scope.IsBusiness() || scope.IsInline() {
		return false
	}
	switch scope.Category {
	case domain.CategoryPrivate, domain.CategoryGroup, domain.CategorySupergroup:
		return m.Supported()
	}
	return false
}

// Caption возвращает действующую подпись одиночного медиа:
// обрезанный текст payload, затем подпись элемента. У альбома подписи верхнего уровня нет.
func Caption(p domain.Payload) (string, bool) {
	if p.Media == nil {
		return "", false
	}
	if p.Text != nil {
		if text := strings.TrimSpace(*p.Text); text != "" {
			return text, true
		}
	}
	if p.Erase {
		return "", true
	}
	if p.Media.Caption != "" {
		return p.Media.Caption, true
	}
	return "", false
}

// Clamp проверяет длины текста и подписей; при включенном усечении укорачивает их.
func (n *Normalizer) Clamp(p domain.Payload) (domain.Payload, error) {
	out := p.Clone()
	if p.Text != nil && p.Media == nil && n.limits.Text > 0 && domain.TextLength(*p.Text) > n.limits.Text {
		if !n.limits.Truncate {
			return p, domain.ErrTextOverflow
		}
		out.Text = domain.Str(truncate(*p.Text, n.limits.Text))
	}
	if n.limits.Caption <= 0 {
		return out, nil
	}
	if caption, ok := Caption(p); ok && domain.TextLength(caption) > n.limits.Caption {
		if !n.limits.Truncate {
			return p, domain.ErrCaptionOverflow
		}
		out.Text = domain.Str(truncate(caption, n.limits.Caption))
	}
	for i, item := range p.Group {
		if domain.TextLength(item.Caption) > n.limits.Caption {
			if !n.limits.Truncate {
				return p, domain.ErrCaptionOverflow
			}
			out.Group[i].Caption = truncate(item.Caption, n.limits.Caption)
		}
	}
	return out, nil
}

// truncate укорачивает строку до limit UTF-16 единиц, не разрывая суррогатные пары.
func truncate(s string, limit int) string {
	n := 0
	for i, r := range s {
		w := 1
		if r >= 0x10000 {
			w = 2
		}
		if n+w > limit {
			return s[:i]
		}
		n += w
	}
	return s
}
