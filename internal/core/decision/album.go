package decision

import (
	"telegram-navigator/internal/core/payload"
	"telegram-navigator/internal/domain"
)

// Mutation — одна точечная правка внутри выровненного альбома.
type Mutation struct {
	Decision domain.Decision
	Slot     int
	Target   int
	Payload  domain.Payload
}

// AlbumPlan — план правок выровненного альбома.
type AlbumPlan struct {
	HeadID    int
	Extras    []int
	Meta      domain.GroupMeta
	Mutated   bool
	Mutations []Mutation
}

const (
	natureAudio    = "audio"
	natureDocument = "document"
	natureBlend    = "blend"
)

// nature определяет категорию альбома; false — альбом содержит запрещенные типы.
func nature(items []domain.MediaItem, limits payload.Limits) (string, bool) {
	audio, document, blend := 0, 0, 0
	for _, item := range items {
		switch {
		case item.Type == domain.MediaAnimation || item.Type.Ephemeral():
			return "", false
		case item.Type == domain.MediaAudio:
			audio++
		case item.Type == domain.MediaDocument:
			document++
		case limits.Blends(item.Type):
			blend++
		default:
			return "", false
		}
	}
	switch len(items) {
	case audio:
		return natureAudio, true
	case document:
		return natureDocument, true
	case blend:
		return natureBlend, true
	}
	return "", false
}

// Aligned сообщает, можно ли править альбом поэлементно.
func Aligned(old []domain.MediaItem, fresh []domain.MediaItem, limits payload.Limits) bool {
	if len(old) != len(fresh) {
		return false
	}
	if len(fresh) < limits.AlbumFloor || (limits.AlbumCeiling > 0 && len(fresh) > limits.AlbumCeiling) {
		return false
	}
	a, ok := nature(old, limits)
	if !ok {
		return false
	}
	b, ok := nature(fresh, limits)
	return ok && a == b
}

// Align строит план поэлементных правок альбома.
// false означает, что альбом нужно удалить и отправить заново целиком.
func Align(old *domain.Message, fresh domain.Payload, limits payload.Limits, policy Policy) (*AlbumPlan, bool) {
	if !old.IsGroup() || !fresh.IsGroup() {
		return nil, false
	}
	if len(old.Extras) != len(old.Group)-1 || !Aligned(old.Group, fresh.Group, limits) {
		return nil, false
	}

	plan := &AlbumPlan{
		HeadID: old.ID,
		Extras: append([]int(nil), old.Extras...),
		Meta:   domain.GroupMeta{Clusters: make([]domain.MediaMeta, len(fresh.Group)), Inline: old.Inline},
	}
	target := func(slot int) int {
		if slot == 0 {
			return old.ID
		}
		return old.Extras[slot-1]
	}

	for i, item := range fresh.Group {
		prev := old.Group[i]
		plan.Meta.Clusters[i] = domain.MediaMeta{Medium: item.Type, File: item.Path, Caption: domain.Str(item.Caption), Inline: old.Inline}

		var reply *domain.Markup
		if i == 0 {
			reply = fresh.Reply
		}
		single := slotPayload(item, reply)
		switch {
		case reshaped(prev, item, policy):
			plan.Mutations = append(plan.Mutations, Mutation{Decision: domain.EditMedia, Slot: i, Target: target(i), Payload: single})
		case captioned(prev, item):
			plan.Mutations = append(plan.Mutations, Mutation{Decision: domain.EditMediaCaption, Slot: i, Target: target(i), Payload: single})
		}
		if i == 0 && !domain.MarkupEqual(old.Markup, fresh.Reply) {
			plan.Mutations = append(plan.Mutations, Mutation{Decision: domain.EditMarkup, Slot: 0, Target: old.ID, Payload: single})
		}
	}
	plan.Mutated = len(plan.Mutations) > 0
	return plan, true
}

// reshaped сообщает, требует ли элемент перезагрузки медиа.
func reshaped(prev, item domain.MediaItem, policy Policy) bool {
	if prev.Type != item.Type || !policy.same(prev.Path, item.Path, item.Type) {
		return true
	}
	return domain.ProfileOf(prev.Extra, policy.ThumbGuard) != domain.ProfileOf(item.Extra, policy.ThumbGuard)
}

func captioned(prev, item domain.MediaItem) bool {
	return prev.Caption != item.Caption ||
		!domain.TextualEqual(prev.Extra, item.Extra) ||
		prev.Extra.CaptionAbove() != item.Extra.CaptionAbove()
}

// slotPayload превращает элемент альбома в payload одиночного медиа.
func slotPayload(item domain.MediaItem, reply *domain.Markup) domain.Payload {
	media := item.Clone()
	p := domain.Payload{Media: &media, Reply: reply.Clone(), Extra: item.Extra.Clone()}
	if item.Caption != "" {
		p.Text = domain.Str(item.Caption)
	} else {
		p.Text = domain.Str("")
		p.Erase = true
	}
	return p
}
