package domain

import "errors"

// Ошибки предусловий, возвращаемые вызывающему коду.
var (
	ErrHistoryEmpty             = errors.New("history empty")
	ErrStateNotFound            = errors.New("state not found")
	ErrInlineUnsupported        = errors.New("inline unsupported")
	ErrEmptyCaptionWithoutErase = errors.New("empty caption without erase")
	ErrPayloadShape             = errors.New("payload carries both media and group")
	ErrGroupBounds              = errors.New("group size out of bounds")
)

// Ошибки транспорта, поглощаемые исполнителем.
var (
	ErrEmptyPayload     = errors.New("empty payload")
	ErrExtraForbidden   = errors.New("extra forbidden")
	ErrTextOverflow     = errors.New("text overflow")
	ErrCaptionOverflow  = errors.New("caption overflow")
	ErrEditForbidden    = errors.New("edit forbidden")
	ErrMessageUnchanged = errors.New("message unchanged")
)

// Ошибки метаданных, всегда фатальные для операции.
var (
	ErrMetadataKindMissing        = errors.New("metadata kind missing")
	ErrMetadataKindUnsupported    = errors.New("metadata kind unsupported")
	ErrMetadataMediumMissing      = errors.New("metadata medium missing")
	ErrMetadataGroupMediumMissing = errors.New("metadata group medium missing")
)

// Skippable сообщает, относится ли ошибка к пропускаемым без отката.
func Skippable(err error) bool {
	return errors.Is(err, ErrEmptyPayload) ||
		errors.Is(err, ErrExtraForbidden) ||
		errors.Is(err, ErrTextOverflow) ||
		errors.Is(err, ErrCaptionOverflow)
}
