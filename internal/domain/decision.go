package domain

// Decision — результат сверки предыдущего сообщения с новым payload.
type Decision int

const (
	NoChange Decision = iota
	Resend
	EditText
	EditMedia
	EditMediaCaption
	EditMarkup
	DeleteSend
)

// String возвращает имя решения для телеметрии.
func (d Decision) String() string {
	switch d {
	case NoChange:
		return "NO_CHANGE"
	case Resend:
		return "RESEND"
	case EditText:
		return "EDIT_TEXT"
	case EditMedia:
		return "EDIT_MEDIA"
	case EditMediaCaption:
		return "EDIT_MEDIA_CAPTION"
	case EditMarkup:
		return "EDIT_MARKUP"
	case DeleteSend:
		return "DELETE_SEND"
	}
	return "UNKNOWN"
}

// Rewrites сообщает, меняет ли решение содержимое (а не только разметку).
func (d Decision) Rewrites() bool {
	switch d {
	case EditText, EditMedia, EditMediaCaption, DeleteSend:
		return true
	}
	return false
}
