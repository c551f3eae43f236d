package browse

// NoticeKind classifies a user-facing notification
type NoticeKind int

const (
	NoticeSuccess NoticeKind = iota
	NoticeError
	NoticeUnauthorized
)

// Notice is a toast or dialog shown to the user. Op names the action, e.g. "search books".
type Notice struct {
	Kind NoticeKind
	Op   string
	Err  error
}

// Notifier receives notices. Implementations must not block.
type Notifier interface {
	Notify(Notice)
}

// NotifierFunc adapts a function to Notifier
type NotifierFunc func(Notice)

// Notify calls f(n)
func (f NotifierFunc) Notify(n Notice) {
	f(n)
}

// Discard drops every notice
var Discard Notifier = NotifierFunc(func(Notice) {})

func notifierOrDiscard(n Notifier) Notifier {
	if n == nil {
		return Discard
	}
	return n
}
