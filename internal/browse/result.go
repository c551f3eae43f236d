package browse

// Status of an asynchronous value
type Status int

const (
	StatusIdle Status = iota
	StatusPending
	StatusSucceeded
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusSucceeded:
		return "success"
	case StatusFailed:
		return "failure"
	default:
		return "idle"
	}
}

// Result is the uniform outcome consumed by view layers.
// A pending or failed result keeps the last good Value so it stays visible.
type Result[T any] struct {
	Status Status
	Value  T
	Err    error
}

// Success wraps a resolved value
func Success[T any](v T) Result[T] {
	return Result[T]{Status: StatusSucceeded, Value: v}
}

// Failure wraps an error
func Failure[T any](err error) Result[T] {
	return Result[T]{Status: StatusFailed, Err: err}
}

// Pending marks a value as being fetched
func Pending[T any]() Result[T] {
	return Result[T]{Status: StatusPending}
}

// Ok reports whether the result resolved successfully
func (r Result[T]) Ok() bool {
	return r.Status == StatusSucceeded
}
