package browse

import "sync"

// ViewState is what a list view should render
type ViewState int

const (
	// StateNeverSearched renders the "start typing" prompt
	StateNeverSearched ViewState = iota
	// StateLoading renders a spinner over the previous items
	StateLoading
	// StateEmpty renders the empty-state icon and message
	StateEmpty
	// StateReady renders the items
	StateReady
)

func (s ViewState) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateEmpty:
		return "empty"
	case StateReady:
		return "ready"
	default:
		return "never_searched"
	}
}

// ResultSet holds the items matched by the active query.
// Items are replaced wholesale on every response and are never merged.
type ResultSet[T any] struct {
	mu          sync.RWMutex
	op          string
	notifier    Notifier
	items       []T
	loading     bool
	hasSearched bool
	err         error
}

// Snapshot is an immutable copy of a ResultSet
type Snapshot[T any] struct {
	Items       []T
	Loading     bool
	HasSearched bool
	Err         error
	State       ViewState
}

// NewResultSet creates an empty result set. Failures are reported to n as op.
func NewResultSet[T any](op string, n Notifier) *ResultSet[T] {
	return &ResultSet[T]{op: op, notifier: notifierOrDiscard(n)}
}

// BeginFetch marks a request in flight. The current items stay visible.
func (r *ResultSet[T]) BeginFetch() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loading = true
	r.hasSearched = true
}

// Resolve replaces the items with a response
func (r *ResultSet[T]) Resolve(items []T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = items
	r.loading = false
	r.hasSearched = true
	r.err = nil
}

// Fail ends the request keeping the stale items and notifies the user
func (r *ResultSet[T]) Fail(err error) {
	r.mu.Lock()
	r.loading = false
	r.err = err
	r.mu.Unlock()

	r.notifier.Notify(Notice{Kind: NoticeError, Op: r.op, Err: err})
}

// Clear returns to the never-searched state
func (r *ResultSet[T]) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = nil
	r.loading = false
	r.hasSearched = false
	r.err = nil
}

// Items returns the current items
func (r *ResultSet[T]) Items() []T {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.items
}

// Len returns the number of current items
func (r *ResultSet[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}

// State returns the view state
func (r *ResultSet[T]) State() ViewState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.stateLocked()
}

// Snapshot copies the current state
func (r *ResultSet[T]) Snapshot() Snapshot[T] {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := make([]T, len(r.items))
	copy(items, r.items)
	return Snapshot[T]{
		Items:       items,
		Loading:     r.loading,
		HasSearched: r.hasSearched,
		Err:         r.err,
		State:       r.stateLocked(),
	}
}

func (r *ResultSet[T]) stateLocked() ViewState {
	switch {
	case r.loading:
		return StateLoading
	case !r.hasSearched:
		return StateNeverSearched
	case len(r.items) == 0:
		return StateEmpty
	default:
		return StateReady
	}
}
