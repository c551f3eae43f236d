package browse

import (
	"context"
	"errors"
	"sync"
)

// ErrBusy is returned when a mutation is submitted while the previous one is still running
var ErrBusy = errors.New("operation already in progress")

// Slot holds one independently fetched value of a composite screen
type Slot[T any] struct {
	op       string
	notifier Notifier
	seq      Sequencer

	mu     sync.RWMutex
	result Result[T]
}

// NewSlot creates an idle slot. Failures are reported to n as op.
func NewSlot[T any](op string, n Notifier) *Slot[T] {
	return &Slot[T]{op: op, notifier: notifierOrDiscard(n)}
}

// Load runs fetch and stores its outcome. A failed fetch keeps the previous value.
// When a newer Load started meanwhile, the outcome is dropped.
func (s *Slot[T]) Load(ctx context.Context, fetch func(context.Context) (T, error)) error {
	seq := s.seq.Next()

	s.mu.Lock()
	s.result.Status = StatusPending
	s.result.Err = nil
	s.mu.Unlock()

	v, err := fetch(ctx)

	s.mu.Lock()
	if !s.seq.IsLatest(seq) {
		s.mu.Unlock()
		return nil
	}
	if err != nil {
		s.result.Status = StatusFailed
		s.result.Err = err
		s.mu.Unlock()
		s.notifier.Notify(Notice{Kind: NoticeError, Op: s.op, Err: err})
		return err
	}
	s.result = Success(v)
	s.mu.Unlock()
	return nil
}

// Set stores a value directly, invalidating any fetch in flight
func (s *Slot[T]) Set(v T) {
	s.seq.Invalidate()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.result = Success(v)
}

// Result returns the current outcome
func (s *Slot[T]) Result() Result[T] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.result
}

// Value returns the last good value
func (s *Slot[T]) Value() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.result.Value
}

// FetchAll runs loaders concurrently and waits for all of them. One failure does not affect the others;
// the returned error joins every failure.
func FetchAll(ctx context.Context, loaders ...func(context.Context) error) error {
	errs := make([]error, len(loaders))

	var wg sync.WaitGroup
	for i, load := range loaders {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = load(ctx)
		}()
	}
	wg.Wait()

	return errors.Join(errs...)
}

// MutationState tracks a user-initiated write
type MutationState int

const (
	MutationIdle MutationState = iota
	MutationSubmitting
	MutationSucceeded
	MutationFailed
)

func (s MutationState) String() string {
	switch s {
	case MutationSubmitting:
		return "submitting"
	case MutationSucceeded:
		return "succeeded"
	case MutationFailed:
		return "failed"
	default:
		return "idle"
	}
}

// Mutation runs one write at a time. Failures are not retried.
type Mutation struct {
	op       string
	notifier Notifier

	mu    sync.Mutex
	state MutationState
	err   error
}

// NewMutation creates an idle mutation reported to n as op
func NewMutation(op string, n Notifier) *Mutation {
	return &Mutation{op: op, notifier: notifierOrDiscard(n)}
}

// Submit runs do. On success the user is notified and refetch reloads the dependent data from the server;
// on failure the user is notified and nothing else changes. A submit while another one runs returns ErrBusy.
func (m *Mutation) Submit(ctx context.Context, do func(context.Context) error, refetch func(context.Context) error) error {
	m.mu.Lock()
	if m.state == MutationSubmitting {
		m.mu.Unlock()
		return ErrBusy
	}
	m.state = MutationSubmitting
	m.err = nil
	m.mu.Unlock()

	if err := do(ctx); err != nil {
		m.mu.Lock()
		m.state = MutationFailed
		m.err = err
		m.mu.Unlock()
		m.notifier.Notify(Notice{Kind: NoticeError, Op: m.op, Err: err})
		return err
	}

	m.mu.Lock()
	m.state = MutationSucceeded
	m.mu.Unlock()
	m.notifier.Notify(Notice{Kind: NoticeSuccess, Op: m.op})

	if refetch != nil {
		// the refreshed list reports its own failures
		_ = refetch(ctx)
	}
	return nil
}

// State returns the current state
func (m *Mutation) State() MutationState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Err returns the error of the last failed submit
func (m *Mutation) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

// Reset returns a finished mutation to idle, as when its dialog is reopened
func (m *Mutation) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != MutationSubmitting {
		m.state = MutationIdle
		m.err = nil
	}
}
