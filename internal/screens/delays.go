package screens

import (
	"context"
	"strings"
	"sync"

	"librarian/internal/browse"
	"librarian/internal/models"
)

// DelaysView is what a front end renders for the overdue list
type DelaysView struct {
	Filter string
	State  browse.ViewState
	Page   browse.Page[models.Borrowing]
	Err    error
}

// Delays lists overdue borrowings, filtered on the client by reader name or book title
type Delays struct {
	deps      Deps
	overdue   *browse.Slot[[]models.Borrowing]
	debouncer *browse.Debouncer

	mu          sync.Mutex
	filter      string
	filtered    []models.Borrowing
	pager       *browse.Paginator
	subscribers []func(DelaysView)
}

// NewDelays creates the delays screen
func NewDelays(d Deps, cfg ScreenConfig) *Delays {
	d = d.withDefaults()
	return &Delays{
		deps:      d,
		overdue:   browse.NewSlot[[]models.Borrowing]("load overdue borrowings", d.Notifier),
		debouncer: browse.NewDebouncer(d.Clock, cfg.Debounce),
		pager:     browse.NewPaginator(cfg.PageSize),
	}
}

// Load fetches the overdue borrowings
func (s *Delays) Load(ctx context.Context) error {
	err := s.overdue.Load(ctx, s.deps.Library.Overdue)

	s.mu.Lock()
	s.applyLocked()
	s.mu.Unlock()

	s.publish()
	return err
}

// SetFilter narrows the list once the quiet window passes. The page goes back to 1.
func (s *Delays) SetFilter(filter string) {
	s.debouncer.Trigger(func() {
		s.filterNow(filter)
	})
}

// ApplyFilter narrows the list at once, dropping a filter still waiting for its window
func (s *Delays) ApplyFilter(filter string) {
	s.debouncer.Cancel()
	s.filterNow(filter)
}

// Pending reports whether a typed filter waits to be applied
func (s *Delays) Pending() bool {
	return s.debouncer.Pending()
}

func (s *Delays) filterNow(filter string) {
	s.mu.Lock()
	s.filter = filter
	s.applyLocked()
	s.mu.Unlock()

	s.publish()
}

func (s *Delays) applyLocked() {
	all := s.overdue.Value()
	needle := strings.ToLower(strings.TrimSpace(s.filter))

	filtered := make([]models.Borrowing, 0, len(all))
	for _, b := range all {
		if needle == "" ||
			strings.Contains(strings.ToLower(b.Reader.FullName()), needle) ||
			strings.Contains(strings.ToLower(b.Book.Title), needle) {
			filtered = append(filtered, b)
		}
	}
	s.filtered = filtered
	s.pager.Reset(len(filtered))
}

// Navigate moves the paginator
func (s *Delays) Navigate(move func(*browse.Paginator)) {
	s.mu.Lock()
	move(s.pager)
	s.mu.Unlock()

	s.publish()
}

// Subscribe registers fn to receive the view after every change
func (s *Delays) Subscribe(fn func(DelaysView)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

func (s *Delays) publish() {
	s.mu.Lock()
	subs := append([]func(DelaysView){}, s.subscribers...)
	s.mu.Unlock()
	if len(subs) == 0 {
		return
	}

	v := s.View()
	for _, fn := range subs {
		fn(v)
	}
}

// View returns the current page
func (s *Delays) View() DelaysView {
	res := s.overdue.Result()

	s.mu.Lock()
	defer s.mu.Unlock()

	state := browse.StateReady
	switch {
	case res.Status == browse.StatusPending:
		state = browse.StateLoading
	case res.Status == browse.StatusIdle:
		state = browse.StateNeverSearched
	case len(s.filtered) == 0:
		state = browse.StateEmpty
	}
	return DelaysView{
		Filter: s.filter,
		State:  state,
		Page:   browse.PageOf(s.pager, s.filtered),
		Err:    res.Err,
	}
}
