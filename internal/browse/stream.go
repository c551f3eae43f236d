package browse

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"librarian/internal/metrics"
)

// FetchFunc searches the server for query
type FetchFunc[T any] func(ctx context.Context, query string) ([]T, error)

// ListFunc fetches the unfiltered list
type ListFunc[T any] func(ctx context.Context) ([]T, error)

// StreamConfig configures a query stream
type StreamConfig struct {
	// Name labels metrics and notices, e.g. "books"
	Name     string
	PageSize int
	// Window is the quiet period before a typed query is sent
	Window time.Duration
}

// View is what a front end renders for a stream
type View[T any] struct {
	Query string
	State ViewState
	Page  Page[T]
	Err   error
}

// Stream is the search data flow of a single-list screen: debounced queries with last-write-wins
// responses, a result set and a paginator over it.
type Stream[T any] struct {
	cfg      StreamConfig
	search   FetchFunc[T]
	list     ListFunc[T]
	logger   *zap.Logger
	notifier Notifier
	clock    Clock

	debouncer *Debouncer
	results   *ResultSet[T]
	seq       Sequencer

	mu           sync.Mutex
	query        string
	pager        *Paginator
	defaults     []T
	haveDefaults bool
	subscribers  []func(View[T])
}

// StreamOption customizes a Stream
type StreamOption[T any] func(*Stream[T])

// WithDefaultList sets the list shown for an empty query
func WithDefaultList[T any](list ListFunc[T]) StreamOption[T] {
	return func(s *Stream[T]) {
		s.list = list
	}
}

// WithClock replaces the system clock
func WithClock[T any](c Clock) StreamOption[T] {
	return func(s *Stream[T]) {
		s.clock = c
	}
}

// WithLogger sets the logger
func WithLogger[T any](l *zap.Logger) StreamOption[T] {
	return func(s *Stream[T]) {
		s.logger = l
	}
}

// WithNotifier sets where failures are reported
func WithNotifier[T any](n Notifier) StreamOption[T] {
	return func(s *Stream[T]) {
		s.notifier = n
	}
}

// NewStream creates a stream that searches with search
func NewStream[T any](cfg StreamConfig, search FetchFunc[T], opts ...StreamOption[T]) *Stream[T] {
	s := &Stream[T]{
		cfg:    cfg,
		search: search,
		logger: zap.NewNop(),
		clock:  SystemClock(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.notifier = notifierOrDiscard(s.notifier)
	s.debouncer = NewDebouncer(s.clock, cfg.Window)
	s.results = NewResultSet[T](cfg.Name, Discard)
	s.pager = NewPaginator(cfg.PageSize)
	return s
}

// Mount loads the default list, if the stream has one. Any search typed before is forgotten.
func (s *Stream[T]) Mount(ctx context.Context) error {
	s.debouncer.Cancel()
	s.mu.Lock()
	s.query = ""
	s.mu.Unlock()

	if s.list == nil {
		return nil
	}
	return s.run(ctx, "", false)
}

// Update records the text typed so far. A blank query resets synchronously to the default list
// (or the never-searched state); anything else is sent after the quiet window.
func (s *Stream[T]) Update(ctx context.Context, query string) {
	s.mu.Lock()
	s.query = query

	if strings.TrimSpace(query) != "" {
		s.mu.Unlock()
		bg := context.WithoutCancel(ctx)
		s.debouncer.Trigger(func() {
			_ = s.run(bg, query, false)
		})
		return
	}

	s.debouncer.Cancel()
	s.seq.Invalidate()
	reload := false
	switch {
	case s.haveDefaults:
		s.results.Resolve(s.defaults)
		s.pager.Reset(len(s.defaults))
	case s.list != nil:
		reload = true
	default:
		s.results.Clear()
		s.pager.Reset(0)
	}
	s.mu.Unlock()

	if reload {
		_ = s.run(ctx, "", false)
		return
	}
	s.publish()
}

// Submit sends query immediately, dropping any pending debounced one
func (s *Stream[T]) Submit(ctx context.Context, query string) error {
	s.debouncer.Cancel()
	if strings.TrimSpace(query) == "" {
		s.Update(ctx, query)
		return nil
	}

	s.mu.Lock()
	s.query = query
	s.mu.Unlock()
	return s.run(ctx, query, false)
}

// Refresh reloads the current query, keeping the current page when it still exists
func (s *Stream[T]) Refresh(ctx context.Context) error {
	s.mu.Lock()
	query := s.query
	if strings.TrimSpace(query) != "" {
		// the cached list may be out of date after a change
		s.haveDefaults = false
	}
	s.mu.Unlock()

	if strings.TrimSpace(query) == "" {
		if s.list == nil {
			return nil
		}
		query = ""
	}
	return s.run(ctx, query, true)
}

func (s *Stream[T]) run(ctx context.Context, query string, keepPage bool) error {
	s.mu.Lock()
	seq := s.seq.Next()
	s.results.BeginFetch()
	s.mu.Unlock()
	s.publish()

	var (
		items []T
		err   error
	)
	if query == "" {
		items, err = s.list(ctx)
	} else {
		metrics.SearchesTotal.WithLabelValues(s.cfg.Name).Inc()
		items, err = s.search(ctx, query)
	}

	s.mu.Lock()
	if !s.seq.IsLatest(seq) {
		s.mu.Unlock()
		metrics.StaleResponsesTotal.WithLabelValues(s.cfg.Name).Inc()
		s.logger.Debug("dropping stale response",
			zap.String("stream", s.cfg.Name),
			zap.String("query", query),
			zap.Uint64("seq", seq))
		return nil
	}
	if err != nil {
		s.results.Fail(err)
		s.mu.Unlock()
		s.logger.Warn("fetch failed",
			zap.String("stream", s.cfg.Name),
			zap.String("query", query),
			zap.Error(err))
		s.notifier.Notify(Notice{Kind: NoticeError, Op: s.cfg.Name, Err: err})
		s.publish()
		return err
	}

	if query == "" {
		s.defaults = items
		s.haveDefaults = true
	}
	s.results.Resolve(items)
	if keepPage {
		s.pager.SetTotal(len(items))
	} else {
		s.pager.Reset(len(items))
	}
	s.mu.Unlock()

	s.publish()
	return nil
}

// NextPage moves one page forward
func (s *Stream[T]) NextPage() {
	s.Navigate(func(p *Paginator) { p.Next() })
}

// PrevPage moves one page back
func (s *Stream[T]) PrevPage() {
	s.Navigate(func(p *Paginator) { p.Prev() })
}

// GoToPage jumps to page n, clamped to the existing pages
func (s *Stream[T]) GoToPage(n int) {
	s.Navigate(func(p *Paginator) { p.GoTo(n) })
}

// FirstPage jumps to page 1
func (s *Stream[T]) FirstPage() {
	s.Navigate((*Paginator).First)
}

// LastPage jumps to the final page
func (s *Stream[T]) LastPage() {
	s.Navigate((*Paginator).Last)
}

// Navigate applies move to the pager and publishes the new page
func (s *Stream[T]) Navigate(move func(*Paginator)) {
	s.mu.Lock()
	move(s.pager)
	s.mu.Unlock()
	s.publish()
}

// Query returns the text typed so far
func (s *Stream[T]) Query() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.query
}

// Pending reports whether a debounced query waits to be sent
func (s *Stream[T]) Pending() bool {
	return s.debouncer.Pending()
}

// Items returns every item of the current result, across pages
func (s *Stream[T]) Items() []T {
	return s.results.Items()
}

// View returns the current page and state
func (s *Stream[T]) View() View[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

// Subscribe registers fn to receive every view change
func (s *Stream[T]) Subscribe(fn func(View[T])) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

func (s *Stream[T]) viewLocked() View[T] {
	snap := s.results.Snapshot()
	return View[T]{
		Query: s.query,
		State: snap.State,
		Page:  PageOf(s.pager, snap.Items),
		Err:   snap.Err,
	}
}

func (s *Stream[T]) publish() {
	s.mu.Lock()
	if len(s.subscribers) == 0 {
		s.mu.Unlock()
		return
	}
	v := s.viewLocked()
	subs := append([]func(View[T]){}, s.subscribers...)
	s.mu.Unlock()

	for _, fn := range subs {
		fn(v)
	}
}
