package screens

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"librarian/internal/browse"
	"librarian/internal/metrics"
	"librarian/internal/models"
)

// Section is one result list of the search screen
type Section int

const (
	SectionBooks Section = iota
	SectionReaders
)

// SearchView is what a front end renders for the search screen
type SearchView struct {
	Query   string
	Books   browse.View[models.Book]
	Readers browse.View[models.Reader]
	History []browse.RecentSearch
}

// Search looks up books and readers with one query and remembers recent queries.
// Both lists are fetched concurrently under one request number.
type Search struct {
	deps    Deps
	history *browse.History

	debouncer *browse.Debouncer
	seq       browse.Sequencer

	mu          sync.Mutex
	query       string
	books       *browse.ResultSet[models.Book]
	readers     *browse.ResultSet[models.Reader]
	bookPages   *browse.Paginator
	readerPages *browse.Paginator
	subscribers []func(SearchView)
}

// NewSearch creates the search screen. history may be nil.
func NewSearch(d Deps, cfg ScreenConfig, history *browse.History) *Search {
	d = d.withDefaults()
	return &Search{
		deps:        d,
		history:     history,
		debouncer:   browse.NewDebouncer(d.Clock, cfg.Debounce),
		books:       browse.NewResultSet[models.Book]("search books", browse.Discard),
		readers:     browse.NewResultSet[models.Reader]("search readers", browse.Discard),
		bookPages:   browse.NewPaginator(cfg.PageSize),
		readerPages: browse.NewPaginator(cfg.PageSize),
	}
}

// Update records the text typed so far. A blank query clears both lists at once.
func (s *Search) Update(ctx context.Context, query string) {
	s.mu.Lock()
	s.query = query
	s.mu.Unlock()

	if strings.TrimSpace(query) == "" {
		s.reset()
		return
	}

	bg := context.WithoutCancel(ctx)
	s.debouncer.Trigger(func() {
		_ = s.run(bg, query)
	})
}

// Submit runs query immediately
func (s *Search) Submit(ctx context.Context, query string) error {
	s.debouncer.Cancel()

	s.mu.Lock()
	s.query = query
	s.mu.Unlock()

	if strings.TrimSpace(query) == "" {
		s.reset()
		return nil
	}
	return s.run(ctx, query)
}

func (s *Search) reset() {
	s.debouncer.Cancel()
	s.seq.Invalidate()

	s.mu.Lock()
	s.books.Clear()
	s.readers.Clear()
	s.bookPages.Reset(0)
	s.readerPages.Reset(0)
	s.mu.Unlock()

	s.publish()
}

func (s *Search) run(ctx context.Context, query string) error {
	query = strings.TrimSpace(query)

	s.mu.Lock()
	seq := s.seq.Next()
	s.books.BeginFetch()
	s.readers.BeginFetch()
	s.mu.Unlock()
	s.publish()
	metrics.SearchesTotal.WithLabelValues("search").Inc()

	var (
		books             []models.Book
		readers           []models.Reader
		bookErr, readerErr error
	)
	_ = browse.FetchAll(ctx,
		func(ctx context.Context) error {
			books, bookErr = s.deps.Library.SearchBooks(ctx, query)
			return bookErr
		},
		func(ctx context.Context) error {
			readers, readerErr = s.deps.Library.SearchReaders(ctx, query)
			return readerErr
		},
	)

	s.mu.Lock()
	if !s.seq.IsLatest(seq) {
		s.mu.Unlock()
		metrics.StaleResponsesTotal.WithLabelValues("search").Inc()
		s.deps.Logger.Debug("dropping stale search response", zap.String("query", query), zap.Uint64("seq", seq))
		return nil
	}
	if bookErr != nil {
		s.books.Fail(bookErr)
	} else {
		s.books.Resolve(books)
		s.bookPages.Reset(len(books))
	}
	if readerErr != nil {
		s.readers.Fail(readerErr)
	} else {
		s.readers.Resolve(readers)
		s.readerPages.Reset(len(readers))
	}
	s.mu.Unlock()

	if bookErr != nil {
		s.deps.Notifier.Notify(browse.Notice{Kind: browse.NoticeError, Op: "search books", Err: bookErr})
	}
	if readerErr != nil {
		s.deps.Notifier.Notify(browse.Notice{Kind: browse.NoticeError, Op: "search readers", Err: readerErr})
	}

	if bookErr == nil && readerErr == nil && s.history != nil {
		if err := s.history.Record(ctx, query, len(books)+len(readers)); err != nil {
			s.deps.Logger.Warn("failed to record search", zap.String("query", query), zap.Error(err))
		}
	}

	s.publish()
	if bookErr != nil {
		return bookErr
	}
	return readerErr
}

// Navigate moves the paginator of one section
func (s *Search) Navigate(section Section, move func(*browse.Paginator)) {
	s.mu.Lock()
	if section == SectionReaders {
		move(s.readerPages)
	} else {
		move(s.bookPages)
	}
	s.mu.Unlock()
	s.publish()
}

// GoTo jumps to page n of one section
func (s *Search) GoTo(section Section, n int) {
	s.Navigate(section, func(p *browse.Paginator) { p.GoTo(n) })
}

// RunRecent runs a query from the history again
func (s *Search) RunRecent(ctx context.Context, query string) error {
	return s.Submit(ctx, query)
}

// RemoveRecent deletes one query from the history
func (s *Search) RemoveRecent(ctx context.Context, query string) error {
	if s.history == nil {
		return nil
	}
	err := s.history.Remove(ctx, query)
	s.publish()
	return err
}

// ClearRecent empties the history
func (s *Search) ClearRecent(ctx context.Context) error {
	if s.history == nil {
		return nil
	}
	err := s.history.Clear(ctx)
	s.publish()
	return err
}

// Pending reports whether a debounced query waits to be sent
func (s *Search) Pending() bool {
	return s.debouncer.Pending()
}

// View returns the current state of both sections
func (s *Search) View() SearchView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

// Subscribe registers fn to receive every view change
func (s *Search) Subscribe(fn func(SearchView)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

func (s *Search) viewLocked() SearchView {
	books := s.books.Snapshot()
	readers := s.readers.Snapshot()

	v := SearchView{
		Query: s.query,
		Books: browse.View[models.Book]{
			Query: s.query, State: books.State, Page: browse.PageOf(s.bookPages, books.Items), Err: books.Err,
		},
		Readers: browse.View[models.Reader]{
			Query: s.query, State: readers.State, Page: browse.PageOf(s.readerPages, readers.Items), Err: readers.Err,
		},
	}
	if s.history != nil {
		v.History = s.history.Entries()
	}
	return v
}

func (s *Search) publish() {
	s.mu.Lock()
	if len(s.subscribers) == 0 {
		s.mu.Unlock()
		return
	}
	v := s.viewLocked()
	subs := append([]func(SearchView){}, s.subscribers...)
	s.mu.Unlock()

	for _, fn := range subs {
		fn(v)
	}
}
