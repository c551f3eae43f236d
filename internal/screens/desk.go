package screens

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"librarian/internal/browse"
)

// DeskOptions configure a Desk
type DeskOptions struct {
	Config   Config
	Notifier browse.Notifier
	Clock    browse.Clock
	Logger   *zap.Logger
}

// Desk is the set of screens one librarian works with. Front ends keep one desk per user.
type Desk struct {
	Session   Session
	Login     *Login
	Books     *Books
	Readers   *Readers
	Search    *Search
	Delays    *Delays
	Dashboard *Dashboard

	deps Deps

	mu     sync.Mutex
	reader *ReaderDetail
	book   *BookDetail
}

// NewDesk builds every screen on top of lib, signed in through session
func NewDesk(lib Library, auth Authenticator, session Session, opts DeskOptions) *Desk {
	cfg := opts.Config.Merge()
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	deps := Deps{
		Library:  lib,
		Notifier: Guard(opts.Notifier, session, logger),
		Clock:    opts.Clock,
		Logger:   logger,
	}.withDefaults()

	return &Desk{
		Session:   session,
		Login:     NewLogin(auth, session, opts.Notifier, logger),
		Books:     NewBooks(deps, cfg.Books),
		Readers:   NewReaders(deps, cfg.Readers),
		Search:    NewSearch(deps, cfg.Search, session.History()),
		Delays:    NewDelays(deps, cfg.Delays),
		Dashboard: NewDashboard(deps),
		deps:      deps,
	}
}

// ReaderDetail returns the detail screen of reader id, reusing the open one
func (d *Desk) ReaderDetail(id int64) *ReaderDetail {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.reader == nil || d.reader.ID() != id {
		d.reader = NewReaderDetail(d.deps, id)
	}
	return d.reader
}

// BookDetail returns the detail screen of book id, reusing the open one
func (d *Desk) BookDetail(id int64) *BookDetail {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.book == nil || d.book.ID() != id {
		d.book = NewBookDetail(d.deps, id)
	}
	return d.book
}

// Now returns the desk clock time
func (d *Desk) Now() time.Time {
	return d.deps.Clock.Now()
}
