package bot

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/jellydator/ttlcache/v3"
	"go.uber.org/zap"
	"golang.org/x/text/message"

	"librarian/internal/browse"
	"librarian/internal/i18n"
	"librarian/internal/models"
	"librarian/internal/screens"
	"librarian/internal/session"
)

// screen is the list a chat currently types into
type screen string

const (
	screenNone    screen = ""
	screenBooks   screen = "books"
	screenReaders screen = "readers"
	screenSearch  screen = "search"
	screenOverdue screen = "overdue"
)

// chatDesk is the desk of one Telegram user together with where their answers go
type chatDesk struct {
	*screens.Desk
	session  *session.Session
	langCode string

	mu       sync.Mutex
	chatID   int64
	active   screen
	typing   bool
	readerID int64
	bookID   int64
}

func (d *chatDesk) chat() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.chatID
}

func (d *chatDesk) printer() *message.Printer {
	return i18n.For(d.session.Language(), d.langCode)
}

func (d *chatDesk) activate(s screen) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.active = s
	d.typing = false
}

func (d *chatDesk) screen() screen {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.active
}

// startTyping marks that the next settled view of the active screen answers the user's text
func (d *chatDesk) startTyping() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.typing = true
}

func (d *chatDesk) takeTyping(s screen) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.active != s || !d.typing {
		return false
	}
	d.typing = false
	return true
}

func (d *chatDesk) openReader(id int64) *screens.ReaderDetail {
	d.mu.Lock()
	d.readerID = id
	d.mu.Unlock()
	return d.ReaderDetail(id)
}

func (d *chatDesk) openBook(id int64) *screens.BookDetail {
	d.mu.Lock()
	d.bookID = id
	d.mu.Unlock()
	return d.BookDetail(id)
}

func (d *chatDesk) currentReader() (*screens.ReaderDetail, bool) {
	d.mu.Lock()
	id := d.readerID
	d.mu.Unlock()
	if id == 0 {
		return nil, false
	}
	return d.ReaderDetail(id), true
}

func (d *chatDesk) currentBook() (*screens.BookDetail, bool) {
	d.mu.Lock()
	id := d.bookID
	d.mu.Unlock()
	if id == 0 {
		return nil, false
	}
	return d.BookDetail(id), true
}

// desk returns the desk of user, creating it from their stored session on first use.
// A zero chatID keeps the chat the desk answers to.
func (b *Bot) desk(ctx context.Context, userID int64, langCode string, chatID int64) (*chatDesk, error) {
	if item := b.desks.Get(userID); item != nil {
		d := item.Value()
		if chatID != 0 {
			d.mu.Lock()
			d.chatID = chatID
			d.mu.Unlock()
		}
		return d, nil
	}

	b.desksMu.Lock()
	defer b.desksMu.Unlock()

	if item := b.desks.Get(userID); item != nil {
		return item.Value(), nil
	}

	sess, err := b.sessions.Get(ctx, strconv.FormatInt(userID, 10))
	if err != nil {
		return nil, fmt.Errorf("failed to load session of user %d: %w", userID, err)
	}

	d := &chatDesk{session: sess, langCode: langCode, chatID: chatID}
	backend := b.backend(sess)
	d.Desk = screens.NewDesk(backend, backend, sess, screens.DeskOptions{
		Config: b.screens,
		Notifier: browse.NotifierFunc(func(n browse.Notice) {
			b.sendHTML(d.chat(), b.escape(screens.NoticeText(d.printer(), n)), nil)
		}),
		Clock:  b.clock,
		Logger: b.logger.With(zap.Int64("user_id", userID)),
	})
	b.watch(d)

	b.desks.Set(userID, d, ttlcache.DefaultTTL)
	b.logger.Debug("Desk created", zap.Int64("user_id", userID))
	return d, nil
}

// watch answers typed queries once their debounced fetch settles
func (b *Bot) watch(d *chatDesk) {
	d.Books.Subscribe(func(v browse.View[models.Book]) {
		if v.State != browse.StateLoading && d.takeTyping(screenBooks) {
			b.showBooks(d, v)
		}
	})
	d.Readers.Subscribe(func(v browse.View[models.Reader]) {
		if v.State != browse.StateLoading && d.takeTyping(screenReaders) {
			b.showReaders(d, v)
		}
	})
	d.Search.Subscribe(func(v screens.SearchView) {
		if v.Books.State != browse.StateLoading && v.Readers.State != browse.StateLoading && d.takeTyping(screenSearch) {
			b.showSearch(d, v)
		}
	})
	d.Delays.Subscribe(func(v screens.DelaysView) {
		if v.State != browse.StateLoading && d.takeTyping(screenOverdue) {
			b.showOverdue(d)
		}
	})
}

// StartDesks runs the expiry loop of idle desks until StopDesks is called
func (b *Bot) StartDesks() {
	b.desks.Start()
}

// StopDesks ends the expiry loop of idle desks
func (b *Bot) StopDesks() {
	b.desks.Stop()
}
