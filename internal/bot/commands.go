package bot

import (
	"context"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"librarian/internal/i18n"
)

// handleStart shows welcome message and available commands
func (b *Bot) handleStart(d *chatDesk) {
	p := d.printer()
	text := b.escape(p.Sprintf("Welcome to the library administration.")) + `

/login, /logout
/books [query]
/readers [query]
/search [query], /history, /clear
/reader &lt;id&gt;, /book &lt;id&gt;, /new_book
/overdue
/dashboard
/language [en|cs], /darkmode`
	b.sendHTML(d.chat(), text, nil)
}

// handleBooks opens the catalogue, searching right away when a query is given
func (b *Bot) handleBooks(ctx context.Context, d *chatDesk, query string) {
	d.activate(screenBooks)
	var err error
	if query != "" {
		err = d.Books.Submit(ctx, query)
	} else {
		err = d.Books.Mount(ctx)
	}
	if err != nil {
		b.logger.Debug("Books failed to load", zap.Error(err))
	}
	b.showBooks(d, d.Books.View())
}

// handleReaders opens the reader list
func (b *Bot) handleReaders(ctx context.Context, d *chatDesk, query string) {
	d.activate(screenReaders)
	var err error
	if query != "" {
		err = d.Readers.Submit(ctx, query)
	} else {
		err = d.Readers.Mount(ctx)
	}
	if err != nil {
		b.logger.Debug("Readers failed to load", zap.Error(err))
	}
	b.showReaders(d, d.Readers.View())
}

// handleSearch opens the combined search, or shows recent searches without a query
func (b *Bot) handleSearch(ctx context.Context, d *chatDesk, query string) {
	d.activate(screenSearch)
	if query != "" {
		if err := d.Search.Submit(ctx, query); err != nil {
			b.logger.Debug("Search failed", zap.String("query", query), zap.Error(err))
		}
	}
	b.showSearch(d, d.Search.View())
}

// handleClear empties the query of the active list
func (b *Bot) handleClear(ctx context.Context, d *chatDesk) {
	switch d.screen() {
	case screenBooks:
		d.startTyping()
		d.Books.Update(ctx, "")
	case screenReaders:
		d.startTyping()
		d.Readers.Update(ctx, "")
	case screenSearch:
		d.startTyping()
		d.Search.Update(ctx, "")
	case screenOverdue:
		d.Delays.ApplyFilter("")
		b.showOverdue(d)
	default:
		b.handleStart(d)
	}
}

// handleReader opens the detail of a reader
func (b *Bot) handleReader(ctx context.Context, d *chatDesk, arg string) {
	id, ok := b.parseID(d, arg)
	if !ok {
		return
	}
	d.activate(screenNone)
	rd := d.openReader(id)
	if err := rd.Load(ctx); err != nil {
		b.logger.Debug("Reader detail failed to load", zap.Int64("reader_id", id), zap.Error(err))
	}
	b.showReader(d, rd)
}

// handleBook opens the detail of a book
func (b *Bot) handleBook(ctx context.Context, d *chatDesk, arg string) {
	id, ok := b.parseID(d, arg)
	if !ok {
		return
	}
	d.activate(screenNone)
	bd := d.openBook(id)
	if err := bd.Load(ctx); err != nil {
		b.logger.Debug("Book detail failed to load", zap.Int64("book_id", id), zap.Error(err))
	}
	b.showBook(d, bd)
}

// handleOverdue lists overdue borrowings
func (b *Bot) handleOverdue(ctx context.Context, d *chatDesk) {
	d.activate(screenOverdue)
	if err := d.Delays.Load(ctx); err != nil {
		b.logger.Debug("Overdue borrowings failed to load", zap.Error(err))
	}
	b.showOverdue(d)
}

// handleDashboard shows the statistics
func (b *Bot) handleDashboard(ctx context.Context, d *chatDesk) {
	d.activate(screenNone)
	if err := d.Dashboard.Load(ctx); err != nil {
		b.logger.Debug("Dashboard partly failed to load", zap.Error(err))
	}
	b.showDashboard(d)
}

// handleLogout drops the token of the user
func (b *Bot) handleLogout(ctx context.Context, d *chatDesk) {
	if err := d.Login.Logout(ctx); err != nil {
		b.logger.Error("Failed to sign out", zap.String("profile", d.session.Profile()), zap.Error(err))
		b.say(d, "%s failed: %v", "sign out", err)
		return
	}
	b.say(d, "Signed out")
}

// handleLanguage switches the UI language, or offers the choice without an argument
func (b *Bot) handleLanguage(ctx context.Context, d *chatDesk, arg string) {
	if arg == "" {
		rows := [][]tgbotapi.InlineKeyboardButton{tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("English", "lang:en"),
			tgbotapi.NewInlineKeyboardButtonData("Čeština", "lang:cs"),
		)}
		b.sendHTML(d.chat(), b.escape(d.printer().Sprintf("Language")), keyboard(rows))
		return
	}

	tag := i18n.Match(arg)
	if err := d.session.SetLanguage(ctx, tag.String()); err != nil {
		b.logger.Error("Failed to store language", zap.Error(err))
		b.say(d, "%s failed: %v", "set language", err)
		return
	}
	b.say(d, "Language updated")
}

// handleDarkMode toggles the stored theme preference
func (b *Bot) handleDarkMode(ctx context.Context, d *chatDesk) {
	on := !d.session.DarkMode()
	if err := d.session.SetDarkMode(ctx, on); err != nil {
		b.logger.Error("Failed to store dark mode", zap.Error(err))
		b.say(d, "%s failed: %v", "set dark mode", err)
		return
	}
	if on {
		b.say(d, "Dark mode on")
	} else {
		b.say(d, "Dark mode off")
	}
}

func (b *Bot) parseID(d *chatDesk, arg string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
	if err != nil || id <= 0 {
		b.say(d, "Send a numeric id, for example /reader 42")
		return 0, false
	}
	return id, true
}
