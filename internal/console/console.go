// Package console is a line oriented front end over the library screens, for librarians working from a shell.
package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/text/message"

	"librarian/internal/browse"
	"librarian/internal/forms"
	"librarian/internal/i18n"
	"librarian/internal/screens"
	"librarian/internal/session"
)

// ErrQuit is returned by Execute when the user asks to leave
var ErrQuit = errors.New("quit")

// Backend is the REST API as the console uses it
type Backend interface {
	screens.Library
	screens.Authenticator
}

type view int

const (
	viewNone view = iota
	viewBooks
	viewReaders
	viewSearch
	viewOverdue
)

// Commands lists every command for completion and help
var Commands = []string{
	"help", "login", "logout", "books", "readers", "search", "history", "recent", "forget", "clear",
	"next", "prev", "first", "last", "page", "overdue", "dashboard", "reader", "book", "borrow",
	"return", "prolong", "status", "newbook", "lang", "dark", "exit", "quit",
}

var public = map[string]bool{"help": true, "login": true, "lang": true, "dark": true, "exit": true, "quit": true}

// Console executes one command line at a time against a desk
type Console struct {
	desk    *screens.Desk
	session *session.Session
	logger  *zap.Logger

	outMu sync.Mutex
	out   io.Writer

	current view
	reader  *screens.ReaderDetail
}

// Options configure a Console
type Options struct {
	Screens screens.Config
	Clock   browse.Clock
	Out     io.Writer
}

// New builds a console for the signed-in state in sess
func New(backend Backend, sess *session.Session, opts Options, logger *zap.Logger) *Console {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Console{session: sess, logger: logger, out: opts.Out}
	if c.out == nil {
		c.out = io.Discard
	}
	c.desk = screens.NewDesk(backend, backend, sess, screens.DeskOptions{
		Config: opts.Screens,
		Notifier: browse.NotifierFunc(func(n browse.Notice) {
			c.println("! " + screens.NoticeText(c.printer(), n))
		}),
		Clock:  opts.Clock,
		Logger: logger,
	})
	return c
}

func (c *Console) printer() *message.Printer {
	return i18n.For(c.session.Language())
}

func (c *Console) println(s string) {
	c.outMu.Lock()
	defer c.outMu.Unlock()
	fmt.Fprintln(c.out, s)
}

// Prompt returns the prompt that shows who is signed in
func (c *Console) Prompt() string {
	if c.session.SignedIn() {
		return "librarian> "
	}
	return "librarian (signed out)> "
}

// Execute runs one command line
func (c *Console) Execute(ctx context.Context, line string) error {
	name, args, _ := strings.Cut(strings.TrimSpace(line), " ")
	name = strings.ToLower(name)
	args = strings.TrimSpace(args)
	if name == "" {
		return nil
	}

	if !public[name] && !c.session.SignedIn() {
		c.println("Please sign in: login <email> <password>")
		return nil
	}

	switch name {
	case "help":
		c.println("Commands: " + strings.Join(Commands, ", "))
	case "exit", "quit":
		return ErrQuit
	case "login":
		c.login(ctx, args)
	case "logout":
		if err := c.desk.Login.Logout(ctx); err != nil {
			return err
		}
		c.println(c.printer().Sprintf("Signed out"))
	case "books":
		c.current = viewBooks
		c.run(c.list(ctx, c.desk.Books.Stream, args))
		c.showBooks()
	case "readers":
		c.current = viewReaders
		c.run(c.list(ctx, c.desk.Readers.Stream, args))
		c.showReaders()
	case "search":
		c.current = viewSearch
		c.run(c.desk.Search.Submit(ctx, args))
		c.showSearch()
	case "history":
		c.showHistory()
	case "recent", "forget":
		c.recent(ctx, name, args)
	case "clear":
		if err := c.desk.Search.ClearRecent(ctx); err != nil {
			return err
		}
		c.showHistory()
	case "next", "prev", "first", "last", "page":
		c.turn(name, args)
	case "overdue":
		c.current = viewOverdue
		if args == "" || c.desk.Delays.View().State == browse.StateNeverSearched {
			c.run(c.desk.Delays.Load(ctx))
		}
		c.desk.Delays.ApplyFilter(args)
		c.showOverdue()
	case "dashboard":
		c.run(c.desk.Dashboard.Load(ctx))
		c.showDashboard()
	case "reader":
		id, ok := c.parseID(args)
		if !ok {
			return nil
		}
		c.reader = c.desk.ReaderDetail(id)
		c.run(c.reader.Load(ctx))
		c.showReader()
	case "book":
		id, ok := c.parseID(args)
		if !ok {
			return nil
		}
		d := c.desk.BookDetail(id)
		c.run(d.Load(ctx))
		c.showBook(d)
	case "borrow", "return", "prolong", "status":
		c.readerAction(ctx, name, args)
	case "newbook":
		c.newBook(ctx, args)
	case "lang":
		tag := i18n.Match(args)
		if err := c.session.SetLanguage(ctx, tag.String()); err != nil {
			return err
		}
		c.println(c.printer().Sprintf("Language updated"))
	case "dark":
		on := args == "on" || (args == "" && !c.session.DarkMode())
		if err := c.session.SetDarkMode(ctx, on); err != nil {
			return err
		}
		if on {
			c.println(c.printer().Sprintf("Dark mode on"))
		} else {
			c.println(c.printer().Sprintf("Dark mode off"))
		}
	default:
		c.println(c.printer().Sprintf("Unknown command"))
	}
	return nil
}

// run logs a failed load. The user already saw the notice.
func (c *Console) run(err error) {
	if err != nil {
		c.logger.Debug("Command failed", zap.Error(err))
	}
}

func (c *Console) list(ctx context.Context, s interface {
	Mount(context.Context) error
	Submit(context.Context, string) error
}, query string) error {
	if query == "" {
		return s.Mount(ctx)
	}
	return s.Submit(ctx, query)
}

func (c *Console) login(ctx context.Context, args string) {
	email, password, _ := strings.Cut(args, " ")
	err := c.desk.Login.Submit(ctx, forms.LoginForm{Email: email, Password: strings.TrimSpace(password)})
	if err != nil {
		c.formFailed(err)
		return
	}
	c.println(c.printer().Sprintf("Signed in"))
}

// formFailed reports errors that no notice covers
func (c *Console) formFailed(err error) {
	if errors.Is(err, forms.ErrInvalid) || errors.Is(err, browse.ErrBusy) {
		c.println("! " + screens.ErrorText(c.printer(), err))
		return
	}
	c.logger.Debug("Submission failed", zap.Error(err))
}

func (c *Console) parseID(args string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimPrefix(args, "#"), 10, 64)
	if err != nil || id <= 0 {
		c.println(c.printer().Sprintf("Send a numeric id, for example /reader 42"))
		return 0, false
	}
	return id, true
}

func (c *Console) recent(ctx context.Context, name, args string) {
	history := c.desk.Search.View().History
	n, err := strconv.Atoi(args)
	if err != nil || n < 1 || n > len(history) {
		c.showHistory()
		return
	}
	query := history[n-1].Query

	if name == "forget" {
		if err := c.desk.Search.RemoveRecent(ctx, query); err != nil {
			c.logger.Error("Failed to remove recent search", zap.Error(err))
		}
		c.showHistory()
		return
	}
	c.current = viewSearch
	c.run(c.desk.Search.RunRecent(ctx, query))
	c.showSearch()
}

func move(action string, n int) func(*browse.Paginator) {
	return func(p *browse.Paginator) {
		switch action {
		case "next":
			p.Next()
		case "prev":
			p.Prev()
		case "first":
			p.First()
		case "last":
			p.Last()
		case "page":
			p.GoTo(n)
		}
	}
}

// turn changes the page of the list shown last. On the search screen
// "readers" as the argument selects the reader results.
func (c *Console) turn(action, args string) {
	fields := strings.Fields(args)
	section := screens.SectionBooks
	n := 0
	for _, f := range fields {
		if f == "readers" {
			section = screens.SectionReaders
		} else if v, err := strconv.Atoi(f); err == nil {
			n = v
		}
	}
	m := move(action, n)

	switch c.current {
	case viewBooks:
		c.desk.Books.Navigate(m)
		c.showBooks()
	case viewReaders:
		c.desk.Readers.Navigate(m)
		c.showReaders()
	case viewSearch:
		c.desk.Search.Navigate(section, m)
		c.showSearch()
	case viewOverdue:
		c.desk.Delays.Navigate(m)
		c.showOverdue()
	default:
		c.println("Open a list first: books, readers, search or overdue")
	}
}

func (c *Console) currentReader() (*screens.ReaderDetail, bool) {
	if c.reader == nil {
		c.println("Open a reader first: reader <id>")
		return nil, false
	}
	return c.reader, true
}

// readerAction runs one of the mutations of the open reader
func (c *Console) readerAction(ctx context.Context, name, args string) {
	r, ok := c.currentReader()
	if !ok {
		return
	}
	fields := strings.Fields(args)
	arg := func(i int) string {
		if i < len(fields) {
			return fields[i]
		}
		return ""
	}

	var err error
	switch name {
	case "borrow":
		r.OpenDialog(screens.DialogBorrow, 0)
		err = r.AddBorrowing(ctx, forms.BorrowForm{BookID: arg(0), DueDate: arg(1)})
	case "return":
		id, ok := c.parseID(arg(0))
		if !ok {
			return
		}
		err = r.RecordReturn(ctx, id)
	case "prolong":
		id, ok := c.parseID(arg(0))
		if !ok {
			return
		}
		r.OpenDialog(screens.DialogProlong, id)
		err = r.Prolong(ctx, id, forms.ProlongForm{DueDate: arg(1)})
	case "status":
		status := strings.ToLower(arg(0))
		if status == "all" {
			status = ""
		}
		q := r.Query()
		q.Status = status
		err = r.SetQuery(ctx, q)
	}
	if err != nil {
		c.formFailed(err)
	}
	c.showReader()
}

// newBook takes "Title;Author;YYYY-MM-DD"
func (c *Console) newBook(ctx context.Context, args string) {
	parts := strings.Split(args, ";")
	for len(parts) < 3 {
		parts = append(parts, "")
	}
	book, err := c.desk.Books.CreateBook(ctx, forms.BookForm{
		Title:           parts[0],
		Author:          parts[1],
		PublicationDate: parts[2],
	})
	if err != nil {
		if errors.Is(err, forms.ErrInvalid) {
			c.println(c.printer().Sprintf("Title;Author;YYYY-MM-DD"))
		}
		c.formFailed(err)
		return
	}
	c.println(fmt.Sprintf("#%d %s", book.ID, screens.BookLine(book)))
}
