// Package screens holds the controllers behind every front end view: list screens with search and
// pagination, detail screens with their mutations, the dashboard and login.
package screens

import (
	"context"
	"time"

	"go.uber.org/zap"

	"librarian/internal/browse"
	"librarian/internal/models"
)

// Library is the part of the REST API the screens use
type Library interface {
	ListBooks(ctx context.Context) ([]models.Book, error)
	SearchBooks(ctx context.Context, query string) ([]models.Book, error)
	GetBook(ctx context.Context, id int64) (models.Book, error)
	UpdateBook(ctx context.Context, book models.Book) error
	CreateBook(ctx context.Context, book models.Book) (models.Book, error)

	ListReaders(ctx context.Context) ([]models.Reader, error)
	SearchReaders(ctx context.Context, query string) ([]models.Reader, error)
	GetReader(ctx context.Context, id int64) (models.Reader, error)
	UpdateReader(ctx context.Context, reader models.Reader) error

	ReaderBorrowings(ctx context.Context, readerID int64) ([]models.Borrowing, error)
	ReaderBorrowingsByStatus(ctx context.Context, readerID int64, q models.BorrowingQuery) ([]models.Borrowing, error)
	BookBorrowings(ctx context.Context, bookID int64) ([]models.Borrowing, error)
	Borrow(ctx context.Context, readerID int64, req models.BorrowRequest) error
	Return(ctx context.Context, borrowingID int64, req models.ReturnRequest) error
	Prolong(ctx context.Context, borrowingID int64, req models.ProlongRequest) error
	Overdue(ctx context.Context) ([]models.Borrowing, error)
	OverdueTop(ctx context.Context) ([]models.Borrowing, error)

	CountBooks(ctx context.Context) (int, error)
	CountReaders(ctx context.Context) (int, error)
	BorrowingsMonthly(ctx context.Context) ([]models.MonthlyCount, error)
	ReadersMonthly(ctx context.Context) ([]models.MonthlyCount, error)
}

// Authenticator exchanges credentials for a token
type Authenticator interface {
	Login(ctx context.Context, creds models.Credentials) (models.LoginResult, error)
}

// Session is the signed-in state the screens read and change
type Session interface {
	Login(ctx context.Context, res models.LoginResult) error
	Logout(ctx context.Context) error
	SignedIn() bool
	History() *browse.History
}

// ScreenConfig tunes one list screen
type ScreenConfig struct {
	PageSize int           `yaml:"page_size"`
	Debounce time.Duration `yaml:"debounce"`
}

// Config tunes every list screen
type Config struct {
	Books   ScreenConfig `yaml:"books"`
	Readers ScreenConfig `yaml:"readers"`
	Search  ScreenConfig `yaml:"search"`
	Delays  ScreenConfig `yaml:"delays"`
}

// DefaultConfig returns the stock page sizes and quiet windows
func DefaultConfig() Config {
	return Config{
		Books:   ScreenConfig{PageSize: 8, Debounce: 500 * time.Millisecond},
		Readers: ScreenConfig{PageSize: 10, Debounce: 1500 * time.Millisecond},
		Search:  ScreenConfig{PageSize: 8, Debounce: 500 * time.Millisecond},
		Delays:  ScreenConfig{PageSize: 10},
	}
}

// Merge fills zero fields of c from DefaultConfig
func (c Config) Merge() Config {
	d := DefaultConfig()
	merge := func(s *ScreenConfig, def ScreenConfig) {
		if s.PageSize <= 0 {
			s.PageSize = def.PageSize
		}
		if s.Debounce < 0 {
			s.Debounce = 0
		}
	}
	if c == (Config{}) {
		return d
	}
	merge(&c.Books, d.Books)
	merge(&c.Readers, d.Readers)
	merge(&c.Search, d.Search)
	merge(&c.Delays, d.Delays)
	return c
}

// Deps are shared by every screen of one desk
type Deps struct {
	Library  Library
	Notifier browse.Notifier
	Clock    browse.Clock
	Logger   *zap.Logger
}

func (d Deps) withDefaults() Deps {
	if d.Notifier == nil {
		d.Notifier = browse.Discard
	}
	if d.Clock == nil {
		d.Clock = browse.SystemClock()
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	return d
}

func (d Deps) today() models.Date {
	return models.NewDate(d.Clock.Now())
}
