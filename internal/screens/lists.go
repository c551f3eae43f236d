package screens

import (
	"context"

	"go.uber.org/zap"

	"librarian/internal/browse"
	"librarian/internal/forms"
	"librarian/internal/models"
)

// Books lists the catalogue with a debounced search and creates books
type Books struct {
	*browse.Stream[models.Book]

	deps   Deps
	Create *browse.Mutation
}

// NewBooks creates the books screen
func NewBooks(d Deps, cfg ScreenConfig) *Books {
	d = d.withDefaults()
	return &Books{
		Stream: browse.NewStream[models.Book](
			browse.StreamConfig{Name: "books", PageSize: cfg.PageSize, Window: cfg.Debounce},
			d.Library.SearchBooks,
			browse.WithDefaultList[models.Book](d.Library.ListBooks),
			browse.WithClock[models.Book](d.Clock),
			browse.WithNotifier[models.Book](d.Notifier),
			browse.WithLogger[models.Book](d.Logger.Named("books")),
		),
		deps:   d,
		Create: browse.NewMutation("create book", d.Notifier),
	}
}

// CreateBook validates form, submits it and reloads the list from the server
func (b *Books) CreateBook(ctx context.Context, form forms.BookForm) (models.Book, error) {
	book, err := form.Validate()
	if err != nil {
		return models.Book{}, err
	}

	var created models.Book
	err = b.Create.Submit(ctx, func(ctx context.Context) error {
		var err error
		created, err = b.deps.Library.CreateBook(ctx, book)
		return err
	}, b.Refresh)
	if err != nil {
		return models.Book{}, err
	}
	b.deps.Logger.Info("Book created", zap.String("title", created.Title), zap.Int64("id", created.ID))
	return created, nil
}

// Readers lists readers with a debounced search
type Readers struct {
	*browse.Stream[models.Reader]
}

// NewReaders creates the readers screen
func NewReaders(d Deps, cfg ScreenConfig) *Readers {
	d = d.withDefaults()
	return &Readers{
		Stream: browse.NewStream[models.Reader](
			browse.StreamConfig{Name: "readers", PageSize: cfg.PageSize, Window: cfg.Debounce},
			d.Library.SearchReaders,
			browse.WithDefaultList[models.Reader](d.Library.ListReaders),
			browse.WithClock[models.Reader](d.Clock),
			browse.WithNotifier[models.Reader](d.Notifier),
			browse.WithLogger[models.Reader](d.Logger.Named("readers")),
		),
	}
}
