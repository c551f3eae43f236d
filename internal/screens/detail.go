package screens

import (
	"context"
	"fmt"
	"sync"

	"librarian/internal/browse"
	"librarian/internal/forms"
	"librarian/internal/models"
)

// Dialog is the modal currently open on a detail screen
type Dialog int

const (
	DialogNone Dialog = iota
	DialogBorrow
	DialogProlong
	DialogEdit
)

// dialogs tracks the open modal. A successful submit closes it; a failed one keeps it open.
type dialogs struct {
	mu     sync.Mutex
	open   Dialog
	target int64
}

func (d *dialogs) Open(dialog Dialog, target int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.open = dialog
	d.target = target
}

func (d *dialogs) Close() {
	d.Open(DialogNone, 0)
}

// Dialog returns the open modal and the id it targets (a borrowing id for DialogProlong)
func (d *dialogs) Dialog() (Dialog, int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.open, d.target
}

func (d *dialogs) closeIf(dialog Dialog) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.open == dialog {
		d.open = DialogNone
		d.target = 0
	}
}

// ReaderDetail shows one reader with their borrowings and lends, returns and prolongs books
type ReaderDetail struct {
	dialogs

	deps Deps
	id   int64

	Reader     *browse.Slot[models.Reader]
	Borrowings *browse.Slot[[]models.Borrowing]

	Lending    *browse.Mutation
	Returning  *browse.Mutation
	Prolonging *browse.Mutation
	Editing    *browse.Mutation

	queryMu sync.Mutex
	query   models.BorrowingQuery
}

// NewReaderDetail creates the detail screen of reader id
func NewReaderDetail(d Deps, id int64) *ReaderDetail {
	d = d.withDefaults()
	return &ReaderDetail{
		deps:       d,
		id:         id,
		Reader:     browse.NewSlot[models.Reader]("load reader", d.Notifier),
		Borrowings: browse.NewSlot[[]models.Borrowing]("load borrowings", d.Notifier),
		Lending:    browse.NewMutation("add borrowing", d.Notifier),
		Returning:  browse.NewMutation("record return", d.Notifier),
		Prolonging: browse.NewMutation("prolong borrowing", d.Notifier),
		Editing:    browse.NewMutation("update reader", d.Notifier),
	}
}

// ID returns the reader id
func (s *ReaderDetail) ID() int64 {
	return s.id
}

// Load fetches the reader and the borrowings independently
func (s *ReaderDetail) Load(ctx context.Context) error {
	return browse.FetchAll(ctx, s.loadReader, s.loadBorrowings)
}

// SetQuery changes the status filter and sort order of the borrowings and reloads them
func (s *ReaderDetail) SetQuery(ctx context.Context, q models.BorrowingQuery) error {
	s.queryMu.Lock()
	s.query = q
	s.queryMu.Unlock()
	return s.loadBorrowings(ctx)
}

// Query returns the borrowing filter
func (s *ReaderDetail) Query() models.BorrowingQuery {
	s.queryMu.Lock()
	defer s.queryMu.Unlock()
	return s.query
}

func (s *ReaderDetail) loadReader(ctx context.Context) error {
	return s.Reader.Load(ctx, func(ctx context.Context) (models.Reader, error) {
		return s.deps.Library.GetReader(ctx, s.id)
	})
}

func (s *ReaderDetail) loadBorrowings(ctx context.Context) error {
	q := s.Query()
	return s.Borrowings.Load(ctx, func(ctx context.Context) ([]models.Borrowing, error) {
		if q == (models.BorrowingQuery{}) {
			return s.deps.Library.ReaderBorrowings(ctx, s.id)
		}
		return s.deps.Library.ReaderBorrowingsByStatus(ctx, s.id, q)
	})
}

// OpenDialog opens a modal and resets the mutation behind it
func (s *ReaderDetail) OpenDialog(dialog Dialog, target int64) {
	switch dialog {
	case DialogBorrow:
		s.Lending.Reset()
	case DialogProlong:
		s.Prolonging.Reset()
	case DialogEdit:
		s.Editing.Reset()
	}
	s.Open(dialog, target)
}

// AddBorrowing lends a book to the reader, due on the form's date
func (s *ReaderDetail) AddBorrowing(ctx context.Context, form forms.BorrowForm) error {
	req, err := form.Validate(s.deps.Clock.Now())
	if err != nil {
		return err
	}
	err = s.Lending.Submit(ctx, func(ctx context.Context) error {
		return s.deps.Library.Borrow(ctx, s.id, req)
	}, s.loadBorrowings)
	if err == nil {
		s.closeIf(DialogBorrow)
	}
	return err
}

// RecordReturn marks a borrowing returned today
func (s *ReaderDetail) RecordReturn(ctx context.Context, borrowingID int64) error {
	req := models.ReturnRequest{RealReturnDate: s.deps.today()}
	return s.Returning.Submit(ctx, func(ctx context.Context) error {
		return s.deps.Library.Return(ctx, borrowingID, req)
	}, s.loadBorrowings)
}

// Prolong moves the due date of one of the reader's borrowings
func (s *ReaderDetail) Prolong(ctx context.Context, borrowingID int64, form forms.ProlongForm) error {
	var current models.Date
	found := false
	for _, b := range s.Borrowings.Value() {
		if b.ID == borrowingID {
			current = b.DueDate
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("borrowing %d does not belong to reader %d", borrowingID, s.id)
	}

	req, err := form.Validate(current)
	if err != nil {
		return err
	}
	err = s.Prolonging.Submit(ctx, func(ctx context.Context) error {
		return s.deps.Library.Prolong(ctx, borrowingID, req)
	}, s.loadBorrowings)
	if err == nil {
		s.closeIf(DialogProlong)
	}
	return err
}

// Update saves the edited reader details
func (s *ReaderDetail) Update(ctx context.Context, form forms.ReaderForm) error {
	reader, err := form.Validate(s.Reader.Value())
	if err != nil {
		return err
	}
	reader.ID = s.id
	err = s.Editing.Submit(ctx, func(ctx context.Context) error {
		return s.deps.Library.UpdateReader(ctx, reader)
	}, s.loadReader)
	if err == nil {
		s.closeIf(DialogEdit)
	}
	return err
}

// BookDetail shows one book with its lending history
type BookDetail struct {
	dialogs

	deps Deps
	id   int64

	Book       *browse.Slot[models.Book]
	Borrowings *browse.Slot[[]models.Borrowing]
	Editing    *browse.Mutation
}

// NewBookDetail creates the detail screen of book id
func NewBookDetail(d Deps, id int64) *BookDetail {
	d = d.withDefaults()
	return &BookDetail{
		deps:       d,
		id:         id,
		Book:       browse.NewSlot[models.Book]("load book", d.Notifier),
		Borrowings: browse.NewSlot[[]models.Borrowing]("load borrowings", d.Notifier),
		Editing:    browse.NewMutation("update book", d.Notifier),
	}
}

// ID returns the book id
func (s *BookDetail) ID() int64 {
	return s.id
}

// Load fetches the book and its borrowings independently
func (s *BookDetail) Load(ctx context.Context) error {
	return browse.FetchAll(ctx, s.loadBook, func(ctx context.Context) error {
		return s.Borrowings.Load(ctx, func(ctx context.Context) ([]models.Borrowing, error) {
			return s.deps.Library.BookBorrowings(ctx, s.id)
		})
	})
}

func (s *BookDetail) loadBook(ctx context.Context) error {
	return s.Book.Load(ctx, func(ctx context.Context) (models.Book, error) {
		return s.deps.Library.GetBook(ctx, s.id)
	})
}

// OpenDialog opens the edit modal
func (s *BookDetail) OpenDialog() {
	s.Editing.Reset()
	s.Open(DialogEdit, s.id)
}

// Update saves the edited book
func (s *BookDetail) Update(ctx context.Context, form forms.BookForm) error {
	book, err := form.Validate()
	if err != nil {
		return err
	}
	book.ID = s.id
	err = s.Editing.Submit(ctx, func(ctx context.Context) error {
		return s.deps.Library.UpdateBook(ctx, book)
	}, s.loadBook)
	if err == nil {
		s.closeIf(DialogEdit)
	}
	return err
}
