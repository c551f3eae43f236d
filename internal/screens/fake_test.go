package screens

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"librarian/internal/api"
	"librarian/internal/models"
)

// fakeLibrary is an in-memory library API
type fakeLibrary struct {
	mu         sync.Mutex
	books      []models.Book
	readers    []models.Reader
	borrowings []models.Borrowing
	overdue    []models.Borrowing
	calls      map[string]int
	fail       map[string]error
	nextID     int64

	// book searches for a query listed here wait until the channel is closed
	gates   map[string]chan struct{}
	started chan string
}

func newFakeLibrary() *fakeLibrary {
	return &fakeLibrary{calls: map[string]int{}, fail: map[string]error{}, nextID: 100}
}

func (f *fakeLibrary) hit(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[name]++
	return f.fail[name]
}

// hold makes book searches for each query block until released
func (f *fakeLibrary) hold(queries ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gates = map[string]chan struct{}{}
	f.started = make(chan string, len(queries))
	for _, q := range queries {
		f.gates[q] = make(chan struct{})
	}
}

func (f *fakeLibrary) release(q string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	close(f.gates[q])
}

func (f *fakeLibrary) wait(q string) {
	f.mu.Lock()
	gate, ok := f.gates[q]
	started := f.started
	f.mu.Unlock()
	if !ok {
		return
	}
	started <- q
	<-gate
}

func (f *fakeLibrary) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeLibrary) Login(_ context.Context, creds models.Credentials) (models.LoginResult, error) {
	if err := f.hit("login"); err != nil {
		return models.LoginResult{}, err
	}
	if creds.Password != "secret" {
		return models.LoginResult{}, api.ErrUnauthorized
	}
	return models.LoginResult{Token: "token-" + creds.Email, UserID: 1}, nil
}

func (f *fakeLibrary) ListBooks(context.Context) ([]models.Book, error) {
	if err := f.hit("list_books"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Book{}, f.books...), nil
}

func (f *fakeLibrary) SearchBooks(_ context.Context, q string) ([]models.Book, error) {
	if err := f.hit("search_books"); err != nil {
		return nil, err
	}
	f.wait(q)
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Book
	for _, b := range f.books {
		if contains(b.Title, q) || contains(b.Author, q) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeLibrary) GetBook(_ context.Context, id int64) (models.Book, error) {
	if err := f.hit("get_book"); err != nil {
		return models.Book{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, b := range f.books {
		if b.ID == id {
			return b, nil
		}
	}
	return models.Book{}, api.ErrNotFound
}

func (f *fakeLibrary) UpdateBook(_ context.Context, book models.Book) error {
	if err := f.hit("update_book"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, b := range f.books {
		if b.ID == book.ID {
			f.books[i] = book
			return nil
		}
	}
	return api.ErrNotFound
}

func (f *fakeLibrary) CreateBook(_ context.Context, book models.Book) (models.Book, error) {
	if err := f.hit("create_book"); err != nil {
		return models.Book{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	book.ID = f.nextID
	f.books = append(f.books, book)
	return book, nil
}

func (f *fakeLibrary) ListReaders(context.Context) ([]models.Reader, error) {
	if err := f.hit("list_readers"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Reader{}, f.readers...), nil
}

func (f *fakeLibrary) SearchReaders(_ context.Context, q string) ([]models.Reader, error) {
	if err := f.hit("search_readers"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Reader
	for _, r := range f.readers {
		if contains(r.FullName(), q) || contains(r.Email, q) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeLibrary) GetReader(_ context.Context, id int64) (models.Reader, error) {
	if err := f.hit("get_reader"); err != nil {
		return models.Reader{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.readers {
		if r.ID == id {
			return r, nil
		}
	}
	return models.Reader{}, api.ErrNotFound
}

func (f *fakeLibrary) UpdateReader(_ context.Context, reader models.Reader) error {
	if err := f.hit("update_reader"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, r := range f.readers {
		if r.ID == reader.ID {
			f.readers[i] = reader
			return nil
		}
	}
	return api.ErrNotFound
}

func (f *fakeLibrary) ReaderBorrowings(_ context.Context, readerID int64) ([]models.Borrowing, error) {
	if err := f.hit("reader_borrowings"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Borrowing
	for _, b := range f.borrowings {
		if b.Reader.ID == readerID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeLibrary) ReaderBorrowingsByStatus(ctx context.Context, readerID int64, q models.BorrowingQuery) ([]models.Borrowing, error) {
	all, err := f.ReaderBorrowings(ctx, readerID)
	if err != nil {
		return nil, err
	}
	var out []models.Borrowing
	for _, b := range all {
		if q.Status == "" || b.Status == q.Status {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeLibrary) BookBorrowings(_ context.Context, bookID int64) ([]models.Borrowing, error) {
	if err := f.hit("book_borrowings"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Borrowing
	for _, b := range f.borrowings {
		if b.Book.ID == bookID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeLibrary) Borrow(_ context.Context, readerID int64, req models.BorrowRequest) error {
	if err := f.hit("borrow"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.borrowings = append(f.borrowings, models.Borrowing{
		ID:         f.nextID,
		Book:       models.Book{ID: req.BookID, Title: fmt.Sprintf("Book %d", req.BookID)},
		Reader:     models.Reader{ID: readerID},
		BorrowDate: req.BorrowDate,
		DueDate:    req.DueDate,
		Status:     models.StatusBorrowed,
	})
	return nil
}

func (f *fakeLibrary) Return(_ context.Context, borrowingID int64, req models.ReturnRequest) error {
	if err := f.hit("return"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.borrowings {
		if f.borrowings[i].ID == borrowingID {
			d := req.RealReturnDate
			f.borrowings[i].RealReturnDate = &d
			f.borrowings[i].Status = models.StatusReturned
			return nil
		}
	}
	return api.ErrNotFound
}

func (f *fakeLibrary) Prolong(_ context.Context, borrowingID int64, req models.ProlongRequest) error {
	if err := f.hit("prolong"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.borrowings {
		if f.borrowings[i].ID == borrowingID {
			f.borrowings[i].DueDate = req.DueDate
			f.borrowings[i].Prolongations++
			return nil
		}
	}
	return api.ErrNotFound
}

func (f *fakeLibrary) Overdue(context.Context) ([]models.Borrowing, error) {
	if err := f.hit("overdue"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Borrowing{}, f.overdue...), nil
}

func (f *fakeLibrary) OverdueTop(ctx context.Context) ([]models.Borrowing, error) {
	all, err := f.Overdue(ctx)
	if len(all) > 5 {
		all = all[:5]
	}
	return all, err
}

func (f *fakeLibrary) CountBooks(context.Context) (int, error) {
	if err := f.hit("count_books"); err != nil {
		return 0, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.books), nil
}

func (f *fakeLibrary) CountReaders(context.Context) (int, error) {
	if err := f.hit("count_readers"); err != nil {
		return 0, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.readers), nil
}

func (f *fakeLibrary) BorrowingsMonthly(context.Context) ([]models.MonthlyCount, error) {
	if err := f.hit("borrowings_monthly"); err != nil {
		return nil, err
	}
	return []models.MonthlyCount{{Month: "2026-09", Count: 12}, {Month: "2026-10", Count: 7}}, nil
}

func (f *fakeLibrary) ReadersMonthly(context.Context) ([]models.MonthlyCount, error) {
	if err := f.hit("readers_monthly"); err != nil {
		return nil, err
	}
	return []models.MonthlyCount{{Month: "2026-10", Count: 3}}, nil
}

func contains(s, q string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(strings.TrimSpace(q)))
}
