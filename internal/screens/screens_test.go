package screens

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"librarian/internal/api"
	"librarian/internal/browse"
	"librarian/internal/forms"
	"librarian/internal/models"
	"librarian/internal/session"
	"librarian/internal/storage/stubs"
)

type notices struct {
	mu  sync.Mutex
	all []browse.Notice
}

func (n *notices) Notify(notice browse.Notice) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.all = append(n.all, notice)
}

func (n *notices) list() []browse.Notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]browse.Notice{}, n.all...)
}

var start = time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)

func newTestDesk(t *testing.T, lib *fakeLibrary) (*Desk, *browse.ManualClock, *notices, *session.Session) {
	t.Helper()

	sess, err := session.Load(context.Background(), stubs.NewMockDB(), "42", zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, sess.Login(context.Background(), models.LoginResult{Token: "abc", UserID: 1}))

	clock := browse.NewManualClock(start)
	log := &notices{}
	desk := NewDesk(lib, lib, sess, DeskOptions{
		Config:   DefaultConfig(),
		Notifier: log,
		Clock:    clock,
		Logger:   zap.NewNop(),
	})
	return desk, clock, log, sess
}

func TestBooks_SeventeenBooksPageSizeEight(t *testing.T) {
	lib := newFakeLibrary()
	for i := 1; i <= 17; i++ {
		lib.books = append(lib.books, models.Book{ID: int64(i), Title: fmt.Sprintf("Book %02d", i)})
	}
	desk, _, _, _ := newTestDesk(t, lib)
	ctx := context.Background()

	require.NoError(t, desk.Books.Mount(ctx))
	v := desk.Books.View()
	assert.Equal(t, 3, v.Page.Count)
	assert.Len(t, v.Page.Items, 8)

	desk.Books.GoToPage(3)
	v = desk.Books.View()
	require.Len(t, v.Page.Items, 1)
	assert.Equal(t, "Book 17", v.Page.Items[0].Title)

	desk.Books.GoToPage(4)
	assert.Equal(t, 3, desk.Books.View().Page.Number)
}

func TestSearch_TolkienScenario(t *testing.T) {
	lib := newFakeLibrary()
	lib.books = []models.Book{
		{ID: 1, Title: "The Hobbit", Author: "J.R.R. Tolkien"},
		{ID: 2, Title: "The Silmarillion", Author: "J.R.R. Tolkien"},
		{ID: 3, Title: "Dune", Author: "Frank Herbert"},
	}
	lib.readers = []models.Reader{{ID: 1, FirstName: "Ada", LastName: "Lovelace"}}
	desk, clock, log, sess := newTestDesk(t, lib)
	ctx := context.Background()

	v := desk.Search.View()
	assert.Equal(t, browse.StateNeverSearched, v.Books.State)
	assert.Equal(t, browse.StateNeverSearched, v.Readers.State)

	var states []browse.ViewState
	desk.Search.Subscribe(func(v SearchView) { states = append(states, v.Books.State) })

	for _, q := range []string{"t", "to", "tolk", "tolkien"} {
		desk.Search.Update(ctx, q)
		clock.Advance(100 * time.Millisecond)
	}
	assert.Equal(t, 0, lib.count("search_books"))

	clock.Advance(400 * time.Millisecond)
	assert.Equal(t, 1, lib.count("search_books"))
	assert.Equal(t, 1, lib.count("search_readers"))
	assert.Equal(t, []browse.ViewState{browse.StateLoading, browse.StateReady}, states)

	v = desk.Search.View()
	assert.Len(t, v.Books.Page.Items, 2)
	assert.Equal(t, browse.StateEmpty, v.Readers.State)
	assert.Equal(t, []browse.RecentSearch{{Query: "tolkien", HitCount: 2}}, v.History)
	assert.Empty(t, log.list())

	// persisted in the profile
	reloaded := sess.History().Load(ctx)
	assert.Equal(t, []browse.RecentSearch{{Query: "tolkien", HitCount: 2}}, reloaded)
}

func TestSearch_BlankQueryClearsImmediately(t *testing.T) {
	lib := newFakeLibrary()
	lib.books = []models.Book{{ID: 1, Title: "The Hobbit"}}
	desk, clock, _, _ := newTestDesk(t, lib)
	ctx := context.Background()

	require.NoError(t, desk.Search.Submit(ctx, "hobbit"))
	desk.Search.Update(ctx, "hobbits")
	desk.Search.Update(ctx, "  ")

	v := desk.Search.View()
	assert.Equal(t, browse.StateNeverSearched, v.Books.State)
	assert.False(t, desk.Search.Pending())

	clock.Advance(time.Second)
	assert.Equal(t, 1, lib.count("search_books"))
}

func TestSearch_HistoryOperations(t *testing.T) {
	lib := newFakeLibrary()
	desk, _, _, _ := newTestDesk(t, lib)
	ctx := context.Background()

	for _, q := range []string{"a", "b", "c", "d", "e", "f", "b"} {
		require.NoError(t, desk.Search.Submit(ctx, q))
	}
	h := desk.Search.View().History
	require.Len(t, h, browse.HistoryCap)
	assert.Equal(t, "b", h[0].Query)
	assert.Equal(t, "f", h[1].Query)

	require.NoError(t, desk.Search.RemoveRecent(ctx, "f"))
	assert.Len(t, desk.Search.View().History, browse.HistoryCap-1)

	require.NoError(t, desk.Search.RunRecent(ctx, "c"))
	assert.Equal(t, "c", desk.Search.View().History[0].Query)

	require.NoError(t, desk.Search.ClearRecent(ctx))
	assert.Empty(t, desk.Search.View().History)
}

func TestSearch_PartialFailureDoesNotRecord(t *testing.T) {
	lib := newFakeLibrary()
	lib.books = []models.Book{{ID: 1, Title: "The Hobbit"}}
	lib.fail["search_readers"] = errors.New("readers down")
	desk, _, log, _ := newTestDesk(t, lib)

	require.Error(t, desk.Search.Submit(context.Background(), "hobbit"))

	v := desk.Search.View()
	assert.Len(t, v.Books.Page.Items, 1)
	assert.Error(t, v.Readers.Err)
	assert.Empty(t, v.History)
	require.Len(t, log.list(), 1)
	assert.Equal(t, "search readers", log.list()[0].Op)
}

func TestSearch_LatestQueryWinsOutOfOrder(t *testing.T) {
	lib := newFakeLibrary()
	lib.books = []models.Book{
		{ID: 1, Title: "The Hobbit", Author: "J.R.R. Tolkien"},
		{ID: 2, Title: "Dune", Author: "Frank Herbert"},
	}
	lib.hold("hobbit", "dune")
	desk, _, _, _ := newTestDesk(t, lib)
	ctx := context.Background()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); _ = desk.Search.Submit(ctx, "hobbit") }()
	require.Equal(t, "hobbit", <-lib.started)
	go func() { defer wg.Done(); _ = desk.Search.Submit(ctx, "dune") }()
	require.Equal(t, "dune", <-lib.started)

	lib.release("dune")
	lib.release("hobbit")
	wg.Wait()

	v := desk.Search.View()
	assert.Equal(t, "dune", v.Query)
	require.Len(t, v.Books.Page.Items, 1)
	assert.Equal(t, "Dune", v.Books.Page.Items[0].Title)
	assert.Equal(t, []browse.RecentSearch{{Query: "dune", HitCount: 1}}, v.History)
}

func TestSearch_ClearDropsResponseInFlight(t *testing.T) {
	lib := newFakeLibrary()
	lib.books = []models.Book{{ID: 1, Title: "The Hobbit"}}
	lib.hold("hobbit")
	desk, _, _, _ := newTestDesk(t, lib)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() { done <- desk.Search.Submit(ctx, "hobbit") }()
	require.Equal(t, "hobbit", <-lib.started)

	desk.Search.Update(ctx, "")
	lib.release("hobbit")
	require.NoError(t, <-done)

	v := desk.Search.View()
	assert.Equal(t, browse.StateNeverSearched, v.Books.State)
	assert.Equal(t, browse.StateNeverSearched, v.Readers.State)
	assert.Empty(t, v.Books.Page.Items)
	assert.Empty(t, v.History)
}

func TestReaderDetail_AddBorrowingScenario(t *testing.T) {
	lib := newFakeLibrary()
	lib.readers = []models.Reader{{ID: 4, FirstName: "Ada", LastName: "Lovelace"}}
	desk, _, log, _ := newTestDesk(t, lib)
	ctx := context.Background()

	detail := desk.ReaderDetail(4)
	require.NoError(t, detail.Load(ctx))
	assert.Equal(t, "Ada", detail.Reader.Value().FirstName)
	assert.Empty(t, detail.Borrowings.Value())

	detail.OpenDialog(DialogBorrow, 0)
	err := detail.AddBorrowing(ctx, forms.BorrowForm{BookID: "9", DueDate: "2026-11-01"})
	require.NoError(t, err)

	dialog, _ := detail.Dialog()
	assert.Equal(t, DialogNone, dialog)
	assert.Equal(t, browse.MutationSucceeded, detail.Lending.State())
	require.Len(t, log.list(), 1)
	assert.Equal(t, browse.NoticeSuccess, log.list()[0].Kind)
	assert.Equal(t, 2, lib.count("reader_borrowings"), "list is fetched again from the server")

	borrowings := detail.Borrowings.Value()
	require.Len(t, borrowings, 1)
	assert.Equal(t, "2026-10-18", borrowings[0].BorrowDate.String())
	assert.Equal(t, "2026-11-01", borrowings[0].DueDate.String())
}

func TestReaderDetail_FailedBorrowKeepsDialogOpen(t *testing.T) {
	lib := newFakeLibrary()
	lib.readers = []models.Reader{{ID: 4, FirstName: "Ada"}}
	lib.fail["borrow"] = &api.StatusError{Endpoint: "borrow", Code: 409, Body: "book not available"}
	desk, _, log, _ := newTestDesk(t, lib)
	ctx := context.Background()

	detail := desk.ReaderDetail(4)
	require.NoError(t, detail.Load(ctx))
	detail.OpenDialog(DialogBorrow, 0)

	require.Error(t, detail.AddBorrowing(ctx, forms.BorrowForm{BookID: "9", DueDate: "2026-11-01"}))

	dialog, _ := detail.Dialog()
	assert.Equal(t, DialogBorrow, dialog)
	assert.Equal(t, browse.MutationFailed, detail.Lending.State())
	assert.Equal(t, 1, lib.count("borrow"), "no retry")
	assert.Equal(t, 1, lib.count("reader_borrowings"), "no re-fetch on failure")
	require.Len(t, log.list(), 1)
	assert.Equal(t, browse.NoticeError, log.list()[0].Kind)
}

func TestReaderDetail_InvalidFormBlocksSubmit(t *testing.T) {
	lib := newFakeLibrary()
	desk, _, log, _ := newTestDesk(t, lib)

	err := desk.ReaderDetail(4).AddBorrowing(context.Background(), forms.BorrowForm{BookID: "x"})
	assert.ErrorIs(t, err, forms.ErrInvalid)
	assert.Equal(t, 0, lib.count("borrow"))
	assert.Empty(t, log.list())
}

func TestReaderDetail_ReturnAndProlong(t *testing.T) {
	lib := newFakeLibrary()
	lib.readers = []models.Reader{{ID: 4, FirstName: "Ada"}}
	lib.borrowings = []models.Borrowing{{
		ID: 11, Book: models.Book{ID: 9, Title: "Dune"}, Reader: models.Reader{ID: 4},
		DueDate: models.NewDate(start.AddDate(0, 0, 3)), Status: models.StatusBorrowed,
	}}
	desk, _, _, _ := newTestDesk(t, lib)
	ctx := context.Background()

	detail := desk.ReaderDetail(4)
	require.NoError(t, detail.Load(ctx))

	err := detail.Prolong(ctx, 11, forms.ProlongForm{DueDate: "2026-10-20"})
	assert.ErrorIs(t, err, forms.ErrInvalid, "new due date must be later")
	assert.Equal(t, 0, lib.count("prolong"))

	require.NoError(t, detail.Prolong(ctx, 11, forms.ProlongForm{DueDate: "2026-11-30"}))
	assert.Equal(t, "2026-11-30", detail.Borrowings.Value()[0].DueDate.String())

	require.NoError(t, detail.RecordReturn(ctx, 11))
	assert.True(t, detail.Borrowings.Value()[0].Returned())

	assert.Error(t, detail.Prolong(ctx, 999, forms.ProlongForm{DueDate: "2026-12-30"}))
}

func TestReaderDetail_StatusQuery(t *testing.T) {
	lib := newFakeLibrary()
	lib.borrowings = []models.Borrowing{
		{ID: 1, Reader: models.Reader{ID: 4}, Status: models.StatusBorrowed},
		{ID: 2, Reader: models.Reader{ID: 4}, Status: models.StatusReturned},
	}
	desk, _, _, _ := newTestDesk(t, lib)
	ctx := context.Background()

	detail := desk.ReaderDetail(4)
	require.NoError(t, detail.SetQuery(ctx, models.BorrowingQuery{Status: models.StatusReturned, SortField: "dueDate", SortOrder: "desc"}))
	require.Len(t, detail.Borrowings.Value(), 1)
	assert.Equal(t, int64(2), detail.Borrowings.Value()[0].ID)

	assert.Same(t, detail, desk.ReaderDetail(4))
	assert.NotSame(t, detail, desk.ReaderDetail(5))
}

func TestBookDetail_Update(t *testing.T) {
	lib := newFakeLibrary()
	lib.books = []models.Book{{ID: 3, Title: "Dune"}}
	desk, _, _, _ := newTestDesk(t, lib)
	ctx := context.Background()

	detail := desk.BookDetail(3)
	require.NoError(t, detail.Load(ctx))
	detail.OpenDialog()

	require.NoError(t, detail.Update(ctx, forms.BookForm{Title: "Dune Messiah", Author: "Frank Herbert", PublicationDate: "1969-10-15"}))
	assert.Equal(t, "Dune Messiah", detail.Book.Value().Title)
	dialog, _ := detail.Dialog()
	assert.Equal(t, DialogNone, dialog)
}

func TestBooks_CreateRefetches(t *testing.T) {
	lib := newFakeLibrary()
	desk, _, log, _ := newTestDesk(t, lib)
	ctx := context.Background()
	require.NoError(t, desk.Books.Mount(ctx))

	created, err := desk.Books.CreateBook(ctx, forms.BookForm{Title: "Dune", Author: "Frank Herbert", PublicationDate: "1965-08-01"})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Equal(t, 2, lib.count("list_books"))
	assert.Len(t, desk.Books.Items(), 1)
	require.Len(t, log.list(), 1)
	assert.Equal(t, browse.NoticeSuccess, log.list()[0].Kind)
}

func TestDelays_FilterResetsPage(t *testing.T) {
	lib := newFakeLibrary()
	for i := 1; i <= 25; i++ {
		name := "Ada"
		if i%5 == 0 {
			name = "Grace"
		}
		lib.overdue = append(lib.overdue, models.Borrowing{
			ID:     int64(i),
			Book:   models.Book{Title: fmt.Sprintf("Book %d", i)},
			Reader: models.Reader{FirstName: name, LastName: "Reader"},
		})
	}
	desk, _, _, _ := newTestDesk(t, lib)

	assert.Equal(t, browse.StateNeverSearched, desk.Delays.View().State)
	require.NoError(t, desk.Delays.Load(context.Background()))

	desk.Delays.Navigate((*browse.Paginator).Last)
	assert.Equal(t, 3, desk.Delays.View().Page.Number)

	desk.Delays.SetFilter("grace")
	v := desk.Delays.View()
	assert.Equal(t, 1, v.Page.Number)
	assert.Equal(t, 5, v.Page.Total)

	desk.Delays.SetFilter("book 1")
	assert.Equal(t, 11, desk.Delays.View().Page.Total)

	desk.Delays.SetFilter("nobody")
	assert.Equal(t, browse.StateEmpty, desk.Delays.View().State)
}

func TestDelays_DebouncedFilterPublishes(t *testing.T) {
	lib := newFakeLibrary()
	lib.overdue = []models.Borrowing{
		{ID: 1, Book: models.Book{Title: "Dune"}, Reader: models.Reader{FirstName: "Ada"}},
		{ID: 2, Book: models.Book{Title: "Emma"}, Reader: models.Reader{FirstName: "Grace"}},
	}
	clock := browse.NewManualClock(start)
	delays := NewDelays(Deps{Library: lib, Clock: clock}, ScreenConfig{PageSize: 10, Debounce: 300 * time.Millisecond})
	require.NoError(t, delays.Load(context.Background()))

	var filters []string
	delays.Subscribe(func(v DelaysView) { filters = append(filters, v.Filter) })

	delays.SetFilter("gr")
	delays.SetFilter("grace")
	assert.True(t, delays.Pending())
	assert.Empty(t, delays.View().Filter)
	assert.Empty(t, filters)

	clock.Advance(300 * time.Millisecond)
	assert.Equal(t, []string{"grace"}, filters)
	assert.Equal(t, 1, delays.View().Page.Total)

	delays.SetFilter("dune")
	delays.ApplyFilter("")
	assert.False(t, delays.Pending())
	clock.Advance(time.Second)
	assert.Equal(t, []string{"grace", ""}, filters)
	assert.Equal(t, 2, delays.View().Page.Total)
}

func TestDashboard_IndependentWidgets(t *testing.T) {
	lib := newFakeLibrary()
	lib.books = []models.Book{{ID: 1}, {ID: 2}}
	lib.fail["count_readers"] = errors.New("timeout")
	desk, _, log, _ := newTestDesk(t, lib)

	require.Error(t, desk.Dashboard.Load(context.Background()))

	assert.Equal(t, 2, desk.Dashboard.BookCount.Value())
	assert.Equal(t, browse.StatusFailed, desk.Dashboard.ReaderCount.Result().Status)
	assert.True(t, desk.Dashboard.BorrowingsMonthly.Result().Ok())
	assert.Len(t, desk.Dashboard.ReadersMonthly.Value(), 1)
	require.Len(t, log.list(), 1)
	assert.Equal(t, "count readers", log.list()[0].Op)
}

func TestGuard_UnauthorizedSignsOut(t *testing.T) {
	lib := newFakeLibrary()
	for _, name := range []string{"count_books", "count_readers", "overdue", "borrowings_monthly", "readers_monthly"} {
		lib.fail[name] = fmt.Errorf("%s: %w", name, api.ErrUnauthorized)
	}
	desk, _, log, sess := newTestDesk(t, lib)

	require.Error(t, desk.Dashboard.Load(context.Background()))

	assert.False(t, sess.SignedIn())
	require.Len(t, log.list(), 1, "one forced logout notice")
	assert.Equal(t, browse.NoticeUnauthorized, log.list()[0].Kind)
}

func TestGuard_ForbiddenKeepsSession(t *testing.T) {
	lib := newFakeLibrary()
	lib.fail["overdue"] = &api.StatusError{Endpoint: "overdue", Code: 403, Body: "permission denied"}
	desk, _, log, sess := newTestDesk(t, lib)

	require.Error(t, desk.Delays.Load(context.Background()))

	assert.True(t, sess.SignedIn())
	require.Len(t, log.list(), 1)
	assert.Equal(t, browse.NoticeError, log.list()[0].Kind)
}

func TestLogin(t *testing.T) {
	lib := newFakeLibrary()
	desk, _, log, sess := newTestDesk(t, lib)
	ctx := context.Background()
	require.NoError(t, sess.Logout(ctx))

	err := desk.Login.Submit(ctx, forms.LoginForm{Email: "ada@example.com", Password: "wrong"})
	require.Error(t, err)
	assert.False(t, sess.SignedIn())

	desk.Login.Submitting.Reset()
	require.NoError(t, desk.Login.Submit(ctx, forms.LoginForm{Email: "ada@example.com", Password: "secret"}))
	assert.True(t, sess.SignedIn())
	assert.Equal(t, "token-ada@example.com", sess.Token())

	kinds := []browse.NoticeKind{}
	for _, n := range log.list() {
		kinds = append(kinds, n.Kind)
	}
	assert.Equal(t, []browse.NoticeKind{browse.NoticeError, browse.NoticeSuccess}, kinds)
}
