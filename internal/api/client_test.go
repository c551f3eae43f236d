package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"librarian/internal/models"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(Options{BaseURL: srv.URL, Timeout: 5 * time.Second}, zap.NewNop())
	require.NoError(t, err)
	return c
}

func TestNewClient_InvalidURL(t *testing.T) {
	_, err := NewClient(Options{BaseURL: "localhost"}, nil)
	assert.Error(t, err)
}

func TestClient_AuthorizationHeader(t *testing.T) {
	var gotAuth, gotRequestID string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotRequestID = r.Header.Get("X-Request-ID")
		_, _ = io.WriteString(w, `[]`)
	})

	_, err := c.WithTokenSource(StaticToken("secret")).ListBooks(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer secret", gotAuth)
	assert.NotEmpty(t, gotRequestID)
}

func TestClient_LoginIsAnonymous(t *testing.T) {
	var gotAuth string
	var gotBody models.Credentials
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/login", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_, _ = io.WriteString(w, `{"token":"abc","id":7}`)
	})

	res, err := c.WithTokenSource(StaticToken("stale")).Login(context.Background(), models.Credentials{Email: "a@b.cz", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "abc", res.Token)
	assert.Equal(t, int64(7), res.UserID)
	assert.Empty(t, gotAuth)
	assert.Equal(t, "a@b.cz", gotBody.Email)
}

func TestClient_SearchBooksQuery(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/booksearch", r.URL.Path)
		assert.Equal(t, "tolkien & co", r.URL.Query().Get("query"))
		_, _ = io.WriteString(w, `[{"id":1,"title":"The Hobbit","author":"J.R.R. Tolkien","publicationDate":"1937-09-21"}]`)
	})

	books, err := c.SearchBooks(context.Background(), "tolkien & co")
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, "The Hobbit", books[0].Title)
	assert.Equal(t, "1937-09-21", books[0].PublicationDate.String())
}

func TestClient_StatusErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		check  func(t *testing.T, err error)
	}{
		{name: "401", status: http.StatusUnauthorized, check: func(t *testing.T, err error) {
			assert.True(t, IsUnauthorized(err))
		}},
		{name: "403", status: http.StatusForbidden, check: func(t *testing.T, err error) {
			assert.False(t, IsUnauthorized(err), "a refused action keeps the session")
			var se *StatusError
			require.True(t, errors.As(err, &se))
			assert.Equal(t, http.StatusForbidden, se.Code)
		}},
		{name: "404", status: http.StatusNotFound, check: func(t *testing.T, err error) {
			assert.ErrorIs(t, err, ErrNotFound)
		}},
		{name: "500", status: http.StatusInternalServerError, check: func(t *testing.T, err error) {
			var se *StatusError
			require.True(t, errors.As(err, &se))
			assert.Equal(t, 500, se.Code)
			assert.Equal(t, "get_reader", se.Endpoint)
			assert.Equal(t, "boom", se.Body)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, "boom")
			})
			_, err := c.GetReader(context.Background(), 3)
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestClient_DecodeError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"not":"a list"`)
	})

	_, err := c.ListReaders(context.Background())
	assert.ErrorContains(t, err, "list_readers")
}

func TestClient_Mutations(t *testing.T) {
	var paths []string
	var bodies []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.Method+" "+r.URL.Path)
		data, _ := io.ReadAll(r.Body)
		bodies = append(bodies, string(data))
		w.WriteHeader(http.StatusOK)
	})
	ctx := context.Background()
	due := models.NewDate(time.Date(2026, 11, 1, 15, 0, 0, 0, time.UTC))

	require.NoError(t, c.Borrow(ctx, 4, models.BorrowRequest{BookID: 9, BorrowDate: models.NewDate(time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)), DueDate: due}))
	require.NoError(t, c.Return(ctx, 11, models.ReturnRequest{RealReturnDate: due}))
	require.NoError(t, c.Prolong(ctx, 11, models.ProlongRequest{DueDate: due}))
	require.NoError(t, c.UpdateReader(ctx, models.Reader{ID: 4, FirstName: "Ada"}))

	assert.Equal(t, []string{
		"POST /api/readerdetails/4/borrow",
		"POST /api/borrowings/11/realreturndate",
		"POST /api/borrowings/11/prolongation",
		"PUT /api/users/4/put",
	}, paths)
	assert.JSONEq(t, `{"bookId":9,"borrowDate":"2026-10-18","dueDate":"2026-11-01"}`, bodies[0])
	assert.JSONEq(t, `{"dueDate":"2026-11-01"}`, bodies[2])
}

func TestClient_ReaderBorrowingsByStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/borrowingsbystatus/user/5", r.URL.Path)
		assert.Equal(t, "borrowed", r.URL.Query().Get("status"))
		assert.Equal(t, "dueDate", r.URL.Query().Get("sortField"))
		assert.Equal(t, "asc", r.URL.Query().Get("sortOrder"))
		_, _ = io.WriteString(w, `[{"id":1,"book":{"id":2,"title":"Dune"},"user":{"id":5,"firstName":"Ada"},"dueDate":"2026-10-01T00:00:00Z","status":"borrowed"}]`)
	})

	got, err := c.ReaderBorrowingsByStatus(context.Background(), 5, models.BorrowingQuery{Status: "borrowed", SortField: "dueDate", SortOrder: "asc"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Dune", got[0].Book.Title)
	assert.Equal(t, "Ada", got[0].Reader.FirstName)
	assert.False(t, got[0].Returned())
}

func TestClient_BookBorrowings(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/borrowings/book/2", r.URL.Path)
		_, _ = io.WriteString(w, `[{"id":1,"book":{"id":2,"title":"Dune"},"user":{"id":5,"firstName":"Ada"},"dueDate":"2026-10-01","status":"returned"}]`)
	})

	got, err := c.BookBorrowings(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(5), got[0].Reader.ID)
}

func TestClient_Counts(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/count/books":
			_, _ = io.WriteString(w, `42`)
		case "/api/count/users":
			_, _ = io.WriteString(w, `{"count":7}`)
		}
	})
	ctx := context.Background()

	books, err := c.CountBooks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 42, books)

	readers, err := c.CountReaders(ctx)
	require.NoError(t, err)
	assert.Equal(t, 7, readers)
}

func TestClient_RateLimitHonorsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[]`)
	}))
	defer srv.Close()

	c, err := NewClient(Options{BaseURL: srv.URL, RPS: 0.001, Burst: 1}, zap.NewNop())
	require.NoError(t, err)

	_, err = c.ListBooks(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = c.ListBooks(ctx)
	assert.Error(t, err)
}
