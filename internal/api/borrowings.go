package api

import (
	"context"
	"net/http"
	"net/url"

	"librarian/internal/models"
)

// ReaderBorrowings returns every borrowing of a reader
func (c *Client) ReaderBorrowings(ctx context.Context, readerID int64) ([]models.Borrowing, error) {
	var borrowings []models.Borrowing
	err := c.get(ctx, "reader_borrowings", idPath("/api/borrowings/user/%d", readerID), nil, &borrowings)
	return borrowings, err
}

// ReaderBorrowingsByStatus returns a reader's borrowings filtered and sorted on the server
func (c *Client) ReaderBorrowingsByStatus(ctx context.Context, readerID int64, q models.BorrowingQuery) ([]models.Borrowing, error) {
	params := url.Values{}
	if q.Status != "" {
		params.Set("status", q.Status)
	}
	if q.SortField != "" {
		params.Set("sortField", q.SortField)
	}
	if q.SortOrder != "" {
		params.Set("sortOrder", q.SortOrder)
	}

	var borrowings []models.Borrowing
	err := c.get(ctx, "reader_borrowings_by_status", idPath("/api/borrowingsbystatus/user/%d", readerID), params, &borrowings)
	return borrowings, err
}

// BookBorrowings returns the lending history of a book
func (c *Client) BookBorrowings(ctx context.Context, bookID int64) ([]models.Borrowing, error) {
	var borrowings []models.Borrowing
	err := c.get(ctx, "book_borrowings", idPath("/api/borrowings/book/%d", bookID), nil, &borrowings)
	return borrowings, err
}

// Borrow lends a book to a reader
func (c *Client) Borrow(ctx context.Context, readerID int64, req models.BorrowRequest) error {
	return c.do(ctx, call{
		endpoint: "borrow",
		method:   http.MethodPost,
		path:     idPath("/api/readerdetails/%d/borrow", readerID),
		body:     req,
	}, nil)
}

// Return records the real return date of a borrowing
func (c *Client) Return(ctx context.Context, borrowingID int64, req models.ReturnRequest) error {
	return c.do(ctx, call{
		endpoint: "return",
		method:   http.MethodPost,
		path:     idPath("/api/borrowings/%d/realreturndate", borrowingID),
		body:     req,
	}, nil)
}

// Prolong moves the due date of a borrowing
func (c *Client) Prolong(ctx context.Context, borrowingID int64, req models.ProlongRequest) error {
	return c.do(ctx, call{
		endpoint: "prolong",
		method:   http.MethodPost,
		path:     idPath("/api/borrowings/%d/prolongation", borrowingID),
		body:     req,
	}, nil)
}

// Overdue returns every overdue borrowing
func (c *Client) Overdue(ctx context.Context) ([]models.Borrowing, error) {
	var borrowings []models.Borrowing
	err := c.get(ctx, "overdue", "/api/filteredBorrowings", nil, &borrowings)
	return borrowings, err
}

// OverdueTop returns the five most overdue borrowings
func (c *Client) OverdueTop(ctx context.Context) ([]models.Borrowing, error) {
	var borrowings []models.Borrowing
	err := c.get(ctx, "overdue_top", "/api/filteredBorrowingsfive", nil, &borrowings)
	return borrowings, err
}
