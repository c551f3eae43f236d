package api

import (
	"context"
	"net/http"
	"net/url"

	"librarian/internal/models"
)

// ListBooks returns the whole catalogue
func (c *Client) ListBooks(ctx context.Context) ([]models.Book, error) {
	var books []models.Book
	err := c.get(ctx, "list_books", "/api/books", nil, &books)
	return books, err
}

// SearchBooks returns books matching query
func (c *Client) SearchBooks(ctx context.Context, query string) ([]models.Book, error) {
	var books []models.Book
	err := c.get(ctx, "search_books", "/api/booksearch", url.Values{"query": {query}}, &books)
	return books, err
}

// GetBook returns one book
func (c *Client) GetBook(ctx context.Context, id int64) (models.Book, error) {
	var book models.Book
	err := c.get(ctx, "get_book", idPath("/api/books/%d", id), nil, &book)
	return book, err
}

// UpdateBook replaces a book's details
func (c *Client) UpdateBook(ctx context.Context, book models.Book) error {
	return c.do(ctx, call{
		endpoint: "update_book",
		method:   http.MethodPut,
		path:     idPath("/api/books/%d/put", book.ID),
		body:     book,
	}, nil)
}

// CreateBook adds a book to the catalogue. The returned book carries the server-assigned id when the
// server echoes it.
func (c *Client) CreateBook(ctx context.Context, book models.Book) (models.Book, error) {
	created := book
	err := c.do(ctx, call{
		endpoint: "create_book",
		method:   http.MethodPost,
		path:     "/api/books/post",
		body:     book,
	}, &created)
	return created, err
}
