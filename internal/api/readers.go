package api

import (
	"context"
	"net/http"
	"net/url"

	"librarian/internal/models"
)

// Login exchanges credentials for a token. It is the only unauthenticated call.
func (c *Client) Login(ctx context.Context, creds models.Credentials) (models.LoginResult, error) {
	var res models.LoginResult
	err := c.do(ctx, call{
		endpoint: "login",
		method:   http.MethodPost,
		path:     "/api/login",
		body:     creds,
		anonym:   true,
	}, &res)
	return res, err
}

// ListReaders returns every reader
func (c *Client) ListReaders(ctx context.Context) ([]models.Reader, error) {
	var readers []models.Reader
	err := c.get(ctx, "list_readers", "/api/users", nil, &readers)
	return readers, err
}

// SearchReaders returns readers matching query
func (c *Client) SearchReaders(ctx context.Context, query string) ([]models.Reader, error) {
	var readers []models.Reader
	err := c.get(ctx, "search_readers", "/api/usersearch", url.Values{"query": {query}}, &readers)
	return readers, err
}

// GetReader returns one reader
func (c *Client) GetReader(ctx context.Context, id int64) (models.Reader, error) {
	var reader models.Reader
	err := c.get(ctx, "get_reader", idPath("/api/users/%d", id), nil, &reader)
	return reader, err
}

// UpdateReader replaces a reader's details
func (c *Client) UpdateReader(ctx context.Context, reader models.Reader) error {
	return c.do(ctx, call{
		endpoint: "update_reader",
		method:   http.MethodPut,
		path:     idPath("/api/users/%d/put", reader.ID),
		body:     reader,
	}, nil)
}
