package api

import (
	"bytes"
	"context"
	"fmt"
	"strconv"

	"librarian/internal/models"
)

// count decodes either a bare number or an object with a count field
type count int

func (n *count) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		var wrapped struct {
			Count int `json:"count"`
		}
		if err := json.Unmarshal(data, &wrapped); err != nil {
			return err
		}
		*n = count(wrapped.Count)
		return nil
	}

	v, err := strconv.Atoi(string(bytes.Trim(data, `"`)))
	if err != nil {
		return fmt.Errorf("invalid count %q", data)
	}
	*n = count(v)
	return nil
}

// CountBooks returns the number of books in the catalogue
func (c *Client) CountBooks(ctx context.Context) (int, error) {
	var n count
	err := c.get(ctx, "count_books", "/api/count/books", nil, &n)
	return int(n), err
}

// CountReaders returns the number of registered readers
func (c *Client) CountReaders(ctx context.Context) (int, error) {
	var n count
	err := c.get(ctx, "count_readers", "/api/count/users", nil, &n)
	return int(n), err
}

// BorrowingsMonthly returns borrowings per month
func (c *Client) BorrowingsMonthly(ctx context.Context) ([]models.MonthlyCount, error) {
	var series []models.MonthlyCount
	err := c.get(ctx, "borrowings_monthly", "/api/borrowingsmonthly", nil, &series)
	return series, err
}

// ReadersMonthly returns new readers per month
func (c *Client) ReadersMonthly(ctx context.Context) ([]models.MonthlyCount, error) {
	var series []models.MonthlyCount
	err := c.get(ctx, "readers_monthly", "/api/usersmonthly", nil, &series)
	return series, err
}
