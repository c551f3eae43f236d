package models

import (
	"fmt"
	"strings"
	"time"
)

// Book represents a book in the library catalogue
type Book struct {
	ID              int64  `json:"id"`
	Title           string `json:"title"`
	Author          string `json:"author"`
	PublicationDate Date   `json:"publicationDate"`
	CoverImage      string `json:"coverImage,omitempty"`
	ISBN            string `json:"isbn,omitempty"`
	Description     string `json:"description,omitempty"`
}

// Reader represents a registered library reader
type Reader struct {
	ID             int64  `json:"id"`
	FirstName      string `json:"firstName"`
	LastName       string `json:"lastName"`
	Email          string `json:"email"`
	PhoneNumber    string `json:"phoneNumber"`
	ProfilePicture string `json:"profilePicture,omitempty"`
}

// FullName returns "First Last"
func (r Reader) FullName() string {
	return strings.TrimSpace(r.FirstName + " " + r.LastName)
}

// Borrowing statuses as reported by the server
const (
	StatusBorrowed = "borrowed"
	StatusReturned = "returned"
	StatusOverdue  = "overdue"
)

// Borrowing represents a book lent to a reader
type Borrowing struct {
	ID             int64  `json:"id"`
	Book           Book   `json:"book"`
	Reader         Reader `json:"user"`
	BorrowDate     Date   `json:"borrowDate"`
	DueDate        Date   `json:"dueDate"`
	RealReturnDate *Date  `json:"realReturnDate,omitempty"`
	Status         string `json:"status"`
	Prolongations  int    `json:"prolongations,omitempty"`
}

// Returned reports whether the book came back
func (b Borrowing) Returned() bool {
	return b.RealReturnDate != nil && !b.RealReturnDate.IsZero()
}

// DaysOverdue returns how many whole days past the due date the borrowing is at the given moment.
// Returned borrowings are never overdue.
func (b Borrowing) DaysOverdue(now time.Time) int {
	if b.Returned() || b.DueDate.IsZero() {
		return 0
	}
	days := int(now.Sub(b.DueDate.Time).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

// MonthlyCount is one point of a monthly time series
type MonthlyCount struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}

// Credentials are sent to the login endpoint
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResult is returned by the login endpoint
type LoginResult struct {
	Token  string `json:"token"`
	UserID int64  `json:"id,omitempty"`
}

// BorrowRequest creates a borrowing for a reader
type BorrowRequest struct {
	BookID     int64 `json:"bookId"`
	BorrowDate Date  `json:"borrowDate"`
	DueDate    Date  `json:"dueDate"`
}

// ReturnRequest records the real return date of a borrowing
type ReturnRequest struct {
	RealReturnDate Date `json:"realReturnDate"`
}

// ProlongRequest moves the due date of a borrowing
type ProlongRequest struct {
	DueDate Date `json:"dueDate"`
}

// BorrowingQuery filters and sorts a reader's borrowings
type BorrowingQuery struct {
	Status    string
	SortField string
	SortOrder string
}

// DateLayout is the wire format of calendar dates
const DateLayout = "2006-01-02"

// Date is a calendar date that accepts both "2006-01-02" and RFC 3339 on the wire
type Date struct {
	time.Time
}

// NewDate truncates t to a calendar date
func NewDate(t time.Time) Date {
	y, m, d := t.Date()
	return Date{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a "2006-01-02" date
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return Date{t}, nil
}

// String formats the date as "2006-01-02", or "" for the zero date
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// MarshalJSON implements json.Marshaler
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.Format(DateLayout) + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler
func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		d.Time = time.Time{}
		return nil
	}
	for _, layout := range []string{DateLayout, time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			d.Time = t
			return nil
		}
	}
	return fmt.Errorf("invalid date %q", s)
}
