package screens

import (
	"errors"
	"strings"
	"time"

	"golang.org/x/text/message"

	"librarian/internal/api"
	"librarian/internal/browse"
	"librarian/internal/forms"
	"librarian/internal/models"
)

// BookLine renders a book as one line of plain text
func BookLine(b models.Book) string {
	var sb strings.Builder
	sb.WriteString(b.Title)
	if b.Author != "" {
		sb.WriteString(", ")
		sb.WriteString(b.Author)
	}
	if !b.PublicationDate.IsZero() {
		sb.WriteString(" (")
		sb.WriteString(b.PublicationDate.Format("2006"))
		sb.WriteString(")")
	}
	return sb.String()
}

// ReaderLine renders a reader as one line of plain text
func ReaderLine(r models.Reader) string {
	if r.Email == "" {
		return r.FullName()
	}
	return r.FullName() + " <" + r.Email + ">"
}

// BorrowingLine renders a borrowing with its due or return state
func BorrowingLine(p *message.Printer, b models.Borrowing, now time.Time) string {
	line := b.Book.Title + " / " + b.Reader.FullName()
	switch {
	case b.Returned():
		return line + ": " + p.Sprintf("Returned %s", b.RealReturnDate.String())
	case b.DaysOverdue(now) > 0:
		return line + ": " + p.Sprintf("%d days overdue", b.DaysOverdue(now))
	default:
		return line + ": " + p.Sprintf("Due %s", b.DueDate.String())
	}
}

// StateText returns the placeholder of a list that has no items to show, or "" when it does
func StateText(p *message.Printer, state browse.ViewState, empty string) string {
	switch state {
	case browse.StateNeverSearched:
		return p.Sprintf("Start typing to search")
	case browse.StateLoading:
		return p.Sprintf("Loading…")
	case browse.StateEmpty:
		return p.Sprintf(empty)
	default:
		return ""
	}
}

// PageText renders "Page n of m", or "" for a single page
func PageText[T any](p *message.Printer, page browse.Page[T]) string {
	if page.Count <= 1 {
		return ""
	}
	return p.Sprintf("Page %d of %d", page.Number, page.Count)
}

// NoticeText renders a notice for the user
func NoticeText(p *message.Printer, n browse.Notice) string {
	switch n.Kind {
	case browse.NoticeSuccess:
		return p.Sprintf("%s succeeded", n.Op)
	case browse.NoticeUnauthorized:
		return p.Sprintf("Your session has expired, please sign in again")
	default:
		return p.Sprintf("%s failed: %v", n.Op, ErrorText(p, n.Err))
	}
}

// ErrorText renders an error without transport details
func ErrorText(p *message.Printer, err error) string {
	var fe forms.FieldErrors
	var se *api.StatusError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &fe):
		return p.Sprintf("Invalid input: %v", strings.TrimPrefix(fe.Error(), forms.ErrInvalid.Error()+": "))
	case errors.Is(err, browse.ErrBusy):
		return p.Sprintf("Another operation is still running")
	case errors.Is(err, api.ErrNotFound):
		return p.Sprintf("Not found")
	case errors.As(err, &se):
		return se.Error()
	default:
		return err.Error()
	}
}
