package console

import (
	"fmt"
	"strings"

	"golang.org/x/text/message"

	"librarian/internal/browse"
	"librarian/internal/models"
	"librarian/internal/screens"
)

// renderList formats one page of a list with its title, placeholder and page counter
func renderList[T any](p *message.Printer, title, empty string, v browse.View[T], line func(T) string) string {
	var sb strings.Builder
	sb.WriteString("== " + title)
	if q := strings.TrimSpace(v.Query); q != "" {
		sb.WriteString(": " + q)
	}
	sb.WriteString(" ==\n")

	if placeholder := screens.StateText(p, v.State, empty); placeholder != "" {
		sb.WriteString("  " + placeholder + "\n")
	}
	offset := (v.Page.Number - 1) * v.Page.Size
	for i, item := range v.Page.Items {
		fmt.Fprintf(&sb, "%3d. %s\n", offset+i+1, line(item))
	}
	if pt := screens.PageText(p, v.Page); pt != "" {
		sb.WriteString("  " + pt + "\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func bookLine(b models.Book) string {
	return fmt.Sprintf("#%d %s", b.ID, screens.BookLine(b))
}

func readerLine(r models.Reader) string {
	return fmt.Sprintf("#%d %s", r.ID, screens.ReaderLine(r))
}

func (c *Console) showBooks() {
	p := c.printer()
	c.println(renderList(p, p.Sprintf("Books"), "No books found", c.desk.Books.View(), bookLine))
}

func (c *Console) showReaders() {
	p := c.printer()
	c.println(renderList(p, p.Sprintf("Readers"), "No readers found", c.desk.Readers.View(), readerLine))
}

func (c *Console) showSearch() {
	p := c.printer()
	v := c.desk.Search.View()
	if strings.TrimSpace(v.Query) == "" {
		c.showHistory()
		return
	}
	c.println(renderList(p, p.Sprintf("Books"), "No books found", v.Books, bookLine))
	c.println(renderList(p, p.Sprintf("Readers"), "No readers found", v.Readers, readerLine))
}

func (c *Console) showHistory() {
	p := c.printer()
	history := c.desk.Search.View().History

	var sb strings.Builder
	sb.WriteString("== " + p.Sprintf("Recent searches") + " ==\n")
	if len(history) == 0 {
		sb.WriteString("  " + p.Sprintf("No recent searches") + "\n")
	}
	for i, r := range history {
		fmt.Fprintf(&sb, "%3d. %s\n", i+1, p.Sprintf("%s (%d results)", r.Query, r.HitCount))
	}
	c.println(strings.TrimRight(sb.String(), "\n"))
}

func (c *Console) showOverdue() {
	p := c.printer()
	v := c.desk.Delays.View()
	now := c.desk.Now()

	list := browse.View[models.Borrowing]{Query: v.Filter, State: v.State, Page: v.Page, Err: v.Err}
	c.println(renderList(p, p.Sprintf("Delays"), "No overdue borrowings", list, func(b models.Borrowing) string {
		return fmt.Sprintf("reader #%d %s", b.Reader.ID, screens.BorrowingLine(p, b, now))
	}))
}

func (c *Console) showDashboard() {
	p := c.printer()
	s := c.desk.Dashboard
	now := c.desk.Now()
	unavailable := p.Sprintf("unavailable")

	var sb strings.Builder
	sb.WriteString("== " + p.Sprintf("Dashboard") + " ==\n")
	if r := s.BookCount.Result(); r.Ok() {
		sb.WriteString(p.Sprintf("Books: %d", r.Value) + "\n")
	} else {
		sb.WriteString(p.Sprintf("Books") + ": " + unavailable + "\n")
	}
	if r := s.ReaderCount.Result(); r.Ok() {
		sb.WriteString(p.Sprintf("Readers: %d", r.Value) + "\n")
	} else {
		sb.WriteString(p.Sprintf("Readers") + ": " + unavailable + "\n")
	}

	sb.WriteString("\n" + p.Sprintf("Most overdue") + "\n")
	if r := s.TopOverdue.Result(); r.Ok() {
		for i, b := range r.Value {
			fmt.Fprintf(&sb, "%3d. %s\n", i+1, screens.BorrowingLine(p, b, now))
		}
	} else {
		sb.WriteString("  " + unavailable + "\n")
	}

	for _, series := range []struct {
		title string
		slot  *browse.Slot[[]models.MonthlyCount]
	}{
		{p.Sprintf("Borrowings per month"), s.BorrowingsMonthly},
		{p.Sprintf("New readers per month"), s.ReadersMonthly},
	} {
		sb.WriteString("\n" + series.title + "\n")
		r := series.slot.Result()
		if !r.Ok() {
			sb.WriteString("  " + unavailable + "\n")
			continue
		}
		for _, m := range r.Value {
			fmt.Fprintf(&sb, "  %s: %d\n", m.Month, m.Count)
		}
	}
	c.println(strings.TrimRight(sb.String(), "\n"))
}

func (c *Console) borrowings(sb *strings.Builder, p *message.Printer, slot *browse.Slot[[]models.Borrowing]) {
	now := c.desk.Now()
	sb.WriteString("\n" + p.Sprintf("Borrowings") + "\n")
	r := slot.Result()
	switch {
	case !r.Ok():
		sb.WriteString("  " + p.Sprintf("unavailable") + "\n")
	case len(r.Value) == 0:
		sb.WriteString("  " + p.Sprintf("No borrowings") + "\n")
	}
	for _, b := range r.Value {
		fmt.Fprintf(sb, "  #%d %s\n", b.ID, screens.BorrowingLine(p, b, now))
	}
}

func (c *Console) showReader() {
	p := c.printer()
	r := c.reader

	var sb strings.Builder
	if res := r.Reader.Result(); res.Ok() {
		reader := res.Value
		fmt.Fprintf(&sb, "== #%d %s ==\n%s\n%s\n", reader.ID, reader.FullName(), reader.Email, reader.PhoneNumber)
	} else {
		fmt.Fprintf(&sb, "== #%d: %s ==\n", r.ID(), p.Sprintf("unavailable"))
	}
	if status := r.Query().Status; status != "" {
		sb.WriteString(p.Sprintf(statusLabel(status)) + "\n")
	}
	c.borrowings(&sb, p, r.Borrowings)
	c.println(strings.TrimRight(sb.String(), "\n"))
}

func (c *Console) showBook(d *screens.BookDetail) {
	p := c.printer()

	var sb strings.Builder
	if res := d.Book.Result(); res.Ok() {
		fmt.Fprintf(&sb, "== %s ==\n", bookLine(res.Value))
		if res.Value.Description != "" {
			sb.WriteString(res.Value.Description + "\n")
		}
	} else {
		fmt.Fprintf(&sb, "== #%d: %s ==\n", d.ID(), p.Sprintf("unavailable"))
	}
	c.borrowings(&sb, p, d.Borrowings)
	c.println(strings.TrimRight(sb.String(), "\n"))
}

func statusLabel(status string) string {
	switch status {
	case models.StatusBorrowed:
		return "Borrowed"
	case models.StatusReturned:
		return "Returned"
	case models.StatusOverdue:
		return "Overdue"
	default:
		return "All"
	}
}
