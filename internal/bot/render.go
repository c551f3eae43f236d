package bot

import (
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/text/message"

	"librarian/internal/browse"
	"librarian/internal/models"
	"librarian/internal/screens"
)

// renderList formats one page of a list with its title, placeholder and page counter
func renderList[T any](esc func(string) string, p *message.Printer, title, empty string, v browse.View[T], line func(T) string) string {
	var sb strings.Builder
	sb.WriteString("<b>" + esc(title) + "</b>")
	if q := strings.TrimSpace(v.Query); q != "" {
		sb.WriteString(": " + esc(q))
	}
	sb.WriteString("\n")

	if placeholder := screens.StateText(p, v.State, empty); placeholder != "" {
		sb.WriteString("<i>" + esc(placeholder) + "</i>\n")
	}
	offset := (v.Page.Number - 1) * v.Page.Size
	for i, item := range v.Page.Items {
		fmt.Fprintf(&sb, "%d. %s\n", offset+i+1, esc(line(item)))
	}
	if pt := screens.PageText(p, v.Page); pt != "" {
		sb.WriteString("\n" + esc(pt))
	}
	return sb.String()
}

// listKeyboard has one button per item followed by the page controls
func listKeyboard[T any](page browse.Page[T], nav string, open func(T) (string, string)) [][]tgbotapi.InlineKeyboardButton {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, item := range page.Items {
		text, data := open(item)
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(label(text), data)))
	}
	if row := navRow(page.HasPrev(), page.HasNext(), nav); row != nil {
		rows = append(rows, row)
	}
	return rows
}

func navRow(hasPrev, hasNext bool, prefix string) []tgbotapi.InlineKeyboardButton {
	var row []tgbotapi.InlineKeyboardButton
	if hasPrev {
		row = append(row,
			tgbotapi.NewInlineKeyboardButtonData("«", prefix+":first"),
			tgbotapi.NewInlineKeyboardButtonData("‹", prefix+":prev"),
		)
	}
	if hasNext {
		row = append(row,
			tgbotapi.NewInlineKeyboardButtonData("›", prefix+":next"),
			tgbotapi.NewInlineKeyboardButtonData("»", prefix+":last"),
		)
	}
	return row
}

func keyboard(rows [][]tgbotapi.InlineKeyboardButton) *tgbotapi.InlineKeyboardMarkup {
	if len(rows) == 0 {
		return nil
	}
	kb := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &kb
}

func openBook(b models.Book) (string, string) {
	return screens.BookLine(b), "book:" + strconv.FormatInt(b.ID, 10)
}

func openReader(r models.Reader) (string, string) {
	return r.FullName(), "reader:" + strconv.FormatInt(r.ID, 10)
}

func (b *Bot) showBooks(d *chatDesk, v browse.View[models.Book]) {
	p := d.printer()
	text := renderList(b.escape, p, p.Sprintf("Books"), "No books found", v, screens.BookLine)
	b.sendHTML(d.chat(), text, keyboard(listKeyboard(v.Page, "books", openBook)))
}

func (b *Bot) showReaders(d *chatDesk, v browse.View[models.Reader]) {
	p := d.printer()
	text := renderList(b.escape, p, p.Sprintf("Readers"), "No readers found", v, screens.ReaderLine)
	b.sendHTML(d.chat(), text, keyboard(listKeyboard(v.Page, "readers", openReader)))
}

func (b *Bot) showSearch(d *chatDesk, v screens.SearchView) {
	p := d.printer()
	if strings.TrimSpace(v.Query) == "" {
		b.showHistory(d, v.History)
		return
	}

	var sb strings.Builder
	sb.WriteString(renderList(b.escape, p, p.Sprintf("Books"), "No books found", v.Books, screens.BookLine))
	sb.WriteString("\n\n")
	sb.WriteString(renderList(b.escape, p, p.Sprintf("Readers"), "No readers found", v.Readers, screens.ReaderLine))

	rows := listKeyboard(v.Books.Page, "sbooks", openBook)
	rows = append(rows, listKeyboard(v.Readers.Page, "sreaders", openReader)...)
	b.sendHTML(d.chat(), sb.String(), keyboard(rows))
}

func (b *Bot) showHistory(d *chatDesk, history []browse.RecentSearch) {
	p := d.printer()

	var sb strings.Builder
	sb.WriteString("<b>" + b.escape(p.Sprintf("Recent searches")) + "</b>\n")
	if len(history) == 0 {
		sb.WriteString("<i>" + b.escape(p.Sprintf("No recent searches")) + "</i>\n")
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	for i, r := range history {
		entry := p.Sprintf("%s (%d results)", r.Query, r.HitCount)
		fmt.Fprintf(&sb, "%d. %s\n", i+1, b.escape(entry))
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label(entry), "recent:"+strconv.Itoa(i)),
			tgbotapi.NewInlineKeyboardButtonData("✕", "recent_rm:"+strconv.Itoa(i)),
		))
	}
	if len(history) > 0 {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(p.Sprintf("Clear all"), "recent_clear"),
		))
	}
	sb.WriteString("\n" + b.escape(p.Sprintf("Type a query or /clear")))
	b.sendHTML(d.chat(), sb.String(), keyboard(rows))
}

func (b *Bot) showOverdue(d *chatDesk) {
	p := d.printer()
	v := d.Delays.View()
	now := d.Now()

	list := browse.View[models.Borrowing]{Query: v.Filter, State: v.State, Page: v.Page, Err: v.Err}
	text := renderList(b.escape, p, p.Sprintf("Delays"), "No overdue borrowings", list, func(bw models.Borrowing) string {
		return screens.BorrowingLine(p, bw, now)
	})
	rows := listKeyboard(v.Page, "overdue", func(bw models.Borrowing) (string, string) {
		return bw.Reader.FullName() + ": " + bw.Book.Title, "reader:" + strconv.FormatInt(bw.Reader.ID, 10)
	})
	b.sendHTML(d.chat(), text+"\n"+b.escape(p.Sprintf("Filter by reader or title…")), keyboard(rows))
}

func (b *Bot) showDashboard(d *chatDesk) {
	p := d.printer()
	s := d.Dashboard
	now := d.Now()
	unavailable := p.Sprintf("unavailable")

	var sb strings.Builder
	sb.WriteString("<b>" + b.escape(p.Sprintf("Dashboard")) + "</b>\n")
	if r := s.BookCount.Result(); r.Ok() {
		sb.WriteString(b.escape(p.Sprintf("Books: %d", r.Value)) + "\n")
	} else {
		sb.WriteString(b.escape(p.Sprintf("Books")) + ": " + b.escape(unavailable) + "\n")
	}
	if r := s.ReaderCount.Result(); r.Ok() {
		sb.WriteString(b.escape(p.Sprintf("Readers: %d", r.Value)) + "\n")
	} else {
		sb.WriteString(b.escape(p.Sprintf("Readers")) + ": " + b.escape(unavailable) + "\n")
	}

	sb.WriteString("\n<b>" + b.escape(p.Sprintf("Most overdue")) + "</b>\n")
	if r := s.TopOverdue.Result(); r.Ok() {
		for i, bw := range r.Value {
			fmt.Fprintf(&sb, "%d. %s\n", i+1, b.escape(screens.BorrowingLine(p, bw, now)))
		}
	} else {
		sb.WriteString("<i>" + b.escape(unavailable) + "</i>\n")
	}

	for _, series := range []struct {
		title string
		slot  *browse.Slot[[]models.MonthlyCount]
	}{
		{p.Sprintf("Borrowings per month"), s.BorrowingsMonthly},
		{p.Sprintf("New readers per month"), s.ReadersMonthly},
	} {
		sb.WriteString("\n<b>" + b.escape(series.title) + "</b>\n")
		r := series.slot.Result()
		if !r.Ok() {
			sb.WriteString("<i>" + b.escape(unavailable) + "</i>\n")
			continue
		}
		for _, m := range r.Value {
			fmt.Fprintf(&sb, "%s: %d\n", b.escape(m.Month), m.Count)
		}
	}
	b.sendHTML(d.chat(), sb.String(), nil)
}

// borrowingStatuses are the filters of the reader detail, "" shows every borrowing
var borrowingStatuses = []struct{ status, title string }{
	{"", "All"},
	{models.StatusBorrowed, "Borrowed"},
	{models.StatusReturned, "Returned"},
	{models.StatusOverdue, "Overdue"},
}

func (b *Bot) showReader(d *chatDesk, rd *screens.ReaderDetail) {
	p := d.printer()
	now := d.Now()

	var sb strings.Builder
	if r := rd.Reader.Result(); r.Ok() {
		reader := r.Value
		sb.WriteString("<b>" + b.escape(reader.FullName()) + "</b>\n")
		if reader.Email != "" {
			sb.WriteString(b.escape(reader.Email) + "\n")
		}
		if reader.PhoneNumber != "" {
			sb.WriteString(b.escape(reader.PhoneNumber) + "\n")
		}
	} else {
		sb.WriteString("<i>" + b.escape(p.Sprintf("unavailable")) + "</i>\n")
	}

	query := rd.Query()
	sb.WriteString("\n<b>" + b.escape(p.Sprintf("Borrowings")) + "</b>")
	for _, s := range borrowingStatuses {
		if s.status == query.Status && s.status != "" {
			sb.WriteString(" (" + b.escape(p.Sprintf(s.title)) + ")")
		}
	}
	sb.WriteString("\n")

	var rows [][]tgbotapi.InlineKeyboardButton
	borrowings := rd.Borrowings.Result()
	switch {
	case !borrowings.Ok():
		sb.WriteString("<i>" + b.escape(p.Sprintf("unavailable")) + "</i>\n")
	case len(borrowings.Value) == 0:
		sb.WriteString("<i>" + b.escape(p.Sprintf("No borrowings")) + "</i>\n")
	}
	for i, bw := range borrowings.Value {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, b.escape(screens.BorrowingLine(p, bw, now)))
		if bw.Returned() {
			continue
		}
		id := strconv.FormatInt(bw.ID, 10)
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label(p.Sprintf("Return")+": "+bw.Book.Title), "ret:"+id),
			tgbotapi.NewInlineKeyboardButtonData(p.Sprintf("Prolong"), "prol:"+id),
		))
	}

	var filters []tgbotapi.InlineKeyboardButton
	for _, s := range borrowingStatuses {
		filters = append(filters, tgbotapi.NewInlineKeyboardButtonData(p.Sprintf(s.title), "rstatus:"+s.status))
	}
	rows = append(rows, filters, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(p.Sprintf("Add borrowing"), "borrow"),
		tgbotapi.NewInlineKeyboardButtonData(p.Sprintf("Edit"), "redit"),
	))
	b.sendHTML(d.chat(), sb.String(), keyboard(rows))
}

func (b *Bot) showBook(d *chatDesk, bd *screens.BookDetail) {
	p := d.printer()
	now := d.Now()

	var sb strings.Builder
	if r := bd.Book.Result(); r.Ok() {
		book := r.Value
		sb.WriteString("<b>" + b.escape(book.Title) + "</b>\n")
		if book.Author != "" {
			sb.WriteString(b.escape(book.Author) + "\n")
		}
		if !book.PublicationDate.IsZero() {
			sb.WriteString(b.escape(p.Sprintf("Published %s", book.PublicationDate.String())) + "\n")
		}
		if book.ISBN != "" {
			sb.WriteString("ISBN " + b.escape(book.ISBN) + "\n")
		}
		if book.Description != "" {
			sb.WriteString("\n" + b.escape(book.Description) + "\n")
		}
	} else {
		sb.WriteString("<i>" + b.escape(p.Sprintf("unavailable")) + "</i>\n")
	}

	sb.WriteString("\n<b>" + b.escape(p.Sprintf("Borrowings")) + "</b>\n")
	borrowings := bd.Borrowings.Result()
	switch {
	case !borrowings.Ok():
		sb.WriteString("<i>" + b.escape(p.Sprintf("unavailable")) + "</i>\n")
	case len(borrowings.Value) == 0:
		sb.WriteString("<i>" + b.escape(p.Sprintf("No borrowings")) + "</i>\n")
	}
	for i, bw := range borrowings.Value {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, b.escape(screens.BorrowingLine(p, bw, now)))
	}

	rows := [][]tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(p.Sprintf("Edit"), "bedit")),
	}
	b.sendHTML(d.chat(), sb.String(), keyboard(rows))
}

// say sends a plain translated line
func (b *Bot) say(d *chatDesk, key string, args ...any) {
	b.sendHTML(d.chat(), b.escape(d.printer().Sprintf(key, args...)), nil)
}
