package bot

import (
	"context"
	"strconv"

	"go.uber.org/zap"

	"librarian/internal/browse"
	"librarian/internal/screens"
)

// pager is a list that turns its own pages
type pager interface {
	NextPage()
	PrevPage()
	FirstPage()
	LastPage()
}

func turn(p pager, action string) {
	switch action {
	case "next":
		p.NextPage()
	case "prev":
		p.PrevPage()
	case "first":
		p.FirstPage()
	case "last":
		p.LastPage()
	}
}

func move(action string) func(*browse.Paginator) {
	return func(p *browse.Paginator) {
		switch action {
		case "next":
			p.Next()
		case "prev":
			p.Prev()
		case "first":
			p.First()
		case "last":
			p.Last()
		}
	}
}

// handlePageCallback turns a page of one list and shows it again
func (b *Bot) handlePageCallback(d *chatDesk, list, action string) {
	switch list {
	case "books":
		turn(d.Books, action)
		b.showBooks(d, d.Books.View())
	case "readers":
		turn(d.Readers, action)
		b.showReaders(d, d.Readers.View())
	case "overdue":
		d.Delays.Navigate(move(action))
		b.showOverdue(d)
	case "sbooks":
		d.Search.Navigate(screens.SectionBooks, move(action))
		b.showSearch(d, d.Search.View())
	case "sreaders":
		d.Search.Navigate(screens.SectionReaders, move(action))
		b.showSearch(d, d.Search.View())
	}
}

// handleRecentCallback runs, removes or clears recent searches
func (b *Bot) handleRecentCallback(ctx context.Context, d *chatDesk, action, arg string) {
	d.activate(screenSearch)
	if action == "recent_clear" {
		if err := d.Search.ClearRecent(ctx); err != nil {
			b.logger.Error("Failed to clear recent searches", zap.Error(err))
		}
		b.showHistory(d, d.Search.View().History)
		return
	}

	history := d.Search.View().History
	i, err := strconv.Atoi(arg)
	if err != nil || i < 0 || i >= len(history) {
		b.showHistory(d, history)
		return
	}
	query := history[i].Query

	if action == "recent_rm" {
		if err := d.Search.RemoveRecent(ctx, query); err != nil {
			b.logger.Error("Failed to remove recent search", zap.String("query", query), zap.Error(err))
		}
		b.showHistory(d, d.Search.View().History)
		return
	}

	if err := d.Search.RunRecent(ctx, query); err != nil {
		b.logger.Debug("Recent search failed", zap.String("query", query), zap.Error(err))
	}
	b.showSearch(d, d.Search.View())
}

// handleReturnCallback records a book returned today
func (b *Bot) handleReturnCallback(ctx context.Context, d *chatDesk, arg string) {
	rd, ok := d.currentReader()
	if !ok {
		return
	}
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return
	}
	if err := rd.RecordReturn(ctx, id); err != nil {
		b.formFailed(d, err)
		return
	}
	b.showReader(d, rd)
}

// handleDialogCallback opens a dialog of the detail screen and asks for its input
func (b *Bot) handleDialogCallback(d *chatDesk, userID int64, action, arg string) {
	switch action {
	case "prol":
		rd, ok := d.currentReader()
		id, err := strconv.ParseInt(arg, 10, 64)
		if !ok || err != nil {
			return
		}
		rd.OpenDialog(screens.DialogProlong, id)
		b.setState(userID, &ConversationState{Command: "prolong", Step: 1, Target: id})
		b.say(d, "Send the new due date")
	case "borrow":
		rd, ok := d.currentReader()
		if !ok {
			return
		}
		rd.OpenDialog(screens.DialogBorrow, rd.ID())
		b.setState(userID, &ConversationState{Command: "borrow", Step: 1, Target: rd.ID()})
		b.say(d, "Send: book id;due date")
	case "redit":
		rd, ok := d.currentReader()
		if !ok {
			return
		}
		rd.OpenDialog(screens.DialogEdit, rd.ID())
		b.setState(userID, &ConversationState{Command: "edit_reader", Step: 1, Target: rd.ID()})
		b.say(d, "Send: first;last;email;phone")
	case "bedit":
		bd, ok := d.currentBook()
		if !ok {
			return
		}
		bd.OpenDialog()
		b.setState(userID, &ConversationState{Command: "edit_book", Step: 1, Target: bd.ID()})
		b.say(d, "Title;Author;YYYY-MM-DD")
	}
}

// handleStatusCallback filters the borrowings of the open reader
func (b *Bot) handleStatusCallback(ctx context.Context, d *chatDesk, status string) {
	rd, ok := d.currentReader()
	if !ok {
		return
	}
	q := rd.Query()
	q.Status = status
	if err := rd.SetQuery(ctx, q); err != nil {
		b.logger.Debug("Borrowings failed to load", zap.String("status", status), zap.Error(err))
	}
	b.showReader(d, rd)
}
