package bot

import (
	"context"
	"errors"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"librarian/internal/browse"
	"librarian/internal/forms"
	"librarian/internal/screens"
)

// handleLoginStart asks for credentials
func (b *Bot) handleLoginStart(d *chatDesk, userID int64) {
	b.setState(userID, &ConversationState{Command: "login", Step: 1})
	b.say(d, "Send: email password")
}

// handleNewBookStart initiates the new book conversation
func (b *Bot) handleNewBookStart(d *chatDesk, userID int64) {
	b.setState(userID, &ConversationState{Command: "new_book", Step: 1})
	b.sendHTML(d.chat(), b.escape(d.printer().Sprintf("Send the book details")+"\n"+d.printer().Sprintf("Title;Author;YYYY-MM-DD")), nil)
}

// handleConversation processes multi-step conversations
func (b *Bot) handleConversation(ctx context.Context, d *chatDesk, message *tgbotapi.Message, state *ConversationState) {
	userID := message.From.ID

	switch state.Command {
	case "login":
		b.handleLoginConversation(ctx, d, message, state)
	case "new_book":
		b.handleNewBookConversation(ctx, d, message, state)
	case "borrow":
		b.handleBorrowConversation(ctx, d, message, state)
	case "prolong":
		b.handleProlongConversation(ctx, d, message, state)
	case "edit_reader":
		b.handleEditReaderConversation(ctx, d, message, state)
	case "edit_book":
		b.handleEditBookConversation(ctx, d, message, state)
	default:
		state.Step = -1
	}

	// Clean up completed conversations
	if state.Step == -1 {
		b.clearState(userID)
	}
}

func (b *Bot) handleLoginConversation(ctx context.Context, d *chatDesk, message *tgbotapi.Message, state *ConversationState) {
	// the password must not stay in the chat history
	b.deleteMessage(message.Chat.ID, message.MessageID)

	email, password, _ := strings.Cut(strings.TrimSpace(message.Text), " ")
	err := d.Login.Submit(ctx, forms.LoginForm{Email: email, Password: strings.TrimSpace(password)})
	if b.formFailed(d, err) {
		return
	}
	state.Step = -1
}

func (b *Bot) handleNewBookConversation(ctx context.Context, d *chatDesk, message *tgbotapi.Message, state *ConversationState) {
	f := fields(message.Text, 3)
	book, err := d.Books.CreateBook(ctx, forms.BookForm{Title: f[0], Author: f[1], PublicationDate: f[2]})
	if b.formFailed(d, err) {
		return
	}
	state.Step = -1
	b.logger.Info("Book created via bot", zap.Int64("book_id", book.ID), zap.Int64("user_id", message.From.ID))
	d.activate(screenBooks)
	b.showBooks(d, d.Books.View())
}

func (b *Bot) handleBorrowConversation(ctx context.Context, d *chatDesk, message *tgbotapi.Message, state *ConversationState) {
	rd, ok := d.currentReader()
	if !ok {
		state.Step = -1
		return
	}
	f := fields(message.Text, 2)
	err := rd.AddBorrowing(ctx, forms.BorrowForm{BookID: f[0], DueDate: f[1]})
	if b.formFailed(d, err) {
		return
	}
	state.Step = -1
	b.showReader(d, rd)
}

func (b *Bot) handleProlongConversation(ctx context.Context, d *chatDesk, message *tgbotapi.Message, state *ConversationState) {
	rd, ok := d.currentReader()
	if !ok {
		state.Step = -1
		return
	}
	err := rd.Prolong(ctx, state.Target, forms.ProlongForm{DueDate: strings.TrimSpace(message.Text)})
	if b.formFailed(d, err) {
		return
	}
	state.Step = -1
	b.showReader(d, rd)
}

func (b *Bot) handleEditReaderConversation(ctx context.Context, d *chatDesk, message *tgbotapi.Message, state *ConversationState) {
	rd, ok := d.currentReader()
	if !ok {
		state.Step = -1
		return
	}
	f := fields(message.Text, 4)
	err := rd.Update(ctx, forms.ReaderForm{FirstName: f[0], LastName: f[1], Email: f[2], PhoneNumber: f[3]})
	if b.formFailed(d, err) {
		return
	}
	state.Step = -1
	b.showReader(d, rd)
}

func (b *Bot) handleEditBookConversation(ctx context.Context, d *chatDesk, message *tgbotapi.Message, state *ConversationState) {
	bd, ok := d.currentBook()
	if !ok {
		state.Step = -1
		return
	}
	f := fields(message.Text, 3)
	err := bd.Update(ctx, forms.BookForm{Title: f[0], Author: f[1], PublicationDate: f[2]})
	if b.formFailed(d, err) {
		return
	}
	state.Step = -1
	b.showBook(d, bd)
}

// formFailed reports whether a dialog submit failed. The conversation stays open so the user can try again.
// Server failures already reached the user as notices; input problems are explained here.
func (b *Bot) formFailed(d *chatDesk, err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, forms.ErrInvalid) || errors.Is(err, browse.ErrBusy) {
		b.sendHTML(d.chat(), b.escape(screens.ErrorText(d.printer(), err)), nil)
	}
	return true
}

// fields splits "a;b;c" into exactly n trimmed parts
func fields(text string, n int) []string {
	parts := strings.SplitN(text, ";", n)
	out := make([]string, n)
	for i := range out {
		if i < len(parts) {
			out[i] = strings.TrimSpace(parts[i])
		}
	}
	return out
}
