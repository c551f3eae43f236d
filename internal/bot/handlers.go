package bot

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// commands that work without signing in
var publicCommands = map[string]bool{
	"start":    true,
	"help":     true,
	"login":    true,
	"language": true,
	"darkmode": true,
}

// handleMessage processes a single message
func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	// Recover from panics to prevent bot crashes
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Recovered from panic in handleMessage", zap.Any("panic", r))
			msg := tgbotapi.NewMessage(message.Chat.ID, "An error occurred while processing your request. Please try again.")
			b.sendMessage(msg)
		}
	}()

	userID := message.From.ID
	d, err := b.desk(ctx, userID, message.From.LanguageCode, message.Chat.ID)
	if err != nil {
		b.logger.Error("Failed to open desk", zap.Int64("user_id", userID), zap.Error(err))
		b.sendMessage(tgbotapi.NewMessage(message.Chat.ID, "Storage is unavailable, please try again later."))
		return
	}

	// Check if user is in a conversation
	if state, ok := b.state(userID); ok {
		// If conversation is already complete (Step == -1), clean it up and process as new command
		if state.Step == -1 || message.IsCommand() {
			// Allow any command to interrupt/cancel an ongoing conversation
			b.clearState(userID)
		} else {
			b.handleConversation(ctx, d, message, state)
			return
		}
	}

	if !message.IsCommand() {
		b.handleText(ctx, d, message)
		return
	}

	command := message.Command()
	if !publicCommands[command] && !d.session.SignedIn() {
		b.say(d, "Please sign in with /login")
		return
	}

	args := strings.TrimSpace(message.CommandArguments())
	switch command {
	case "start", "help":
		b.handleStart(d)
	case "login":
		b.handleLoginStart(d, userID)
	case "logout":
		b.handleLogout(ctx, d)
	case "books":
		b.handleBooks(ctx, d, args)
	case "readers":
		b.handleReaders(ctx, d, args)
	case "search":
		b.handleSearch(ctx, d, args)
	case "history":
		d.activate(screenSearch)
		b.showHistory(d, d.Search.View().History)
	case "clear":
		b.handleClear(ctx, d)
	case "reader":
		b.handleReader(ctx, d, args)
	case "book":
		b.handleBook(ctx, d, args)
	case "new_book":
		b.handleNewBookStart(d, userID)
	case "overdue":
		b.handleOverdue(ctx, d)
	case "dashboard":
		b.handleDashboard(ctx, d)
	case "language":
		b.handleLanguage(ctx, d, args)
	case "darkmode":
		b.handleDarkMode(ctx, d)
	default:
		b.say(d, "Unknown command")
	}
}

// handleText feeds free text into the list the user is looking at
func (b *Bot) handleText(ctx context.Context, d *chatDesk, message *tgbotapi.Message) {
	if !d.session.SignedIn() {
		b.say(d, "Please sign in with /login")
		return
	}

	switch d.screen() {
	case screenBooks:
		d.startTyping()
		d.Books.Update(ctx, message.Text)
	case screenReaders:
		d.startTyping()
		d.Readers.Update(ctx, message.Text)
	case screenSearch:
		d.startTyping()
		d.Search.Update(ctx, message.Text)
	case screenOverdue:
		d.startTyping()
		d.Delays.SetFilter(message.Text)
	default:
		b.handleStart(d)
	}
}

// handleCallbackQuery processes inline keyboard button clicks
func (b *Bot) handleCallbackQuery(ctx context.Context, query *tgbotapi.CallbackQuery) {
	// Recover from panics
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Recovered from panic in handleCallbackQuery", zap.Any("panic", r))
		}
	}()

	// Answer the callback query to remove loading state
	if b.api != nil {
		if _, err := b.api.Request(tgbotapi.NewCallback(query.ID, "")); err != nil {
			b.logger.Debug("Failed to answer callback", zap.Error(err))
		}
	}
	if query.Message == nil {
		return
	}

	userID := query.From.ID
	d, err := b.desk(ctx, userID, query.From.LanguageCode, query.Message.Chat.ID)
	if err != nil {
		b.logger.Error("Failed to open desk", zap.Int64("user_id", userID), zap.Error(err))
		return
	}

	data := query.Data
	if !strings.HasPrefix(data, "lang:") && !d.session.SignedIn() {
		b.say(d, "Please sign in with /login")
		return
	}

	prefix, arg, _ := strings.Cut(data, ":")
	switch prefix {
	case "books", "readers", "overdue", "sbooks", "sreaders":
		b.handlePageCallback(d, prefix, arg)
	case "book":
		b.handleBook(ctx, d, arg)
	case "reader":
		b.handleReader(ctx, d, arg)
	case "recent", "recent_rm", "recent_clear":
		b.handleRecentCallback(ctx, d, prefix, arg)
	case "ret":
		b.handleReturnCallback(ctx, d, arg)
	case "prol", "borrow", "redit", "bedit":
		b.handleDialogCallback(d, userID, prefix, arg)
	case "rstatus":
		b.handleStatusCallback(ctx, d, arg)
	case "lang":
		b.handleLanguage(ctx, d, arg)
	default:
		b.logger.Debug("Unknown callback", zap.String("data", data))
	}
}

func (b *Bot) state(userID int64) (*ConversationState, bool) {
	b.statesMu.RLock()
	defer b.statesMu.RUnlock()
	state, ok := b.states[userID]
	return state, ok
}

func (b *Bot) setState(userID int64, state *ConversationState) {
	b.statesMu.Lock()
	defer b.statesMu.Unlock()
	b.states[userID] = state
}

func (b *Bot) clearState(userID int64) {
	b.statesMu.Lock()
	defer b.statesMu.Unlock()
	delete(b.states, userID)
}
