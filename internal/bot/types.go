package bot

import (
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jellydator/ttlcache/v3"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"librarian/internal/api"
	"librarian/internal/browse"
	"librarian/internal/screens"
	"librarian/internal/session"
)

// Backend is the library REST API as seen by one signed-in librarian
type Backend interface {
	screens.Library
	screens.Authenticator
}

// BackendFactory binds the API to the token of a session
type BackendFactory func(tokens api.TokenSource) Backend

// Bot represents the Telegram bot wrapper
type Bot struct {
	api          *tgbotapi.BotAPI
	backend      BackendFactory
	sessions     *session.Registry
	desks        *ttlcache.Cache[int64, *chatDesk]
	desksMu      sync.Mutex
	screens      screens.Config
	clock        browse.Clock
	allowedUsers map[int64]bool
	states       map[int64]*ConversationState
	statesMu     sync.RWMutex
	policy       *bluemonday.Policy
	logger       *zap.Logger

	// messages are kept here instead of being sent when api is nil
	outbox   []Outgoing
	outboxMu sync.Mutex
}

// ConversationState tracks the state of multi-step commands
type ConversationState struct {
	Command string
	Step    int
	Target  int64 // borrowing, reader or book the answer applies to
}

// Outgoing is a message the bot sends to a chat
type Outgoing struct {
	ChatID   int64
	Text     string
	Keyboard *tgbotapi.InlineKeyboardMarkup
}
