package bot

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jellydator/ttlcache/v3"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"librarian/internal/browse"
	"librarian/internal/screens"
	"librarian/internal/session"
)

// DefaultDeskTTL is how long the screens of an idle chat stay in memory
const DefaultDeskTTL = 30 * time.Minute

// Options configure a Bot
type Options struct {
	Backend        BackendFactory
	Sessions       *session.Registry
	AllowedUserIDs []int64
	Screens        screens.Config
	DeskTTL        time.Duration
	Clock          browse.Clock
}

// NewBot creates a new Telegram bot
func NewBot(token string, opts Options, logger *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		logger.Error("Failed to create bot API", zap.Error(err))
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	logger.Info("Bot created", zap.String("bot_username", api.Self.UserName))
	return newBot(api, opts, logger), nil
}

func newBot(api *tgbotapi.BotAPI, opts Options, logger *zap.Logger) *Bot {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.DeskTTL <= 0 {
		opts.DeskTTL = DefaultDeskTTL
	}
	if opts.Clock == nil {
		opts.Clock = browse.SystemClock()
	}

	allowedUsers := make(map[int64]bool)
	for _, id := range opts.AllowedUserIDs {
		allowedUsers[id] = true
	}

	desks := ttlcache.New(ttlcache.WithTTL[int64, *chatDesk](opts.DeskTTL))
	desks.OnEviction(func(_ context.Context, _ ttlcache.EvictionReason, item *ttlcache.Item[int64, *chatDesk]) {
		logger.Debug("Desk evicted", zap.Int64("user_id", item.Key()))
	})

	return &Bot{
		api:          api,
		backend:      opts.Backend,
		sessions:     opts.Sessions,
		desks:        desks,
		screens:      opts.Screens.Merge(),
		clock:        opts.Clock,
		allowedUsers: allowedUsers,
		states:       make(map[int64]*ConversationState),
		policy:       bluemonday.StrictPolicy(),
		logger:       logger,
	}
}

// GetAPI returns the bot API for testing
func (b *Bot) GetAPI() *tgbotapi.BotAPI {
	return b.api
}
