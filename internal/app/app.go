package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"librarian/internal/api"
	"librarian/internal/bot"
	"librarian/internal/config"
	"librarian/internal/logging"
	"librarian/internal/session"
	"librarian/internal/storage"
	"librarian/internal/storage/ch"
	"librarian/internal/storage/sqlite"
	"librarian/internal/storage/stubs"
)

// App represents the application
type App struct {
	config   *config.Config
	logger   *zap.Logger
	db       storage.Storage
	client   *api.Client
	sessions *session.Registry
	bot      *bot.Bot
	server   *http.Server
}

// New creates and initializes a new application instance
func New() (*App, error) {
	// Load .env file if it exists
	envErr := godotenv.Load()

	// Load configuration from environment variables
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, err
	}
	if envErr != nil {
		logger.Info("No .env file found, using system environment variables")
	}

	app := &App{config: cfg, logger: logger}

	logger.Info("Starting Librarian bot...")

	// Initialize database
	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	if err := app.initClient(); err != nil {
		return nil, err
	}

	// Initialize bot
	if err := app.initBot(); err != nil {
		return nil, err
	}

	// Initialize HTTP server
	app.initHTTPServer()

	return app, nil
}

// OpenStorage connects to the configured backend and prepares its schema
func OpenStorage(ctx context.Context, cfg *config.Config, logger *zap.Logger) (storage.Storage, error) {
	var db storage.Storage
	switch cfg.StorageBackend {
	case config.StorageMemory:
		logger.Info("Using in-memory storage, preferences are lost on restart")
		db = stubs.NewMockDB()
	case config.StorageSQLite:
		logger.Info("Opening SQLite database", zap.String("path", cfg.SQLitePath))
		sqliteDB, err := sqlite.Open(cfg.SQLitePath, logger.Named("sqlite"))
		if err != nil {
			return nil, fmt.Errorf("failed to open SQLite database: %w", err)
		}
		db = sqliteDB
	default:
		logger.Info("Connecting to ClickHouse",
			zap.String("host", cfg.ClickHouseHost),
			zap.Int("port", cfg.ClickHousePort),
			zap.String("database", cfg.ClickHouseDatabase),
			zap.String("user", cfg.ClickHouseUser),
			zap.Bool("tls", cfg.ClickHouseUseTLS),
		)
		clickhouseDB, err := ch.NewClickHouseDB(
			cfg.ClickHouseHost,
			cfg.ClickHousePort,
			cfg.ClickHouseDatabase,
			cfg.ClickHouseUser,
			cfg.ClickHousePassword,
			cfg.ClickHouseUseTLS,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
		}
		db = clickhouseDB
	}

	if err := db.Initialize(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return db, nil
}

// NewClient creates the REST API client from the configuration
func NewClient(cfg *config.Config, logger *zap.Logger) (*api.Client, error) {
	client, err := api.NewClient(api.Options{
		BaseURL: cfg.APIURL,
		Timeout: cfg.APITimeout,
		RPS:     cfg.APIRPS,
		Burst:   cfg.APIBurst,
	}, logger.Named("api"))
	if err != nil {
		return nil, fmt.Errorf("failed to create API client: %w", err)
	}
	return client, nil
}

// initDatabase initializes the database connection
func (a *App) initDatabase() error {
	db, err := OpenStorage(context.Background(), a.config, a.logger)
	if err != nil {
		return err
	}
	a.logger.Info("Database initialized successfully", zap.String("backend", a.config.StorageBackend))

	a.db = db
	a.sessions = session.NewRegistry(db, a.config.SessionIdleTTL, a.logger.Named("sessions"))
	return nil
}

func (a *App) initClient() error {
	client, err := NewClient(a.config, a.logger)
	if err != nil {
		return err
	}
	a.logger.Info("Library API configured", zap.String("url", a.config.APIURL))
	a.client = client
	return nil
}

// initBot initializes the Telegram bot
func (a *App) initBot() error {
	telegramBot, err := bot.NewBot(a.config.TelegramToken, bot.Options{
		Backend: func(tokens api.TokenSource) bot.Backend {
			return a.client.WithTokenSource(tokens)
		},
		Sessions:       a.sessions,
		AllowedUserIDs: a.config.AllowedUserIDs,
		Screens:        a.config.Screens,
	}, a.logger.Named("bot"))
	if err != nil {
		return fmt.Errorf("failed to create Telegram bot: %w", err)
	}
	a.logger.Info("Bot created successfully", zap.Int64s("allowed_users", a.config.AllowedUserIDs))

	a.bot = telegramBot
	return nil
}

// initHTTPServer initializes the HTTP server for health checks, metrics, webhook and the Mini App API
func (a *App) initHTTPServer() {
	hs := bot.NewHTTPServer(a.bot, a.config.WebhookMode, a.config.MetricsEnabled)

	a.server = &http.Server{
		Addr:         hs.Addr(a.config.Port),
		Handler:      hs.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		ErrorLog:     zap.NewStdLog(a.logger.Named("http")),
	}

	// Start HTTP server in background
	go func() {
		a.logger.Info("Starting HTTP server", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("HTTP server error", zap.Error(err))
		}
	}()
}

// Run starts the application and blocks until shutdown
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go a.sessions.Start()
	go a.bot.StartDesks()

	// Start bot in appropriate mode
	if a.config.WebhookMode {
		// Webhook mode: configure webhook and wait for HTTP requests
		a.logger.Info("Starting bot in WEBHOOK mode", zap.String("url", a.config.WebhookURL))
		if err := a.bot.StartWebhook(a.config.WebhookURL); err != nil {
			return fmt.Errorf("failed to setup webhook: %w", err)
		}
		a.logger.Info("Webhook configured. Bot will receive updates via HTTP endpoint /telegram-webhook")
	} else {
		// Polling mode: actively poll Telegram servers
		go func() {
			if err := a.bot.Start(ctx); err != nil {
				a.logger.Error("Failed to start bot", zap.Error(err))
				stop()
			}
		}()
	}

	// Wait for interrupt signal
	<-ctx.Done()

	a.logger.Info("Shutting down...")
	return a.Shutdown()
}

// Shutdown gracefully shuts down the application
func (a *App) Shutdown() error {
	defer func() { _ = a.logger.Sync() }()

	// Shutdown HTTP server gracefully
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.logger.Warn("HTTP server shutdown error", zap.Error(err))
	}

	a.bot.StopDesks()
	a.sessions.Stop()

	// Close database
	if err := a.db.Close(); err != nil {
		a.logger.Error("Error closing database", zap.Error(err))
		return err
	}

	a.logger.Info("Shutdown complete")
	return nil
}
