package main

import (
	"context"
	"os"
	"strconv"

	"github.com/testcontainers/testcontainers-go/modules/clickhouse"
	"go.uber.org/zap"

	"librarian/internal/app"
	"librarian/internal/logging"
	"librarian/internal/storage/ch"
)

const devPassword = "devpassword"

func main() {
	logger, err := logging.New("debug", "console")
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(logger); err != nil {
		logger.Fatal("Development run failed", zap.Error(err))
	}
}

func run(logger *zap.Logger) error {
	ctx := context.Background()

	logger.Info("Starting ClickHouse testcontainer...")

	// Start ClickHouse container
	clickhouseContainer, err := clickhouse.Run(ctx,
		"clickhouse/clickhouse-server:24.3.3.102-alpine",
		clickhouse.WithUsername("default"),
		clickhouse.WithPassword(devPassword),
		clickhouse.WithDatabase("default"),
	)
	if err != nil {
		return err
	}

	// Ensure container cleanup on exit
	defer func() {
		logger.Info("Stopping ClickHouse container...")
		if err := clickhouseContainer.Terminate(ctx); err != nil {
			logger.Warn("Failed to terminate container", zap.Error(err))
		}
	}()

	// Get connection details
	host, err := clickhouseContainer.Host(ctx)
	if err != nil {
		return err
	}
	port, err := clickhouseContainer.MappedPort(ctx, "9000/tcp")
	if err != nil {
		return err
	}
	logger.Info("ClickHouse started", zap.String("host", host), zap.String("port", port.Port()))

	results, err := ch.Migrate(ctx, ch.DSN(host, port.Int(), "default", "default", devPassword, false))
	if err != nil {
		return err
	}
	logger.Info("Migrations applied", zap.Int("count", len(results)))

	// Set environment variables for the application
	env := map[string]string{
		"CLICKHOUSE_HOST":     host,
		"CLICKHOUSE_PORT":     strconv.Itoa(port.Int()),
		"CLICKHOUSE_DATABASE": "default",
		"CLICKHOUSE_USER":     "default",
		"CLICKHOUSE_PASSWORD": devPassword,
		"CLICKHOUSE_USE_TLS":  "false",
		"STORAGE_BACKEND":     "clickhouse",
		"USE_MOCK_DB":         "false",
		"WEBHOOK_MODE":        "false",
		"LOG_FORMAT":          "console",
	}
	for k, v := range env {
		if err := os.Setenv(k, v); err != nil {
			return err
		}
	}

	// Set PORT for HTTP server if not already set
	if os.Getenv("PORT") == "" {
		_ = os.Setenv("PORT", "8080")
	}

	if os.Getenv("TELEGRAM_BOT_TOKEN") == "" {
		logger.Warn("TELEGRAM_BOT_TOKEN not set. Please set it in your .env file or environment. The bot will fail to start without a valid token.")
	}
	if os.Getenv("ALLOWED_USER_IDS") == "" {
		logger.Warn("ALLOWED_USER_IDS not set. Please set it in your .env file or environment.")
	}
	if os.Getenv("LIBRARY_API_URL") == "" {
		logger.Warn("LIBRARY_API_URL not set, defaulting to http://localhost:8081")
		_ = os.Setenv("LIBRARY_API_URL", "http://localhost:8081")
	}

	logger.Info("Starting application with ClickHouse backend...")

	// Create and initialize application
	application, err := app.New()
	if err != nil {
		return err
	}

	// Run blocks until SIGINT or SIGTERM
	return application.Run()
}
