package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/peterh/liner"
	"go.uber.org/zap"

	"librarian/internal/app"
	"librarian/internal/config"
	"librarian/internal/console"
	"librarian/internal/logging"
	"librarian/internal/session"
)

const historyFile = ".librarian_history"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run() error {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg, err := config.LoadConsoleFromEnv()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// keep the terminal clean unless asked otherwise
	level := cfg.LogLevel
	if os.Getenv("LOG_LEVEL") == "" {
		level = "warn"
	}
	logger, err := logging.New(level, "console")
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	db, err := app.OpenStorage(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	client, err := app.NewClient(cfg, logger)
	if err != nil {
		return err
	}

	profile := getEnv("CONSOLE_PROFILE", "console")
	sess, err := session.Load(ctx, db, profile, logger.Named("session"))
	if err != nil {
		return err
	}

	c := console.New(client.WithTokenSource(sess), sess, console.Options{
		Screens: cfg.Screens,
		Out:     os.Stdout,
	}, logger.Named("console"))

	// One-shot mode: librarian-console search tolkien
	if len(os.Args) > 1 {
		err := c.Execute(ctx, strings.Join(os.Args[1:], " "))
		if errors.Is(err, console.ErrQuit) {
			return nil
		}
		return err
	}

	return repl(ctx, c, logger)
}

func repl(ctx context.Context, c *console.Console, logger *zap.Logger) error {
	line := liner.NewLiner()
	defer line.Close()

	line.SetCtrlCAborts(true)
	line.SetCompleter(func(input string) []string {
		var matches []string
		for _, cmd := range console.Commands {
			if strings.HasPrefix(cmd, strings.ToLower(input)) {
				matches = append(matches, cmd)
			}
		}
		return matches
	})

	history := historyPath()
	if f, err := os.Open(history); err == nil {
		if _, err := line.ReadHistory(f); err != nil {
			logger.Warn("Failed to read history", zap.Error(err))
		}
		f.Close()
	}
	defer func() {
		f, err := os.Create(history)
		if err != nil {
			logger.Warn("Failed to write history", zap.Error(err))
			return
		}
		defer f.Close()
		if _, err := line.WriteHistory(f); err != nil {
			logger.Warn("Failed to write history", zap.Error(err))
		}
	}()

	fmt.Println("Librarian console. Type help for the list of commands.")
	for {
		input, err := line.Prompt(c.Prompt())
		if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)

		err = c.Execute(ctx, input)
		if errors.Is(err, console.ErrQuit) {
			return nil
		}
		if err != nil {
			fmt.Println("Error:", err)
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

func historyPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return historyFile
	}
	return filepath.Join(home, historyFile)
}

// getEnv retrieves environment variable or returns default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
