package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"librarian/internal/screens"
)

// Storage backends
const (
	StorageClickHouse = "clickhouse"
	StorageSQLite     = "sqlite"
	StorageMemory     = "memory"
)

// Config holds the application configuration
type Config struct {
	TelegramToken  string
	AllowedUserIDs []int64

	// Bot mode configuration
	WebhookMode bool   // If true, use webhook mode; if false, use polling mode
	WebhookURL  string // URL for webhook (required if WebhookMode is true)
	Port        string

	// Library REST API
	APIURL     string
	APITimeout time.Duration
	APIRPS     float64
	APIBurst   int

	// Durable storage
	StorageBackend string
	SQLitePath     string

	// ClickHouse configuration
	ClickHouseHost     string
	ClickHousePort     int
	ClickHouseDatabase string
	ClickHouseUser     string
	ClickHousePassword string
	ClickHouseUseTLS   bool

	SessionIdleTTL time.Duration

	LogLevel       string
	LogFormat      string
	MetricsEnabled bool

	Screens screens.Config
}

// LoadFromEnv loads the bot configuration from environment variables
func LoadFromEnv() (*Config, error) {
	config := &Config{}

	// Telegram Bot Token (required)
	config.TelegramToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	if config.TelegramToken == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}

	// Allowed User IDs (required)
	allowedIDsStr := os.Getenv("ALLOWED_USER_IDS")
	if allowedIDsStr == "" {
		return nil, fmt.Errorf("ALLOWED_USER_IDS is required (comma-separated list of Telegram user IDs)")
	}

	idStrs := strings.Split(allowedIDsStr, ",")
	for _, idStr := range idStrs {
		id, err := strconv.ParseInt(strings.TrimSpace(idStr), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid user ID in ALLOWED_USER_IDS: %s", idStr)
		}
		config.AllowedUserIDs = append(config.AllowedUserIDs, id)
	}

	// Bot mode configuration
	config.WebhookMode = os.Getenv("WEBHOOK_MODE") == "true"
	if config.WebhookMode {
		config.WebhookURL = os.Getenv("WEBHOOK_URL")
		if config.WebhookURL == "" {
			return nil, fmt.Errorf("WEBHOOK_URL is required when WEBHOOK_MODE is true")
		}
	}

	config.Port = getEnv("PORT", "8080")
	config.MetricsEnabled = getEnv("METRICS_ENABLED", "true") == "true"

	if err := loadCommon(config, StorageClickHouse); err != nil {
		return nil, err
	}
	return config, nil
}

// LoadConsoleFromEnv loads the configuration of the terminal console.
// Telegram settings are not needed and storage defaults to a local SQLite file.
func LoadConsoleFromEnv() (*Config, error) {
	config := &Config{}
	if err := loadCommon(config, StorageSQLite); err != nil {
		return nil, err
	}
	return config, nil
}

func loadCommon(config *Config, defaultBackend string) error {
	// Library API (required)
	config.APIURL = os.Getenv("LIBRARY_API_URL")
	if config.APIURL == "" {
		return fmt.Errorf("LIBRARY_API_URL is required")
	}

	var err error
	if config.APITimeout, err = getDuration("LIBRARY_API_TIMEOUT", 30*time.Second); err != nil {
		return err
	}
	if config.APIRPS, err = strconv.ParseFloat(getEnv("LIBRARY_API_RPS", "10"), 64); err != nil {
		return fmt.Errorf("invalid LIBRARY_API_RPS: %w", err)
	}
	if config.APIBurst, err = strconv.Atoi(getEnv("LIBRARY_API_BURST", "20")); err != nil {
		return fmt.Errorf("invalid LIBRARY_API_BURST: %w", err)
	}
	if config.SessionIdleTTL, err = getDuration("SESSION_IDLE_TTL", 30*time.Minute); err != nil {
		return err
	}

	config.LogLevel = getEnv("LOG_LEVEL", "info")
	config.LogFormat = getEnv("LOG_FORMAT", "json")
	if config.LogFormat != "json" && config.LogFormat != "console" {
		return fmt.Errorf("invalid LOG_FORMAT %q: expected json or console", config.LogFormat)
	}

	// USE_MOCK_DB is kept as an alias of STORAGE_BACKEND=memory
	config.StorageBackend = getEnv("STORAGE_BACKEND", defaultBackend)
	if os.Getenv("USE_MOCK_DB") == "true" {
		config.StorageBackend = StorageMemory
	}

	switch config.StorageBackend {
	case StorageMemory:
	case StorageSQLite:
		config.SQLitePath = getEnv("SQLITE_PATH", "librarian.db")
	case StorageClickHouse:
		if err := loadClickHouse(config); err != nil {
			return err
		}
	default:
		return fmt.Errorf("invalid STORAGE_BACKEND %q: expected clickhouse, sqlite or memory", config.StorageBackend)
	}

	config.Screens = screens.DefaultConfig()
	if path := os.Getenv("SCREENS_CONFIG"); path != "" {
		sc, err := LoadScreens(path)
		if err != nil {
			return err
		}
		config.Screens = sc
	}
	return nil
}

func loadClickHouse(config *Config) error {
	config.ClickHouseHost = os.Getenv("CLICKHOUSE_HOST")
	if config.ClickHouseHost == "" {
		return fmt.Errorf("CLICKHOUSE_HOST is required when STORAGE_BACKEND is clickhouse")
	}

	portStr := os.Getenv("CLICKHOUSE_PORT")
	if portStr == "" {
		config.ClickHousePort = 9000 // Default ClickHouse native port
	} else {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return fmt.Errorf("invalid CLICKHOUSE_PORT: %w", err)
		}
		config.ClickHousePort = port
	}

	config.ClickHouseDatabase = getEnv("CLICKHOUSE_DATABASE", "default")
	config.ClickHouseUser = getEnv("CLICKHOUSE_USER", "default")
	// Password is optional, can be empty
	config.ClickHousePassword = os.Getenv("CLICKHOUSE_PASSWORD")
	config.ClickHouseUseTLS = os.Getenv("CLICKHOUSE_USE_TLS") == "true"
	return nil
}

// LoadScreens reads per-screen page sizes and quiet windows from a YAML file.
// Screens missing from the file keep their defaults.
func LoadScreens(path string) (screens.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return screens.Config{}, fmt.Errorf("failed to read screens config: %w", err)
	}

	cfg := screens.DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return screens.Config{}, fmt.Errorf("failed to parse screens config %s: %w", path, err)
	}
	for name, sc := range map[string]screens.ScreenConfig{
		"books": cfg.Books, "readers": cfg.Readers, "search": cfg.Search, "delays": cfg.Delays,
	} {
		if sc.PageSize < 1 {
			return screens.Config{}, fmt.Errorf("screens config %s: %s.page_size must be positive", path, name)
		}
		if sc.Debounce < 0 {
			return screens.Config{}, fmt.Errorf("screens config %s: %s.debounce must not be negative", path, name)
		}
	}
	return cfg, nil
}

// getEnv retrieves environment variable or returns default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
