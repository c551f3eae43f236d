package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"librarian/internal/storage"
	"librarian/migrations"
)

const (
	tablePreferences = "preferences"
	colProfile       = "profile"
	colKey           = "key"
	colValue         = "value"
	colUpdatedAt     = "updated_at"
)

// DB stores preferences in a local SQLite file
type DB struct {
	db      *sql.DB
	dialect goqu.DialectWrapper
	logger  *zap.Logger
	now     func() time.Time
}

// Open opens (or creates) the database at path. Use ":memory:" for a throwaway database.
func Open(path string, logger *zap.Logger) (*DB, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	// a single connection keeps ":memory:" databases alive and serializes writers
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	return &DB{
		db:      db,
		dialect: goqu.Dialect("sqlite3"),
		logger:  logger,
		now:     time.Now,
	}, nil
}

// Initialize applies the embedded migrations
func (s *DB) Initialize(ctx context.Context) error {
	provider, err := goose.NewProvider(goose.DialectSQLite3, s.db, migrations.SQLite())
	if err != nil {
		return fmt.Errorf("failed to create migration provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	for _, r := range results {
		s.logger.Info("Applied migration",
			zap.String("source", r.Source.Path),
			zap.Duration("duration", r.Duration))
	}
	return nil
}

// Get returns the value of key or storage.ErrNotFound
func (s *DB) Get(ctx context.Context, profile, key string) (string, error) {
	query, args, err := s.dialect.
		From(tablePreferences).
		Prepared(true).
		Select(colValue).
		Where(goqu.Ex{colProfile: profile, colKey: key}).
		ToSQL()
	if err != nil {
		return "", fmt.Errorf("failed to build query: %w", err)
	}

	var value string
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", storage.ErrNotFound
		}
		return "", fmt.Errorf("failed to get preference: %w", err)
	}
	return value, nil
}

// Set upserts key
func (s *DB) Set(ctx context.Context, profile, key, value string) error {
	query, args, err := s.dialect.
		Insert(tablePreferences).
		Prepared(true).
		Rows(goqu.Record{
			colProfile:   profile,
			colKey:       key,
			colValue:     value,
			colUpdatedAt: s.now().UTC(),
		}).
		OnConflict(goqu.DoUpdate(colProfile+", "+colKey, goqu.Record{
			colValue:     goqu.I("excluded." + colValue),
			colUpdatedAt: goqu.I("excluded." + colUpdatedAt),
		})).
		ToSQL()
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to set preference: %w", err)
	}
	return nil
}

// Delete removes key
func (s *DB) Delete(ctx context.Context, profile, key string) error {
	query, args, err := s.dialect.
		Delete(tablePreferences).
		Prepared(true).
		Where(goqu.Ex{colProfile: profile, colKey: key}).
		ToSQL()
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to delete preference: %w", err)
	}
	return nil
}

// All returns every key of a profile
func (s *DB) All(ctx context.Context, profile string) (map[string]string, error) {
	query, args, err := s.dialect.
		From(tablePreferences).
		Prepared(true).
		Select(colKey, colValue).
		Where(goqu.Ex{colProfile: profile}).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list preferences: %w", err)
	}
	defer rows.Close()

	prefs := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan preference: %w", err)
		}
		prefs[key] = value
	}
	return prefs, rows.Err()
}

// Close closes the database
func (s *DB) Close() error {
	return s.db.Close()
}

var _ storage.Storage = (*DB)(nil)
