package ch

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"

	"librarian/internal/storage"
)

type ClickHouseDB struct {
	conn clickhouse.Conn
	now  func() time.Time
}

// NewClickHouseDB creates a new ClickHouse database connection
func NewClickHouseDB(host string, port int, database, user, password string, useTLS bool) (*ClickHouseDB, error) {
	addr := fmt.Sprintf("%s:%d", host, port)

	options := &clickhouse.Options{
		Addr:     []string{addr},
		Protocol: clickhouse.Native,
		Auth: clickhouse.Auth{
			Database: database,
			Username: user,
			Password: password,
		},
	}

	if useTLS {
		options.TLS = &tls.Config{
			InsecureSkipVerify: false,
		}
	}

	conn, err := clickhouse.Open(options)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	if err := conn.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	return &ClickHouseDB{conn: conn, now: time.Now}, nil
}

// Initialize is a no-op - tables are managed via migrations (cmd/migrate)
func (db *ClickHouseDB) Initialize(ctx context.Context) error {
	return nil
}

// Get returns the latest live value of key.
// Rows are append-only; the newest version wins and a tombstone hides the key.
func (db *ClickHouseDB) Get(ctx context.Context, profile, key string) (string, error) {
	rows, err := db.conn.Query(ctx, `
		SELECT argMax(value, updated_at), argMax(deleted, updated_at)
		FROM preferences
		WHERE profile = ? AND key = ?
		GROUP BY profile, key`, profile, key)
	if err != nil {
		return "", fmt.Errorf("failed to get preference: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return "", fmt.Errorf("failed to get preference: %w", err)
		}
		return "", storage.ErrNotFound
	}

	var (
		value   string
		deleted uint8
	)
	if err := rows.Scan(&value, &deleted); err != nil {
		return "", fmt.Errorf("failed to scan preference: %w", err)
	}
	if deleted != 0 {
		return "", storage.ErrNotFound
	}
	return value, nil
}

// Set stores a new version of key
func (db *ClickHouseDB) Set(ctx context.Context, profile, key, value string) error {
	err := db.conn.Exec(ctx, `INSERT INTO preferences (profile, key, value, deleted, updated_at) VALUES (?, ?, ?, ?, ?)`,
		profile, key, value, uint8(0), db.now().UTC())
	if err != nil {
		return fmt.Errorf("failed to set preference: %w", err)
	}
	return nil
}

// Delete writes a tombstone for key
func (db *ClickHouseDB) Delete(ctx context.Context, profile, key string) error {
	err := db.conn.Exec(ctx, `INSERT INTO preferences (profile, key, value, deleted, updated_at) VALUES (?, ?, ?, ?, ?)`,
		profile, key, "", uint8(1), db.now().UTC())
	if err != nil {
		return fmt.Errorf("failed to delete preference: %w", err)
	}
	return nil
}

// All returns every live key of a profile
func (db *ClickHouseDB) All(ctx context.Context, profile string) (map[string]string, error) {
	rows, err := db.conn.Query(ctx, `
		SELECT key, argMax(value, updated_at) AS v, argMax(deleted, updated_at) AS d
		FROM preferences
		WHERE profile = ?
		GROUP BY key
		HAVING d = 0`, profile)
	if err != nil {
		return nil, fmt.Errorf("failed to list preferences: %w", err)
	}
	defer rows.Close()

	prefs := make(map[string]string)
	for rows.Next() {
		var (
			key, value string
			deleted    uint8
		)
		if err := rows.Scan(&key, &value, &deleted); err != nil {
			return nil, fmt.Errorf("failed to scan preference: %w", err)
		}
		prefs[key] = value
	}
	return prefs, rows.Err()
}

// Close closes the database connection
func (db *ClickHouseDB) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}
