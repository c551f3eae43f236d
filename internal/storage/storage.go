package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a key was never stored or has been deleted
var ErrNotFound = errors.New("key not found")

// Storage is durable key-value storage scoped by profile.
// A profile is a Telegram user id or a console profile name.
type Storage interface {
	// Get returns the value stored under key, or ErrNotFound
	Get(ctx context.Context, profile, key string) (string, error)
	// Set overwrites the value stored under key
	Set(ctx context.Context, profile, key, value string) error
	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, profile, key string) error
	// All returns every key of a profile, used to load a session once
	All(ctx context.Context, profile string) (map[string]string, error)

	// Lifecycle
	Initialize(ctx context.Context) error
	Close() error
}
