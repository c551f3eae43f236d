package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"go.uber.org/zap"

	"librarian/internal/browse"
	"librarian/internal/models"
	"librarian/internal/storage"
)

// Durable storage keys
const (
	KeyToken          = "token"
	KeyUserID         = "id"
	KeyDarkMode       = "dark-mode"
	KeyLanguage       = "language"
	KeyRecentSearches = "recentSearches"
)

// Session is the application context of one profile: the signed-in token and the user's preferences.
// Values are loaded once when the session starts and every write goes straight to storage.
type Session struct {
	profile string
	store   storage.Storage
	logger  *zap.Logger

	mu     sync.RWMutex
	values map[string]string

	history *browse.History
}

// Load reads every stored key of profile
func Load(ctx context.Context, store storage.Storage, profile string, logger *zap.Logger) (*Session, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	values, err := store.All(ctx, profile)
	if err != nil {
		return nil, fmt.Errorf("failed to load session %s: %w", profile, err)
	}
	if values == nil {
		values = make(map[string]string)
	}

	s := &Session{
		profile: profile,
		store:   store,
		logger:  logger.With(zap.String("profile", profile)),
		values:  values,
	}
	s.history = browse.NewHistory(historyStore{s}, s.logger)
	s.history.Load(ctx)
	return s, nil
}

// Profile returns the profile name
func (s *Session) Profile() string {
	return s.profile
}

// Token returns the bearer token, or "" when signed out
func (s *Session) Token() string {
	return s.value(KeyToken)
}

// SignedIn reports whether a token is present
func (s *Session) SignedIn() bool {
	return s.Token() != ""
}

// UserID returns the id of the signed-in librarian, or 0
func (s *Session) UserID() int64 {
	id, err := strconv.ParseInt(s.value(KeyUserID), 10, 64)
	if err != nil {
		return 0
	}
	return id
}

// Login stores the token and user id returned by the login endpoint
func (s *Session) Login(ctx context.Context, res models.LoginResult) error {
	if res.Token == "" {
		return errors.New("login returned an empty token")
	}
	if err := s.set(ctx, KeyToken, res.Token); err != nil {
		return err
	}
	if res.UserID != 0 {
		if err := s.set(ctx, KeyUserID, strconv.FormatInt(res.UserID, 10)); err != nil {
			return err
		}
	}
	s.logger.Info("Signed in", zap.Int64("user_id", res.UserID))
	return nil
}

// Logout removes the token and user id. Preferences and history are kept.
func (s *Session) Logout(ctx context.Context) error {
	if err := s.delete(ctx, KeyToken); err != nil {
		return err
	}
	if err := s.delete(ctx, KeyUserID); err != nil {
		return err
	}
	s.logger.Info("Signed out")
	return nil
}

// DarkMode returns the stored theme preference
func (s *Session) DarkMode() bool {
	v, _ := strconv.ParseBool(s.value(KeyDarkMode))
	return v
}

// SetDarkMode stores the theme preference
func (s *Session) SetDarkMode(ctx context.Context, on bool) error {
	return s.set(ctx, KeyDarkMode, strconv.FormatBool(on))
}

// Language returns the stored language tag, or ""
func (s *Session) Language() string {
	return s.value(KeyLanguage)
}

// SetLanguage stores the language tag
func (s *Session) SetLanguage(ctx context.Context, tag string) error {
	return s.set(ctx, KeyLanguage, tag)
}

// History returns the recent searches of this profile
func (s *Session) History() *browse.History {
	return s.history
}

// Preferences returns the user-visible settings
func (s *Session) Preferences() Preferences {
	return Preferences{DarkMode: s.DarkMode(), Language: s.Language()}
}

// Preferences are the settings exposed to front ends
type Preferences struct {
	DarkMode bool   `json:"darkMode"`
	Language string `json:"language"`
}

func (s *Session) value(key string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values[key]
}

func (s *Session) set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Set(ctx, s.profile, key, value); err != nil {
		return fmt.Errorf("failed to store %s: %w", key, err)
	}
	s.values[key] = value
	return nil
}

func (s *Session) delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Delete(ctx, s.profile, key); err != nil {
		return fmt.Errorf("failed to remove %s: %w", key, err)
	}
	delete(s.values, key)
	return nil
}

// historyStore persists the search history under KeyRecentSearches
type historyStore struct {
	s *Session
}

func (h historyStore) Load(context.Context) (string, error) {
	h.s.mu.RLock()
	defer h.s.mu.RUnlock()

	v, ok := h.s.values[KeyRecentSearches]
	if !ok {
		return "", browse.ErrNotStored
	}
	return v, nil
}

func (h historyStore) Save(ctx context.Context, data string) error {
	return h.s.set(ctx, KeyRecentSearches, data)
}

func (h historyStore) Remove(ctx context.Context) error {
	return h.s.delete(ctx, KeyRecentSearches)
}
