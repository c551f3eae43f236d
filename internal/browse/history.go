package browse

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
)

// HistoryCap is the maximum number of recent searches kept
const HistoryCap = 5

// ErrNotStored is returned by a Persister when nothing was saved yet
var ErrNotStored = errors.New("history not stored")

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// RecentSearch is one remembered query with the number of hits it produced
type RecentSearch struct {
	Query    string `json:"query"`
	HitCount int    `json:"hitCount"`
}

// Persister stores the serialized history of one profile
type Persister interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, data string) error
	Remove(ctx context.Context) error
}

// History is the capped, deduplicated, most-recent-first list of past searches
type History struct {
	store  Persister
	logger *zap.Logger

	mu      sync.Mutex
	entries []RecentSearch
}

// NewHistory creates an empty history backed by store
func NewHistory(store Persister, logger *zap.Logger) *History {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &History{store: store, logger: logger}
}

// Load reads the persisted history. Missing or malformed data yields an empty history;
// storage failures are logged and never returned.
func (h *History) Load(ctx context.Context) []RecentSearch {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.entries = nil
	raw, err := h.store.Load(ctx)
	if err != nil {
		if !errors.Is(err, ErrNotStored) {
			h.logger.Warn("failed to load search history", zap.Error(err))
		}
		return h.copyLocked()
	}
	if strings.TrimSpace(raw) == "" {
		return h.copyLocked()
	}

	var stored []RecentSearch
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		h.logger.Warn("discarding malformed search history", zap.Error(err))
		return h.copyLocked()
	}

	for _, e := range stored {
		if strings.TrimSpace(e.Query) == "" || h.indexLocked(e.Query) >= 0 {
			continue
		}
		h.entries = append(h.entries, e)
		if len(h.entries) == HistoryCap {
			break
		}
	}
	return h.copyLocked()
}

// Record moves query to the front with its latest hit count, dropping the oldest entry past the cap
func (h *History) Record(ctx context.Context, query string, hitCount int) error {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if i := h.indexLocked(query); i >= 0 {
		h.entries = append(h.entries[:i], h.entries[i+1:]...)
	}
	h.entries = append([]RecentSearch{{Query: query, HitCount: hitCount}}, h.entries...)
	if len(h.entries) > HistoryCap {
		h.entries = h.entries[:HistoryCap]
	}
	return h.saveLocked(ctx)
}

// Remove deletes one query from the history
func (h *History) Remove(ctx context.Context, query string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	i := h.indexLocked(strings.TrimSpace(query))
	if i < 0 {
		return nil
	}
	h.entries = append(h.entries[:i], h.entries[i+1:]...)
	return h.saveLocked(ctx)
}

// Clear empties the history and removes the stored key
func (h *History) Clear(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.entries = nil
	if err := h.store.Remove(ctx); err != nil {
		return fmt.Errorf("failed to clear search history: %w", err)
	}
	return nil
}

// Entries returns the history, most recent first
func (h *History) Entries() []RecentSearch {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.copyLocked()
}

func (h *History) indexLocked(query string) int {
	for i, e := range h.entries {
		if e.Query == query {
			return i
		}
	}
	return -1
}

func (h *History) copyLocked() []RecentSearch {
	out := make([]RecentSearch, len(h.entries))
	copy(out, h.entries)
	return out
}

func (h *History) saveLocked(ctx context.Context) error {
	data, err := json.Marshal(h.entries)
	if err != nil {
		return fmt.Errorf("failed to encode search history: %w", err)
	}
	if err := h.store.Save(ctx, string(data)); err != nil {
		return fmt.Errorf("failed to save search history: %w", err)
	}
	return nil
}
