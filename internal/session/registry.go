package session

import (
	"context"
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"go.uber.org/zap"

	"librarian/internal/metrics"
	"librarian/internal/storage"
)

// DefaultIdleTTL is how long an unused session stays in memory
const DefaultIdleTTL = 30 * time.Minute

// Registry keeps live sessions in memory and drops them after an idle period.
// A dropped session is reloaded from storage on next use.
type Registry struct {
	store  storage.Storage
	logger *zap.Logger
	cache  *ttlcache.Cache[string, *Session]

	loadMu sync.Mutex
}

// NewRegistry creates a registry with the given idle TTL
func NewRegistry(store storage.Storage, idleTTL time.Duration, logger *zap.Logger) *Registry {
	if idleTTL <= 0 {
		idleTTL = DefaultIdleTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	cache := ttlcache.New(ttlcache.WithTTL[string, *Session](idleTTL))
	cache.OnInsertion(func(context.Context, *ttlcache.Item[string, *Session]) {
		metrics.ActiveSessions.Inc()
	})
	cache.OnEviction(func(_ context.Context, reason ttlcache.EvictionReason, item *ttlcache.Item[string, *Session]) {
		metrics.ActiveSessions.Dec()
		logger.Debug("Session evicted", zap.String("profile", item.Key()), zap.Int("reason", int(reason)))
	})

	return &Registry{store: store, logger: logger, cache: cache}
}

// Get returns the live session of profile, loading it from storage if needed
func (r *Registry) Get(ctx context.Context, profile string) (*Session, error) {
	if item := r.cache.Get(profile); item != nil {
		return item.Value(), nil
	}

	r.loadMu.Lock()
	defer r.loadMu.Unlock()

	if item := r.cache.Get(profile); item != nil {
		return item.Value(), nil
	}

	s, err := Load(ctx, r.store, profile, r.logger)
	if err != nil {
		return nil, err
	}
	r.cache.Set(profile, s, ttlcache.DefaultTTL)
	return s, nil
}

// Len returns the number of live sessions
func (r *Registry) Len() int {
	return r.cache.Len()
}

// Start runs the expiry loop until Stop is called
func (r *Registry) Start() {
	r.cache.Start()
}

// Stop ends the expiry loop
func (r *Registry) Stop() {
	r.cache.Stop()
}
