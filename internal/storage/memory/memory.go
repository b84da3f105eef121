package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/oklog/ulid/v2"

	"github.com/brickforge/brickforge/internal/log"
	"github.com/brickforge/brickforge/internal/model"
)

// RepositoryConfig is the configuration for the memory repository.
type RepositoryConfig struct {
	Logger log.Logger
}

func (c *RepositoryConfig) defaults() error {
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "storage.Memory"})
	return nil
}

// Repository is an in-memory implementation of storage.Repository.
type Repository struct {
	cacheByKey  map[string]model.CacheEntry
	preferences map[string]string
	session     *model.DurableSession
	mu          sync.RWMutex
	logger      log.Logger
}

// NewRepository creates a new memory repository.
func NewRepository(cfg RepositoryConfig) (*Repository, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Repository{
		cacheByKey:  make(map[string]model.CacheEntry),
		preferences: make(map[string]string),
		logger:      cfg.Logger,
	}, nil
}

// GetCacheEntry retrieves a cache entry by its cache key.
func (r *Repository) GetCacheEntry(ctx context.Context, key string) (*model.CacheEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.cacheByKey[key]
	if !ok {
		return nil, fmt.Errorf("cache entry for key %q: %w", key, model.ErrNotFound)
	}

	entryCopy := entry
	return &entryCopy, nil
}

// CreateCacheEntry persists a cache entry, replacing any previous entry for
// the same key.
func (r *Repository) CreateCacheEntry(ctx context.Context, e model.CacheEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e.ID == "" {
		e.ID = ulid.Make().String()
	}
	r.cacheByKey[e.Key] = e

	r.logger.Debugf("Created cache entry %s for key %q", e.ID, e.Key)
	return nil
}

// DeleteCacheEntry deletes a cache entry by ID.
func (r *Repository) DeleteCacheEntry(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for key, entry := range r.cacheByKey {
		if entry.ID == id {
			delete(r.cacheByKey, key)
			return nil
		}
	}

	return fmt.Errorf("cache entry %s: %w", id, model.ErrNotFound)
}

// GetPreference retrieves a preference by key.
func (r *Repository) GetPreference(ctx context.Context, key string) (*model.Preference, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	value, ok := r.preferences[key]
	if !ok {
		return nil, fmt.Errorf("preference %q: %w", key, model.ErrNotFound)
	}

	return &model.Preference{Key: key, Value: value}, nil
}

// SetPreference creates or updates a preference.
func (r *Repository) SetPreference(ctx context.Context, p model.Preference) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.preferences[p.Key] = p.Value
	return nil
}

// GetSession retrieves the durable session.
func (r *Repository) GetSession(ctx context.Context) (*model.DurableSession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.session == nil {
		return nil, fmt.Errorf("durable session: %w", model.ErrNotFound)
	}

	sessionCopy := *r.session
	return &sessionCopy, nil
}

// SaveSession creates or replaces the durable session.
func (r *Repository) SaveSession(ctx context.Context, s model.DurableSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.session = &s
	return nil
}

// DeleteSession removes the durable session.
func (r *Repository) DeleteSession(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.session = nil
	return nil
}
