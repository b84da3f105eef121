// Package cache implements the time-bounded generation result cache. Caching
// is an optimization, never a correctness requirement: every storage failure
// is logged and treated as a miss, a failed write never fails the generation
// it was caching.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/brickforge/brickforge/internal/hash"
	"github.com/brickforge/brickforge/internal/log"
	"github.com/brickforge/brickforge/internal/model"
	"github.com/brickforge/brickforge/internal/storage"
)

const defaultTTL = 7 * 24 * time.Hour

// ServiceConfig is the configuration for the cache service.
type ServiceConfig struct {
	Repository storage.CacheRepository
	// TTL is how long entries stay valid. Default: 7 days.
	TTL    time.Duration
	Logger log.Logger

	// TimeNow is the time source, for tests. Default: time.Now.
	TimeNow func() time.Time
}

func (c *ServiceConfig) defaults() error {
	if c.Repository == nil {
		return fmt.Errorf("repository is required")
	}
	if c.TTL == 0 {
		c.TTL = defaultTTL
	}
	if c.TimeNow == nil {
		c.TimeNow = time.Now
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "cache.Service"})
	return nil
}

// Service handles generation result caching with lazy TTL eviction.
type Service struct {
	repo    storage.CacheRepository
	ttl     time.Duration
	timeNow func() time.Time
	logger  log.Logger
}

// NewService creates a new cache service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		repo:    cfg.Repository,
		ttl:     cfg.TTL,
		timeNow: cfg.TimeNow,
		logger:  cfg.Logger,
	}, nil
}

// Lookup returns the cached generation result for a key, or nil on a miss.
// An expired entry is deleted on the way out and reported as a miss. There is
// no background sweep, eviction is lazy.
func (s *Service) Lookup(ctx context.Context, key string) *model.GenerationResult {
	entry, err := s.repo.GetCacheEntry(ctx, key)
	if err != nil {
		if !errors.Is(err, model.ErrNotFound) {
			s.logger.Warningf("Cache lookup for key %q failed: %s", hash.Short(key), err)
		}
		return nil
	}

	if s.timeNow().After(entry.ExpiresAt) {
		if err := s.repo.DeleteCacheEntry(ctx, entry.ID); err != nil {
			s.logger.Warningf("Could not evict expired cache entry %s: %s", entry.ID, err)
		}
		return nil
	}

	var result model.GenerationResult
	if err := json.Unmarshal([]byte(entry.Payload), &result); err != nil {
		s.logger.Warningf("Invalid cache payload for key %q: %s", hash.Short(key), err)
		return nil
	}

	s.logger.Debugf("Cache hit for key %q", hash.Short(key))
	return &result
}

// Insert caches a generation result under a key with the configured TTL.
// Failures are logged and swallowed.
func (s *Service) Insert(ctx context.Context, key string, result model.GenerationResult) {
	payload, err := json.Marshal(result)
	if err != nil {
		s.logger.Warningf("Could not marshal result for caching: %s", err)
		return
	}

	now := s.timeNow().UTC()
	entry := model.CacheEntry{
		Key:       key,
		Payload:   string(payload),
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}

	if err := s.repo.CreateCacheEntry(ctx, entry); err != nil {
		s.logger.Warningf("Could not cache result for key %q: %s", hash.Short(key), err)
		return
	}

	s.logger.Debugf("Cached result for key %q", hash.Short(key))
}
