// Package firstbuild tracks whether the user has ever completed a build.
// First builds get a simpler model so the initial experience is a success.
package firstbuild

import (
	"context"
	"fmt"

	"github.com/brickforge/brickforge/internal/log"
	"github.com/brickforge/brickforge/internal/model"
	"github.com/brickforge/brickforge/internal/storage"
)

const prefKey = "isFirstBuild"

// ServiceConfig is the configuration for the first-build service.
type ServiceConfig struct {
	Repository storage.PreferenceRepository
	Logger     log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Repository == nil {
		return fmt.Errorf("repository is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "firstbuild.Service"})
	return nil
}

// Service decides when the first-build simplification applies.
type Service struct {
	repo   storage.PreferenceRepository
	logger log.Logger
}

// NewService creates a new first-build service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		repo:   cfg.Repository,
		logger: cfg.Logger,
	}, nil
}

// IsFirstBuild reports whether the user has yet to complete a build. When the
// preference is missing or unreadable we assume a first build, the worst case
// is one extra simple model.
func (s *Service) IsFirstBuild(ctx context.Context) bool {
	pref, err := s.repo.GetPreference(ctx, prefKey)
	if err != nil {
		return true
	}

	return pref.Value != "false"
}

// MarkComplete records that a build has finished so later generations use the
// regular complexity.
func (s *Service) MarkComplete(ctx context.Context) error {
	err := s.repo.SetPreference(ctx, model.Preference{Key: prefKey, Value: "false"})
	if err != nil {
		return fmt.Errorf("could not store first build preference: %w", err)
	}

	s.logger.Debugf("First build marked complete")
	return nil
}
