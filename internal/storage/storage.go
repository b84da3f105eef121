package storage

import (
	"context"

	"github.com/brickforge/brickforge/internal/model"
)

// CacheRepository is the interface for generation cache entry persistence.
type CacheRepository interface {
	GetCacheEntry(ctx context.Context, key string) (*model.CacheEntry, error)
	CreateCacheEntry(ctx context.Context, e model.CacheEntry) error
	DeleteCacheEntry(ctx context.Context, id string) error
}

// PreferenceRepository is the interface for unique-key user preferences.
type PreferenceRepository interface {
	GetPreference(ctx context.Context, key string) (*model.Preference, error)
	SetPreference(ctx context.Context, p model.Preference) error
}

// SessionRepository is the interface for the durable session singleton.
type SessionRepository interface {
	GetSession(ctx context.Context) (*model.DurableSession, error)
	SaveSession(ctx context.Context, s model.DurableSession) error
	DeleteSession(ctx context.Context) error
}

// Repository is the full local persistence surface.
type Repository interface {
	CacheRepository
	PreferenceRepository
	SessionRepository
}
