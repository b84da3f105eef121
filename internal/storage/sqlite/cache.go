package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/brickforge/brickforge/internal/model"
)

// GetCacheEntry retrieves a cache entry by its cache key.
func (r *Repository) GetCacheEntry(ctx context.Context, key string) (*model.CacheEntry, error) {
	query := `
		SELECT id, cache_key, payload, created_at, expires_at
		FROM generation_cache
		WHERE cache_key = ?
	`

	var e model.CacheEntry
	var createdAt, expiresAt int64

	err := r.db.QueryRowContext(ctx, query, key).Scan(
		&e.ID,
		&e.Key,
		&e.Payload,
		&createdAt,
		&expiresAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("cache entry for key %q: %w", key, model.ErrNotFound)
		}
		return nil, fmt.Errorf("could not query cache entry: %w", err)
	}

	e.CreatedAt = time.Unix(createdAt, 0).UTC()
	e.ExpiresAt = time.Unix(expiresAt, 0).UTC()

	return &e, nil
}

// CreateCacheEntry persists a new cache entry. An entry for the same cache
// key replaces the previous one, a regeneration always caches its fresh
// result.
func (r *Repository) CreateCacheEntry(ctx context.Context, e model.CacheEntry) error {
	if e.ID == "" {
		e.ID = ulid.Make().String()
	}

	query := `
		INSERT INTO generation_cache (id, cache_key, payload, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (cache_key) DO UPDATE SET
			payload = excluded.payload,
			created_at = excluded.created_at,
			expires_at = excluded.expires_at
	`

	_, err := r.db.ExecContext(ctx, query, e.ID, e.Key, e.Payload, e.CreatedAt.Unix(), e.ExpiresAt.Unix())
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: generation_cache.id") {
			return fmt.Errorf("cache entry %s: %w", e.ID, model.ErrAlreadyExists)
		}
		return fmt.Errorf("could not insert cache entry: %w", err)
	}

	r.logger.Debugf("Created cache entry %s for key %q", e.ID, e.Key)
	return nil
}

// DeleteCacheEntry deletes a cache entry by ID.
func (r *Repository) DeleteCacheEntry(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM generation_cache WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("could not delete cache entry: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("cache entry %s: %w", id, model.ErrNotFound)
	}

	r.logger.Debugf("Deleted cache entry %s", id)
	return nil
}
