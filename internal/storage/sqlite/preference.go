package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/brickforge/brickforge/internal/model"
)

// GetPreference retrieves a preference by key.
func (r *Repository) GetPreference(ctx context.Context, key string) (*model.Preference, error) {
	var p model.Preference

	err := r.db.QueryRowContext(ctx, `SELECT key, value FROM preferences WHERE key = ?`, key).
		Scan(&p.Key, &p.Value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("preference %q: %w", key, model.ErrNotFound)
		}
		return nil, fmt.Errorf("could not query preference: %w", err)
	}

	return &p, nil
}

// SetPreference creates or updates a preference.
func (r *Repository) SetPreference(ctx context.Context, p model.Preference) error {
	query := `
		INSERT INTO preferences (key, value)
		VALUES (?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value
	`

	_, err := r.db.ExecContext(ctx, query, p.Key, p.Value)
	if err != nil {
		return fmt.Errorf("could not upsert preference: %w", err)
	}

	r.logger.Debugf("Set preference %q", p.Key)
	return nil
}
