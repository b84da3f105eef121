package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/brickforge/brickforge/internal/model"
)

// The durable session is a singleton row.
const sessionRowID = "current"

// GetSession retrieves the durable session.
func (r *Repository) GetSession(ctx context.Context) (*model.DurableSession, error) {
	query := `
		SELECT prompt, mode, model_size, result, updated_at
		FROM session
		WHERE id = ?
	`

	var s model.DurableSession
	var result sql.NullString
	var updatedAt int64

	err := r.db.QueryRowContext(ctx, query, sessionRowID).Scan(
		&s.Prompt,
		&s.Mode,
		&s.ModelSize,
		&result,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("durable session: %w", model.ErrNotFound)
		}
		return nil, fmt.Errorf("could not query session: %w", err)
	}

	s.UpdatedAt = time.Unix(updatedAt, 0).UTC()

	if result.Valid && result.String != "" {
		var res model.GenerationResult
		if err := json.Unmarshal([]byte(result.String), &res); err != nil {
			return nil, fmt.Errorf("could not unmarshal session result: %w", err)
		}
		s.Result = &res
	}

	return &s, nil
}

// SaveSession creates or replaces the durable session.
func (r *Repository) SaveSession(ctx context.Context, s model.DurableSession) error {
	var result sql.NullString
	if s.Result != nil {
		b, err := json.Marshal(s.Result)
		if err != nil {
			return fmt.Errorf("could not marshal session result: %w", err)
		}
		result = sql.NullString{String: string(b), Valid: true}
	}

	query := `
		INSERT INTO session (id, prompt, mode, model_size, result, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			prompt = excluded.prompt,
			mode = excluded.mode,
			model_size = excluded.model_size,
			result = excluded.result,
			updated_at = excluded.updated_at
	`

	_, err := r.db.ExecContext(ctx, query, sessionRowID, s.Prompt, s.Mode, s.ModelSize, result, s.UpdatedAt.Unix())
	if err != nil {
		return fmt.Errorf("could not upsert session: %w", err)
	}

	r.logger.Debugf("Saved durable session")
	return nil
}

// DeleteSession removes the durable session.
func (r *Repository) DeleteSession(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM session WHERE id = ?`, sessionRowID)
	if err != nil {
		return fmt.Errorf("could not delete session: %w", err)
	}

	r.logger.Debugf("Deleted durable session")
	return nil
}
