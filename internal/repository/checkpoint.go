package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CheckpointRepository owns the per-user reconciliation checkpoint.
// GetForUpdate returns nil for a user that has never reconciled; otherwise it
// locks the checkpoint row until the transaction ends, serializing concurrent
// reconciliation passes on the same user. Advance runs inside the same
// transaction so entries and checkpoint commit together, and never moves the
// checkpoint backwards: a skewed clock must not reopen an already-credited
// interval.
type CheckpointRepository struct {
	db *sql.DB
}

func NewCheckpointRepository(db *sql.DB) *CheckpointRepository {
	return &CheckpointRepository{db: db}
}

func (r *CheckpointRepository) GetForUpdate(ctx context.Context, tx *sql.Tx, userID uuid.UUID) (*time.Time, error) {
	var last time.Time
	err := tx.QueryRowContext(ctx,
		`SELECT last_checked_at FROM reconciliation_checkpoints WHERE user_id = $1 FOR UPDATE`, userID,
	).Scan(&last)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("GetForUpdate: %w", err)
	}
	return &last, nil
}

func (r *CheckpointRepository) Advance(ctx context.Context, tx *sql.Tx, userID uuid.UUID, now time.Time) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO reconciliation_checkpoints (user_id, last_checked_at)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE
		SET last_checked_at = GREATEST(reconciliation_checkpoints.last_checked_at, EXCLUDED.last_checked_at)`,
		userID, now,
	)
	if err != nil {
		return fmt.Errorf("Advance: %w", err)
	}
	return nil
}
