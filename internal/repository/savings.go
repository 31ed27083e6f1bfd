package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/pote-app/pote-backend/internal/domain"
)

const goalColumns = `id, user_id, name, target, current, created_at`

type SavingsRepository struct {
	db *sql.DB
}

func NewSavingsRepository(db *sql.DB) *SavingsRepository {
	return &SavingsRepository{db: db}
}

func (r *SavingsRepository) Create(ctx context.Context, goal *domain.SavingsGoal) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO savings_goals (id, user_id, name, target, current, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		goal.ID, goal.UserID, goal.Name, goal.Target, goal.Current, goal.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *SavingsRepository) GetByUserID(ctx context.Context, userID uuid.UUID) ([]domain.SavingsGoal, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+goalColumns+` FROM savings_goals WHERE user_id = $1 ORDER BY created_at, id`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("GetByUserID: %w", err)
	}
	defer rows.Close()

	var goals []domain.SavingsGoal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("GetByUserID: scan: %w", err)
		}
		goals = append(goals, *g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("GetByUserID: rows: %w", err)
	}
	return goals, nil
}

func (r *SavingsRepository) GetForUpdate(ctx context.Context, tx *sql.Tx, id, userID uuid.UUID) (*domain.SavingsGoal, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+goalColumns+` FROM savings_goals WHERE id = $1 AND user_id = $2 FOR UPDATE`,
		id, userID,
	)
	g, err := scanGoal(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetForUpdate: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetForUpdate: %w", err)
	}
	return g, nil
}

func (r *SavingsRepository) UpdateCurrent(ctx context.Context, tx *sql.Tx, id uuid.UUID, newCurrent int64) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE savings_goals SET current = $1 WHERE id = $2`, newCurrent, id,
	)
	if err != nil {
		return fmt.Errorf("UpdateCurrent: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("UpdateCurrent: rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("UpdateCurrent: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *SavingsRepository) Delete(ctx context.Context, tx *sql.Tx, id uuid.UUID) error {
	res, err := tx.ExecContext(ctx,
		`DELETE FROM savings_goals WHERE id = $1`, id,
	)
	if err != nil {
		return fmt.Errorf("Delete: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("Delete: rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("Delete: %w", domain.ErrNotFound)
	}
	return nil
}

func scanGoal(s scanner) (*domain.SavingsGoal, error) {
	var g domain.SavingsGoal
	err := s.Scan(&g.ID, &g.UserID, &g.Name, &g.Target, &g.Current, &g.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &g, nil
}
