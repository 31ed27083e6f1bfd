package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/pote-app/pote-backend/internal/domain"
)

const profileColumns = `user_id, balance, currency, version, created_at`

type ProfileRepository struct {
	db *sql.DB
}

func NewProfileRepository(db *sql.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

func (r *ProfileRepository) Create(ctx context.Context, profile *domain.Profile) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO user_profiles (user_id, balance, currency, version, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		profile.UserID, profile.Balance, profile.Currency, profile.Version, profile.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *ProfileRepository) Get(ctx context.Context, userID uuid.UUID) (*domain.Profile, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM user_profiles WHERE user_id = $1`, userID,
	)
	p, err := scanProfile(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("Get: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("Get: %w", err)
	}
	return p, nil
}

func (r *ProfileRepository) GetForUpdate(ctx context.Context, tx *sql.Tx, userID uuid.UUID) (*domain.Profile, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM user_profiles WHERE user_id = $1 FOR UPDATE`, userID,
	)
	p, err := scanProfile(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetForUpdate: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetForUpdate: %w", err)
	}
	return p, nil
}

func (r *ProfileRepository) UpdateBalance(ctx context.Context, tx *sql.Tx, userID uuid.UUID, newBalance, newVersion int64) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE user_profiles SET balance = $1, version = $2 WHERE user_id = $3 AND version = $4`,
		newBalance, newVersion, userID, newVersion-1,
	)
	if err != nil {
		return fmt.Errorf("UpdateBalance: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("UpdateBalance: rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("UpdateBalance: %w", domain.ErrVersionConflict)
	}
	return nil
}

// SetCurrency changes the display currency without touching the balance.
func (r *ProfileRepository) SetCurrency(ctx context.Context, userID uuid.UUID, currency domain.Currency) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE user_profiles SET currency = $1 WHERE user_id = $2`, currency, userID,
	)
	if err != nil {
		return fmt.Errorf("SetCurrency: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("SetCurrency: rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("SetCurrency: %w", domain.ErrNotFound)
	}
	return nil
}

func scanProfile(s scanner) (*domain.Profile, error) {
	var p domain.Profile
	err := s.Scan(&p.UserID, &p.Balance, &p.Currency, &p.Version, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
