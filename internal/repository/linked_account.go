package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pote-app/pote-backend/internal/domain"
)

const linkedAccountColumns = `id, user_id, provider, name, balance, currency,
	provider_ref, last_synced_at, created_at`

type LinkedAccountRepository struct {
	db *sql.DB
}

func NewLinkedAccountRepository(db *sql.DB) *LinkedAccountRepository {
	return &LinkedAccountRepository{db: db}
}

func (r *LinkedAccountRepository) Create(ctx context.Context, account *domain.LinkedAccount) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO linked_accounts (
			id, user_id, provider, name, balance, currency,
			provider_ref, last_synced_at, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		account.ID, account.UserID, account.Provider, account.Name,
		account.Balance, account.Currency,
		account.ProviderRef, account.LastSyncedAt, account.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *LinkedAccountRepository) GetByID(ctx context.Context, id, userID uuid.UUID) (*domain.LinkedAccount, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+linkedAccountColumns+` FROM linked_accounts WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	a, err := scanLinkedAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return a, nil
}

func (r *LinkedAccountRepository) GetByUserID(ctx context.Context, userID uuid.UUID) ([]domain.LinkedAccount, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+linkedAccountColumns+` FROM linked_accounts WHERE user_id = $1 ORDER BY created_at, id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("GetByUserID: %w", err)
	}
	defer rows.Close()

	var accounts []domain.LinkedAccount
	for rows.Next() {
		a, err := scanLinkedAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("GetByUserID: scan: %w", err)
		}
		accounts = append(accounts, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("GetByUserID: rows: %w", err)
	}
	return accounts, nil
}

func (r *LinkedAccountRepository) UpdateBalance(ctx context.Context, id uuid.UUID, balance int64, currency domain.Currency, syncedAt time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE linked_accounts SET balance = $1, currency = $2, last_synced_at = $3 WHERE id = $4`,
		balance, currency, syncedAt, id,
	)
	if err != nil {
		return fmt.Errorf("UpdateBalance: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("UpdateBalance: rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("UpdateBalance: %w", domain.ErrNotFound)
	}
	return nil
}

func scanLinkedAccount(s scanner) (*domain.LinkedAccount, error) {
	var a domain.LinkedAccount
	err := s.Scan(
		&a.ID, &a.UserID, &a.Provider, &a.Name, &a.Balance, &a.Currency,
		&a.ProviderRef, &a.LastSyncedAt, &a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
