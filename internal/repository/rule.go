package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/pote-app/pote-backend/internal/domain"
)

const ruleColumns = `id, user_id, name, amount, day_of_month, created_at`

type RuleRepository struct {
	db *sql.DB
}

func NewRuleRepository(db *sql.DB) *RuleRepository {
	return &RuleRepository{db: db}
}

func (r *RuleRepository) Create(ctx context.Context, rule *domain.RecurringRule) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO recurring_rules (id, user_id, name, amount, day_of_month, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		rule.ID, rule.UserID, rule.Name, rule.Amount, rule.DayOfMonth, rule.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

// GetByUserID returns rules in creation order, which is also the order the
// reconciler applies them within a day.
func (r *RuleRepository) GetByUserID(ctx context.Context, userID uuid.UUID) ([]domain.RecurringRule, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+ruleColumns+` FROM recurring_rules WHERE user_id = $1 ORDER BY created_at, id`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("GetByUserID: %w", err)
	}
	defer rows.Close()

	var rules []domain.RecurringRule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("GetByUserID: scan: %w", err)
		}
		rules = append(rules, *rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("GetByUserID: rows: %w", err)
	}
	return rules, nil
}

func (r *RuleRepository) Delete(ctx context.Context, id, userID uuid.UUID) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM recurring_rules WHERE id = $1 AND user_id = $2`, id, userID,
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

func scanRule(s scanner) (*domain.RecurringRule, error) {
	var rule domain.RecurringRule
	err := s.Scan(&rule.ID, &rule.UserID, &rule.Name, &rule.Amount, &rule.DayOfMonth, &rule.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &rule, nil
}
