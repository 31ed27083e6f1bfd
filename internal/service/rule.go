package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pote-app/pote-backend/internal/domain"
	"github.com/pote-app/pote-backend/internal/logging"
)

type ruleRepo interface {
	Create(ctx context.Context, rule *domain.RecurringRule) error
	GetByUserID(ctx context.Context, userID uuid.UUID) ([]domain.RecurringRule, error)
	Delete(ctx context.Context, id, userID uuid.UUID) error
}

// RuleService validates recurring rules at creation. Rules are immutable
// once stored; changing an amount is a delete plus a recreate.
type RuleService struct {
	rules ruleRepo
}

func NewRuleService(rules ruleRepo) *RuleService {
	return &RuleService{rules: rules}
}

func (s *RuleService) CreateRule(ctx context.Context, userID uuid.UUID, name string, amount int64, dayOfMonth int) (*domain.RecurringRule, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("CreateRule: %w", domain.ErrEmptyName)
	}
	if amount <= 0 {
		return nil, fmt.Errorf("CreateRule: %w", domain.ErrInvalidAmount)
	}
	if dayOfMonth < 1 || dayOfMonth > 31 {
		return nil, fmt.Errorf("CreateRule: %w", domain.ErrInvalidDayOfMonth)
	}

	rule := &domain.RecurringRule{
		ID:         uuid.New(),
		UserID:     userID,
		Name:       strings.TrimSpace(name),
		Amount:     amount,
		DayOfMonth: dayOfMonth,
		CreatedAt:  time.Now().UTC(),
	}

	if err := s.rules.Create(ctx, rule); err != nil {
		return nil, fmt.Errorf("CreateRule: %w", err)
	}

	logging.FromContext(ctx).Info("recurring rule created",
		"rule_id", rule.ID,
		"user_id", userID,
		"amount", amount,
		"day_of_month", dayOfMonth,
	)

	return rule, nil
}

func (s *RuleService) ListRules(ctx context.Context, userID uuid.UUID) ([]domain.RecurringRule, error) {
	rules, err := s.rules.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ListRules: %w", err)
	}
	return rules, nil
}

func (s *RuleService) DeleteRule(ctx context.Context, id, userID uuid.UUID) error {
	if err := s.rules.Delete(ctx, id, userID); err != nil {
		return fmt.Errorf("DeleteRule: %w", err)
	}
	return nil
}
