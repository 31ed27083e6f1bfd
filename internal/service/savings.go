package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pote-app/pote-backend/internal/domain"
	"github.com/pote-app/pote-backend/internal/logging"
)

type savingsRepo interface {
	Create(ctx context.Context, goal *domain.SavingsGoal) error
	GetByUserID(ctx context.Context, userID uuid.UUID) ([]domain.SavingsGoal, error)
	GetForUpdate(ctx context.Context, tx *sql.Tx, id, userID uuid.UUID) (*domain.SavingsGoal, error)
	UpdateCurrent(ctx context.Context, tx *sql.Tx, id uuid.UUID, newCurrent int64) error
	Delete(ctx context.Context, tx *sql.Tx, id uuid.UUID) error
}

// SavingsService moves money between the running balance and named goals.
// Contributions and refunds are balance-atomic the same way ledger entries
// are.
type SavingsService struct {
	goals    savingsRepo
	profiles profileRepo
	messages messageWriter
	db       *sql.DB
}

func NewSavingsService(goals savingsRepo, profiles profileRepo, messages messageWriter, db *sql.DB) *SavingsService {
	return &SavingsService{goals: goals, profiles: profiles, messages: messages, db: db}
}

func (s *SavingsService) CreateGoal(ctx context.Context, userID uuid.UUID, name string, target int64) (*domain.SavingsGoal, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("CreateGoal: %w", domain.ErrEmptyName)
	}
	if target <= 0 {
		return nil, fmt.Errorf("CreateGoal: %w", domain.ErrInvalidAmount)
	}

	goal := &domain.SavingsGoal{
		ID:        uuid.New(),
		UserID:    userID,
		Name:      strings.TrimSpace(name),
		Target:    target,
		Current:   0,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.goals.Create(ctx, goal); err != nil {
		return nil, fmt.Errorf("CreateGoal: %w", err)
	}
	return goal, nil
}

func (s *SavingsService) ListGoals(ctx context.Context, userID uuid.UUID) ([]domain.SavingsGoal, error) {
	goals, err := s.goals.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ListGoals: %w", err)
	}
	return goals, nil
}

// Contribute debits the balance and credits the goal in one transaction.
func (s *SavingsService) Contribute(ctx context.Context, userID, goalID uuid.UUID, amount int64) (*domain.SavingsGoal, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("Contribute: %w", domain.ErrInvalidAmount)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("Contribute: begin tx: %w", err)
	}
	defer tx.Rollback()

	profile, err := s.profiles.GetForUpdate(ctx, tx, userID)
	if err != nil {
		return nil, fmt.Errorf("Contribute: %w", err)
	}
	if profile.Balance < amount {
		return nil, fmt.Errorf("Contribute: %w", domain.ErrInsufficientFunds)
	}

	goal, err := s.goals.GetForUpdate(ctx, tx, goalID, userID)
	if err != nil {
		return nil, fmt.Errorf("Contribute: %w", err)
	}

	if err := s.goals.UpdateCurrent(ctx, tx, goal.ID, goal.Current+amount); err != nil {
		return nil, fmt.Errorf("Contribute: %w", err)
	}
	if err := s.profiles.UpdateBalance(ctx, tx, userID, profile.Balance-amount, profile.Version+1); err != nil {
		return nil, fmt.Errorf("Contribute: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("Contribute: commit: %w", err)
	}

	goal.Current += amount

	s.notify(ctx, userID, fmt.Sprintf("💰 Hop, %s mis de côté pour %s. T'es un génie.",
		formatAmount(amount), goal.Name))

	return goal, nil
}

// DeleteGoal refunds whatever the goal holds back to the balance, then
// removes the goal.
func (s *SavingsService) DeleteGoal(ctx context.Context, userID, goalID uuid.UUID) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("DeleteGoal: begin tx: %w", err)
	}
	defer tx.Rollback()

	goal, err := s.goals.GetForUpdate(ctx, tx, goalID, userID)
	if err != nil {
		return fmt.Errorf("DeleteGoal: %w", err)
	}

	if goal.Current > 0 {
		profile, err := s.profiles.GetForUpdate(ctx, tx, userID)
		if err != nil {
			return fmt.Errorf("DeleteGoal: %w", err)
		}
		if err := s.profiles.UpdateBalance(ctx, tx, userID, profile.Balance+goal.Current, profile.Version+1); err != nil {
			return fmt.Errorf("DeleteGoal: %w", err)
		}
	}

	if err := s.goals.Delete(ctx, tx, goal.ID); err != nil {
		return fmt.Errorf("DeleteGoal: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("DeleteGoal: commit: %w", err)
	}

	if goal.Current > 0 {
		s.notify(ctx, userID, fmt.Sprintf("⚠️ Cagnotte %q supprimée. J'ai remis les %s sur ton compte. Ne les flambe pas tout de suite !",
			goal.Name, formatAmount(goal.Current)))
	}

	return nil
}

func (s *SavingsService) notify(ctx context.Context, userID uuid.UUID, body string) {
	msg := &domain.ChatMessage{
		ID:        uuid.New(),
		UserID:    userID,
		Sender:    domain.MessageSenderAssistant,
		Body:      body,
		Sentiment: sentimentPtr(domain.SentimentSupportive),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		logging.FromContext(ctx).Error("failed to store savings message", "error", err, "user_id", userID)
	}
}
