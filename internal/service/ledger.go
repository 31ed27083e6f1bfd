package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pote-app/pote-backend/internal/domain"
	"github.com/pote-app/pote-backend/internal/logging"
)

type ledgerRepo interface {
	Create(ctx context.Context, tx *sql.Tx, entry *domain.LedgerEntry) error
	GetByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.LedgerEntry, int, error)
}

// EntryRequest describes a transaction to realize against the ledger.
type EntryRequest struct {
	Name       string
	Amount     int64
	IsExpense  bool
	Category   domain.Category
	Kind       domain.EntryKind
	OccurredAt time.Time
}

type currencyProfileRepo interface {
	profileRepo
	SetCurrency(ctx context.Context, userID uuid.UUID, currency domain.Currency) error
}

// LedgerService appends realized transactions and keeps the running balance
// in lockstep: every entry insert pairs with exactly one balance delta in
// the same transaction.
type LedgerService struct {
	ledger   ledgerRepo
	profiles currencyProfileRepo
	db       *sql.DB
}

func NewLedgerService(ledger ledgerRepo, profiles currencyProfileRepo, db *sql.DB) *LedgerService {
	return &LedgerService{ledger: ledger, profiles: profiles, db: db}
}

func (s *LedgerService) RecordEntry(ctx context.Context, userID uuid.UUID, req EntryRequest) (*domain.LedgerEntry, int64, error) {
	if req.Amount <= 0 {
		return nil, 0, fmt.Errorf("RecordEntry: %w", domain.ErrInvalidAmount)
	}
	if !req.Category.IsValid() {
		return nil, 0, fmt.Errorf("RecordEntry: %q: %w", req.Category, domain.ErrInvalidCategory)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("RecordEntry: begin tx: %w", err)
	}
	defer tx.Rollback()

	profile, err := s.profiles.GetForUpdate(ctx, tx, userID)
	if err != nil {
		return nil, 0, fmt.Errorf("RecordEntry: %w", err)
	}

	entry := &domain.LedgerEntry{
		ID:         uuid.New(),
		UserID:     userID,
		Name:       req.Name,
		Amount:     req.Amount,
		IsExpense:  req.IsExpense,
		Category:   req.Category,
		Kind:       req.Kind,
		OccurredAt: req.OccurredAt,
		CreatedAt:  time.Now().UTC(),
	}

	if err := s.ledger.Create(ctx, tx, entry); err != nil {
		return nil, 0, fmt.Errorf("RecordEntry: %w", err)
	}

	newBalance := profile.Balance + entry.Signed()
	if err := s.profiles.UpdateBalance(ctx, tx, userID, newBalance, profile.Version+1); err != nil {
		return nil, 0, fmt.Errorf("RecordEntry: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, 0, fmt.Errorf("RecordEntry: commit: %w", err)
	}

	logging.FromContext(ctx).Info("ledger entry recorded",
		"user_id", userID,
		"entry_id", entry.ID,
		"amount", entry.Amount,
		"is_expense", entry.IsExpense,
		"category", entry.Category,
	)

	return entry, newBalance, nil
}

func (s *LedgerService) History(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.LedgerEntry, int, error) {
	entries, total, err := s.ledger.GetByUserID(ctx, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("History: %w", err)
	}
	return entries, total, nil
}

func (s *LedgerService) Balance(ctx context.Context, userID uuid.UUID) (*domain.Profile, error) {
	profile, err := s.profiles.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("Balance: %w", err)
	}
	return profile, nil
}

// SetBalance overwrites the running balance without a ledger entry, matching
// the manual balance-correction action in the app.
func (s *LedgerService) SetBalance(ctx context.Context, userID uuid.UUID, newBalance int64) (*domain.Profile, error) {
	if newBalance < 0 {
		return nil, fmt.Errorf("SetBalance: %w", domain.ErrInvalidAmount)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("SetBalance: begin tx: %w", err)
	}
	defer tx.Rollback()

	profile, err := s.profiles.GetForUpdate(ctx, tx, userID)
	if err != nil {
		return nil, fmt.Errorf("SetBalance: %w", err)
	}

	if err := s.profiles.UpdateBalance(ctx, tx, userID, newBalance, profile.Version+1); err != nil {
		return nil, fmt.Errorf("SetBalance: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("SetBalance: commit: %w", err)
	}

	profile.Balance = newBalance
	profile.Version++
	return profile, nil
}

// SetCurrency switches the display currency. Amounts already in the ledger
// are not converted; the currency is presentation only.
func (s *LedgerService) SetCurrency(ctx context.Context, userID uuid.UUID, currency domain.Currency) (*domain.Profile, error) {
	if !currency.IsValid() {
		return nil, fmt.Errorf("SetCurrency: %q: %w", currency, domain.ErrInvalidCurrency)
	}

	if err := s.profiles.SetCurrency(ctx, userID, currency); err != nil {
		return nil, fmt.Errorf("SetCurrency: %w", err)
	}

	profile, err := s.profiles.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("SetCurrency: %w", err)
	}
	return profile, nil
}
