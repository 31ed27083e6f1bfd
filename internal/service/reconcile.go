package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/pote-app/pote-backend/internal/domain"
	"github.com/pote-app/pote-backend/internal/logging"
	"github.com/pote-app/pote-backend/internal/recurring"
)

type ruleReader interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) ([]domain.RecurringRule, error)
}

type checkpointRepo interface {
	GetForUpdate(ctx context.Context, tx *sql.Tx, userID uuid.UUID) (*time.Time, error)
	Advance(ctx context.Context, tx *sql.Tx, userID uuid.UUID, now time.Time) error
}

type profileRepo interface {
	Get(ctx context.Context, userID uuid.UUID) (*domain.Profile, error)
	GetForUpdate(ctx context.Context, tx *sql.Tx, userID uuid.UUID) (*domain.Profile, error)
	UpdateBalance(ctx context.Context, tx *sql.Tx, userID uuid.UUID, newBalance, newVersion int64) error
}

type ledgerWriter interface {
	Create(ctx context.Context, tx *sql.Tx, entry *domain.LedgerEntry) error
}

type messageWriter interface {
	Create(ctx context.Context, msg *domain.ChatMessage) error
}

// ReconcileResult reports one catch-up pass. Credited is zero and Summary
// empty when no rule occurrence fell due.
type ReconcileResult struct {
	Entries    []domain.LedgerEntry
	Credited   int64
	NewBalance int64
	Summary    string
}

// ReconcileService runs the recurring-income catch-up at session start.
// Entry inserts, the balance update and the checkpoint advance share one
// transaction, so a crash mid-pass re-delivers on the next session instead
// of losing occurrences. A singleflight gate collapses concurrent sessions
// of the same user within one process; across processes the checkpoint row
// lock serializes passes, so the loser recomputes against the advanced
// checkpoint and credits nothing.
type ReconcileService struct {
	rules       ruleReader
	checkpoints checkpointRepo
	profiles    profileRepo
	ledger      ledgerWriter
	messages    messageWriter
	db          *sql.DB

	group singleflight.Group
}

func NewReconcileService(
	rules ruleReader,
	checkpoints checkpointRepo,
	profiles profileRepo,
	ledger ledgerWriter,
	messages messageWriter,
	db *sql.DB,
) *ReconcileService {
	return &ReconcileService{
		rules:       rules,
		checkpoints: checkpoints,
		profiles:    profiles,
		ledger:      ledger,
		messages:    messages,
		db:          db,
	}
}

func (s *ReconcileService) Run(ctx context.Context, userID uuid.UUID, now time.Time) (*ReconcileResult, error) {
	v, err, _ := s.group.Do(userID.String(), func() (any, error) {
		return s.run(ctx, userID, now)
	})
	if err != nil {
		return nil, fmt.Errorf("Run: %w", err)
	}
	return v.(*ReconcileResult), nil
}

func (s *ReconcileService) run(ctx context.Context, userID uuid.UUID, now time.Time) (*ReconcileResult, error) {
	log := logging.FromContext(ctx)

	rules, err := s.rules.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("run: rules: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("run: begin tx: %w", err)
	}
	defer tx.Rollback()

	// The checkpoint is read under a row lock inside the transaction: a pass
	// from another process that held the lock first commits its advance
	// before this read returns, so the interval it credited is never
	// recomputed here.
	lastChecked, err := s.checkpoints.GetForUpdate(ctx, tx, userID)
	if err != nil {
		return nil, fmt.Errorf("run: checkpoint: %w", err)
	}

	occurrences := recurring.DueOccurrences(rules, lastChecked, now)

	result := &ReconcileResult{}

	if len(occurrences) > 0 {
		profile, err := s.profiles.GetForUpdate(ctx, tx, userID)
		if err != nil {
			return nil, fmt.Errorf("run: %w", err)
		}

		createdAt := time.Now().UTC()
		for _, occ := range occurrences {
			ruleID := occ.Rule.ID
			entry := domain.LedgerEntry{
				ID:           uuid.New(),
				UserID:       userID,
				Name:         occ.Rule.Name,
				Amount:       occ.Rule.Amount,
				IsExpense:    false,
				Category:     domain.CategoryRecurringIncome,
				Kind:         domain.EntryKindRecurring,
				SourceRuleID: &ruleID,
				OccurredAt:   occ.Date,
				CreatedAt:    createdAt,
			}
			if err := s.ledger.Create(ctx, tx, &entry); err != nil {
				return nil, fmt.Errorf("run: entry for rule %s: %w", occ.Rule.ID, err)
			}
			result.Entries = append(result.Entries, entry)
		}

		result.Credited = recurring.TotalAmount(occurrences)
		result.NewBalance = profile.Balance + result.Credited

		if err := s.profiles.UpdateBalance(ctx, tx, userID, result.NewBalance, profile.Version+1); err != nil {
			return nil, fmt.Errorf("run: %w", err)
		}

		result.Summary = creditSummary(result.Credited, occurrences)
	} else {
		profile, err := s.profiles.Get(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("run: %w", err)
		}
		result.NewBalance = profile.Balance
	}

	// Last write in the transaction: the checkpoint only advances when all
	// emitted entries are in.
	if err := s.checkpoints.Advance(ctx, tx, userID, now); err != nil {
		return nil, fmt.Errorf("run: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("run: commit: %w", err)
	}

	if result.Summary != "" {
		msg := &domain.ChatMessage{
			ID:        uuid.New(),
			UserID:    userID,
			Sender:    domain.MessageSenderAssistant,
			Body:      result.Summary,
			Sentiment: sentimentPtr(domain.SentimentHappy),
			CreatedAt: time.Now().UTC(),
		}
		// The credit is already durable; a lost notification is cosmetic.
		if err := s.messages.Create(ctx, msg); err != nil {
			log.Error("failed to store catch-up summary message", "error", err, "user_id", userID)
		}
	}

	log.Info("reconciliation pass completed",
		"user_id", userID,
		"occurrences", len(occurrences),
		"credited", result.Credited,
	)

	return result, nil
}

func creditSummary(total int64, occurrences []recurring.Occurrence) string {
	names := make([]string, 0, len(occurrences))
	seen := make(map[string]bool)
	for _, occ := range occurrences {
		if !seen[occ.Rule.Name] {
			seen[occ.Rule.Name] = true
			names = append(names, occ.Rule.Name)
		}
	}
	return fmt.Sprintf("🤑 Money Money ! Tes revenus fixes sont tombés (+%s) : %s. On se met bien !",
		formatAmount(total), strings.Join(names, ", "))
}

func sentimentPtr(s domain.Sentiment) *domain.Sentiment {
	return &s
}
