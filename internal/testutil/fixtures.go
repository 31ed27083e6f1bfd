package testutil

import (
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pote-app/pote-backend/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

func SeedTestUser(t *testing.T, db *sql.DB, email, name string) *domain.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	u := &domain.User{
		ID:           uuid.New(),
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
		Status:       domain.UserStatusActive,
		CreatedAt:    time.Now().UTC(),
	}

	_, err = db.Exec(
		`INSERT INTO users (id, email, name, password_hash, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		u.ID, u.Email, u.Name, u.PasswordHash, u.Status, u.CreatedAt,
	)
	if err != nil {
		t.Fatalf("seed test user %s: %v", email, err)
	}

	_, err = db.Exec(
		`INSERT INTO user_profiles (user_id, balance, currency, version)
		 VALUES ($1, $2, $3, 1)`,
		u.ID, domain.DefaultBalance, domain.CurrencyEUR,
	)
	if err != nil {
		t.Fatalf("seed profile for %s: %v", email, err)
	}
	return u
}

func SeedProfileBalance(t *testing.T, db *sql.DB, userID uuid.UUID, balance int64) {
	t.Helper()

	if _, err := db.Exec(`UPDATE user_profiles SET balance = $1 WHERE user_id = $2`, balance, userID); err != nil {
		t.Fatalf("set profile balance %s: %v", userID, err)
	}
}

func SeedRule(t *testing.T, db *sql.DB, userID uuid.UUID, name string, amount int64, dayOfMonth int) *domain.RecurringRule {
	t.Helper()

	rule := &domain.RecurringRule{
		ID:         uuid.New(),
		UserID:     userID,
		Name:       name,
		Amount:     amount,
		DayOfMonth: dayOfMonth,
		CreatedAt:  time.Now().UTC(),
	}

	_, err := db.Exec(
		`INSERT INTO recurring_rules (id, user_id, name, amount, day_of_month, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		rule.ID, rule.UserID, rule.Name, rule.Amount, rule.DayOfMonth, rule.CreatedAt,
	)
	if err != nil {
		t.Fatalf("seed rule %s: %v", name, err)
	}
	return rule
}

func SeedCheckpoint(t *testing.T, db *sql.DB, userID uuid.UUID, lastCheckedAt time.Time) {
	t.Helper()

	_, err := db.Exec(
		`INSERT INTO reconciliation_checkpoints (user_id, last_checked_at)
		 VALUES ($1, $2)
		 ON CONFLICT (user_id) DO UPDATE SET last_checked_at = EXCLUDED.last_checked_at`,
		userID, lastCheckedAt,
	)
	if err != nil {
		t.Fatalf("seed checkpoint %s: %v", userID, err)
	}
}

func GetProfileBalance(t *testing.T, db *sql.DB, userID uuid.UUID) int64 {
	t.Helper()

	var balance int64
	err := db.QueryRow(`SELECT balance FROM user_profiles WHERE user_id = $1`, userID).Scan(&balance)
	if err != nil {
		t.Fatalf("get profile balance %s: %v", userID, err)
	}
	return balance
}

func GetCheckpoint(t *testing.T, db *sql.DB, userID uuid.UUID) time.Time {
	t.Helper()

	var ts time.Time
	err := db.QueryRow(`SELECT last_checked_at FROM reconciliation_checkpoints WHERE user_id = $1`, userID).Scan(&ts)
	if err != nil {
		t.Fatalf("get checkpoint %s: %v", userID, err)
	}
	return ts
}

func CountLedgerEntries(t *testing.T, db *sql.DB, userID uuid.UUID) int {
	t.Helper()

	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM ledger_entries WHERE user_id = $1`, userID).Scan(&count)
	if err != nil {
		t.Fatalf("count ledger entries for user %s: %v", userID, err)
	}
	return count
}

func CountRuleEntries(t *testing.T, db *sql.DB, ruleID uuid.UUID) int {
	t.Helper()

	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM ledger_entries WHERE source_rule_id = $1`, ruleID).Scan(&count)
	if err != nil {
		t.Fatalf("count ledger entries for rule %s: %v", ruleID, err)
	}
	return count
}
