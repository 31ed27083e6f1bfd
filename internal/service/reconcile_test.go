package service_test

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pote-app/pote-backend/internal/domain"
	"github.com/pote-app/pote-backend/internal/repository"
	"github.com/pote-app/pote-backend/internal/service"
	"github.com/pote-app/pote-backend/internal/testutil"
)

func setupReconcileService(t *testing.T, db *sql.DB) *service.ReconcileService {
	t.Helper()
	return service.NewReconcileService(
		repository.NewRuleRepository(db),
		repository.NewCheckpointRepository(db),
		repository.NewProfileRepository(db),
		repository.NewLedgerRepository(db),
		repository.NewMessageRepository(db),
		db,
	)
}

func TestReconcile_FirstSessionOnlySetsCheckpoint(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupReconcileService(t, db)
	ctx := context.Background()

	user := testutil.SeedTestUser(t, db, "first@test.com", "First")
	testutil.SeedRule(t, db, user.ID, "Salaire", 150000, 1)

	now := time.Date(2024, 3, 2, 10, 0, 0, 0, time.UTC)
	result, err := svc.Run(ctx, user.ID, now)

	require.NoError(t, err)
	assert.Empty(t, result.Entries)
	assert.Equal(t, int64(0), result.Credited)
	assert.Equal(t, domain.DefaultBalance, result.NewBalance)
	assert.Empty(t, result.Summary)

	assert.Equal(t, 0, testutil.CountLedgerEntries(t, db, user.ID))
	assert.WithinDuration(t, now, testutil.GetCheckpoint(t, db, user.ID), time.Second)
}

func TestReconcile_CatchUpCreditsMissedIncome(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupReconcileService(t, db)
	ctx := context.Background()

	user := testutil.SeedTestUser(t, db, "catchup@test.com", "CatchUp")
	rule := testutil.SeedRule(t, db, user.ID, "Salaire", 150000, 1)
	testutil.SeedCheckpoint(t, db, user.ID, time.Date(2024, 2, 28, 22, 15, 0, 0, time.UTC))

	now := time.Date(2024, 3, 2, 9, 30, 0, 0, time.UTC)
	result, err := svc.Run(ctx, user.ID, now)

	require.NoError(t, err)
	require.Len(t, result.Entries, 1)
	assert.Equal(t, int64(150000), result.Credited)
	assert.Equal(t, domain.DefaultBalance+150000, result.NewBalance)
	assert.NotEmpty(t, result.Summary)

	entry := result.Entries[0]
	assert.Equal(t, "Salaire", entry.Name)
	assert.Equal(t, domain.CategoryRecurringIncome, entry.Category)
	assert.Equal(t, domain.EntryKindRecurring, entry.Kind)
	require.NotNil(t, entry.SourceRuleID)
	assert.Equal(t, rule.ID, *entry.SourceRuleID)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), entry.OccurredAt)

	assert.Equal(t, domain.DefaultBalance+150000, testutil.GetProfileBalance(t, db, user.ID))
	assert.Equal(t, 1, testutil.CountRuleEntries(t, db, rule.ID))
}

func TestReconcile_SecondRunIsIdempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupReconcileService(t, db)
	ctx := context.Background()

	user := testutil.SeedTestUser(t, db, "idem@test.com", "Idem")
	testutil.SeedRule(t, db, user.ID, "Salaire", 150000, 1)
	testutil.SeedCheckpoint(t, db, user.ID, time.Date(2024, 2, 28, 0, 0, 0, 0, time.UTC))

	now := time.Date(2024, 3, 2, 9, 0, 0, 0, time.UTC)
	first, err := svc.Run(ctx, user.ID, now)
	require.NoError(t, err)
	require.Len(t, first.Entries, 1)

	second, err := svc.Run(ctx, user.ID, now.Add(time.Hour))
	require.NoError(t, err)
	assert.Empty(t, second.Entries)
	assert.Equal(t, first.NewBalance, second.NewBalance)

	assert.Equal(t, 1, testutil.CountLedgerEntries(t, db, user.ID))
	assert.Equal(t, first.NewBalance, testutil.GetProfileBalance(t, db, user.ID))
}

func TestReconcile_MultiDayGapEmitsEachOccurrence(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupReconcileService(t, db)
	ctx := context.Background()

	user := testutil.SeedTestUser(t, db, "gap@test.com", "Gap")
	testutil.SeedRule(t, db, user.ID, "Salaire", 150000, 1)
	testutil.SeedRule(t, db, user.ID, "Loyer perçu", 60000, 3)
	testutil.SeedCheckpoint(t, db, user.ID, time.Date(2024, 2, 28, 0, 0, 0, 0, time.UTC))

	now := time.Date(2024, 3, 4, 12, 0, 0, 0, time.UTC)
	result, err := svc.Run(ctx, user.ID, now)

	require.NoError(t, err)
	require.Len(t, result.Entries, 2)

	// Emitted day-ascending: the 1st before the 3rd.
	assert.Equal(t, "Salaire", result.Entries[0].Name)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), result.Entries[0].OccurredAt)
	assert.Equal(t, "Loyer perçu", result.Entries[1].Name)
	assert.Equal(t, time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC), result.Entries[1].OccurredAt)

	assert.Equal(t, int64(210000), result.Credited)
	assert.Equal(t, domain.DefaultBalance+210000, testutil.GetProfileBalance(t, db, user.ID))
}

func TestReconcile_Day31NeverFiresInShortMonth(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupReconcileService(t, db)
	ctx := context.Background()

	user := testutil.SeedTestUser(t, db, "day31@test.com", "Day31")
	testutil.SeedRule(t, db, user.ID, "Prime fin de mois", 80000, 31)
	testutil.SeedCheckpoint(t, db, user.ID, time.Date(2024, 4, 29, 0, 0, 0, 0, time.UTC))

	// April has 30 days: crossing into May without reaching the 31st
	// credits nothing.
	now := time.Date(2024, 5, 2, 8, 0, 0, 0, time.UTC)
	result, err := svc.Run(ctx, user.ID, now)

	require.NoError(t, err)
	assert.Empty(t, result.Entries)
	assert.Equal(t, int64(0), result.Credited)
	assert.Equal(t, domain.DefaultBalance, testutil.GetProfileBalance(t, db, user.ID))
	assert.WithinDuration(t, now, testutil.GetCheckpoint(t, db, user.ID), time.Second)
}

func TestReconcile_ClockSkewIsInert(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupReconcileService(t, db)
	ctx := context.Background()

	user := testutil.SeedTestUser(t, db, "skew@test.com", "Skew")
	testutil.SeedRule(t, db, user.ID, "Salaire", 150000, 1)
	checkpoint := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	testutil.SeedCheckpoint(t, db, user.ID, checkpoint)

	// now is behind the stored checkpoint.
	result, err := svc.Run(ctx, user.ID, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))

	require.NoError(t, err)
	assert.Empty(t, result.Entries)
	assert.Equal(t, 0, testutil.CountLedgerEntries(t, db, user.ID))

	// The checkpoint never moves backwards.
	assert.Equal(t, checkpoint, testutil.GetCheckpoint(t, db, user.ID).UTC())
}

func TestReconcile_ConcurrentSessionsCreditOnce(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupReconcileService(t, db)
	ctx := context.Background()

	user := testutil.SeedTestUser(t, db, "race@test.com", "Race")
	testutil.SeedRule(t, db, user.ID, "Salaire", 150000, 1)
	testutil.SeedCheckpoint(t, db, user.ID, time.Date(2024, 2, 28, 0, 0, 0, 0, time.UTC))

	now := time.Date(2024, 3, 2, 9, 0, 0, 0, time.UTC)

	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Run(ctx, user.ID, now)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, testutil.CountLedgerEntries(t, db, user.ID))
	assert.Equal(t, domain.DefaultBalance+150000, testutil.GetProfileBalance(t, db, user.ID))
}

func TestReconcile_ConcurrentProcessesCreditOnce(t *testing.T) {
	db := testutil.SetupTestDB(t)
	// Two service instances sharing one database, the way two API processes
	// would. The in-process singleflight gate cannot help here; only the
	// checkpoint row lock keeps the second pass from re-crediting.
	instances := []*service.ReconcileService{
		setupReconcileService(t, db),
		setupReconcileService(t, db),
	}
	ctx := context.Background()

	user := testutil.SeedTestUser(t, db, "procrace@test.com", "ProcRace")
	testutil.SeedRule(t, db, user.ID, "Salaire", 150000, 1)
	testutil.SeedCheckpoint(t, db, user.ID, time.Date(2024, 2, 28, 0, 0, 0, 0, time.UTC))

	now := time.Date(2024, 3, 2, 9, 0, 0, 0, time.UTC)

	var wg sync.WaitGroup
	for _, svc := range instances {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Run(ctx, user.ID, now)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, testutil.CountLedgerEntries(t, db, user.ID))
	assert.Equal(t, domain.DefaultBalance+150000, testutil.GetProfileBalance(t, db, user.ID))
	assert.WithinDuration(t, now, testutil.GetCheckpoint(t, db, user.ID), time.Second)
}

func TestReconcile_SummaryMessageStored(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupReconcileService(t, db)
	ctx := context.Background()

	user := testutil.SeedTestUser(t, db, "summary@test.com", "Summary")
	testutil.SeedRule(t, db, user.ID, "Salaire", 150000, 1)
	testutil.SeedCheckpoint(t, db, user.ID, time.Date(2024, 2, 28, 0, 0, 0, 0, time.UTC))

	_, err := svc.Run(ctx, user.ID, time.Date(2024, 3, 2, 9, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	var count int
	err = db.QueryRow(
		`SELECT COUNT(*) FROM chat_messages WHERE user_id = $1 AND sender = 'assistant'`,
		user.ID,
	).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
