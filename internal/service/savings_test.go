package service_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pote-app/pote-backend/internal/domain"
	"github.com/pote-app/pote-backend/internal/repository"
	"github.com/pote-app/pote-backend/internal/service"
	"github.com/pote-app/pote-backend/internal/testutil"
)

func setupSavingsService(t *testing.T, db *sql.DB) *service.SavingsService {
	t.Helper()
	return service.NewSavingsService(
		repository.NewSavingsRepository(db),
		repository.NewProfileRepository(db),
		repository.NewMessageRepository(db),
		db,
	)
}

func TestContribute_MovesMoneyIntoGoal(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupSavingsService(t, db)
	ctx := context.Background()

	user := testutil.SeedTestUser(t, db, "saver@test.com", "Saver")
	testutil.SeedProfileBalance(t, db, user.ID, 100000)

	goal, err := svc.CreateGoal(ctx, user.ID, "Vacances", 50000)
	require.NoError(t, err)
	assert.Equal(t, int64(0), goal.Current)

	updated, err := svc.Contribute(ctx, user.ID, goal.ID, 20000)
	require.NoError(t, err)
	assert.Equal(t, int64(20000), updated.Current)
	assert.Equal(t, int64(80000), testutil.GetProfileBalance(t, db, user.ID))
}

func TestContribute_InsufficientFundsLeavesStateUntouched(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupSavingsService(t, db)
	ctx := context.Background()

	user := testutil.SeedTestUser(t, db, "broke@test.com", "Broke")
	testutil.SeedProfileBalance(t, db, user.ID, 1000)

	goal, err := svc.CreateGoal(ctx, user.ID, "Vacances", 50000)
	require.NoError(t, err)

	_, err = svc.Contribute(ctx, user.ID, goal.ID, 5000)
	require.ErrorIs(t, err, domain.ErrInsufficientFunds)

	assert.Equal(t, int64(1000), testutil.GetProfileBalance(t, db, user.ID))

	goals, err := svc.ListGoals(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, goals, 1)
	assert.Equal(t, int64(0), goals[0].Current)
}

func TestDeleteGoal_RefundsBalance(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupSavingsService(t, db)
	ctx := context.Background()

	user := testutil.SeedTestUser(t, db, "refund@test.com", "Refund")
	testutil.SeedProfileBalance(t, db, user.ID, 100000)

	goal, err := svc.CreateGoal(ctx, user.ID, "Voiture", 500000)
	require.NoError(t, err)

	_, err = svc.Contribute(ctx, user.ID, goal.ID, 30000)
	require.NoError(t, err)
	require.Equal(t, int64(70000), testutil.GetProfileBalance(t, db, user.ID))

	require.NoError(t, svc.DeleteGoal(ctx, user.ID, goal.ID))

	assert.Equal(t, int64(100000), testutil.GetProfileBalance(t, db, user.ID))

	goals, err := svc.ListGoals(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, goals)
}

func TestSavingsGoal_OwnershipAndValidation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupSavingsService(t, db)
	ctx := context.Background()

	user := testutil.SeedTestUser(t, db, "owner@test.com", "Owner")
	intruder := testutil.SeedTestUser(t, db, "intruder@test.com", "Intruder")

	_, err := svc.CreateGoal(ctx, user.ID, "  ", 1000)
	require.ErrorIs(t, err, domain.ErrEmptyName)

	_, err = svc.CreateGoal(ctx, user.ID, "Vacances", 0)
	require.ErrorIs(t, err, domain.ErrInvalidAmount)

	goal, err := svc.CreateGoal(ctx, user.ID, "Vacances", 1000)
	require.NoError(t, err)

	_, err = svc.Contribute(ctx, intruder.ID, goal.ID, 100)
	require.ErrorIs(t, err, domain.ErrNotFound)

	err = svc.DeleteGoal(ctx, intruder.ID, goal.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.Contribute(ctx, user.ID, uuid.New(), 100)
	require.ErrorIs(t, err, domain.ErrNotFound)
}
