package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pote-app/pote-backend/internal/domain"
	"github.com/pote-app/pote-backend/internal/repository"
	"github.com/pote-app/pote-backend/internal/service"
	"github.com/pote-app/pote-backend/internal/testutil"
)

func TestCreateRule_Validation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := service.NewRuleService(repository.NewRuleRepository(db))
	ctx := context.Background()

	user := testutil.SeedTestUser(t, db, "rules@test.com", "Rules")

	tests := []struct {
		name       string
		ruleName   string
		amount     int64
		dayOfMonth int
		wantErr    error
	}{
		{"empty name", "   ", 150000, 1, domain.ErrEmptyName},
		{"zero amount", "Salaire", 0, 1, domain.ErrInvalidAmount},
		{"negative amount", "Salaire", -500, 1, domain.ErrInvalidAmount},
		{"day zero", "Salaire", 150000, 0, domain.ErrInvalidDayOfMonth},
		{"day thirty-two", "Salaire", 150000, 32, domain.ErrInvalidDayOfMonth},
		{"day one ok", "Salaire", 150000, 1, nil},
		{"day thirty-one ok", "Prime", 80000, 31, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule, err := svc.CreateRule(ctx, user.ID, tt.ruleName, tt.amount, tt.dayOfMonth)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.dayOfMonth, rule.DayOfMonth)
		})
	}
}

func TestListAndDeleteRules(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := service.NewRuleService(repository.NewRuleRepository(db))
	ctx := context.Background()

	user := testutil.SeedTestUser(t, db, "ruleslist@test.com", "RulesList")
	other := testutil.SeedTestUser(t, db, "other@test.com", "Other")

	first, err := svc.CreateRule(ctx, user.ID, "Salaire", 150000, 1)
	require.NoError(t, err)
	_, err = svc.CreateRule(ctx, user.ID, "Loyer perçu", 60000, 5)
	require.NoError(t, err)

	rules, err := svc.ListRules(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, "Salaire", rules[0].Name)

	// A different user cannot delete someone else's rule.
	err = svc.DeleteRule(ctx, first.ID, other.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, svc.DeleteRule(ctx, first.ID, user.ID))

	rules, err = svc.ListRules(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, rules, 1)

	err = svc.DeleteRule(ctx, uuid.New(), user.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)
}
