package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/pote-app/pote-backend/internal/domain"
	"github.com/pote-app/pote-backend/internal/repository"
	"github.com/pote-app/pote-backend/internal/service"
	"github.com/pote-app/pote-backend/internal/testutil"
)

func TestRegister_SeedsProfileAndWelcomeMessage(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := service.NewUserService(
		repository.NewUserRepository(db),
		repository.NewProfileRepository(db),
		repository.NewMessageRepository(db),
	)
	ctx := context.Background()

	user, err := svc.Register(ctx, "nouveau@test.com", "Nouveau", "secret-password")
	require.NoError(t, err)
	assert.Equal(t, "nouveau@test.com", user.Email)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("secret-password")))

	assert.Equal(t, domain.DefaultBalance, testutil.GetProfileBalance(t, db, user.ID))

	var currency string
	var version int64
	require.NoError(t, db.QueryRow(
		`SELECT currency, version FROM user_profiles WHERE user_id = $1`, user.ID,
	).Scan(&currency, &version))
	assert.Equal(t, string(domain.CurrencyEUR), currency)
	assert.Equal(t, int64(1), version)

	var body string
	require.NoError(t, db.QueryRow(
		`SELECT body FROM chat_messages WHERE user_id = $1 AND sender = 'assistant'`, user.ID,
	).Scan(&body))
	assert.Contains(t, body, "Wesh")
}

func TestRegister_DuplicateEmail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := service.NewUserService(
		repository.NewUserRepository(db),
		repository.NewProfileRepository(db),
		repository.NewMessageRepository(db),
	)
	ctx := context.Background()

	_, err := svc.Register(ctx, "dup@test.com", "Premier", "secret-password")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "dup@test.com", "Deuxième", "secret-password")
	require.ErrorIs(t, err, domain.ErrEmailExists)
}
