package service_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pote-app/pote-backend/internal/assistant"
	"github.com/pote-app/pote-backend/internal/domain"
	"github.com/pote-app/pote-backend/internal/repository"
	"github.com/pote-app/pote-backend/internal/service"
	"github.com/pote-app/pote-backend/internal/testutil"
)

type stubClassifier struct {
	extraction *assistant.Extraction
	err        error
	lastText   string
}

func (s *stubClassifier) Classify(_ context.Context, text string, _ int64, _ domain.Currency) (*assistant.Extraction, error) {
	s.lastText = text
	return s.extraction, s.err
}

func setupChatService(t *testing.T, db *sql.DB, classifier assistant.Classifier) *service.ChatService {
	t.Helper()
	return service.NewChatService(
		classifier,
		repository.NewMessageRepository(db),
		repository.NewProfileRepository(db),
		setupLedgerService(t, db),
	)
}

func TestSendMessage_ExpenseRecordsEntry(t *testing.T) {
	db := testutil.SetupTestDB(t)
	classifier := &stubClassifier{
		extraction: &assistant.Extraction{
			Transaction: &assistant.TransactionDraft{
				Name:      "McDo",
				Amount:    1500,
				Currency:  domain.CurrencyEUR,
				Category:  domain.CategoryFood,
				IsExpense: true,
				Type:      assistant.TransactionTypeWant,
			},
			Reply:     "Encore du fast-food ? Bon, c'est noté.",
			Sentiment: domain.SentimentSarcastic,
		},
	}
	svc := setupChatService(t, db, classifier)
	ctx := context.Background()

	user := testutil.SeedTestUser(t, db, "chat@test.com", "Chat")

	reply, err := svc.SendMessage(ctx, user.ID, "McDo 15")
	require.NoError(t, err)

	assert.Equal(t, "McDo 15", classifier.lastText)
	assert.Equal(t, domain.MessageSenderUser, reply.UserMessage.Sender)
	assert.Equal(t, domain.MessageSenderAssistant, reply.AssistantMessage.Sender)
	assert.Equal(t, "Encore du fast-food ? Bon, c'est noté.", reply.AssistantMessage.Body)

	require.NotNil(t, reply.Entry)
	assert.Equal(t, domain.EntryKindAssistant, reply.Entry.Kind)
	assert.Equal(t, domain.CategoryFood, reply.Entry.Category)
	assert.Equal(t, domain.DefaultBalance-1500, reply.NewBalance)
	require.NotNil(t, reply.AssistantMessage.LedgerEntryID)
	assert.Equal(t, reply.Entry.ID, *reply.AssistantMessage.LedgerEntryID)

	assert.Equal(t, domain.DefaultBalance-1500, testutil.GetProfileBalance(t, db, user.ID))
	assert.Equal(t, 1, testutil.CountLedgerEntries(t, db, user.ID))
}

func TestSendMessage_SmallTalkLeavesLedgerAlone(t *testing.T) {
	db := testutil.SetupTestDB(t)
	classifier := &stubClassifier{
		extraction: &assistant.Extraction{
			Reply:     "Salut ! Ça roule ?",
			Sentiment: domain.SentimentNeutral,
		},
	}
	svc := setupChatService(t, db, classifier)
	ctx := context.Background()

	user := testutil.SeedTestUser(t, db, "smalltalk@test.com", "SmallTalk")

	reply, err := svc.SendMessage(ctx, user.ID, "Salut !")
	require.NoError(t, err)

	assert.Nil(t, reply.Entry)
	assert.Equal(t, domain.DefaultBalance, reply.NewBalance)
	assert.Equal(t, 0, testutil.CountLedgerEntries(t, db, user.ID))

	messages, total, err := svc.History(ctx, user.ID, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, messages, 2)
	assert.Equal(t, domain.MessageSenderUser, messages[0].Sender)
	assert.Equal(t, domain.MessageSenderAssistant, messages[1].Sender)
}

func TestSendMessage_ClassifierFailureSurfaces(t *testing.T) {
	db := testutil.SetupTestDB(t)
	classifier := &stubClassifier{err: errors.New("model unavailable")}
	svc := setupChatService(t, db, classifier)
	ctx := context.Background()

	user := testutil.SeedTestUser(t, db, "modelfail@test.com", "ModelFail")

	_, err := svc.SendMessage(ctx, user.ID, "McDo 15")
	require.Error(t, err)

	// The user message is kept even when classification fails; the ledger
	// is not touched.
	_, total, histErr := svc.History(ctx, user.ID, 10, 0)
	require.NoError(t, histErr)
	assert.Equal(t, 1, total)
	assert.Equal(t, 0, testutil.CountLedgerEntries(t, db, user.ID))
	assert.Equal(t, domain.DefaultBalance, testutil.GetProfileBalance(t, db, user.ID))
}
