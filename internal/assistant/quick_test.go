package assistant

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pote-app/pote-backend/internal/domain"
)

func TestQuickParse(t *testing.T) {
	tests := []struct {
		name         string
		text         string
		wantHandled  bool
		wantAmount   int64
		wantCategory domain.Category
	}{
		{
			name:         "merchant and amount",
			text:         "McDo 15",
			wantHandled:  true,
			wantAmount:   1500,
			wantCategory: domain.CategoryFood,
		},
		{
			name:         "decimal comma",
			text:         "kebab 12,50",
			wantHandled:  true,
			wantAmount:   1250,
			wantCategory: domain.CategoryFood,
		},
		{
			name:         "bills keyword",
			text:         "loyer 700",
			wantHandled:  true,
			wantAmount:   70000,
			wantCategory: domain.CategoryBills,
		},
		{
			name:         "transport keyword",
			text:         "essence 60",
			wantHandled:  true,
			wantAmount:   6000,
			wantCategory: domain.CategoryTransport,
		},
		{
			name:         "bare amount falls back to Other",
			text:         "25",
			wantHandled:  true,
			wantAmount:   2500,
			wantCategory: domain.CategoryOther,
		},
		{
			name:        "income keyword defers to the model",
			text:        "reçu 50",
			wantHandled: false,
		},
		{
			name:        "long sentence defers to the model",
			text:        "j'ai payé le restaurant hier soir 45",
			wantHandled: false,
		},
		{
			name:        "no amount",
			text:        "hello pote",
			wantHandled: false,
		},
		{
			name:        "empty",
			text:        "   ",
			wantHandled: false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, handled := QuickParse(tc.text, domain.CurrencyEUR)

			assert.Equal(t, tc.wantHandled, handled)
			if !tc.wantHandled {
				assert.Nil(t, got)
				return
			}

			require.NotNil(t, got.Transaction)
			assert.Equal(t, tc.wantAmount, got.Transaction.Amount)
			assert.Equal(t, tc.wantCategory, got.Transaction.Category)
			assert.True(t, got.Transaction.IsExpense)
			assert.Equal(t, domain.CurrencyEUR, got.Transaction.Currency)
			assert.NotEmpty(t, got.Reply)
		})
	}
}

func TestParseCompletion(t *testing.T) {
	const body = `{"transaction":{"amount":45.5,"currency":"EUR","category":"Food","name":"Restaurant","is_expense":true,"type":"want"},"ai_response":"Encore un resto ?","sentiment":"sarcastic"}`

	got, err := parseCompletion(body, "resto hier", domain.CurrencyEUR)
	require.NoError(t, err)

	require.NotNil(t, got.Transaction)
	assert.Equal(t, int64(4550), got.Transaction.Amount)
	assert.Equal(t, domain.CategoryFood, got.Transaction.Category)
	assert.Equal(t, TransactionTypeWant, got.Transaction.Type)
	assert.Equal(t, domain.SentimentSarcastic, got.Sentiment)
	assert.Equal(t, "Encore un resto ?", got.Reply)
}

func TestParseCompletion_FencedJSON(t *testing.T) {
	const body = "```json\n{\"transaction\":{\"amount\":10,\"currency\":\"EUR\",\"category\":\"Gift\",\"name\":\"cadeau\",\"is_expense\":false,\"type\":\"income\"},\"ai_response\":\"Des potes généreux !\",\"sentiment\":\"happy\"}\n```"

	got, err := parseCompletion(body, "cadeau", domain.CurrencyEUR)
	require.NoError(t, err)

	require.NotNil(t, got.Transaction)
	assert.Equal(t, int64(1000), got.Transaction.Amount)
	assert.False(t, got.Transaction.IsExpense)
	assert.Equal(t, TransactionTypeIncome, got.Transaction.Type)
}

func TestParseCompletion_NoTransaction(t *testing.T) {
	const body = `{"transaction":{"amount":0},"ai_response":"Salut !","sentiment":"neutral"}`

	got, err := parseCompletion(body, "salut", domain.CurrencyEUR)
	require.NoError(t, err)

	assert.Nil(t, got.Transaction)
	assert.Equal(t, "Salut !", got.Reply)
}

func TestParseCompletion_DefaultsInvalidFields(t *testing.T) {
	const body = `{"transaction":{"amount":5,"currency":"ZZZ","category":"Nonsense","name":"","is_expense":true,"type":"whatever"},"ai_response":"ok","sentiment":"confused"}`

	got, err := parseCompletion(body, "truc 5", domain.CurrencyXAF)
	require.NoError(t, err)

	require.NotNil(t, got.Transaction)
	assert.Equal(t, domain.CurrencyXAF, got.Transaction.Currency)
	assert.Equal(t, domain.CategoryOther, got.Transaction.Category)
	assert.Equal(t, "truc 5", got.Transaction.Name)
	assert.Equal(t, TransactionTypeWant, got.Transaction.Type)
	assert.Equal(t, domain.SentimentNeutral, got.Sentiment)
}

func TestParseCompletion_Malformed(t *testing.T) {
	_, err := parseCompletion("not json at all", "x", domain.CurrencyEUR)
	require.Error(t, err)
}
