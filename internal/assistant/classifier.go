// Package assistant turns free-form chat messages into structured
// transactions plus a narrative reply. The model behind it is opaque; the
// rest of the application only sees the Extraction contract.
package assistant

import (
	"context"

	"github.com/pote-app/pote-backend/internal/domain"
)

type TransactionType string

const (
	TransactionTypeNeed   TransactionType = "need"
	TransactionTypeWant   TransactionType = "want"
	TransactionTypeIncome TransactionType = "income"
)

// TransactionDraft is a classified transaction candidate. Amount is minor
// units, always positive; IsExpense carries the direction.
type TransactionDraft struct {
	Name      string
	Amount    int64
	Currency  domain.Currency
	Category  domain.Category
	IsExpense bool
	Type      TransactionType
}

// Extraction is the classifier output: an optional transaction plus the
// assistant's reply. Transaction is nil when the message carried no
// recordable spending or income.
type Extraction struct {
	Transaction *TransactionDraft
	Reply       string
	Sentiment   domain.Sentiment
}

type Classifier interface {
	Classify(ctx context.Context, text string, balance int64, currency domain.Currency) (*Extraction, error)
}
