package assistant

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/pote-app/pote-backend/internal/domain"
)

var amountPattern = regexp.MustCompile(`\d+([.,]\d{1,2})?`)

// Income phrasings need the model's judgment of direction; the fast path
// only ever records expenses.
var incomeKeywords = []string{"reçu", "recu", "gagné", "gagne", "donné", "donne", "rembours", "received", "earned"}

// QuickParse handles terse inputs like "McDo 15" locally, skipping the model
// call. It only fires on short messages that contain an amount and no income
// phrasing; everything else goes to the classifier.
func QuickParse(text string, currency domain.Currency) (*Extraction, bool) {
	words := strings.Fields(text)
	if len(words) == 0 || len(words) > 3 {
		return nil, false
	}

	lower := strings.ToLower(text)
	for _, kw := range incomeKeywords {
		if strings.Contains(lower, kw) {
			return nil, false
		}
	}

	match := amountPattern.FindString(text)
	if match == "" {
		return nil, false
	}

	amount, err := parseMinorUnits(match)
	if err != nil || amount <= 0 {
		return nil, false
	}

	category, txType := guessCategory(lower)

	return &Extraction{
		Transaction: &TransactionDraft{
			Name:      text,
			Amount:    amount,
			Currency:  currency,
			Category:  category,
			IsExpense: true,
			Type:      txType,
		},
		Reply:     "Dépense notée rapido. T'as cru que j'avais pas vu ?",
		Sentiment: domain.SentimentNeutral,
	}, true
}

func guessCategory(lower string) (domain.Category, TransactionType) {
	switch {
	case containsAny(lower, "loy", "elec", "eau", "course", "facture"):
		return domain.CategoryBills, TransactionTypeNeed
	case containsAny(lower, "manger", "food", "mcdo", "kebab", "resto"):
		return domain.CategoryFood, TransactionTypeWant
	case containsAny(lower, "transport", "essenc", "navigo", "uber", "metro"):
		return domain.CategoryTransport, TransactionTypeNeed
	default:
		return domain.CategoryOther, TransactionTypeWant
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// parseMinorUnits converts a decimal amount string ("15", "12,50") to minor
// units, accepting comma as the decimal separator.
func parseMinorUnits(s string) (int64, error) {
	d, err := decimal.NewFromString(strings.ReplaceAll(s, ",", "."))
	if err != nil {
		return 0, err
	}
	return d.Shift(2).Round(0).IntPart(), nil
}
