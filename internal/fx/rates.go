// Package fx converts cached bank-account balances into the user's display
// currency for wealth aggregation. Rates are a static mid-market table; this
// is presentation math, not a trading system.
package fx

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/pote-app/pote-backend/internal/domain"
)

type RateService struct {
	rates map[string]decimal.Decimal
}

func NewRateService() *RateService {
	return &RateService{
		rates: map[string]decimal.Decimal{
			"EUR_USD": decimal.NewFromFloat(1.08),
			"USD_EUR": decimal.NewFromFloat(0.92),
			"EUR_XAF": decimal.NewFromFloat(655.957),
			"XAF_EUR": decimal.NewFromFloat(0.0015),
			"USD_XAF": decimal.NewFromFloat(600.0),
			"XAF_USD": decimal.NewFromFloat(0.0016),
		},
	}
}

func pairKey(from, to domain.Currency) string {
	return string(from) + "_" + string(to)
}

func (s *RateService) Rate(from, to domain.Currency) (decimal.Decimal, error) {
	if !from.IsValid() || !to.IsValid() {
		return decimal.Zero, fmt.Errorf("Rate: pair %s/%s: %w", from, to, domain.ErrInvalidCurrency)
	}

	if from == to {
		return decimal.NewFromInt(1), nil
	}

	rate, ok := s.rates[pairKey(from, to)]
	if !ok {
		return decimal.Zero, fmt.Errorf("Rate: unsupported pair %s/%s: %w", from, to, domain.ErrInvalidCurrency)
	}
	return rate, nil
}

// Convert converts a minor-unit amount between currencies, rounding to the
// nearest minor unit.
func (s *RateService) Convert(amount int64, from, to domain.Currency) (int64, error) {
	rate, err := s.Rate(from, to)
	if err != nil {
		return 0, fmt.Errorf("Convert: %w", err)
	}
	return decimal.NewFromInt(amount).Mul(rate).Round(0).IntPart(), nil
}
