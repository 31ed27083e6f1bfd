package domain

import (
	"time"

	"github.com/google/uuid"
)

type Currency string

const (
	CurrencyEUR Currency = "EUR"
	CurrencyUSD Currency = "USD"
	CurrencyXAF Currency = "XAF"
)

func (c Currency) IsValid() bool {
	switch c {
	case CurrencyEUR, CurrencyUSD, CurrencyXAF:
		return true
	}
	return false
}

// DefaultBalance is the starting balance for a fresh profile, in minor units.
const DefaultBalance int64 = 10000

// Profile holds a user's running balance. All amounts are minor units
// (cents). Version backs optimistic locking on balance updates.
type Profile struct {
	UserID    uuid.UUID
	Balance   int64
	Currency  Currency
	Version   int64
	CreatedAt time.Time
}
