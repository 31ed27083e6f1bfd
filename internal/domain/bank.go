package domain

import (
	"time"

	"github.com/google/uuid"
)

type BankProvider string

const (
	BankProviderMono       BankProvider = "mono"
	BankProviderGoCardless BankProvider = "gocardless"
	BankProviderManual     BankProvider = "manual"
)

func (p BankProvider) IsValid() bool {
	switch p {
	case BankProviderMono, BankProviderGoCardless, BankProviderManual:
		return true
	}
	return false
}

// LinkedAccount is an external bank account attached through an aggregator.
// Its balance is a cached snapshot from the last sync, not a ledger.
type LinkedAccount struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	Provider     BankProvider
	Name         string
	Balance      int64
	Currency     Currency
	ProviderRef  *string
	LastSyncedAt *time.Time
	CreatedAt    time.Time
}
