package domain

import (
	"time"

	"github.com/google/uuid"
)

type Category string

const (
	CategoryFood            Category = "Food"
	CategoryTransport       Category = "Transport"
	CategoryFun             Category = "Fun"
	CategoryBills           Category = "Bills"
	CategoryShopping        Category = "Shopping"
	CategoryGift            Category = "Gift"
	CategorySalary          Category = "Salary"
	CategoryRecurringIncome Category = "Recurring Income"
	CategoryOther           Category = "Other"
)

func (c Category) IsValid() bool {
	switch c {
	case CategoryFood, CategoryTransport, CategoryFun, CategoryBills,
		CategoryShopping, CategoryGift, CategorySalary,
		CategoryRecurringIncome, CategoryOther:
		return true
	}
	return false
}

// EntryKind records how an entry got into the ledger.
type EntryKind string

const (
	EntryKindManual    EntryKind = "manual"
	EntryKindAssistant EntryKind = "assistant"
	EntryKindRecurring EntryKind = "recurring"
)

// LedgerEntry is a realized transaction. Entries are append-only: nothing
// in the system edits or removes them after insert.
type LedgerEntry struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	Name         string
	Amount       int64
	IsExpense    bool
	Category     Category
	Kind         EntryKind
	SourceRuleID *uuid.UUID
	OccurredAt   time.Time
	CreatedAt    time.Time
}

// Signed returns the entry's contribution to the running balance.
func (e *LedgerEntry) Signed() int64 {
	if e.IsExpense {
		return -e.Amount
	}
	return e.Amount
}
