package domain

import (
	"time"

	"github.com/google/uuid"
)

// RecurringRule is a periodic cash-flow definition anchored to a day of the
// calendar month. Rules are never mutated in place: an amount change is a
// delete plus a recreate.
type RecurringRule struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	Name       string
	Amount     int64
	DayOfMonth int
	CreatedAt  time.Time
}
