package domain

import (
	"time"

	"github.com/google/uuid"
)

type SavingsGoal struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Name      string
	Target    int64
	Current   int64
	CreatedAt time.Time
}
