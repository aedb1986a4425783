package models

import (
	"time"

	"github.com/google/uuid"
)

// TransactionKind matches the ENUM 'gem_transaction_kind' in the DB.
type TransactionKind string

const (
	TransactionEarn  TransactionKind = "earn"
	TransactionSpend TransactionKind = "spend"
)

// GemAccount is the per-user balance snapshot.
// Invariant: Balance == TotalEarned - TotalSpent after every operation.
type GemAccount struct {
	UserID      uuid.UUID `json:"user_id" db:"user_id"`
	Balance     int64     `json:"balance" db:"balance"`
	TotalEarned int64     `json:"total_earned" db:"total_earned"`
	TotalSpent  int64     `json:"total_spent" db:"total_spent"`
	LastUpdated time.Time `json:"last_updated" db:"last_updated"`
}

// GemTransaction is one append-only row of the audit trail. Never mutated.
type GemTransaction struct {
	ID        uuid.UUID       `json:"id" db:"id"`
	UserID    uuid.UUID       `json:"user_id" db:"user_id"`
	Amount    int64           `json:"amount" db:"amount"`
	Kind      TransactionKind `json:"kind" db:"kind"`
	Source    string          `json:"source" db:"source"`
	StoryID   *string         `json:"story_id,omitempty" db:"story_id"`
	ContentID *int64          `json:"content_id,omitempty" db:"content_id"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}
