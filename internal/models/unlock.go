package models

import (
	"time"

	"github.com/google/uuid"
)

// UnlockRecord is the permanent grant of one piece of content to one user.
// At most one record exists per (user_id, content_id).
type UnlockRecord struct {
	UserID     uuid.UUID `json:"user_id" db:"user_id"`
	ContentID  int64     `json:"content_id" db:"content_id"`
	StoryID    string    `json:"story_id" db:"story_id"`
	UnlockedAt time.Time `json:"unlocked_at" db:"unlocked_at"`
}

// ContentInfo is what the content catalog exposes about an unlockable item.
type ContentInfo struct {
	ContentID  int64  `json:"content_id" db:"content_id"`
	StoryID    string `json:"story_id" db:"story_id"`
	UnlockCost int64  `json:"unlock_cost" db:"unlock_cost"`
}
