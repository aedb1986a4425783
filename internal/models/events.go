package models

import (
	"time"

	"github.com/google/uuid"
)

// GameEventType identifies the kind of game event published to the broker.
type GameEventType string

const (
	EventContentUnlocked GameEventType = "content_unlocked"
	EventStoryCompleted  GameEventType = "story_completed"
)

// GameEvent is the payload published to the game events queue after a
// state-changing operation commits.
type GameEvent struct {
	Type       GameEventType `json:"type"`
	UserID     uuid.UUID     `json:"user_id"`
	StoryID    string        `json:"story_id,omitempty"`
	ContentID  int64         `json:"content_id,omitempty"`
	EndingID   string        `json:"ending_id,omitempty"`
	Amount     int64         `json:"amount,omitempty"`
	OccurredAt time.Time     `json:"occurred_at"`
}
