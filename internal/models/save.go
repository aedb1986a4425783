package models

import (
	"time"

	"github.com/google/uuid"
)

// SaveSlot is one durable snapshot of a conversation, unique per
// (story_id, slot_index, user_id). The insert path sets created_at once;
// updates only touch the content fields and last_played_at. Completion is
// one-way: is_completed never transitions back to false.
type SaveSlot struct {
	StoryID        string     `json:"story_id" db:"story_id"`
	SlotIndex      int        `json:"slot_index" db:"slot_index"`
	UserID         uuid.UUID  `json:"user_id" db:"user_id"`
	State          string     `json:"state" db:"state"` // serialized ConversationState
	CurrentSpeaker string     `json:"current_speaker" db:"current_speaker"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	LastPlayedAt   time.Time  `json:"last_played_at" db:"last_played_at"`
	MessageCount   int        `json:"message_count" db:"message_count"`
	ChoiceCount    int        `json:"choice_count" db:"choice_count"`
	IsCompleted    bool       `json:"is_completed" db:"is_completed"`
	EndingID       *string    `json:"ending_id,omitempty" db:"ending_id"`
	CompletedAt    *time.Time `json:"completed_at,omitempty" db:"completed_at"`
}
