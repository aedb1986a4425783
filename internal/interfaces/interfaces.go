package interfaces

import (
	"context"

	"github.com/google/uuid"

	"github.com/hammerheart92/StoryForge-sub000/internal/conversation"
	"github.com/hammerheart92/StoryForge-sub000/internal/models"
)

// SaveRepository persists conversation snapshots per (story, slot, user).
// Upsert must be atomic at the storage boundary: a racing insert for the same
// key must resolve through the uniqueness constraint, never duplicate rows.
type SaveRepository interface {
	Upsert(ctx context.Context, slot *models.SaveSlot) error
	Get(ctx context.Context, storyID string, slotIndex int, userID uuid.UUID) (*models.SaveSlot, error)
	Exists(ctx context.Context, storyID string, slotIndex int, userID uuid.UUID) (bool, error)
	MarkCompleted(ctx context.Context, storyID string, slotIndex int, userID uuid.UUID, endingID string) error
	Delete(ctx context.Context, storyID string, slotIndex int, userID uuid.UUID) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.SaveSlot, error)
	ListByStory(ctx context.Context, storyID string, userID uuid.UUID) ([]*models.SaveSlot, error)
}

// LedgerRepository owns the gem accounts and their append-only audit trail.
// Award and Spend are single transactional units; Spend combines the balance
// check and the decrement into one guarded statement.
type LedgerRepository interface {
	Award(ctx context.Context, userID uuid.UUID, amount int64, source string, storyID *string, createIfMissing bool) error
	Spend(ctx context.Context, userID uuid.UUID, amount int64, contentID int64) error
	GetAccount(ctx context.Context, userID uuid.UUID) (*models.GemAccount, error)
	ListTransactions(ctx context.Context, userID uuid.UUID, limit int) ([]models.GemTransaction, error)
}

// UnlockRepository records permanent content grants. UnlockWithSpend performs
// the unlock insert and the gem spend in one transaction so a failed insert
// can never lose gems.
type UnlockRepository interface {
	UnlockWithSpend(ctx context.Context, userID uuid.UUID, content models.ContentInfo) error
	IsUnlocked(ctx context.Context, userID uuid.UUID, contentID int64) (bool, error)
	ListUnlocked(ctx context.Context, userID uuid.UUID, storyID *string) ([]models.UnlockRecord, error)
}

// CharacterCatalog resolves character profiles. Owned by an external catalog;
// read-only here.
type CharacterCatalog interface {
	GetCharacter(id string) (*models.CharacterProfile, error)
	ListCharacters() []models.CharacterProfile
}

// ContentCatalog resolves unlockable content and its gem cost.
type ContentCatalog interface {
	GetContent(ctx context.Context, contentID int64) (*models.ContentInfo, error)
}

// TextGenerator is the outbound LLM call: one request, one response, bounded
// by a caller-supplied timeout. No retries happen below this interface.
type TextGenerator interface {
	Generate(ctx context.Context, state *conversation.State) (string, error)
}

// EventPublisher emits game events after state-changing operations commit.
type EventPublisher interface {
	PublishGameEvent(ctx context.Context, event models.GameEvent) error
}
