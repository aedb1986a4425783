package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hammerheart92/StoryForge-sub000/internal/conversation"
	"github.com/hammerheart92/StoryForge-sub000/internal/interfaces"
	"github.com/hammerheart92/StoryForge-sub000/internal/models"
)

// SaveService validates save requests and snapshots conversation state into
// durable slots. Atomicity of the upsert itself lives in the repository.
type SaveService struct {
	saves    interfaces.SaveRepository
	events   interfaces.EventPublisher // nil when no broker is configured
	maxSlots int
	logger   *zap.Logger
}

// NewSaveService creates the save service. events may be nil.
func NewSaveService(saves interfaces.SaveRepository, events interfaces.EventPublisher, maxSlots int, logger *zap.Logger) *SaveService {
	if maxSlots <= 0 {
		maxSlots = 3
	}
	return &SaveService{
		saves:    saves,
		events:   events,
		maxSlots: maxSlots,
		logger:   logger.Named("SaveService"),
	}
}

func (s *SaveService) validateKey(storyID string, slotIndex int) error {
	if isBlank(storyID) {
		return fmt.Errorf("%w: story id must not be blank", models.ErrInvalidInput)
	}
	if slotIndex < 1 || slotIndex > s.maxSlots {
		return fmt.Errorf("%w: slot %d not in [1, %d]", models.ErrInvalidSlot, slotIndex, s.maxSlots)
	}
	return nil
}

// SaveOrUpdate snapshots state into the slot. First save of a key creates the
// row; later saves replace the content fields and last_played_at while
// created_at and the completion fields are preserved by the storage layer.
func (s *SaveService) SaveOrUpdate(ctx context.Context, storyID string, slotIndex int, userID uuid.UUID, state *conversation.State, currentSpeaker string) error {
	if err := s.validateKey(storyID, slotIndex); err != nil {
		return err
	}
	if state == nil {
		return fmt.Errorf("%w: conversation state is required", models.ErrInvalidInput)
	}

	payload, err := state.Serialize()
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	slot := &models.SaveSlot{
		StoryID:        storyID,
		SlotIndex:      slotIndex,
		UserID:         userID,
		State:          payload,
		CurrentSpeaker: currentSpeaker,
		CreatedAt:      now,
		LastPlayedAt:   now,
		MessageCount:   state.MessageCount(),
		ChoiceCount:    state.CountByRole(models.RoleUser),
	}
	if err := s.saves.Upsert(ctx, slot); err != nil {
		return err
	}
	s.logger.Debug("Saved conversation snapshot",
		zap.String("storyID", storyID), zap.Int("slotIndex", slotIndex),
		zap.Stringer("userID", userID), zap.Int("messageCount", slot.MessageCount))
	return nil
}

// Load reads the slot and rehydrates its conversation state through the
// serializer's own round-trip contract.
func (s *SaveService) Load(ctx context.Context, storyID string, slotIndex int, userID uuid.UUID) (*conversation.State, *models.SaveSlot, error) {
	if err := s.validateKey(storyID, slotIndex); err != nil {
		return nil, nil, err
	}
	slot, err := s.saves.Get(ctx, storyID, slotIndex, userID)
	if err != nil {
		return nil, nil, err
	}
	state, err := conversation.Deserialize(slot.State)
	if err != nil {
		s.logger.Error("Stored save payload is corrupt",
			zap.String("storyID", storyID), zap.Int("slotIndex", slotIndex), zap.Stringer("userID", userID), zap.Error(err))
		return nil, nil, err
	}
	return state, slot, nil
}

// Exists reports whether a slot has been saved.
func (s *SaveService) Exists(ctx context.Context, storyID string, slotIndex int, userID uuid.UUID) (bool, error) {
	if err := s.validateKey(storyID, slotIndex); err != nil {
		return false, err
	}
	return s.saves.Exists(ctx, storyID, slotIndex, userID)
}

// MarkCompleted records the ending for a slot. One-way and idempotent: once
// completed, later plain saves never reset it.
func (s *SaveService) MarkCompleted(ctx context.Context, storyID string, slotIndex int, userID uuid.UUID, endingID string) error {
	if err := s.validateKey(storyID, slotIndex); err != nil {
		return err
	}
	if isBlank(endingID) {
		return fmt.Errorf("%w: ending id must not be blank", models.ErrInvalidInput)
	}
	if err := s.saves.MarkCompleted(ctx, storyID, slotIndex, userID, endingID); err != nil {
		return err
	}
	if s.events != nil {
		event := models.GameEvent{
			Type:       models.EventStoryCompleted,
			UserID:     userID,
			StoryID:    storyID,
			EndingID:   endingID,
			OccurredAt: time.Now().UTC(),
		}
		if err := s.events.PublishGameEvent(ctx, event); err != nil {
			// The completion is already durable; event delivery is best-effort.
			s.logger.Warn("Failed to publish story_completed event",
				zap.String("storyID", storyID), zap.Stringer("userID", userID), zap.Error(err))
		}
	}
	return nil
}

// Delete removes a slot.
func (s *SaveService) Delete(ctx context.Context, storyID string, slotIndex int, userID uuid.UUID) error {
	if err := s.validateKey(storyID, slotIndex); err != nil {
		return err
	}
	return s.saves.Delete(ctx, storyID, slotIndex, userID)
}

// ListByUser returns all of the user's slots, most recently played first.
func (s *SaveService) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.SaveSlot, error) {
	return s.saves.ListByUser(ctx, userID)
}

// ListByStory returns the user's slots for one story, ordered by slot index.
func (s *SaveService) ListByStory(ctx context.Context, storyID string, userID uuid.UUID) ([]*models.SaveSlot, error) {
	if isBlank(storyID) {
		return nil, fmt.Errorf("%w: story id must not be blank", models.ErrInvalidInput)
	}
	return s.saves.ListByStory(ctx, storyID, userID)
}
