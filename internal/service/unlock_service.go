package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hammerheart92/StoryForge-sub000/internal/interfaces"
	"github.com/hammerheart92/StoryForge-sub000/internal/metrics"
	"github.com/hammerheart92/StoryForge-sub000/internal/models"
)

// UnlockService resolves content costs and performs idempotent unlocks. The
// spend and the unlock record are one transaction in the repository, so a
// duplicate unlock never re-spends and a failed record insert never loses
// gems.
type UnlockService struct {
	content interfaces.ContentCatalog
	unlocks interfaces.UnlockRepository
	events  interfaces.EventPublisher // nil when no broker is configured
	logger  *zap.Logger
}

// NewUnlockService creates the unlock service. events may be nil.
func NewUnlockService(content interfaces.ContentCatalog, unlocks interfaces.UnlockRepository, events interfaces.EventPublisher, logger *zap.Logger) *UnlockService {
	return &UnlockService{
		content: content,
		unlocks: unlocks,
		events:  events,
		logger:  logger.Named("UnlockService"),
	}
}

// Unlock grants content to a user, spending its gem cost. Repeated calls for
// the same (user, content) fail with models.ErrAlreadyUnlocked and move no
// gems.
func (s *UnlockService) Unlock(ctx context.Context, userID uuid.UUID, contentID int64) error {
	info, err := s.content.GetContent(ctx, contentID)
	if err != nil {
		return err
	}

	if err := s.unlocks.UnlockWithSpend(ctx, userID, *info); err != nil {
		return err
	}

	metrics.ContentUnlocks.Inc()
	metrics.GemsSpent.Add(float64(info.UnlockCost))

	if s.events != nil {
		event := models.GameEvent{
			Type:       models.EventContentUnlocked,
			UserID:     userID,
			StoryID:    info.StoryID,
			ContentID:  contentID,
			Amount:     info.UnlockCost,
			OccurredAt: time.Now().UTC(),
		}
		if err := s.events.PublishGameEvent(ctx, event); err != nil {
			// The unlock is already durable; event delivery is best-effort.
			s.logger.Warn("Failed to publish content_unlocked event",
				zap.Stringer("userID", userID), zap.Int64("contentID", contentID), zap.Error(err))
		}
	}
	return nil
}

// IsUnlocked reports whether the user already owns the content.
func (s *UnlockService) IsUnlocked(ctx context.Context, userID uuid.UUID, contentID int64) (bool, error) {
	return s.unlocks.IsUnlocked(ctx, userID, contentID)
}

// ListUnlocked returns the user's unlock records, optionally filtered by
// story, most recent first.
func (s *UnlockService) ListUnlocked(ctx context.Context, userID uuid.UUID, storyID *string) ([]models.UnlockRecord, error) {
	return s.unlocks.ListUnlocked(ctx, userID, storyID)
}
