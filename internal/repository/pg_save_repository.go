package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/hammerheart92/StoryForge-sub000/internal/interfaces"
	"github.com/hammerheart92/StoryForge-sub000/internal/models"
)

// Compile-time check to ensure implementation satisfies the interface.
var _ interfaces.SaveRepository = (*pgSaveRepository)(nil)

const (
	// The ON CONFLICT clause is what makes concurrent saves for the same key
	// safe: two racing inserts resolve through the unique constraint instead
	// of producing duplicate rows. Update path deliberately leaves created_at,
	// is_completed, ending_id and completed_at untouched.
	upsertSaveSlotQuery = `
INSERT INTO save_slots (story_id, slot_index, user_id, state, current_speaker, created_at, last_played_at, message_count, choice_count)
VALUES ($1, $2, $3, $4, $5, $6, $6, $7, $8)
ON CONFLICT (story_id, slot_index, user_id) DO UPDATE SET
    state = EXCLUDED.state,
    current_speaker = EXCLUDED.current_speaker,
    last_played_at = EXCLUDED.last_played_at,
    message_count = EXCLUDED.message_count,
    choice_count = EXCLUDED.choice_count`

	getSaveSlotQuery = `
SELECT story_id, slot_index, user_id, state, current_speaker, created_at, last_played_at,
       message_count, choice_count, is_completed, ending_id, completed_at
FROM save_slots
WHERE story_id = $1 AND slot_index = $2 AND user_id = $3`

	saveSlotExistsQuery = `
SELECT EXISTS (SELECT 1 FROM save_slots WHERE story_id = $1 AND slot_index = $2 AND user_id = $3)`

	markCompletedQuery = `
UPDATE save_slots
SET is_completed = TRUE, ending_id = $4, completed_at = $5
WHERE story_id = $1 AND slot_index = $2 AND user_id = $3`

	deleteSaveSlotQuery = `
DELETE FROM save_slots WHERE story_id = $1 AND slot_index = $2 AND user_id = $3`

	listSavesByUserQuery = `
SELECT story_id, slot_index, user_id, state, current_speaker, created_at, last_played_at,
       message_count, choice_count, is_completed, ending_id, completed_at
FROM save_slots
WHERE user_id = $1
ORDER BY last_played_at DESC`

	listSavesByStoryQuery = `
SELECT story_id, slot_index, user_id, state, current_speaker, created_at, last_played_at,
       message_count, choice_count, is_completed, ending_id, completed_at
FROM save_slots
WHERE story_id = $1 AND user_id = $2
ORDER BY slot_index ASC`
)

type pgSaveRepository struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPgSaveRepository creates a postgres-backed SaveRepository.
func NewPgSaveRepository(pool *pgxpool.Pool, logger *zap.Logger) interfaces.SaveRepository {
	return &pgSaveRepository{
		pool:   pool,
		logger: logger.Named("PgSaveRepo"),
	}
}

func (r *pgSaveRepository) Upsert(ctx context.Context, slot *models.SaveSlot) error {
	logFields := []zap.Field{
		zap.String("storyID", slot.StoryID),
		zap.Int("slotIndex", slot.SlotIndex),
		zap.Stringer("userID", slot.UserID),
	}
	_, err := r.pool.Exec(ctx, upsertSaveSlotQuery,
		slot.StoryID,
		slot.SlotIndex,
		slot.UserID,
		slot.State,
		slot.CurrentSpeaker,
		slot.LastPlayedAt,
		slot.MessageCount,
		slot.ChoiceCount,
	)
	if err != nil {
		r.logger.Error("Failed to upsert save slot", append(logFields, zap.Error(err))...)
		return fmt.Errorf("failed to upsert save slot: %w", err)
	}
	r.logger.Debug("Upserted save slot", append(logFields, zap.Int("messageCount", slot.MessageCount))...)
	return nil
}

func (r *pgSaveRepository) Get(ctx context.Context, storyID string, slotIndex int, userID uuid.UUID) (*models.SaveSlot, error) {
	var slot models.SaveSlot
	err := pgxscan.Get(ctx, r.pool, &slot, getSaveSlotQuery, storyID, slotIndex, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrSaveNotFound
		}
		r.logger.Error("Failed to get save slot",
			zap.String("storyID", storyID), zap.Int("slotIndex", slotIndex), zap.Stringer("userID", userID), zap.Error(err))
		return nil, fmt.Errorf("failed to get save slot: %w", err)
	}
	return &slot, nil
}

func (r *pgSaveRepository) Exists(ctx context.Context, storyID string, slotIndex int, userID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, saveSlotExistsQuery, storyID, slotIndex, userID).Scan(&exists)
	if err != nil {
		r.logger.Error("Failed to check save slot existence",
			zap.String("storyID", storyID), zap.Int("slotIndex", slotIndex), zap.Stringer("userID", userID), zap.Error(err))
		return false, fmt.Errorf("failed to check save slot existence: %w", err)
	}
	return exists, nil
}

// MarkCompleted is idempotent: repeated calls refresh completed_at and the
// ending but never regress is_completed.
func (r *pgSaveRepository) MarkCompleted(ctx context.Context, storyID string, slotIndex int, userID uuid.UUID, endingID string) error {
	logFields := []zap.Field{
		zap.String("storyID", storyID),
		zap.Int("slotIndex", slotIndex),
		zap.Stringer("userID", userID),
		zap.String("endingID", endingID),
	}
	cmdTag, err := r.pool.Exec(ctx, markCompletedQuery, storyID, slotIndex, userID, endingID, time.Now().UTC())
	if err != nil {
		r.logger.Error("Failed to mark save slot completed", append(logFields, zap.Error(err))...)
		return fmt.Errorf("failed to mark save slot completed: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return models.ErrSaveNotFound
	}
	r.logger.Info("Marked save slot completed", logFields...)
	return nil
}

func (r *pgSaveRepository) Delete(ctx context.Context, storyID string, slotIndex int, userID uuid.UUID) error {
	logFields := []zap.Field{
		zap.String("storyID", storyID),
		zap.Int("slotIndex", slotIndex),
		zap.Stringer("userID", userID),
	}
	cmdTag, err := r.pool.Exec(ctx, deleteSaveSlotQuery, storyID, slotIndex, userID)
	if err != nil {
		r.logger.Error("Failed to delete save slot", append(logFields, zap.Error(err))...)
		return fmt.Errorf("failed to delete save slot: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		r.logger.Warn("Attempted to delete non-existent save slot", logFields...)
		return models.ErrSaveNotFound
	}
	r.logger.Info("Deleted save slot", logFields...)
	return nil
}

func (r *pgSaveRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.SaveSlot, error) {
	var slots []*models.SaveSlot
	if err := pgxscan.Select(ctx, r.pool, &slots, listSavesByUserQuery, userID); err != nil {
		r.logger.Error("Failed to list save slots by user", zap.Stringer("userID", userID), zap.Error(err))
		return nil, fmt.Errorf("failed to list save slots by user: %w", err)
	}
	if slots == nil {
		slots = []*models.SaveSlot{}
	}
	return slots, nil
}

func (r *pgSaveRepository) ListByStory(ctx context.Context, storyID string, userID uuid.UUID) ([]*models.SaveSlot, error) {
	var slots []*models.SaveSlot
	if err := pgxscan.Select(ctx, r.pool, &slots, listSavesByStoryQuery, storyID, userID); err != nil {
		r.logger.Error("Failed to list save slots by story",
			zap.String("storyID", storyID), zap.Stringer("userID", userID), zap.Error(err))
		return nil, fmt.Errorf("failed to list save slots by story: %w", err)
	}
	if slots == nil {
		slots = []*models.SaveSlot{}
	}
	return slots, nil
}
