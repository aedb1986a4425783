package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/hammerheart92/StoryForge-sub000/internal/interfaces"
	"github.com/hammerheart92/StoryForge-sub000/internal/models"
)

// Compile-time check to ensure implementation satisfies the interface.
var _ interfaces.UnlockRepository = (*pgUnlockRepository)(nil)

const (
	// ON CONFLICT DO NOTHING turns a duplicate unlock into zero affected rows,
	// which the transaction treats as "already unlocked" before any gems move.
	insertUnlockQuery = `
INSERT INTO content_unlocks (user_id, content_id, story_id, unlocked_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (user_id, content_id) DO NOTHING`

	isUnlockedQuery = `
SELECT EXISTS (SELECT 1 FROM content_unlocks WHERE user_id = $1 AND content_id = $2)`

	listUnlockedQuery = `
SELECT user_id, content_id, story_id, unlocked_at
FROM content_unlocks
WHERE user_id = $1
ORDER BY unlocked_at DESC`

	listUnlockedByStoryQuery = `
SELECT user_id, content_id, story_id, unlocked_at
FROM content_unlocks
WHERE user_id = $1 AND story_id = $2
ORDER BY unlocked_at DESC`
)

type pgUnlockRepository struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPgUnlockRepository creates a postgres-backed UnlockRepository.
func NewPgUnlockRepository(pool *pgxpool.Pool, logger *zap.Logger) interfaces.UnlockRepository {
	return &pgUnlockRepository{
		pool:   pool,
		logger: logger.Named("PgUnlockRepo"),
	}
}

// UnlockWithSpend inserts the unlock record and debits the gem account inside
// one transaction. Either both happen or neither does, so a failed record
// insert can never strand a spend.
func (r *pgUnlockRepository) UnlockWithSpend(ctx context.Context, userID uuid.UUID, content models.ContentInfo) error {
	logFields := []zap.Field{
		zap.Stringer("userID", userID),
		zap.Int64("contentID", content.ContentID),
		zap.String("storyID", content.StoryID),
		zap.Int64("cost", content.UnlockCost),
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin unlock tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	now := time.Now().UTC()
	cmdTag, err := tx.Exec(ctx, insertUnlockQuery, userID, content.ContentID, content.StoryID, now)
	if err != nil {
		r.logger.Error("Failed to insert unlock record", append(logFields, zap.Error(err))...)
		return fmt.Errorf("failed to insert unlock record: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		r.logger.Info("Content already unlocked", logFields...)
		return models.ErrAlreadyUnlocked
	}

	if content.UnlockCost > 0 {
		if err := debitAccount(ctx, tx, userID, content.UnlockCost, now); err != nil {
			if errors.Is(err, models.ErrInsufficientGems) || errors.Is(err, models.ErrAccountNotFound) {
				r.logger.Warn("Unlock rejected by ledger", append(logFields, zap.Error(err))...)
			} else {
				r.logger.Error("Failed to debit account for unlock", append(logFields, zap.Error(err))...)
			}
			return err
		}
		storyID := content.StoryID
		_, err = tx.Exec(ctx, insertTransactionQuery,
			uuid.New(), userID, content.UnlockCost, models.TransactionSpend, "content_unlock", &storyID, content.ContentID, now)
		if err != nil {
			r.logger.Error("Failed to append spend transaction for unlock", append(logFields, zap.Error(err))...)
			return fmt.Errorf("failed to append spend transaction for unlock: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit unlock tx: %w", err)
	}
	r.logger.Info("Unlocked content", logFields...)
	return nil
}

func (r *pgUnlockRepository) IsUnlocked(ctx context.Context, userID uuid.UUID, contentID int64) (bool, error) {
	var unlocked bool
	err := r.pool.QueryRow(ctx, isUnlockedQuery, userID, contentID).Scan(&unlocked)
	if err != nil {
		r.logger.Error("Failed to check unlock", zap.Stringer("userID", userID), zap.Int64("contentID", contentID), zap.Error(err))
		return false, fmt.Errorf("failed to check unlock: %w", err)
	}
	return unlocked, nil
}

func (r *pgUnlockRepository) ListUnlocked(ctx context.Context, userID uuid.UUID, storyID *string) ([]models.UnlockRecord, error) {
	var records []models.UnlockRecord
	var err error
	if storyID != nil {
		err = pgxscan.Select(ctx, r.pool, &records, listUnlockedByStoryQuery, userID, *storyID)
	} else {
		err = pgxscan.Select(ctx, r.pool, &records, listUnlockedQuery, userID)
	}
	if err != nil {
		r.logger.Error("Failed to list unlocks", zap.Stringer("userID", userID), zap.Error(err))
		return nil, fmt.Errorf("failed to list unlocks: %w", err)
	}
	if records == nil {
		records = []models.UnlockRecord{}
	}
	return records, nil
}
