package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/hammerheart92/StoryForge-sub000/internal/interfaces"
	"github.com/hammerheart92/StoryForge-sub000/internal/models"
)

// Compile-time check to ensure implementation satisfies the interface.
var _ interfaces.ContentCatalog = (*pgContentCatalog)(nil)

const getContentQuery = `
SELECT content_id, story_id, unlock_cost
FROM story_content
WHERE content_id = $1`

type pgContentCatalog struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPgContentCatalog creates a postgres-backed ContentCatalog.
func NewPgContentCatalog(pool *pgxpool.Pool, logger *zap.Logger) interfaces.ContentCatalog {
	return &pgContentCatalog{
		pool:   pool,
		logger: logger.Named("PgContentCatalog"),
	}
}

func (r *pgContentCatalog) GetContent(ctx context.Context, contentID int64) (*models.ContentInfo, error) {
	var info models.ContentInfo
	err := pgxscan.Get(ctx, r.pool, &info, getContentQuery, contentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrContentNotFound
		}
		r.logger.Error("Failed to get content", zap.Int64("contentID", contentID), zap.Error(err))
		return nil, fmt.Errorf("failed to get content %d: %w", contentID, err)
	}
	return &info, nil
}
