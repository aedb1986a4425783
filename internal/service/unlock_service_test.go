package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hammerheart92/StoryForge-sub000/internal/interfaces/mocks"
	"github.com/hammerheart92/StoryForge-sub000/internal/models"
)

func TestUnlockService_Unlock(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	content := &models.ContentInfo{ContentID: 7, StoryID: "story-1", UnlockCost: 30}

	t.Run("Success", func(t *testing.T) {
		catalog := new(mocks.ContentCatalog)
		repo := new(mocks.UnlockRepository)
		events := new(mocks.EventPublisher)
		svc := NewUnlockService(catalog, repo, events, zap.NewNop())

		catalog.On("GetContent", ctx, int64(7)).Return(content, nil)
		repo.On("UnlockWithSpend", ctx, userID, *content).Return(nil)
		events.On("PublishGameEvent", ctx, mock.MatchedBy(func(e models.GameEvent) bool {
			return e.Type == models.EventContentUnlocked &&
				e.ContentID == int64(7) && e.StoryID == "story-1" && e.Amount == int64(30)
		})).Return(nil)

		require.NoError(t, svc.Unlock(ctx, userID, 7))
		repo.AssertExpectations(t)
		events.AssertExpectations(t)
	})

	t.Run("UnknownContent", func(t *testing.T) {
		catalog := new(mocks.ContentCatalog)
		repo := new(mocks.UnlockRepository)
		svc := NewUnlockService(catalog, repo, nil, zap.NewNop())

		catalog.On("GetContent", ctx, int64(99)).Return(nil, models.ErrContentNotFound)

		assert.ErrorIs(t, svc.Unlock(ctx, userID, 99), models.ErrContentNotFound)
		repo.AssertNotCalled(t, "UnlockWithSpend", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("AlreadyUnlockedPublishesNothing", func(t *testing.T) {
		catalog := new(mocks.ContentCatalog)
		repo := new(mocks.UnlockRepository)
		events := new(mocks.EventPublisher)
		svc := NewUnlockService(catalog, repo, events, zap.NewNop())

		catalog.On("GetContent", ctx, int64(7)).Return(content, nil)
		repo.On("UnlockWithSpend", ctx, userID, *content).Return(models.ErrAlreadyUnlocked)

		assert.ErrorIs(t, svc.Unlock(ctx, userID, 7), models.ErrAlreadyUnlocked)
		events.AssertNotCalled(t, "PublishGameEvent", mock.Anything, mock.Anything)
	})

	t.Run("InsufficientGemsPropagates", func(t *testing.T) {
		catalog := new(mocks.ContentCatalog)
		repo := new(mocks.UnlockRepository)
		svc := NewUnlockService(catalog, repo, nil, zap.NewNop())

		catalog.On("GetContent", ctx, int64(7)).Return(content, nil)
		repo.On("UnlockWithSpend", ctx, userID, *content).Return(models.ErrInsufficientGems)

		assert.ErrorIs(t, svc.Unlock(ctx, userID, 7), models.ErrInsufficientGems)
	})

	t.Run("EventFailureDoesNotFailUnlock", func(t *testing.T) {
		catalog := new(mocks.ContentCatalog)
		repo := new(mocks.UnlockRepository)
		events := new(mocks.EventPublisher)
		svc := NewUnlockService(catalog, repo, events, zap.NewNop())

		catalog.On("GetContent", ctx, int64(7)).Return(content, nil)
		repo.On("UnlockWithSpend", ctx, userID, *content).Return(nil)
		events.On("PublishGameEvent", ctx, mock.Anything).Return(assert.AnError)

		assert.NoError(t, svc.Unlock(ctx, userID, 7))
	})
}

func TestUnlockService_Queries(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("IsUnlocked", func(t *testing.T) {
		repo := new(mocks.UnlockRepository)
		svc := NewUnlockService(nil, repo, nil, zap.NewNop())
		repo.On("IsUnlocked", ctx, userID, int64(7)).Return(true, nil)

		unlocked, err := svc.IsUnlocked(ctx, userID, 7)
		require.NoError(t, err)
		assert.True(t, unlocked)
	})

	t.Run("ListUnlockedWithStoryFilter", func(t *testing.T) {
		repo := new(mocks.UnlockRepository)
		svc := NewUnlockService(nil, repo, nil, zap.NewNop())
		storyID := "story-1"
		expected := []models.UnlockRecord{{UserID: userID, ContentID: 7, StoryID: "story-1"}}
		repo.On("ListUnlocked", ctx, userID, &storyID).Return(expected, nil)

		got, err := svc.ListUnlocked(ctx, userID, &storyID)
		require.NoError(t, err)
		assert.Equal(t, expected, got)
	})
}
