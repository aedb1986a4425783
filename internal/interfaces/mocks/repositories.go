package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/hammerheart92/StoryForge-sub000/internal/models"
)

// Mock SaveRepository
type SaveRepository struct {
	mock.Mock
}

func (m *SaveRepository) Upsert(ctx context.Context, slot *models.SaveSlot) error {
	args := m.Called(ctx, slot)
	return args.Error(0)
}

func (m *SaveRepository) Get(ctx context.Context, storyID string, slotIndex int, userID uuid.UUID) (*models.SaveSlot, error) {
	args := m.Called(ctx, storyID, slotIndex, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SaveSlot), args.Error(1)
}

func (m *SaveRepository) Exists(ctx context.Context, storyID string, slotIndex int, userID uuid.UUID) (bool, error) {
	args := m.Called(ctx, storyID, slotIndex, userID)
	return args.Bool(0), args.Error(1)
}

func (m *SaveRepository) MarkCompleted(ctx context.Context, storyID string, slotIndex int, userID uuid.UUID, endingID string) error {
	args := m.Called(ctx, storyID, slotIndex, userID, endingID)
	return args.Error(0)
}

func (m *SaveRepository) Delete(ctx context.Context, storyID string, slotIndex int, userID uuid.UUID) error {
	args := m.Called(ctx, storyID, slotIndex, userID)
	return args.Error(0)
}

func (m *SaveRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.SaveSlot, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.SaveSlot), args.Error(1)
}

func (m *SaveRepository) ListByStory(ctx context.Context, storyID string, userID uuid.UUID) ([]*models.SaveSlot, error) {
	args := m.Called(ctx, storyID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.SaveSlot), args.Error(1)
}

// Mock LedgerRepository
type LedgerRepository struct {
	mock.Mock
}

func (m *LedgerRepository) Award(ctx context.Context, userID uuid.UUID, amount int64, source string, storyID *string, createIfMissing bool) error {
	args := m.Called(ctx, userID, amount, source, storyID, createIfMissing)
	return args.Error(0)
}

func (m *LedgerRepository) Spend(ctx context.Context, userID uuid.UUID, amount int64, contentID int64) error {
	args := m.Called(ctx, userID, amount, contentID)
	return args.Error(0)
}

func (m *LedgerRepository) GetAccount(ctx context.Context, userID uuid.UUID) (*models.GemAccount, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.GemAccount), args.Error(1)
}

func (m *LedgerRepository) ListTransactions(ctx context.Context, userID uuid.UUID, limit int) ([]models.GemTransaction, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.GemTransaction), args.Error(1)
}

// Mock UnlockRepository
type UnlockRepository struct {
	mock.Mock
}

func (m *UnlockRepository) UnlockWithSpend(ctx context.Context, userID uuid.UUID, content models.ContentInfo) error {
	args := m.Called(ctx, userID, content)
	return args.Error(0)
}

func (m *UnlockRepository) IsUnlocked(ctx context.Context, userID uuid.UUID, contentID int64) (bool, error) {
	args := m.Called(ctx, userID, contentID)
	return args.Bool(0), args.Error(1)
}

func (m *UnlockRepository) ListUnlocked(ctx context.Context, userID uuid.UUID, storyID *string) ([]models.UnlockRecord, error) {
	args := m.Called(ctx, userID, storyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.UnlockRecord), args.Error(1)
}
