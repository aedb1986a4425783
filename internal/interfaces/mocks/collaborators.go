package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/hammerheart92/StoryForge-sub000/internal/conversation"
	"github.com/hammerheart92/StoryForge-sub000/internal/models"
)

// Mock CharacterCatalog
type CharacterCatalog struct {
	mock.Mock
}

func (m *CharacterCatalog) GetCharacter(id string) (*models.CharacterProfile, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CharacterProfile), args.Error(1)
}

func (m *CharacterCatalog) ListCharacters() []models.CharacterProfile {
	args := m.Called()
	return args.Get(0).([]models.CharacterProfile)
}

// Mock ContentCatalog
type ContentCatalog struct {
	mock.Mock
}

func (m *ContentCatalog) GetContent(ctx context.Context, contentID int64) (*models.ContentInfo, error) {
	args := m.Called(ctx, contentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ContentInfo), args.Error(1)
}

// Mock TextGenerator
type TextGenerator struct {
	mock.Mock
}

func (m *TextGenerator) Generate(ctx context.Context, state *conversation.State) (string, error) {
	args := m.Called(ctx, state)
	return args.String(0), args.Error(1)
}

// Mock EventPublisher
type EventPublisher struct {
	mock.Mock
}

func (m *EventPublisher) PublishGameEvent(ctx context.Context, event models.GameEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}
