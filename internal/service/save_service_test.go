package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hammerheart92/StoryForge-sub000/internal/conversation"
	"github.com/hammerheart92/StoryForge-sub000/internal/interfaces/mocks"
	"github.com/hammerheart92/StoryForge-sub000/internal/models"
)

func sampleState(t *testing.T) *conversation.State {
	t.Helper()
	state := conversation.NewState()
	require.NoError(t, state.AppendUserMessage("look around"))
	require.NoError(t, state.AppendAssistantMessage("You see ruins."))
	require.NoError(t, state.AppendUserMessage("enter the ruins"))
	return state
}

func TestSaveService_SaveOrUpdate(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("SerializesStateIntoSlot", func(t *testing.T) {
		repo := new(mocks.SaveRepository)
		svc := NewSaveService(repo, nil, 3, zap.NewNop())
		state := sampleState(t)

		var captured *models.SaveSlot
		repo.On("Upsert", ctx, mock.AnythingOfType("*models.SaveSlot")).
			Run(func(args mock.Arguments) {
				captured = args.Get(1).(*models.SaveSlot)
			}).Return(nil)

		require.NoError(t, svc.SaveOrUpdate(ctx, "story-1", 2, userID, state, "mira"))

		require.NotNil(t, captured)
		assert.Equal(t, "story-1", captured.StoryID)
		assert.Equal(t, 2, captured.SlotIndex)
		assert.Equal(t, userID, captured.UserID)
		assert.Equal(t, "mira", captured.CurrentSpeaker)
		assert.Equal(t, 3, captured.MessageCount)
		assert.Equal(t, 2, captured.ChoiceCount)

		restored, err := conversation.Deserialize(captured.State)
		require.NoError(t, err)
		assert.Equal(t, state.Snapshot(), restored.Snapshot())
	})

	t.Run("ValidatesKey", func(t *testing.T) {
		repo := new(mocks.SaveRepository)
		svc := NewSaveService(repo, nil, 3, zap.NewNop())
		state := sampleState(t)

		err := svc.SaveOrUpdate(ctx, "  ", 1, userID, state, "")
		assert.ErrorIs(t, err, models.ErrInvalidInput)

		err = svc.SaveOrUpdate(ctx, "story-1", 0, userID, state, "")
		assert.ErrorIs(t, err, models.ErrInvalidSlot)

		err = svc.SaveOrUpdate(ctx, "story-1", 4, userID, state, "")
		assert.ErrorIs(t, err, models.ErrInvalidSlot)

		err = svc.SaveOrUpdate(ctx, "story-1", 1, userID, nil, "")
		assert.ErrorIs(t, err, models.ErrInvalidInput)

		repo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
	})

	t.Run("HonorsConfiguredSlotLimit", func(t *testing.T) {
		repo := new(mocks.SaveRepository)
		svc := NewSaveService(repo, nil, 5, zap.NewNop())
		repo.On("Upsert", ctx, mock.Anything).Return(nil)

		assert.NoError(t, svc.SaveOrUpdate(ctx, "story-1", 5, userID, sampleState(t), ""))
		assert.ErrorIs(t, svc.SaveOrUpdate(ctx, "story-1", 6, userID, sampleState(t), ""), models.ErrInvalidSlot)
	})
}

func TestSaveService_Load(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("RoundTripsThroughSlot", func(t *testing.T) {
		repo := new(mocks.SaveRepository)
		svc := NewSaveService(repo, nil, 3, zap.NewNop())
		state := sampleState(t)
		payload, err := state.Serialize()
		require.NoError(t, err)

		repo.On("Get", ctx, "story-1", 1, userID).Return(&models.SaveSlot{
			StoryID: "story-1", SlotIndex: 1, UserID: userID, State: payload,
		}, nil)

		restored, slot, err := svc.Load(ctx, "story-1", 1, userID)
		require.NoError(t, err)
		assert.Equal(t, "story-1", slot.StoryID)
		assert.Equal(t, state.Snapshot(), restored.Snapshot())
	})

	t.Run("MissingSlot", func(t *testing.T) {
		repo := new(mocks.SaveRepository)
		svc := NewSaveService(repo, nil, 3, zap.NewNop())
		repo.On("Get", ctx, "story-1", 1, userID).Return(nil, models.ErrSaveNotFound)

		_, _, err := svc.Load(ctx, "story-1", 1, userID)
		assert.ErrorIs(t, err, models.ErrSaveNotFound)
	})

	t.Run("CorruptPayloadSurfacesTypedError", func(t *testing.T) {
		repo := new(mocks.SaveRepository)
		svc := NewSaveService(repo, nil, 3, zap.NewNop())
		repo.On("Get", ctx, "story-1", 1, userID).Return(&models.SaveSlot{State: "{broken"}, nil)

		_, _, err := svc.Load(ctx, "story-1", 1, userID)
		assert.ErrorIs(t, err, models.ErrCorruptSaveData)
	})
}

func TestSaveService_MarkCompleted(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("PublishesCompletionEvent", func(t *testing.T) {
		repo := new(mocks.SaveRepository)
		events := new(mocks.EventPublisher)
		svc := NewSaveService(repo, events, 3, zap.NewNop())

		repo.On("MarkCompleted", ctx, "story-1", 1, userID, "ending-good").Return(nil)
		events.On("PublishGameEvent", ctx, mock.MatchedBy(func(e models.GameEvent) bool {
			return e.Type == models.EventStoryCompleted && e.StoryID == "story-1" && e.EndingID == "ending-good"
		})).Return(nil)

		require.NoError(t, svc.MarkCompleted(ctx, "story-1", 1, userID, "ending-good"))
		events.AssertExpectations(t)
	})

	t.Run("EventFailureDoesNotFailCompletion", func(t *testing.T) {
		repo := new(mocks.SaveRepository)
		events := new(mocks.EventPublisher)
		svc := NewSaveService(repo, events, 3, zap.NewNop())

		repo.On("MarkCompleted", ctx, "story-1", 1, userID, "ending-good").Return(nil)
		events.On("PublishGameEvent", ctx, mock.Anything).Return(assert.AnError)

		assert.NoError(t, svc.MarkCompleted(ctx, "story-1", 1, userID, "ending-good"))
	})

	t.Run("BlankEndingRejected", func(t *testing.T) {
		repo := new(mocks.SaveRepository)
		svc := NewSaveService(repo, nil, 3, zap.NewNop())

		err := svc.MarkCompleted(ctx, "story-1", 1, userID, "  ")
		assert.ErrorIs(t, err, models.ErrInvalidInput)
		repo.AssertNotCalled(t, "MarkCompleted", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("MissingSlotPropagates", func(t *testing.T) {
		repo := new(mocks.SaveRepository)
		svc := NewSaveService(repo, nil, 3, zap.NewNop())
		repo.On("MarkCompleted", ctx, "story-1", 1, userID, "ending-good").Return(models.ErrSaveNotFound)

		assert.ErrorIs(t, svc.MarkCompleted(ctx, "story-1", 1, userID, "ending-good"), models.ErrSaveNotFound)
	})
}

func TestSaveService_Lists(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("ListByStoryValidatesStoryID", func(t *testing.T) {
		repo := new(mocks.SaveRepository)
		svc := NewSaveService(repo, nil, 3, zap.NewNop())

		_, err := svc.ListByStory(ctx, "  ", userID)
		assert.ErrorIs(t, err, models.ErrInvalidInput)
	})

	t.Run("ListByUserPassesThrough", func(t *testing.T) {
		repo := new(mocks.SaveRepository)
		svc := NewSaveService(repo, nil, 3, zap.NewNop())
		expected := []*models.SaveSlot{{StoryID: "story-1", SlotIndex: 1}}
		repo.On("ListByUser", ctx, userID).Return(expected, nil)

		got, err := svc.ListByUser(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, expected, got)
	})
}
