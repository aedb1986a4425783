package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/hammerheart92/StoryForge-sub000/internal/conversation"
	"github.com/hammerheart92/StoryForge-sub000/internal/interfaces"
	"github.com/hammerheart92/StoryForge-sub000/internal/metrics"
	"github.com/hammerheart92/StoryForge-sub000/internal/models"
	"github.com/hammerheart92/StoryForge-sub000/internal/prompt"
)

// TurnResult is the outcome of one successful dialogue turn.
type TurnResult struct {
	Reply        string `json:"reply"`
	Mood         string `json:"mood"`
	MessageCount int    `json:"message_count"`
}

// DialogueService runs dialogue turns against session-keyed conversation
// state. Turns for the same session token serialize on a per-token lock so
// two concurrent requests cannot interleave appends on one buffer.
type DialogueService struct {
	characters interfaces.CharacterCatalog
	generator  interfaces.TextGenerator
	sessions   conversation.Store
	logger     *zap.Logger

	sessionLocks sync.Map // token -> *sync.Mutex
}

// NewDialogueService creates the dialogue service.
func NewDialogueService(
	characters interfaces.CharacterCatalog,
	generator interfaces.TextGenerator,
	sessions conversation.Store,
	logger *zap.Logger,
) *DialogueService {
	return &DialogueService{
		characters: characters,
		generator:  generator,
		sessions:   sessions,
		logger:     logger.Named("DialogueService"),
	}
}

// GenerateResponse runs one turn on the given state: resolves the character,
// installs the composed system prompt, appends the user message, calls the
// generator and, only on success, appends the assistant reply.
//
// The user message is appended before the outbound call. If generation fails
// the message is NOT rolled back: the conversation is intentionally left in a
// "pending reply" shape and the caller sees models.ErrGenerationFailed.
// A missing character fails before any mutation.
func (s *DialogueService) GenerateResponse(ctx context.Context, state *conversation.State, characterID, userInput string) (*TurnResult, error) {
	if isBlank(userInput) {
		return nil, fmt.Errorf("%w: user input must not be blank", models.ErrInvalidInput)
	}
	if state == nil {
		return nil, fmt.Errorf("%w: conversation state is required", models.ErrInvalidInput)
	}

	profile, err := s.characters.GetCharacter(characterID)
	if err != nil {
		return nil, err
	}

	systemPrompt := prompt.Compose(*profile, "")
	state.SetSystemPrompt(&systemPrompt)
	if err := state.AppendUserMessage(userInput); err != nil {
		return nil, err
	}

	reply, err := s.generator.Generate(ctx, state)
	if err != nil {
		metrics.GenerationFailures.Inc()
		s.logger.Warn("Generation failed, user message left pending",
			zap.String("characterID", characterID), zap.Int("messageCount", state.MessageCount()), zap.Error(err))
		return nil, fmt.Errorf("turn failed for character %s: %w", characterID, err)
	}

	if err := state.AppendAssistantMessage(reply); err != nil {
		return nil, err
	}
	metrics.DialogueTurns.Inc()

	return &TurnResult{
		Reply:        reply,
		Mood:         prompt.ClassifyMood(reply, *profile),
		MessageCount: state.MessageCount(),
	}, nil
}

// GenerateTurn resolves the session's conversation state by token, runs one
// turn and writes the updated state back. An unknown token starts a fresh
// conversation.
func (s *DialogueService) GenerateTurn(ctx context.Context, sessionToken, characterID, userInput string) (*TurnResult, error) {
	if isBlank(sessionToken) {
		return nil, fmt.Errorf("%w: session token is required", models.ErrInvalidInput)
	}

	unlock := s.lockSession(sessionToken)
	defer unlock()

	state, err := s.sessions.Get(ctx, sessionToken)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			return nil, err
		}
		state = conversation.NewState()
	}

	result, turnErr := s.GenerateResponse(ctx, state, characterID, userInput)
	if turnErr != nil && state.IsEmpty() {
		// Nothing was appended; do not create an empty session.
		return nil, turnErr
	}
	// Persist the state even after a failed generation so the pending user
	// message survives for the next attempt.
	if err := s.sessions.Put(ctx, sessionToken, state); err != nil {
		return nil, err
	}
	if turnErr != nil {
		return nil, turnErr
	}
	return result, nil
}

// ResolveSession returns the state for a token, or models.ErrNotFound. It
// takes the session lock, so a snapshot requested during an in-flight turn
// waits for that turn to finish instead of observing it halfway.
func (s *DialogueService) ResolveSession(ctx context.Context, sessionToken string) (*conversation.State, error) {
	unlock := s.lockSession(sessionToken)
	defer unlock()
	return s.sessions.Get(ctx, sessionToken)
}

// ReplaceSession installs state under a token, replacing any previous
// conversation wholesale (used on save-slot load).
func (s *DialogueService) ReplaceSession(ctx context.Context, sessionToken string, state *conversation.State) error {
	if isBlank(sessionToken) {
		return fmt.Errorf("%w: session token is required", models.ErrInvalidInput)
	}
	unlock := s.lockSession(sessionToken)
	defer unlock()
	return s.sessions.Put(ctx, sessionToken, state)
}

// ResetSession drops the conversation for a token.
func (s *DialogueService) ResetSession(ctx context.Context, sessionToken string) error {
	unlock := s.lockSession(sessionToken)
	defer unlock()
	return s.sessions.Delete(ctx, sessionToken)
}

func (s *DialogueService) lockSession(token string) func() {
	value, _ := s.sessionLocks.LoadOrStore(token, &sync.Mutex{})
	mu := value.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}
