package clients

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/hammerheart92/StoryForge-sub000/internal/conversation"
	"github.com/hammerheart92/StoryForge-sub000/internal/interfaces"
	"github.com/hammerheart92/StoryForge-sub000/internal/models"
)

// Compile-time check to ensure implementation satisfies the interface.
var _ interfaces.TextGenerator = (*OpenAIGenerator)(nil)

// GeneratorConfig holds the settings for the text generation client.
type GeneratorConfig struct {
	APIKey    string
	BaseURL   string // optional, e.g. an OpenRouter-compatible endpoint
	Model     string
	Timeout   time.Duration
	MaxTokens int
}

// OpenAIGenerator performs the outbound chat-completion call. One request per
// turn, bounded by the configured timeout; a failed or timed-out call is
// terminal for that turn and is never retried here.
type OpenAIGenerator struct {
	client    *openai.Client
	model     string
	timeout   time.Duration
	maxTokens int
	logger    *zap.Logger
}

// NewOpenAIGenerator creates the generation client.
func NewOpenAIGenerator(cfg GeneratorConfig, logger *zap.Logger) (*OpenAIGenerator, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("generator API key is not set")
	}
	if cfg.Model == "" {
		cfg.Model = openai.GPT4oMini
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 1024
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	return &OpenAIGenerator{
		client:    openai.NewClientWithConfig(clientConfig),
		model:     cfg.Model,
		timeout:   cfg.Timeout,
		maxTokens: cfg.MaxTokens,
		logger:    logger.Named("OpenAIGenerator"),
	}, nil
}

// Generate sends the full conversation buffer and returns the assistant text.
func (g *OpenAIGenerator) Generate(ctx context.Context, state *conversation.State) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	messages := make([]openai.ChatCompletionMessage, 0, state.MessageCount()+1)
	if prompt := state.SystemPrompt(); prompt != nil {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: *prompt,
		})
	}
	for _, msg := range state.Snapshot() {
		role := openai.ChatMessageRoleUser
		if msg.Role == models.RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: msg.Content})
	}

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       g.model,
		Messages:    messages,
		Temperature: 0.8,
		MaxTokens:   g.maxTokens,
		TopP:        0.95,
	})
	if err != nil {
		g.logger.Warn("Chat completion failed", zap.String("model", g.model), zap.Error(err))
		return "", fmt.Errorf("%w: %v", models.ErrGenerationFailed, err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		g.logger.Warn("Chat completion returned no choices", zap.String("model", g.model))
		return "", fmt.Errorf("%w: empty response", models.ErrGenerationFailed)
	}
	return resp.Choices[0].Message.Content, nil
}
