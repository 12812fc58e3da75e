package assistant

import (
	"context"
	"errors"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// Turn roles, derived from the message sender and never stored.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one conversational turn in provider order.
type Turn struct {
	Role    string
	Content string
}

// Provider generates one assistant reply from prior turns plus the current
// user input.
type Provider interface {
	Complete(ctx context.Context, model string, prior []Turn, current string) (string, error)
}

var errEmptyCompletion = errors.New("provider returned an empty response")

// OpenAIProvider calls an OpenAI-compatible chat-completion endpoint.
type OpenAIProvider struct {
	client       *openai.Client
	systemPrompt string
	temperature  float32
	maxTokens    int
}

type OpenAIConfig struct {
	APIKey       string
	BaseURL      string
	SystemPrompt string
	Temperature  float64
	MaxTokens    int
}

func NewOpenAIProvider(cfg OpenAIConfig) *OpenAIProvider {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &OpenAIProvider{
		client:       openai.NewClientWithConfig(clientCfg),
		systemPrompt: cfg.SystemPrompt,
		temperature:  float32(cfg.Temperature),
		maxTokens:    cfg.MaxTokens,
	}
}

func (p *OpenAIProvider) Complete(ctx context.Context, model string, prior []Turn, current string) (string, error) {
	msgs := make([]openai.ChatCompletionMessage, 0, len(prior)+2)
	if p.systemPrompt != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: p.systemPrompt,
		})
	}
	for _, turn := range prior {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: turn.Role, Content: turn.Content})
	}
	msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: current})

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		Messages:    msgs,
		Temperature: p.temperature,
		MaxTokens:   p.maxTokens,
	})
	if err != nil {
		// Not wrapped with extra context: the classifier inspects the raw
		// provider error via errors.As.
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errEmptyCompletion
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", errEmptyCompletion
	}
	return text, nil
}

var _ Provider = (*OpenAIProvider)(nil)
