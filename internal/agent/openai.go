package agent

// #region imports
import (
	"context"
	"fmt"
	"os"

	openai "github.com/sashabaranov/go-openai"
)

// #endregion

// #region constants

const (
	defaultOpenAIModel = "gpt-4o-mini"
	defaultGroqModel   = "llama3-70b-8192"
	groqBaseURL        = "https://api.groq.com/openai/v1"
)

// #endregion

// #region chat-backend

// ChatBackend talks to any OpenAI-compatible chat completion API. Groq
// exposes the same wire protocol, so both supported backends share this
// implementation and differ only in base URL, key, and default model.
type ChatBackend struct {
	client *openai.Client
	params Params
}

// NewOpenAIBackend creates a backend for the OpenAI API. The key comes from
// OPENAI_API_KEY.
func NewOpenAIBackend(params Params) (*ChatBackend, error) {
	key := os.Getenv("OPENAI_API_KEY")
	if key == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
	}
	if params.Model == "" {
		params.Model = defaultOpenAIModel
	}
	return &ChatBackend{
		client: openai.NewClient(key),
		params: params,
	}, nil
}

// NewGroqBackend creates a backend for Groq's OpenAI-compatible endpoint.
// The key comes from GROQ_API_KEY.
func NewGroqBackend(params Params) (*ChatBackend, error) {
	key := os.Getenv("GROQ_API_KEY")
	if key == "" {
		return nil, fmt.Errorf("GROQ_API_KEY environment variable not set")
	}
	if params.Model == "" {
		params.Model = defaultGroqModel
	}
	cfg := openai.DefaultConfig(key)
	cfg.BaseURL = groqBaseURL
	return &ChatBackend{
		client: openai.NewClientWithConfig(cfg),
		params: params,
	}, nil
}

// NewBackend constructs the backend named by kind ("openai" or "groq").
func NewBackend(kind string, params Params) (Backend, error) {
	switch kind {
	case "openai":
		return NewOpenAIBackend(params)
	case "groq":
		return NewGroqBackend(params)
	default:
		return nil, fmt.Errorf("unknown backend %q", kind)
	}
}

// #endregion

// #region chat-completion

// ChatCompletion implements Backend.
func (b *ChatBackend) ChatCompletion(ctx context.Context, system, user string) (string, error) {
	resp, err := b.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: b.params.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: b.params.Temperature,
		MaxTokens:   b.params.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion: no choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}

// #endregion
