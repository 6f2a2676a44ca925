package llm

import (
	"context"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
)

// Client is the minimal interface needed by core logic to call a chat model.
// It mirrors the CreateChatCompletion method of go-openai so that any
// OpenAI-compatible backend or a test fake can be plugged in.
type Client interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIProvider adapts *openai.Client to Client and to the image generation
// interface used by internal/imagegen.
type OpenAIProvider struct {
	Inner *openai.Client
}

// NewOpenAIProvider builds a provider for apiKey. An empty apiKey returns nil:
// callers treat a nil provider as "credential not configured".
func NewOpenAIProvider(apiKey string, baseURL string, hc *http.Client) *OpenAIProvider {
	if apiKey == "" {
		return nil
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if hc != nil {
		cfg.HTTPClient = hc
	}
	return &OpenAIProvider{Inner: openai.NewClientWithConfig(cfg)}
}

func (p *OpenAIProvider) CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	return p.Inner.CreateChatCompletion(ctx, request)
}

func (p *OpenAIProvider) CreateImage(ctx context.Context, request openai.ImageRequest) (openai.ImageResponse, error) {
	return p.Inner.CreateImage(ctx, request)
}
