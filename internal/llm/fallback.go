package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"

	"github.com/Raymad123/knife-ai/internal/search"
)

const (
	// DefaultModel is the chat model used by the generative fallback.
	DefaultModel = "gpt-3.5-turbo"
	// DefaultTemperature and DefaultMaxTokens bound the fallback answer.
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 300
	// DefaultTimeout is longer than the lookup providers' because a
	// completion is generated, not retrieved.
	DefaultTimeout = 20 * time.Second

	// UnavailableMessage is returned when no credential is configured.
	UnavailableMessage = "Sorry, no information could be found and the generative fallback is unavailable."
	// NoContentMessage is returned when the model answers with nothing.
	NoContentMessage = "Sorry, the generative fallback returned no content."
)

// Fallback is the last rung of the provider chain: it asks a chat model
// directly. It always produces text so the chain never ends empty-handed
// while it is enabled.
type Fallback struct {
	// Client is nil when no credential is configured.
	Client      Client
	Model       string
	Domain      string
	Temperature float32
	MaxTokens   int
	// SystemPrompt overrides the "domain expert" framing.
	SystemPrompt string
	Timeout      time.Duration
}

func (f *Fallback) Name() string { return "llm" }

func (f *Fallback) Fetch(ctx context.Context, query string) search.Result {
	if f.Client == nil {
		return search.Success(f.Name(), UnavailableMessage)
	}
	timeout := f.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := f.Client.CreateChatCompletion(ctx, f.request(query))
	if err != nil {
		log.Warn().Err(err).Str("provider", f.Name()).Msg("chat completion failed")
		return search.Success(f.Name(), fmt.Sprintf("Sorry, the generative fallback failed: %v", err))
	}
	if len(resp.Choices) == 0 {
		return search.Success(f.Name(), NoContentMessage)
	}
	out := strings.TrimSpace(resp.Choices[0].Message.Content)
	if out == "" {
		return search.Success(f.Name(), NoContentMessage)
	}
	return search.Success(f.Name(), out)
}

func (f *Fallback) request(query string) openai.ChatCompletionRequest {
	model := f.Model
	if strings.TrimSpace(model) == "" {
		model = DefaultModel
	}
	temp := f.Temperature
	if temp == 0 {
		temp = DefaultTemperature
	}
	maxTokens := f.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	return openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: f.systemMessage()},
			{Role: openai.ChatMessageRoleUser, Content: "Explain about: " + query},
		},
		Temperature: temp,
		MaxTokens:   maxTokens,
		N:           1,
	}
}

func (f *Fallback) systemMessage() string {
	if s := strings.TrimSpace(f.SystemPrompt); s != "" {
		return s
	}
	domain := strings.TrimSpace(f.Domain)
	if domain == "" {
		return "You are a domain expert. Answer concisely and accurately."
	}
	return "You are an expert on " + domain + " skills."
}
