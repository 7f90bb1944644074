package openlearnhub

import (
	"context"
	"fmt"
	"log"

	openai "github.com/sashabaranov/go-openai"
)

const (
	// DefaultCompletionBaseURL is the OpenRouter OpenAI-compatible endpoint.
	DefaultCompletionBaseURL = "https://openrouter.ai/api/v1"

	// RecommendModel answers course recommendation prompts.
	RecommendModel = "mistralai/mistral-7b-instruct"
	// QuizModel generates quiz questions.
	QuizModel = "deepseek/deepseek-r1-0528:free"

	// CompletionUnavailable is the fixed sentinel returned to callers on
	// the degrade-not-crash recommendation path. The quiz pipeline uses
	// Complete directly so this string can never be mistaken for quiz text.
	CompletionUnavailable = "AI service is currently unavailable."

	recommendSystemPrompt = "You are a helpful and friendly course recommendation assistant."
)

// CompletionClient sends prompts to the completion provider. Single
// attempt per call; no retry and no timeout beyond the transport default.
type CompletionClient struct {
	client *openai.Client
}

// NewCompletionClient creates a completion client for the given API key.
// An empty baseURL uses the OpenRouter endpoint.
func NewCompletionClient(apiKey, baseURL string) *CompletionClient {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL == "" {
		baseURL = DefaultCompletionBaseURL
	}
	cfg.BaseURL = baseURL
	return &CompletionClient{
		client: openai.NewClientWithConfig(cfg),
	}
}

// Complete sends a system+user prompt pair to the given model and
// returns the raw text of the first choice. It fails on transport
// errors and on responses with no content.
func (cc *CompletionClient) Complete(ctx context.Context, systemPrompt, userPrompt, model string) (string, error) {
	resp, err := cc.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleSystem,
					Content: systemPrompt,
				},
				{
					Role:    openai.ChatMessageRoleUser,
					Content: userPrompt,
				},
			},
		},
	)
	if err != nil {
		return "", fmt.Errorf("completion request failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in completion response")
	}
	return resp.Choices[0].Message.Content, nil
}

// Recommend returns a course recommendation for the user's input. Any
// provider failure degrades to the fixed unavailable sentinel rather
// than failing the caller.
func (cc *CompletionClient) Recommend(ctx context.Context, userInput string) string {
	text, err := cc.Complete(ctx, recommendSystemPrompt, userInput, RecommendModel)
	if err != nil {
		log.Printf("Recommendation completion failed: %v", err)
		return CompletionUnavailable
	}
	if text == "" {
		log.Printf("Recommendation completion returned empty content")
		return CompletionUnavailable
	}
	return text
}
