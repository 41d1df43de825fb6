package semdiff

import (
	"context"
	"fmt"

	openai "github.com/meguminnnnnnnnn/go-openai"
)

// OpenAIProvider analyzes prompt diffs with the OpenAI chat API, or any
// OpenAI-compatible endpoint via a custom base URL.
type OpenAIProvider struct {
	client *openai.Client
	model  string
}

// NewOpenAIProvider returns a provider using the given API key and model.
// baseURL may be empty for the default endpoint.
func NewOpenAIProvider(apiKey, model, baseURL string) *OpenAIProvider {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIProvider{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

func (p *OpenAIProvider) AnalyzeDiff(ctx context.Context, oldPrompt, newPrompt string) (map[string]any, error) {
	temperature := float32(0.1)
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: buildAnalysisPrompt(oldPrompt, newPrompt),
			},
		},
		Temperature: &temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("openai request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai returned no choices")
	}
	return parseAnalysisResponse(resp.Choices[0].Message.Content), nil
}
