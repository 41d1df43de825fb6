package semdiff

import (
	"context"
	"fmt"

	anthropic "github.com/liushuangls/go-anthropic/v2"
)

// AnthropicProvider analyzes prompt diffs with Anthropic Claude.
type AnthropicProvider struct {
	client *anthropic.Client
	model  string
}

// NewAnthropicProvider returns a provider using the given API key and model.
func NewAnthropicProvider(apiKey, model string) *AnthropicProvider {
	return &AnthropicProvider{
		client: anthropic.NewClient(apiKey),
		model:  model,
	}
}

func (p *AnthropicProvider) AnalyzeDiff(ctx context.Context, oldPrompt, newPrompt string) (map[string]any, error) {
	temperature := float32(0.1)
	resp, err := p.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model: anthropic.Model(p.model),
		Messages: []anthropic.Message{
			{
				Role: anthropic.RoleUser,
				Content: []anthropic.MessageContent{
					anthropic.NewTextMessageContent(buildAnalysisPrompt(oldPrompt, newPrompt)),
				},
			},
		},
		MaxTokens:   4096,
		Temperature: &temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("anthropic request failed: %w", err)
	}

	var text string
	for _, block := range resp.Content {
		if block.Type == anthropic.MessagesContentTypeText && block.Text != nil {
			text += *block.Text
		}
	}
	if text == "" {
		return nil, fmt.Errorf("anthropic returned no text content")
	}
	return parseAnalysisResponse(text), nil
}
