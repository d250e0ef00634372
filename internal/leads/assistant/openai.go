package assistant

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIDrafter drafts replies with the chat completions API.
type OpenAIDrafter struct {
	client chatCompleter
	model  string
}

func NewOpenAIDrafter(apiKey, model string) *OpenAIDrafter {
	return &OpenAIDrafter{client: openai.NewClient(apiKey), model: model}
}

func (d *OpenAIDrafter) DraftReply(ctx context.Context, contactName, message string) (string, error) {
	resp, err := d.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: d.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt(contactName, message)},
		},
		Temperature: temperature,
		MaxTokens:   maxReplyTokens,
	})
	if err != nil {
		return "", fmt.Errorf("openai draft: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai draft: %w", errEmptyDraft)
	}
	return cleanDraft(resp.Choices[0].Message.Content)
}
