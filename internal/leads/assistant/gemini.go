package assistant

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiDrafter drafts replies with the Gemini API.
type GeminiDrafter struct {
	models contentGenerator
	model  string
}

func NewGeminiDrafter(ctx context.Context, apiKey, model string) (*GeminiDrafter, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return &GeminiDrafter{models: client.Models, model: model}, nil
}

func (d *GeminiDrafter) DraftReply(ctx context.Context, contactName, message string) (string, error) {
	resp, err := d.models.GenerateContent(ctx, d.model,
		genai.Text(userPrompt(contactName, message)),
		&genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
			Temperature:       genai.Ptr[float32](temperature),
			MaxOutputTokens:   maxReplyTokens,
		},
	)
	if err != nil {
		return "", fmt.Errorf("gemini draft: %w", err)
	}
	return cleanDraft(resp.Text())
}
