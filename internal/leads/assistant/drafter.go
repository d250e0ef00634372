// Package assistant drafts a first WhatsApp reply to an inbound lead. The
// draft is attached to the lead and shown to the agent who assumes it.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"realty_portal_backend/internal/leads/ports"
	"realty_portal_backend/platform/config"
)

const (
	systemPrompt = `Você é assistente de uma imobiliária brasileira. Escreva uma primeira resposta
curta (no máximo 3 frases) e cordial, em português, para o cliente que enviou a mensagem.
Não invente imóveis, preços ou condições. Não use markdown.`

	maxReplyTokens = 200
	temperature    = 0.4
)

var errEmptyDraft = errors.New("empty draft")

func userPrompt(contactName, message string) string {
	return fmt.Sprintf("Cliente: %s\nMensagem: %s", contactName, message)
}

func cleanDraft(s string) (string, error) {
	s = strings.TrimSpace(strings.Trim(strings.TrimSpace(s), `"`))
	if s == "" {
		return "", errEmptyDraft
	}
	return s, nil
}

// NewFromConfig returns the drafter selected by AI_PROVIDER, or nil when
// drafting is disabled.
func NewFromConfig(ctx context.Context, cfg config.AIConfig) (ports.ReplyDrafter, error) {
	switch cfg.GetAIProvider() {
	case "":
		return nil, nil
	case "openai":
		return NewOpenAIDrafter(cfg.GetOpenAIAPIKey(), cfg.GetOpenAIModel()), nil
	case "gemini":
		d, err := NewGeminiDrafter(ctx, cfg.GetGeminiAPIKey(), cfg.GetGeminiModel())
		if err != nil {
			return nil, err
		}
		return d, nil
	default:
		return nil, fmt.Errorf("unknown AI provider %q", cfg.GetAIProvider())
	}
}
