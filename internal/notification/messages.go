package notification

import (
	"fmt"
	"strings"

	"realty_portal_backend/internal/events"
)

func leadBroadcastMessage(lead events.LeadSnapshot, keyword string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🏠 *Novo lead*\n\nNome: %s\nTelefone: %s\nMensagem: %s\n", lead.Name, lead.Phone, lead.Message)
	fmt.Fprintf(&b, "\nResponda *%s* para assumir este atendimento.\nID: %s", keyword, lead.ID)
	return b.String()
}

func winnerMessage(lead events.LeadSnapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "✅ Você assumiu o lead *%s*.\nTelefone: %s\nMensagem: %s", lead.Name, lead.Phone, lead.Message)
	if lead.AIReply != "" {
		fmt.Fprintf(&b, "\n\nSugestão de resposta:\n%s", lead.AIReply)
	}
	return b.String()
}

func takenMessage(lead events.LeadSnapshot, winner string) string {
	return fmt.Sprintf("O lead *%s* já foi assumido por %s.", lead.Name, winner)
}
