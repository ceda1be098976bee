// Package prompt flattens an assembled context into the flat text prompt
// shared by the remote generation backends.
package prompt

import (
	"strings"

	"github.com/wendkuni/burkina-culture-assistant/internal/core/domain"
)

// Render lays the prompt out as instruction, conversation history, document
// context and question. History and context arrive already windowed and
// clipped, Render only formats.
func Render(pc domain.PromptContext) string {
	var b strings.Builder

	b.WriteString(pc.Instruction)
	b.WriteString("\n\n")

	if len(pc.History) > 0 {
		b.WriteString("Historique de la conversation :\n")
		for _, turn := range pc.History {
			b.WriteString(RoleLabel(turn.Role))
			b.WriteString(" : ")
			b.WriteString(turn.Content)
			b.WriteByte('\n')
		}
		b.WriteByte('\n')
	}

	if strings.TrimSpace(pc.ContextBlock) != "" {
		b.WriteString("Contexte documentaire :\n")
		b.WriteString(pc.ContextBlock)
		b.WriteString("\n\n")
	} else {
		b.WriteString("Aucun document pertinent n'a été trouvé dans la base documentaire.\n\n")
	}

	b.WriteString("Question : ")
	b.WriteString(pc.Question)
	b.WriteString("\n\nRéponse (en français, concise et basée uniquement sur le contexte documentaire ci-dessus) :")
	return b.String()
}

func RoleLabel(role domain.Role) string {
	if role == domain.RoleAssistant {
		return "Assistant"
	}
	return "Utilisateur"
}
