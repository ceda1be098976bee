package usecase

import "strings"

var greetingWords = []string{"bonjour", "salut", "bonsoir", "coucou", "hey", "hello", "hi"}

const greetingAnswer = "Bonjour ! Je suis BurkinaHeritage, votre assistant culturel sur le Burkina Faso. " +
	"Posez-moi des questions sur la culture, l'histoire, les traditions ou l'architecture du pays."

// IsGreeting reports whether the question is a bare salutation. Salutations
// are answered directly, without retrieval or remote generation.
func IsGreeting(question string) bool {
	normalized := strings.ToLower(strings.TrimSpace(question))
	normalized = strings.TrimRight(normalized, " !.")
	for _, greeting := range greetingWords {
		if normalized == greeting {
			return true
		}
	}
	return false
}
