// Package template composes answers directly from the retrieved documents.
// It is the last generation tier and the whole chain's availability floor:
// it needs no network and never fails.
package template

import (
	"context"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/wendkuni/burkina-culture-assistant/internal/core/domain"
)

const noInfoAnswer = "Je n'ai pas trouvé de source fiable sur ce sujet dans ma base documentaire. " +
	"Posez-moi des questions sur la culture, l'histoire ou le patrimoine du Burkina Faso, " +
	"par exemple : \"Qu'est-ce que le SIAO ?\", \"Parle-moi du FESPACO\" ou \"Qui est Thomas Sankara ?\"."

var (
	sentenceSplit = regexp.MustCompile(`[.!?]\s+`)

	whatQuestionMarkers = []string{"qu'est-ce", "c'est quoi", "what is", "définition"}
	cultureMarkers      = []string{"culture", "traditions", "patrimoine", "burkinab"}
)

type Options struct {
	MaxDocs          int
	MaxSentences     int
	MaxWords         int
	MinSentenceChars int
	MaxAnswerChars   int
}

type Composer struct {
	opts Options
}

func New(opts Options) *Composer {
	if opts.MaxDocs <= 0 {
		opts.MaxDocs = 3
	}
	if opts.MaxSentences <= 0 {
		opts.MaxSentences = 4
	}
	if opts.MaxWords <= 0 {
		opts.MaxWords = 250
	}
	if opts.MinSentenceChars <= 0 {
		opts.MinSentenceChars = 25
	}
	if opts.MaxAnswerChars <= 0 {
		opts.MaxAnswerChars = 600
	}
	return &Composer{opts: opts}
}

func (c *Composer) Name() string { return "template" }

// Generate synthesizes an extractive answer from the top documents: distinct
// sentences in rank order, bounded by sentence and word budgets. Without any
// document it states that no reliable source was found. The error result is
// always nil.
func (c *Composer) Generate(_ context.Context, pc domain.PromptContext) (string, error) {
	if len(pc.Matches) == 0 {
		return noInfoAnswer, nil
	}

	docs := pc.Matches
	if len(docs) > c.opts.MaxDocs {
		docs = docs[:c.opts.MaxDocs]
	}

	intro := answerIntro(pc.Question)
	sentences := c.collectSentences(docs)
	if len(sentences) == 0 {
		// Bodies without a single usable sentence still get an excerpt.
		return c.clipAnswer(intro + excerpt(docs[0].Document.Body, 400)), nil
	}

	answer := strings.TrimSpace(intro + strings.Join(sentences, ". "))
	if !strings.HasSuffix(answer, ".") && !strings.HasSuffix(answer, "!") && !strings.HasSuffix(answer, "?") {
		answer += "."
	}
	return c.clipAnswer(answer), nil
}

// collectSentences walks documents in rank order and keeps sentences long
// enough to stand alone, skipping exact repeats, until either budget is hit.
func (c *Composer) collectSentences(matches []domain.RetrievedMatch) []string {
	kept := make([]string, 0, c.opts.MaxSentences)
	seen := make(map[string]struct{})
	words := 0

	for _, match := range matches {
		body := strings.TrimSpace(match.Document.Body)
		if body == "" {
			continue
		}
		for _, sentence := range sentenceSplit.Split(body, -1) {
			sentence = strings.TrimSpace(sentence)
			if utf8.RuneCountInString(sentence) < c.opts.MinSentenceChars {
				continue
			}
			if _, dup := seen[sentence]; dup {
				continue
			}
			count := len(strings.Fields(sentence))
			if words+count > c.opts.MaxWords {
				break
			}
			seen[sentence] = struct{}{}
			kept = append(kept, strings.TrimRight(sentence, ".!?"))
			words += count
			if len(kept) >= c.opts.MaxSentences {
				break
			}
		}
		if words >= c.opts.MaxWords || len(kept) >= c.opts.MaxSentences {
			break
		}
	}
	return kept
}

func (c *Composer) clipAnswer(answer string) string {
	runes := []rune(answer)
	if len(runes) <= c.opts.MaxAnswerChars {
		return answer
	}
	return string(runes[:c.opts.MaxAnswerChars-3]) + "..."
}

func answerIntro(question string) string {
	q := strings.ToLower(question)
	for _, marker := range whatQuestionMarkers {
		if strings.Contains(q, marker) {
			return "Voici ce que je peux vous dire : "
		}
	}
	for _, marker := range cultureMarkers {
		if strings.Contains(q, marker) {
			return "Concernant la culture burkinabè : "
		}
	}
	return ""
}

func excerpt(body string, limit int) string {
	body = strings.TrimSpace(body)
	runes := []rune(body)
	if len(runes) <= limit {
		return body
	}
	return strings.TrimSpace(string(runes[:limit])) + "..."
}
