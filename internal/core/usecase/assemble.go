package usecase

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/wendkuni/burkina-culture-assistant/internal/core/domain"
)

const assistantInstruction = "Tu es un assistant expert sur le Burkina Faso (culture, histoire, traditions)."

// AssembleOptions bound the assembled generation context.
type AssembleOptions struct {
	MaxHistoryTurns int
	TurnMaxChars    int
	MaxContextChars int
	DocMaxChars     int
	MaxDocs         int
}

type AssembleUseCase struct {
	opts AssembleOptions
}

func NewAssembleUseCase(opts AssembleOptions) *AssembleUseCase {
	if opts.MaxHistoryTurns <= 0 {
		opts.MaxHistoryTurns = 10
	}
	if opts.TurnMaxChars <= 0 {
		opts.TurnMaxChars = 150
	}
	if opts.MaxContextChars <= 0 {
		opts.MaxContextChars = 4000
	}
	if opts.DocMaxChars <= 0 {
		opts.DocMaxChars = 500
	}
	if opts.MaxDocs <= 0 {
		opts.MaxDocs = 3
	}
	return &AssembleUseCase{opts: opts}
}

// Build deterministically assembles the bounded context for generation.
// Documents enter in rank order, each annotated with its title as citation
// marker. When the combined context exceeds the budget, documents are dropped
// from the lowest-ranked end; the top match and the question are never cut.
func (uc *AssembleUseCase) Build(question string, matches []domain.RetrievedMatch, history []domain.Turn) domain.PromptContext {
	question = strings.TrimSpace(question)
	window := windowHistory(history, uc.opts.MaxHistoryTurns, uc.opts.TurnMaxChars)

	kept := matches
	if len(kept) > uc.opts.MaxDocs {
		kept = kept[:uc.opts.MaxDocs]
	}
	block := renderContextBlock(kept, uc.opts.DocMaxChars)
	for len(kept) > 1 && contextSize(block, window, question) > uc.opts.MaxContextChars {
		kept = kept[:len(kept)-1]
		block = renderContextBlock(kept, uc.opts.DocMaxChars)
	}

	return domain.PromptContext{
		Instruction:  assistantInstruction,
		ContextBlock: block,
		Question:     question,
		History:      window,
		Matches:      kept,
		Grounded:     len(kept) > 0,
	}
}

// windowHistory keeps the last maxTurns turns in original order, dropping
// blank turns and clipping each content to maxChars runes.
func windowHistory(history []domain.Turn, maxTurns, maxChars int) []domain.Turn {
	if len(history) > maxTurns {
		history = history[len(history)-maxTurns:]
	}
	window := make([]domain.Turn, 0, len(history))
	for _, turn := range history {
		content := strings.TrimSpace(turn.Content)
		if content == "" {
			continue
		}
		window = append(window, domain.Turn{
			Role:    turn.Role,
			Content: clipRunes(content, maxChars),
		})
	}
	return window
}

func renderContextBlock(matches []domain.RetrievedMatch, docMaxChars int) string {
	if len(matches) == 0 {
		return ""
	}
	entries := make([]string, 0, len(matches))
	for i, match := range matches {
		entries = append(entries, fmt.Sprintf("Document %d - %s :\n%s",
			i+1, match.Document.Title, clipRunes(match.Document.Body, docMaxChars)))
	}
	return strings.Join(entries, "\n\n")
}

func contextSize(block string, history []domain.Turn, question string) int {
	size := utf8.RuneCountInString(assistantInstruction) +
		utf8.RuneCountInString(block) +
		utf8.RuneCountInString(question)
	for _, turn := range history {
		size += utf8.RuneCountInString(turn.Content) + len(turn.Role) + 2
	}
	return size
}

func clipRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}
