package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/wendkuni/burkina-culture-assistant/internal/core/domain"
	"github.com/wendkuni/burkina-culture-assistant/internal/core/ports"
)

// IngestCorpusUseCase turns extracted source segments into the canonical
// corpus: clean whitespace, drop unusable text, window long segments into
// passages, attach a category and a title, persist the result.
type IngestCorpusUseCase struct {
	chunker ports.Chunker
	writer  ports.CorpusWriter
}

func NewIngestCorpusUseCase(chunker ports.Chunker, writer ports.CorpusWriter) *IngestCorpusUseCase {
	return &IngestCorpusUseCase{
		chunker: chunker,
		writer:  writer,
	}
}

// BuildCorpus processes segments in order and saves the assembled corpus.
// Passage order follows segment order, so retrieval tie-breaks reflect the
// ingestion sequence. An all-garbage input is rejected rather than saved,
// which keeps a bad run from clobbering a good corpus.
func (uc *IngestCorpusUseCase) BuildCorpus(ctx context.Context, segments []domain.SourceSegment) (*domain.IngestReport, error) {
	report := &domain.IngestReport{}
	var docs []domain.Document

	for _, seg := range segments {
		report.Segments++
		text := normalizeWhitespace(seg.Text)
		if !isUsableText(text) {
			report.SegmentsSkipped++
			continue
		}

		chunks := uc.chunker.Split(text)
		for i, chunk := range chunks {
			title := deriveTitle(seg.Title, chunk)
			if len(chunks) > 1 {
				title = fmt.Sprintf("%s (partie %d)", title, i+1)
			}
			docs = append(docs, domain.Document{
				Title:     title,
				Body:      chunk,
				Category:  categorize(seg.Title, chunk),
				SourceURL: seg.Source,
				Seq:       len(docs),
			})
			report.Words += len(strings.Fields(chunk))
		}
	}

	report.Documents = len(docs)
	if len(docs) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidRequest, "build corpus", errors.New("no usable text in source segments"))
	}
	if err := uc.writer.SaveCorpus(ctx, docs); err != nil {
		return nil, fmt.Errorf("save corpus: %w", err)
	}
	return report, nil
}

func normalizeWhitespace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// isUsableText rejects segments too short to index and text dominated by
// characters outside the Latin range, which in this corpus means OCR or
// encoding garbage. The 1000 cutoff keeps accented French letters.
func isUsableText(text string) bool {
	if utf8.RuneCountInString(text) < 50 {
		return false
	}
	var total, nonLatin int
	for _, r := range text {
		total++
		if r > 1000 {
			nonLatin++
		}
	}
	return float64(nonLatin)/float64(total) <= 0.3
}

// categoryRules assign passages to a category by keyword, first hit wins.
// Specific topics come before the broad country bucket so "burkina" does
// not swallow everything.
var categoryRules = []struct {
	category string
	keywords []string
}{
	{"patrimoine-culturel", []string{"unesco", "patrimoine", "heritage", "monument"}},
	{"architecture", []string{"architecture", "construction"}},
	{"éducation", []string{"pédagogique", "éducation", "école", "education"}},
	{"musées", []string{"musée", "museum"}},
	{"santé", []string{"santé", "médical"}},
	{"science-tech", []string{"technique", "scientifique"}},
	{"culture", []string{"culture", "tradition"}},
	{"burkina-faso", []string{"burkina", "faso", "ouagadougou", "bobo"}},
}

func categorize(title, text string) string {
	haystack := strings.ToLower(title + " " + text)
	for _, rule := range categoryRules {
		for _, keyword := range rule.keywords {
			if strings.Contains(haystack, keyword) {
				return rule.category
			}
		}
	}
	return "culture-générale"
}

// deriveTitle prefers the source-provided title. Without one it uses the
// passage's first sentence when that reads like a headline, otherwise the
// first ten words.
func deriveTitle(provided, chunk string) string {
	if title := strings.TrimSpace(provided); title != "" {
		return truncateRunes(title, 100)
	}

	title := ""
	sentence, _, _ := strings.Cut(chunk, ".")
	sentence = strings.TrimSpace(sentence)
	if n := utf8.RuneCountInString(sentence); n > 10 && n < 100 {
		title = sentence
	}
	if title == "" {
		words := strings.Fields(chunk)
		if len(words) > 10 {
			words = words[:10]
		}
		title = strings.Join(words, " ")
	}
	return truncateRunes(title, 80)
}

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
