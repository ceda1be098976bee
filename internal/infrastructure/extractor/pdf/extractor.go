// Package pdf extracts per-page text segments from PDF files.
package pdf

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	pdflib "github.com/ledongthuc/pdf"

	"github.com/wendkuni/burkina-culture-assistant/internal/core/domain"
)

type Extractor struct {
	minPageChars int
}

func NewExtractor(minPageChars int) *Extractor {
	if minPageChars <= 0 {
		minPageChars = 50
	}
	return &Extractor{minPageChars: minPageChars}
}

// Extract returns one segment per page carrying enough text to index, with
// the source labeled "<file> - page N". Pages that fail text extraction are
// skipped rather than failing the whole file; scanned PDFs commonly mix
// extractable and image-only pages.
func (e *Extractor) Extract(_ context.Context, path string) ([]domain.SourceSegment, error) {
	file, reader, err := pdflib.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer file.Close()

	name := filepath.Base(path)
	var segments []domain.SourceSegment
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		text = strings.TrimSpace(text)
		if utf8.RuneCountInString(text) < e.minPageChars {
			continue
		}
		segments = append(segments, domain.SourceSegment{
			Text:   text,
			Source: fmt.Sprintf("%s - page %d", name, i),
		})
	}
	return segments, nil
}
