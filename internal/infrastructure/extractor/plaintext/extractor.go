// Package plaintext extracts text segments from UTF-8 text files.
package plaintext

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/wendkuni/burkina-culture-assistant/internal/core/domain"
)

type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract returns the whole file as a single segment. Binary content is
// rejected instead of being indexed as garbage.
func (e *Extractor) Extract(_ context.Context, path string) ([]domain.SourceSegment, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read source document: %w", err)
	}

	if !utf8.Valid(raw) {
		return nil, fmt.Errorf("not utf-8 text: %s", filepath.Base(path))
	}

	text := strings.TrimSpace(string(raw))
	if text == "" {
		return nil, nil
	}
	return []domain.SourceSegment{{
		Text:   text,
		Source: filepath.Base(path),
	}}, nil
}
