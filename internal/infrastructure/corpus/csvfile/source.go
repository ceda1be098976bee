// Package csvfile reads prepared text exports. The expected columns are
// id_doc, url, titre, segment_id and texte, one text segment per row.
package csvfile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/wendkuni/burkina-culture-assistant/internal/core/domain"
)

type Source struct{}

func New() *Source {
	return &Source{}
}

// Extract maps each data row to one segment. The row's url becomes the
// provenance label, falling back to "Document <id_doc>" for offline rows.
// Blank or garbled texte cells pass through; ingestion drops them during
// validation so the skip count stays observable in one place.
func (s *Source) Extract(_ context.Context, path string) ([]domain.SourceSegment, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(name)] = i
	}
	if _, ok := col["texte"]; !ok {
		return nil, fmt.Errorf("csv %s: missing texte column", filepath.Base(path))
	}

	cell := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var segments []domain.SourceSegment
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row: %w", err)
		}

		source := cell(row, "url")
		if source == "" {
			source = "Document " + cell(row, "id_doc")
		}
		segments = append(segments, domain.SourceSegment{
			Title:  cell(row, "titre"),
			Text:   cell(row, "texte"),
			Source: source,
		})
	}
	return segments, nil
}
