// Package spreadsheet extracts text segments from XLSX workbooks.
package spreadsheet

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/wendkuni/burkina-culture-assistant/internal/core/domain"
)

type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract returns one segment per sheet, cells joined with spaces and rows
// with newlines, labeled "<file> - feuille <sheet>". Empty sheets yield
// nothing.
func (e *Extractor) Extract(_ context.Context, path string) ([]domain.SourceSegment, error) {
	book, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer book.Close()

	name := filepath.Base(path)
	var segments []domain.SourceSegment
	for _, sheet := range book.GetSheetList() {
		rows, err := book.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
		}

		var text strings.Builder
		for _, row := range rows {
			line := strings.TrimSpace(strings.Join(row, " "))
			if line == "" {
				continue
			}
			if text.Len() > 0 {
				text.WriteString("\n")
			}
			text.WriteString(line)
		}
		if text.Len() == 0 {
			continue
		}
		segments = append(segments, domain.SourceSegment{
			Text:   text.String(),
			Source: fmt.Sprintf("%s - feuille %s", name, sheet),
		})
	}
	return segments, nil
}
