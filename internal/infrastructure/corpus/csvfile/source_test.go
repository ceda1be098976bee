package csvfile

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "export.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func TestExtractMapsRowsToSegments(t *testing.T) {
	path := writeCSV(t, `id_doc,url,titre,segment_id,texte
12,https://fespaco.bf/histoire,Histoire du FESPACO,1,"Le festival est né en 1969 à Ouagadougou."
42,,,2,"Un passage sans titre ni lien."
`)

	got, err := New().Extract(context.Background(), path)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Extract() returned %d segments, want 2", len(got))
	}

	if got[0].Title != "Histoire du FESPACO" {
		t.Errorf("segment 0 title = %q, want the titre column", got[0].Title)
	}
	if got[0].Text != "Le festival est né en 1969 à Ouagadougou." {
		t.Errorf("segment 0 text = %q, want the texte column", got[0].Text)
	}
	if got[0].Source != "https://fespaco.bf/histoire" {
		t.Errorf("segment 0 source = %q, want the url column", got[0].Source)
	}
	// Without a url the provenance falls back to the document id.
	if got[1].Source != "Document 42" {
		t.Errorf("segment 1 source = %q, want %q", got[1].Source, "Document 42")
	}
	if got[1].Title != "" {
		t.Errorf("segment 1 title = %q, want blank", got[1].Title)
	}
}

func TestExtractToleratesShortRows(t *testing.T) {
	path := writeCSV(t, `id_doc,url,titre,segment_id,texte
7,https://example.bf
`)

	got, err := New().Extract(context.Background(), path)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("Extract() returned %d segments, want 1", len(got))
	}
	if got[0].Text != "" || got[0].Source != "https://example.bf" {
		t.Errorf("segment = %+v, want blank texte and url provenance", got[0])
	}
}

func TestExtractRequiresTexteColumn(t *testing.T) {
	path := writeCSV(t, `id,contenu
1,bonjour
`)

	_, err := New().Extract(context.Background(), path)
	if err == nil || !strings.Contains(err.Error(), "texte") {
		t.Fatalf("Extract() error = %v, want missing texte column", err)
	}
}

func TestExtractMissingFile(t *testing.T) {
	_, err := New().Extract(context.Background(), filepath.Join(t.TempDir(), "absent.csv"))
	if err == nil {
		t.Fatal("Extract() error = nil, want open failure")
	}
}
