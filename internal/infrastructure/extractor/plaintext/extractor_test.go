package plaintext

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestExtractReturnsSingleSegment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(path, []byte("  Le Moro Naba règne sur le royaume mossi.\n"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	got, err := NewExtractor().Extract(context.Background(), path)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("Extract() returned %d segments, want 1", len(got))
	}
	if got[0].Text != "Le Moro Naba règne sur le royaume mossi." {
		t.Errorf("segment text = %q, want trimmed file content", got[0].Text)
	}
	if got[0].Source != "notes.txt" {
		t.Errorf("segment source = %q, want the file name", got[0].Source)
	}
}

func TestExtractRejectsBinaryContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "image.png")
	if err := os.WriteFile(path, []byte{0x89, 0x50, 0x4e, 0x47, 0xff, 0xfe, 0x00}, 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	if _, err := NewExtractor().Extract(context.Background(), path); err == nil {
		t.Fatal("Extract() error = nil, want rejection of non-utf8 content")
	}
}

func TestExtractEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vide.txt")
	if err := os.WriteFile(path, []byte("  \n\t "), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	got, err := NewExtractor().Extract(context.Background(), path)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if got != nil {
		t.Errorf("Extract() = %v, want nil for whitespace-only content", got)
	}
}
