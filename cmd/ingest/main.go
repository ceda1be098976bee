// Command ingest builds the corpus file from source documents. It extracts
// text from PDF, CSV, XLSX and plain-text sources, cleans and windows it
// into passages, and saves the result as the new corpus source of truth.
package main

import (
	"context"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/wendkuni/burkina-culture-assistant/internal/config"
	"github.com/wendkuni/burkina-culture-assistant/internal/core/domain"
	"github.com/wendkuni/burkina-culture-assistant/internal/core/ports"
	"github.com/wendkuni/burkina-culture-assistant/internal/core/usecase"
	"github.com/wendkuni/burkina-culture-assistant/internal/infrastructure/chunking"
	"github.com/wendkuni/burkina-culture-assistant/internal/infrastructure/corpus/csvfile"
	"github.com/wendkuni/burkina-culture-assistant/internal/infrastructure/corpus/jsonfile"
	"github.com/wendkuni/burkina-culture-assistant/internal/infrastructure/extractor/pdf"
	"github.com/wendkuni/burkina-culture-assistant/internal/infrastructure/extractor/plaintext"
	"github.com/wendkuni/burkina-culture-assistant/internal/infrastructure/extractor/spreadsheet"
	"github.com/wendkuni/burkina-culture-assistant/internal/infrastructure/queue/nats"
	"github.com/wendkuni/burkina-culture-assistant/internal/infrastructure/repository/postgres"
	"github.com/wendkuni/burkina-culture-assistant/internal/observability/logging"
)

func main() {
	input := flag.String("input", "data/sources", "source file or directory to ingest")
	out := flag.String("out", "", "corpus file to write, defaults to CORPUS_PATH")
	chunkWords := flag.Int("chunk-words", 500, "passage window size in words")
	overlapWords := flag.Int("overlap-words", 50, "overlap between consecutive passages in words")
	requestRebuild := flag.Bool("request-rebuild", false, "publish a rebuild job after saving the corpus")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	slog.SetDefault(logging.NewJSONLogger("ingest", cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	writer, closeWriter, err := newCorpusWriter(ctx, cfg, *out)
	if err != nil {
		log.Fatalf("corpus writer error: %v", err)
	}
	defer closeWriter()

	extractors := map[string]ports.SegmentExtractor{
		".pdf":  pdf.NewExtractor(0),
		".csv":  csvfile.New(),
		".xlsx": spreadsheet.NewExtractor(),
		".txt":  plaintext.NewExtractor(),
		".md":   plaintext.NewExtractor(),
	}

	paths, err := collectSourceFiles(*input, extractors)
	if err != nil {
		log.Fatalf("collect source files: %v", err)
	}
	if len(paths) == 0 {
		log.Fatalf("no ingestible files under %s", *input)
	}

	var segments []domain.SourceSegment
	for _, path := range paths {
		extractor := extractors[strings.ToLower(filepath.Ext(path))]
		segs, err := extractor.Extract(ctx, path)
		if err != nil {
			// One unreadable file should not abort a whole corpus build.
			slog.Warn("skipping source file", "path", path, "error", err)
			continue
		}
		slog.Info("extracted source file", "path", path, "segments", len(segs))
		segments = append(segments, segs...)
	}

	ingestUC := usecase.NewIngestCorpusUseCase(chunking.NewSplitter(*chunkWords, *overlapWords), writer)
	report, err := ingestUC.BuildCorpus(ctx, segments)
	if err != nil {
		log.Fatalf("build corpus: %v", err)
	}
	slog.Info("corpus saved",
		"segments", report.Segments,
		"segments_skipped", report.SegmentsSkipped,
		"documents", report.Documents,
		"words", report.Words,
	)

	if *requestRebuild {
		queue, err := nats.New(cfg.NATSURL)
		if err != nil {
			log.Fatalf("connect queue: %v", err)
		}
		defer queue.Close()

		job, err := usecase.NewRebuildTriggerUseCase(queue).RequestRebuild(ctx)
		if err != nil {
			log.Fatalf("request rebuild: %v", err)
		}
		slog.Info("rebuild requested", "job_id", job.ID)
	}
}

// collectSourceFiles resolves the input to the list of ingestible files.
// Paths are sorted so repeated runs over the same tree produce the same
// passage order, which retrieval tie-breaks depend on.
func collectSourceFiles(root string, extractors map[string]ports.SegmentExtractor) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat input: %w", err)
	}
	if !info.IsDir() {
		if _, ok := extractors[strings.ToLower(filepath.Ext(root))]; !ok {
			return nil, fmt.Errorf("unsupported source format: %s", filepath.Base(root))
		}
		return []string{root}, nil
	}

	var paths []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if _, ok := extractors[strings.ToLower(filepath.Ext(path))]; ok {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk input: %w", err)
	}
	sort.Strings(paths)
	return paths, nil
}

func newCorpusWriter(ctx context.Context, cfg config.Config, out string) (ports.CorpusWriter, func(), error) {
	switch cfg.CorpusSource {
	case "", "file":
		path := out
		if path == "" {
			path = cfg.CorpusPath
		}
		return jsonfile.New(path), func() {}, nil
	case "postgres":
		if out != "" {
			slog.Warn("out flag ignored, corpus source is postgres")
		}
		db, err := postgres.OpenDB(cfg.PostgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres: %w", err)
		}
		repo := postgres.NewCorpusRepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("ensure corpus schema: %w", err)
		}
		return repo, func() { db.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unsupported corpus source %q", cfg.CorpusSource)
	}
}
