package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/wendkuni/burkina-culture-assistant/internal/core/domain"
)

// CorpusRepository is the Postgres corpus catalog. Deployments that keep
// the source of truth in a database instead of the corpus file get the
// same loader and writer contracts.
type CorpusRepository struct {
	db *sql.DB
}

func NewCorpusRepository(db *sql.DB) *CorpusRepository {
	return &CorpusRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *CorpusRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026030801)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS corpus_documents (
	id TEXT PRIMARY KEY,
	seq INTEGER NOT NULL,
	title TEXT NOT NULL DEFAULT '',
	body TEXT NOT NULL,
	category TEXT NOT NULL DEFAULT '',
	source_url TEXT NOT NULL DEFAULT '',
	ingested_at TIMESTAMPTZ NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_corpus_documents_seq ON corpus_documents(seq);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

// LoadCorpus reads the whole catalog in ingestion order.
func (r *CorpusRepository) LoadCorpus(ctx context.Context) ([]domain.Document, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, seq, title, body, category, source_url
FROM corpus_documents
ORDER BY seq
`)
	if err != nil {
		return nil, fmt.Errorf("query corpus: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document
	for rows.Next() {
		var doc domain.Document
		if err := rows.Scan(&doc.ID, &doc.Seq, &doc.Title, &doc.Body, &doc.Category, &doc.SourceURL); err != nil {
			return nil, fmt.Errorf("scan corpus document: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate corpus: %w", err)
	}
	return docs, nil
}

// SaveCorpus replaces the catalog wholesale in one transaction, so a
// concurrent LoadCorpus sees the old corpus or the new one. Ids are
// reassigned sequentially, mirroring the corpus file writer.
func (r *CorpusRepository) SaveCorpus(ctx context.Context, docs []domain.Document) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin corpus tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM corpus_documents`); err != nil {
		return fmt.Errorf("clear corpus: %w", err)
	}

	now := time.Now().UTC()
	for i, doc := range docs {
		_, err := tx.ExecContext(ctx, `
INSERT INTO corpus_documents (id, seq, title, body, category, source_url, ingested_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
`,
			fmt.Sprintf("doc_%d", i+1), i, doc.Title, doc.Body, doc.Category, doc.SourceURL, now,
		)
		if err != nil {
			return fmt.Errorf("insert corpus document %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit corpus tx: %w", err)
	}
	return nil
}
