package domain

// Document is one corpus passage. Documents are immutable after ingestion;
// Seq records the ingestion order and breaks similarity ties deterministically.
type Document struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	Category  string `json:"category"`
	SourceURL string `json:"source_url"`
	Seq       int    `json:"seq"`
}

// CorpusStats summarizes the loaded corpus for the stats probe.
type CorpusStats struct {
	TotalDocuments int            `json:"total_documents"`
	EmbeddingModel string         `json:"embedding_model_name"`
	Categories     map[string]int `json:"categories"`
	Sources        []string       `json:"sources"`
}
