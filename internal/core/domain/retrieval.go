package domain

// RetrievedMatch is one scored retrieval result. Within an ordered result
// sequence Rank is strictly increasing from 1 and Similarity never increases.
type RetrievedMatch struct {
	Document   Document `json:"document"`
	Similarity float64  `json:"similarity"`
	Rank       int      `json:"rank"`
}

// PromptContext is the assembled, bounded input for answer generation.
// Grounded is false when no retrieved document survived assembly; the
// generator must then refuse to present the answer as authoritative.
// Matches holds the documents that made it into ContextBlock, in rank order,
// so the template backend can compose from raw snippets.
type PromptContext struct {
	Instruction  string
	ContextBlock string
	Question     string
	History      []Turn
	Matches      []RetrievedMatch
	Grounded     bool
}
