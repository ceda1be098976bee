package domain

import "time"

// Backend identifies which generation tier produced an answer.
type Backend string

const (
	BackendPrimaryLLM   Backend = "primary_llm"
	BackendSecondaryLLM Backend = "secondary_llm"
	BackendTemplate     Backend = "template"
)

// GenerationResult is the outcome of one trip through the tier chain.
type GenerationResult struct {
	AnswerText     string        `json:"answer_text"`
	Backend        Backend       `json:"backend_used"`
	GenerationTime time.Duration `json:"generation_time"`
}

// Source is one citation attached to an answer.
type Source struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// AnswerMetadata carries the wall-clock measurements around one ask call.
// Durations are reported on fallback paths too.
type AnswerMetadata struct {
	Backend            Backend       `json:"backend_used"`
	RetrievalTime      time.Duration `json:"retrieval_time"`
	GenerationTime     time.Duration `json:"generation_time"`
	TotalTime          time.Duration `json:"total_time"`
	Grounded           bool          `json:"grounded"`
	DocumentsRetrieved int           `json:"documents_retrieved"`
}

// Answer is the structured ask result. Sources are ordered, distinct and
// carried as data, never appended to or parsed out of the answer text.
type Answer struct {
	Text     string         `json:"text"`
	Sources  []Source       `json:"sources"`
	Metadata AnswerMetadata `json:"metadata"`
}
