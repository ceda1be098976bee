package domain

// Query is one incoming question with its caller-supplied options. Queries
// are transient and never persisted.
type Query struct {
	Question     string `json:"question"`
	History      []Turn `json:"conversation_history,omitempty"`
	ResultCount  int    `json:"n_results,omitempty"`
	UseGenerator bool   `json:"use_llm"`
}
