package domain

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one caller-supplied conversation message. The pipeline never
// persists turns; it only reads a bounded trailing window of them.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}
