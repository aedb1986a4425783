package models

// Role identifies the author of a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether the role is one of the two conversation roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// Message is a single entry in a conversation log. Immutable once appended.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}
