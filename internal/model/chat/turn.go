package chat

import "strings"

// Role identifies who authored a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message of the conversation window supplied by the client.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Usable reports whether the turn can be forwarded to the model.
func (t Turn) Usable() bool {
	if strings.TrimSpace(t.Content) == "" {
		return false
	}
	return t.Role == RoleUser || t.Role == RoleAssistant
}

// Window returns the last limit usable turns, oldest first.
func Window(turns []Turn, limit int) []Turn {
	usable := make([]Turn, 0, len(turns))
	for _, t := range turns {
		if t.Usable() {
			usable = append(usable, t)
		}
	}
	if limit <= 0 || len(usable) <= limit {
		return usable
	}
	return usable[len(usable)-limit:]
}
