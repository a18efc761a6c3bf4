package chat

import (
	"fmt"
	"time"
)

// Role is the closed set of message authors. Values outside this set are
// rejected at every boundary so history replay never sees an unknown role.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// ParseRole validates a raw role value coming from a request or a storage row.
func ParseRole(raw string) (Role, error) {
	switch Role(raw) {
	case RoleUser, RoleAssistant, RoleSystem:
		return Role(raw), nil
	default:
		return "", fmt.Errorf("unknown message role %q", raw)
	}
}

// Message is one persisted conversation turn. Messages are immutable once
// created; insertion order within a form reconstructs the interview.
type Message struct {
	ID        string    `json:"id"`
	FormID    string    `json:"formId"`
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}
