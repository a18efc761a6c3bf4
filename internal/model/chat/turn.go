package chat

// UserTurn acknowledges the client's submitted message. It is returned even
// when the assistant fails to reply.
type UserTurn struct {
	SessionID string `json:"sessionId"`
	Message   string `json:"message"`
	IsBot     bool   `json:"isBot"`
}

// BotTurn carries the assistant reply for one turn. AudioURL is empty when
// speech synthesis was unavailable or failed; audio is best-effort.
type BotTurn struct {
	SessionID string `json:"sessionId"`
	Message   string `json:"message"`
	Input     string `json:"input"`
	IsBot     bool   `json:"isBot"`
	AudioURL  string `json:"audioUrl,omitempty"`
}
