package ai

import "context"

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Provider is a chat-completion backend. Implementations must honor ctx
// cancellation; callers bound conversational requests with a timeout.
type Provider interface {
	Chat(ctx context.Context, messages []Message) (string, error)
}
