package llmHandlers

import (
	"context"
)

type MessageRole string

const (
	RoleSystem    MessageRole = "system"
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

type Message struct {
	Role    MessageRole
	Content string
}

// Client is a chat-completion model. Implementations built with JSONMode
// ask the provider for a JSON-only answer.
type Client interface {
	Chat(ctx context.Context, systemMessage string, messages []Message) (string, error)
}
