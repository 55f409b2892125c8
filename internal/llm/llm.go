// Package llm talks to chat-completion language models.
package llm

import (
	"context"
	"errors"
)

// ErrNotConfigured is returned when a client lacks the credentials it
// needs. No network call is made in that case.
var ErrNotConfigured = errors.New("language model not configured")

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message represents a single chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Options tune a single generation.
type Options struct {
	Temperature float64
	MaxTokens   int
}

// ChatClient generates an assistant reply for a conversation.
type ChatClient interface {
	Generate(ctx context.Context, messages []Message, opts Options) (string, error)
}
