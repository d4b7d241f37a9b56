// Package llm talks to the chat-completion backends and turns their output
// into short spoken replies.
package llm

import (
	"context"
	"errors"
)

// ErrUnavailable wraps every backend failure so callers can skip the turn.
var ErrUnavailable = errors.New("llm: backend unavailable")

type Message struct {
	Role    string
	Content string
}

type Response struct {
	Content          string
	Model            string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

type Client interface {
	Generate(ctx context.Context, messages []Message) (Response, error)
}
