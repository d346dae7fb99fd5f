// Package llm abstracts the chat-completion backends used by the
// recommendation overlay.
package llm

import "context"

// Client defines the interface for LLM backends
type Client interface {
	Name() string
	Complete(ctx context.Context, req Request) (*Response, error)
}

// Request holds one completion request
type Request struct {
	System      string
	Prompt      string
	MaxTokens   int
	Temperature float64
}

// Response holds the completion output
type Response struct {
	Content      string
	FinishReason string
	InputTokens  int
	OutputTokens int
}
