// Package llm provides chat clients for the external analysis capability.
// Anthropic and OpenAI-compatible backends are supported behind one interface.
package llm

import "context"

// ChatResult is the raw outcome of one chat completion.
type ChatResult struct {
	Content      string
	Model        string
	InputTokens  int
	OutputTokens int
}

// ChatClient is the interface for chat completion backends.
// Use this interface for dependency injection to enable mocking in tests.
type ChatClient interface {
	// Chat sends a system message and user prompt, bounded by maxTokens.
	Chat(ctx context.Context, system, prompt string, maxTokens int) (*ChatResult, error)

	// Model returns the configured model name.
	Model() string
}
