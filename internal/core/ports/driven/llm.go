package driven

import "context"

// LLMService produces chat completions. Decoding parameters (max
// tokens, temperature) are fixed at adapter construction; callers only
// supply the prompt pair.
//
// Errors propagate from this port. Converting them into the user-safe
// apology response is the responder's job in core, so that policy
// stays testable and out of the transport adapter.
type LLMService interface {
	// Generate produces a completion for the user message under the
	// given system prompt.
	Generate(ctx context.Context, systemPrompt, userMessage string) (string, error)

	// ModelName returns the name of the model being used.
	ModelName() string

	// Close releases resources.
	Close() error
}
