package services

import (
	"context"
	"time"

	"github.com/meridian-labs/briefing/internal/core/ports/driven"
	"github.com/meridian-labs/briefing/internal/logger"
)

// Apology is the fixed user-safe response produced when the model
// provider fails or times out. Chat never hard-fails because the LLM
// hiccuped; the caller gets this instead of an error.
const Apology = "I'm sorry, I'm having trouble answering right now. Please try again in a moment."

// DefaultGenerateTimeout bounds one completion call.
const DefaultGenerateTimeout = 60 * time.Second

// Responder wraps the LLM port with the turn-level failure policy:
// provider errors and timeouts are converted into Apology. This is the
// single place a hard external failure becomes a soft, user-visible
// degraded answer.
type Responder struct {
	llm     driven.LLMService
	timeout time.Duration
}

// NewResponder creates a responder. A non-positive timeout falls back
// to DefaultGenerateTimeout.
func NewResponder(llm driven.LLMService, timeout time.Duration) *Responder {
	if timeout <= 0 {
		timeout = DefaultGenerateTimeout
	}
	return &Responder{llm: llm, timeout: timeout}
}

// Respond generates the assistant's answer. It never returns an error.
func (r *Responder) Respond(ctx context.Context, systemPrompt, userMessage string) string {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	text, err := r.llm.Generate(ctx, systemPrompt, userMessage)
	if err != nil {
		logger.Error("generation failed, returning apology: %v", err)
		return Apology
	}
	if text == "" {
		logger.Warn("generation returned empty text, returning apology")
		return Apology
	}
	return text
}
