package domain

import "time"

// Sender identifies which side of the conversation produced a message.
type Sender string

const (
	// SenderUser marks a message written by the human user.
	SenderUser Sender = "user"

	// SenderAssistant marks a message produced by the assistant.
	SenderAssistant Sender = "assistant"
)

// Valid reports whether the sender is one of the known values.
func (s Sender) Valid() bool {
	return s == SenderUser || s == SenderAssistant
}

// Message is one turn in a conversation. Messages are immutable once
// created and owned by their Session.
type Message struct {
	// ID is an opaque unique identifier for the message.
	ID string `json:"id"`

	// Text is the message content.
	Text string `json:"text"`

	// Sender is who produced the message.
	Sender Sender `json:"sender"`

	// Timestamp is the creation instant.
	Timestamp time.Time `json:"timestamp"`

	// Metadata carries optional per-message annotations such as
	// retrieval statistics. It is attached only to assistant messages.
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Session is an ordered conversation history bound to one opaque
// session identifier. The store enforces the sliding-window bound on
// Messages and the idle TTL; the orchestrator never trims directly.
type Session struct {
	// ID is the externally supplied or minted identifier (UUID format).
	ID string `json:"id"`

	// Messages is the time-ordered history, oldest first.
	Messages []Message `json:"messages"`

	// CreatedAt is when the session was first created.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is when the session last accepted a message.
	UpdatedAt time.Time `json:"updated_at"`
}

// Trim drops the oldest messages until at most max remain.
// A non-positive max leaves the session untouched.
func (s *Session) Trim(max int) {
	if max <= 0 || len(s.Messages) <= max {
		return
	}
	s.Messages = s.Messages[len(s.Messages)-max:]
}

// LastN returns the most recent n messages in chronological order.
func (s *Session) LastN(n int) []Message {
	if n <= 0 || len(s.Messages) == 0 {
		return nil
	}
	if n > len(s.Messages) {
		n = len(s.Messages)
	}
	return s.Messages[len(s.Messages)-n:]
}
