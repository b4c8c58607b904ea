package domain

import "time"

// TurnRequest is one incoming conversational query.
type TurnRequest struct {
	// Message is the user's query. Must be non-empty.
	Message string `json:"message"`

	// SessionID is optional. A missing or malformed id is treated as
	// absent and a fresh session is minted for the turn.
	SessionID string `json:"session_id,omitempty"`
}

// ArticleRef names one retrieved article that survived relevance
// filtering, in the order it was cited.
type ArticleRef struct {
	Title string  `json:"title"`
	Score float64 `json:"score"`
}

// TurnMetadata describes how a turn's answer was produced.
type TurnMetadata struct {
	// HasContext is true when at least one retrieved passage passed
	// the relevance threshold and was offered to the model.
	HasContext bool `json:"has_context"`

	// RetrievedCount is the number of raw matches returned by the
	// index before filtering.
	RetrievedCount int `json:"retrieved_count"`

	// Articles lists the passages used, best first.
	Articles []ArticleRef `json:"articles"`
}

// TurnResult is the orchestrator's answer for one turn. A well-formed
// TurnResult is produced for every valid request; infrastructure
// failures degrade the answer, never the result shape.
type TurnResult struct {
	SessionID string       `json:"session_id"`
	Message   string       `json:"message"`
	Timestamp time.Time    `json:"timestamp"`
	Metadata  TurnMetadata `json:"metadata"`
}
