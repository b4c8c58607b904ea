package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrInvalidInput indicates malformed or invalid input, such as an
	// empty message. Surfaced to the caller as a validation failure.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrEmbeddingUnavailable indicates the embedding provider failed
	// or timed out. The turn proceeds without retrieval.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrIndexUnavailable indicates the vector index failed or timed
	// out. The turn proceeds with an empty retrieval result.
	ErrIndexUnavailable = errors.New("vector index unavailable")

	// ErrHistoryUnavailable indicates the session store could not be
	// read. The turn proceeds with empty history.
	ErrHistoryUnavailable = errors.New("session history unavailable")

	// ErrPersistenceFailed indicates the session store could not be
	// written. The turn still completes and responds.
	ErrPersistenceFailed = errors.New("session persistence failed")

	// ErrGenerationFailed indicates the LLM provider failed. The
	// generator adapter converts this to a fixed apology response; it
	// never reaches the caller raw.
	ErrGenerationFailed = errors.New("response generation failed")

	// ErrDimensionMismatch indicates an embedding's dimension does not
	// match the index's configured dimension. This is a hard failure,
	// never silently truncated.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)
