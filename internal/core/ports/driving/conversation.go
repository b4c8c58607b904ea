// Package driving provides interfaces through which the outside world
// drives the core (primary/inbound ports).
package driving

import (
	"context"

	"github.com/meridian-labs/briefing/internal/core/domain"
)

// Conversation is the primary port for the chat surface. The HTTP API
// and the terminal UI both drive the core through it.
type Conversation interface {
	// Converse runs one full turn: embed, retrieve, assemble, generate,
	// persist, respond. A valid request always yields a well-formed
	// result; dependency failures degrade the answer, never the shape.
	Converse(ctx context.Context, req domain.TurnRequest) (*domain.TurnResult, error)

	// History returns the stored messages for a session, oldest first.
	History(ctx context.Context, sessionID string) ([]domain.Message, error)

	// Reset deletes a session's history. Idempotent.
	Reset(ctx context.Context, sessionID string) error

	// Stats reports index and catalog counts.
	Stats(ctx context.Context) (*domain.AssistantStats, error)
}

// Ingestor accepts already-extracted plain text and feeds the vector
// index. Scraping and format parsing are collaborators outside the core.
type Ingestor interface {
	// Ingest chunks, embeds and upserts one source. Re-ingesting the
	// same source ID overwrites the previous records.
	Ingest(ctx context.Context, sourceID, text string, meta domain.SourceMeta) (*domain.IngestReport, error)
}
