package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/meridian-labs/briefing/internal/core/domain"
	"github.com/meridian-labs/briefing/internal/core/ports/driven"
	"github.com/meridian-labs/briefing/internal/core/ports/driving"
	"github.com/meridian-labs/briefing/internal/logger"
)

// Ensure ConversationService implements the interface.
var _ driving.Conversation = (*ConversationService)(nil)

// DefaultTopK is how many matches are requested from the index.
const DefaultTopK = 5

// DefaultStepTimeout bounds each non-generation external call
// (embedding, retrieval, store reads and writes).
const DefaultStepTimeout = 10 * time.Second

// pureGreetings are queries answered without retrieval. Matching is
// exact (optionally with a trailing "!"), so "hello, what is RAG?"
// still goes through the full pipeline.
var pureGreetings = []string{
	"hello", "hi", "hey", "greetings",
	"good morning", "good afternoon", "good evening",
	"how are you", "how do you do",
}

// ConversationService is the turn orchestrator. Each turn walks
// embed -> retrieve -> assemble -> generate -> persist; retrieval and
// persistence degrade to no-ops on dependency failure instead of
// aborting the turn.
type ConversationService struct {
	embedder  driven.EmbeddingService
	index     driven.VectorIndex
	sessions  driven.SessionStore
	responder *Responder
	assembler *Assembler
	catalog   driven.CatalogStore

	topK        int
	stepTimeout time.Duration

	now   func() time.Time
	newID func() string
}

// ConversationOption configures the service.
type ConversationOption func(*ConversationService)

// WithTopK sets how many matches are requested per query.
func WithTopK(k int) ConversationOption {
	return func(s *ConversationService) {
		if k > 0 {
			s.topK = k
		}
	}
}

// WithStepTimeout bounds each non-generation external call.
func WithStepTimeout(d time.Duration) ConversationOption {
	return func(s *ConversationService) {
		if d > 0 {
			s.stepTimeout = d
		}
	}
}

// WithCatalog attaches the source catalog used by Stats.
func WithCatalog(c driven.CatalogStore) ConversationOption {
	return func(s *ConversationService) { s.catalog = c }
}

// withClock fixes the clock. Test hook.
func withClock(now func() time.Time) ConversationOption {
	return func(s *ConversationService) { s.now = now }
}

// NewConversationService wires the orchestrator. All dependencies are
// passed explicitly; there is no package-level service state.
func NewConversationService(
	embedder driven.EmbeddingService,
	index driven.VectorIndex,
	sessions driven.SessionStore,
	responder *Responder,
	assembler *Assembler,
	opts ...ConversationOption,
) *ConversationService {
	s := &ConversationService{
		embedder:    embedder,
		index:       index,
		sessions:    sessions,
		responder:   responder,
		assembler:   assembler,
		topK:        DefaultTopK,
		stepTimeout: DefaultStepTimeout,
		now:         time.Now,
		newID:       uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Converse runs one full turn.
func (s *ConversationService) Converse(ctx context.Context, req domain.TurnRequest) (*domain.TurnResult, error) {
	query := strings.TrimSpace(req.Message)
	if query == "" {
		return nil, fmt.Errorf("empty message: %w", domain.ErrInvalidInput)
	}

	sessionID := s.resolveSessionID(req.SessionID)

	if greeting, ok := s.greetingFor(query); ok {
		logger.Debug("pure greeting, skipping retrieval")
		s.persistTurn(ctx, sessionID, query, greeting, domain.TurnMetadata{})
		return &domain.TurnResult{
			SessionID: sessionID,
			Message:   greeting,
			Timestamp: s.now(),
		}, nil
	}

	retrieval := s.retrieve(ctx, query)

	history := s.history(ctx, sessionID)

	prompt := s.assembler.Assemble(retrieval, history)
	logger.Debug("assembled prompt: context=%t articles=%d history=%d",
		prompt.HasContext, len(prompt.Articles), len(history))

	answer := s.responder.Respond(ctx, prompt.SystemPrompt, query)

	meta := domain.TurnMetadata{
		HasContext:     prompt.HasContext,
		RetrievedCount: len(retrieval.Matches),
		Articles:       prompt.Articles,
	}

	s.persistTurn(ctx, sessionID, query, answer, meta)

	return &domain.TurnResult{
		SessionID: sessionID,
		Message:   answer,
		Timestamp: s.now(),
		Metadata:  meta,
	}, nil
}

// History returns the stored messages for a session.
func (s *ConversationService) History(ctx context.Context, sessionID string) ([]domain.Message, error) {
	ctx, cancel := context.WithTimeout(ctx, s.stepTimeout)
	defer cancel()
	return s.sessions.History(ctx, sessionID)
}

// Reset deletes a session's history.
func (s *ConversationService) Reset(ctx context.Context, sessionID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.stepTimeout)
	defer cancel()
	return s.sessions.Reset(ctx, sessionID)
}

// Stats reports index and catalog counts. An unreachable index is
// reported as unavailable rather than failing the call.
func (s *ConversationService) Stats(ctx context.Context) (*domain.AssistantStats, error) {
	ctx, cancel := context.WithTimeout(ctx, s.stepTimeout)
	defer cancel()

	stats := &domain.AssistantStats{}
	if indexStats, err := s.index.Stats(ctx); err != nil {
		logger.Warn("index stats unavailable: %v", err)
	} else {
		stats.TotalVectorCount = indexStats.TotalVectorCount
		stats.IndexAvailable = true
	}
	if s.catalog != nil {
		n, err := s.catalog.CountSources(ctx)
		if err != nil {
			logger.Warn("catalog count unavailable: %v", err)
		} else {
			stats.SourceCount = n
		}
	}
	return stats, nil
}

// resolveSessionID keeps a well-formed caller id or mints a fresh one.
// A malformed id is treated as absent, not as an error: the caller
// simply starts a new conversation and learns the new id from the
// result.
func (s *ConversationService) resolveSessionID(id string) string {
	if id != "" {
		if _, err := uuid.Parse(id); err == nil {
			return id
		}
		logger.Warn("malformed session id %q, minting a new session", id)
	}
	return s.newID()
}

// retrieve embeds the query and runs the similarity search. Any
// failure collapses to an empty result so the turn continues without
// context.
func (s *ConversationService) retrieve(ctx context.Context, query string) domain.RetrievalResult {
	embedCtx, cancel := context.WithTimeout(ctx, s.stepTimeout)
	defer cancel()

	vector, err := s.embedder.Embed(embedCtx, query)
	if err != nil {
		logger.Warn("query embedding failed, continuing without context: %v", err)
		return domain.RetrievalResult{}
	}

	queryCtx, cancel := context.WithTimeout(ctx, s.stepTimeout)
	defer cancel()

	retrieval, err := s.index.Query(queryCtx, vector, s.topK, nil)
	if err != nil {
		logger.Warn("retrieval failed, continuing without context: %v", err)
		return domain.RetrievalResult{}
	}
	logger.Debug("retrieved %d matches", len(retrieval.Matches))
	return retrieval
}

// history reads the session history before the current user message is
// persisted, so the prompt never replays the query it is answering.
// Read failures degrade to empty history.
func (s *ConversationService) history(ctx context.Context, sessionID string) []domain.Message {
	ctx, cancel := context.WithTimeout(ctx, s.stepTimeout)
	defer cancel()

	history, err := s.sessions.History(ctx, sessionID)
	if err != nil {
		logger.Warn("history unavailable for session %s: %v", sessionID, err)
		return nil
	}
	return history
}

// persistTurn appends the user and assistant messages. Failures are
// logged and swallowed: the user still receives the answer.
func (s *ConversationService) persistTurn(ctx context.Context, sessionID, query, answer string, meta domain.TurnMetadata) {
	ctx, cancel := context.WithTimeout(ctx, s.stepTimeout)
	defer cancel()

	userMsg := domain.Message{
		ID:        s.newID(),
		Text:      query,
		Sender:    domain.SenderUser,
		Timestamp: s.now(),
	}
	if _, err := s.sessions.Append(ctx, sessionID, userMsg); err != nil {
		logger.Error("persisting user message failed: %v", err)
		return
	}

	assistantMsg := domain.Message{
		ID:        s.newID(),
		Text:      answer,
		Sender:    domain.SenderAssistant,
		Timestamp: s.now(),
		Metadata: map[string]any{
			"has_context":     meta.HasContext,
			"retrieved_count": meta.RetrievedCount,
		},
	}
	if _, err := s.sessions.Append(ctx, sessionID, assistantMsg); err != nil {
		logger.Error("persisting assistant message failed: %v", err)
	}
}

// greetingFor answers pure greetings without touching the index.
func (s *ConversationService) greetingFor(query string) (string, bool) {
	q := strings.ToLower(strings.TrimSpace(query))
	q = strings.TrimSuffix(q, "!")
	matched := false
	for _, g := range pureGreetings {
		if q == g {
			matched = true
			break
		}
	}
	if !matched {
		return "", false
	}

	var timeGreeting string
	switch hour := s.now().Hour(); {
	case hour < 12:
		timeGreeting = "Good morning"
	case hour < 17:
		timeGreeting = "Good afternoon"
	default:
		timeGreeting = "Good evening"
	}
	return timeGreeting + "! How can I help you today?", true
}

// IsValidation reports whether err is a caller input problem rather
// than an infrastructure failure. Transports map it to a 4xx.
func IsValidation(err error) bool {
	return errors.Is(err, domain.ErrInvalidInput)
}
