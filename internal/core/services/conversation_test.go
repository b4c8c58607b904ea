package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-labs/briefing/internal/core/domain"
)

func newTestService(t *testing.T, embedder *mockEmbedder, index *mockIndex, sessions *mockSessions, llm *mockLLM, opts ...ConversationOption) *ConversationService {
	t.Helper()
	return NewConversationService(
		embedder,
		index,
		sessions,
		NewResponder(llm, time.Second),
		NewAssembler(),
		opts...,
	)
}

func TestConverse_FullTurn(t *testing.T) {
	embedder := &mockEmbedder{vector: []float32{0.1, 0.2}}
	index := &mockIndex{result: domain.RetrievalResult{Matches: []domain.Match{
		match("AI Basics", "Artificial intelligence is the simulation of human intelligence.", 0.92),
	}}}
	sessions := newMockSessions()
	llm := &mockLLM{reply: "AI is the simulation of human intelligence (Article 1)."}

	svc := newTestService(t, embedder, index, sessions, llm)

	res, err := svc.Converse(context.Background(), domain.TurnRequest{
		Message: "What is artificial intelligence?",
	})
	require.NoError(t, err)

	// A fresh session id was minted and is a valid UUID.
	_, parseErr := uuid.Parse(res.SessionID)
	assert.NoError(t, parseErr)

	assert.Equal(t, llm.reply, res.Message)
	assert.True(t, res.Metadata.HasContext)
	assert.Equal(t, 1, res.Metadata.RetrievedCount)
	require.Len(t, res.Metadata.Articles, 1)
	assert.Equal(t, "AI Basics", res.Metadata.Articles[0].Title)
	assert.InDelta(t, 0.92, res.Metadata.Articles[0].Score, 1e-9)

	// Both turn messages were persisted in order.
	history, err := sessions.History(context.Background(), res.SessionID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, domain.SenderUser, history[0].Sender)
	assert.Equal(t, domain.SenderAssistant, history[1].Sender)
}

func TestConverse_EmptyMessageRejected(t *testing.T) {
	svc := newTestService(t, &mockEmbedder{}, &mockIndex{}, newMockSessions(), &mockLLM{})

	_, err := svc.Converse(context.Background(), domain.TurnRequest{Message: "   "})
	require.Error(t, err)
	assert.True(t, IsValidation(err))
}

func TestConverse_MalformedSessionIDMintsNew(t *testing.T) {
	sessions := newMockSessions()
	svc := newTestService(t, &mockEmbedder{vector: []float32{1}}, &mockIndex{}, sessions, &mockLLM{reply: "ok"})

	res, err := svc.Converse(context.Background(), domain.TurnRequest{
		Message:   "hello there, what do you know?",
		SessionID: "not-a-uuid",
	})
	require.NoError(t, err)
	assert.NotEqual(t, "not-a-uuid", res.SessionID)
	_, parseErr := uuid.Parse(res.SessionID)
	assert.NoError(t, parseErr)
}

func TestConverse_KeepsSuppliedSessionID(t *testing.T) {
	id := uuid.NewString()
	svc := newTestService(t, &mockEmbedder{vector: []float32{1}}, &mockIndex{}, newMockSessions(), &mockLLM{reply: "ok"})

	res, err := svc.Converse(context.Background(), domain.TurnRequest{
		Message:   "tell me more about it",
		SessionID: id,
	})
	require.NoError(t, err)
	assert.Equal(t, id, res.SessionID)
}

func TestConverse_IndexFailureDegrades(t *testing.T) {
	embedder := &mockEmbedder{vector: []float32{0.5}}
	index := &mockIndex{queryErr: domain.ErrIndexUnavailable}
	llm := &mockLLM{reply: "I don't have that in my sources."}

	svc := newTestService(t, embedder, index, newMockSessions(), llm)

	res, err := svc.Converse(context.Background(), domain.TurnRequest{Message: "what happened today?"})
	require.NoError(t, err)
	assert.False(t, res.Metadata.HasContext)
	assert.Zero(t, res.Metadata.RetrievedCount)
	assert.NotEmpty(t, res.Message)
}

func TestConverse_EmbeddingFailureDegrades(t *testing.T) {
	embedder := &mockEmbedder{embedErr: domain.ErrEmbeddingUnavailable}
	index := &mockIndex{result: domain.RetrievalResult{Matches: []domain.Match{
		match("Ignored", "never retrieved", 0.99),
	}}}
	llm := &mockLLM{reply: "answer without context"}

	svc := newTestService(t, embedder, index, newMockSessions(), llm)

	res, err := svc.Converse(context.Background(), domain.TurnRequest{Message: "anything new?"})
	require.NoError(t, err)
	assert.False(t, res.Metadata.HasContext)
	assert.Equal(t, "answer without context", res.Message)
}

func TestConverse_GenerationFailureReturnsApology(t *testing.T) {
	embedder := &mockEmbedder{vector: []float32{0.5}}
	llm := &mockLLM{err: errors.New("upstream 500")}

	svc := newTestService(t, embedder, &mockIndex{}, newMockSessions(), llm)

	res, err := svc.Converse(context.Background(), domain.TurnRequest{Message: "what is briefing?"})
	require.NoError(t, err)
	assert.Equal(t, Apology, res.Message)
}

func TestConverse_PersistenceFailureStillResponds(t *testing.T) {
	sessions := newMockSessions()
	sessions.appendErr = errors.New("store down")
	llm := &mockLLM{reply: "still answered"}

	svc := newTestService(t, &mockEmbedder{vector: []float32{1}}, &mockIndex{}, sessions, llm)

	res, err := svc.Converse(context.Background(), domain.TurnRequest{Message: "does persistence matter?"})
	require.NoError(t, err)
	assert.Equal(t, "still answered", res.Message)
}

func TestConverse_HistoryFailureDegrades(t *testing.T) {
	sessions := newMockSessions()
	sessions.historyErr = errors.New("read timeout")
	llm := &mockLLM{reply: "fresh answer"}

	svc := newTestService(t, &mockEmbedder{vector: []float32{1}}, &mockIndex{}, sessions, llm)

	res, err := svc.Converse(context.Background(), domain.TurnRequest{
		Message:   "continue our chat",
		SessionID: uuid.NewString(),
	})
	require.NoError(t, err)
	assert.Equal(t, "fresh answer", res.Message)
}

func TestConverse_HistoryExcludesCurrentQuery(t *testing.T) {
	sessions := newMockSessions()
	llm := &mockLLM{reply: "second answer"}
	svc := newTestService(t, &mockEmbedder{vector: []float32{1}}, &mockIndex{}, sessions, llm)

	first, err := svc.Converse(context.Background(), domain.TurnRequest{Message: "first question here"})
	require.NoError(t, err)

	_, err = svc.Converse(context.Background(), domain.TurnRequest{
		Message:   "second question here",
		SessionID: first.SessionID,
	})
	require.NoError(t, err)

	// The prompt for the second turn replays the first exchange but
	// not the query being answered.
	assert.Contains(t, llm.lastSystem, "first question here")
	assert.NotContains(t, llm.lastSystem, "User: second question here")
}

func TestConverse_PureGreetingSkipsRetrieval(t *testing.T) {
	embedder := &mockEmbedder{vector: []float32{1}}
	fixed := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	svc := newTestService(t, embedder, &mockIndex{}, newMockSessions(), &mockLLM{},
		withClock(func() time.Time { return fixed }))

	res, err := svc.Converse(context.Background(), domain.TurnRequest{Message: "Hello!"})
	require.NoError(t, err)
	assert.Equal(t, "Good morning! How can I help you today?", res.Message)
	assert.Zero(t, embedder.calls, "greeting must not hit the embedder")
}

func TestConverse_GreetingWithQuestionUsesRetrieval(t *testing.T) {
	embedder := &mockEmbedder{vector: []float32{1}}
	svc := newTestService(t, embedder, &mockIndex{}, newMockSessions(), &mockLLM{reply: "ok"})

	_, err := svc.Converse(context.Background(), domain.TurnRequest{Message: "hello, what is RAG?"})
	require.NoError(t, err)
	assert.Positive(t, embedder.calls)
}

func TestEndToEnd_TwoTurnScenario(t *testing.T) {
	embedder := &mockEmbedder{vector: []float32{0.3, 0.4}}
	index := &mockIndex{result: domain.RetrievalResult{Matches: []domain.Match{
		match("AI Overview", "AI is a field of computer science.", 0.9),
	}}}
	sessions := newMockSessions()
	llm := &mockLLM{reply: "an answer"}

	svc := newTestService(t, embedder, index, sessions, llm)

	first, err := svc.Converse(context.Background(), domain.TurnRequest{
		Message: "What is artificial intelligence?",
	})
	require.NoError(t, err)
	_, parseErr := uuid.Parse(first.SessionID)
	require.NoError(t, parseErr)

	_, err = svc.Converse(context.Background(), domain.TurnRequest{
		Message:   "Tell me more",
		SessionID: first.SessionID,
	})
	require.NoError(t, err)

	history, err := svc.History(context.Background(), first.SessionID)
	require.NoError(t, err)
	require.Len(t, history, 4)
	assert.Equal(t, domain.SenderUser, history[0].Sender)
	assert.Equal(t, domain.SenderAssistant, history[1].Sender)
	assert.Equal(t, domain.SenderUser, history[2].Sender)
	assert.Equal(t, domain.SenderAssistant, history[3].Sender)
	assert.Equal(t, "What is artificial intelligence?", history[0].Text)
	assert.Equal(t, "Tell me more", history[2].Text)
}

func TestReset_ClearsHistory(t *testing.T) {
	sessions := newMockSessions()
	svc := newTestService(t, &mockEmbedder{vector: []float32{1}}, &mockIndex{}, sessions, &mockLLM{reply: "ok"})

	res, err := svc.Converse(context.Background(), domain.TurnRequest{Message: "remember this"})
	require.NoError(t, err)

	require.NoError(t, svc.Reset(context.Background(), res.SessionID))

	history, err := svc.History(context.Background(), res.SessionID)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestStats_IndexDownReportedUnavailable(t *testing.T) {
	index := &mockIndex{statsErr: errors.New("connection refused")}
	catalog := newMockCatalog()
	require.NoError(t, catalog.UpsertSource(context.Background(), &domain.SourceRecord{ID: "a"}))

	svc := newTestService(t, &mockEmbedder{}, index, newMockSessions(), &mockLLM{},
		WithCatalog(catalog))

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.False(t, stats.IndexAvailable)
	assert.Equal(t, 1, stats.SourceCount)
}
