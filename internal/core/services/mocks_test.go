package services

import (
	"context"
	"sync"

	"github.com/meridian-labs/briefing/internal/core/domain"
)

// --- Mock implementations of the driven ports ---

type mockEmbedder struct {
	vector   []float32
	batchErr error
	embedErr error
	calls    int
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	m.calls++
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	return m.vector, nil
}

func (m *mockEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.calls++
	if m.batchErr != nil {
		return nil, m.batchErr
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = m.vector
	}
	return out, nil
}

func (m *mockEmbedder) Dimensions() int   { return len(m.vector) }
func (m *mockEmbedder) ModelName() string { return "mock-embed" }
func (m *mockEmbedder) Close() error      { return nil }

type mockIndex struct {
	result    domain.RetrievalResult
	queryErr  error
	upsertErr error
	statsErr  error

	mu       sync.Mutex
	upserted []domain.VectorRecord
	deleted  []string
}

func (m *mockIndex) Upsert(_ context.Context, records []domain.VectorRecord) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upserted = append(m.upserted, records...)
	return nil
}

func (m *mockIndex) Query(_ context.Context, _ []float32, topK int, _ domain.Filter) (domain.RetrievalResult, error) {
	if m.queryErr != nil {
		return domain.RetrievalResult{}, m.queryErr
	}
	res := m.result
	if topK < len(res.Matches) {
		res.Matches = res.Matches[:topK]
	}
	return res, nil
}

func (m *mockIndex) DeleteSource(_ context.Context, sourceID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, sourceID)
	return nil
}

func (m *mockIndex) Stats(_ context.Context) (domain.IndexStats, error) {
	if m.statsErr != nil {
		return domain.IndexStats{}, m.statsErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return domain.IndexStats{TotalVectorCount: len(m.upserted)}, nil
}

func (m *mockIndex) Close() error { return nil }

type mockSessions struct {
	appendErr  error
	historyErr error

	mu       sync.Mutex
	sessions map[string][]domain.Message
}

func newMockSessions() *mockSessions {
	return &mockSessions{sessions: make(map[string][]domain.Message)}
}

func (m *mockSessions) Append(_ context.Context, sessionID string, msg domain.Message) (*domain.Session, error) {
	if m.appendErr != nil {
		return nil, m.appendErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sessionID] = append(m.sessions[sessionID], msg)
	return &domain.Session{ID: sessionID, Messages: m.sessions[sessionID]}, nil
}

func (m *mockSessions) History(_ context.Context, sessionID string) ([]domain.Message, error) {
	if m.historyErr != nil {
		return nil, m.historyErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Message(nil), m.sessions[sessionID]...), nil
}

func (m *mockSessions) Reset(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionID)
	return nil
}

func (m *mockSessions) Close() error { return nil }

type mockLLM struct {
	reply       string
	err         error
	lastSystem  string
	lastMessage string
}

func (m *mockLLM) Generate(_ context.Context, systemPrompt, userMessage string) (string, error) {
	m.lastSystem = systemPrompt
	m.lastMessage = userMessage
	if m.err != nil {
		return "", m.err
	}
	return m.reply, nil
}

func (m *mockLLM) ModelName() string { return "mock-llm" }
func (m *mockLLM) Close() error      { return nil }

type mockCatalog struct {
	mu      sync.Mutex
	records map[string]*domain.SourceRecord
}

func newMockCatalog() *mockCatalog {
	return &mockCatalog{records: make(map[string]*domain.SourceRecord)}
}

func (m *mockCatalog) UpsertSource(_ context.Context, rec *domain.SourceRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *rec
	m.records[rec.ID] = &cp
	return nil
}

func (m *mockCatalog) GetSource(_ context.Context, id string) (*domain.SourceRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (m *mockCatalog) ListSources(_ context.Context) ([]domain.SourceRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.SourceRecord, 0, len(m.records))
	for _, rec := range m.records {
		out = append(out, *rec)
	}
	return out, nil
}

func (m *mockCatalog) SetStatus(_ context.Context, id, status string, chunkCount int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec, ok := m.records[id]; ok {
		rec.Status = status
		rec.ChunkCount = chunkCount
	}
	return nil
}

func (m *mockCatalog) CountSources(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records), nil
}

func (m *mockCatalog) Close() error { return nil }
