package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-labs/briefing/internal/core/domain"
)

func newTestService(t *testing.T, handler http.HandlerFunc) *LLMService {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	svc, err := NewLLMService(Config{APIKey: "sk-test", BaseURL: server.URL})
	require.NoError(t, err)
	return svc
}

func completionResponse(content string) map[string]any {
	return map[string]any{
		"id":     "chatcmpl-test",
		"object": "chat.completion",
		"model":  DefaultModel,
		"choices": []map[string]any{
			{
				"index":         0,
				"message":       map[string]any{"role": "assistant", "content": content},
				"finish_reason": "stop",
			},
		},
	}
}

func TestNewLLMService_RequiresKey(t *testing.T) {
	_, err := NewLLMService(Config{})
	require.Error(t, err)
}

func TestGenerate(t *testing.T) {
	var gotReq struct {
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
		MaxTokens int `json:"max_tokens"`
	}
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(completionResponse("  a fine answer  "))
	})

	got, err := svc.Generate(context.Background(), "system prompt", "user question")
	require.NoError(t, err)
	assert.Equal(t, "a fine answer", got, "reply must be trimmed")

	require.Len(t, gotReq.Messages, 2)
	assert.Equal(t, "system", gotReq.Messages[0].Role)
	assert.Equal(t, "system prompt", gotReq.Messages[0].Content)
	assert.Equal(t, "user", gotReq.Messages[1].Role)
	assert.Equal(t, "user question", gotReq.Messages[1].Content)
	assert.Equal(t, DefaultMaxTokens, gotReq.MaxTokens)
}

func TestGenerate_ProviderFailure(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := svc.Generate(context.Background(), "s", "u")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrGenerationFailed)
}

func TestGenerate_NoChoices(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id": "chatcmpl-test", "object": "chat.completion", "choices": []any{},
		})
	})

	_, err := svc.Generate(context.Background(), "s", "u")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrGenerationFailed)
}

func TestModelName(t *testing.T) {
	svc, err := NewLLMService(Config{APIKey: "sk-test", Model: "gpt-4o"})
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", svc.ModelName())
	assert.NoError(t, svc.Close())
}
