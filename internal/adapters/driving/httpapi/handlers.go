package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/meridian-labs/briefing/internal/core/domain"
	"github.com/meridian-labs/briefing/internal/core/ports/driving"
	"github.com/meridian-labs/briefing/internal/core/services"
	"github.com/meridian-labs/briefing/internal/logger"
)

type handler struct {
	conversation driving.Conversation
	ingestor     driving.Ingestor
}

type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
}

type chatResponse struct {
	SessionID string       `json:"session_id"`
	Message   string       `json:"message"`
	Timestamp time.Time    `json:"timestamp"`
	Metadata  turnMetadata `json:"metadata"`
}

type turnMetadata struct {
	HasContext     bool         `json:"has_context"`
	RetrievedCount int          `json:"retrieved_count"`
	Articles       []articleRef `json:"articles,omitempty"`
}

type articleRef struct {
	Title string  `json:"title"`
	Score float64 `json:"score"`
}

type ingestRequest struct {
	SourceID    string `json:"source_id"`
	Text        string `json:"text"`
	Title       string `json:"title,omitempty"`
	URL         string `json:"url,omitempty"`
	Category    string `json:"category,omitempty"`
	PublishedAt string `json:"published_at,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *handler) chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	result, err := h.conversation.Converse(r.Context(), domain.TurnRequest{
		Message:   req.Message,
		SessionID: req.SessionID,
	})
	if err != nil {
		if services.IsValidation(err) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		// The orchestrator degrades on infrastructure failure, so an
		// error here is unexpected.
		logger.Error("chat turn failed: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	articles := make([]articleRef, 0, len(result.Metadata.Articles))
	for _, a := range result.Metadata.Articles {
		articles = append(articles, articleRef{Title: a.Title, Score: a.Score})
	}

	writeJSON(w, http.StatusOK, chatResponse{
		SessionID: result.SessionID,
		Message:   result.Message,
		Timestamp: result.Timestamp,
		Metadata: turnMetadata{
			HasContext:     result.Metadata.HasContext,
			RetrievedCount: result.Metadata.RetrievedCount,
			Articles:       articles,
		},
	})
}

func (h *handler) history(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	messages, err := h.conversation.History(r.Context(), sessionID)
	if err != nil {
		logger.Error("history read failed: %v", err)
		writeError(w, http.StatusServiceUnavailable, "history unavailable")
		return
	}
	if messages == nil {
		messages = []domain.Message{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": sessionID,
		"messages":   messages,
	})
}

func (h *handler) reset(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	if err := h.conversation.Reset(r.Context(), sessionID); err != nil {
		logger.Error("session reset failed: %v", err)
		writeError(w, http.StatusServiceUnavailable, "reset failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) ingest(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	report, err := h.ingestor.Ingest(r.Context(), req.SourceID, req.Text, domain.SourceMeta{
		Title:       req.Title,
		URL:         req.URL,
		Category:    req.Category,
		PublishedAt: req.PublishedAt,
	})
	if err != nil {
		if services.IsValidation(err) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if errors.Is(err, domain.ErrEmbeddingUnavailable) || errors.Is(err, domain.ErrIndexUnavailable) {
			writeError(w, http.StatusServiceUnavailable, "ingestion dependencies unavailable")
			return
		}
		logger.Error("ingestion failed: %v", err)
		writeError(w, http.StatusInternalServerError, "ingestion failed")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"source_id":   report.SourceID,
		"chunk_count": report.ChunkCount,
	})
}

func (h *handler) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.conversation.Stats(r.Context())
	if err != nil {
		logger.Error("stats read failed: %v", err)
		writeError(w, http.StatusServiceUnavailable, "stats unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"total_vector_count": stats.TotalVectorCount,
		"source_count":       stats.SourceCount,
		"index_available":    stats.IndexAvailable,
	})
}

func (h *handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("encoding response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
