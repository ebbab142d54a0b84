package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"modelgate/internal/history"
	"modelgate/internal/inference"
	"modelgate/internal/logging"
)

type healthResponse struct {
	Status        string `json:"status"`
	UptimeSeconds int64  `json:"uptime_s"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, healthResponse{
		Status:        "ok",
		UptimeSeconds: int64(time.Since(s.started).Seconds()),
	})
}

type taskModels struct {
	Default   string   `json:"default"`
	Fallbacks []string `json:"fallbacks"`
}

type configResponse struct {
	Models        map[string]taskModels `json:"models"`
	MaxImageBytes int64                 `json:"max_image_bytes"`
	MaxAudioBytes int64                 `json:"max_audio_bytes"`
}

// handleConfig reports the effective model catalog and upload limits.
// Credentials are never included.
func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	models := make(map[string]taskModels, len(s.catalog))
	for _, task := range inference.Tasks() {
		entry := s.catalog[task]
		fallbacks := entry.Fallbacks
		if fallbacks == nil {
			fallbacks = []string{}
		}
		models[string(task)] = taskModels{
			Default:   entry.Default,
			Fallbacks: fallbacks,
		}
	}
	s.writeJSON(w, http.StatusOK, configResponse{
		Models:        models,
		MaxImageBytes: s.maxImageBytes,
		MaxAudioBytes: s.maxAudioBytes,
	})
}

type historyEntry struct {
	ID             string `json:"id"`
	Task           string `json:"task"`
	RequestedModel string `json:"requested_model,omitempty"`
	ModelUsed      string `json:"model_used,omitempty"`
	Status         string `json:"status"`
	Attempts       int    `json:"attempts"`
	ElapsedMS      int64  `json:"elapsed_ms"`
	Detail         string `json:"detail,omitempty"`
	CreatedAt      string `json:"created_at"`
}

type historyResponse struct {
	Entries []historyEntry `json:"entries"`
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		s.writeJSON(w, http.StatusOK, historyResponse{Entries: []historyEntry{}})
		return
	}

	limit := 50
	if value := strings.TrimSpace(r.URL.Query().Get("limit")); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil || parsed < 1 || parsed > 500 {
			s.validationError(w, "limit must be an integer between 1 and 500")
			return
		}
		limit = parsed
	}

	entries, err := s.history.Recent(r.Context(), limit)
	if err != nil {
		s.logger.Error("query history", logging.Error(err))
		s.writeError(w, http.StatusInternalServerError, "internal_error", "failed to read history")
		return
	}

	out := make([]historyEntry, 0, len(entries))
	for _, entry := range entries {
		out = append(out, toHistoryEntry(entry))
	}
	s.writeJSON(w, http.StatusOK, historyResponse{Entries: out})
}

func toHistoryEntry(entry history.Entry) historyEntry {
	return historyEntry{
		ID:             entry.ID,
		Task:           entry.Task,
		RequestedModel: entry.RequestedModel,
		ModelUsed:      entry.ModelUsed,
		Status:         entry.Status,
		Attempts:       entry.Attempts,
		ElapsedMS:      entry.ElapsedMS,
		Detail:         entry.Detail,
		CreatedAt:      entry.CreatedAt.UTC().Format(time.RFC3339),
	}
}
