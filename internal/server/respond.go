package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"modelgate/internal/inference"
	"modelgate/internal/logging"
)

type errorBody struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	Details   any    `json:"details,omitempty"`
	Timestamp string `json:"timestamp"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, tag, message string) {
	s.writeJSON(w, status, errorBody{
		Error:     tag,
		Message:   message,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// writeGatewayError maps the failure classification onto an HTTP status.
func (s *Server) writeGatewayError(w http.ResponseWriter, err error) {
	class := inference.ClassOf(err)
	status := http.StatusBadGateway
	switch class {
	case inference.ClassValidation:
		status = http.StatusUnprocessableEntity
	case inference.ClassCancelled:
		status = http.StatusGatewayTimeout
	case inference.ClassExhausted:
		status = http.StatusBadGateway
	}

	body := errorBody{
		Error:     string(class),
		Message:   err.Error(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	var gerr *inference.Error
	if errors.As(err, &gerr) && gerr.Model != "" {
		body.Details = map[string]any{
			"last_model": gerr.Model,
			"attempts":   gerr.Attempts,
			"elapsed_ms": gerr.Elapsed.Milliseconds(),
		}
	}
	s.writeJSON(w, status, body)
}

// writeMedia streams a binary result with the serving model in headers.
func (s *Server) writeMedia(w http.ResponseWriter, resp *inference.Response, filename string) {
	media := resp.Media
	if media == nil {
		s.writeError(w, http.StatusBadGateway, string(inference.ClassParse), "no media in response")
		return
	}
	w.Header().Set("Content-Type", media.MIMEType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("X-Model-Used", resp.ModelUsed)
	w.Header().Set("X-Elapsed-Ms", fmt.Sprintf("%d", resp.ElapsedMillis()))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(media.Data); err != nil {
		s.logger.Error("failed to write media response", logging.Error(err))
	}
}

// decodeJSON reads a JSON body into dst, translating oversized and malformed
// bodies into client errors.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			s.writeError(w, http.StatusRequestEntityTooLarge, "payload_too_large",
				fmt.Sprintf("request body exceeds %d bytes", maxErr.Limit))
			return false
		}
		s.writeError(w, http.StatusUnprocessableEntity, string(inference.ClassValidation),
			"invalid request body: "+err.Error())
		return false
	}
	return true
}

func (s *Server) validationError(w http.ResponseWriter, message string) {
	s.writeError(w, http.StatusUnprocessableEntity, string(inference.ClassValidation), message)
}
