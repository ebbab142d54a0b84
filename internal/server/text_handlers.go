package server

import (
	"net/http"

	"modelgate/internal/inference"
)

type textGenerationRequest struct {
	Prompt      string   `json:"prompt"`
	Model       string   `json:"model,omitempty"`
	MaxTokens   *int     `json:"max_tokens,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
	TopP        *float64 `json:"top_p,omitempty"`
	TopK        *int     `json:"top_k,omitempty"`
}

type textGenerationResponse struct {
	Text      string `json:"text"`
	ModelUsed string `json:"model_used"`
	ElapsedMS int64  `json:"elapsed_ms"`
}

func (s *Server) handleTextGeneration(w http.ResponseWriter, r *http.Request) {
	var body textGenerationRequest
	if !s.decodeJSON(w, r, &body) {
		return
	}
	if err := checkTextLength("prompt", body.Prompt, maxPromptChars); err != nil {
		s.validationError(w, err.Error())
		return
	}

	maxTokens := intOrDefault(body.MaxTokens, defaultMaxNewTokens)
	temperature := floatOrDefault(body.Temperature, defaultTemperature)
	topP := floatOrDefault(body.TopP, defaultTopP)
	topK := intOrDefault(body.TopK, defaultTopK)
	for _, err := range []error{
		checkIntRange("max_tokens", maxTokens, 1, maxMaxNewTokens),
		checkFloatRange("temperature", temperature, 0, maxTemperature),
		checkFloatRange("top_p", topP, 0, 1),
		checkIntRange("top_k", topK, 1, maxTopK),
	} {
		if err != nil {
			s.validationError(w, err.Error())
			return
		}
	}

	req := &inference.Request{
		Task:   inference.TaskTextGeneration,
		Model:  body.Model,
		Prompt: body.Prompt,
		Params: inference.Params{
			MaxNewTokens: maxTokens,
			Temperature:  temperature,
			TopP:         topP,
			TopK:         topK,
		},
	}
	resp, ok := s.dispatch(w, r, req)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, textGenerationResponse{
		Text:      resp.Text.Content,
		ModelUsed: resp.ModelUsed,
		ElapsedMS: resp.ElapsedMillis(),
	})
}

type embeddingRequest struct {
	Text  string `json:"text"`
	Model string `json:"model,omitempty"`
}

type embeddingResponse struct {
	Embedding []float64 `json:"embedding"`
	Dimension int       `json:"dimension"`
	ModelUsed string    `json:"model_used"`
	ElapsedMS int64     `json:"elapsed_ms"`
}

func (s *Server) handleEmbedding(w http.ResponseWriter, r *http.Request) {
	var body embeddingRequest
	if !s.decodeJSON(w, r, &body) {
		return
	}
	if err := checkTextLength("text", body.Text, maxTextChars); err != nil {
		s.validationError(w, err.Error())
		return
	}

	req := &inference.Request{
		Task:  inference.TaskEmbedding,
		Model: body.Model,
		Text:  body.Text,
	}
	resp, ok := s.dispatch(w, r, req)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, embeddingResponse{
		Embedding: resp.Embedding.Vector,
		Dimension: resp.Embedding.Dimension,
		ModelUsed: resp.ModelUsed,
		ElapsedMS: resp.ElapsedMillis(),
	})
}
