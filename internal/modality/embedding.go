package modality

import (
	"encoding/json"

	"modelgate/internal/inference"
	"modelgate/internal/upstream"
)

type embeddingAdapter struct{}

func (embeddingAdapter) Task() inference.Task { return inference.TaskEmbedding }

func (embeddingAdapter) BuildPayload(req *inference.Request) (*upstream.Payload, error) {
	body, err := json.Marshal(struct {
		Inputs string `json:"inputs"`
	}{Inputs: req.Text})
	if err != nil {
		return nil, err
	}
	return &upstream.Payload{ContentType: "application/json", Body: body}, nil
}

// ParseResponse accepts either a flat vector or a vector nested one level
// deep, which is how sentence similarity models wrap a single input.
func (embeddingAdapter) ParseResponse(outcome *upstream.Outcome) (*inference.Response, error) {
	task := inference.TaskEmbedding

	var flat []float64
	if err := json.Unmarshal(outcome.Body, &flat); err == nil {
		return embeddingResponse(task, flat)
	}

	var nested [][]float64
	if err := json.Unmarshal(outcome.Body, &nested); err != nil {
		return nil, parseError(task, "unexpected response body: %v", err)
	}
	if len(nested) == 0 {
		return nil, parseError(task, "response carried no vector")
	}
	return embeddingResponse(task, nested[0])
}

func embeddingResponse(task inference.Task, vector []float64) (*inference.Response, error) {
	if len(vector) == 0 {
		return nil, parseError(task, "response carried an empty vector")
	}
	return &inference.Response{
		Task: task,
		Embedding: &inference.EmbeddingResult{
			Vector:    vector,
			Dimension: len(vector),
		},
	}, nil
}
