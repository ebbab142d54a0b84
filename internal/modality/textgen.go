package modality

import (
	"encoding/json"
	"strings"

	"modelgate/internal/inference"
	"modelgate/internal/upstream"
)

type textGenerationAdapter struct{}

func (textGenerationAdapter) Task() inference.Task { return inference.TaskTextGeneration }

type textGenerationParameters struct {
	MaxNewTokens   int     `json:"max_new_tokens,omitempty"`
	Temperature    float64 `json:"temperature,omitempty"`
	TopP           float64 `json:"top_p,omitempty"`
	TopK           int     `json:"top_k,omitempty"`
	ReturnFullText bool    `json:"return_full_text"`
}

type textGenerationPayload struct {
	Inputs     string                   `json:"inputs"`
	Parameters textGenerationParameters `json:"parameters"`
}

func (textGenerationAdapter) BuildPayload(req *inference.Request) (*upstream.Payload, error) {
	body, err := json.Marshal(textGenerationPayload{
		Inputs: req.Prompt,
		Parameters: textGenerationParameters{
			MaxNewTokens: req.Params.MaxNewTokens,
			Temperature:  req.Params.Temperature,
			TopP:         req.Params.TopP,
			TopK:         req.Params.TopK,
		},
	})
	if err != nil {
		return nil, err
	}
	return &upstream.Payload{ContentType: "application/json", Body: body}, nil
}

// ParseResponse accepts both response shapes providers use for text
// generation: a list of choices or a single object.
func (textGenerationAdapter) ParseResponse(outcome *upstream.Outcome) (*inference.Response, error) {
	task := inference.TaskTextGeneration

	var choices []struct {
		GeneratedText *string `json:"generated_text"`
	}
	if err := json.Unmarshal(outcome.Body, &choices); err == nil {
		if len(choices) == 0 || choices[0].GeneratedText == nil {
			return nil, parseError(task, "response carried no generated text")
		}
		return textResponse(task, *choices[0].GeneratedText), nil
	}

	var single struct {
		GeneratedText *string `json:"generated_text"`
	}
	if err := json.Unmarshal(outcome.Body, &single); err != nil {
		return nil, parseError(task, "unexpected response body: %v", err)
	}
	if single.GeneratedText == nil {
		return nil, parseError(task, "response carried no generated text")
	}
	return textResponse(task, *single.GeneratedText), nil
}

func textResponse(task inference.Task, content string) *inference.Response {
	return &inference.Response{
		Task: task,
		Text: &inference.TextResult{Content: strings.TrimSpace(content)},
	}
}
