package modality

import (
	"encoding/json"
	"strings"

	"modelgate/internal/inference"
	"modelgate/internal/upstream"
)

type textToSpeechAdapter struct{}

func (textToSpeechAdapter) Task() inference.Task { return inference.TaskTextToSpeech }

type textToSpeechParameters struct {
	SpeakerID int     `json:"speaker_id,omitempty"`
	Speed     float64 `json:"speed,omitempty"`
}

type textToSpeechPayload struct {
	Inputs     string                  `json:"inputs"`
	Parameters *textToSpeechParameters `json:"parameters,omitempty"`
}

func (textToSpeechAdapter) BuildPayload(req *inference.Request) (*upstream.Payload, error) {
	payload := textToSpeechPayload{Inputs: req.Text}
	if req.Params.SpeakerID > 0 || (req.Params.Speed > 0 && req.Params.Speed != 1.0) {
		payload.Parameters = &textToSpeechParameters{
			SpeakerID: req.Params.SpeakerID,
		}
		if req.Params.Speed != 1.0 {
			payload.Parameters.Speed = req.Params.Speed
		}
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &upstream.Payload{ContentType: "application/json", Body: body}, nil
}

func (textToSpeechAdapter) ParseResponse(outcome *upstream.Outcome) (*inference.Response, error) {
	task := inference.TaskTextToSpeech
	media, err := binaryMedia(task, outcome, "audio/", "audio/wav")
	if err != nil {
		return nil, err
	}
	return &inference.Response{Task: task, Media: media}, nil
}

type speechToTextAdapter struct{}

func (speechToTextAdapter) Task() inference.Task { return inference.TaskSpeechToText }

// BuildPayload sends the audio bytes as the raw request body; transcription
// models take no JSON envelope.
func (speechToTextAdapter) BuildPayload(req *inference.Request) (*upstream.Payload, error) {
	contentType := strings.TrimSpace(req.AudioContentType)
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return &upstream.Payload{ContentType: contentType, Body: req.Audio}, nil
}

func (speechToTextAdapter) ParseResponse(outcome *upstream.Outcome) (*inference.Response, error) {
	task := inference.TaskSpeechToText

	var result struct {
		Text     *string  `json:"text"`
		Language string   `json:"language"`
		Score    *float64 `json:"score"`
	}
	if err := json.Unmarshal(outcome.Body, &result); err != nil {
		return nil, parseError(task, "unexpected response body: %v", err)
	}
	if result.Text == nil {
		return nil, parseError(task, "response carried no transcript")
	}
	return &inference.Response{
		Task: task,
		Transcript: &inference.TranscriptResult{
			Text:       strings.TrimSpace(*result.Text),
			Language:   result.Language,
			Confidence: result.Score,
		},
	}, nil
}

// binaryMedia validates a binary response for tasks whose output is media.
// A JSON body where bytes were expected means the model answered with an
// error document or the wrong pipeline was hit.
func binaryMedia(task inference.Task, outcome *upstream.Outcome, wantPrefix, fallbackType string) (*inference.MediaResult, error) {
	if len(outcome.Body) == 0 {
		return nil, parseError(task, "response body was empty")
	}
	if outcome.JSON() {
		return nil, parseError(task, "expected %s*, got JSON: %s", wantPrefix, truncate(outcome.Body, 200))
	}
	mimeType := outcome.ContentType
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = fallbackType
	} else if !strings.HasPrefix(mimeType, wantPrefix) {
		return nil, parseError(task, "expected %s*, got %s", wantPrefix, mimeType)
	}
	return &inference.MediaResult{MIMEType: mimeType, Data: outcome.Body}, nil
}

func truncate(body []byte, limit int) string {
	s := strings.TrimSpace(string(body))
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}
