package modality

import (
	"encoding/base64"
	"encoding/json"

	"modelgate/internal/inference"
	"modelgate/internal/upstream"
)

type textToVideoAdapter struct{}

func (textToVideoAdapter) Task() inference.Task { return inference.TaskTextToVideo }

type videoParameters struct {
	NegativePrompt    string  `json:"negative_prompt,omitempty"`
	NumFrames         int     `json:"num_frames,omitempty"`
	FPS               int     `json:"fps,omitempty"`
	NumInferenceSteps int     `json:"num_inference_steps,omitempty"`
	GuidanceScale     float64 `json:"guidance_scale,omitempty"`
}

type textToVideoPayload struct {
	Inputs     string          `json:"inputs"`
	Parameters videoParameters `json:"parameters"`
}

func (textToVideoAdapter) BuildPayload(req *inference.Request) (*upstream.Payload, error) {
	params := videoParameters{
		NegativePrompt:    req.Params.NegativePrompt,
		FPS:               req.Params.FPS,
		NumInferenceSteps: req.Params.InferenceSteps,
		GuidanceScale:     req.Params.GuidanceScale,
	}
	// Duration is caller-facing; the wire format wants a frame count.
	if req.Params.Duration > 0 && req.Params.FPS > 0 {
		params.NumFrames = req.Params.Duration * req.Params.FPS
	}
	body, err := json.Marshal(textToVideoPayload{
		Inputs:     req.Prompt,
		Parameters: params,
	})
	if err != nil {
		return nil, err
	}
	return &upstream.Payload{ContentType: "application/json", Body: body}, nil
}

func (textToVideoAdapter) ParseResponse(outcome *upstream.Outcome) (*inference.Response, error) {
	task := inference.TaskTextToVideo
	media, err := binaryMedia(task, outcome, "video/", "video/mp4")
	if err != nil {
		return nil, err
	}
	return &inference.Response{Task: task, Media: media}, nil
}

type imageToVideoAdapter struct{}

func (imageToVideoAdapter) Task() inference.Task { return inference.TaskImageToVideo }

type imageToVideoPayload struct {
	Inputs     string          `json:"inputs"`
	Prompt     string          `json:"prompt,omitempty"`
	Parameters videoParameters `json:"parameters"`
}

func (imageToVideoAdapter) BuildPayload(req *inference.Request) (*upstream.Payload, error) {
	params := videoParameters{
		FPS:               req.Params.FPS,
		NumInferenceSteps: req.Params.InferenceSteps,
	}
	if req.Params.Duration > 0 && req.Params.FPS > 0 {
		params.NumFrames = req.Params.Duration * req.Params.FPS
	}
	body, err := json.Marshal(imageToVideoPayload{
		Inputs:     base64.StdEncoding.EncodeToString(req.Image),
		Prompt:     req.Prompt,
		Parameters: params,
	})
	if err != nil {
		return nil, err
	}
	return &upstream.Payload{ContentType: "application/json", Body: body}, nil
}

func (imageToVideoAdapter) ParseResponse(outcome *upstream.Outcome) (*inference.Response, error) {
	task := inference.TaskImageToVideo
	media, err := binaryMedia(task, outcome, "video/", "video/mp4")
	if err != nil {
		return nil, err
	}
	return &inference.Response{Task: task, Media: media}, nil
}
