package modality

import (
	"encoding/base64"
	"encoding/json"

	"modelgate/internal/inference"
	"modelgate/internal/upstream"
)

const defaultStrength = 0.75

type imageGenerationAdapter struct{}

func (imageGenerationAdapter) Task() inference.Task { return inference.TaskImageGeneration }

type imageParameters struct {
	NegativePrompt    string  `json:"negative_prompt,omitempty"`
	Height            int     `json:"height,omitempty"`
	Width             int     `json:"width,omitempty"`
	NumInferenceSteps int     `json:"num_inference_steps,omitempty"`
	GuidanceScale     float64 `json:"guidance_scale,omitempty"`
}

type imageGenerationPayload struct {
	Inputs     string          `json:"inputs"`
	Parameters imageParameters `json:"parameters"`
}

func (imageGenerationAdapter) BuildPayload(req *inference.Request) (*upstream.Payload, error) {
	body, err := json.Marshal(imageGenerationPayload{
		Inputs: req.Prompt,
		Parameters: imageParameters{
			NegativePrompt:    req.Params.NegativePrompt,
			Height:            req.Params.Height,
			Width:             req.Params.Width,
			NumInferenceSteps: req.Params.InferenceSteps,
			GuidanceScale:     req.Params.GuidanceScale,
		},
	})
	if err != nil {
		return nil, err
	}
	return &upstream.Payload{ContentType: "application/json", Body: body}, nil
}

func (imageGenerationAdapter) ParseResponse(outcome *upstream.Outcome) (*inference.Response, error) {
	task := inference.TaskImageGeneration
	media, err := binaryMedia(task, outcome, "image/", "image/png")
	if err != nil {
		return nil, err
	}
	return &inference.Response{Task: task, Media: media}, nil
}

type imageEditAdapter struct{}

func (imageEditAdapter) Task() inference.Task { return inference.TaskImageEdit }

type imageEditParameters struct {
	NegativePrompt    string   `json:"negative_prompt,omitempty"`
	NumInferenceSteps int      `json:"num_inference_steps,omitempty"`
	GuidanceScale     float64  `json:"guidance_scale,omitempty"`
	MaskImage         string   `json:"mask_image,omitempty"`
	Strength          *float64 `json:"strength,omitempty"`
}

type imageEditPayload struct {
	Inputs     string              `json:"inputs"`
	Image      string              `json:"image"`
	Parameters imageEditParameters `json:"parameters"`
}

// BuildPayload shapes one of two edit operations. A mask selects inpainting,
// where only the masked region is regenerated. Without a mask the whole image
// is reworked, with strength controlling how far the result may drift from
// the source.
func (imageEditAdapter) BuildPayload(req *inference.Request) (*upstream.Payload, error) {
	payload := imageEditPayload{
		Inputs: req.Prompt,
		Image:  base64.StdEncoding.EncodeToString(req.Image),
		Parameters: imageEditParameters{
			NegativePrompt:    req.Params.NegativePrompt,
			NumInferenceSteps: req.Params.InferenceSteps,
			GuidanceScale:     req.Params.GuidanceScale,
		},
	}
	if len(req.Mask) > 0 {
		payload.Parameters.MaskImage = base64.StdEncoding.EncodeToString(req.Mask)
	} else {
		strength := defaultStrength
		if req.Params.Strength != nil {
			strength = *req.Params.Strength
		}
		payload.Parameters.Strength = &strength
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &upstream.Payload{ContentType: "application/json", Body: body}, nil
}

func (imageEditAdapter) ParseResponse(outcome *upstream.Outcome) (*inference.Response, error) {
	task := inference.TaskImageEdit
	media, err := binaryMedia(task, outcome, "image/", "image/png")
	if err != nil {
		return nil, err
	}
	return &inference.Response{Task: task, Media: media}, nil
}
