package server

import (
	"net/http"
	"strings"

	"modelgate/internal/inference"
)

type imageGenerationRequest struct {
	Prompt         string   `json:"prompt"`
	Model          string   `json:"model,omitempty"`
	NegativePrompt string   `json:"negative_prompt,omitempty"`
	Height         *int     `json:"height,omitempty"`
	Width          *int     `json:"width,omitempty"`
	Steps          *int     `json:"num_inference_steps,omitempty"`
	GuidanceScale  *float64 `json:"guidance_scale,omitempty"`
}

func (s *Server) handleImageGeneration(w http.ResponseWriter, r *http.Request) {
	var body imageGenerationRequest
	if !s.decodeJSON(w, r, &body) {
		return
	}
	if err := checkTextLength("prompt", body.Prompt, maxPromptChars); err != nil {
		s.validationError(w, err.Error())
		return
	}

	height := intOrDefault(body.Height, defaultDimension)
	width := intOrDefault(body.Width, defaultDimension)
	steps := intOrDefault(body.Steps, defaultSteps)
	guidance := floatOrDefault(body.GuidanceScale, defaultGuidance)
	for _, err := range []error{
		checkIntRange("height", height, minDimension, maxDimension),
		checkIntRange("width", width, minDimension, maxDimension),
		checkIntRange("num_inference_steps", steps, 1, maxSteps),
		checkFloatRange("guidance_scale", guidance, minGuidance, maxGuidance),
	} {
		if err != nil {
			s.validationError(w, err.Error())
			return
		}
	}

	req := &inference.Request{
		Task:   inference.TaskImageGeneration,
		Model:  body.Model,
		Prompt: body.Prompt,
		Params: inference.Params{
			NegativePrompt: body.NegativePrompt,
			Height:         height,
			Width:          width,
			InferenceSteps: steps,
			GuidanceScale:  guidance,
		},
	}
	resp, ok := s.dispatch(w, r, req)
	if !ok {
		return
	}
	s.writeMedia(w, resp, "image"+mediaExtension(resp, ".png"))
}

// handleImageEdit accepts a multipart form with an "image" file, an optional
// "mask" file, a "prompt" field, and tuning fields. A mask requests
// inpainting; without one the whole image is reworked and "strength" applies.
func (s *Server) handleImageEdit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxImageBytes)
	if !s.parseMultipart(w, r) {
		return
	}

	image, _, err := readUpload(r, "image", true)
	if err != nil {
		s.validationError(w, err.Error())
		return
	}
	mask, _, err := readUpload(r, "mask", false)
	if err != nil {
		s.validationError(w, err.Error())
		return
	}

	prompt := r.FormValue("prompt")
	if err := checkTextLength("prompt", prompt, maxPromptChars); err != nil {
		s.validationError(w, err.Error())
		return
	}

	steps, err := formInt(r, "num_inference_steps")
	if err != nil {
		s.validationError(w, err.Error())
		return
	}
	guidance, err := formFloat(r, "guidance_scale")
	if err != nil {
		s.validationError(w, err.Error())
		return
	}
	strength, err := formFloat(r, "strength")
	if err != nil {
		s.validationError(w, err.Error())
		return
	}

	stepsValue := intOrDefault(steps, defaultSteps)
	guidanceValue := floatOrDefault(guidance, defaultGuidance)
	for _, err := range []error{
		checkIntRange("num_inference_steps", stepsValue, 1, maxSteps),
		checkFloatRange("guidance_scale", guidanceValue, minGuidance, maxGuidance),
	} {
		if err != nil {
			s.validationError(w, err.Error())
			return
		}
	}
	if strength != nil {
		if err := checkFloatRange("strength", *strength, 0, 1); err != nil {
			s.validationError(w, err.Error())
			return
		}
	}

	req := &inference.Request{
		Task:   inference.TaskImageEdit,
		Model:  strings.TrimSpace(r.FormValue("model")),
		Prompt: prompt,
		Image:  image,
		Mask:   mask,
		Params: inference.Params{
			NegativePrompt: r.FormValue("negative_prompt"),
			InferenceSteps: stepsValue,
			GuidanceScale:  guidanceValue,
			Strength:       strength,
		},
	}
	resp, ok := s.dispatch(w, r, req)
	if !ok {
		return
	}
	s.writeMedia(w, resp, "edited"+mediaExtension(resp, ".png"))
}
