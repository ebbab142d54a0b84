package server

import (
	"net/http"
	"strings"

	"modelgate/internal/inference"
)

type textToVideoRequest struct {
	Prompt         string `json:"prompt"`
	Model          string `json:"model,omitempty"`
	NegativePrompt string `json:"negative_prompt,omitempty"`
	Duration       *int   `json:"duration,omitempty"`
	FPS            *int   `json:"fps,omitempty"`
	Steps          *int   `json:"num_inference_steps,omitempty"`
}

func (s *Server) handleTextToVideo(w http.ResponseWriter, r *http.Request) {
	var body textToVideoRequest
	if !s.decodeJSON(w, r, &body) {
		return
	}
	if err := checkTextLength("prompt", body.Prompt, maxPromptChars); err != nil {
		s.validationError(w, err.Error())
		return
	}

	duration := intOrDefault(body.Duration, defaultVideoDuration)
	fps := intOrDefault(body.FPS, defaultVideoFPS)
	steps := intOrDefault(body.Steps, defaultSteps)
	for _, err := range []error{
		checkIntRange("duration", duration, 1, maxVideoDuration),
		checkIntRange("fps", fps, 1, maxVideoFPS),
		checkIntRange("num_inference_steps", steps, 1, maxSteps),
	} {
		if err != nil {
			s.validationError(w, err.Error())
			return
		}
	}

	req := &inference.Request{
		Task:   inference.TaskTextToVideo,
		Model:  body.Model,
		Prompt: body.Prompt,
		Params: inference.Params{
			NegativePrompt: body.NegativePrompt,
			Duration:       duration,
			FPS:            fps,
			InferenceSteps: steps,
		},
	}
	resp, ok := s.dispatch(w, r, req)
	if !ok {
		return
	}
	s.writeMedia(w, resp, "video"+mediaExtension(resp, ".mp4"))
}

// handleImageToVideo accepts a multipart form with an "image" file plus
// optional "prompt", "model", "duration", and "fps" fields.
func (s *Server) handleImageToVideo(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxImageBytes)
	if !s.parseMultipart(w, r) {
		return
	}

	image, _, err := readUpload(r, "image", true)
	if err != nil {
		s.validationError(w, err.Error())
		return
	}

	duration, err := formInt(r, "duration")
	if err != nil {
		s.validationError(w, err.Error())
		return
	}
	fps, err := formInt(r, "fps")
	if err != nil {
		s.validationError(w, err.Error())
		return
	}

	durationValue := intOrDefault(duration, defaultVideoDuration)
	fpsValue := intOrDefault(fps, defaultVideoFPS)
	for _, err := range []error{
		checkIntRange("duration", durationValue, 1, maxVideoDuration),
		checkIntRange("fps", fpsValue, 1, maxVideoFPS),
	} {
		if err != nil {
			s.validationError(w, err.Error())
			return
		}
	}

	req := &inference.Request{
		Task:   inference.TaskImageToVideo,
		Model:  strings.TrimSpace(r.FormValue("model")),
		Prompt: strings.TrimSpace(r.FormValue("prompt")),
		Image:  image,
		Params: inference.Params{
			Duration: durationValue,
			FPS:      fpsValue,
		},
	}
	resp, ok := s.dispatch(w, r, req)
	if !ok {
		return
	}
	s.writeMedia(w, resp, "video"+mediaExtension(resp, ".mp4"))
}
