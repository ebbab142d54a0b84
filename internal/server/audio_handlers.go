package server

import (
	"errors"
	"net/http"
	"strings"

	"modelgate/internal/inference"
)

type textToSpeechRequest struct {
	Text      string   `json:"text"`
	Model     string   `json:"model,omitempty"`
	SpeakerID *int     `json:"speaker_id,omitempty"`
	Speed     *float64 `json:"speed,omitempty"`
}

func (s *Server) handleTextToSpeech(w http.ResponseWriter, r *http.Request) {
	var body textToSpeechRequest
	if !s.decodeJSON(w, r, &body) {
		return
	}
	if err := checkTextLength("text", body.Text, maxTextChars); err != nil {
		s.validationError(w, err.Error())
		return
	}

	speaker := intOrDefault(body.SpeakerID, 0)
	speed := floatOrDefault(body.Speed, defaultSpeed)
	for _, err := range []error{
		checkIntRange("speaker_id", speaker, 0, maxSpeakerID),
		checkFloatRange("speed", speed, minSpeed, maxSpeed),
	} {
		if err != nil {
			s.validationError(w, err.Error())
			return
		}
	}

	req := &inference.Request{
		Task:  inference.TaskTextToSpeech,
		Model: body.Model,
		Text:  body.Text,
		Params: inference.Params{
			SpeakerID: speaker,
			Speed:     speed,
		},
	}
	resp, ok := s.dispatch(w, r, req)
	if !ok {
		return
	}
	s.writeMedia(w, resp, "speech"+mediaExtension(resp, ".wav"))
}

type transcriptResponse struct {
	Text       string   `json:"text"`
	Language   string   `json:"language,omitempty"`
	Confidence *float64 `json:"confidence,omitempty"`
	ModelUsed  string   `json:"model_used"`
	ElapsedMS  int64    `json:"elapsed_ms"`
}

// handleSpeechToText accepts a multipart form with an "audio" file plus
// optional "model" and "language" fields.
func (s *Server) handleSpeechToText(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxAudioBytes)
	if !s.parseMultipart(w, r) {
		return
	}

	audio, contentType, err := readUpload(r, "audio", true)
	if err != nil {
		s.validationError(w, err.Error())
		return
	}

	language := strings.TrimSpace(r.FormValue("language"))
	if language != "" {
		normalized, ok := inference.NormalizeLanguage(language)
		if !ok {
			s.validationError(w, "language is not a valid language tag")
			return
		}
		language = normalized
	}

	req := &inference.Request{
		Task:             inference.TaskSpeechToText,
		Model:            strings.TrimSpace(r.FormValue("model")),
		Audio:            audio,
		AudioContentType: contentType,
		Params:           inference.Params{Language: language},
	}
	resp, ok := s.dispatch(w, r, req)
	if !ok {
		return
	}

	transcript := transcriptResponse{
		Text:       resp.Transcript.Text,
		Language:   resp.Transcript.Language,
		Confidence: resp.Transcript.Confidence,
		ModelUsed:  resp.ModelUsed,
		ElapsedMS:  resp.ElapsedMillis(),
	}
	// The caller's hint stands in when the model reports no language.
	if transcript.Language == "" {
		transcript.Language = language
	}
	s.writeJSON(w, http.StatusOK, transcript)
}

// parseMultipart parses the form, translating oversized bodies into 413.
func (s *Server) parseMultipart(w http.ResponseWriter, r *http.Request) bool {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) || strings.Contains(err.Error(), "request body too large") {
			s.writeError(w, http.StatusRequestEntityTooLarge, "payload_too_large",
				"upload exceeds the configured size limit")
			return false
		}
		s.validationError(w, "invalid multipart form: "+err.Error())
		return false
	}
	return true
}

func mediaExtension(resp *inference.Response, fallback string) string {
	if resp.Media == nil {
		return fallback
	}
	switch resp.Media.MIMEType {
	case "audio/wav", "audio/x-wav":
		return ".wav"
	case "audio/mpeg":
		return ".mp3"
	case "audio/flac":
		return ".flac"
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "video/mp4":
		return ".mp4"
	case "video/webm":
		return ".webm"
	default:
		return fallback
	}
}
