package inference

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/language"
)

// Params carries the optional generation parameters a caller may tune.
// Numeric fields hold concrete values; the HTTP layer applies documented
// defaults before a request reaches the core. Strength is a pointer because
// its presence discriminates image-to-image requests from inpainting ones.
type Params struct {
	NegativePrompt string
	Height         int
	Width          int
	InferenceSteps int
	GuidanceScale  float64
	Strength       *float64
	MaxNewTokens   int
	Temperature    float64
	TopP           float64
	TopK           int
	SpeakerID      int
	Speed          float64
	Language       string
	Duration       int
	FPS            int
}

// Request is a validated, normalized inference request. It is immutable once
// constructed; the fields populated are exactly those the task requires.
type Request struct {
	Task    Task
	Model   string        // caller-requested model, empty for the task default
	Timeout time.Duration // per-request override, zero for the global timeout

	Prompt           string // text-generation, image and video prompts
	Text             string // embedding and text-to-speech input
	Audio            []byte // speech-to-text input
	AudioContentType string
	Image            []byte // image-edit and image-to-video input
	Mask             []byte // image-edit inpainting mask
	Params           Params
}

// Validate checks the per-task field invariants. The HTTP layer enforces
// ranges and size limits; this guards the core against requests whose shape
// does not match their task.
func (r *Request) Validate() error {
	if !r.Task.Valid() {
		return fmt.Errorf("unknown task %q", r.Task)
	}
	switch r.Task {
	case TaskTextGeneration:
		if strings.TrimSpace(r.Prompt) == "" {
			return fmt.Errorf("%s: prompt required", r.Task)
		}
	case TaskEmbedding:
		if strings.TrimSpace(r.Text) == "" {
			return fmt.Errorf("%s: text required", r.Task)
		}
	case TaskTextToSpeech:
		if strings.TrimSpace(r.Text) == "" {
			return fmt.Errorf("%s: text required", r.Task)
		}
	case TaskSpeechToText:
		if len(r.Audio) == 0 {
			return fmt.Errorf("%s: audio required", r.Task)
		}
	case TaskImageGeneration:
		if strings.TrimSpace(r.Prompt) == "" {
			return fmt.Errorf("%s: prompt required", r.Task)
		}
	case TaskImageEdit:
		if strings.TrimSpace(r.Prompt) == "" {
			return fmt.Errorf("%s: prompt required", r.Task)
		}
		if len(r.Image) == 0 {
			return fmt.Errorf("%s: image required", r.Task)
		}
		// Mask selects inpainting; strength selects image-to-image. The two
		// are mutually exclusive rather than resolved by precedence.
		if len(r.Mask) > 0 && r.Params.Strength != nil {
			return fmt.Errorf("%s: mask and strength are mutually exclusive", r.Task)
		}
	case TaskTextToVideo:
		if strings.TrimSpace(r.Prompt) == "" {
			return fmt.Errorf("%s: prompt required", r.Task)
		}
	case TaskImageToVideo:
		if len(r.Image) == 0 {
			return fmt.Errorf("%s: image required", r.Task)
		}
	}
	return nil
}

// NormalizeLanguage canonicalizes a caller-supplied language hint to its
// BCP-47 form ("EN-us" becomes "en-US"). It returns false when the value
// does not parse as a language tag.
func NormalizeLanguage(value string) (string, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", false
	}
	tag, err := language.Parse(value)
	if err != nil {
		return "", false
	}
	return tag.String(), true
}
