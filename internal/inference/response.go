package inference

import "time"

// Response is the tagged result of a completed inference request. Exactly
// one variant pointer is non-nil, matching the task's output shape.
type Response struct {
	Task      Task
	ModelUsed string // the candidate that produced the result, after fallback
	Elapsed   time.Duration

	Media      *MediaResult
	Text       *TextResult
	Embedding  *EmbeddingResult
	Transcript *TranscriptResult
}

// MediaResult holds binary output (audio, image, or video) with its MIME type.
type MediaResult struct {
	MIMEType string
	Data     []byte
}

// TextResult holds generated text.
type TextResult struct {
	Content string
}

// EmbeddingResult holds a dense embedding vector.
type EmbeddingResult struct {
	Vector    []float64
	Dimension int
}

// TranscriptResult holds a speech-to-text transcription.
type TranscriptResult struct {
	Text       string
	Language   string
	Confidence *float64
}

// ElapsedMillis returns the elapsed time in whole milliseconds for wire
// serialization.
func (r *Response) ElapsedMillis() int64 {
	return r.Elapsed.Milliseconds()
}
