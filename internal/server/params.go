package server

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
)

// Documented parameter defaults and limits. Ranges are validated here so the
// core only ever sees well-formed values.
const (
	maxPromptChars = 1000
	maxTextChars   = 5000

	defaultMaxNewTokens = 256
	maxMaxNewTokens     = 2048
	defaultTemperature  = 0.7
	maxTemperature      = 2.0
	defaultTopP         = 0.9
	defaultTopK         = 50
	maxTopK             = 100

	defaultDimension     = 512
	minDimension         = 256
	maxDimension         = 1024
	defaultSteps         = 50
	maxSteps             = 100
	defaultGuidance      = 7.5
	minGuidance          = 1.0
	maxGuidance          = 20.0
	defaultSpeed         = 1.0
	minSpeed             = 0.5
	maxSpeed             = 2.0
	maxSpeakerID         = 100
	defaultVideoDuration = 6
	maxVideoDuration     = 30
	defaultVideoFPS      = 8
	maxVideoFPS          = 60
)

type rangeError struct {
	field string
	msg   string
}

func (e *rangeError) Error() string {
	return fmt.Sprintf("%s %s", e.field, e.msg)
}

func intOrDefault(value *int, fallback int) int {
	if value == nil {
		return fallback
	}
	return *value
}

func floatOrDefault(value *float64, fallback float64) float64 {
	if value == nil {
		return fallback
	}
	return *value
}

func checkIntRange(field string, value, low, high int) error {
	if value < low || value > high {
		return &rangeError{field: field, msg: fmt.Sprintf("must be between %d and %d", low, high)}
	}
	return nil
}

func checkFloatRange(field string, value, low, high float64) error {
	if value < low || value > high {
		return &rangeError{field: field, msg: fmt.Sprintf("must be between %g and %g", low, high)}
	}
	return nil
}

func checkTextLength(field, value string, max int) error {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return &rangeError{field: field, msg: "is required"}
	}
	if len(trimmed) > max {
		return &rangeError{field: field, msg: fmt.Sprintf("must be at most %d characters", max)}
	}
	return nil
}

// formInt parses an optional integer form field. A missing field returns a
// nil pointer.
func formInt(r *http.Request, field string) (*int, error) {
	value := strings.TrimSpace(r.FormValue(field))
	if value == "" {
		return nil, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return nil, &rangeError{field: field, msg: "must be an integer"}
	}
	return &parsed, nil
}

func formFloat(r *http.Request, field string) (*float64, error) {
	value := strings.TrimSpace(r.FormValue(field))
	if value == "" {
		return nil, nil
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, &rangeError{field: field, msg: "must be a number"}
	}
	return &parsed, nil
}

// readUpload pulls one uploaded file out of a parsed multipart form.
func readUpload(r *http.Request, field string, required bool) ([]byte, string, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		if required {
			return nil, "", &rangeError{field: field, msg: "file is required"}
		}
		return nil, "", nil
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, "", fmt.Errorf("read %s upload: %w", field, err)
	}
	if len(data) == 0 && required {
		return nil, "", &rangeError{field: field, msg: "file is empty"}
	}
	contentType := ""
	if header != nil {
		contentType = header.Header.Get("Content-Type")
	}
	return data, contentType, nil
}
