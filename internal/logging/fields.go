package logging

// Standardized attribute keys shared across components so log lines stay
// greppable.
const (
	FieldComponent = "component"
	FieldRequestID = "request_id"
	FieldTask      = "task"
	FieldModel     = "model"
	FieldAttempt   = "attempts"
)
