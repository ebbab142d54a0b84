package inference

// Task identifies one of the supported inference modalities.
type Task string

const (
	TaskTextGeneration  Task = "text-generation"
	TaskEmbedding       Task = "embedding"
	TaskTextToSpeech    Task = "text-to-speech"
	TaskSpeechToText    Task = "speech-to-text"
	TaskImageGeneration Task = "image-generation"
	TaskImageEdit       Task = "image-edit"
	TaskTextToVideo     Task = "text-to-video"
	TaskImageToVideo    Task = "image-to-video"
)

// Tasks returns every supported task in a stable order.
func Tasks() []Task {
	return []Task{
		TaskTextGeneration,
		TaskEmbedding,
		TaskTextToSpeech,
		TaskSpeechToText,
		TaskImageGeneration,
		TaskImageEdit,
		TaskTextToVideo,
		TaskImageToVideo,
	}
}

// Valid reports whether t names a supported task.
func (t Task) Valid() bool {
	switch t {
	case TaskTextGeneration, TaskEmbedding, TaskTextToSpeech, TaskSpeechToText,
		TaskImageGeneration, TaskImageEdit, TaskTextToVideo, TaskImageToVideo:
		return true
	default:
		return false
	}
}

// BinaryOutput reports whether the task yields media bytes rather than a
// typed JSON result.
func (t Task) BinaryOutput() bool {
	switch t {
	case TaskTextToSpeech, TaskImageGeneration, TaskImageEdit, TaskTextToVideo, TaskImageToVideo:
		return true
	default:
		return false
	}
}

func (t Task) String() string {
	return string(t)
}
