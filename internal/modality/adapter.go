package modality

import (
	"fmt"

	"modelgate/internal/inference"
	"modelgate/internal/upstream"
)

// Adapter converts between one task's request shape and the provider wire
// format. BuildPayload must be deterministic so a payload can be re-sent to
// fallback models unchanged.
type Adapter interface {
	Task() inference.Task
	BuildPayload(req *inference.Request) (*upstream.Payload, error)
	ParseResponse(outcome *upstream.Outcome) (*inference.Response, error)
}

var registry = map[inference.Task]Adapter{
	inference.TaskTextGeneration:  textGenerationAdapter{},
	inference.TaskEmbedding:       embeddingAdapter{},
	inference.TaskTextToSpeech:    textToSpeechAdapter{},
	inference.TaskSpeechToText:    speechToTextAdapter{},
	inference.TaskImageGeneration: imageGenerationAdapter{},
	inference.TaskImageEdit:       imageEditAdapter{},
	inference.TaskTextToVideo:     textToVideoAdapter{},
	inference.TaskImageToVideo:    imageToVideoAdapter{},
}

// ForTask returns the adapter handling the given task.
func ForTask(task inference.Task) (Adapter, error) {
	adapter, ok := registry[task]
	if !ok {
		return nil, fmt.Errorf("no adapter for task %q", task)
	}
	return adapter, nil
}

func parseError(task inference.Task, format string, args ...any) error {
	return fmt.Errorf("%s: %s", task, fmt.Sprintf(format, args...))
}
