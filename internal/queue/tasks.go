package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

const TypeOptimizeImage = "image:optimize"

// OptimizeImagePayload carries everything the worker needs to run one
// optimization: the source location, the raw settings override (merged
// against defaults inside the pipeline), and an optional output name.
type OptimizeImagePayload struct {
	JobID          string         `json:"job_id"`
	SourceType     string         `json:"source_type"`
	WebhookURL     string         `json:"webhook_url,omitempty"`
	ObjectKey      string         `json:"object_key"`
	OutputFilename string         `json:"output_filename,omitempty"`
	Settings       map[string]any `json:"settings,omitempty"`
	RequestedAt    time.Time      `json:"requested_at"`
}

func NewOptimizeImageTask(payload OptimizeImagePayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal optimize payload: %w", err)
	}
	return asynq.NewTask(TypeOptimizeImage, body), nil
}

func ParseOptimizeImagePayload(task *asynq.Task) (OptimizeImagePayload, error) {
	var payload OptimizeImagePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return OptimizeImagePayload{}, fmt.Errorf("unmarshal optimize payload: %w", err)
	}
	return payload, nil
}
