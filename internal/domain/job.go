package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	JobStatusCreated    = "created"
	JobStatusQueued     = "queued"
	JobStatusProcessing = "processing"
	JobStatusSucceeded  = "succeeded"
	JobStatusFailed     = "failed"

	SourceTypeLocalFile   = "local_file"
	SourceTypeS3Presigned = "s3_presigned"
)

type CreateImageRequest struct {
	SourceType     string         `json:"source_type"`
	WebhookURL     string         `json:"webhook_url,omitempty"`
	ObjectKey      string         `json:"object_key,omitempty"`
	OutputFilename string         `json:"output_filename,omitempty"`
	Settings       map[string]any `json:"settings,omitempty"`
}

type Job struct {
	ID             string
	UserID         string
	Status         string
	SourceType     string
	WebhookURL     string
	ObjectKey      string
	OutputFilename string
	Settings       map[string]any
	Result         *ProcessingResult
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (r CreateImageRequest) Validate() error {
	sourceType := strings.ToLower(strings.TrimSpace(r.SourceType))
	if sourceType == "" {
		return errors.New("source_type is required")
	}
	if sourceType != SourceTypeLocalFile && sourceType != SourceTypeS3Presigned {
		return fmt.Errorf("unsupported source_type: %s", r.SourceType)
	}
	if sourceType == SourceTypeLocalFile && strings.TrimSpace(r.ObjectKey) == "" {
		return errors.New("object_key is required for source_type=local_file")
	}
	if _, err := ResolveSettings(r.Settings); err != nil {
		return fmt.Errorf("settings: %w", err)
	}
	return nil
}
