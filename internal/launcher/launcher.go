// Package launcher starts external training jobs and reports their status.
// Two launchers exist: a workflow execution that runs the whole training
// pipeline remotely, and a direct engine launcher that imports the staged
// dataset and trains a processor version itself.
package launcher

import (
	"context"
	"errors"
	"time"
)

// ErrLaunch is returned when a job cannot be started or its status read.
var ErrLaunch = errors.New("launch failed")

// Request describes one training job.
type Request struct {
	ProcessorID  string    `json:"processor_id"`
	TrainingType string    `json:"training_type"`
	BatchID      string    `json:"batch_id"`
	ManifestURI  string    `json:"manifest_uri"`
	StagedPrefix string    `json:"staged_prefix,omitempty"`
	TriggeredAt  time.Time `json:"triggered_at"`
}

// JobStatus is the observed state of a launched job. Error is set only when
// Done is true and the job failed.
type JobStatus struct {
	Done             bool
	Error            string
	ProcessorVersion string
	Accuracy         *float64
}

// Launcher starts training jobs and polls them by handle.
type Launcher interface {
	Launch(ctx context.Context, req Request) (string, error)
	Status(ctx context.Context, handle string) (*JobStatus, error)
}
