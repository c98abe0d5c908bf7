// Package documents implements the document record domain for Docent.
// It provides the intake status model, persistence of document records,
// threshold counting queries, and the administrative claim reset.
package documents

import (
	"fmt"
	"time"
)

// Status is the intake state of a document record.
type Status string

const (
	// StatusPending marks a document on first sight, before classification.
	StatusPending Status = "pending"
	// StatusPendingInitialTraining marks a labeled document waiting for a model.
	// It is terminal until a training batch claims the record.
	StatusPendingInitialTraining Status = "pending_initial_training"
	// StatusCompleted marks a document classified by a deployed model.
	StatusCompleted Status = "completed"
	// StatusFailed marks a document that could not be processed.
	StatusFailed Status = "failed"
)

// Statuses lists every document status in intake order.
var Statuses = []Status{
	StatusPending,
	StatusPendingInitialTraining,
	StatusCompleted,
	StatusFailed,
}

// ParseStatus converts s to a Status, rejecting unknown values.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusPendingInitialTraining, StatusCompleted, StatusFailed:
		return Status(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

// Entity is a single field extracted by the classification engine.
type Entity struct {
	Type       string  `json:"type"`
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// ExtractedData holds the structured output of a classification call.
type ExtractedData struct {
	PageCount  int      `json:"page_count"`
	TextLength int      `json:"text_length"`
	Entities   []Entity `json:"entities"`
}

// Document is the durable record of a single stored document.
// A nil Label means the document is unlabeled and excluded from threshold counts.
type Document struct {
	DocumentID      string         `json:"document_id"`
	SourceURI       string         `json:"source_uri"`
	Bucket          string         `json:"bucket"`
	Path            string         `json:"path"`
	ProcessorID     string         `json:"processor_id"`
	Label           *string        `json:"label"`
	Status          Status         `json:"status"`
	UsedForTraining bool           `json:"used_for_training"`
	TrainingBatchID *string        `json:"training_batch_id"`
	Confidence      *float64       `json:"confidence"`
	ExtractedData   *ExtractedData `json:"extracted_data"`
	ErrorMessage    *string        `json:"error_message"`
	CreatedAt       time.Time      `json:"created_at"`
	ProcessedAt     *time.Time     `json:"processed_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// UpsertCommand writes the intake outcome for a document.
// SourceURI, Bucket, and Path are only written on first insert. Claim fields
// (used_for_training, training_batch_id) are never touched by an upsert.
type UpsertCommand struct {
	DocumentID    string
	SourceURI     string
	Bucket        string
	Path          string
	ProcessorID   string
	Label         *string
	Status        Status
	Confidence    *float64
	ExtractedData *ExtractedData
	ErrorMessage  *string
	ProcessedAt   *time.Time
}

// Criteria selects documents for threshold counting.
// Empty ProcessorID and Status are ignored; Labeled requires a non-empty label.
type Criteria struct {
	ProcessorID     string
	Status          Status
	UsedForTraining *bool
	Labeled         bool
}

// ResetCommand releases claimed documents so they can be used by a later batch.
type ResetCommand struct {
	ProcessorID string  `json:"processor_id"`
	BatchID     *string `json:"batch_id,omitempty"`
	Status      *Status `json:"status,omitempty"`
}

// ResetResult reports how many documents were released.
type ResetResult struct {
	Released int64 `json:"released"`
}
