// Package intake handles storage upload events: it records each accepted
// document, classifies it when a model is deployed, and triggers training
// when the processor's thresholds are met.
package intake

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/JaimeStill/docent/internal/batches"
	"github.com/JaimeStill/docent/internal/classification"
	"github.com/JaimeStill/docent/internal/documents"
	"github.com/JaimeStill/docent/internal/labeling"
	"github.com/JaimeStill/docent/internal/metrics"
	"github.com/JaimeStill/docent/internal/training"
)

// Outcome statuses.
const (
	StatusSuccess        = "success"
	StatusPartialSuccess = "partial_success"
	StatusSkipped        = "skipped"
	StatusError          = "error"
)

// Event is a storage object notification.
type Event struct {
	Bucket      string `json:"bucket"`
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
}

// Outcome reports how an event was handled.
type Outcome struct {
	Status            string           `json:"status"`
	Reason            string           `json:"reason,omitempty"`
	DocumentID        string           `json:"document_id,omitempty"`
	Label             string           `json:"label,omitempty"`
	DocumentStatus    documents.Status `json:"document_status,omitempty"`
	TrainingTriggered bool             `json:"training_triggered"`
	TrainingType      batches.Kind     `json:"training_type,omitempty"`
	BatchID           string           `json:"batch_id,omitempty"`
	Error             string           `json:"error,omitempty"`
}

// Documents reads and writes document records.
type Documents interface {
	Find(ctx context.Context, id string) (*documents.Document, error)
	Upsert(ctx context.Context, cmd documents.UpsertCommand) (*documents.Document, error)
}

// Classifier classifies stored documents with a deployed model.
type Classifier interface {
	HasDeployedModel(ctx context.Context, processorID string) bool
	Classify(ctx context.Context, key, processorID, provisional string) (*classification.Result, error)
}

// Trainer evaluates thresholds and opens training batches.
type Trainer interface {
	Evaluate(ctx context.Context, processorID string) (*training.Decision, error)
	Trigger(ctx context.Context, processorID string, kind batches.Kind) (*batches.Batch, error)
}

// Locator resolves a storage key to its canonical URI.
type Locator interface {
	URI(key string) string
}

// Deps are the collaborators of a Controller.
type Deps struct {
	Documents  Documents
	Classifier Classifier
	Trainer    Trainer
	Locator    Locator
	Metrics    *metrics.Recorder
}

// Options configure event filtering.
type Options struct {
	ProcessorID   string
	RootPrefix    string
	ContentTypes  []string
	WatchedBucket string
	Clock         func() time.Time
}

// Controller handles upload events.
type Controller struct {
	deps   Deps
	opts   Options
	logger *slog.Logger
}

// New creates a Controller.
func New(deps Deps, opts Options, logger *slog.Logger) *Controller {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Controller{
		deps:   deps,
		opts:   opts,
		logger: logger.With("system", "intake"),
	}
}

// Handler returns the HTTP handler for storage events.
func (c *Controller) Handler(maxEventSize int64) *Handler {
	return NewHandler(c, maxEventSize, c.logger)
}

// HandleUpload processes a single upload event. It never panics and reports
// every failure through the returned Outcome.
func (c *Controller) HandleUpload(ctx context.Context, ev Event) Outcome {
	out := c.handle(ctx, ev)
	c.deps.Metrics.IntakeOutcome(ctx, out.Status)

	attrs := []any{
		"bucket", ev.Bucket,
		"name", ev.Name,
		"status", out.Status,
		"document_id", out.DocumentID,
	}
	switch out.Status {
	case StatusError:
		c.logger.Error("upload failed", append(attrs, "error", out.Error)...)
	case StatusPartialSuccess:
		c.logger.Warn("upload partially handled", append(attrs, "error", out.Error)...)
	case StatusSkipped:
		c.logger.Debug("upload skipped", append(attrs, "reason", out.Reason)...)
	default:
		c.logger.Info(
			"upload handled",
			append(attrs,
				"label", out.Label,
				"document_status", out.DocumentStatus,
				"training_triggered", out.TrainingTriggered,
			)...,
		)
	}
	return out
}

func (c *Controller) handle(ctx context.Context, ev Event) Outcome {
	if ev.Bucket == "" || ev.Name == "" {
		return skipped("missing bucket or name")
	}
	if c.opts.WatchedBucket != "" && ev.Bucket != c.opts.WatchedBucket {
		return skipped("bucket " + ev.Bucket + " is not watched")
	}
	if !labeling.Accepts(c.opts.RootPrefix, c.opts.ContentTypes, ev.Name, ev.ContentType) {
		return skipped("outside intake root or unsupported content type")
	}

	id := labeling.DeriveID(ev.Name)
	out := Outcome{DocumentID: id}

	existing, err := c.deps.Documents.Find(ctx, id)
	if err != nil && !errors.Is(err, documents.ErrNotFound) {
		return failed(out, "load document", err)
	}
	if existing != nil && existing.Status == documents.StatusCompleted {
		out.Status = StatusSkipped
		out.Reason = "already processed"
		out.DocumentStatus = existing.Status
		if existing.Label != nil {
			out.Label = *existing.Label
		}
		return out
	}

	label := labeling.AssignLabel(c.opts.RootPrefix, ev.Name)

	cmd := documents.UpsertCommand{
		DocumentID:  id,
		SourceURI:   c.deps.Locator.URI(ev.Name),
		Bucket:      ev.Bucket,
		Path:        ev.Name,
		ProcessorID: c.opts.ProcessorID,
		Label:       storedLabel(label),
		Status:      documents.StatusPending,
	}
	if _, err := c.deps.Documents.Upsert(ctx, cmd); err != nil {
		return failed(out, "record document", err)
	}

	c.classify(ctx, &cmd, label)

	if _, err := c.deps.Documents.Upsert(ctx, cmd); err != nil {
		return failed(out, "record classification", err)
	}

	out.DocumentStatus = cmd.Status
	out.Label = displayLabel(cmd.Label)

	decision, err := c.deps.Trainer.Evaluate(ctx, c.opts.ProcessorID)
	if err != nil {
		return failed(out, "evaluate thresholds", err)
	}

	out.Status = StatusSuccess
	if !decision.ShouldTrain {
		return out
	}

	b, err := c.deps.Trainer.Trigger(ctx, c.opts.ProcessorID, decision.Kind)
	switch {
	case err == nil:
		out.TrainingTriggered = true
		out.TrainingType = b.Kind
		out.BatchID = b.BatchID
	case errors.Is(err, batches.ErrTrainingInFlight), errors.Is(err, batches.ErrNoCandidates):
		out.Reason = err.Error()
	case errors.Is(err, training.ErrLaunch):
		out.Status = StatusPartialSuccess
		out.TrainingType = decision.Kind
		out.Error = err.Error()
		if b != nil {
			out.BatchID = b.BatchID
		}
	default:
		return failed(out, "trigger training", err)
	}

	return out
}

// classify fills the outcome fields of cmd. Without a deployed model, or when
// classification fails, the document waits for initial training.
func (c *Controller) classify(ctx context.Context, cmd *documents.UpsertCommand, provisional string) {
	now := c.opts.Clock().UTC()
	cmd.ProcessedAt = &now
	cmd.Status = documents.StatusPendingInitialTraining

	if !c.deps.Classifier.HasDeployedModel(ctx, c.opts.ProcessorID) {
		return
	}

	result, err := c.deps.Classifier.Classify(ctx, cmd.Path, c.opts.ProcessorID, provisional)
	c.deps.Metrics.Classification(ctx, err == nil)
	if err != nil {
		msg := err.Error()
		cmd.ErrorMessage = &msg
		c.logger.Warn("classification failed", "document_id", cmd.DocumentID, "error", err)
		return
	}

	cmd.Status = documents.StatusCompleted
	cmd.Label = storedLabel(result.Label)
	cmd.Confidence = &result.Confidence
	cmd.ExtractedData = &result.Extracted
}

func skipped(reason string) Outcome {
	return Outcome{Status: StatusSkipped, Reason: reason}
}

func failed(out Outcome, step string, err error) Outcome {
	out.Status = StatusError
	out.Error = step + ": " + err.Error()
	return out
}

// storedLabel maps the unlabeled sentinel to NULL.
func storedLabel(label string) *string {
	if !labeling.Labeled(label) {
		return nil
	}
	return &label
}

func displayLabel(label *string) string {
	if label == nil {
		return labeling.Other
	}
	return *label
}
