// Package classification adapts the engine's process endpoint into a label,
// a confidence, and extracted fields for a stored document.
package classification

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/JaimeStill/docent/internal/documents"
	"github.com/JaimeStill/docent/internal/engine"
	"github.com/JaimeStill/docent/internal/labeling"
)

// ErrClassification wraps every failure to classify a document.
var ErrClassification = errors.New("classification failed")

// MimeType is the content type sent to the engine.
const MimeType = "application/pdf"

// Engine is the subset of the engine client the adapter calls.
type Engine interface {
	ListVersions(ctx context.Context, processorID string) ([]engine.Version, error)
	Process(ctx context.Context, processorID string, content []byte, mimeType string) (*engine.Document, error)
}

// Blobs reads stored documents.
type Blobs interface {
	Download(ctx context.Context, key string) (io.ReadCloser, error)
}

// Result is the outcome of a successful classification.
type Result struct {
	Label      string                  `json:"label"`
	Confidence float64                 `json:"confidence"`
	Extracted  documents.ExtractedData `json:"extracted"`
}

// Adapter classifies stored documents with the processor's deployed model.
type Adapter struct {
	engine    Engine
	blobs     Blobs
	threshold float64
	logger    *slog.Logger
}

// New creates an Adapter. Classifications below threshold defer to the
// provisional folder label.
func New(eng Engine, blobs Blobs, threshold float64, logger *slog.Logger) *Adapter {
	return &Adapter{
		engine:    eng,
		blobs:     blobs,
		threshold: threshold,
		logger:    logger.With("system", "classification"),
	}
}

// HasDeployedModel reports whether any version of the processor is deployed.
// Listing failures report false.
func (a *Adapter) HasDeployedModel(ctx context.Context, processorID string) bool {
	versions, err := a.engine.ListVersions(ctx, processorID)
	if err != nil {
		a.logger.Warn("list processor versions failed", "processor_id", processorID, "error", err)
		return false
	}

	for _, v := range versions {
		if v.State == engine.StateDeployed {
			return true
		}
	}
	return false
}

// Classify reads the blob at key, validates it as a PDF, and classifies it.
// provisional is the folder-derived label used when the model is unsure or silent.
func (a *Adapter) Classify(ctx context.Context, key, processorID, provisional string) (*Result, error) {
	rc, err := a.blobs.Download(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrClassification, key, err)
	}
	data, err := io.ReadAll(rc)
	rc.Close()
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrClassification, key, err)
	}

	pages, err := api.PageCount(bytes.NewReader(data), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: unreadable pdf %s: %v", ErrClassification, key, err)
	}

	doc, err := a.engine.Process(ctx, processorID, data, MimeType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrClassification, err)
	}

	result := a.interpret(doc, provisional)
	if result.Extracted.PageCount == 0 {
		result.Extracted.PageCount = pages
	}

	a.logger.Info(
		"document classified",
		"key", key,
		"processor_id", processorID,
		"label", result.Label,
		"confidence", result.Confidence,
	)
	return result, nil
}

func (a *Adapter) interpret(doc *engine.Document, provisional string) *Result {
	result := &Result{
		Label: provisional,
		Extracted: documents.ExtractedData{
			PageCount:  len(doc.Pages),
			TextLength: len(doc.Text),
			Entities:   make([]documents.Entity, 0, len(doc.Entities)),
		},
	}

	for _, e := range doc.Entities {
		result.Extracted.Entities = append(result.Extracted.Entities, documents.Entity{
			Type:       e.Type,
			Text:       e.MentionText,
			Confidence: e.Confidence,
		})
	}

	if len(doc.Entities) == 0 {
		return result
	}

	top := doc.Entities[0]
	result.Confidence = top.Confidence

	label := normalizeLabel(top.Type)
	if label == "" || (top.Confidence < a.threshold && labeling.Labeled(provisional)) {
		return result
	}

	result.Label = label
	return result
}

func normalizeLabel(t string) string {
	return strings.ReplaceAll(strings.TrimSpace(t), " ", "_")
}
