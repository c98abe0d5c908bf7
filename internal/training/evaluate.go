package training

import (
	"context"
	"fmt"

	"github.com/JaimeStill/docent/internal/batches"
	"github.com/JaimeStill/docent/internal/documents"
)

// Decision is the outcome of a threshold evaluation.
type Decision struct {
	ProcessorID  string       `json:"processor_id"`
	ShouldTrain  bool         `json:"should_train"`
	Kind         batches.Kind `json:"kind,omitempty"`
	PendingCount int          `json:"pending_count"`
	UnusedCount  int          `json:"unused_count"`
	Reason       string       `json:"reason,omitempty"`
}

// Evaluate decides whether processorID should train now and with which kind.
// Initial training wins when both thresholds are met.
func (s *System) Evaluate(ctx context.Context, processorID string) (*Decision, error) {
	if processorID == "" {
		return nil, fmt.Errorf("%w: processor_id required", ErrInvalidRequest)
	}

	decision := &Decision{ProcessorID: processorID}

	cfg, err := s.deps.Thresholds.Ensure(ctx, processorID)
	if err != nil {
		return nil, fmt.Errorf("load training config: %w", err)
	}
	if !cfg.Enabled {
		decision.Reason = "training disabled"
		return decision, nil
	}

	active, err := s.deps.Batches.Active(ctx, processorID)
	if err != nil {
		return nil, fmt.Errorf("check active batch: %w", err)
	}
	if active != nil {
		decision.Reason = fmt.Sprintf("batch %s is %s", active.BatchID, active.Status)
		return decision, nil
	}

	if decision.PendingCount, decision.UnusedCount, err = s.counts(ctx, processorID); err != nil {
		return nil, err
	}

	switch {
	case decision.PendingCount >= cfg.MinDocumentsForInitial:
		decision.ShouldTrain = true
		decision.Kind = batches.KindInitial
	case decision.UnusedCount >= cfg.MinDocumentsForIncremental:
		decision.ShouldTrain = true
		decision.Kind = batches.KindIncremental
	default:
		decision.Reason = fmt.Sprintf(
			"below thresholds: %d/%d pending, %d/%d unused",
			decision.PendingCount, cfg.MinDocumentsForInitial,
			decision.UnusedCount, cfg.MinDocumentsForIncremental,
		)
	}

	s.logger.Debug(
		"thresholds evaluated",
		"processor_id", processorID,
		"should_train", decision.ShouldTrain,
		"kind", decision.Kind,
		"pending", decision.PendingCount,
		"unused", decision.UnusedCount,
	)
	return decision, nil
}

func (s *System) counts(ctx context.Context, processorID string) (pending, unused int, err error) {
	unclaimed := false

	pending, err = s.deps.Documents.Count(ctx, documents.Criteria{
		ProcessorID:     processorID,
		Status:          batches.CandidateStatus(batches.KindInitial),
		UsedForTraining: &unclaimed,
		Labeled:         true,
	})
	if err != nil {
		return 0, 0, fmt.Errorf("count pending documents: %w", err)
	}

	unused, err = s.deps.Documents.Count(ctx, documents.Criteria{
		ProcessorID:     processorID,
		Status:          batches.CandidateStatus(batches.KindIncremental),
		UsedForTraining: &unclaimed,
		Labeled:         true,
	})
	if err != nil {
		return 0, 0, fmt.Errorf("count unused documents: %w", err)
	}

	return pending, unused, nil
}

// DefaultKind picks the kind for a manual trigger: initial while labeled
// documents await a first model, incremental otherwise.
func (s *System) DefaultKind(ctx context.Context, processorID string) (batches.Kind, error) {
	pending, _, err := s.counts(ctx, processorID)
	if err != nil {
		return "", err
	}
	if pending > 0 {
		return batches.KindInitial, nil
	}
	return batches.KindIncremental, nil
}
