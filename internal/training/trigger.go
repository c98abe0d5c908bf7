package training

import (
	"context"
	"errors"
	"fmt"

	"github.com/JaimeStill/docent/internal/batches"
	"github.com/JaimeStill/docent/internal/launcher"
)

// Trigger claims candidates for processorID, prepares the batch artifacts, and
// launches the training job. Claims are kept when launching fails so the batch
// can be inspected and released explicitly.
func (s *System) Trigger(ctx context.Context, processorID string, kind batches.Kind) (*batches.Batch, error) {
	if processorID == "" {
		return nil, fmt.Errorf("%w: processor_id required", ErrInvalidRequest)
	}

	b, claims, err := s.deps.Batches.Begin(ctx, batches.BeginCommand{
		ProcessorID: processorID,
		Kind:        kind,
		Limit:       s.opts.BatchLimit,
	})
	if err != nil {
		return nil, err
	}
	s.deps.Metrics.BatchTransition(ctx, string(b.Kind), string(b.Status))

	b, err = s.transition(ctx, b, batches.TransitionCommand{To: batches.StatusPreparing})
	if err != nil {
		return nil, fmt.Errorf("prepare batch: %w", err)
	}

	p, err := s.prepare(ctx, b, claims)
	if err != nil {
		return s.failLaunch(ctx, b, err)
	}

	handle, err := s.deps.Launcher.Launch(ctx, launcher.Request{
		ProcessorID:  processorID,
		TrainingType: string(kind),
		BatchID:      b.BatchID,
		ManifestURI:  p.manifestURI,
		StagedPrefix: p.stagedPrefix,
		TriggeredAt:  s.opts.Clock().UTC(),
	})
	if err != nil {
		return s.failLaunch(ctx, b, err)
	}

	b, err = s.transition(ctx, b, batches.TransitionCommand{
		To:          batches.StatusTraining,
		JobHandle:   &handle,
		ManifestURI: &p.manifestURI,
	})
	if err != nil {
		return nil, fmt.Errorf("record launch of batch: %w", err)
	}

	s.logger.Info(
		"training launched",
		"processor_id", processorID,
		"batch_id", b.BatchID,
		"kind", kind,
		"documents", len(claims),
		"job", handle,
	)
	return b, nil
}

func (s *System) failLaunch(ctx context.Context, b *batches.Batch, cause error) (*batches.Batch, error) {
	msg := cause.Error()

	failed, err := s.transition(ctx, b, batches.TransitionCommand{
		To:    batches.StatusFailed,
		Error: &msg,
	})
	if err != nil {
		s.logger.Error("record launch failure", "batch_id", b.BatchID, "error", err)
		return b, fmt.Errorf("%w: %w", ErrLaunch, errors.Join(cause, err))
	}

	s.logger.Error(
		"training launch failed",
		"processor_id", b.ProcessorID,
		"batch_id", b.BatchID,
		"error", cause,
	)
	return failed, fmt.Errorf("%w: %w", ErrLaunch, cause)
}
