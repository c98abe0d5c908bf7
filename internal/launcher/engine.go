package launcher

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/JaimeStill/docent/internal/engine"
)

// Engine is the subset of the engine client the direct launcher calls.
type Engine interface {
	ImportDocuments(ctx context.Context, processorID, prefix string) (*engine.Operation, error)
	Train(ctx context.Context, processorID, displayName string) (*engine.Operation, error)
	Operation(ctx context.Context, name string) (*engine.Operation, error)
}

// Direct imports the staged dataset and trains a new version on the engine.
type Direct struct {
	engine  Engine
	poll    time.Duration
	maxWait time.Duration
	logger  *slog.Logger
}

// NewDirect creates a Direct launcher that polls the import operation every
// poll and gives up on it after maxWait.
func NewDirect(eng Engine, poll, maxWait time.Duration, logger *slog.Logger) *Direct {
	if poll <= 0 {
		poll = 5 * time.Second
	}
	if maxWait <= 0 {
		maxWait = 10 * time.Minute
	}
	return &Direct{
		engine:  eng,
		poll:    poll,
		maxWait: maxWait,
		logger:  logger.With("system", "launcher", "launcher", "engine"),
	}
}

// Launch imports req.StagedPrefix, waits for the import to finish, and starts
// training. The train operation name is the job handle.
func (l *Direct) Launch(ctx context.Context, req Request) (string, error) {
	if req.StagedPrefix == "" {
		return "", fmt.Errorf("%w: staged prefix required", ErrLaunch)
	}

	op, err := l.engine.ImportDocuments(ctx, req.ProcessorID, req.StagedPrefix)
	if err != nil {
		return "", fmt.Errorf("%w: import documents: %v", ErrLaunch, err)
	}

	if err := l.wait(ctx, op); err != nil {
		return "", err
	}

	train, err := l.engine.Train(ctx, req.ProcessorID, "batch-"+req.BatchID)
	if err != nil {
		return "", fmt.Errorf("%w: train: %v", ErrLaunch, err)
	}

	l.logger.Info(
		"engine training started",
		"operation", train.Name,
		"processor_id", req.ProcessorID,
		"batch_id", req.BatchID,
	)
	return train.Name, nil
}

// Status polls the train operation.
func (l *Direct) Status(ctx context.Context, handle string) (*JobStatus, error) {
	op, err := l.engine.Operation(ctx, handle)
	if err != nil {
		return nil, fmt.Errorf("%w: operation: %v", ErrLaunch, err)
	}
	if !op.Done {
		return &JobStatus{}, nil
	}
	if op.Error != nil {
		return &JobStatus{Done: true, Error: op.Error.Message}, nil
	}
	return &JobStatus{Done: true, ProcessorVersion: op.ProcessorVersion()}, nil
}

// wait polls the import operation until it finishes, ctx ends, or maxWait
// elapses.
func (l *Direct) wait(ctx context.Context, op *engine.Operation) error {
	waitCtx, cancel := context.WithTimeout(ctx, l.maxWait)
	defer cancel()

	ticker := time.NewTicker(l.poll)
	defer ticker.Stop()

	for !op.Done {
		select {
		case <-waitCtx.Done():
			if ctx.Err() == nil {
				return fmt.Errorf("%w: import %s not done after %s", ErrLaunch, op.Name, l.maxWait)
			}
			return fmt.Errorf("%w: import cancelled: %v", ErrLaunch, ctx.Err())
		case <-ticker.C:
		}

		next, err := l.engine.Operation(waitCtx, op.Name)
		if err != nil {
			if waitCtx.Err() != nil && ctx.Err() == nil {
				return fmt.Errorf("%w: import %s not done after %s", ErrLaunch, op.Name, l.maxWait)
			}
			return fmt.Errorf("%w: import status: %v", ErrLaunch, err)
		}
		op = next
	}

	if op.Error != nil {
		return fmt.Errorf("%w: import failed: %s", ErrLaunch, op.Error.Message)
	}
	return nil
}
