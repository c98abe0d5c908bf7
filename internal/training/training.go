// Package training decides when a processor should train, opens and launches
// training batches, and monitors launched batches through deployment.
package training

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/JaimeStill/docent/internal/batches"
	"github.com/JaimeStill/docent/internal/documents"
	"github.com/JaimeStill/docent/internal/engine"
	"github.com/JaimeStill/docent/internal/launcher"
	"github.com/JaimeStill/docent/internal/metrics"
	"github.com/JaimeStill/docent/internal/thresholds"
)

var (
	// ErrLaunch is returned when a claimed batch could not be prepared or launched.
	ErrLaunch = errors.New("training launch failed")
	// ErrTimeout marks batches that exceeded the maximum wait.
	ErrTimeout = errors.New("training exceeded maximum wait")
	// ErrInvalidRequest is returned for malformed administrative requests.
	ErrInvalidRequest = errors.New("invalid training request")
)

// Documents counts threshold candidates.
type Documents interface {
	Count(ctx context.Context, criteria documents.Criteria) (int, error)
}

// Batches opens, advances, and lists training batches.
type Batches interface {
	Begin(ctx context.Context, cmd batches.BeginCommand) (*batches.Batch, []batches.Claim, error)
	Transition(ctx context.Context, cmd batches.TransitionCommand) (*batches.Batch, error)
	Active(ctx context.Context, processorID string) (*batches.Batch, error)
	InFlight(ctx context.Context) ([]batches.Batch, error)
}

// Thresholds supplies the per-processor training config.
type Thresholds interface {
	Ensure(ctx context.Context, processorID string) (*thresholds.Config, error)
}

// Blobs reads claimed documents and writes manifests and staged copies.
type Blobs interface {
	Upload(ctx context.Context, key string, reader io.Reader, contentType string) error
	Download(ctx context.Context, key string) (io.ReadCloser, error)
	URI(key string) string
}

// Engine evaluates and deploys trained versions.
type Engine interface {
	Evaluation(ctx context.Context, versionName string) (*float64, error)
	Deploy(ctx context.Context, versionName string) (*engine.Operation, error)
	Operation(ctx context.Context, name string) (*engine.Operation, error)
}

// Deps are the collaborators of a System.
type Deps struct {
	Documents  Documents
	Batches    Batches
	Thresholds Thresholds
	Blobs      Blobs
	Launcher   launcher.Launcher
	Engine     Engine
	Metrics    *metrics.Recorder
}

// Options tune batch sizing and the monitor.
type Options struct {
	BatchLimit       int
	StageDocuments   bool
	MaxWait          time.Duration
	SweepConcurrency int
	Clock            func() time.Time
}

// System runs the training loop for every processor.
type System struct {
	deps   Deps
	opts   Options
	logger *slog.Logger
}

// New creates a training System.
func New(deps Deps, opts Options, logger *slog.Logger) *System {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.SweepConcurrency < 1 {
		opts.SweepConcurrency = 1
	}
	if opts.MaxWait <= 0 {
		opts.MaxWait = 3 * time.Hour
	}
	if opts.BatchLimit < 1 {
		opts.BatchLimit = 50
	}

	return &System{
		deps:   deps,
		opts:   opts,
		logger: logger.With("system", "training"),
	}
}

// Handler returns the HTTP handler for training operations.
func (s *System) Handler() *Handler {
	return NewHandler(s, s.logger)
}

func (s *System) transition(ctx context.Context, b *batches.Batch, cmd batches.TransitionCommand) (*batches.Batch, error) {
	cmd.BatchID = b.BatchID
	cmd.From = b.Status

	next, err := s.deps.Batches.Transition(ctx, cmd)
	if err != nil {
		return nil, err
	}

	s.deps.Metrics.BatchTransition(ctx, string(next.Kind), string(next.Status))
	return next, nil
}
