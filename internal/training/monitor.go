package training

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/JaimeStill/docent/internal/batches"
)

// Sweep outcomes for a single batch.
const (
	OutcomeUnchanged = "unchanged"
	OutcomeAdvanced  = "advanced"
	OutcomeFailed    = "failed"
	OutcomeTimedOut  = "timed_out"
	OutcomeDeployed  = "deployed"
	OutcomeError     = "error"
)

// SweepReport summarizes one monitor pass.
type SweepReport struct {
	Checked  int            `json:"checked"`
	Outcomes map[string]int `json:"outcomes"`
	Errors   []string       `json:"errors,omitempty"`
	Elapsed  string         `json:"elapsed"`
}

// Sweep advances every in-flight batch once.
func (s *System) Sweep(ctx context.Context) (*SweepReport, error) {
	start := time.Now()

	inflight, err := s.deps.Batches.InFlight(ctx)
	if err != nil {
		return nil, fmt.Errorf("list in-flight batches: %w", err)
	}

	report := &SweepReport{
		Checked:  len(inflight),
		Outcomes: make(map[string]int),
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.SweepConcurrency)

	for _, b := range inflight {
		g.Go(func() error {
			outcome, err := s.advance(gctx, &b)

			mu.Lock()
			defer mu.Unlock()
			report.Outcomes[outcome]++
			if err != nil {
				report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", b.BatchID, err))
			}
			return nil
		})
	}
	_ = g.Wait()

	elapsed := time.Since(start)
	report.Elapsed = elapsed.String()
	s.deps.Metrics.Sweep(ctx, elapsed)

	if report.Checked > 0 {
		s.logger.Info(
			"monitor sweep complete",
			"checked", report.Checked,
			"outcomes", report.Outcomes,
			"errors", len(report.Errors),
		)
	}
	return report, nil
}

// Run sweeps immediately and then every interval until ctx is cancelled.
func (s *System) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("training monitor started", "interval", interval, "max_wait", s.opts.MaxWait)

	for {
		if _, err := s.Sweep(ctx); err != nil && ctx.Err() == nil {
			s.logger.Error("monitor sweep failed", "error", err)
		}

		select {
		case <-ctx.Done():
			s.logger.Info("training monitor stopped")
			return
		case <-ticker.C:
		}
	}
}

func (s *System) advance(ctx context.Context, b *batches.Batch) (string, error) {
	if waited := s.opts.Clock().Sub(b.StartedAt); waited > s.opts.MaxWait {
		msg := fmt.Sprintf("%v: waited %s, limit %s", ErrTimeout, waited.Round(time.Second), s.opts.MaxWait)
		return s.settle(ctx, b, batches.TransitionCommand{To: batches.StatusTimeout, Error: &msg}, OutcomeTimedOut)
	}

	switch b.Status {
	case batches.StatusTraining:
		return s.checkTraining(ctx, b)
	case batches.StatusDeploying:
		return s.checkDeployment(ctx, b)
	}
	return OutcomeUnchanged, nil
}

func (s *System) checkTraining(ctx context.Context, b *batches.Batch) (string, error) {
	if b.JobHandle == nil {
		msg := "training batch has no job handle"
		return s.settle(ctx, b, batches.TransitionCommand{To: batches.StatusTrainingFailed, Error: &msg}, OutcomeFailed)
	}

	st, err := s.deps.Launcher.Status(ctx, *b.JobHandle)
	if err != nil {
		return OutcomeError, err
	}
	if !st.Done {
		return OutcomeUnchanged, nil
	}
	if st.Error != "" {
		return s.settle(ctx, b, batches.TransitionCommand{To: batches.StatusTrainingFailed, Error: &st.Error}, OutcomeFailed)
	}
	if st.ProcessorVersion == "" {
		msg := "training completed without a processor version"
		return s.settle(ctx, b, batches.TransitionCommand{To: batches.StatusTrainingFailed, Error: &msg}, OutcomeFailed)
	}

	version := st.ProcessorVersion
	accuracy := st.Accuracy
	if accuracy == nil {
		if accuracy, err = s.deps.Engine.Evaluation(ctx, version); err != nil {
			return OutcomeError, fmt.Errorf("read evaluation: %w", err)
		}
	}

	cfg, err := s.deps.Thresholds.Ensure(ctx, b.ProcessorID)
	if err != nil {
		return OutcomeError, fmt.Errorf("load training config: %w", err)
	}

	if accuracy == nil || *accuracy < cfg.MinAccuracyForDeployment {
		msg := "evaluation unavailable"
		if accuracy != nil {
			msg = fmt.Sprintf("accuracy %.3f below minimum %.3f", *accuracy, cfg.MinAccuracyForDeployment)
		}
		return s.settle(ctx, b, batches.TransitionCommand{
			To:               batches.StatusFailed,
			ProcessorVersion: &version,
			Accuracy:         accuracy,
			Error:            &msg,
		}, OutcomeFailed)
	}

	op, err := s.deps.Engine.Deploy(ctx, version)
	if err != nil {
		msg := fmt.Sprintf("deploy: %v", err)
		return s.settle(ctx, b, batches.TransitionCommand{
			To:               batches.StatusFailed,
			ProcessorVersion: &version,
			Accuracy:         accuracy,
			Error:            &msg,
		}, OutcomeFailed)
	}

	return s.settle(ctx, b, batches.TransitionCommand{
		To:               batches.StatusDeploying,
		ProcessorVersion: &version,
		Accuracy:         accuracy,
		DeployHandle:     &op.Name,
	}, OutcomeAdvanced)
}

func (s *System) checkDeployment(ctx context.Context, b *batches.Batch) (string, error) {
	if b.DeployHandle == nil {
		msg := "deploying batch has no deploy handle"
		return s.settle(ctx, b, batches.TransitionCommand{To: batches.StatusFailed, Error: &msg}, OutcomeFailed)
	}

	op, err := s.deps.Engine.Operation(ctx, *b.DeployHandle)
	if err != nil {
		return OutcomeError, fmt.Errorf("read deploy operation: %w", err)
	}
	if !op.Done {
		return OutcomeUnchanged, nil
	}
	if op.Error != nil {
		msg := fmt.Sprintf("deploy: %s", op.Error.Message)
		return s.settle(ctx, b, batches.TransitionCommand{To: batches.StatusFailed, Error: &msg}, OutcomeFailed)
	}

	return s.settle(ctx, b, batches.TransitionCommand{To: batches.StatusDeployed}, OutcomeDeployed)
}

// settle applies a transition and reports outcome. A concurrent change to the
// batch is not an error: the batch is left to whoever moved it.
func (s *System) settle(ctx context.Context, b *batches.Batch, cmd batches.TransitionCommand, outcome string) (string, error) {
	next, err := s.transition(ctx, b, cmd)
	if err != nil {
		if errors.Is(err, batches.ErrStaleTransition) {
			return OutcomeUnchanged, nil
		}
		return OutcomeError, err
	}

	attrs := []any{
		"processor_id", next.ProcessorID,
		"batch_id", next.BatchID,
		"from", b.Status,
		"to", next.Status,
	}
	if next.ErrorMessage != nil && next.Status.Terminal() && next.Status != batches.StatusDeployed {
		s.logger.Warn("batch ended", append(attrs, "error", *next.ErrorMessage)...)
	} else {
		s.logger.Info("batch advanced", attrs...)
	}
	return outcome, nil
}
