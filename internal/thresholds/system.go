package thresholds

import "context"

// System defines the public contract for per-processor training configuration.
type System interface {
	Handler() *Handler

	// Ensure returns the processor's config, creating it from defaults when absent.
	Ensure(ctx context.Context, processorID string) (*Config, error)
	Find(ctx context.Context, processorID string) (*Config, error)
	List(ctx context.Context) ([]Config, error)
	Update(ctx context.Context, processorID string, cmd UpdateCommand) (*Config, error)
}
