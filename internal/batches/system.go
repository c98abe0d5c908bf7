package batches

import (
	"context"

	"github.com/JaimeStill/docent/pkg/pagination"
)

// System defines the public contract for training batch operations.
type System interface {
	Handler() *Handler

	List(ctx context.Context, page pagination.PageRequest, filters Filters) (*pagination.PageResult[Batch], error)
	Find(ctx context.Context, id string) (*Batch, error)

	// Begin takes the processor lock, inserts a pending batch, and claims
	// candidate documents in a single transaction. It returns
	// ErrTrainingInFlight when the lock is held and ErrNoCandidates when
	// nothing could be claimed.
	Begin(ctx context.Context, cmd BeginCommand) (*Batch, []Claim, error)

	// Transition applies cmd only if the batch is still in cmd.From.
	// Reaching a terminal status releases the processor lock.
	Transition(ctx context.Context, cmd TransitionCommand) (*Batch, error)

	// Active returns the processor's non-terminal batch, or nil.
	Active(ctx context.Context, processorID string) (*Batch, error)

	// InFlight returns every non-terminal batch, oldest first.
	InFlight(ctx context.Context) ([]Batch, error)
}
