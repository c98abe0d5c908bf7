package documents

import (
	"context"

	"github.com/JaimeStill/docent/pkg/pagination"
)

// System is the document store. The Postgres repository backs it in the
// service and memstore backs it in tests.
type System interface {
	Handler() *Handler

	List(ctx context.Context, page pagination.PageRequest, filters Filters) (*pagination.PageResult[Document], error)
	Find(ctx context.Context, id string) (*Document, error)

	// Upsert records an intake result keyed by document ID. Re-recording a
	// document leaves its training claim untouched.
	Upsert(ctx context.Context, cmd UpsertCommand) (*Document, error)

	// Count returns how many documents match criteria. The training
	// evaluator compares it against the processor's thresholds.
	Count(ctx context.Context, criteria Criteria) (int, error)
	CountByStatus(ctx context.Context, processorID string) (map[Status]int, error)

	// Reset releases claimed documents so a later batch can take them.
	Reset(ctx context.Context, cmd ResetCommand) (*ResetResult, error)
}
