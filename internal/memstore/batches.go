package memstore

import (
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"

	"github.com/JaimeStill/docent/internal/batches"
	"github.com/JaimeStill/docent/internal/documents"
	"github.com/JaimeStill/docent/pkg/pagination"
)

type batchStore struct{ *Store }

func (b *batchStore) Handler() *batches.Handler {
	return batches.NewHandler(b, b.logger, b.pagination)
}

func (b *batchStore) List(
	_ context.Context,
	req pagination.PageRequest,
	f batches.Filters,
) (*pagination.PageResult[batches.Batch], error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	items := make([]batches.Batch, 0, len(b.batches))
	for _, bt := range b.batches {
		if f.ProcessorID != nil && bt.ProcessorID != *f.ProcessorID {
			continue
		}
		if f.Status != nil && string(bt.Status) != *f.Status {
			continue
		}
		if f.Kind != nil && string(bt.Kind) != *f.Kind {
			continue
		}
		items = append(items, copyBatch(bt))
	}
	slices.SortFunc(items, func(x, y batches.Batch) int {
		return y.StartedAt.Compare(x.StartedAt)
	})

	return page(items, req, b.pagination), nil
}

func copyBatch(bt *batches.Batch) batches.Batch {
	c := *bt
	c.DocumentIDs = slices.Clone(bt.DocumentIDs)
	c.JobHandle = clone(bt.JobHandle)
	c.DeployHandle = clone(bt.DeployHandle)
	c.ProcessorVersion = clone(bt.ProcessorVersion)
	c.ManifestURI = clone(bt.ManifestURI)
	c.AccuracyScore = clone(bt.AccuracyScore)
	c.ErrorMessage = clone(bt.ErrorMessage)
	c.CompletedAt = clone(bt.CompletedAt)
	c.DeployedAt = clone(bt.DeployedAt)
	return c
}

func (b *batchStore) Find(_ context.Context, id string) (*batches.Batch, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	bt, ok := b.batches[id]
	if !ok {
		return nil, batches.ErrNotFound
	}
	c := copyBatch(bt)
	return &c, nil
}

func (b *batchStore) Begin(_ context.Context, cmd batches.BeginCommand) (*batches.Batch, []batches.Claim, error) {
	if cmd.ProcessorID == "" {
		return nil, nil, fmt.Errorf("%w: processor_id required", batches.ErrInvalidRequest)
	}
	if _, err := batches.ParseKind(string(cmd.Kind)); err != nil {
		return nil, nil, err
	}
	if cmd.Limit < 1 {
		return nil, nil, fmt.Errorf("%w: limit must be positive", batches.ErrInvalidRequest)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, held := b.locks[cmd.ProcessorID]; held {
		return nil, nil, batches.ErrTrainingInFlight
	}

	want := batches.CandidateStatus(cmd.Kind)
	candidates := make([]*documents.Document, 0)
	for _, doc := range b.docs {
		if doc.ProcessorID == cmd.ProcessorID &&
			doc.Status == want &&
			!doc.UsedForTraining &&
			doc.Label != nil && *doc.Label != "" {
			candidates = append(candidates, doc)
		}
	}
	if len(candidates) == 0 {
		return nil, nil, batches.ErrNoCandidates
	}

	slices.SortFunc(candidates, func(x, y *documents.Document) int {
		return x.CreatedAt.Compare(y.CreatedAt)
	})
	if len(candidates) > cmd.Limit {
		candidates = candidates[:cmd.Limit]
	}

	now := b.tick()
	batchID := uuid.New().String()

	claims := make([]batches.Claim, len(candidates))
	ids := make([]string, len(candidates))
	for i, doc := range candidates {
		doc.UsedForTraining = true
		doc.TrainingBatchID = &batchID
		doc.UpdatedAt = now
		claims[i] = batches.Claim{
			DocumentID: doc.DocumentID,
			SourceURI:  doc.SourceURI,
			Path:       doc.Path,
			Label:      *doc.Label,
		}
		ids[i] = doc.DocumentID
	}

	bt := &batches.Batch{
		BatchID:     batchID,
		ProcessorID: cmd.ProcessorID,
		Kind:        cmd.Kind,
		DocumentIDs: ids,
		Status:      batches.StatusPending,
		StartedAt:   now,
		UpdatedAt:   now,
	}
	b.batches[batchID] = bt
	b.locks[cmd.ProcessorID] = batchID

	c := copyBatch(bt)
	return &c, claims, nil
}

func (b *batchStore) Transition(_ context.Context, cmd batches.TransitionCommand) (*batches.Batch, error) {
	if !cmd.From.CanTransition(cmd.To) {
		return nil, fmt.Errorf("%w: %s to %s", batches.ErrInvalidStatus, cmd.From, cmd.To)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	bt, ok := b.batches[cmd.BatchID]
	if !ok {
		return nil, batches.ErrNotFound
	}
	if bt.Status != cmd.From {
		return nil, fmt.Errorf("%w: batch %s is no longer %s", batches.ErrStaleTransition, cmd.BatchID, cmd.From)
	}

	now := b.tick()
	bt.Status = cmd.To
	if cmd.JobHandle != nil {
		bt.JobHandle = clone(cmd.JobHandle)
	}
	if cmd.DeployHandle != nil {
		bt.DeployHandle = clone(cmd.DeployHandle)
	}
	if cmd.ProcessorVersion != nil {
		bt.ProcessorVersion = clone(cmd.ProcessorVersion)
	}
	if cmd.ManifestURI != nil {
		bt.ManifestURI = clone(cmd.ManifestURI)
	}
	if cmd.Accuracy != nil {
		bt.AccuracyScore = clone(cmd.Accuracy)
	}
	if cmd.Error != nil {
		bt.ErrorMessage = clone(cmd.Error)
	}
	if (cmd.To == batches.StatusDeploying || cmd.To.Terminal()) && bt.CompletedAt == nil {
		bt.CompletedAt = &now
	}
	if cmd.To == batches.StatusDeployed {
		bt.DeployedAt = &now
	}
	bt.UpdatedAt = now

	if bt.Status.Terminal() && b.locks[bt.ProcessorID] == bt.BatchID {
		delete(b.locks, bt.ProcessorID)
	}

	c := copyBatch(bt)
	return &c, nil
}

func (b *batchStore) Active(_ context.Context, processorID string) (*batches.Batch, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, bt := range b.batches {
		if bt.ProcessorID == processorID && !bt.Status.Terminal() {
			c := copyBatch(bt)
			return &c, nil
		}
	}
	return nil, nil
}

func (b *batchStore) InFlight(_ context.Context) ([]batches.Batch, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	items := make([]batches.Batch, 0)
	for _, bt := range b.batches {
		if !bt.Status.Terminal() {
			items = append(items, copyBatch(bt))
		}
	}
	slices.SortFunc(items, func(x, y batches.Batch) int {
		return x.StartedAt.Compare(y.StartedAt)
	})
	return items, nil
}
