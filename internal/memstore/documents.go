package memstore

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/JaimeStill/docent/internal/documents"
	"github.com/JaimeStill/docent/pkg/pagination"
)

type docStore struct{ *Store }

func (d *docStore) Handler() *documents.Handler {
	return documents.NewHandler(d, d.logger, d.pagination)
}

func (d *docStore) List(
	_ context.Context,
	req pagination.PageRequest,
	f documents.Filters,
) (*pagination.PageResult[documents.Document], error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	items := make([]documents.Document, 0, len(d.docs))
	for _, doc := range d.docs {
		if matchDocument(doc, f) {
			items = append(items, copyDocument(doc))
		}
	}
	slices.SortFunc(items, func(a, b documents.Document) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	return page(items, req, d.pagination), nil
}

func matchDocument(doc *documents.Document, f documents.Filters) bool {
	if f.ProcessorID != nil && doc.ProcessorID != *f.ProcessorID {
		return false
	}
	if f.Status != nil && string(doc.Status) != *f.Status {
		return false
	}
	if f.Label != nil && (doc.Label == nil || *doc.Label != *f.Label) {
		return false
	}
	if f.UsedForTraining != nil && doc.UsedForTraining != *f.UsedForTraining {
		return false
	}
	if f.TrainingBatchID != nil && (doc.TrainingBatchID == nil || *doc.TrainingBatchID != *f.TrainingBatchID) {
		return false
	}
	if f.Path != nil && !strings.Contains(strings.ToLower(doc.Path), strings.ToLower(*f.Path)) {
		return false
	}
	return true
}

func copyDocument(doc *documents.Document) documents.Document {
	c := *doc
	c.Label = clone(doc.Label)
	c.TrainingBatchID = clone(doc.TrainingBatchID)
	c.Confidence = clone(doc.Confidence)
	c.ErrorMessage = clone(doc.ErrorMessage)
	c.ProcessedAt = clone(doc.ProcessedAt)
	if doc.ExtractedData != nil {
		data := *doc.ExtractedData
		data.Entities = slices.Clone(doc.ExtractedData.Entities)
		c.ExtractedData = &data
	}
	return c
}

func (d *docStore) Find(_ context.Context, id string) (*documents.Document, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	doc, ok := d.docs[id]
	if !ok {
		return nil, documents.ErrNotFound
	}
	c := copyDocument(doc)
	return &c, nil
}

func (d *docStore) Upsert(_ context.Context, cmd documents.UpsertCommand) (*documents.Document, error) {
	if _, err := documents.ParseStatus(string(cmd.Status)); err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.tick()
	doc, ok := d.docs[cmd.DocumentID]
	if !ok {
		doc = &documents.Document{
			DocumentID: cmd.DocumentID,
			SourceURI:  cmd.SourceURI,
			Bucket:     cmd.Bucket,
			Path:       cmd.Path,
			CreatedAt:  now,
		}
		d.docs[cmd.DocumentID] = doc
	}

	doc.ProcessorID = cmd.ProcessorID
	doc.Label = clone(cmd.Label)
	doc.Status = cmd.Status
	doc.Confidence = clone(cmd.Confidence)
	doc.ExtractedData = clone(cmd.ExtractedData)
	doc.ErrorMessage = clone(cmd.ErrorMessage)
	doc.ProcessedAt = clone(cmd.ProcessedAt)
	doc.UpdatedAt = now

	c := copyDocument(doc)
	return &c, nil
}

func (d *docStore) Count(_ context.Context, c documents.Criteria) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	n := 0
	for _, doc := range d.docs {
		if matchCriteria(doc, c) {
			n++
		}
	}
	return n, nil
}

func matchCriteria(doc *documents.Document, c documents.Criteria) bool {
	if c.ProcessorID != "" && doc.ProcessorID != c.ProcessorID {
		return false
	}
	if c.Status != "" && doc.Status != c.Status {
		return false
	}
	if c.UsedForTraining != nil && doc.UsedForTraining != *c.UsedForTraining {
		return false
	}
	if c.Labeled && (doc.Label == nil || *doc.Label == "") {
		return false
	}
	return true
}

func (d *docStore) CountByStatus(_ context.Context, processorID string) (map[documents.Status]int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	counts := make(map[documents.Status]int, len(documents.Statuses))
	for _, s := range documents.Statuses {
		counts[s] = 0
	}
	for _, doc := range d.docs {
		if doc.ProcessorID == processorID {
			counts[doc.Status]++
		}
	}
	return counts, nil
}

func (d *docStore) Reset(_ context.Context, cmd documents.ResetCommand) (*documents.ResetResult, error) {
	if cmd.ProcessorID == "" {
		return nil, fmt.Errorf("%w: processor_id required", documents.ErrInvalidRequest)
	}
	if cmd.Status != nil {
		if _, err := documents.ParseStatus(string(*cmd.Status)); err != nil {
			return nil, err
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	held, locked := d.locks[cmd.ProcessorID]
	if locked && cmd.BatchID != nil && *cmd.BatchID == held {
		return nil, fmt.Errorf("%w: batch %s is still in flight", documents.ErrInvalidRequest, held)
	}

	var released int64
	for _, doc := range d.docs {
		if doc.ProcessorID != cmd.ProcessorID || !doc.UsedForTraining {
			continue
		}
		if locked && doc.TrainingBatchID != nil && *doc.TrainingBatchID == held {
			continue
		}
		if cmd.BatchID != nil && (doc.TrainingBatchID == nil || *doc.TrainingBatchID != *cmd.BatchID) {
			continue
		}
		if cmd.Status != nil && doc.Status != *cmd.Status {
			continue
		}
		doc.UsedForTraining = false
		doc.TrainingBatchID = nil
		doc.UpdatedAt = d.tick()
		released++
	}
	return &documents.ResetResult{Released: released}, nil
}
