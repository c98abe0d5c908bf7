// Package memstore is an in-memory record store implementing the documents,
// batches, and thresholds contracts. It reproduces the processor lock, the
// exclusive claim, and the status compare-and-swap of the SQL repositories.
package memstore

import (
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/JaimeStill/docent/internal/batches"
	"github.com/JaimeStill/docent/internal/documents"
	"github.com/JaimeStill/docent/internal/thresholds"
	"github.com/JaimeStill/docent/pkg/pagination"
)

// Store holds every record behind one mutex.
type Store struct {
	mu sync.Mutex

	docs    map[string]*documents.Document
	batches map[string]*batches.Batch
	configs map[string]*thresholds.Config
	locks   map[string]string
	seq     int

	defaults   thresholds.Defaults
	pagination pagination.Config
	logger     *slog.Logger

	// Now supplies timestamps. Tests replace it to move time forward.
	Now func() time.Time
}

// New creates an empty Store seeded with threshold defaults.
func New(defaults thresholds.Defaults) *Store {
	return &Store{
		docs:       make(map[string]*documents.Document),
		batches:    make(map[string]*batches.Batch),
		configs:    make(map[string]*thresholds.Config),
		locks:      make(map[string]string),
		defaults:   defaults,
		pagination: pagination.Config{DefaultPageSize: 20, MaxPageSize: 100},
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		Now:        time.Now,
	}
}

// Documents returns the document contract backed by s.
func (s *Store) Documents() documents.System { return &docStore{s} }

// Batches returns the batch contract backed by s.
func (s *Store) Batches() batches.System { return &batchStore{s} }

// Thresholds returns the training config contract backed by s.
func (s *Store) Thresholds() thresholds.System { return &configStore{s} }

// Lock returns the batch holding the processor lock, if any.
func (s *Store) Lock(processorID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.locks[processorID]
	return id, ok
}

// Put stores doc as-is, bypassing upsert semantics. Tests use it to seed claims.
func (s *Store) Put(doc documents.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = s.tick()
	}
	if doc.UpdatedAt.IsZero() {
		doc.UpdatedAt = doc.CreatedAt
	}
	s.docs[doc.DocumentID] = &doc
}

// tick returns a strictly increasing timestamp so creation order is stable.
func (s *Store) tick() time.Time {
	s.seq++
	return s.Now().Add(time.Duration(s.seq) * time.Microsecond)
}

func page[T any](items []T, req pagination.PageRequest, cfg pagination.Config) *pagination.PageResult[T] {
	req.Normalize(cfg)

	start, end := req.Window(len(items))
	result := pagination.NewPageResult(items[start:end], len(items), req)
	return &result
}

func clone[T any](v *T) *T {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
