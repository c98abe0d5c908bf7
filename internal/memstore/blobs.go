package memstore

import (
	"bytes"
	"context"
	"io"
	"slices"
	"strings"
	"sync"

	"github.com/JaimeStill/docent/pkg/lifecycle"
	"github.com/JaimeStill/docent/pkg/storage"
)

// Blobs is an in-memory storage.System.
type Blobs struct {
	mu        sync.Mutex
	container string
	blobs     map[string][]byte
	types     map[string]string

	// FailUpload makes every Upload return this error when set.
	FailUpload error
}

// NewBlobs creates an empty Blobs for container.
func NewBlobs(container string) *Blobs {
	return &Blobs{
		container: container,
		blobs:     make(map[string][]byte),
		types:     make(map[string]string),
	}
}

var _ storage.System = (*Blobs)(nil)

func (b *Blobs) Start(*lifecycle.Coordinator) error { return nil }

func (b *Blobs) Upload(_ context.Context, key string, r io.Reader, contentType string) error {
	if key == "" {
		return storage.ErrEmptyKey
	}
	if b.FailUpload != nil {
		return b.FailUpload
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.blobs[key] = data
	b.types[key] = contentType
	return nil
}

func (b *Blobs) Download(_ context.Context, key string) (io.ReadCloser, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	data, ok := b.blobs[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (b *Blobs) Delete(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.blobs[key]; !ok {
		return storage.ErrNotFound
	}
	delete(b.blobs, key)
	delete(b.types, key)
	return nil
}

func (b *Blobs) Exists(_ context.Context, key string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.blobs[key]
	return ok, nil
}

func (b *Blobs) List(_ context.Context, prefix string, limit int32) ([]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	keys := make([]string, 0)
	for k := range b.blobs {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	if limit > 0 && int(limit) < len(keys) {
		keys = keys[:limit]
	}
	return keys, nil
}

func (b *Blobs) URI(key string) string {
	return "mem://" + b.container + "/" + key
}

func (b *Blobs) Container() string { return b.container }

// Bytes returns the stored content at key.
func (b *Blobs) Bytes(key string) ([]byte, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	data, ok := b.blobs[key]
	return data, ok
}
