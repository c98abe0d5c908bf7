// Package storage provides blob storage operations with Azure Blob Storage
// and S3-compatible (MinIO) implementations.
package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/JaimeStill/docent/pkg/lifecycle"
)

// System manages blob storage operations and lifecycle coordination.
type System interface {
	// Start registers a startup hook that initializes the storage container.
	Start(lc *lifecycle.Coordinator) error
	// Upload streams data to a blob at the given key with the specified content type.
	Upload(ctx context.Context, key string, reader io.Reader, contentType string) error
	// Download returns a stream for the blob at the given key. The caller must close the reader.
	// Returns ErrNotFound if the blob does not exist.
	Download(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete removes the blob at the given key. Returns ErrNotFound if the blob does not exist.
	Delete(ctx context.Context, key string) error
	// Exists reports whether a blob exists at the given key.
	Exists(ctx context.Context, key string) (bool, error)
	// List returns up to limit keys beginning with prefix.
	List(ctx context.Context, prefix string, limit int32) ([]string, error)
	// URI returns the provider-qualified location of the blob at key.
	URI(key string) string
	// Container returns the container or bucket name the system operates on.
	Container() string
}

// New creates a storage system for the configured provider.
// Clients are constructed eagerly but no network calls happen until Start.
func New(cfg *Config, logger *slog.Logger) (System, error) {
	switch cfg.Provider {
	case "", ProviderAzure:
		return newAzure(cfg, logger)
	case ProviderMinio:
		return newMinio(cfg, logger)
	default:
		return nil, fmt.Errorf("unsupported storage provider: %s", cfg.Provider)
	}
}

// MaxListCap bounds the number of keys returned by a single List call.
const MaxListCap int32 = 5000

// ParseMaxResults parses a max_results query value, returning fallback when empty
// and clamping to MaxListCap.
func ParseMaxResults(s string, fallback int32) (int32, error) {
	if s == "" {
		return fallback, nil
	}

	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid max_results: %q", s)
	}

	return min(int32(n), MaxListCap), nil
}
