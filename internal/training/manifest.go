package training

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"slices"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/JaimeStill/docent/internal/batches"
)

// Manifest lists the documents of a batch and the schema they train.
type Manifest struct {
	BatchID     string          `json:"batch_id"`
	ProcessorID string          `json:"processor_id"`
	Kind        batches.Kind    `json:"kind"`
	CreatedAt   time.Time       `json:"created_at"`
	Schema      Schema          `json:"schema"`
	Documents   []ManifestEntry `json:"documents"`
}

// ManifestEntry is one claimed document.
type ManifestEntry struct {
	DocumentID string `json:"document_id"`
	SourceURI  string `json:"source_uri"`
	Label      string `json:"label"`
	StagedURI  string `json:"staged_uri,omitempty"`
}

// Schema is the entity schema a classifier version is trained against.
type Schema struct {
	DisplayName string       `json:"display_name"`
	EntityTypes []EntityType `json:"entity_types"`
}

// EntityType is one classification label.
type EntityType struct {
	Name        string   `json:"name"`
	DisplayName string   `json:"display_name"`
	BaseTypes   []string `json:"base_types"`
}

// Prefix returns the blob prefix holding a batch's training artifacts.
func Prefix(batchID string) string {
	return "training/" + batchID + "/"
}

// StagedPrefix returns the prefix holding a batch's staged document copies.
// It holds nothing but documents so the engine can import it whole.
func StagedPrefix(batchID string) string {
	return Prefix(batchID) + "documents/"
}

// StagedKey is the staged copy of claim c. Copies are keyed by document ID
// because file names repeat across folders that share a label.
func StagedKey(batchID string, c batches.Claim) string {
	ext := path.Ext(c.Path)
	if ext == "" {
		ext = ".pdf"
	}
	return StagedPrefix(batchID) + c.Label + "/" + c.DocumentID + ext
}

// DisplayName converts a label to its title-cased display form.
func DisplayName(label string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(label, "_", " "))
}

// BuildSchema derives the entity schema from the labels of claims.
func BuildSchema(processorID string, claims []batches.Claim) Schema {
	labels := make([]string, 0, len(claims))
	for _, c := range claims {
		if !slices.Contains(labels, c.Label) {
			labels = append(labels, c.Label)
		}
	}
	slices.Sort(labels)

	schema := Schema{
		DisplayName: "Docent schema for " + processorID,
		EntityTypes: make([]EntityType, len(labels)),
	}
	for i, l := range labels {
		schema.EntityTypes[i] = EntityType{
			Name:        l,
			DisplayName: DisplayName(l),
			BaseTypes:   []string{"document"},
		}
	}
	return schema
}

type prepared struct {
	manifestURI  string
	stagedPrefix string
}

// prepare writes the manifest and schema and, when enabled, stages a copy of
// every claimed document under StagedPrefix.
func (s *System) prepare(ctx context.Context, b *batches.Batch, claims []batches.Claim) (*prepared, error) {
	prefix := Prefix(b.BatchID)

	manifest := Manifest{
		BatchID:     b.BatchID,
		ProcessorID: b.ProcessorID,
		Kind:        b.Kind,
		CreatedAt:   s.opts.Clock().UTC(),
		Schema:      BuildSchema(b.ProcessorID, claims),
		Documents:   make([]ManifestEntry, len(claims)),
	}

	for i, c := range claims {
		entry := ManifestEntry{
			DocumentID: c.DocumentID,
			SourceURI:  c.SourceURI,
			Label:      c.Label,
		}

		if s.opts.StageDocuments {
			key := StagedKey(b.BatchID, c)
			if err := s.copy(ctx, c.Path, key); err != nil {
				return nil, fmt.Errorf("stage %s: %w", c.DocumentID, err)
			}
			entry.StagedURI = s.deps.Blobs.URI(key)
		}

		manifest.Documents[i] = entry
	}

	if err := s.writeJSON(ctx, prefix+"schema.json", manifest.Schema); err != nil {
		return nil, fmt.Errorf("write schema: %w", err)
	}

	manifestKey := prefix + "manifest.json"
	if err := s.writeJSON(ctx, manifestKey, manifest); err != nil {
		return nil, fmt.Errorf("write manifest: %w", err)
	}

	p := &prepared{manifestURI: s.deps.Blobs.URI(manifestKey)}
	if s.opts.StageDocuments {
		p.stagedPrefix = s.deps.Blobs.URI(StagedPrefix(b.BatchID))
	}
	return p, nil
}

func (s *System) copy(ctx context.Context, src, dst string) error {
	rc, err := s.deps.Blobs.Download(ctx, src)
	if err != nil {
		return err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return err
	}
	return s.deps.Blobs.Upload(ctx, dst, bytes.NewReader(data), "application/pdf")
}

func (s *System) writeJSON(ctx context.Context, key string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return s.deps.Blobs.Upload(ctx, key, bytes.NewReader(data), "application/json")
}
