// Package samples generates labeled test PDFs and uploads them under the
// intake root so they flow through the training loop.
package samples

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf/v2"
	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/JaimeStill/docent/internal/labeling"
	"github.com/JaimeStill/docent/pkg/formatting"
)

// Uploader writes blobs and reports their location.
type Uploader interface {
	Upload(ctx context.Context, key string, reader io.Reader, contentType string) error
	URI(key string) string
}

// Spec describes a sample document to generate.
type Spec struct {
	Label string
	Name  string
	Pages int
	Body  string
}

// Sample is a generated and uploaded document.
type Sample struct {
	Key   string `json:"key"`
	URI   string `json:"uri"`
	Pages int    `json:"pages"`
	Size  int    `json:"size"`
}

// Generator renders and uploads sample documents.
type Generator struct {
	blobs  Uploader
	root   string
	logger *slog.Logger
}

// New creates a Generator that uploads beneath root.
func New(blobs Uploader, root string, logger *slog.Logger) *Generator {
	return &Generator{
		blobs:  blobs,
		root:   root,
		logger: logger.With("system", "samples"),
	}
}

// Key returns the storage key for a sample with the given label and name.
func (g *Generator) Key(label, name string) string {
	name = strings.TrimSuffix(name, ".pdf")
	if label == "" || label == labeling.Other {
		return g.root + name + ".pdf"
	}
	return g.root + label + "/" + name + ".pdf"
}

// Generate renders spec, verifies the output, and uploads it.
func (g *Generator) Generate(ctx context.Context, spec Spec) (*Sample, error) {
	if spec.Name == "" {
		spec.Name = fmt.Sprintf("sample-%d", time.Now().UnixNano())
	}

	data, err := Render(spec)
	if err != nil {
		return nil, err
	}

	pages, err := api.PageCount(bytes.NewReader(data), nil)
	if err != nil {
		return nil, fmt.Errorf("verify sample: %w", err)
	}

	key := g.Key(spec.Label, spec.Name)
	if err := g.blobs.Upload(ctx, key, bytes.NewReader(data), "application/pdf"); err != nil {
		return nil, fmt.Errorf("upload sample: %w", err)
	}

	g.logger.Info("sample uploaded", "key", key, "pages", pages, "size", formatting.FormatBytes(int64(len(data)), 1))

	return &Sample{
		Key:   key,
		URI:   g.blobs.URI(key),
		Pages: pages,
		Size:  len(data),
	}, nil
}

// Render produces the PDF bytes for spec.
func Render(spec Spec) ([]byte, error) {
	if spec.Pages < 1 {
		spec.Pages = 1
	}

	title := spec.Name
	if spec.Label != "" {
		title = spec.Label + ": " + spec.Name
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(title, false)
	pdf.SetAuthor("docent", false)

	for i := range spec.Pages {
		pdf.AddPage()

		pdf.SetFont("Helvetica", "B", 18)
		pdf.Cell(0, 10, title)
		pdf.Ln(12)

		pdf.SetFont("Helvetica", "", 12)
		pdf.Cell(0, 6, fmt.Sprintf("Page %d of %d", i+1, spec.Pages))
		pdf.Ln(10)

		if spec.Body != "" {
			pdf.MultiCell(0, 6, spec.Body, "", "L", false)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render sample: %w", err)
	}
	return buf.Bytes(), nil
}
