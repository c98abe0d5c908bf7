// Package scalar serves an interactive API reference for the Docent OpenAPI document.
package scalar

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"github.com/JaimeStill/docent/pkg/module"
)

//go:embed index.html
var staticFS embed.FS

type page struct {
	Title   string
	SpecURL string
}

// NewModule creates a module that serves the API reference at basePath,
// loading the OpenAPI document from specURL.
func NewModule(basePath, title, specURL string) (*module.Module, error) {
	tmpl, err := template.ParseFS(staticFS, "index.html")
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, page{Title: title, SpecURL: specURL}); err != nil {
		return nil, err
	}
	rendered := buf.Bytes()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write(rendered)
	})

	return module.New(basePath, mux)
}
