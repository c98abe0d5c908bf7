// Package module composes prefix-mounted HTTP modules behind a single router.
package module

import (
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/JaimeStill/docent/pkg/middleware"
)

// Module serves every request under a single-level path prefix. The prefix
// is stripped before the request reaches the inner router.
type Module struct {
	prefix string
	router http.Handler
	chain  middleware.Chain

	once    sync.Once
	handler http.Handler
}

// New creates a Module for prefix (e.g. "/api") over router.
func New(prefix string, router http.Handler) (*Module, error) {
	if err := validatePrefix(prefix); err != nil {
		return nil, err
	}
	return &Module{prefix: prefix, router: router}, nil
}

// Prefix returns the module's path prefix.
func (m *Module) Prefix() string {
	return m.prefix
}

// Use appends middleware to the module. Middleware must be registered
// before the module serves its first request.
func (m *Module) Use(mw ...func(http.Handler) http.Handler) {
	m.chain.Use(mw...)
}

// Handler returns the inner router wrapped with the module's middleware.
func (m *Module) Handler() http.Handler {
	m.once.Do(func() {
		m.handler = m.chain.Then(m.router)
	})
	return m.handler
}

// Serve dispatches req to the inner router with the prefix removed. The
// caller's request is left unmodified.
func (m *Module) Serve(w http.ResponseWriter, req *http.Request) {
	inner := req.Clone(req.Context())
	inner.URL.Path = innerPath(req.URL.Path, m.prefix)
	inner.URL.RawPath = ""
	m.Handler().ServeHTTP(w, inner)
}

// innerPath strips prefix and any trailing slash, keeping "/" for the
// module root.
func innerPath(path, prefix string) string {
	path = strings.TrimPrefix(path, prefix)
	path = strings.TrimRight(path, "/")
	if path == "" {
		return "/"
	}
	return path
}

func validatePrefix(prefix string) error {
	switch {
	case prefix == "":
		return fmt.Errorf("module prefix cannot be empty")
	case !strings.HasPrefix(prefix, "/"):
		return fmt.Errorf("module prefix must start with /: %s", prefix)
	case len(prefix) == 1 || strings.Contains(prefix[1:], "/"):
		return fmt.Errorf("module prefix must be a single path segment: %s", prefix)
	}
	return nil
}
