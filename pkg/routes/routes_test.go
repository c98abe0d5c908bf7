package routes_test

import (
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"

	"github.com/JaimeStill/docent/pkg/routes"
)

func echoPattern(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(r.Pattern))
}

func TestRegister(t *testing.T) {
	mux := http.NewServeMux()

	patterns := routes.Register(mux,
		routes.Group{
			Prefix: "/documents",
			Routes: []routes.Route{
				{Method: "GET", Pattern: "", Handler: echoPattern},
				{Method: "GET", Pattern: "/{id}", Handler: echoPattern},
				{Method: "POST", Pattern: "/reset", Handler: echoPattern},
			},
		},
		routes.Group{
			Prefix: "/training",
			Children: []routes.Group{
				{
					Prefix: "/{processor_id}",
					Routes: []routes.Route{
						{Method: "POST", Pattern: "/trigger", Handler: echoPattern},
					},
				},
			},
		},
	)

	wantPatterns := []string{
		"GET /documents",
		"GET /documents/{id}",
		"POST /documents/reset",
		"POST /training/{processor_id}/trigger",
	}
	if !slices.Equal(patterns, wantPatterns) {
		t.Errorf("patterns: got %v, want %v", patterns, wantPatterns)
	}

	tests := []struct {
		name        string
		method      string
		path        string
		wantStatus  int
		wantPattern string
	}{
		{"list", "GET", "/documents", http.StatusOK, "GET /documents"},
		{"find", "GET", "/documents/abc", http.StatusOK, "GET /documents/{id}"},
		{"reset", "POST", "/documents/reset", http.StatusOK, "POST /documents/reset"},
		{"nested", "POST", "/training/p1/trigger", http.StatusOK, "POST /training/{processor_id}/trigger"},
		{"wrong method", "DELETE", "/documents/abc", http.StatusMethodNotAllowed, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))

			if rec.Code != tt.wantStatus {
				t.Fatalf("status: got %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantPattern != "" && rec.Body.String() != tt.wantPattern {
				t.Errorf("pattern: got %q, want %q", rec.Body.String(), tt.wantPattern)
			}
		})
	}
}
