package thresholds_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/JaimeStill/docent/internal/memstore"
	"github.com/JaimeStill/docent/internal/thresholds"
)

func setupMux(h *thresholds.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	group := h.Routes()
	for _, route := range group.Routes {
		pattern := route.Method + " " + group.Prefix + route.Pattern
		mux.HandleFunc(pattern, route.Handler)
	}
	return mux
}

func newMux() *http.ServeMux {
	store := memstore.New(thresholds.Defaults{
		MinDocumentsForInitial:     10,
		MinDocumentsForIncremental: 5,
		MinAccuracyForDeployment:   0.7,
		CheckIntervalMinutes:       60,
	})
	return setupMux(store.Thresholds().Handler())
}

func decodeConfig(t *testing.T, rec *httptest.ResponseRecorder) thresholds.Config {
	t.Helper()
	var cfg thresholds.Config
	if err := json.NewDecoder(rec.Body).Decode(&cfg); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return cfg
}

func TestHandlerGetCreatesDefaults(t *testing.T) {
	mux := newMux()

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("GET", "/thresholds/p1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	cfg := decodeConfig(t, rec)
	if !cfg.Enabled || cfg.MinDocumentsForInitial != 10 || cfg.MinAccuracyForDeployment != 0.7 {
		t.Errorf("config = %+v, want defaults", cfg)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("GET", "/thresholds", nil))

	var list []thresholds.Config
	if err := json.NewDecoder(rec.Body).Decode(&list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list) != 1 || list[0].ProcessorID != "p1" {
		t.Errorf("list = %+v, want [p1]", list)
	}
}

func TestHandlerUpdate(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
		check  func(t *testing.T, cfg thresholds.Config)
	}{
		{
			name:   "partial update",
			body:   `{"min_documents_for_initial_training":3,"enabled":false}`,
			status: http.StatusOK,
			check: func(t *testing.T, cfg thresholds.Config) {
				if cfg.MinDocumentsForInitial != 3 || cfg.Enabled {
					t.Errorf("config = %+v", cfg)
				}
				if cfg.MinDocumentsForIncremental != 5 {
					t.Errorf("incremental = %d, want untouched 5", cfg.MinDocumentsForIncremental)
				}
			},
		},
		{
			name:   "accuracy out of range",
			body:   `{"min_accuracy_for_deployment":1.2}`,
			status: http.StatusBadRequest,
		},
		{
			name:   "zero threshold",
			body:   `{"min_documents_for_incremental":0}`,
			status: http.StatusBadRequest,
		},
		{
			name:   "malformed",
			body:   `{`,
			status: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := newMux()

			rec := httptest.NewRecorder()
			req := httptest.NewRequest("PUT", "/thresholds/p1", bytes.NewBufferString(tt.body))
			mux.ServeHTTP(rec, req)

			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
			if tt.check != nil {
				tt.check(t, decodeConfig(t, rec))
			}
		})
	}
}
