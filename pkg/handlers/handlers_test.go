package handlers_test

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/JaimeStill/docent/pkg/handlers"
)

func TestRespondJSON(t *testing.T) {
	tests := []struct {
		name   string
		status int
		data   any
		key    string
	}{
		{"ok outcome", http.StatusOK, map[string]string{"status": "processed"}, "status"},
		{"accepted batch", http.StatusAccepted, struct {
			BatchID string `json:"batch_id"`
		}{"batch-1"}, "batch_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handlers.RespondJSON(rec, tt.status, tt.data)

			if rec.Code != tt.status {
				t.Errorf("status: got %d, want %d", rec.Code, tt.status)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("content-type: got %s", ct)
			}

			var body map[string]any
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("unmarshal failed: %v", err)
			}
			if _, ok := body[tt.key]; !ok {
				t.Errorf("body missing %q: %v", tt.key, body)
			}
		})
	}
}

func TestRespondError(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name   string
		status int
		err    error
	}{
		{"client error", http.StatusConflict, errors.New("training already in flight")},
		{"server error", http.StatusBadGateway, errors.New("engine unavailable")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handlers.RespondError(rec, logger, tt.status, tt.err)

			if rec.Code != tt.status {
				t.Errorf("status: got %d, want %d", rec.Code, tt.status)
			}

			var body map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("unmarshal failed: %v", err)
			}
			if body["error"] != tt.err.Error() {
				t.Errorf("error: got %q, want %q", body["error"], tt.err.Error())
			}
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	type trigger struct {
		Kind string `json:"kind"`
	}

	tests := []struct {
		name     string
		body     string
		wantErr  error
		wantKind string
		status   int
	}{
		{"valid", `{"kind":"initial"}`, nil, "initial", 0},
		{"empty", "", handlers.ErrEmptyBody, "", http.StatusBadRequest},
		{"malformed", `{"kind":`, nil, "", http.StatusBadRequest},
		{"trailing data", `{"kind":"initial"} {}`, nil, "", http.StatusBadRequest},
		{"too large", `{"kind":"` + strings.Repeat("x", handlers.MaxBodyBytes) + `"}`, nil, "", http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/training/p1/trigger", strings.NewReader(tt.body))

			var got trigger
			err := handlers.DecodeJSON(rec, req, &got)

			if tt.status == 0 {
				if err != nil {
					t.Fatalf("DecodeJSON() error = %v", err)
				}
				if got.Kind != tt.wantKind {
					t.Errorf("kind: got %q, want %q", got.Kind, tt.wantKind)
				}
				return
			}

			if err == nil {
				t.Fatal("expected an error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
			if s := handlers.DecodeStatus(err); s != tt.status {
				t.Errorf("DecodeStatus() = %d, want %d", s, tt.status)
			}
		})
	}
}
