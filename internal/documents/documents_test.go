package documents_test

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"testing"

	"github.com/JaimeStill/docent/internal/documents"
	"github.com/JaimeStill/docent/pkg/query"
)

func ptr[T any](v T) *T { return &v }

func TestMapHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", documents.ErrNotFound, http.StatusNotFound},
		{"duplicate", documents.ErrDuplicate, http.StatusConflict},
		{"invalid status", documents.ErrInvalidStatus, http.StatusBadRequest},
		{"invalid request", documents.ErrInvalidRequest, http.StatusBadRequest},
		{"unknown error", errors.New("something else"), http.StatusInternalServerError},
		{"wrapped not found", fmt.Errorf("find failed: %w", documents.ErrNotFound), http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := documents.MapHTTPStatus(tt.err); got != tt.want {
				t.Errorf("MapHTTPStatus(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestParseStatus(t *testing.T) {
	for _, s := range documents.Statuses {
		got, err := documents.ParseStatus(string(s))
		if err != nil || got != s {
			t.Errorf("ParseStatus(%q) = %q, %v", s, got, err)
		}
	}

	if _, err := documents.ParseStatus("archived"); !errors.Is(err, documents.ErrInvalidStatus) {
		t.Errorf("err = %v, want ErrInvalidStatus", err)
	}
}

func TestFiltersFromQuery(t *testing.T) {
	t.Run("all params present", func(t *testing.T) {
		values := url.Values{
			"processor_id":      {"p1"},
			"status":            {"completed"},
			"label":             {"invoice"},
			"used_for_training": {"true"},
			"training_batch_id": {"b1"},
			"path":              {"invoice/"},
		}

		f := documents.FiltersFromQuery(values)

		if f.ProcessorID == nil || *f.ProcessorID != "p1" {
			t.Errorf("ProcessorID = %v, want p1", f.ProcessorID)
		}
		if f.Status == nil || *f.Status != "completed" {
			t.Errorf("Status = %v, want completed", f.Status)
		}
		if f.Label == nil || *f.Label != "invoice" {
			t.Errorf("Label = %v, want invoice", f.Label)
		}
		if f.UsedForTraining == nil || !*f.UsedForTraining {
			t.Errorf("UsedForTraining = %v, want true", f.UsedForTraining)
		}
		if f.TrainingBatchID == nil || *f.TrainingBatchID != "b1" {
			t.Errorf("TrainingBatchID = %v, want b1", f.TrainingBatchID)
		}
		if f.Path == nil || *f.Path != "invoice/" {
			t.Errorf("Path = %v, want invoice/", f.Path)
		}
	})

	t.Run("empty params yield nil fields", func(t *testing.T) {
		f := documents.FiltersFromQuery(url.Values{})

		if f != (documents.Filters{}) {
			t.Errorf("filters = %+v, want zero", f)
		}
	})

	t.Run("invalid used_for_training ignored", func(t *testing.T) {
		f := documents.FiltersFromQuery(url.Values{"used_for_training": {"maybe"}})

		if f.UsedForTraining != nil {
			t.Errorf("UsedForTraining = %v, want nil", f.UsedForTraining)
		}
	})
}

func TestFiltersApply(t *testing.T) {
	projection := query.
		NewProjectionMap("public", "documents", "d").
		Project("processor_id", "ProcessorID").
		Project("status", "Status").
		Project("label", "Label").
		Project("used_for_training", "UsedForTraining").
		Project("training_batch_id", "TrainingBatchID").
		Project("path", "Path")

	t.Run("no filters produces no WHERE clause", func(t *testing.T) {
		b := query.NewBuilder(projection)
		documents.Filters{}.Apply(b)
		sql, args := b.Build()

		want := "SELECT d.processor_id, d.status, d.label, d.used_for_training, d.training_batch_id, d.path FROM public.documents d"
		if sql != want {
			t.Errorf("sql = %q, want %q", sql, want)
		}
		if len(args) != 0 {
			t.Errorf("args = %v, want empty", args)
		}
	})

	t.Run("path contains filter", func(t *testing.T) {
		b := query.NewBuilder(projection)
		documents.Filters{Path: ptr("invoice")}.Apply(b)
		_, args := b.Build()

		if len(args) != 1 || args[0] != "%invoice%" {
			t.Errorf("args = %v, want [%%invoice%%]", args)
		}
	})

	t.Run("multiple filters combine with AND", func(t *testing.T) {
		b := query.NewBuilder(projection)
		documents.Filters{
			ProcessorID:     ptr("p1"),
			Label:           ptr("invoice"),
			UsedForTraining: ptr(false),
		}.Apply(b)
		_, args := b.Build()

		if len(args) != 3 {
			t.Errorf("args length = %d, want 3", len(args))
		}
		if v, ok := args[2].(*bool); !ok || *v {
			t.Errorf("args[2] = %v, want *false", args[2])
		}
	})
}
