package pagination_test

import (
	"encoding/json"
	"errors"
	"net/url"
	"strings"
	"testing"

	"github.com/JaimeStill/docent/pkg/pagination"
	"github.com/JaimeStill/docent/pkg/query"
)

func defaultConfig() pagination.Config {
	return pagination.Config{DefaultPageSize: 20, MaxPageSize: 100}
}

func TestConfigFinalize(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		var cfg pagination.Config
		if err := cfg.Finalize(nil); err != nil {
			t.Fatalf("finalize failed: %v", err)
		}
		if cfg != defaultConfig() {
			t.Errorf("got %+v, want %+v", cfg, defaultConfig())
		}
	})

	t.Run("env overrides", func(t *testing.T) {
		t.Setenv("DOCENT_TEST_PAGE_SIZE", "25")
		t.Setenv("DOCENT_TEST_MAX_PAGE_SIZE", "250")

		var cfg pagination.Config
		err := cfg.Finalize(&pagination.ConfigEnv{
			DefaultPageSize: "DOCENT_TEST_PAGE_SIZE",
			MaxPageSize:     "DOCENT_TEST_MAX_PAGE_SIZE",
		})
		if err != nil {
			t.Fatalf("finalize failed: %v", err)
		}
		if cfg.DefaultPageSize != 25 || cfg.MaxPageSize != 250 {
			t.Errorf("got %+v", cfg)
		}
	})

	t.Run("default above max", func(t *testing.T) {
		cfg := pagination.Config{DefaultPageSize: 150, MaxPageSize: 100}
		err := cfg.Finalize(nil)
		if err == nil || !strings.Contains(err.Error(), "default_page_size cannot exceed max_page_size") {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

func TestConfigMerge(t *testing.T) {
	base := defaultConfig()
	base.Merge(&pagination.Config{MaxPageSize: 500})

	if base.DefaultPageSize != 20 {
		t.Errorf("DefaultPageSize = %d, want 20", base.DefaultPageSize)
	}
	if base.MaxPageSize != 500 {
		t.Errorf("MaxPageSize = %d, want 500", base.MaxPageSize)
	}
}

func TestPageRequestNormalize(t *testing.T) {
	tests := []struct {
		name         string
		req          pagination.PageRequest
		wantPage     int
		wantPageSize int
	}{
		{"empty", pagination.PageRequest{}, 1, 20},
		{"negative page", pagination.PageRequest{Page: -3, PageSize: 5}, 1, 5},
		{"oversized page", pagination.PageRequest{Page: 2, PageSize: 1000}, 2, 100},
		{"valid", pagination.PageRequest{Page: 4, PageSize: 50}, 4, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.req.Normalize(defaultConfig())
			if tt.req.Page != tt.wantPage || tt.req.PageSize != tt.wantPageSize {
				t.Errorf("got page=%d size=%d, want page=%d size=%d",
					tt.req.Page, tt.req.PageSize, tt.wantPage, tt.wantPageSize)
			}
		})
	}
}

func TestPageRequestFromQuery(t *testing.T) {
	t.Run("document listing query", func(t *testing.T) {
		values := url.Values{
			"page":      {"3"},
			"page_size": {"10"},
			"search":    {"invoice"},
			"sort":      {"Label,-UpdatedAt"},
		}

		req, err := pagination.PageRequestFromQuery(values, defaultConfig())
		if err != nil {
			t.Fatalf("PageRequestFromQuery() error = %v", err)
		}

		if req.Page != 3 || req.PageSize != 10 {
			t.Errorf("got page=%d size=%d", req.Page, req.PageSize)
		}
		if req.Search == nil || *req.Search != "invoice" {
			t.Errorf("Search = %v, want invoice", req.Search)
		}
		want := pagination.SortFields{
			{Field: "Label"},
			{Field: "UpdatedAt", Descending: true},
		}
		if len(req.Sort) != len(want) || req.Sort[0] != want[0] || req.Sort[1] != want[1] {
			t.Errorf("Sort = %v, want %v", req.Sort, want)
		}
	})

	t.Run("defaults", func(t *testing.T) {
		req, err := pagination.PageRequestFromQuery(url.Values{}, defaultConfig())
		if err != nil {
			t.Fatalf("PageRequestFromQuery() error = %v", err)
		}
		if req.Page != 1 || req.PageSize != 20 || req.Search != nil {
			t.Errorf("got %+v", req)
		}
	})

	for _, bad := range []url.Values{
		{"page": {"two"}},
		{"page_size": {"10.5"}},
	} {
		t.Run("rejects "+bad.Encode(), func(t *testing.T) {
			_, err := pagination.PageRequestFromQuery(bad, defaultConfig())
			if !errors.Is(err, pagination.ErrInvalidPage) {
				t.Errorf("error = %v, want ErrInvalidPage", err)
			}
		})
	}
}

func TestPageRequestWindow(t *testing.T) {
	tests := []struct {
		name      string
		req       pagination.PageRequest
		total     int
		wantStart int
		wantEnd   int
	}{
		{"first page", pagination.PageRequest{Page: 1, PageSize: 20}, 45, 0, 20},
		{"last partial page", pagination.PageRequest{Page: 3, PageSize: 20}, 45, 40, 45},
		{"past the end", pagination.PageRequest{Page: 9, PageSize: 20}, 45, 45, 45},
		{"empty", pagination.PageRequest{Page: 1, PageSize: 20}, 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := tt.req.Window(tt.total)
			if start != tt.wantStart || end != tt.wantEnd {
				t.Errorf("Window(%d) = [%d, %d), want [%d, %d)", tt.total, start, end, tt.wantStart, tt.wantEnd)
			}
		})
	}
}

func TestNewPageResult(t *testing.T) {
	tests := []struct {
		name           string
		total          int
		pageSize       int
		wantTotalPages int
	}{
		{"even", 60, 20, 3},
		{"remainder", 61, 20, 4},
		{"partial", 7, 20, 1},
		{"none", 0, 20, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := pagination.PageRequest{Page: 1, PageSize: tt.pageSize}
			result := pagination.NewPageResult([]string{"doc"}, tt.total, req)
			if result.TotalPages != tt.wantTotalPages {
				t.Errorf("TotalPages = %d, want %d", result.TotalPages, tt.wantTotalPages)
			}
			if result.Total != tt.total || result.PageSize != tt.pageSize {
				t.Errorf("got %+v", result)
			}
		})
	}

	t.Run("nil data", func(t *testing.T) {
		result := pagination.NewPageResult[string](nil, 0, pagination.PageRequest{Page: 1, PageSize: 20})
		if result.Data == nil || len(result.Data) != 0 {
			t.Errorf("Data = %v, want empty slice", result.Data)
		}
	})
}

func TestSortFieldsUnmarshal(t *testing.T) {
	want := pagination.SortFields{
		query.SortField{Field: "StartedAt", Descending: true},
		query.SortField{Field: "ProcessorID"},
	}

	tests := []struct {
		name  string
		input string
	}{
		{"string form", `"-StartedAt,ProcessorID"`},
		{"array form", `[{"Field":"StartedAt","Descending":true},{"Field":"ProcessorID","Descending":false}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got pagination.SortFields
			if err := json.Unmarshal([]byte(tt.input), &got); err != nil {
				t.Fatalf("unmarshal failed: %v", err)
			}
			if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
				t.Errorf("got %v, want %v", got, want)
			}
		})
	}
}
