package query_test

import (
	"slices"
	"testing"

	"github.com/JaimeStill/docent/pkg/query"
)

const selectBatches = "SELECT b.batch_id, b.processor_id, b.status, b.started_at FROM public.training_batches b"

func batchProjection() *query.ProjectionMap {
	return query.NewProjectionMap("public", "training_batches", "b").
		Project("batch_id", "BatchID").
		Project("processor_id", "ProcessorID").
		Project("status", "Status").
		Project("started_at", "StartedAt")
}

func ptr(s string) *string { return &s }

func TestProjectionMap(t *testing.T) {
	p := batchProjection()

	if got := p.Table(); got != "public.training_batches b" {
		t.Errorf("Table() = %q", got)
	}
	if got := p.Columns(); got != "b.batch_id, b.processor_id, b.status, b.started_at" {
		t.Errorf("Columns() = %q", got)
	}

	tests := []struct {
		view string
		want string
	}{
		{"ProcessorID", "b.processor_id"},
		{"StartedAt", "b.started_at"},
		{"unmapped", "unmapped"},
	}
	for _, tt := range tests {
		if got := p.Column(tt.view); got != tt.want {
			t.Errorf("Column(%q) = %q, want %q", tt.view, got, tt.want)
		}
	}

	if col, ok := p.Lookup("Status"); !ok || col != "b.status" {
		t.Errorf("Lookup(Status) = %q, %v", col, ok)
	}
	if _, ok := p.Lookup("unmapped"); ok {
		t.Error("Lookup should reject unmapped fields")
	}
}

func TestParseSortFields(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []query.SortField
	}{
		{"empty", "", nil},
		{"ascending", "Status", []query.SortField{{Field: "Status"}}},
		{"descending", "-StartedAt", []query.SortField{{Field: "StartedAt", Descending: true}}},
		{
			"mixed with spaces and gaps",
			" Status ,, -StartedAt ",
			[]query.SortField{{Field: "Status"}, {Field: "StartedAt", Descending: true}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := query.ParseSortFields(tt.input)
			if tt.want == nil {
				if got != nil {
					t.Errorf("got %v, want nil", got)
				}
				return
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBuilder(t *testing.T) {
	byStart := query.SortField{Field: "StartedAt", Descending: true}

	tests := []struct {
		name     string
		build    func() (string, []any)
		wantSQL  string
		wantArgs []any
	}{
		{
			name: "select all",
			build: func() (string, []any) {
				return query.NewBuilder(batchProjection()).Build()
			},
			wantSQL: selectBatches,
		},
		{
			name: "count",
			build: func() (string, []any) {
				return query.NewBuilder(batchProjection()).
					WhereEquals("ProcessorID", "p1").
					BuildCount()
			},
			wantSQL:  "SELECT COUNT(*) FROM public.training_batches b WHERE b.processor_id = $1",
			wantArgs: []any{"p1"},
		},
		{
			name: "nil equality skipped",
			build: func() (string, []any) {
				var status *string
				return query.NewBuilder(batchProjection()).
					WhereEquals("Status", status).
					Build()
			},
			wantSQL: selectBatches,
		},
		{
			name: "page with default sort",
			build: func() (string, []any) {
				return query.NewBuilder(batchProjection(), byStart).BuildPage(3, 10)
			},
			wantSQL: selectBatches + " ORDER BY b.started_at DESC LIMIT 10 OFFSET 20",
		},
		{
			name: "explicit sort overrides default",
			build: func() (string, []any) {
				return query.NewBuilder(batchProjection(), byStart).
					OrderByFields([]query.SortField{{Field: "Status"}, {Field: "BatchID", Descending: true}}).
					Build()
			},
			wantSQL: selectBatches + " ORDER BY b.status ASC, b.batch_id DESC",
		},
		{
			name: "single by id",
			build: func() (string, []any) {
				return query.NewBuilder(batchProjection()).BuildSingle("BatchID", "batch-1")
			},
			wantSQL:  selectBatches + " WHERE b.batch_id = $1",
			wantArgs: []any{"batch-1"},
		},
		{
			name: "single or null",
			build: func() (string, []any) {
				return query.NewBuilder(batchProjection()).
					WhereEquals("ProcessorID", "p1").
					WhereIn("Status", []any{"pending", "training"}).
					BuildSingleOrNull()
			},
			wantSQL:  selectBatches + " WHERE b.processor_id = $1 AND b.status IN ($2, $3) LIMIT 1",
			wantArgs: []any{"p1", "pending", "training"},
		},
		{
			name: "empty in skipped",
			build: func() (string, []any) {
				return query.NewBuilder(batchProjection()).WhereIn("Status", nil).Build()
			},
			wantSQL: selectBatches,
		},
		{
			name: "contains",
			build: func() (string, []any) {
				return query.NewBuilder(batchProjection()).
					WhereContains("BatchID", ptr("2026")).
					WhereContains("Status", ptr("")).
					Build()
			},
			wantSQL:  selectBatches + " WHERE b.batch_id ILIKE $1",
			wantArgs: []any{"%2026%"},
		},
		{
			name: "not empty",
			build: func() (string, []any) {
				return query.NewBuilder(batchProjection()).WhereNotEmpty("Status").Build()
			},
			wantSQL: selectBatches + " WHERE (b.status IS NOT NULL AND b.status <> '')",
		},
		{
			name: "search across fields",
			build: func() (string, []any) {
				return query.NewBuilder(batchProjection()).
					WhereEquals("Status", "failed").
					WhereSearch(ptr("p1"), "BatchID", "ProcessorID").
					Build()
			},
			wantSQL:  selectBatches + " WHERE b.status = $1 AND (b.batch_id ILIKE $2 OR b.processor_id ILIKE $3)",
			wantArgs: []any{"failed", "%p1%", "%p1%"},
		},
		{
			name: "unmapped sort fields dropped",
			build: func() (string, []any) {
				return query.NewBuilder(batchProjection(), byStart).
					OrderByFields(query.ParseSortFields("status;DROP TABLE x,-Status")).
					Build()
			},
			wantSQL: selectBatches + " ORDER BY b.status DESC",
		},
		{
			name: "only unmapped sort fields",
			build: func() (string, []any) {
				return query.NewBuilder(batchProjection()).
					OrderByFields([]query.SortField{{Field: "1"}}).
					Build()
			},
			wantSQL: selectBatches,
		},
		{
			name: "wildcards escaped",
			build: func() (string, []any) {
				return query.NewBuilder(batchProjection()).
					WhereContains("BatchID", ptr(`50%_off\`)).
					Build()
			},
			wantSQL:  selectBatches + " WHERE b.batch_id ILIKE $1",
			wantArgs: []any{`%50\%\_off\\%`},
		},
		{
			name: "nil search skipped",
			build: func() (string, []any) {
				return query.NewBuilder(batchProjection()).WhereSearch(nil, "BatchID").Build()
			},
			wantSQL: selectBatches,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args := tt.build()
			if sql != tt.wantSQL {
				t.Errorf("sql = %q\nwant  %q", sql, tt.wantSQL)
			}
			if len(args) != len(tt.wantArgs) || !slices.Equal(args, tt.wantArgs) {
				t.Errorf("args = %v, want %v", args, tt.wantArgs)
			}
		})
	}
}
