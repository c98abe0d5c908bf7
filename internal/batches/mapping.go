package batches

import (
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/JaimeStill/docent/pkg/query"
	"github.com/JaimeStill/docent/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "training_batches", "b").
	Project("batch_id", "BatchID").
	Project("processor_id", "ProcessorID").
	Project("kind", "Kind").
	Project("document_ids", "DocumentIDs").
	Project("status", "Status").
	Project("job_handle", "JobHandle").
	Project("deploy_handle", "DeployHandle").
	Project("processor_version", "ProcessorVersion").
	Project("manifest_uri", "ManifestURI").
	Project("accuracy_score", "AccuracyScore").
	Project("error_message", "ErrorMessage").
	Project("started_at", "StartedAt").
	Project("completed_at", "CompletedAt").
	Project("deployed_at", "DeployedAt").
	Project("updated_at", "UpdatedAt")

var defaultSort = query.SortField{
	Field:      "StartedAt",
	Descending: true,
}

// Filters contains optional filtering criteria for batch queries.
type Filters struct {
	ProcessorID *string `json:"processor_id,omitempty"`
	Status      *string `json:"status,omitempty"`
	Kind        *string `json:"kind,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("ProcessorID", f.ProcessorID).
		WhereEquals("Status", f.Status).
		WhereEquals("Kind", f.Kind)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if p := values.Get("processor_id"); p != "" {
		f.ProcessorID = &p
	}

	if s := values.Get("status"); s != "" {
		f.Status = &s
	}

	if k := values.Get("kind"); k != "" {
		f.Kind = &k
	}

	return f
}

func activeStatuses() []any {
	values := make([]any, len(Active))
	for i, s := range Active {
		values[i] = string(s)
	}
	return values
}

func scanBatch(s repository.Scanner) (Batch, error) {
	var (
		b      Batch
		kind   string
		status string
		ids    []byte
	)

	err := s.Scan(
		&b.BatchID,
		&b.ProcessorID,
		&kind,
		&ids,
		&status,
		&b.JobHandle,
		&b.DeployHandle,
		&b.ProcessorVersion,
		&b.ManifestURI,
		&b.AccuracyScore,
		&b.ErrorMessage,
		&b.StartedAt,
		&b.CompletedAt,
		&b.DeployedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		return b, err
	}

	b.Kind = Kind(kind)
	b.Status = Status(status)
	b.DocumentIDs = []string{}

	if len(ids) > 0 {
		if err := json.Unmarshal(ids, &b.DocumentIDs); err != nil {
			return b, fmt.Errorf("decode document ids: %w", err)
		}
	}

	return b, nil
}

func scanClaim(s repository.Scanner) (Claim, error) {
	var c Claim
	err := s.Scan(&c.DocumentID, &c.SourceURI, &c.Path, &c.Label)
	return c, err
}
