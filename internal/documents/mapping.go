package documents

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/JaimeStill/docent/pkg/query"
	"github.com/JaimeStill/docent/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "documents", "d").
	Project("document_id", "DocumentID").
	Project("source_uri", "SourceURI").
	Project("bucket", "Bucket").
	Project("path", "Path").
	Project("processor_id", "ProcessorID").
	Project("label", "Label").
	Project("status", "Status").
	Project("used_for_training", "UsedForTraining").
	Project("training_batch_id", "TrainingBatchID").
	Project("confidence", "Confidence").
	Project("extracted_data", "ExtractedData").
	Project("error_message", "ErrorMessage").
	Project("created_at", "CreatedAt").
	Project("processed_at", "ProcessedAt").
	Project("updated_at", "UpdatedAt")

var defaultSort = query.SortField{
	Field:      "CreatedAt",
	Descending: true,
}

// Filters contains optional filtering criteria for document queries.
// Nil fields are ignored. Path uses case-insensitive contains matching;
// all other fields use exact matching.
type Filters struct {
	ProcessorID     *string `json:"processor_id,omitempty"`
	Status          *string `json:"status,omitempty"`
	Label           *string `json:"label,omitempty"`
	UsedForTraining *bool   `json:"used_for_training,omitempty"`
	TrainingBatchID *string `json:"training_batch_id,omitempty"`
	Path            *string `json:"path,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("ProcessorID", f.ProcessorID).
		WhereEquals("Status", f.Status).
		WhereEquals("Label", f.Label).
		WhereEquals("UsedForTraining", f.UsedForTraining).
		WhereEquals("TrainingBatchID", f.TrainingBatchID).
		WhereContains("Path", f.Path)
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

	if l := values.Get("label"); l != "" {
		f.Label = &l
	}

	if u := values.Get("used_for_training"); u != "" {
		if v, err := strconv.ParseBool(u); err == nil {
			f.UsedForTraining = &v
		}
	}

	if b := values.Get("training_batch_id"); b != "" {
		f.TrainingBatchID = &b
	}

	if p := values.Get("path"); p != "" {
		f.Path = &p
	}

	return f
}

func (c Criteria) apply(b *query.Builder) *query.Builder {
	if c.ProcessorID != "" {
		b.WhereEquals("ProcessorID", c.ProcessorID)
	}
	if c.Status != "" {
		b.WhereEquals("Status", string(c.Status))
	}
	b.WhereEquals("UsedForTraining", c.UsedForTraining)
	if c.Labeled {
		b.WhereNotEmpty("Label")
	}
	return b
}

func encodeExtracted(data *ExtractedData) (any, error) {
	if data == nil {
		return nil, nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode extracted data: %w", err)
	}
	return string(raw), nil
}

func scanDocument(s repository.Scanner) (Document, error) {
	var (
		d         Document
		status    string
		extracted []byte
	)

	err := s.Scan(
		&d.DocumentID,
		&d.SourceURI,
		&d.Bucket,
		&d.Path,
		&d.ProcessorID,
		&d.Label,
		&status,
		&d.UsedForTraining,
		&d.TrainingBatchID,
		&d.Confidence,
		&extracted,
		&d.ErrorMessage,
		&d.CreatedAt,
		&d.ProcessedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		return d, err
	}

	d.Status = Status(status)

	if len(extracted) > 0 {
		var data ExtractedData
		if err := json.Unmarshal(extracted, &data); err != nil {
			return d, fmt.Errorf("decode extracted data: %w", err)
		}
		d.ExtractedData = &data
	}

	return d, nil
}
