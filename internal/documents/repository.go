package documents

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/JaimeStill/docent/pkg/pagination"
	"github.com/JaimeStill/docent/pkg/query"
	"github.com/JaimeStill/docent/pkg/repository"
)

type repo struct {
	db         *sql.DB
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates a document repository implementing the System interface.
func New(
	db *sql.DB,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	return &repo{
		db:         db,
		logger:     logger.With("system", "documents"),
		pagination: pagination,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Document], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "Path", "Label", "DocumentID")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count documents: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	docs, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanDocument)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}

	result := pagination.NewPageResult(docs, total, page)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id string) (*Document, error) {
	q, args := query.NewBuilder(projection).BuildSingle("DocumentID", id)

	d, err := repository.QueryOne(ctx, r.db, q, args, scanDocument)
	if err != nil {
		return nil, dbErrors.Map(err)
	}
	return &d, nil
}

func (r *repo) Upsert(ctx context.Context, cmd UpsertCommand) (*Document, error) {
	if _, err := ParseStatus(string(cmd.Status)); err != nil {
		return nil, err
	}

	extracted, err := encodeExtracted(cmd.ExtractedData)
	if err != nil {
		return nil, err
	}

	q := `
		INSERT INTO public.documents AS d (
			document_id, source_uri, bucket, path, processor_id, label,
			status, confidence, extracted_data, error_message, processed_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (document_id) DO UPDATE SET
			processor_id = EXCLUDED.processor_id,
			label = EXCLUDED.label,
			status = EXCLUDED.status,
			confidence = EXCLUDED.confidence,
			extracted_data = EXCLUDED.extracted_data,
			error_message = EXCLUDED.error_message,
			processed_at = EXCLUDED.processed_at,
			updated_at = now()
		RETURNING ` + projection.Columns()

	args := []any{
		cmd.DocumentID,
		cmd.SourceURI,
		cmd.Bucket,
		cmd.Path,
		cmd.ProcessorID,
		cmd.Label,
		string(cmd.Status),
		cmd.Confidence,
		extracted,
		cmd.ErrorMessage,
		cmd.ProcessedAt,
	}

	d, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Document, error) {
		return repository.QueryOne(ctx, tx, q, args, scanDocument)
	})
	if err != nil {
		return nil, dbErrors.Map(err)
	}

	r.logger.Info("document upserted", "id", d.DocumentID, "status", d.Status)
	return &d, nil
}

func (r *repo) Count(ctx context.Context, criteria Criteria) (int, error) {
	q, args := criteria.apply(query.NewBuilder(projection)).BuildCount()

	var total int
	if err := r.db.QueryRowContext(ctx, q, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return total, nil
}

func (r *repo) CountByStatus(ctx context.Context, processorID string) (map[Status]int, error) {
	q := `
		SELECT status, COUNT(*)
		FROM public.documents
		WHERE processor_id = $1
		GROUP BY status`

	type row struct {
		status string
		count  int
	}

	rows, err := repository.QueryMany(ctx, r.db, q, []any{processorID}, func(s repository.Scanner) (row, error) {
		var rw row
		err := s.Scan(&rw.status, &rw.count)
		return rw, err
	})
	if err != nil {
		return nil, fmt.Errorf("count documents by status: %w", err)
	}

	counts := make(map[Status]int, len(Statuses))
	for _, s := range Statuses {
		counts[s] = 0
	}
	for _, rw := range rows {
		counts[Status(rw.status)] = rw.count
	}
	return counts, nil
}

// batchInFlight reports whether a batch holds its processor's training lock,
// which it does until it reaches a terminal status.
const batchInFlight = `SELECT EXISTS (SELECT 1 FROM public.training_locks WHERE batch_id = $1)`

// Reset never releases claims of the processor's in-flight batch. Naming
// that batch explicitly is refused.
func (r *repo) Reset(ctx context.Context, cmd ResetCommand) (*ResetResult, error) {
	if cmd.ProcessorID == "" {
		return nil, fmt.Errorf("%w: processor_id required", ErrInvalidRequest)
	}

	q := `
		UPDATE public.documents
		SET used_for_training = false, training_batch_id = NULL, updated_at = now()
		WHERE processor_id = $1 AND used_for_training = true
		AND training_batch_id IS DISTINCT FROM (
			SELECT batch_id FROM public.training_locks WHERE processor_id = $1
		)`
	args := []any{cmd.ProcessorID}

	if cmd.BatchID != nil {
		args = append(args, *cmd.BatchID)
		q += fmt.Sprintf(" AND training_batch_id = $%d", len(args))
	}
	if cmd.Status != nil {
		if _, err := ParseStatus(string(*cmd.Status)); err != nil {
			return nil, err
		}
		args = append(args, string(*cmd.Status))
		q += fmt.Sprintf(" AND status = $%d", len(args))
	}

	released, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (int64, error) {
		if cmd.BatchID != nil {
			var inFlight bool
			if err := tx.QueryRowContext(ctx, batchInFlight, *cmd.BatchID).Scan(&inFlight); err != nil {
				return 0, err
			}
			if inFlight {
				return 0, fmt.Errorf("%w: batch %s is still in flight", ErrInvalidRequest, *cmd.BatchID)
			}
		}
		return repository.Exec(ctx, tx, q, args...)
	})
	if err != nil {
		return nil, fmt.Errorf("reset documents: %w", err)
	}

	r.logger.Info(
		"documents released",
		"processor_id", cmd.ProcessorID,
		"released", released,
	)
	return &ResetResult{Released: released}, nil
}
