package batches

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/JaimeStill/docent/internal/documents"
	"github.com/JaimeStill/docent/pkg/pagination"
	"github.com/JaimeStill/docent/pkg/query"
	"github.com/JaimeStill/docent/pkg/repository"
)

type repo struct {
	db         *sql.DB
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates a batch repository implementing the System interface.
func New(
	db *sql.DB,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	return &repo{
		db:         db,
		logger:     logger.With("system", "batches"),
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
) (*pagination.PageResult[Batch], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "BatchID", "ProcessorID")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count batches: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanBatch)
	if err != nil {
		return nil, fmt.Errorf("query batches: %w", err)
	}

	result := pagination.NewPageResult(items, total, page)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id string) (*Batch, error) {
	q, args := query.NewBuilder(projection).BuildSingle("BatchID", id)

	b, err := repository.QueryOne(ctx, r.db, q, args, scanBatch)
	if err != nil {
		return nil, dbErrors.Map(err)
	}
	return &b, nil
}

// CandidateStatus returns the document status a batch of the given kind claims from.
func CandidateStatus(kind Kind) documents.Status {
	if kind == KindInitial {
		return documents.StatusPendingInitialTraining
	}
	return documents.StatusCompleted
}

type begun struct {
	batch  Batch
	claims []Claim
}

func (r *repo) Begin(ctx context.Context, cmd BeginCommand) (*Batch, []Claim, error) {
	if cmd.ProcessorID == "" {
		return nil, nil, fmt.Errorf("%w: processor_id required", ErrInvalidRequest)
	}
	if _, err := ParseKind(string(cmd.Kind)); err != nil {
		return nil, nil, err
	}
	if cmd.Limit < 1 {
		return nil, nil, fmt.Errorf("%w: limit must be positive", ErrInvalidRequest)
	}

	batchID := uuid.New().String()

	lockQ := `
		INSERT INTO public.training_locks (processor_id, batch_id)
		VALUES ($1, $2)
		ON CONFLICT (processor_id) DO NOTHING`

	insertQ := `
		INSERT INTO public.training_batches AS b (batch_id, processor_id, kind, status)
		VALUES ($1, $2, $3, $4)`

	claimQ := `
		UPDATE public.documents
		SET used_for_training = true, training_batch_id = $1, updated_at = now()
		WHERE document_id IN (
			SELECT document_id
			FROM public.documents
			WHERE processor_id = $2
				AND status = $3
				AND used_for_training = false
				AND label IS NOT NULL AND label <> ''
			ORDER BY created_at
			LIMIT $4
			FOR UPDATE SKIP LOCKED
		)
		AND used_for_training = false
		RETURNING document_id, source_uri, path, label`

	recordQ := `
		UPDATE public.training_batches AS b
		SET document_ids = $2, updated_at = now()
		WHERE b.batch_id = $1
		RETURNING ` + projection.Columns()

	result, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (begun, error) {
		if err := repository.ExecExpectOne(ctx, tx, lockQ, cmd.ProcessorID, batchID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return begun{}, ErrTrainingInFlight
			}
			return begun{}, err
		}

		if _, err := tx.ExecContext(
			ctx, insertQ,
			batchID, cmd.ProcessorID, string(cmd.Kind), string(StatusPending),
		); err != nil {
			return begun{}, err
		}

		claims, err := repository.QueryMany(
			ctx, tx, claimQ,
			[]any{batchID, cmd.ProcessorID, string(CandidateStatus(cmd.Kind)), cmd.Limit},
			scanClaim,
		)
		if err != nil {
			return begun{}, err
		}
		if len(claims) == 0 {
			return begun{}, ErrNoCandidates
		}

		ids := make([]string, len(claims))
		for i, c := range claims {
			ids[i] = c.DocumentID
		}
		raw, err := json.Marshal(ids)
		if err != nil {
			return begun{}, err
		}

		b, err := repository.QueryOne(ctx, tx, recordQ, []any{batchID, string(raw)}, scanBatch)
		if err != nil {
			return begun{}, err
		}

		return begun{batch: b, claims: claims}, nil
	})
	if err != nil {
		if errors.Is(err, ErrTrainingInFlight) || errors.Is(err, ErrNoCandidates) {
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("begin batch: %w", err)
	}

	r.logger.Info(
		"batch started",
		"batch_id", result.batch.BatchID,
		"processor_id", cmd.ProcessorID,
		"kind", cmd.Kind,
		"claimed", len(result.claims),
	)
	return &result.batch, result.claims, nil
}

func (r *repo) Transition(ctx context.Context, cmd TransitionCommand) (*Batch, error) {
	if !cmd.From.CanTransition(cmd.To) {
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidStatus, cmd.From, cmd.To)
	}

	q := `
		UPDATE public.training_batches AS b SET
			status = $3,
			job_handle = COALESCE($4, b.job_handle),
			deploy_handle = COALESCE($5, b.deploy_handle),
			processor_version = COALESCE($6, b.processor_version),
			manifest_uri = COALESCE($7, b.manifest_uri),
			accuracy_score = COALESCE($8, b.accuracy_score),
			error_message = COALESCE($9, b.error_message),
			completed_at = CASE WHEN $10 THEN COALESCE(b.completed_at, now()) ELSE b.completed_at END,
			deployed_at = CASE WHEN $11 THEN now() ELSE b.deployed_at END,
			updated_at = now()
		WHERE b.batch_id = $1 AND b.status = $2
		RETURNING ` + projection.Columns()

	args := []any{
		cmd.BatchID,
		string(cmd.From),
		string(cmd.To),
		cmd.JobHandle,
		cmd.DeployHandle,
		cmd.ProcessorVersion,
		cmd.ManifestURI,
		cmd.Accuracy,
		cmd.Error,
		cmd.To == StatusDeploying || cmd.To.Terminal(),
		cmd.To == StatusDeployed,
	}

	unlockQ := `DELETE FROM public.training_locks WHERE processor_id = $1 AND batch_id = $2`

	b, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Batch, error) {
		b, err := repository.QueryOne(ctx, tx, q, args, scanBatch)
		if err != nil {
			return Batch{}, err
		}

		if b.Status.Terminal() {
			if _, err := tx.ExecContext(ctx, unlockQ, b.ProcessorID, b.BatchID); err != nil {
				return Batch{}, err
			}
		}
		return b, nil
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			if _, findErr := r.Find(ctx, cmd.BatchID); findErr != nil {
				return nil, findErr
			}
			return nil, fmt.Errorf("%w: batch %s is no longer %s", ErrStaleTransition, cmd.BatchID, cmd.From)
		}
		return nil, fmt.Errorf("transition batch: %w", err)
	}

	r.logger.Info(
		"batch transitioned",
		"batch_id", b.BatchID,
		"processor_id", b.ProcessorID,
		"from", cmd.From,
		"to", b.Status,
	)
	return &b, nil
}

func (r *repo) Active(ctx context.Context, processorID string) (*Batch, error) {
	q, args := query.
		NewBuilder(projection).
		WhereEquals("ProcessorID", processorID).
		WhereIn("Status", activeStatuses()).
		BuildSingleOrNull()

	b, err := repository.QueryOne(ctx, r.db, q, args, scanBatch)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query active batch: %w", err)
	}
	return &b, nil
}

func (r *repo) InFlight(ctx context.Context) ([]Batch, error) {
	q, args := query.
		NewBuilder(projection, query.SortField{Field: "StartedAt"}).
		WhereIn("Status", activeStatuses()).
		Build()

	items, err := repository.QueryMany(ctx, r.db, q, args, scanBatch)
	if err != nil {
		return nil, fmt.Errorf("query in-flight batches: %w", err)
	}
	return items, nil
}
