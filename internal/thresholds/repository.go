package thresholds

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/JaimeStill/docent/pkg/query"
	"github.com/JaimeStill/docent/pkg/repository"
)

type repo struct {
	db       *sql.DB
	logger   *slog.Logger
	defaults Defaults
}

// New creates a training config repository implementing the System interface.
func New(db *sql.DB, logger *slog.Logger, defaults Defaults) System {
	return &repo{
		db:       db,
		logger:   logger.With("system", "thresholds"),
		defaults: defaults,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger)
}

const insertDefault = `
	INSERT INTO public.training_configs (
		processor_id, enabled, min_documents_for_initial_training,
		min_documents_for_incremental, min_accuracy_for_deployment, check_interval_minutes
	)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (processor_id) DO NOTHING`

func (r *repo) insertArgs(processorID string) []any {
	c := r.defaults.New(processorID)
	return []any{
		c.ProcessorID,
		c.Enabled,
		c.MinDocumentsForInitial,
		c.MinDocumentsForIncremental,
		c.MinAccuracyForDeployment,
		c.CheckIntervalMinutes,
	}
}

func (r *repo) Ensure(ctx context.Context, processorID string) (*Config, error) {
	if processorID == "" {
		return nil, fmt.Errorf("%w: processor_id required", ErrInvalidConfig)
	}

	sel, selArgs := query.NewBuilder(projection).BuildSingle("ProcessorID", processorID)

	c, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Config, error) {
		n, err := repository.Exec(ctx, tx, insertDefault, r.insertArgs(processorID)...)
		if err != nil {
			return Config{}, err
		}
		if n > 0 {
			r.logger.Info("training config created from defaults", "processor_id", processorID)
		}
		return repository.QueryOne(ctx, tx, sel, selArgs, scanConfig)
	})
	if err != nil {
		return nil, dbErrors.Map(err)
	}
	return &c, nil
}

func (r *repo) Find(ctx context.Context, processorID string) (*Config, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ProcessorID", processorID)

	c, err := repository.QueryOne(ctx, r.db, q, args, scanConfig)
	if err != nil {
		return nil, dbErrors.Map(err)
	}
	return &c, nil
}

func (r *repo) List(ctx context.Context) ([]Config, error) {
	q, args := query.NewBuilder(projection, defaultSort).Build()

	configs, err := repository.QueryMany(ctx, r.db, q, args, scanConfig)
	if err != nil {
		return nil, fmt.Errorf("query training configs: %w", err)
	}
	return configs, nil
}

func (r *repo) Update(ctx context.Context, processorID string, cmd UpdateCommand) (*Config, error) {
	if processorID == "" {
		return nil, fmt.Errorf("%w: processor_id required", ErrInvalidConfig)
	}
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	q := `
		UPDATE public.training_configs AS c SET
			enabled = COALESCE($2, c.enabled),
			min_documents_for_initial_training = COALESCE($3, c.min_documents_for_initial_training),
			min_documents_for_incremental = COALESCE($4, c.min_documents_for_incremental),
			min_accuracy_for_deployment = COALESCE($5, c.min_accuracy_for_deployment),
			check_interval_minutes = COALESCE($6, c.check_interval_minutes),
			updated_at = now()
		WHERE c.processor_id = $1
		RETURNING ` + projection.Columns()

	args := []any{
		processorID,
		cmd.Enabled,
		cmd.MinDocumentsForInitial,
		cmd.MinDocumentsForIncremental,
		cmd.MinAccuracyForDeployment,
		cmd.CheckIntervalMinutes,
	}

	c, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Config, error) {
		if _, err := tx.ExecContext(ctx, insertDefault, r.insertArgs(processorID)...); err != nil {
			return Config{}, err
		}
		return repository.QueryOne(ctx, tx, q, args, scanConfig)
	})
	if err != nil {
		return nil, dbErrors.Map(err)
	}

	r.logger.Info("training config updated", "processor_id", processorID, "enabled", c.Enabled)
	return &c, nil
}
