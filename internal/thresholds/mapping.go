package thresholds

import (
	"github.com/JaimeStill/docent/pkg/query"
	"github.com/JaimeStill/docent/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "training_configs", "c").
	Project("processor_id", "ProcessorID").
	Project("enabled", "Enabled").
	Project("min_documents_for_initial_training", "MinDocumentsForInitial").
	Project("min_documents_for_incremental", "MinDocumentsForIncremental").
	Project("min_accuracy_for_deployment", "MinAccuracyForDeployment").
	Project("check_interval_minutes", "CheckIntervalMinutes").
	Project("created_at", "CreatedAt").
	Project("updated_at", "UpdatedAt")

var defaultSort = query.SortField{Field: "ProcessorID"}

func scanConfig(s repository.Scanner) (Config, error) {
	var c Config
	err := s.Scan(
		&c.ProcessorID,
		&c.Enabled,
		&c.MinDocumentsForInitial,
		&c.MinDocumentsForIncremental,
		&c.MinAccuracyForDeployment,
		&c.CheckIntervalMinutes,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	return c, err
}
