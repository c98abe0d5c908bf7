package api

import (
	"github.com/JaimeStill/docent/internal/config"
	"github.com/JaimeStill/docent/internal/infrastructure"
	"github.com/JaimeStill/docent/pkg/pagination"
)

// Runtime extends Infrastructure with API-specific configuration.
type Runtime struct {
	*infrastructure.Infrastructure
	Pagination   pagination.Config
	Training     config.TrainingConfig
	ProcessorID  string
	MaxEventSize int64
	MaxListSize  int32
}

// NewRuntime creates an API runtime with a module-scoped logger.
func NewRuntime(cfg *config.Config, infra *infrastructure.Infrastructure) *Runtime {
	scoped := *infra
	scoped.Logger = infra.Logger.With("module", "api")

	return &Runtime{
		Infrastructure: &scoped,
		Pagination:     cfg.API.Pagination,
		Training:       cfg.Training,
		ProcessorID:    cfg.Engine.ProcessorID,
		MaxEventSize:   cfg.API.MaxEventSizeBytes(),
		MaxListSize:    cfg.Storage.MaxListSize,
	}
}
