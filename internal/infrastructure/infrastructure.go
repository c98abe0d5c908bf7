// Package infrastructure provides core service initialization for application startup.
// It assembles the dependencies shared by the server and the CLI: logging,
// database, blob storage, the engine client, the training launcher, and metrics.
package infrastructure

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/JaimeStill/docent/internal/config"
	"github.com/JaimeStill/docent/internal/engine"
	"github.com/JaimeStill/docent/internal/launcher"
	"github.com/JaimeStill/docent/internal/metrics"
	"github.com/JaimeStill/docent/pkg/database"
	"github.com/JaimeStill/docent/pkg/lifecycle"
	"github.com/JaimeStill/docent/pkg/storage"
)

const importPollInterval = 10 * time.Second

// Infrastructure holds the core systems required by all domain modules.
// Metrics and MetricsHandler are nil when metrics are disabled.
type Infrastructure struct {
	Lifecycle      *lifecycle.Coordinator
	Logger         *slog.Logger
	Database       database.System
	Storage        storage.System
	Engine         *engine.Client
	Launcher       launcher.Launcher
	Metrics        *metrics.Recorder
	MetricsHandler http.Handler
}

// New creates an Infrastructure from the application configuration.
// It initializes all systems but does not start them; call Start separately.
func New(cfg *config.Config) (*Infrastructure, error) {
	lc := lifecycle.New()
	logger := cfg.Logging.NewLogger(os.Stderr)

	db, err := database.New(&cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("database init failed: %w", err)
	}

	store, err := storage.New(&cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("storage init failed: %w", err)
	}

	engineTokens, err := engine.TokenSource(lc.Context(), cfg.Engine.Token)
	if err != nil {
		return nil, fmt.Errorf("engine credentials failed: %w", err)
	}
	eng := engine.New(&cfg.Engine, engineTokens, logger)

	launch, err := newLauncher(lc.Context(), cfg, eng, logger)
	if err != nil {
		return nil, fmt.Errorf("launcher init failed: %w", err)
	}

	infra := &Infrastructure{
		Lifecycle: lc,
		Logger:    logger,
		Database:  db,
		Storage:   store,
		Engine:    eng,
		Launcher:  launch,
	}

	if cfg.Metrics.Enabled {
		rec, handler, err := metrics.Init(lc.Context(), cfg.Metrics.ServiceName)
		if err != nil {
			return nil, fmt.Errorf("metrics init failed: %w", err)
		}
		infra.Metrics = rec
		infra.MetricsHandler = handler
	}

	return infra, nil
}

func newLauncher(ctx context.Context, cfg *config.Config, eng *engine.Client, logger *slog.Logger) (launcher.Launcher, error) {
	switch cfg.Training.Launcher {
	case config.LauncherEngine:
		return launcher.NewDirect(eng, importPollInterval, cfg.Launcher.ImportTimeoutDuration(), logger), nil
	default:
		ts, err := engine.TokenSource(ctx, cfg.Launcher.Token)
		if err != nil {
			return nil, err
		}
		return launcher.NewWorkflow(&cfg.Launcher, ts, logger), nil
	}
}

// Start registers all infrastructure systems with the lifecycle coordinator.
// Database and storage hooks are registered for startup and shutdown coordination.
func (i *Infrastructure) Start() error {
	if err := i.Database.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("database start failed: %w", err)
	}
	if err := i.Storage.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("storage start failed: %w", err)
	}
	return nil
}
