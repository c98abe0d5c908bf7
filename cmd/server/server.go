package main

import (
	"context"
	"time"

	"github.com/JaimeStill/docent/internal/config"
	"github.com/JaimeStill/docent/internal/infrastructure"
)

type Server struct {
	infra   *infrastructure.Infrastructure
	modules *Modules
	http    *httpServer
	monitor config.TrainingConfig
}

func NewServer(cfg *config.Config) (*Server, error) {
	infra, err := infrastructure.New(cfg)
	if err != nil {
		return nil, err
	}

	modules, err := NewModules(infra, cfg)
	if err != nil {
		return nil, err
	}

	router := buildRouter(infra)
	if err := modules.Mount(router); err != nil {
		return nil, err
	}

	infra.Logger.Info(
		"server initialized",
		"addr", cfg.Server.Addr(),
		"version", cfg.Version,
		"launcher", cfg.Training.Launcher,
		"metrics", cfg.Metrics.Enabled,
	)

	return &Server{
		infra:   infra,
		modules: modules,
		http:    newHTTPServer(&cfg.Server, router, infra.Logger),
		monitor: cfg.Training,
	}, nil
}

func (s *Server) Start() error {
	s.infra.Logger.Info("starting service")

	if err := s.infra.Start(); err != nil {
		return err
	}

	if err := s.http.Start(s.infra.Lifecycle); err != nil {
		return err
	}

	go func() {
		if err := s.infra.Lifecycle.WaitForStartup(); err != nil {
			s.infra.Logger.Error("startup checks failed", "error", err)
			return
		}
		s.infra.Logger.Info("all subsystems ready")

		if s.monitor.Monitoring() {
			s.startMonitor()
		}
	}()

	return nil
}

// startMonitor sweeps in-flight batches until shutdown.
func (s *Server) startMonitor() {
	interval := s.monitor.MonitorIntervalDuration()
	s.infra.Logger.Info("training monitor started", "interval", interval)

	s.infra.Lifecycle.Go(func(ctx context.Context) {
		s.modules.Domain.Training.Run(ctx, interval)
	})
}

func (s *Server) Shutdown(timeout time.Duration) error {
	s.infra.Logger.Info("initiating shutdown")
	return s.infra.Lifecycle.Shutdown(timeout)
}
