package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/JaimeStill/docent/internal/api"
	"github.com/JaimeStill/docent/internal/config"
	"github.com/JaimeStill/docent/internal/infrastructure"
)

const shutdownTimeout = 10 * time.Second

// app is the wired service used by commands that touch records or storage.
type app struct {
	cfg    *config.Config
	infra  *infrastructure.Infrastructure
	domain *api.Domain
}

type commandContext struct {
	processorFlag *string
	jsonFlag      *bool

	app *app
}

func newCommandContext(processorFlag *string, jsonFlag *bool) *commandContext {
	return &commandContext{
		processorFlag: processorFlag,
		jsonFlag:      jsonFlag,
	}
}

// ensureApp loads configuration and starts infrastructure on first use.
func (c *commandContext) ensureApp() (*app, error) {
	if c.app != nil {
		return c.app, nil
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	infra, err := infrastructure.New(cfg)
	if err != nil {
		return nil, err
	}
	if err := infra.Start(); err != nil {
		return nil, err
	}
	if err := infra.Lifecycle.WaitForStartup(); err != nil {
		infra.Lifecycle.Shutdown(shutdownTimeout)
		return nil, fmt.Errorf("startup: %w", err)
	}

	runtime := api.NewRuntime(cfg, infra)
	c.app = &app{
		cfg:    cfg,
		infra:  infra,
		domain: api.NewDomain(runtime),
	}
	return c.app, nil
}

func (c *commandContext) close() error {
	if c.app == nil {
		return nil
	}
	err := c.app.infra.Lifecycle.Shutdown(shutdownTimeout)
	c.app = nil
	return err
}

// processor returns the --processor flag or the configured default.
func (c *commandContext) processor(a *app) (string, error) {
	if p := strings.TrimSpace(*c.processorFlag); p != "" {
		return p, nil
	}
	if a.cfg.Engine.ProcessorID == "" {
		return "", fmt.Errorf("processor required: pass --processor or set engine.processor_id")
	}
	return a.cfg.Engine.ProcessorID, nil
}

// wantTable reports whether output to w should render as a table.
func (c *commandContext) wantTable(w io.Writer) bool {
	if *c.jsonFlag {
		return false
	}
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
