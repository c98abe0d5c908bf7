package memstore

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/JaimeStill/docent/internal/thresholds"
)

type configStore struct{ *Store }

func (c *configStore) Handler() *thresholds.Handler {
	return thresholds.NewHandler(c, c.logger)
}

func (c *configStore) Ensure(_ context.Context, processorID string) (*thresholds.Config, error) {
	if processorID == "" {
		return nil, fmt.Errorf("%w: processor_id required", thresholds.ErrInvalidConfig)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	return clone(c.ensure(processorID)), nil
}

func (c *configStore) ensure(processorID string) *thresholds.Config {
	cfg, ok := c.configs[processorID]
	if !ok {
		created := c.defaults.New(processorID)
		created.CreatedAt = c.tick()
		created.UpdatedAt = created.CreatedAt
		cfg = &created
		c.configs[processorID] = cfg
	}
	return cfg
}

func (c *configStore) Find(_ context.Context, processorID string) (*thresholds.Config, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cfg, ok := c.configs[processorID]
	if !ok {
		return nil, thresholds.ErrNotFound
	}
	return clone(cfg), nil
}

func (c *configStore) List(_ context.Context) ([]thresholds.Config, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	items := make([]thresholds.Config, 0, len(c.configs))
	for _, cfg := range c.configs {
		items = append(items, *cfg)
	}
	slices.SortFunc(items, func(a, b thresholds.Config) int {
		return strings.Compare(a.ProcessorID, b.ProcessorID)
	})
	return items, nil
}

func (c *configStore) Update(_ context.Context, processorID string, cmd thresholds.UpdateCommand) (*thresholds.Config, error) {
	if processorID == "" {
		return nil, fmt.Errorf("%w: processor_id required", thresholds.ErrInvalidConfig)
	}
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	cfg := c.ensure(processorID)
	*cfg = cmd.Apply(*cfg)
	cfg.UpdatedAt = c.tick()
	return clone(cfg), nil
}
