// Package thresholds manages per-processor training configuration: whether
// training is enabled and how many eligible documents trigger a round.
package thresholds

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config is the persisted training configuration for one processor.
// CheckIntervalMinutes is informational and governs external polling cadence.
type Config struct {
	ProcessorID                string    `json:"processor_id"`
	Enabled                    bool      `json:"enabled"`
	MinDocumentsForInitial     int       `json:"min_documents_for_initial_training"`
	MinDocumentsForIncremental int       `json:"min_documents_for_incremental"`
	MinAccuracyForDeployment   float64   `json:"min_accuracy_for_deployment"`
	CheckIntervalMinutes       int       `json:"check_interval_minutes"`
	CreatedAt                  time.Time `json:"created_at"`
	UpdatedAt                  time.Time `json:"updated_at"`
}

// UpdateCommand carries a partial update. Nil fields keep their current value.
type UpdateCommand struct {
	Enabled                    *bool    `json:"enabled,omitempty"`
	MinDocumentsForInitial     *int     `json:"min_documents_for_initial_training,omitempty"`
	MinDocumentsForIncremental *int     `json:"min_documents_for_incremental,omitempty"`
	MinAccuracyForDeployment   *float64 `json:"min_accuracy_for_deployment,omitempty"`
	CheckIntervalMinutes       *int     `json:"check_interval_minutes,omitempty"`
}

// Validate rejects out-of-range values.
func (c UpdateCommand) Validate() error {
	if c.MinDocumentsForInitial != nil && *c.MinDocumentsForInitial < 1 {
		return fmt.Errorf("%w: min_documents_for_initial_training must be at least 1", ErrInvalidConfig)
	}
	if c.MinDocumentsForIncremental != nil && *c.MinDocumentsForIncremental < 1 {
		return fmt.Errorf("%w: min_documents_for_incremental must be at least 1", ErrInvalidConfig)
	}
	if c.MinAccuracyForDeployment != nil && (*c.MinAccuracyForDeployment < 0 || *c.MinAccuracyForDeployment > 1) {
		return fmt.Errorf("%w: min_accuracy_for_deployment must be between 0 and 1", ErrInvalidConfig)
	}
	if c.CheckIntervalMinutes != nil && *c.CheckIntervalMinutes < 1 {
		return fmt.Errorf("%w: check_interval_minutes must be at least 1", ErrInvalidConfig)
	}
	return nil
}

// Apply returns cfg with the non-nil fields of c applied.
func (c UpdateCommand) Apply(cfg Config) Config {
	if c.Enabled != nil {
		cfg.Enabled = *c.Enabled
	}
	if c.MinDocumentsForInitial != nil {
		cfg.MinDocumentsForInitial = *c.MinDocumentsForInitial
	}
	if c.MinDocumentsForIncremental != nil {
		cfg.MinDocumentsForIncremental = *c.MinDocumentsForIncremental
	}
	if c.MinAccuracyForDeployment != nil {
		cfg.MinAccuracyForDeployment = *c.MinAccuracyForDeployment
	}
	if c.CheckIntervalMinutes != nil {
		cfg.CheckIntervalMinutes = *c.CheckIntervalMinutes
	}
	return cfg
}

// Defaults seeds the Config created for a processor on first evaluation.
type Defaults struct {
	MinDocumentsForInitial     int     `toml:"min_documents_for_initial_training"`
	MinDocumentsForIncremental int     `toml:"min_documents_for_incremental"`
	MinAccuracyForDeployment   float64 `toml:"min_accuracy_for_deployment"`
	CheckIntervalMinutes       int     `toml:"check_interval_minutes"`
}

// DefaultsEnv maps Defaults fields to environment variable names for override injection.
type DefaultsEnv struct {
	MinDocumentsForInitial     string
	MinDocumentsForIncremental string
	MinAccuracyForDeployment   string
	CheckIntervalMinutes       string
}

// New returns an enabled Config for processorID seeded from d.
func (d Defaults) New(processorID string) Config {
	return Config{
		ProcessorID:                processorID,
		Enabled:                    true,
		MinDocumentsForInitial:     d.MinDocumentsForInitial,
		MinDocumentsForIncremental: d.MinDocumentsForIncremental,
		MinAccuracyForDeployment:   d.MinAccuracyForDeployment,
		CheckIntervalMinutes:       d.CheckIntervalMinutes,
	}
}

// Finalize applies defaults, environment variable overrides, and validation.
func (d *Defaults) Finalize(env *DefaultsEnv) error {
	d.loadDefaults()
	if env != nil {
		d.loadEnv(env)
	}
	return d.validate()
}

// Merge overwrites non-zero fields from overlay.
func (d *Defaults) Merge(overlay *Defaults) {
	if overlay.MinDocumentsForInitial != 0 {
		d.MinDocumentsForInitial = overlay.MinDocumentsForInitial
	}
	if overlay.MinDocumentsForIncremental != 0 {
		d.MinDocumentsForIncremental = overlay.MinDocumentsForIncremental
	}
	if overlay.MinAccuracyForDeployment != 0 {
		d.MinAccuracyForDeployment = overlay.MinAccuracyForDeployment
	}
	if overlay.CheckIntervalMinutes != 0 {
		d.CheckIntervalMinutes = overlay.CheckIntervalMinutes
	}
}

func (d *Defaults) loadDefaults() {
	if d.MinDocumentsForInitial == 0 {
		d.MinDocumentsForInitial = 10
	}
	if d.MinDocumentsForIncremental == 0 {
		d.MinDocumentsForIncremental = 5
	}
	if d.MinAccuracyForDeployment == 0 {
		d.MinAccuracyForDeployment = 0.7
	}
	if d.CheckIntervalMinutes == 0 {
		d.CheckIntervalMinutes = 60
	}
}

func (d *Defaults) loadEnv(env *DefaultsEnv) {
	intVar := func(name string, dst *int) {
		if name == "" {
			return
		}
		if v := os.Getenv(name); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}

	intVar(env.MinDocumentsForInitial, &d.MinDocumentsForInitial)
	intVar(env.MinDocumentsForIncremental, &d.MinDocumentsForIncremental)
	intVar(env.CheckIntervalMinutes, &d.CheckIntervalMinutes)

	if env.MinAccuracyForDeployment != "" {
		if v := os.Getenv(env.MinAccuracyForDeployment); v != "" {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				d.MinAccuracyForDeployment = f
			}
		}
	}
}

func (d *Defaults) validate() error {
	return UpdateCommand{
		MinDocumentsForInitial:     &d.MinDocumentsForInitial,
		MinDocumentsForIncremental: &d.MinDocumentsForIncremental,
		MinAccuracyForDeployment:   &d.MinAccuracyForDeployment,
		CheckIntervalMinutes:       &d.CheckIntervalMinutes,
	}.Validate()
}
