package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/JaimeStill/docent/internal/thresholds"
)

// Supported training job launchers.
const (
	LauncherWorkflow = "workflow"
	LauncherEngine   = "engine"
)

var thresholdsEnv = &thresholds.DefaultsEnv{
	MinDocumentsForInitial:     "DOCENT_TRAINING_MIN_DOCUMENTS_FOR_INITIAL",
	MinDocumentsForIncremental: "DOCENT_TRAINING_MIN_DOCUMENTS_FOR_INCREMENTAL",
	MinAccuracyForDeployment:   "DOCENT_TRAINING_MIN_ACCURACY_FOR_DEPLOYMENT",
	CheckIntervalMinutes:       "DOCENT_TRAINING_CHECK_INTERVAL_MINUTES",
}

// TrainingConfig holds intake filtering, batch sizing, and monitor settings.
// Thresholds seeds the per-processor training config created on first evaluation.
type TrainingConfig struct {
	RootPrefix          string              `toml:"root_prefix"`
	ContentTypes        []string            `toml:"content_types"`
	WatchedBucket       string              `toml:"watched_bucket"`
	ConfidenceThreshold float64             `toml:"confidence_threshold"`
	MaxBatchSize        int                 `toml:"max_batch_size"`
	StageBatchSize      int                 `toml:"stage_batch_size"`
	StageDocuments      *bool               `toml:"stage_documents"`
	Launcher            string              `toml:"launcher"`
	MonitorEnabled      *bool               `toml:"monitor_enabled"`
	MonitorInterval     string              `toml:"monitor_interval"`
	MaxWait             string              `toml:"max_wait"`
	SweepConcurrency    int                 `toml:"sweep_concurrency"`
	Thresholds          thresholds.Defaults `toml:"thresholds"`
}

// MonitorIntervalDuration returns MonitorInterval as a time.Duration.
func (c *TrainingConfig) MonitorIntervalDuration() time.Duration {
	d, _ := time.ParseDuration(c.MonitorInterval)
	return d
}

// MaxWaitDuration returns MaxWait as a time.Duration.
func (c *TrainingConfig) MaxWaitDuration() time.Duration {
	d, _ := time.ParseDuration(c.MaxWait)
	return d
}

// Staging reports whether claimed documents are copied under the batch
// prefix before launch.
func (c *TrainingConfig) Staging() bool {
	return c.StageDocuments != nil && *c.StageDocuments
}

// Monitoring reports whether the server runs the training monitor loop.
func (c *TrainingConfig) Monitoring() bool {
	return c.MonitorEnabled != nil && *c.MonitorEnabled
}

// BatchLimit returns the claim cap for a single training batch.
// Staging copies every claimed document, so it uses the smaller cap.
func (c *TrainingConfig) BatchLimit() int {
	if c.Staging() {
		return c.StageBatchSize
	}
	return c.MaxBatchSize
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *TrainingConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.Thresholds.Finalize(thresholdsEnv); err != nil {
		return fmt.Errorf("thresholds: %w", err)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay. Boolean fields always apply.
func (c *TrainingConfig) Merge(overlay *TrainingConfig) {
	if overlay.RootPrefix != "" {
		c.RootPrefix = overlay.RootPrefix
	}
	if overlay.ContentTypes != nil {
		c.ContentTypes = overlay.ContentTypes
	}
	if overlay.WatchedBucket != "" {
		c.WatchedBucket = overlay.WatchedBucket
	}
	if overlay.ConfidenceThreshold != 0 {
		c.ConfidenceThreshold = overlay.ConfidenceThreshold
	}
	if overlay.MaxBatchSize != 0 {
		c.MaxBatchSize = overlay.MaxBatchSize
	}
	if overlay.StageBatchSize != 0 {
		c.StageBatchSize = overlay.StageBatchSize
	}
	if overlay.Launcher != "" {
		c.Launcher = overlay.Launcher
	}
	if overlay.MonitorInterval != "" {
		c.MonitorInterval = overlay.MonitorInterval
	}
	if overlay.MaxWait != "" {
		c.MaxWait = overlay.MaxWait
	}
	if overlay.SweepConcurrency != 0 {
		c.SweepConcurrency = overlay.SweepConcurrency
	}
	if overlay.StageDocuments != nil {
		c.StageDocuments = overlay.StageDocuments
	}
	if overlay.MonitorEnabled != nil {
		c.MonitorEnabled = overlay.MonitorEnabled
	}
	c.Thresholds.Merge(&overlay.Thresholds)
}

func (c *TrainingConfig) loadDefaults() {
	if c.RootPrefix == "" {
		c.RootPrefix = "documents/"
	}
	if !strings.HasSuffix(c.RootPrefix, "/") {
		c.RootPrefix += "/"
	}
	if len(c.ContentTypes) == 0 {
		c.ContentTypes = []string{"application/pdf"}
	}
	if c.ConfidenceThreshold == 0 {
		c.ConfidenceThreshold = 0.7
	}
	if c.MaxBatchSize == 0 {
		c.MaxBatchSize = 50
	}
	if c.StageDocuments == nil {
		c.StageDocuments = boolPtr(false)
	}
	if c.MonitorEnabled == nil {
		c.MonitorEnabled = boolPtr(true)
	}
	if c.StageBatchSize == 0 {
		c.StageBatchSize = 20
	}
	if c.Launcher == "" {
		c.Launcher = LauncherWorkflow
	}
	if c.MonitorInterval == "" {
		c.MonitorInterval = "60s"
	}
	if c.MaxWait == "" {
		c.MaxWait = "3h"
	}
	if c.SweepConcurrency == 0 {
		c.SweepConcurrency = 4
	}
}

func (c *TrainingConfig) loadEnv() {
	if v := os.Getenv("DOCENT_TRAINING_ROOT_PREFIX"); v != "" {
		c.RootPrefix = v
	}
	if v := os.Getenv("DOCENT_TRAINING_CONTENT_TYPES"); v != "" {
		types := strings.Split(v, ",")
		c.ContentTypes = make([]string, 0, len(types))
		for _, t := range types {
			if trimmed := strings.TrimSpace(t); trimmed != "" {
				c.ContentTypes = append(c.ContentTypes, trimmed)
			}
		}
	}
	if v := os.Getenv("DOCENT_TRAINING_WATCHED_BUCKET"); v != "" {
		c.WatchedBucket = v
	}
	if v := os.Getenv("DOCENT_TRAINING_CONFIDENCE_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.ConfidenceThreshold = f
		}
	}
	if v := os.Getenv("DOCENT_TRAINING_MAX_BATCH_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxBatchSize = n
		}
	}
	if v := os.Getenv("DOCENT_TRAINING_STAGE_BATCH_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.StageBatchSize = n
		}
	}
	if v := os.Getenv("DOCENT_TRAINING_STAGE_DOCUMENTS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.StageDocuments = &b
		}
	}
	if v := os.Getenv("DOCENT_TRAINING_LAUNCHER"); v != "" {
		c.Launcher = v
	}
	if v := os.Getenv("DOCENT_TRAINING_MONITOR_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.MonitorEnabled = &b
		}
	}
	if v := os.Getenv("DOCENT_TRAINING_MONITOR_INTERVAL"); v != "" {
		c.MonitorInterval = v
	}
	if v := os.Getenv("DOCENT_TRAINING_MAX_WAIT"); v != "" {
		c.MaxWait = v
	}
}

func (c *TrainingConfig) validate() error {
	switch c.Launcher {
	case LauncherWorkflow:
	case LauncherEngine:
		// the engine imports training documents from the staged prefix
		c.StageDocuments = boolPtr(true)
	default:
		return fmt.Errorf("unsupported launcher: %s", c.Launcher)
	}

	if c.ConfidenceThreshold < 0 || c.ConfidenceThreshold > 1 {
		return fmt.Errorf("confidence_threshold must be between 0 and 1")
	}
	if c.MaxBatchSize < 1 || c.StageBatchSize < 1 {
		return fmt.Errorf("batch sizes must be positive")
	}
	if c.StageBatchSize > c.MaxBatchSize {
		return fmt.Errorf("stage_batch_size cannot exceed max_batch_size")
	}
	if d, err := time.ParseDuration(c.MonitorInterval); err != nil || d <= 0 {
		return fmt.Errorf("invalid monitor_interval: %q", c.MonitorInterval)
	}
	if d, err := time.ParseDuration(c.MaxWait); err != nil || d <= 0 {
		return fmt.Errorf("invalid max_wait: %q", c.MaxWait)
	}
	return nil
}

func boolPtr(b bool) *bool { return &b }
