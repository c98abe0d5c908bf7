package thresholds_test

import (
	"errors"
	"testing"

	"github.com/JaimeStill/docent/internal/thresholds"
)

func ptr[T any](v T) *T { return &v }

func TestUpdateCommandValidate(t *testing.T) {
	tests := []struct {
		name    string
		cmd     thresholds.UpdateCommand
		wantErr bool
	}{
		{"empty", thresholds.UpdateCommand{}, false},
		{"valid", thresholds.UpdateCommand{MinDocumentsForInitial: ptr(3), MinAccuracyForDeployment: ptr(0.9)}, false},
		{"accuracy bounds", thresholds.UpdateCommand{MinAccuracyForDeployment: ptr(1.0)}, false},
		{"zero initial", thresholds.UpdateCommand{MinDocumentsForInitial: ptr(0)}, true},
		{"negative incremental", thresholds.UpdateCommand{MinDocumentsForIncremental: ptr(-1)}, true},
		{"accuracy above one", thresholds.UpdateCommand{MinAccuracyForDeployment: ptr(1.5)}, true},
		{"accuracy below zero", thresholds.UpdateCommand{MinAccuracyForDeployment: ptr(-0.1)}, true},
		{"zero interval", thresholds.UpdateCommand{CheckIntervalMinutes: ptr(0)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cmd.Validate()
			if tt.wantErr && !errors.Is(err, thresholds.ErrInvalidConfig) {
				t.Errorf("err = %v, want ErrInvalidConfig", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestUpdateCommandApply(t *testing.T) {
	base := thresholds.Config{
		ProcessorID:                "p1",
		Enabled:                    true,
		MinDocumentsForInitial:     10,
		MinDocumentsForIncremental: 5,
		MinAccuracyForDeployment:   0.7,
		CheckIntervalMinutes:       60,
	}

	got := thresholds.UpdateCommand{
		Enabled:                ptr(false),
		MinDocumentsForInitial: ptr(3),
	}.Apply(base)

	if got.Enabled {
		t.Error("Enabled not applied")
	}
	if got.MinDocumentsForInitial != 3 {
		t.Errorf("MinDocumentsForInitial = %d, want 3", got.MinDocumentsForInitial)
	}
	if got.MinDocumentsForIncremental != 5 || got.MinAccuracyForDeployment != 0.7 || got.CheckIntervalMinutes != 60 {
		t.Errorf("untouched fields changed: %+v", got)
	}
}

func TestDefaultsFinalize(t *testing.T) {
	t.Run("fills defaults", func(t *testing.T) {
		var d thresholds.Defaults
		if err := d.Finalize(nil); err != nil {
			t.Fatalf("Finalize: %v", err)
		}

		want := thresholds.Defaults{
			MinDocumentsForInitial:     10,
			MinDocumentsForIncremental: 5,
			MinAccuracyForDeployment:   0.7,
			CheckIntervalMinutes:       60,
		}
		if d != want {
			t.Errorf("defaults = %+v, want %+v", d, want)
		}
	})

	t.Run("env overrides", func(t *testing.T) {
		t.Setenv("TEST_MIN_INITIAL", "3")
		t.Setenv("TEST_MIN_ACCURACY", "0.85")
		t.Setenv("TEST_INTERVAL", "not-a-number")

		var d thresholds.Defaults
		err := d.Finalize(&thresholds.DefaultsEnv{
			MinDocumentsForInitial:   "TEST_MIN_INITIAL",
			MinAccuracyForDeployment: "TEST_MIN_ACCURACY",
			CheckIntervalMinutes:     "TEST_INTERVAL",
		})
		if err != nil {
			t.Fatalf("Finalize: %v", err)
		}
		if d.MinDocumentsForInitial != 3 {
			t.Errorf("MinDocumentsForInitial = %d, want 3", d.MinDocumentsForInitial)
		}
		if d.MinAccuracyForDeployment != 0.85 {
			t.Errorf("MinAccuracyForDeployment = %v, want 0.85", d.MinAccuracyForDeployment)
		}
		if d.CheckIntervalMinutes != 60 {
			t.Errorf("CheckIntervalMinutes = %d, want 60", d.CheckIntervalMinutes)
		}
	})

	t.Run("rejects invalid accuracy", func(t *testing.T) {
		d := thresholds.Defaults{MinAccuracyForDeployment: 2}
		if err := d.Finalize(nil); !errors.Is(err, thresholds.ErrInvalidConfig) {
			t.Errorf("err = %v, want ErrInvalidConfig", err)
		}
	})
}

func TestDefaultsMergeAndNew(t *testing.T) {
	d := thresholds.Defaults{
		MinDocumentsForInitial:     10,
		MinDocumentsForIncremental: 5,
		MinAccuracyForDeployment:   0.7,
		CheckIntervalMinutes:       60,
	}
	d.Merge(&thresholds.Defaults{MinDocumentsForIncremental: 2})

	cfg := d.New("p1")
	if !cfg.Enabled || cfg.ProcessorID != "p1" {
		t.Errorf("config = %+v, want enabled p1", cfg)
	}
	if cfg.MinDocumentsForIncremental != 2 || cfg.MinDocumentsForInitial != 10 {
		t.Errorf("config = %+v, want merged incremental only", cfg)
	}
}
