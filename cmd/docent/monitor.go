package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"
)

// errMonitorRunning is returned when another monitor holds the lock.
var errMonitorRunning = errors.New("another monitor is already running")

func defaultLockPath() string {
	return filepath.Join(os.TempDir(), "docent-monitor.lock")
}

func newMonitorCommand(ctx *commandContext) *cobra.Command {
	var once bool
	var lockPath string

	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Advance in-flight training batches",
		Long: "Advance in-flight training batches through training and deployment.\n" +
			"Runs until interrupted unless --once is given. Only one monitor may run per lock file.",
		RunE: func(cmd *cobra.Command, args []string) error {
			lock, err := acquireMonitorLock(lockPath)
			if err != nil {
				return err
			}
			defer func() { _ = lock.Unlock() }()

			a, err := ctx.ensureApp()
			if err != nil {
				return err
			}

			if once {
				report, err := a.domain.Training.Sweep(cmd.Context())
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), report)
			}

			a.domain.Training.Run(cmd.Context(), a.cfg.Training.MonitorIntervalDuration())
			return nil
		},
	}

	cmd.Flags().BoolVar(&once, "once", false, "Run a single sweep and exit")
	cmd.Flags().StringVar(&lockPath, "lock", defaultLockPath(), "Lock file guarding single-instance execution")
	return cmd
}

func acquireMonitorLock(path string) (*flock.Flock, error) {
	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire monitor lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w (lock %s)", errMonitorRunning, path)
	}
	return lock, nil
}
