package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/JaimeStill/docent/internal/thresholds"
)

func newThresholdsCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "thresholds",
		Short: "Inspect or change a processor's training thresholds",
	}
	cmd.AddCommand(newThresholdsGetCommand(ctx))
	cmd.AddCommand(newThresholdsSetCommand(ctx))
	return cmd
}

func newThresholdsGetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "get",
		Short: "Show the training thresholds",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.ensureApp()
			if err != nil {
				return err
			}
			pid, err := ctx.processor(a)
			if err != nil {
				return err
			}

			cfg, err := a.domain.Thresholds.Ensure(cmd.Context(), pid)
			if err != nil {
				return err
			}
			return printThresholds(ctx, cmd, cfg)
		},
	}
}

func newThresholdsSetCommand(ctx *commandContext) *cobra.Command {
	var (
		enabled     bool
		initial     int
		incremental int
		accuracy    float64
		interval    int
	)

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Update the training thresholds; unset flags keep their value",
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()

			var update thresholds.UpdateCommand
			if flags.Changed("enabled") {
				update.Enabled = &enabled
			}
			if flags.Changed("initial") {
				update.MinDocumentsForInitial = &initial
			}
			if flags.Changed("incremental") {
				update.MinDocumentsForIncremental = &incremental
			}
			if flags.Changed("accuracy") {
				update.MinAccuracyForDeployment = &accuracy
			}
			if flags.Changed("interval") {
				update.CheckIntervalMinutes = &interval
			}
			if err := update.Validate(); err != nil {
				return err
			}

			a, err := ctx.ensureApp()
			if err != nil {
				return err
			}
			pid, err := ctx.processor(a)
			if err != nil {
				return err
			}

			cfg, err := a.domain.Thresholds.Update(cmd.Context(), pid, update)
			if err != nil {
				return err
			}
			return printThresholds(ctx, cmd, cfg)
		},
	}

	cmd.Flags().BoolVar(&enabled, "enabled", true, "Allow automatic training")
	cmd.Flags().IntVar(&initial, "initial", 0, "Documents required for initial training")
	cmd.Flags().IntVar(&incremental, "incremental", 0, "Documents required for incremental training")
	cmd.Flags().Float64Var(&accuracy, "accuracy", 0, "Minimum accuracy for deployment (0-1)")
	cmd.Flags().IntVar(&interval, "interval", 0, "Check interval in minutes")
	return cmd
}

func printThresholds(ctx *commandContext, cmd *cobra.Command, cfg *thresholds.Config) error {
	out := cmd.OutOrStdout()
	if !ctx.wantTable(out) {
		return writeJSON(out, cfg)
	}
	fmt.Fprintln(out, renderThresholds(cfg))
	return nil
}

func renderThresholds(cfg *thresholds.Config) string {
	rows := [][]string{
		{"enabled", strconv.FormatBool(cfg.Enabled)},
		{"min_documents_for_initial_training", strconv.Itoa(cfg.MinDocumentsForInitial)},
		{"min_documents_for_incremental", strconv.Itoa(cfg.MinDocumentsForIncremental)},
		{"min_accuracy_for_deployment", strconv.FormatFloat(cfg.MinAccuracyForDeployment, 'f', 2, 64)},
		{"check_interval_minutes", strconv.Itoa(cfg.CheckIntervalMinutes)},
	}
	return renderTable(
		"Thresholds: "+cfg.ProcessorID,
		[]string{"Setting", "Value"},
		rows,
		[]columnAlignment{alignLeft, alignRight},
	)
}
