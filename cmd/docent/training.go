package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JaimeStill/docent/internal/batches"
	"github.com/JaimeStill/docent/internal/documents"
)

func newEvaluateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "evaluate",
		Short: "Report whether the processor meets a training threshold",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.ensureApp()
			if err != nil {
				return err
			}
			pid, err := ctx.processor(a)
			if err != nil {
				return err
			}

			decision, err := a.domain.Training.Evaluate(cmd.Context(), pid)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), decision)
		},
	}
}

func newTriggerCommand(ctx *commandContext) *cobra.Command {
	var kindFlag string

	cmd := &cobra.Command{
		Use:   "trigger",
		Short: "Open and launch a training batch now",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.ensureApp()
			if err != nil {
				return err
			}
			pid, err := ctx.processor(a)
			if err != nil {
				return err
			}

			var kind batches.Kind
			if kindFlag != "" {
				kind, err = batches.ParseKind(kindFlag)
			} else {
				kind, err = a.domain.Training.DefaultKind(cmd.Context(), pid)
			}
			if err != nil {
				return err
			}

			batch, err := a.domain.Training.Trigger(cmd.Context(), pid, kind)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), batch)
		},
	}

	cmd.Flags().StringVar(&kindFlag, "kind", "", "Training kind: initial or incremental (defaults from processor state)")
	return cmd
}

func newResetCommand(ctx *commandContext) *cobra.Command {
	var batchFlag string
	var statusFlag string

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Release claimed documents so they train again",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.ensureApp()
			if err != nil {
				return err
			}
			pid, err := ctx.processor(a)
			if err != nil {
				return err
			}

			reset := documents.ResetCommand{ProcessorID: pid}
			if batchFlag != "" {
				reset.BatchID = &batchFlag
			}
			if statusFlag != "" {
				status, err := documents.ParseStatus(statusFlag)
				if err != nil {
					return err
				}
				reset.Status = &status
			}

			result, err := a.domain.Documents.Reset(cmd.Context(), reset)
			if err != nil {
				return fmt.Errorf("reset documents: %w", err)
			}
			return writeJSON(cmd.OutOrStdout(), result)
		},
	}

	cmd.Flags().StringVar(&batchFlag, "batch", "", "Only release documents claimed by this batch")
	cmd.Flags().StringVar(&statusFlag, "status", "", "Only release documents in this status")
	return cmd
}
