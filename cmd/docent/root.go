package main

import (
	"github.com/spf13/cobra"
)

// newRootCommand builds the command tree. The returned context owns any
// infrastructure started by a command and must be closed after execution.
func newRootCommand() (*cobra.Command, *commandContext) {
	var processorFlag string
	var jsonFlag bool

	ctx := newCommandContext(&processorFlag, &jsonFlag)

	rootCmd := &cobra.Command{
		Use:           "docent",
		Short:         "Operate the document intake and training service",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&processorFlag, "processor", "p", "", "Processor id (defaults to engine.processor_id)")
	rootCmd.PersistentFlags().BoolVar(&jsonFlag, "json", false, "Write JSON even on a terminal")

	rootCmd.AddCommand(newStatusCommand(ctx))
	rootCmd.AddCommand(newEvaluateCommand(ctx))
	rootCmd.AddCommand(newTriggerCommand(ctx))
	rootCmd.AddCommand(newResetCommand(ctx))
	rootCmd.AddCommand(newThresholdsCommand(ctx))
	rootCmd.AddCommand(newMonitorCommand(ctx))
	rootCmd.AddCommand(newSampleCommand(ctx))

	return rootCmd, ctx
}
