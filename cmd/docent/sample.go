package main

import (
	"github.com/spf13/cobra"

	"github.com/JaimeStill/docent/internal/intake"
	"github.com/JaimeStill/docent/internal/samples"
)

// sampleResult pairs an uploaded sample with its intake outcome when ingested.
type sampleResult struct {
	Sample  *samples.Sample `json:"sample"`
	Outcome *intake.Outcome `json:"outcome,omitempty"`
}

func newSampleCommand(ctx *commandContext) *cobra.Command {
	var spec samples.Spec
	var ingest bool

	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Generate a labeled sample PDF and upload it to the document root",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.ensureApp()
			if err != nil {
				return err
			}

			sample, err := a.domain.Samples.Generate(cmd.Context(), spec)
			if err != nil {
				return err
			}
			result := sampleResult{Sample: sample}

			if ingest {
				bucket := a.cfg.Training.WatchedBucket
				if bucket == "" {
					bucket = a.infra.Storage.Container()
				}
				outcome := a.domain.Intake.HandleUpload(cmd.Context(), intake.Event{
					Bucket:      bucket,
					Name:        sample.Key,
					ContentType: "application/pdf",
				})
				result.Outcome = &outcome
			}

			return writeJSON(cmd.OutOrStdout(), result)
		},
	}

	cmd.Flags().StringVar(&spec.Label, "label", "", "Folder label for the sample (empty for unlabeled)")
	cmd.Flags().StringVar(&spec.Name, "name", "", "File name (generated when empty)")
	cmd.Flags().IntVar(&spec.Pages, "pages", 1, "Number of pages")
	cmd.Flags().StringVar(&spec.Body, "body", "", "Text printed on each page")
	cmd.Flags().BoolVar(&ingest, "ingest", false, "Run the upload through intake without waiting for a storage notification")
	return cmd
}
